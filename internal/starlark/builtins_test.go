package starlark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestPredeclared(t *testing.T) {
	globals, err := Predeclared("dev", map[string]any{"sdk": "/sdk", "jobs": 4})
	require.NoError(t, err)

	for _, key := range []string{BuiltinUID, GlobalEnv, GlobalVars} {
		_, ok := globals[key]
		assert.True(t, ok, "global %q not found", key)
	}
	assert.Equal(t, `"dev"`, globals[GlobalEnv].String())

	vars, ok := globals[GlobalVars].(*starlark.Dict)
	require.True(t, ok, "vars is %T", globals[GlobalVars])
	sdk, found, err := vars.Get(starlark.String("sdk"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `"/sdk"`, sdk.String())

	err = vars.SetKey(starlark.String("sdk"), starlark.String("other"))
	assert.Error(t, err, "vars is frozen")
}

func TestPredeclared_NilVars(t *testing.T) {
	globals, err := Predeclared("", nil)
	require.NoError(t, err)

	vars, ok := globals[GlobalVars].(*starlark.Dict)
	require.True(t, ok)
	assert.Equal(t, 0, vars.Len())
}

func TestPredeclared_BadVars(t *testing.T) {
	_, err := Predeclared("", map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `vars: dict key "ch"`)
}

func TestUIDBuiltin(t *testing.T) {
	globals, err := Predeclared("", nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		expr    string
		want    starlark.Value
		wantErr string
	}{
		{
			name: "string argument",
			expr: `uid("source.lang.swift")`,
			want: UID("source.lang.swift"),
		},
		{
			name: "equality",
			expr: `uid("key.a") == uid("key.a")`,
			want: starlark.True,
		},
		{
			name: "type",
			expr: `type(uid("key.a"))`,
			want: starlark.String("uid"),
		},
		{
			name:    "missing argument",
			expr:    `uid()`,
			wantErr: "got 0 arguments, want 1",
		},
		{
			name:    "wrong type",
			expr:    `uid(1)`,
			wantErr: "got int, want string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thread := &starlark.Thread{Name: tt.name}
			got, err := starlark.EvalOptions(fileOptions, thread, "expr", tt.expr, globals)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
