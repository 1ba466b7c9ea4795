package starlark

import (
	"fmt"

	"go.starlark.net/starlark"
)

// Names of the predeclared script globals.
const (
	BuiltinUID = "uid"
	GlobalEnv  = "env"
	GlobalVars = "vars"
)

// uidBuiltin implements uid(name).
func uidBuiltin(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	return UID(name), nil
}

// EnvToStarlark converts environment string to Starlark value.
// The env string is accessible as "env" global in scripts.
func EnvToStarlark(env string) starlark.Value {
	return starlark.String(env)
}

// VarsToStarlark converts configured variables to a frozen dict.
// The dict is accessible as "vars" global in scripts.
func VarsToStarlark(vars map[string]any) (starlark.Value, error) {
	if vars == nil {
		d := starlark.NewDict(0)
		d.Freeze()
		return d, nil
	}
	v, err := GoToStarlark(vars)
	if err != nil {
		return nil, fmt.Errorf("vars: %w", err)
	}
	v.Freeze()
	return v, nil
}

// Predeclared returns the globals every request script sees: uid, env, vars.
// All values are frozen so one set can be shared by concurrent threads.
func Predeclared(env string, vars map[string]any) (starlark.StringDict, error) {
	varsVal, err := VarsToStarlark(vars)
	if err != nil {
		return nil, err
	}
	globals := starlark.StringDict{
		BuiltinUID: starlark.NewBuiltin(BuiltinUID, uidBuiltin),
		GlobalEnv:  EnvToStarlark(env),
		GlobalVars: varsVal,
	}
	globals.Freeze()
	return globals, nil
}
