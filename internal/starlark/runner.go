package starlark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/sourcekit/pkg/skobject"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// RequestGlobal is the global a script must bind to its request.
const RequestGlobal = "request"

// DefaultMaxSteps bounds the computation steps of one script run.
const DefaultMaxSteps = 100_000_000

// ErrNoRequest is returned when a script does not bind RequestGlobal.
var ErrNoRequest = errors.New("script does not define " + RequestGlobal)

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// Runner executes request scripts. It is safe for concurrent use.
type Runner struct {
	pool    *ThreadPool
	globals starlark.StringDict
	logger  *slog.Logger

	env      string
	vars     map[string]any
	poolSize int
	maxSteps uint64
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger receives print() output and evaluation diagnostics.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithEnv sets the env global.
func WithEnv(env string) RunnerOption {
	return func(r *Runner) { r.env = env }
}

// WithVars sets the vars global.
func WithVars(vars map[string]any) RunnerOption {
	return func(r *Runner) { r.vars = vars }
}

// WithPoolSize bounds the number of idle threads kept for reuse.
func WithPoolSize(n int) RunnerOption {
	return func(r *Runner) { r.poolSize = n }
}

// WithMaxSteps bounds the computation steps of one script run. Zero means
// no limit.
func WithMaxSteps(n uint64) RunnerOption {
	return func(r *Runner) { r.maxSteps = n }
}

// NewRunner creates a runner with the predeclared globals built once.
func NewRunner(opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		logger:   slog.New(slog.DiscardHandler),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(r)
	}

	globals, err := Predeclared(r.env, r.vars)
	if err != nil {
		return nil, err
	}
	r.globals = globals
	r.pool = NewThreadPool(r.poolSize)
	return r, nil
}

// Globals returns the predeclared globals.
func (r *Runner) Globals() starlark.StringDict {
	return r.globals
}

// Run executes src and converts its request global. Cancelling ctx stops the
// script at its next step.
func (r *Runner) Run(ctx context.Context, filename string, src []byte) (skobject.Convertible, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ScriptError{File: filename, Err: err}
	}

	thread := r.pool.Get(filename)
	defer r.pool.Put(thread)

	thread.Print = func(th *starlark.Thread, msg string) {
		r.logger.Info(msg, "script", th.Name)
	}
	thread.SetMaxExecutionSteps(r.maxSteps)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			thread.Cancel(context.Cause(ctx).Error())
		case <-done:
		}
	}()

	globals, err := starlark.ExecFileOptions(fileOptions, thread, filename, src, r.globals)
	close(done)
	wg.Wait()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			r.logger.Debug("script failed", "script", filename, "backtrace", evalErr.Backtrace())
		}
		return nil, &ScriptError{File: filename, Err: err}
	}

	v, ok := globals[RequestGlobal]
	if !ok {
		return nil, &ScriptError{File: filename, Err: ErrNoRequest}
	}

	req, err := ToRequest(v)
	if err != nil {
		return nil, &ScriptError{File: filename, Err: fmt.Errorf("%s: %w", RequestGlobal, err)}
	}
	return req, nil
}

// ScriptError reports a script that failed to run or produce a request.
type ScriptError struct {
	File string
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s: %v", e.File, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }
