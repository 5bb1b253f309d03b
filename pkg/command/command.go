package command

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archviz/pkg/diagram"
	"github.com/matzehuels/archviz/pkg/errors"
)

// Command is one named construction operation against a [diagram.Engine].
//
// Validate and Execute are separate steps: Validate checks and normalizes
// raw parameters without touching any engine, and Execute performs exactly
// one engine mutation with parameters that have already been validated.
// Callers normally go through [SafeExecute].
type Command interface {
	// Name returns the identifier used in plans, e.g. "declare_node".
	Name() string

	// Description is a one-line human-readable summary.
	Description() string

	// Schema returns the JSON Schema of the accepted parameters.
	Schema() string

	// Validate checks raw parameters and returns the normalized form.
	// Failures carry the INVALID_PARAMETER code.
	Validate(raw Params) (Params, error)

	// Execute applies the validated parameters to engine.
	Execute(ctx context.Context, engine *diagram.Engine, p Params) (any, error)
}

// Declared is the result value of a recording command.
type Declared struct {
	Kind string `json:"kind"` // "diagram", "cluster", "node" or "connection"
	Name string `json:"name"`
}

// Result is the uniform outcome of [SafeExecute].
type Result struct {
	Success   bool           `json:"success"`
	Value     any            `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorType string         `json:"error_type,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Duration  time.Duration  `json:"execution_time_ns"`
}

// Err reconstructs an error from a failed result, or nil on success. The
// returned error keeps the result's code for [errors.Is].
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &resultError{code: errors.Code(r.ErrorType), msg: r.Error}
}

type resultError struct {
	code errors.Code
	msg  string
}

func (e *resultError) Error() string     { return e.msg }
func (e *resultError) Code() errors.Code { return e.code }

// SafeExecute validates raw, executes cmd against engine and wraps the
// outcome in a [Result]. Errors and panics never escape: both are reported
// through the result. A failed Execute may still leave a partial value in
// Result.Value.
func SafeExecute(ctx context.Context, cmd Command, engine *diagram.Engine, raw Params) (res Result) {
	start := time.Now()
	logger := LoggerFrom(ctx).With("command", cmd.Name())
	logger.Debug("starting execution", "params", raw.Keys())

	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			logger.Error("command panicked", "panic", r)
			logger.Debug(string(debug.Stack()))
			res = Result{
				Success:   false,
				Error:     fmt.Sprintf("unexpected error in %s: %v", cmd.Name(), r),
				ErrorType: string(errors.ErrCodeInternal),
				Context:   map[string]any{"parameters": raw.Keys(), "panic": fmt.Sprint(r)},
				Duration:  time.Since(start),
			}
		}
	}()

	p, err := cmd.Validate(raw)
	if err != nil {
		logger.Error("parameter validation failed", "err", err)
		return failure(err, validationContext(raw, err))
	}

	v, err := cmd.Execute(WithLogger(ctx, logger), engine, p)
	if err != nil {
		logger.Error("execution failed", "err", err, "elapsed", time.Since(start).Round(time.Microsecond))
		out := failure(err, map[string]any{"parameters": raw.Keys()})
		out.Value = v
		return out
	}

	logger.Debug("execution completed", "elapsed", time.Since(start).Round(time.Microsecond))
	return Result{Success: true, Value: v}
}

func failure(err error, ctx map[string]any) Result {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeExecution
	}
	return Result{
		Success:   false,
		Error:     err.Error(),
		ErrorType: string(code),
		Context:   ctx,
	}
}

func validationContext(raw Params, err error) map[string]any {
	ctx := map[string]any{"parameters": raw.Keys()}
	var verr *ValidationError
	if errors.As(err, &verr) {
		ctx["violations"] = slices.Clone(verr.Violations)
	}
	var merr *MissingError
	if errors.As(err, &merr) {
		ctx["missing_parameter"] = merr.Key
	}
	return ctx
}

// =============================================================================
// Logger Context
// =============================================================================

type ctxKey int

const loggerKey ctxKey = 0

// WithLogger returns a new context with the given logger attached.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// LoggerFrom retrieves the logger from ctx, or log.Default() if none is
// attached.
func LoggerFrom(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok && l != nil {
		return l
	}
	return log.Default()
}
