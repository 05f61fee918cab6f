package sandbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// Call invokes fn with args converted to guest values and returns
// the result in the value model. A returned promise is settled by
// draining the job queue: its value is returned, a rejection is a
// *RuntimeError and a promise still pending is ErrPending. When
// ctx ends first the guest is interrupted and the error wraps
// ErrInterrupted. Jobs queued by an interrupted call are dropped.
func (in *Instance) Call(
	ctx context.Context,
	fn Function,
	args []any,
) (any, error) {
	if fn.call == nil {
		return nil, fmt.Errorf("sandbox: function %q is not bound", fn.Name)
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	release := in.guard(ctx)
	defer release()

	return in.invoke(fn, args)
}

func (in *Instance) invoke(
	fn Function, args []any,
) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = in.fromPanic(r)
		}
	}()

	jsArgs := make([]goja.Value, len(args))
	for i, arg := range args {
		jsArgs[i] = in.toJS(arg)
	}

	ret, callErr := fn.call(goja.Undefined(), jsArgs...)
	if callErr != nil {
		return nil, in.fromError(callErr)
	}

	if obj, ok := ret.(*goja.Object); ok && obj.ClassName() == "Promise" {
		p, ok := obj.Export().(*goja.Promise)
		if ok {
			switch p.State() {
			case goja.PromiseStateFulfilled:
				ret = p.Result()
			case goja.PromiseStateRejected:
				return nil, &RuntimeError{
					Message: "Uncaught (in promise) " +
						in.describe(p.Result()),
				}
			default:
				return nil, ErrPending
			}
		}
	}

	return in.export(ret)
}

// fromError classifies an error returned by the runtime.
func (in *Instance) fromError(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("%w", ErrInterrupted)
	}

	var overflow *goja.StackOverflowError
	if errors.As(err, &overflow) {
		return &RuntimeError{
			Message: "RangeError: Maximum call stack size exceeded",
			Cause:   err,
		}
	}

	var ex *goja.Exception
	if errors.As(err, &ex) && ex.Value() != nil {
		return &RuntimeError{
			Message: in.describe(ex.Value()),
			Cause:   err,
		}
	}
	return &RuntimeError{Message: err.Error(), Cause: err}
}

// fromPanic converts a value recovered from the runtime.
func (in *Instance) fromPanic(r any) error {
	if err, ok := r.(error); ok {
		return in.fromError(err)
	}
	return &RuntimeError{Message: fmt.Sprintf("panic: %v", r)}
}

// describe renders a thrown guest value. Error objects use their
// own string form, strings are returned as-is.
func (in *Instance) describe(v goja.Value) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = "exception while describing error"
		}
	}()

	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if obj, ok := v.(*goja.Object); ok {
		if obj.ClassName() == "Error" {
			return obj.String()
		}
		return in.display(obj)
	}
	if s, ok := v.Export().(string); ok {
		return s
	}
	return in.display(v)
}
