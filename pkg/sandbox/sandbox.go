// Package sandbox instantiates a compiled snippet inside a fresh
// script runtime whose global scope holds only the language
// built-ins and a capturing console. Host capabilities such as
// network, storage and timers are simply absent names.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"digital.vasic.snippetcheck/pkg/normalize"
)

// Defaults applied by NewBuilder.
const (
	DefaultMaxCallStackSize = 4096
	DefaultConsoleLimit     = 64 * 1024
)

// Function is a callable bound by instantiation.
type Function struct {
	Name string
	call goja.Callable
}

// Functions is the ordered set of callables a snippet defines, in
// discovery order.
type Functions []Function

// Get returns the function bound to name.
func (fs Functions) Get(name string) (Function, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return Function{}, false
}

// Names returns the bound names in order.
func (fs Functions) Names() []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name
	}
	return out
}

// Builder creates isolated instances. It holds only immutable
// settings and is safe for concurrent use.
type Builder struct {
	maxCallStackSize  int
	consoleLimit      int
	maxResultDepth    int
	maxResultElements int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithMaxCallStackSize bounds guest call depth.
func WithMaxCallStackSize(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.maxCallStackSize = n
		}
	}
}

// WithConsoleLimit bounds the captured console output in bytes.
func WithConsoleLimit(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.consoleLimit = n
		}
	}
}

// WithMaxResultDepth bounds how deeply a returned value may nest.
func WithMaxResultDepth(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.maxResultDepth = n
		}
	}
}

// WithMaxResultElements bounds the total number of array elements,
// object keys and collection entries in a returned value.
func WithMaxResultElements(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.maxResultElements = n
		}
	}
}

// NewBuilder creates a Builder with the supplied options.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		maxCallStackSize:  DefaultMaxCallStackSize,
		consoleLimit:      DefaultConsoleLimit,
		maxResultDepth:    DefaultMaxResultDepth,
		maxResultElements: DefaultMaxResultElements,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Instance is one evaluated snippet. It owns a private runtime and
// must be discarded after the run. Calls are serialised.
type Instance struct {
	mu        sync.Mutex
	vm        *goja.Runtime
	console   *console
	functions Functions

	// ctx is the context of the guarded call in progress.
	ctx               context.Context
	arrayFrom         goja.Callable
	maxResultDepth    int
	maxResultElements int

	// Contained is set when loading the snippet touched a
	// withheld capability. Functions is then empty.
	Contained bool

	// Reason is the message that triggered containment.
	Reason string
}

// Functions returns the callables bound during instantiation.
func (in *Instance) Functions() Functions {
	return in.functions
}

// Console returns everything written to the guest console so far.
func (in *Instance) Console() string {
	return in.console.String()
}

// Instantiate evaluates src in a fresh runtime and binds every name
// in names that evaluation left holding a callable. Loading runs
// under the same guard as calls: when ctx ends, guest code is
// interrupted.
func (b *Builder) Instantiate(
	ctx context.Context,
	src *normalize.Source,
	names []string,
) (*Instance, error) {
	if src == nil || src.Program == nil {
		return nil, errors.New("sandbox: nil program")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vm := goja.New()
	vm.SetMaxCallStackSize(b.maxCallStackSize)

	in := &Instance{
		vm:                vm,
		console:           newConsole(b.consoleLimit),
		functions:         Functions{},
		ctx:               context.Background(),
		maxResultDepth:    b.maxResultDepth,
		maxResultElements: b.maxResultElements,
	}
	if err := in.console.install(in); err != nil {
		return nil, fmt.Errorf("install console: %w", err)
	}
	from, ok := goja.AssertFunction(vm.Get("Array").ToObject(vm).Get("from"))
	if !ok {
		return nil, errors.New("sandbox: Array.from is not callable")
	}
	in.arrayFrom = from

	in.mu.Lock()
	defer in.mu.Unlock()

	release := in.guard(ctx)
	err := in.load(src.Program)
	if err == nil {
		in.functions = in.bind(names)
	}
	release()

	if err == nil {
		return in, nil
	}

	if errors.Is(err, ErrInterrupted) {
		return nil, &RuntimeError{
			Message: "execution interrupted while loading code",
			Cause:   err,
		}
	}

	var rtErr *RuntimeError
	if errors.As(err, &rtErr) {
		if _, ok := MentionsWithheld(rtErr.Message); ok {
			in.Contained = true
			in.Reason = rtErr.Message
			in.functions = Functions{}
			return in, nil
		}
	}
	return nil, err
}

func (in *Instance) load(prg *goja.Program) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = in.fromPanic(r)
		}
	}()

	if _, runErr := in.vm.RunProgram(prg); runErr != nil {
		return in.fromError(runErr)
	}
	return nil
}

// bind looks each name up in the global scope, lexical bindings
// included, and keeps the callable ones.
func (in *Instance) bind(names []string) Functions {
	out := Functions{}
	for _, name := range names {
		var v goja.Value
		if ex := in.vm.Try(func() {
			v = in.vm.Get(name)
		}); ex != nil || v == nil {
			continue
		}
		if call, ok := goja.AssertFunction(v); ok {
			out = append(out, Function{Name: name, call: call})
		}
	}
	return out
}

// guard interrupts the runtime when ctx ends. The returned release
// function must be called once the guest code has returned; after
// it returns no interrupt is pending or can be raised.
func (in *Instance) guard(ctx context.Context) (release func()) {
	in.ctx = ctx
	var (
		mu       sync.Mutex
		finished bool
	)
	stop := context.AfterFunc(ctx, func() {
		mu.Lock()
		defer mu.Unlock()
		if !finished {
			in.vm.Interrupt(ErrInterrupted)
		}
	})
	return func() {
		stop()
		mu.Lock()
		finished = true
		mu.Unlock()
		in.vm.ClearInterrupt()
		in.ctx = context.Background()
	}
}
