package collaborator

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"

	"vcheck/internal/domain"
)

// ScriptEntryPoint is the function a script must define:
//
//	func Invoke(a, b int64) []int64
//
// Each returned value is one emitted event.
const ScriptEntryPoint = "Invoke"

var packageClause = regexp.MustCompile(`(?m)^\s*package\s+([A-Za-z_][A-Za-z0-9_]*)`)

// Script interprets a Go source file as the function-under-test. Deploy
// evaluates the source in a new interpreter, so package-level variables start
// from their initial values on every run.
//
// Interpreted code cannot be interrupted. When an invocation outlives its
// deadline, the instance fails every later call with an error until that
// invocation returns, if it ever does.
type Script struct {
	Path  string
	Event string
}

// NewScript creates a script collaborator emitting events named event
func NewScript(path, event string) *Script {
	if event == "" {
		event = domain.DefaultEventName
	}
	return &Script{Path: path, Event: event}
}

// Describe implements Deployer
func (s *Script) Describe() string {
	return "script:" + s.Path
}

// Deploy implements Deployer
func (s *Script) Deploy(ctx context.Context) (FunctionUnderTest, error) {
	src, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, unavailable("read script: %v", err)
	}
	return s.deploySource(string(src))
}

func (s *Script) deploySource(src string) (FunctionUnderTest, error) {
	pkg := "main"
	if m := packageClause.FindStringSubmatch(src); m != nil {
		pkg = m[1]
	} else {
		src = "package main\n\n" + src
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, unavailable("load stdlib: %v", err)
	}
	if _, err := i.Eval(src); err != nil {
		return nil, unavailable("evaluate %s: %v", s.Path, err)
	}

	v, err := i.Eval(pkg + "." + ScriptEntryPoint)
	if err != nil {
		return nil, unavailable("%s not found in %s: %v", ScriptEntryPoint, s.Path, err)
	}
	fn, ok := v.Interface().(func(int64, int64) []int64)
	if !ok {
		return nil, unavailable("%s has signature %s, expected func(a, b int64) []int64", ScriptEntryPoint, v.Type())
	}

	zap.L().Debug("Script deployed", zap.String("path", s.Path), zap.String("package", pkg))
	return &scriptInstance{script: s, fn: fn}, nil
}

type scriptInstance struct {
	script *Script
	fn     func(int64, int64) []int64
	seq    atomic.Int64

	run sync.Mutex // the interpreter runs one invocation at a time

	state  sync.Mutex
	stuck  string // id of an invocation still running past its deadline
	closed bool
}

type scriptOutcome struct {
	values []int64
	err    error
}

func (si *scriptInstance) Call(ctx context.Context, a, b int64) (*Call, error) {
	call := NewCall(fmt.Sprintf("script-%d", si.seq.Add(1)))

	if err := si.unusable(); err != nil {
		call.Resolve(nil, err)
		return call, nil
	}

	done := make(chan scriptOutcome, 1)
	go func() {
		si.run.Lock()
		defer si.run.Unlock()
		values, err := si.invoke(a, b)
		si.release(call.ID)
		done <- scriptOutcome{values: values, err: err}
	}()

	go func() {
		select {
		case out := <-done:
			events := make([]domain.Event, 0, len(out.values))
			for _, v := range out.values {
				events = append(events, domain.Event{Name: si.script.Event, Value: domain.Verdict(v), InvocationID: call.ID})
			}
			call.Resolve(events, out.err)
		case <-ctx.Done():
			si.markStuck(call.ID)
			zap.L().Warn("Script invocation did not return",
				zap.String("path", si.script.Path),
				zap.String("invocation", call.ID),
				zap.Int64("a", a),
				zap.Int64("b", b))
			call.Resolve(nil, fmt.Errorf("script invocation %s: %w", call.ID, ctx.Err()))
		}
	}()

	return call, nil
}

// unusable reports why the instance cannot take another invocation
func (si *scriptInstance) unusable() error {
	si.state.Lock()
	defer si.state.Unlock()
	switch {
	case si.closed:
		return fmt.Errorf("script %s is closed", si.script.Path)
	case si.stuck != "":
		return fmt.Errorf("script %s is still running invocation %s", si.script.Path, si.stuck)
	}
	return nil
}

func (si *scriptInstance) markStuck(id string) {
	si.state.Lock()
	defer si.state.Unlock()
	if si.stuck == "" {
		si.stuck = id
	}
}

func (si *scriptInstance) release(id string) {
	si.state.Lock()
	defer si.state.Unlock()
	if si.stuck == id {
		si.stuck = ""
	}
}

func (si *scriptInstance) invoke(a, b int64) (values []int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script panicked: %v", r)
		}
	}()
	return si.fn(a, b), nil
}

// Close makes later calls fail at once. An invocation that never returns
// keeps its goroutine and interpreter until the process exits.
func (si *scriptInstance) Close() error {
	si.state.Lock()
	defer si.state.Unlock()
	si.closed = true
	return nil
}
