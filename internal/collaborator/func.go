package collaborator

import (
	"context"
	"fmt"
	"sync/atomic"

	"vcheck/internal/domain"
)

// InvokeFunc is an in-process function-under-test. It returns the values of the
// events it emits.
type InvokeFunc func(ctx context.Context, a, b int64) ([]domain.Verdict, error)

// Func wraps an in-process Go function. New returns a fresh InvokeFunc per
// deployment, which is where per-run state belongs.
type Func struct {
	Name  string
	Event string
	New   func() (InvokeFunc, error)

	deployments atomic.Int64
}

// NewFunc creates a Func collaborator around a stateless function
func NewFunc(name string, fn InvokeFunc) *Func {
	return &Func{
		Name:  name,
		Event: domain.DefaultEventName,
		New:   func() (InvokeFunc, error) { return fn, nil },
	}
}

// Describe implements Deployer
func (f *Func) Describe() string {
	return "func:" + f.Name
}

// Deployments returns how many times Deploy succeeded
func (f *Func) Deployments() int64 {
	return f.deployments.Load()
}

// Deploy implements Deployer
func (f *Func) Deploy(ctx context.Context) (FunctionUnderTest, error) {
	if f.New == nil {
		return nil, unavailable("%s has no constructor", f.Name)
	}
	fn, err := f.New()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err)
	}
	f.deployments.Add(1)
	return &funcInstance{event: f.Event, fn: fn}, nil
}

type funcInstance struct {
	event string
	fn    InvokeFunc
	seq   atomic.Int64
}

func (fi *funcInstance) Call(ctx context.Context, a, b int64) (*Call, error) {
	call := NewCall(fmt.Sprintf("func-%d", fi.seq.Add(1)))

	go func() {
		values, err := fi.fn(ctx, a, b)
		events := make([]domain.Event, 0, len(values))
		for _, v := range values {
			events = append(events, domain.Event{Name: fi.event, Value: v, InvocationID: call.ID})
		}
		call.Resolve(events, err)
	}()

	return call, nil
}

func (fi *funcInstance) Close() error {
	return nil
}
