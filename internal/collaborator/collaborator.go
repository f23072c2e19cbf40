// Package collaborator adapts external functions-under-test to a common
// call/await boundary.
package collaborator

import (
	"context"
	"fmt"
	"sync"

	"vcheck/internal/domain"
)

// Deployer produces a freshly deployed function-under-test. Every Deploy
// starts from clean state; nothing carries over between runs.
type Deployer interface {
	Deploy(ctx context.Context) (FunctionUnderTest, error)
	// Describe names the collaborator in reports
	Describe() string
}

// FunctionUnderTest is a deployed two-argument function that reports its
// result by emitting events.
type FunctionUnderTest interface {
	// Call starts one invocation. The returned Call resolves once the
	// invocation has finished and all of its events are known.
	Call(ctx context.Context, a, b int64) (*Call, error)
	Close() error
}

// Call is a single-result future for one invocation
type Call struct {
	ID string

	once   sync.Once
	done   chan struct{}
	events []domain.Event
	err    error
}

// NewCall creates an unresolved call with the given correlation id
func NewCall(id string) *Call {
	return &Call{ID: id, done: make(chan struct{})}
}

// Resolve completes the call. Only the first resolution counts.
func (c *Call) Resolve(events []domain.Event, err error) {
	c.once.Do(func() {
		c.events = events
		c.err = err
		close(c.done)
	})
}

// Await blocks until the call resolves or ctx ends. Abandoning the wait does
// not cancel the invocation itself; that is governed by the ctx given to Call.
func (c *Call) Await(ctx context.Context) ([]domain.Event, error) {
	select {
	case <-c.done:
		return c.events, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed once the call has resolved
func (c *Call) Done() <-chan struct{} {
	return c.done
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrCollaboratorUnavailable, fmt.Sprintf(format, args...))
}
