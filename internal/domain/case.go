package domain

import "fmt"

// Verdict is the value carried by a Verdict event. Fixtures only ever expect
// 0 or 1; a collaborator may still emit anything.
type Verdict int64

const (
	VerdictFalse Verdict = 0
	VerdictTrue  Verdict = 1
)

// Valid reports whether v is one of the two expected verdict values.
func (v Verdict) Valid() bool {
	return v == VerdictFalse || v == VerdictTrue
}

// Default names used when a fixture leaves them empty
const (
	DefaultFunction  = "func_a_b"
	DefaultEventName = "Verdict"
)

// TestCase is a single (inputA, inputB, expectedVerdict) row of a fixture
type TestCase struct {
	InputA   int64   `json:"input_a" yaml:"input_a"`
	InputB   int64   `json:"input_b" yaml:"input_b"`
	Expected Verdict `json:"expected_verdict" yaml:"expected_verdict"`
}

func (tc TestCase) String() string {
	return fmt.Sprintf("(%d, %d) -> %d", tc.InputA, tc.InputB, tc.Expected)
}

// Fixture is the oracle table replayed against one collaborator.
// It is treated as read-only once loaded.
type Fixture struct {
	Name     string     `json:"name,omitempty" yaml:"name,omitempty"`
	Function string     `json:"function,omitempty" yaml:"function,omitempty"`
	Event    string     `json:"event,omitempty" yaml:"event,omitempty"`
	Cases    []TestCase `json:"cases" yaml:"cases"`

	// Path the fixture was loaded from, if any
	Path string `json:"-" yaml:"-"`
}

// FunctionName returns the function-under-test name, falling back to the default.
func (f *Fixture) FunctionName() string {
	if f.Function == "" {
		return DefaultFunction
	}
	return f.Function
}

// EventName returns the name of the event carrying the verdict.
func (f *Fixture) EventName() string {
	if f.Event == "" {
		return DefaultEventName
	}
	return f.Event
}

// Event is one event observed from the collaborator for an invocation.
type Event struct {
	Name         string
	Value        Verdict
	InvocationID string
}
