package domain

import "errors"

// ErrorKind classifies why a case did not pass
type ErrorKind string

const (
	NoEventObserved        ErrorKind = "NoEventObserved"
	MultipleEventsObserved ErrorKind = "MultipleEventsObserved"
	MismatchedVerdict      ErrorKind = "MismatchedVerdict"
)

// ErrCollaboratorUnavailable is fatal to a whole run: the function-under-test
// could not be deployed or reached, so no case can be scored.
var ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

// ErrCasesFailed is returned by commands when a run finished with at least one failed case.
var ErrCasesFailed = errors.New("one or more cases failed")
