package ui

import "vcheck/internal/domain"

// Viewer displays the failures of stored results
type Viewer interface {
	View(results *domain.ResultsOutput) error
}

// FailureRef points at one failed case inside a ResultsOutput
type FailureRef struct {
	Report int
	Case   int
}

// CollectFailures lists the failed cases of every report, in report order
func CollectFailures(results *domain.ResultsOutput) []FailureRef {
	var refs []FailureRef
	for i := range results.Reports {
		for j, c := range results.Reports[i].Cases {
			if !c.Passed {
				refs = append(refs, FailureRef{Report: i, Case: j})
			}
		}
	}
	return refs
}
