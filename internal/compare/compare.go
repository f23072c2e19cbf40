// Package compare checks two stored runs of the same fixtures against each
// other. Against fresh deployments a deterministic function-under-test must
// score every case the same way both times.
package compare

import (
	"fmt"
	"strconv"

	"vcheck/internal/domain"
)

// Kind classifies a difference between two runs
type Kind string

const (
	MissingReport Kind = "missing_report"
	DigestChanged Kind = "digest_changed"
	MissingCase   Kind = "missing_case"
	InputsChanged Kind = "inputs_changed"
	PassedChanged Kind = "passed_changed"
	ActualChanged Kind = "actual_changed"
)

// ReportLevel is the Case value of differences that concern a whole report
const ReportLevel = -1

// Difference is one disagreement between the left and right run
type Difference struct {
	Fixture string
	Case    int
	Kind    Kind
	Left    string
	Right   string
}

func (d Difference) String() string {
	if d.Case == ReportLevel {
		return fmt.Sprintf("%s: %s (%s -> %s)", d.Fixture, d.Kind, d.Left, d.Right)
	}
	return fmt.Sprintf("%s case %d: %s (%s -> %s)", d.Fixture, d.Case, d.Kind, d.Left, d.Right)
}

// Outputs compares every report of left with the report of the same fixture
// in right. Reports are matched by fixture name, cases by index.
func Outputs(left, right *domain.ResultsOutput) []Difference {
	rightByName := make(map[string]*domain.RunReport, len(right.Reports))
	for i := range right.Reports {
		rightByName[right.Reports[i].Meta.Fixture] = &right.Reports[i]
	}

	var diffs []Difference
	seen := make(map[string]bool, len(left.Reports))
	for i := range left.Reports {
		l := &left.Reports[i]
		seen[l.Meta.Fixture] = true
		r, ok := rightByName[l.Meta.Fixture]
		if !ok {
			diffs = append(diffs, Difference{Fixture: l.Meta.Fixture, Case: ReportLevel, Kind: MissingReport, Left: "present", Right: "missing"})
			continue
		}
		diffs = append(diffs, Reports(l, r)...)
	}
	for i := range right.Reports {
		name := right.Reports[i].Meta.Fixture
		if !seen[name] {
			diffs = append(diffs, Difference{Fixture: name, Case: ReportLevel, Kind: MissingReport, Left: "missing", Right: "present"})
		}
	}
	return diffs
}

// Reports compares two reports of the same fixture
func Reports(left, right *domain.RunReport) []Difference {
	fixture := left.Meta.Fixture
	var diffs []Difference

	if left.Meta.FixtureDigest != right.Meta.FixtureDigest {
		diffs = append(diffs, Difference{
			Fixture: fixture, Case: ReportLevel, Kind: DigestChanged,
			Left: orNone(left.Meta.FixtureDigest), Right: orNone(right.Meta.FixtureDigest),
		})
	}

	rightCases := make(map[int]domain.CaseResult, len(right.Cases))
	for _, c := range right.Cases {
		rightCases[c.Index] = c
	}
	leftCases := make(map[int]bool, len(left.Cases))

	for _, l := range left.Cases {
		leftCases[l.Index] = true
		r, ok := rightCases[l.Index]
		if !ok {
			diffs = append(diffs, Difference{Fixture: fixture, Case: l.Index, Kind: MissingCase, Left: "scored", Right: "missing"})
			continue
		}
		if l.InputA != r.InputA || l.InputB != r.InputB || l.Expected != r.Expected {
			diffs = append(diffs, Difference{Fixture: fixture, Case: l.Index, Kind: InputsChanged, Left: inputs(l), Right: inputs(r)})
			continue
		}
		if l.Passed != r.Passed {
			diffs = append(diffs, Difference{Fixture: fixture, Case: l.Index, Kind: PassedChanged, Left: outcome(l), Right: outcome(r)})
		} else if verdictString(l.Actual) != verdictString(r.Actual) {
			diffs = append(diffs, Difference{Fixture: fixture, Case: l.Index, Kind: ActualChanged, Left: verdictString(l.Actual), Right: verdictString(r.Actual)})
		}
	}
	for _, r := range right.Cases {
		if !leftCases[r.Index] {
			diffs = append(diffs, Difference{Fixture: fixture, Case: r.Index, Kind: MissingCase, Left: "missing", Right: "scored"})
		}
	}
	return diffs
}

func inputs(c domain.CaseResult) string {
	return fmt.Sprintf("(%d, %d) => %d", c.InputA, c.InputB, c.Expected)
}

func outcome(c domain.CaseResult) string {
	if c.Passed {
		return "passed"
	}
	return string(c.Kind)
}

func verdictString(v *domain.Verdict) string {
	if v == nil {
		return "none"
	}
	return strconv.FormatInt(int64(*v), 10)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
