package domain

// CaseResult is the scored outcome of one test case
type CaseResult struct {
	Index      int       `json:"case_index"`
	InputA     int64     `json:"input_a"`
	InputB     int64     `json:"input_b"`
	Expected   Verdict   `json:"expected_verdict"`
	Actual     *Verdict  `json:"actual_verdict"`
	Observed   []Verdict `json:"observed,omitempty"` // every correlated event value, kept for diagnosis
	Passed     bool      `json:"passed"`
	Kind       ErrorKind `json:"error_kind,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	DurationMs float64   `json:"duration_ms"`
	Resolved   bool      `json:"resolved,omitempty"` // marked in the failures viewer
}

// RunMeta contains metadata about a single fixture run
type RunMeta struct {
	RunID           string  `json:"run_id"`
	Fixture         string  `json:"fixture"`
	FixturePath     string  `json:"fixture_path,omitempty"`
	FixtureDigest   string  `json:"fixture_digest,omitempty"`
	Function        string  `json:"function"`
	Collaborator    string  `json:"collaborator"`
	TotalCases      int     `json:"total_cases"`
	PassedCases     int     `json:"passed_cases"`
	FailedCases     int     `json:"failed_cases"`
	TimeoutSeconds  float64 `json:"timeout_seconds"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Timestamp       string  `json:"timestamp"`
	Aborted         bool    `json:"aborted,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// RunReport is everything a single fixture run produced
type RunReport struct {
	Meta      RunMeta      `json:"meta"`
	Cases     []CaseResult `json:"cases"`
	AllPassed bool         `json:"all_passed"`
}

// Failures returns the failed cases of the report.
func (r *RunReport) Failures() []CaseResult {
	var failed []CaseResult
	for _, c := range r.Cases {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}

// ResultsOutput is the complete output structure written to the results file
type ResultsOutput struct {
	Reports   []RunReport `json:"reports"`
	Workers   int         `json:"workers"`
	AllPassed bool        `json:"all_passed"`
	Timestamp string      `json:"timestamp"`
}

// TotalFailures counts failed cases across all reports.
func (o *ResultsOutput) TotalFailures() int {
	n := 0
	for i := range o.Reports {
		n += o.Reports[i].Meta.FailedCases
	}
	return n
}
