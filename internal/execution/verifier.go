package execution

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"vcheck/internal/collaborator"
	"vcheck/internal/domain"
	"vcheck/internal/fixture"
	"vcheck/internal/parser"
)

// Verifier replays a fixture against a function-under-test, one case at a
// time, and scores the verdict event of every invocation.
type Verifier struct {
	fixture  *domain.Fixture
	deployer collaborator.Deployer
	timeout  time.Duration
}

// NewVerifier creates a Verifier. timeout bounds the wait for each case's
// verdict event; there are no retries.
func NewVerifier(f *domain.Fixture, d collaborator.Deployer, timeout time.Duration) *Verifier {
	return &Verifier{fixture: f, deployer: d, timeout: timeout}
}

// Run replays the fixture's cases. See RunCases.
func (v *Verifier) Run(ctx context.Context) iter.Seq2[domain.CaseResult, error] {
	return v.RunCases(ctx, v.fixture.Cases)
}

// RunCases returns a lazy sequence of case results. Iterating deploys a fresh
// collaborator and invokes it once per case, in order. Per-case failures are
// results, not errors; the only error yielded is a fatal one
// (domain.ErrCollaboratorUnavailable), after which the sequence ends.
// Cancelling ctx ends the sequence after the case in flight has been scored.
func (v *Verifier) RunCases(ctx context.Context, cases []domain.TestCase) iter.Seq2[domain.CaseResult, error] {
	return func(yield func(domain.CaseResult, error) bool) {
		log := zap.L().With(zap.String("fixture", v.fixture.Name))

		fut, err := v.deployer.Deploy(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrCollaboratorUnavailable) {
				err = fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err)
			}
			log.Error("Deployment failed", zap.Error(err))
			yield(domain.CaseResult{}, err)
			return
		}
		defer func() {
			if err := fut.Close(); err != nil {
				log.Warn("Closing collaborator failed", zap.Error(err))
			}
		}()

		for i, tc := range cases {
			if ctx.Err() != nil {
				log.Info("Run cancelled", zap.Int("remaining", len(cases)-i))
				return
			}

			res, err := v.RunCase(ctx, fut, i, tc)
			if err != nil {
				log.Error("Collaborator lost", zap.Int("case", i), zap.Error(err))
				yield(res, err)
				return
			}
			if !yield(res, nil) {
				return
			}
		}
	}
}

// RunCase invokes fut with one case and scores the outcome. The wait is
// bounded by the verifier timeout and is not cut short by cancelling ctx, so
// a case is never left half-scored. An error is only returned when the
// collaborator became unavailable.
func (v *Verifier) RunCase(ctx context.Context, fut collaborator.FunctionUnderTest, index int, tc domain.TestCase) (domain.CaseResult, error) {
	start := time.Now()
	res, err := v.invoke(ctx, fut, index, tc)
	res.DurationMs = float64(time.Since(start).Microseconds()) / 1000
	return res, err
}

func (v *Verifier) invoke(ctx context.Context, fut collaborator.FunctionUnderTest, index int, tc domain.TestCase) (domain.CaseResult, error) {
	res := domain.CaseResult{
		Index:    index,
		InputA:   tc.InputA,
		InputB:   tc.InputB,
		Expected: tc.Expected,
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.timeout)
	defer cancel()

	call, err := fut.Call(callCtx, tc.InputA, tc.InputB)
	if err != nil {
		if errors.Is(err, domain.ErrCollaboratorUnavailable) {
			return res, err
		}
		v.fail(&res, domain.NoEventObserved, fmt.Sprintf("invocation failed: %v", err))
		return res, nil
	}

	events, err := call.Await(callCtx)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		v.fail(&res, domain.NoEventObserved, fmt.Sprintf("no %s event within %s", v.fixture.EventName(), v.timeout))
		return res, nil
	case errors.Is(err, domain.ErrCollaboratorUnavailable):
		return res, err
	}

	correlated := parser.Correlate(events, v.fixture.EventName(), call.ID)
	for _, ev := range correlated {
		res.Observed = append(res.Observed, ev.Value)
	}

	if err != nil {
		v.fail(&res, domain.NoEventObserved, fmt.Sprintf("invocation failed: %v", err))
		return res, nil
	}

	switch len(correlated) {
	case 0:
		v.fail(&res, domain.NoEventObserved, fmt.Sprintf("invocation emitted no %s event", v.fixture.EventName()))
	case 1:
		actual := correlated[0].Value
		res.Actual = &actual
		if actual == tc.Expected {
			res.Passed = true
			res.Observed = nil
		} else {
			v.fail(&res, domain.MismatchedVerdict, fmt.Sprintf("expected %d, got %d", tc.Expected, actual))
		}
	default:
		v.fail(&res, domain.MultipleEventsObserved, fmt.Sprintf("%d %s events for one invocation: %v", len(correlated), v.fixture.EventName(), res.Observed))
	}

	return res, nil
}

func (v *Verifier) fail(res *domain.CaseResult, kind domain.ErrorKind, detail string) {
	res.Passed = false
	res.Kind = kind
	res.Detail = detail
	zap.L().Debug("Case failed",
		zap.String("fixture", v.fixture.Name),
		zap.Int("case", res.Index),
		zap.String("kind", string(kind)),
		zap.String("detail", detail))
}

// Report runs the fixture to completion and assembles its report. onCase, if
// set, sees every result as it is produced. The returned error is the fatal
// run error, if any; the report is returned either way.
func (v *Verifier) Report(ctx context.Context, onCase func(domain.CaseResult)) (*domain.RunReport, error) {
	start := time.Now()
	report := &domain.RunReport{
		Meta: domain.RunMeta{
			RunID:          ulid.Make().String(),
			Fixture:        v.fixture.Name,
			FixturePath:    v.fixture.Path,
			Function:       v.fixture.FunctionName(),
			Collaborator:   v.deployer.Describe(),
			TotalCases:     len(v.fixture.Cases),
			TimeoutSeconds: v.timeout.Seconds(),
			Timestamp:      start.Format(time.RFC3339),
		},
		Cases: []domain.CaseResult{},
	}
	if digest, err := fixture.Digest(v.fixture); err == nil {
		report.Meta.FixtureDigest = digest
	}

	var runErr error
	for res, err := range v.Run(ctx) {
		if err != nil {
			runErr = err
			break
		}
		report.Cases = append(report.Cases, res)
		if onCase != nil {
			onCase(res)
		}
	}

	duration := time.Since(start)
	report.Meta.Duration = duration.String()
	report.Meta.DurationSeconds = duration.Seconds()
	for _, c := range report.Cases {
		if c.Passed {
			report.Meta.PassedCases++
		} else {
			report.Meta.FailedCases++
		}
	}
	if runErr != nil {
		report.Meta.Error = runErr.Error()
	} else if len(report.Cases) < len(v.fixture.Cases) {
		report.Meta.Aborted = true
	}
	report.AllPassed = runErr == nil && !report.Meta.Aborted && report.Meta.FailedCases == 0

	return report, runErr
}

// Collect drains a run. It returns the results produced before the sequence
// ended and the fatal error, if one ended it.
func Collect(seq iter.Seq2[domain.CaseResult, error]) ([]domain.CaseResult, error) {
	var results []domain.CaseResult
	for res, err := range seq {
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
