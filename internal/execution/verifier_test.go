package execution

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"vcheck/internal/collaborator"
	"vcheck/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// seedFixture holds the scenarios every implementation has to agree on
func seedFixture() *domain.Fixture {
	return &domain.Fixture{
		Name: "seed",
		Cases: []domain.TestCase{
			{InputA: -37, InputB: -41, Expected: 0},
			{InputA: 34, InputB: 96, Expected: 1},
			{InputA: -100, InputB: -26, Expected: 0},
			{InputA: 62, InputB: 62, Expected: 1},
			{InputA: 99, InputB: 30, Expected: 1},
		},
	}
}

func threshold(ctx context.Context, a, b int64) ([]domain.Verdict, error) {
	if a > 20 {
		return []domain.Verdict{1}, nil
	}
	return []domain.Verdict{0}, nil
}

func TestVerifier_SeedScenarios(t *testing.T) {
	v := NewVerifier(seedFixture(), collaborator.NewFunc("threshold", threshold), time.Second)

	results, err := Collect(v.Run(context.Background()))
	require.NoError(t, err)
	require.Len(t, results, 5)

	for i, res := range results {
		assert.Equal(t, i, res.Index)
		assert.True(t, res.Passed, "case %d: %s", i, res.Detail)
		require.NotNil(t, res.Actual)
		assert.Equal(t, res.Expected, *res.Actual)
		assert.Empty(t, res.Kind)
	}
}

func TestVerifier_CaseFailures(t *testing.T) {
	tests := []struct {
		name     string
		fn       collaborator.InvokeFunc
		kind     domain.ErrorKind
		observed []domain.Verdict
		actual   *domain.Verdict
	}{
		{
			name: "no event",
			fn: func(ctx context.Context, a, b int64) ([]domain.Verdict, error) {
				return nil, nil
			},
			kind: domain.NoEventObserved,
		},
		{
			name: "no event before timeout",
			fn: func(ctx context.Context, a, b int64) ([]domain.Verdict, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
			kind: domain.NoEventObserved,
		},
		{
			name: "invocation reverted",
			fn: func(ctx context.Context, a, b int64) ([]domain.Verdict, error) {
				return nil, errors.New("execution reverted")
			},
			kind: domain.NoEventObserved,
		},
		{
			name: "event from a failed invocation",
			fn: func(ctx context.Context, a, b int64) ([]domain.Verdict, error) {
				return []domain.Verdict{1}, errors.New("execution reverted")
			},
			kind:     domain.NoEventObserved,
			observed: []domain.Verdict{1},
		},
		{
			name: "two events",
			fn: func(ctx context.Context, a, b int64) ([]domain.Verdict, error) {
				return []domain.Verdict{1, 0}, nil
			},
			kind:     domain.MultipleEventsObserved,
			observed: []domain.Verdict{1, 0},
		},
		{
			name: "wrong verdict",
			fn: func(ctx context.Context, a, b int64) ([]domain.Verdict, error) {
				return []domain.Verdict{0}, nil
			},
			kind:     domain.MismatchedVerdict,
			observed: []domain.Verdict{0},
			actual:   ptr(domain.Verdict(0)),
		},
		{
			name: "verdict outside the enumeration",
			fn: func(ctx context.Context, a, b int64) ([]domain.Verdict, error) {
				return []domain.Verdict{2}, nil
			},
			kind:     domain.MismatchedVerdict,
			observed: []domain.Verdict{2},
			actual:   ptr(domain.Verdict(2)),
		},
	}

	f := &domain.Fixture{Name: "one", Cases: []domain.TestCase{{InputA: 62, InputB: 62, Expected: 1}}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier(f, collaborator.NewFunc(tt.name, tt.fn), 50*time.Millisecond)

			results, err := Collect(v.Run(context.Background()))
			require.NoError(t, err, "case failures must not abort the run")
			require.Len(t, results, 1)

			res := results[0]
			assert.False(t, res.Passed)
			assert.Equal(t, tt.kind, res.Kind)
			assert.NotEmpty(t, res.Detail)
			assert.Equal(t, tt.observed, res.Observed)
			assert.Equal(t, tt.actual, res.Actual)
		})
	}
}

func TestVerifier_FailSoft(t *testing.T) {
	// Every other case emits nothing; all five must still be attempted
	var mu sync.Mutex
	var seen []int64
	fn := func(ctx context.Context, a, b int64) ([]domain.Verdict, error) {
		mu.Lock()
		seen = append(seen, a)
		n := len(seen)
		mu.Unlock()
		if n%2 == 0 {
			return nil, nil
		}
		return threshold(ctx, a, b)
	}

	report, err := NewVerifier(seedFixture(), collaborator.NewFunc("flaky", fn), time.Second).Report(context.Background(), nil)
	require.NoError(t, err)

	assert.Len(t, seen, 5)
	assert.Equal(t, 5, report.Meta.TotalCases)
	assert.Equal(t, 3, report.Meta.PassedCases)
	assert.Equal(t, 2, report.Meta.FailedCases)
	assert.False(t, report.AllPassed)
	assert.False(t, report.Meta.Aborted)
	assert.Len(t, report.Failures(), 2)
}

func TestVerifier_CollaboratorUnavailable(t *testing.T) {
	t.Run("deployment fails", func(t *testing.T) {
		d := &collaborator.Func{Name: "down", New: func() (collaborator.InvokeFunc, error) {
			return nil, errors.New("dial tcp 127.0.0.1:8545: connection refused")
		}}

		yields := 0
		var gotErr error
		for res, err := range NewVerifier(seedFixture(), d, time.Second).Run(context.Background()) {
			yields++
			gotErr = err
			assert.Equal(t, domain.CaseResult{}, res)
		}
		assert.Equal(t, 1, yields)
		assert.ErrorIs(t, gotErr, domain.ErrCollaboratorUnavailable)
	})

	t.Run("lost mid-run", func(t *testing.T) {
		calls := 0
		fn := func(ctx context.Context, a, b int64) ([]domain.Verdict, error) {
			calls++
			if calls == 3 {
				return nil, domain.ErrCollaboratorUnavailable
			}
			return threshold(ctx, a, b)
		}

		report, err := NewVerifier(seedFixture(), collaborator.NewFunc("lost", fn), time.Second).Report(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrCollaboratorUnavailable)
		assert.Len(t, report.Cases, 2)
		assert.NotEmpty(t, report.Meta.Error)
		assert.False(t, report.AllPassed)
	})
}

func TestVerifier_HungCaseDoesNotStallRun(t *testing.T) {
	f := &domain.Fixture{Name: "hang", Cases: []domain.TestCase{
		{InputA: 99, InputB: 30, Expected: 1},
		{InputA: 34, InputB: 96, Expected: 1},
		{InputA: -37, InputB: -41, Expected: 0},
	}}

	t.Run("func", func(t *testing.T) {
		unblock := make(chan struct{})
		t.Cleanup(func() { close(unblock) })
		gate := func(ctx context.Context, a, b int64) ([]domain.Verdict, error) {
			if a == 99 {
				<-unblock
			}
			return threshold(ctx, a, b)
		}

		results, err := Collect(NewVerifier(f, collaborator.NewFunc("gate", gate), 50*time.Millisecond).Run(context.Background()))
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, domain.NoEventObserved, results[0].Kind)
		assert.Contains(t, results[0].Detail, "no Verdict event within")
		assert.True(t, results[1].Passed)
		assert.True(t, results[2].Passed)
	})

	t.Run("script", func(t *testing.T) {
		dir := t.TempDir()
		release := filepath.Join(dir, "release")
		script := filepath.Join(dir, "hang.go")
		src := fmt.Sprintf(`package main

import (
	"os"
	"time"
)

func Invoke(a, b int64) []int64 {
	for a == 99 {
		if _, err := os.Stat(%q); err == nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if a > 20 {
		return []int64{1}
	}
	return []int64{0}
}
`, release)
		require.NoError(t, os.WriteFile(script, []byte(src), 0644))
		t.Cleanup(func() { _ = os.WriteFile(release, nil, 0644) })

		done := make(chan struct{})
		var results []domain.CaseResult
		var err error
		go func() {
			defer close(done)
			results, err = Collect(NewVerifier(f, collaborator.NewScript(script, ""), 100*time.Millisecond).Run(context.Background()))
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("run stalled after a hung case")
		}

		require.NoError(t, err)
		require.Len(t, results, 3)
		for _, res := range results {
			assert.False(t, res.Passed, "case %d", res.Index)
			assert.Equal(t, domain.NoEventObserved, res.Kind, "case %d", res.Index)
		}
		assert.Contains(t, results[0].Detail, "no Verdict event within")
	})
}

func TestVerifier_CancelBetweenCases(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slow := func(ctx context.Context, a, b int64) ([]domain.Verdict, error) {
		time.Sleep(5 * time.Millisecond)
		return threshold(ctx, a, b)
	}

	report, err := NewVerifier(seedFixture(), collaborator.NewFunc("slow", slow), time.Second).Report(ctx, func(res domain.CaseResult) {
		if res.Index == 1 {
			cancel()
		}
	})
	require.NoError(t, err)

	// The case in flight when cancel was called is scored, nothing after it
	require.Len(t, report.Cases, 2)
	assert.True(t, report.Cases[1].Passed)
	assert.True(t, report.Meta.Aborted)
	assert.False(t, report.AllPassed)
}

func TestVerifier_Lazy(t *testing.T) {
	d := collaborator.NewFunc("threshold", threshold)
	seq := NewVerifier(seedFixture(), d, time.Second).Run(context.Background())
	assert.Equal(t, int64(0), d.Deployments(), "nothing is deployed before iteration")

	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(1), d.Deployments())

	// Re-iterating deploys again rather than replaying cached results
	for range seq {
	}
	assert.Equal(t, int64(2), d.Deployments())
}

func TestVerifier_Idempotent(t *testing.T) {
	// A stateful function-under-test: the verdict depends on how many calls
	// the current deployment has served.
	stateful := &collaborator.Func{
		Name:  "stateful",
		Event: domain.DefaultEventName,
		New: func() (collaborator.InvokeFunc, error) {
			var calls int
			return func(ctx context.Context, a, b int64) ([]domain.Verdict, error) {
				calls++
				if calls%2 == 1 {
					return threshold(ctx, a, b)
				}
				return []domain.Verdict{0}, nil
			}, nil
		},
	}

	v := NewVerifier(seedFixture(), stateful, time.Second)
	first, err := v.Report(context.Background(), nil)
	require.NoError(t, err)
	second, err := v.Report(context.Background(), nil)
	require.NoError(t, err)

	ignore := cmpopts.IgnoreFields(domain.CaseResult{}, "DurationMs")
	if diff := cmp.Diff(first.Cases, second.Cases, ignore); diff != "" {
		t.Errorf("runs against fresh deployments differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.Meta.FixtureDigest, second.Meta.FixtureDigest)
	assert.NotEqual(t, first.Meta.RunID, second.Meta.RunID)
}

func TestVerifier_ExtremeInputs(t *testing.T) {
	var got [][2]int64
	echo := func(ctx context.Context, a, b int64) ([]domain.Verdict, error) {
		got = append(got, [2]int64{a, b})
		if a >= b {
			return []domain.Verdict{1}, nil
		}
		return []domain.Verdict{0}, nil
	}

	f := &domain.Fixture{Name: "extremes", Cases: []domain.TestCase{
		{InputA: -100, InputB: 99, Expected: 0},
		{InputA: math.MaxInt64, InputB: math.MinInt64, Expected: 1},
		{InputA: math.MinInt64, InputB: math.MaxInt64, Expected: 0},
	}}

	report, err := NewVerifier(f, collaborator.NewFunc("ge", echo), time.Second).Report(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, report.AllPassed)
	assert.Equal(t, [][2]int64{{-100, 99}, {math.MaxInt64, math.MinInt64}, {math.MinInt64, math.MaxInt64}}, got)
}

func TestVerifier_ReportMeta(t *testing.T) {
	f := seedFixture()
	f.Path = "fixtures/seed.json"

	report, err := NewVerifier(f, collaborator.NewFunc("threshold", threshold), 2*time.Second).Report(context.Background(), nil)
	require.NoError(t, err)

	assert.True(t, report.AllPassed)
	assert.Equal(t, "seed", report.Meta.Fixture)
	assert.Equal(t, "fixtures/seed.json", report.Meta.FixturePath)
	assert.Equal(t, domain.DefaultFunction, report.Meta.Function)
	assert.Equal(t, "func:threshold", report.Meta.Collaborator)
	assert.Equal(t, 2.0, report.Meta.TimeoutSeconds)
	assert.Len(t, report.Meta.RunID, 26)
	assert.Contains(t, report.Meta.FixtureDigest, "blake3:")
}

func ptr[T any](v T) *T {
	return &v
}
