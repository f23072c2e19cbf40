package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcheck/internal/domain"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	r.ObserveCase("func_a_b", domain.CaseResult{Passed: true, DurationMs: 2})
	r.ObserveCase("func_a_b", domain.CaseResult{Passed: true, DurationMs: 3})
	r.ObserveCase("func_a_b", domain.CaseResult{Kind: domain.NoEventObserved, DurationMs: 5000})
	r.ObserveRun(&domain.RunReport{AllPassed: false})
	r.ObserveRun(&domain.RunReport{AllPassed: true})
	r.ObserveRun(&domain.RunReport{Meta: domain.RunMeta{Error: "collaborator unavailable"}})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.cases.WithLabelValues("func_a_b", "passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cases.WithLabelValues("func_a_b", "NoEventObserved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.invocation))

	path := filepath.Join(t.TempDir(), "vcheck.prom")
	require.NoError(t, r.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `vcheck_cases_total{fixture="func_a_b",outcome="passed"} 2`))
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	r.ObserveCase("x", domain.CaseResult{})
	r.ObserveRun(&domain.RunReport{})
	assert.NoError(t, r.WriteTextfile("ignored"))
}
