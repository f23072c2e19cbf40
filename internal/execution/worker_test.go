package execution

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcheck/internal/collaborator"
	"vcheck/internal/config"
	"vcheck/internal/domain"
	"vcheck/internal/metrics"
)

func poolConfig(processors int) *config.Config {
	cfg := config.New()
	cfg.Processors = processors
	cfg.Timeout = time.Second
	return cfg
}

func namedFixture(name string, cases ...domain.TestCase) *domain.Fixture {
	return &domain.Fixture{Name: name, Cases: cases}
}

func thresholdFactory(deployed *atomic.Int64) DeployerFactory {
	return func(f *domain.Fixture) (collaborator.Deployer, error) {
		deployed.Add(1)
		return collaborator.NewFunc(f.Name, threshold), nil
	}
}

func TestWorkerPool_Execute(t *testing.T) {
	var deployed atomic.Int64
	fixtures := []*domain.Fixture{
		seedFixture(),
		namedFixture("mismatch", domain.TestCase{InputA: 1, InputB: 2, Expected: 1}),
		namedFixture("small", domain.TestCase{InputA: 21, InputB: 0, Expected: 1}),
	}

	recorder := metrics.NewRecorder()
	pool := NewWorkerPool(poolConfig(2), thresholdFactory(&deployed), recorder)

	reports, duration, err := pool.Execute(context.Background(), fixtures)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Positive(t, duration)
	assert.Equal(t, int64(3), deployed.Load(), "one deployment per fixture")

	// Reports keep fixture order regardless of completion order
	assert.Equal(t, "seed", reports[0].Meta.Fixture)
	assert.Equal(t, "mismatch", reports[1].Meta.Fixture)
	assert.Equal(t, "small", reports[2].Meta.Fixture)

	assert.True(t, reports[0].AllPassed)
	assert.False(t, reports[1].AllPassed)
	assert.Equal(t, domain.MismatchedVerdict, reports[1].Cases[0].Kind)
	assert.True(t, reports[2].AllPassed)
}

func TestWorkerPool_Empty(t *testing.T) {
	pool := NewWorkerPool(poolConfig(1), nil, nil)
	reports, _, err := pool.Execute(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, reports)
}

func TestWorkerPool_FailFast(t *testing.T) {
	var deployed atomic.Int64
	fixtures := []*domain.Fixture{
		namedFixture("first", domain.TestCase{InputA: 1, InputB: 2, Expected: 1}),
		namedFixture("second", domain.TestCase{InputA: 50, InputB: 2, Expected: 1}),
		namedFixture("third", domain.TestCase{InputA: 50, InputB: 2, Expected: 1}),
	}

	pool := NewWorkerPool(poolConfig(1), thresholdFactory(&deployed), nil)
	reports, _, err := pool.ExecuteWithOptions(context.Background(), fixtures, true)
	require.NoError(t, err)

	require.Len(t, reports, 1)
	assert.Equal(t, "first", reports[0].Meta.Fixture)
	assert.Equal(t, int64(1), deployed.Load())
}

func TestWorkerPool_FatalStopsRun(t *testing.T) {
	fixtures := []*domain.Fixture{
		namedFixture("down", domain.TestCase{InputA: 1, InputB: 2, Expected: 0}),
		namedFixture("up", domain.TestCase{InputA: 50, InputB: 2, Expected: 1}),
	}

	factory := func(f *domain.Fixture) (collaborator.Deployer, error) {
		if f.Name == "down" {
			return &collaborator.Func{Name: "down", New: func() (collaborator.InvokeFunc, error) {
				return nil, errors.New("node not reachable")
			}}, nil
		}
		return collaborator.NewFunc(f.Name, threshold), nil
	}

	pool := NewWorkerPool(poolConfig(1), factory, nil)
	reports, _, err := pool.Execute(context.Background(), fixtures)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCollaboratorUnavailable)
	assert.Contains(t, err.Error(), "fixture down")
	require.NotEmpty(t, reports)
	assert.Equal(t, "down", reports[0].Meta.Fixture)
	assert.NotEmpty(t, reports[0].Meta.Error)
}

func TestWorkerPool_FactoryError(t *testing.T) {
	factory := func(f *domain.Fixture) (collaborator.Deployer, error) {
		return nil, fmt.Errorf("no collaborator for %s", f.Name)
	}

	pool := NewWorkerPool(poolConfig(1), factory, nil)
	_, _, err := pool.Execute(context.Background(), []*domain.Fixture{seedFixture()})
	assert.ErrorContains(t, err, "no collaborator for seed")
}
