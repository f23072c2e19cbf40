package execution

import (
	"context"
	"fmt"
	"time"

	"vcheck/internal/collaborator"
	"vcheck/internal/config"
	"vcheck/internal/domain"
)

// Executor runs fixtures and returns one report per fixture
type Executor interface {
	Execute(ctx context.Context, fixtures []*domain.Fixture) ([]domain.RunReport, time.Duration, error)
}

// DeployerFactory builds the collaborator a fixture is run against. It is
// called once per fixture, so every fixture gets its own deployment.
type DeployerFactory func(f *domain.Fixture) (collaborator.Deployer, error)

// NewDeployerFactory builds deployers from the collaborator settings. The
// fixture decides which function is invoked and which event is scored.
func NewDeployerFactory(cfg *config.Config) DeployerFactory {
	return func(f *domain.Fixture) (collaborator.Deployer, error) {
		c := cfg.Collaborator
		switch c.Kind {
		case "process":
			return collaborator.NewProcess(c.Command, c.Args, c.Dir, f.FunctionName()), nil
		case "script":
			return collaborator.NewScript(cfg.GetScriptPath(), f.EventName()), nil
		default:
			return nil, fmt.Errorf("unknown collaborator %q", c.Kind)
		}
	}
}
