package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcheck/internal/collaborator"
	"vcheck/internal/config"
	"vcheck/internal/domain"
)

func TestNewDeployerFactory(t *testing.T) {
	f := &domain.Fixture{Name: "seed", Function: "cmp", Event: "Result"}

	t.Run("process", func(t *testing.T) {
		cfg := config.New()
		cfg.Collaborator = config.CollaboratorConfig{Kind: "process", Command: "oracle", Args: []string{"--json"}}

		d, err := NewDeployerFactory(cfg)(f)
		require.NoError(t, err)
		p, ok := d.(*collaborator.Process)
		require.True(t, ok)
		assert.Equal(t, "cmp", p.Function)
		assert.Equal(t, "process:oracle --json", d.Describe())
	})

	t.Run("script", func(t *testing.T) {
		cfg := config.New()
		cfg.ProjectPath = "/srv/project"
		cfg.Collaborator = config.CollaboratorConfig{Kind: "script", Script: "contract.go"}

		d, err := NewDeployerFactory(cfg)(f)
		require.NoError(t, err)
		s, ok := d.(*collaborator.Script)
		require.True(t, ok)
		assert.Equal(t, "/srv/project/contract.go", s.Path)
		assert.Equal(t, "Result", s.Event)
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := config.New()
		cfg.Collaborator.Kind = "rpc"

		_, err := NewDeployerFactory(cfg)(f)
		assert.ErrorContains(t, err, `unknown collaborator "rpc"`)
	})
}
