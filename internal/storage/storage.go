package storage

import (
	"context"
	"time"

	"vcheck/internal/config"
	"vcheck/internal/domain"
)

// Storage persists and loads the reports of a run (e.g. for the failures viewer).
type Storage interface {
	Save(ctx context.Context, output *domain.ResultsOutput) error
	Load(ctx context.Context) (*domain.ResultsOutput, error)
}

// JSONStorage stores results in a JSON file.
type JSONStorage struct {
	cfg  *config.Config
	path string
}

// NewJSONStorage returns a Storage that reads/writes the config's output JSON
// path. The path is resolved on every access, after flags have been applied.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}

// NewJSONFile returns a Storage over an arbitrary results file
func NewJSONFile(path string) *JSONStorage {
	return &JSONStorage{path: path}
}

// Path returns the file the storage reads and writes
func (s *JSONStorage) Path() string {
	if s.cfg != nil {
		return s.cfg.GetOutputPath()
	}
	return s.path
}

// NewResultsOutput wraps the reports of one invocation of the run command.
func NewResultsOutput(reports []domain.RunReport, workers int) *domain.ResultsOutput {
	output := &domain.ResultsOutput{
		Reports:   reports,
		Workers:   workers,
		AllPassed: len(reports) > 0,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if output.Reports == nil {
		output.Reports = []domain.RunReport{}
	}
	for _, r := range reports {
		if !r.AllPassed {
			output.AllPassed = false
		}
	}
	return output
}
