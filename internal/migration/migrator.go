package migration

import "context"

// Migrator brings the history database up to the current schema
type Migrator interface {
	// Run applies pending migrations. fresh drops the history tables first.
	Run(ctx context.Context, fresh bool) (Result, error)
}

// Result summarises a migration run
type Result struct {
	Database string
	Applied  []string
	Skipped  []string
}
