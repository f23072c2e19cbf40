package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationFS embed.FS

// Migration is one versioned schema change
type Migration struct {
	Version    int
	Name       string
	Statements []string
}

// Migrations returns the embedded migrations for a connection, ordered by version
func Migrations(connection string) ([]Migration, error) {
	dir := path.Join("migrations", connection)
	entries, err := migrationFS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("no migrations for %q: %w", connection, err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), ".sql")
		prefix, name, ok := strings.Cut(base, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: want <version>_<name>.sql", entry.Name())
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s: bad version: %w", entry.Name(), err)
		}
		data, err := migrationFS.ReadFile(path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, Migration{
			Version:    version,
			Name:       name,
			Statements: splitStatements(string(data)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// splitStatements splits a script on semicolons that end a line
func splitStatements(script string) []string {
	var statements []string
	var current strings.Builder
	for _, line := range strings.Split(script, "\n") {
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(strings.TrimSpace(line), ";") {
			if stmt := strings.TrimSpace(current.String()); stmt != ";" {
				statements = append(statements, strings.TrimSuffix(stmt, ";"))
			}
			current.Reset()
		}
	}
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INT          NOT NULL PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	applied_at VARCHAR(40)  NOT NULL
)`

// historyTables are dropped by a fresh migration, children first
var historyTables = []string{"case_results", "runs", "schema_migrations"}

// Apply runs every pending migration of connection against db. onApplied,
// if set, is called after each migration that ran.
func Apply(ctx context.Context, db *sql.DB, connection string, fresh bool, onApplied func(Migration)) (Result, error) {
	var result Result

	migrations, err := Migrations(connection)
	if err != nil {
		return result, err
	}

	if fresh {
		for _, table := range historyTables {
			if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				return result, fmt.Errorf("drop %s: %w", table, err)
			}
		}
	}

	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return result, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return result, err
	}

	for _, m := range migrations {
		label := fmt.Sprintf("%04d_%s", m.Version, m.Name)
		if applied[m.Version] {
			result.Skipped = append(result.Skipped, label)
			continue
		}

		for _, stmt := range m.Statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return result, fmt.Errorf("migration %s: %w", label, err)
			}
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now().UTC().Format(time.RFC3339),
		); err != nil {
			return result, fmt.Errorf("record migration %s: %w", label, err)
		}

		zap.L().Debug("Migration applied", zap.String("migration", label))
		result.Applied = append(result.Applied, label)
		if onApplied != nil {
			onApplied(m)
		}
	}

	return result, nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// SchemaMigrator implements Migrator for the embedded history schema
type SchemaMigrator struct {
	databaseManager *DatabaseManager
	out             io.Writer
}

// NewSchemaMigrator creates a new SchemaMigrator that reports progress to out
func NewSchemaMigrator(dbManager *DatabaseManager, out io.Writer) *SchemaMigrator {
	return &SchemaMigrator{databaseManager: dbManager, out: out}
}

// Run creates the history database if needed and applies pending migrations
func (sm *SchemaMigrator) Run(ctx context.Context, fresh bool) (Result, error) {
	fmt.Fprintln(sm.out, color.CyanString("\n╔════════════════════════════════════════════════════════════╗"))
	fmt.Fprintln(sm.out, color.CyanString("║               Running Database Migrations                  ║"))
	fmt.Fprintln(sm.out, color.CyanString("╚════════════════════════════════════════════════════════════╝"))

	connection := sm.databaseManager.Connection()
	migrations, err := Migrations(connection)
	if err != nil {
		return Result{}, err
	}

	db, err := sm.databaseManager.Open(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	fmt.Fprintln(sm.out, color.WhiteString("Database: %s | Migration files: %d\n", sm.databaseManager.Describe(), len(migrations)))

	completed := 0
	bar := progressbar.NewOptions(len(migrations),
		progressbar.OptionSetDescription(
			color.CyanString("Migrating: ")+
				color.GreenString("[completed: 0/%d]", len(migrations)),
		),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(sm.out),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(sm.out, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	startTime := time.Now()
	result, err := Apply(ctx, db, connection, fresh, func(m Migration) {
		completed++
		_ = bar.Set(completed)
		bar.Describe(color.CyanString("Migrating: ") +
			color.GreenString("[completed: %d/%d]", completed, len(migrations)))
	})
	result.Database = sm.databaseManager.Describe()
	_ = bar.Finish()

	fmt.Fprint(sm.out, "\n")
	if err != nil {
		fmt.Fprintln(sm.out, color.RedString("✗ Migration failed: %v", err))
		return result, err
	}

	if len(result.Applied) == 0 {
		fmt.Fprintln(sm.out, color.GreenString("✓ Nothing to migrate, schema is up to date"))
	} else {
		fmt.Fprintln(sm.out, color.GreenString("✓ Applied %d migration(s)", len(result.Applied)))
	}
	fmt.Fprintln(sm.out, color.WhiteString("Duration: %s", time.Since(startTime).Round(time.Millisecond)))
	return result, nil
}
