package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"vcheck/internal/domain"
)

// ErrNoHistory is returned by SQLStorage.Load when no run has been recorded
var ErrNoHistory = errors.New("no runs recorded")

// SQLStorage appends every saved run to the history tables created by the
// migrate command. Each Save is one batch; Load returns the latest batch.
type SQLStorage struct {
	db *sql.DB
}

// NewSQLStorage creates a SQLStorage over an open, migrated database
func NewSQLStorage(db *sql.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

const insertRun = `INSERT INTO runs (
	run_id, batch_id, batch_timestamp, workers, position, fixture, fixture_path, fixture_digest,
	function_name, collaborator, total_cases, passed_cases, failed_cases,
	timeout_seconds, duration_seconds, started_at, aborted, run_error, all_passed
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertCase = `INSERT INTO case_results (
	run_id, case_index, input_a, input_b, expected_verdict, actual_verdict,
	observed, passed, error_kind, detail, duration_ms, resolved
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Save records the output as a new batch in a single transaction.
func (s *SQLStorage) Save(ctx context.Context, output *domain.ResultsOutput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	runStmt, err := tx.PrepareContext(ctx, insertRun)
	if err != nil {
		return fmt.Errorf("prepare run insert: %w", err)
	}
	defer runStmt.Close()

	caseStmt, err := tx.PrepareContext(ctx, insertCase)
	if err != nil {
		return fmt.Errorf("prepare case insert: %w", err)
	}
	defer caseStmt.Close()

	batchID := ulid.Make().String()
	for position, report := range output.Reports {
		m := report.Meta
		runID := m.RunID
		if runID == "" {
			runID = ulid.Make().String()
		}

		if _, err := runStmt.ExecContext(ctx,
			runID, batchID, output.Timestamp, output.Workers, position, m.Fixture, m.FixturePath, m.FixtureDigest,
			m.Function, m.Collaborator, m.TotalCases, m.PassedCases, m.FailedCases,
			m.TimeoutSeconds, m.DurationSeconds, m.Timestamp, m.Aborted, m.Error, report.AllPassed,
		); err != nil {
			return fmt.Errorf("insert run %s: %w", m.Fixture, err)
		}

		for _, c := range report.Cases {
			args, err := caseArgs(runID, c)
			if err != nil {
				return err
			}
			if _, err := caseStmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert case %d of %s: %w", c.Index, m.Fixture, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func caseArgs(runID string, c domain.CaseResult) ([]any, error) {
	var actual sql.NullInt64
	if c.Actual != nil {
		actual = sql.NullInt64{Int64: int64(*c.Actual), Valid: true}
	}

	var observed sql.NullString
	if len(c.Observed) > 0 {
		data, err := json.Marshal(c.Observed)
		if err != nil {
			return nil, fmt.Errorf("marshal observed events: %w", err)
		}
		observed = sql.NullString{String: string(data), Valid: true}
	}

	return []any{
		runID, c.Index, c.InputA, c.InputB, int64(c.Expected), actual,
		observed, c.Passed, string(c.Kind), c.Detail, c.DurationMs, c.Resolved,
	}, nil
}

// Load returns the most recently saved batch.
func (s *SQLStorage) Load(ctx context.Context) (*domain.ResultsOutput, error) {
	var batchID string
	output := &domain.ResultsOutput{AllPassed: true}
	err := s.db.QueryRowContext(ctx,
		`SELECT batch_id, batch_timestamp, workers FROM runs ORDER BY batch_id DESC LIMIT 1`,
	).Scan(&batchID, &output.Timestamp, &output.Workers)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoHistory
	}
	if err != nil {
		return nil, fmt.Errorf("find latest batch: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT
		run_id, fixture, fixture_path, fixture_digest, function_name, collaborator,
		total_cases, passed_cases, failed_cases, timeout_seconds, duration_seconds,
		started_at, aborted, run_error, all_passed
		FROM runs WHERE batch_id = ? ORDER BY position`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.RunReport
		m := &r.Meta
		if err := rows.Scan(
			&m.RunID, &m.Fixture, &m.FixturePath, &m.FixtureDigest, &m.Function, &m.Collaborator,
			&m.TotalCases, &m.PassedCases, &m.FailedCases, &m.TimeoutSeconds, &m.DurationSeconds,
			&m.Timestamp, &m.Aborted, &m.Error, &r.AllPassed,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if !r.AllPassed {
			output.AllPassed = false
		}
		output.Reports = append(output.Reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}

	for i := range output.Reports {
		cases, err := s.loadCases(ctx, output.Reports[i].Meta.RunID)
		if err != nil {
			return nil, err
		}
		output.Reports[i].Cases = cases
	}
	return output, nil
}

func (s *SQLStorage) loadCases(ctx context.Context, runID string) ([]domain.CaseResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		case_index, input_a, input_b, expected_verdict, actual_verdict,
		observed, passed, error_kind, detail, duration_ms, resolved
		FROM case_results WHERE run_id = ? ORDER BY case_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query cases of run %s: %w", runID, err)
	}
	defer rows.Close()

	cases := []domain.CaseResult{}
	for rows.Next() {
		var (
			c        domain.CaseResult
			expected int64
			actual   sql.NullInt64
			observed sql.NullString
			kind     string
		)
		if err := rows.Scan(
			&c.Index, &c.InputA, &c.InputB, &expected, &actual,
			&observed, &c.Passed, &kind, &c.Detail, &c.DurationMs, &c.Resolved,
		); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		c.Expected = domain.Verdict(expected)
		c.Kind = domain.ErrorKind(kind)
		if actual.Valid {
			v := domain.Verdict(actual.Int64)
			c.Actual = &v
		}
		if observed.Valid && observed.String != "" {
			if err := json.Unmarshal([]byte(observed.String), &c.Observed); err != nil {
				return nil, fmt.Errorf("parse observed events of case %d: %w", c.Index, err)
			}
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}
