package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `id, repo_root, model, started_at, finished_at, files_analysed, files_failed`

// SaveRun inserts or replaces a run and rewrites its graph in one transaction.
func (s *runStore) SaveRun(ctx context.Context, run *domain.AnalysisRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("%w: run without id", domain.ErrInvalidInput)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			repo_root = excluded.repo_root,
			model = excluded.model,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			files_analysed = excluded.files_analysed,
			files_failed = excluded.files_failed
	`, run.ID, run.RepoRoot, run.Model, toNanos(run.StartedAt), toNanos(run.FinishedAt),
		run.FilesAnalysed, run.FilesFailed)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM services WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("clear services: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("clear edges: %w", err)
	}

	if run.Graph != nil {
		for _, svc := range run.Graph.SortedServices() {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO services (run_id, id, name, description, root_path)
				VALUES (?, ?, ?, ?, ?)
			`, run.ID, svc.ID, svc.Name, svc.Description, svc.RootPath)
			if err != nil {
				return fmt.Errorf("save service %s: %w", svc.ID, err)
			}
		}
		for _, e := range run.Graph.Edges() {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO edges (run_id, from_id, to_id) VALUES (?, ?, ?)
			`, run.ID, e.From, e.To)
			if err != nil {
				return fmt.Errorf("save edge %s->%s: %w", e.From, e.To, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run with its graph.
func (s *runStore) GetRun(ctx context.Context, id string) (*domain.AnalysisRun, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}
	if run.Graph, err = s.loadGraph(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

// LatestRun returns the most recently started run, optionally for one repository.
func (s *runStore) LatestRun(ctx context.Context, repoRoot string) (*domain.AnalysisRun, error) {
	var row *sql.Row
	if repoRoot == "" {
		row = s.store.db.QueryRowContext(ctx, `
			SELECT `+runColumns+` FROM runs
			ORDER BY started_at DESC, id DESC LIMIT 1
		`)
	} else {
		row = s.store.db.QueryRowContext(ctx, `
			SELECT `+runColumns+` FROM runs WHERE repo_root = ?
			ORDER BY started_at DESC, id DESC LIMIT 1
		`, repoRoot)
	}
	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}
	if run.Graph, err = s.loadGraph(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs newest first, without graphs.
func (s *runStore) ListRuns(ctx context.Context) ([]domain.AnalysisRun, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run. Services and edges go with it.
func (s *runStore) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM edges WHERE run_id = ?`,
		`DELETE FROM services WHERE run_id = ?`,
		`DELETE FROM runs WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
	}
	return tx.Commit()
}

func (s *runStore) loadGraph(ctx context.Context, runID string) (*domain.ServiceGraph, error) {
	graph := domain.NewServiceGraph()

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, description, root_path FROM services WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var svc domain.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.RootPath); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		graph.AddService(svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}

	edgeRows, err := s.store.db.QueryContext(ctx, `
		SELECT from_id, to_id FROM edges WHERE run_id = ? ORDER BY from_id, to_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var e domain.Edge
		if err := edgeRows.Scan(&e.From, &e.To); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		graph.AddDependency(endpoint(graph, e.From), endpoint(graph, e.To))
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	return graph, nil
}

func endpoint(graph *domain.ServiceGraph, id string) domain.Service {
	if svc, ok := graph.Get(id); ok {
		return svc
	}
	return domain.Service{ID: id, Name: id}
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.AnalysisRun, error) {
	var (
		run               domain.AnalysisRun
		started, finished int64
	)
	err := row.Scan(&run.ID, &run.RepoRoot, &run.Model, &started, &finished,
		&run.FilesAnalysed, &run.FilesFailed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = fromNanos(started)
	run.FinishedAt = fromNanos(finished)
	return &run, nil
}

// Times are stored as unix nanoseconds so ORDER BY sorts chronologically.
// The zero time is stored as 0.
func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
