// Package runlog archives equivalence runs in SQLite: one row per run,
// plus the full per-cycle trace of both backends, so past divergences stay
// inspectable without re-running the stimulus.
package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/raydet/sequencer/internal/fsm"
	"github.com/raydet/sequencer/internal/harness"
	"github.com/raydet/sequencer/internal/lut"
)

//go:embed schema.sql
var schemaSQL string

// Archive is the run store. Uses SQLite with WAL mode; a single writer
// connection avoids SQLITE_BUSY under concurrent saves.
type Archive struct {
	db  *sql.DB
	ids RunIDGenerator
}

// Option configures an Archive at open time.
type Option func(*Archive)

// WithIDGenerator substitutes the run ID source. Tests pass a
// FixedGenerator for deterministic IDs.
func WithIDGenerator(g RunIDGenerator) Option {
	return func(a *Archive) { a.ids = g }
}

// Open creates or opens the archive database at path. Pragmas and schema
// apply automatically; the call is idempotent.
func Open(path string, opts ...Option) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	a := &Archive{db: db, ids: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Run is one archived equivalence run.
type Run struct {
	ID     string
	Name   string
	Mode   string
	Layout string
	Cycles int
	Passed bool

	// MismatchCycle and MismatchField are set only for failed runs.
	MismatchCycle *int
	MismatchField *string

	CreatedAt string
}

// layoutName is the spelling stored in the archive and accepted by the
// config loader.
func layoutName(layout lut.Layout) string {
	if layout.Extended() {
		return "extended"
	}
	return "base"
}

// SaveReport archives a comparison report in one transaction and returns
// the new run ID.
func (a *Archive) SaveReport(ctx context.Context, report *harness.Report, layout lut.Layout, mode fsm.RepeatMode) (string, error) {
	id := a.ids.Generate()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var mismatchCycle, mismatchField any
	if d := report.Divergence; d != nil {
		mismatchCycle, mismatchField = d.Cycle, d.Field
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, name, mode, layout, cycles, pass, mismatch_cycle, mismatch_field)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, report.Name, mode.String(), layoutName(layout), report.Cycles(),
		report.Passed(), mismatchCycle, mismatchField,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trace_rows (run_id, backend, cycle, state, busy, done, addr, repeat_count, hold_timer, eof, sof)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare trace insert: %w", err)
	}
	defer stmt.Close()

	insert := func(backend string, trace []fsm.Observation) error {
		for _, obs := range trace {
			_, err := stmt.ExecContext(ctx,
				id, backend, obs.Cycle, obs.State.String(),
				obs.Busy, obs.Done, obs.Addr, obs.Repeat, obs.Timer, obs.EOF, obs.SOF,
			)
			if err != nil {
				return fmt.Errorf("insert trace row (backend=%s cycle=%d): %w", backend, obs.Cycle, err)
			}
		}
		return nil
	}
	if err := insert(report.RefName, report.RefTrace); err != nil {
		return "", err
	}
	if err := insert(report.DutName, report.DutTrace); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

// GetRun fetches one archived run by ID.
func (a *Archive) GetRun(ctx context.Context, id string) (*Run, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, name, mode, layout, cycles, pass, mismatch_cycle, mismatch_field, created_at
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return r, err
}

// ListRuns returns the archived runs, newest first.
func (a *Archive) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, name, mode, layout, cycles, pass, mismatch_cycle, mismatch_field, created_at
		FROM runs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var cycle sql.NullInt64
	var field sql.NullString
	if err := s.Scan(&r.ID, &r.Name, &r.Mode, &r.Layout, &r.Cycles, &r.Passed, &cycle, &field, &r.CreatedAt); err != nil {
		return nil, err
	}
	if cycle.Valid {
		c := int(cycle.Int64)
		r.MismatchCycle = &c
	}
	if field.Valid {
		f := field.String
		r.MismatchField = &f
	}
	return &r, nil
}

// ReadTrace returns one backend's archived observation trace in cycle
// order.
func (a *Archive) ReadTrace(ctx context.Context, runID, backend string) ([]fsm.Observation, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT cycle, state, busy, done, addr, repeat_count, hold_timer, eof, sof
		FROM trace_rows WHERE run_id = ? AND backend = ? ORDER BY cycle`, runID, backend)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	defer rows.Close()

	var trace []fsm.Observation
	for rows.Next() {
		var obs fsm.Observation
		var state string
		if err := rows.Scan(&obs.Cycle, &state, &obs.Busy, &obs.Done, &obs.Addr, &obs.Repeat, &obs.Timer, &obs.EOF, &obs.SOF); err != nil {
			return nil, err
		}
		s, ok := lut.StateByName(state)
		if !ok {
			return nil, fmt.Errorf("trace row cycle %d: unknown state %q", obs.Cycle, state)
		}
		obs.State = s
		trace = append(trace, obs)
	}
	return trace, rows.Err()
}
