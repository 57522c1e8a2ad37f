/*
Copyright © 2023-2026 the lpfam authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package store persists solve runs to a SQLite database so repeated
// scenario solves can be compared over time.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// ErrNoRuns is returned by LatestRun when nothing has been saved yet.
var ErrNoRuns = errors.New("store: no runs recorded")

// Run is one recorded solve.
type Run struct {
	ID        int64              `json:"id"`
	Model     string             `json:"model"`
	Status    string             `json:"status"`
	Objective float64            `json:"objective"`
	SolveTime time.Duration      `json:"solve_time"`
	Values    map[string]float64 `json:"values"`
	CreatedAt time.Time          `json:"created_at"`
}

// Store writes runs to a single SQLite table, one JSON payload per row.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the run database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		model TEXT NOT NULL,
		created_at TEXT NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveRun records a run and returns its assigned ID.
func (s *Store) SaveRun(ctx context.Context, run Run) (int64, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return 0, fmt.Errorf("encode run: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (model, created_at, payload) VALUES (?, ?, ?)`,
		run.Model, run.CreatedAt.Format(time.RFC3339Nano), payload)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// LatestRun returns the most recently saved run for the named model.
func (s *Store) LatestRun(ctx context.Context, model string) (Run, error) {
	var (
		id      int64
		payload []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, payload FROM runs WHERE model = ? ORDER BY id DESC LIMIT 1`,
		model).Scan(&id, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, fmt.Errorf("select run: %w", err)
	}
	var run Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return Run{}, fmt.Errorf("decode run: %w", err)
	}
	run.ID = id
	return run, nil
}

// Runs returns every saved run for the named model, oldest first.
func (s *Store) Runs(ctx context.Context, model string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload FROM runs WHERE model = ? ORDER BY id ASC`, model)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var runs []Run
	for rows.Next() {
		var (
			id      int64
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var run Run
		if err := json.Unmarshal(payload, &run); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		run.ID = id
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
