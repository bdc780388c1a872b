// flightlog package flightlog.go - persistent flight logs

// Copyright (C) 2018  Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package flightlog records what happened during each mission, every notification and
// phase change, in an SQLite database.
package flightlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SMerrony/tellomission/mission"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// ErrMissionNotFound is returned when querying an unknown mission ID.
var ErrMissionNotFound = errors.New("mission not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS missions (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		outcome TEXT,
		dropped INTEGER NOT NULL DEFAULT 0,
		target_altitude REAL NOT NULL,
		cruise_speed REAL NOT NULL,
		hover_ms INTEGER NOT NULL,
		cruise_ms INTEGER NOT NULL,
		altitude_tolerance REAL NOT NULL,
		cadence_ms INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mission_id TEXT NOT NULL REFERENCES missions(id),
		at INTEGER NOT NULL,
		severity INTEGER NOT NULL,
		message TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transitions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mission_id TEXT NOT NULL REFERENCES missions(id),
		at INTEGER NOT NULL,
		from_phase INTEGER NOT NULL,
		to_phase INTEGER NOT NULL
	)`,
}

// Log is an open flight log database.
type Log struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens or creates the flight log at path.
func Open(path string, logger zerolog.Logger) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open flight log: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, q := range schema {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create flight log schema: %w", err)
		}
	}
	return &Log{db: db, logger: logger.With().Str("component", "flightlog").Logger()}, nil
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Mission is one row of the missions table.
type Mission struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time // zero while unfinished
	Outcome    string
	Dropped    int // records lost because the writer fell behind
	Config     mission.Config
}

// Event is a recorded notification.
type Event struct {
	At       time.Time
	Severity mission.Severity
	Message  string
}

// Missions lists all recorded missions, oldest first.
func (l *Log) Missions(ctx context.Context) ([]Mission, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, outcome, dropped,
			target_altitude, cruise_speed, hover_ms, cruise_ms, altitude_tolerance, cadence_ms
		FROM missions ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query missions: %w", err)
	}
	defer rows.Close()

	var missions []Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		missions = append(missions, m)
	}
	return missions, rows.Err()
}

// Mission returns one mission by ID.
func (l *Log) Mission(ctx context.Context, id string) (Mission, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, outcome, dropped,
			target_altitude, cruise_speed, hover_ms, cruise_ms, altitude_tolerance, cadence_ms
		FROM missions WHERE id = ?`, id)
	m, err := scanMission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Mission{}, ErrMissionNotFound
	}
	return m, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMission(s scanner) (Mission, error) {
	var (
		m                            Mission
		started                      int64
		finished                     sql.NullInt64
		outcome                      sql.NullString
		hoverMs, cruiseMs, cadenceMs int64
	)
	err := s.Scan(&m.ID, &started, &finished, &outcome, &m.Dropped,
		&m.Config.TargetAltitude, &m.Config.CruiseSpeed, &hoverMs, &cruiseMs,
		&m.Config.AltitudeTolerance, &cadenceMs)
	if err != nil {
		return Mission{}, err
	}
	m.StartedAt = time.Unix(0, started).UTC()
	if finished.Valid {
		m.FinishedAt = time.Unix(0, finished.Int64).UTC()
	}
	m.Outcome = outcome.String
	m.Config.HoverDuration = time.Duration(hoverMs) * time.Millisecond
	m.Config.CruiseDuration = time.Duration(cruiseMs) * time.Millisecond
	m.Config.Cadence = time.Duration(cadenceMs) * time.Millisecond
	return m, nil
}

// Events returns the notifications recorded for a mission in order.
func (l *Log) Events(ctx context.Context, missionID string) ([]Event, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT at, severity, message FROM events WHERE mission_id = ? ORDER BY id`, missionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e       Event
			at, sev int64
		)
		if err := rows.Scan(&at, &sev, &e.Message); err != nil {
			return nil, err
		}
		e.Severity = mission.Severity(sev)
		e.At = time.Unix(0, at).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

// Transitions returns the phase changes recorded for a mission in order.
func (l *Log) Transitions(ctx context.Context, missionID string) ([]mission.Transition, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT at, from_phase, to_phase FROM transitions WHERE mission_id = ? ORDER BY id`, missionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer rows.Close()

	var trs []mission.Transition
	for rows.Next() {
		var (
			tr           mission.Transition
			at, from, to int64
		)
		if err := rows.Scan(&at, &from, &to); err != nil {
			return nil, err
		}
		tr.From, tr.To = mission.Phase(from), mission.Phase(to)
		tr.At = time.Unix(0, at).UTC()
		trs = append(trs, tr)
	}
	return trs, rows.Err()
}
