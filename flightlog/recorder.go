// flightlog package recorder.go - records one mission without blocking it

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

package flightlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SMerrony/tellomission/mission"
	"github.com/google/uuid"
)

const recordBuffer = 256

type recordKind uint8

const (
	kindEvent recordKind = iota
	kindTransition
)

type record struct {
	kind     recordKind
	at       time.Time
	severity mission.Severity
	message  string
	from, to mission.Phase
}

// Recorder writes one mission's notifications and transitions to the Log.
// It implements mission.Notifier and mission.Observer, and never blocks the caller:
// records are queued to a writer Goroutine and dropped (and counted) if it falls behind.
type Recorder struct {
	log   *Log
	id    string
	clock mission.Clock

	mu      sync.Mutex
	closed  bool
	dropped int
	queue   chan record
	wg      sync.WaitGroup
}

var (
	_ mission.Notifier = (*Recorder)(nil)
	_ mission.Observer = (*Recorder)(nil)
)

// Begin registers a new mission flown with cfg and returns its Recorder.
// Notification timestamps are taken from clock.
func (l *Log) Begin(ctx context.Context, cfg mission.Config, clock mission.Clock) (*Recorder, error) {
	id := uuid.New().String()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO missions (id, started_at, target_altitude, cruise_speed, hover_ms, cruise_ms,
			altitude_tolerance, cadence_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, clock.Now().UnixNano(), cfg.TargetAltitude, cfg.CruiseSpeed,
		cfg.HoverDuration.Milliseconds(), cfg.CruiseDuration.Milliseconds(),
		cfg.AltitudeTolerance, cfg.Cadence.Milliseconds())
	if err != nil {
		return nil, fmt.Errorf("failed to record mission start: %w", err)
	}

	r := &Recorder{
		log:   l,
		id:    id,
		clock: clock,
		queue: make(chan record, recordBuffer),
	}
	r.wg.Add(1)
	go r.writer()
	l.logger.Debug().Str("mission_id", id).Msg("recording mission")
	return r, nil
}

// ID is the mission's identifier in the log.
func (r *Recorder) ID() string { return r.id }

// Notify queues a notification
func (r *Recorder) Notify(sev mission.Severity, msg string) {
	r.enqueue(record{kind: kindEvent, at: r.clock.Now(), severity: sev, message: msg})
}

// PhaseChanged queues a transition
func (r *Recorder) PhaseChanged(tr mission.Transition) {
	r.enqueue(record{kind: kindTransition, at: tr.At, from: tr.From, to: tr.To})
}

func (r *Recorder) enqueue(rec record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- rec:
	default:
		r.dropped++
	}
}

func (r *Recorder) writer() {
	defer r.wg.Done()
	for rec := range r.queue {
		var err error
		switch rec.kind {
		case kindEvent:
			_, err = r.log.db.Exec(`INSERT INTO events (mission_id, at, severity, message) VALUES (?, ?, ?, ?)`,
				r.id, rec.at.UnixNano(), int64(rec.severity), rec.message)
		case kindTransition:
			_, err = r.log.db.Exec(`INSERT INTO transitions (mission_id, at, from_phase, to_phase) VALUES (?, ?, ?, ?)`,
				r.id, rec.at.UnixNano(), int64(rec.from), int64(rec.to))
		}
		if err != nil {
			r.log.logger.Error().Err(err).Str("mission_id", r.id).Msg("failed to write flight log record")
		}
	}
}

// Finish flushes queued records and marks the mission finished with outcome, eg. "completed".
// Later notifications are ignored.
func (r *Recorder) Finish(ctx context.Context, outcome string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()

	r.mu.Lock()
	dropped := r.dropped
	r.mu.Unlock()
	_, err := r.log.db.ExecContext(ctx,
		`UPDATE missions SET finished_at = ?, outcome = ?, dropped = ? WHERE id = ?`,
		r.clock.Now().UnixNano(), outcome, dropped, r.id)
	if err != nil {
		return fmt.Errorf("failed to record mission finish: %w", err)
	}
	return nil
}
