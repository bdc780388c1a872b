// autopilot package autopilot.go - runs a mission from its own Goroutine

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

// Package autopilot repeatedly ticks a mission sequencer from a Goroutine, standing in for
// the host's control loop, and lands the vehicle if the mission is cancelled.
package autopilot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SMerrony/tellomission/mission"
	"github.com/rs/zerolog"
)

const defaultPeriodMs = 25 // how often the autopilot ticks the sequencer

// ErrAlreadyRunning is returned by Start while a mission is being flown.
var ErrAlreadyRunning = errors.New("Already flying a mission")

// Sequencer is the part of *mission.Sequencer the autopilot drives.
type Sequencer interface {
	Tick() bool
	Done() bool
	Phase() mission.Phase
}

// Aborter can force the vehicle down, any mission.Vehicle will do.
type Aborter interface {
	SetMode(mode mission.Mode) error
	SetVelocity(forward, lateral, vertical float64)
}

// Options configure an Autopilot.
type Options struct {
	Period  time.Duration // loop period, much shorter than the mission cadence
	Aborter Aborter       // optional, told to land when a mission is cancelled
}

// Autopilot owns the loop which ticks a Sequencer.
type Autopilot struct {
	seq    Sequencer
	opts   Options
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

// New returns an idle Autopilot for seq.
func New(seq Sequencer, opts Options, logger zerolog.Logger) *Autopilot {
	if opts.Period <= 0 {
		opts.Period = defaultPeriodMs * time.Millisecond
	}
	return &Autopilot{
		seq:    seq,
		opts:   opts,
		logger: logger.With().Str("component", "autopilot").Logger(),
	}
}

// Running is true while the loop is active.
func (ap *Autopilot) Running() bool {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	return ap.running
}

// Start begins ticking the sequencer.
// The func returns immediately and a Goroutine flies the mission.
// The caller may optionally listen on the 'done' channel, which receives true when the
// mission completes or false if it was cancelled.
func (ap *Autopilot) Start() (done <-chan bool, err error) {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	if ap.running {
		return nil, ErrAlreadyRunning
	}
	ap.running = true
	ap.stop = make(chan struct{})

	doneChan := make(chan bool, 1) // buffered so send doesn't block
	ap.logger.Info().Dur("period", ap.opts.Period).Msg("autopilot engaged")
	go ap.loop(ap.stop, doneChan)
	return doneChan, nil
}

// Cancel stops an in-flight mission.  If an Aborter was configured and the mission had not
// finished, the vehicle is told to stop and land.
func (ap *Autopilot) Cancel() {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	if !ap.running || ap.stop == nil {
		return
	}
	close(ap.stop)
	ap.stop = nil
}

// Run flies the mission to completion, blocking until it is done or ctx is cancelled.
func (ap *Autopilot) Run(ctx context.Context) error {
	done, err := ap.Start()
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		ap.Cancel()
		<-done
		return ctx.Err()
	}
}

func (ap *Autopilot) loop(stop <-chan struct{}, done chan<- bool) {
	ticker := time.NewTicker(ap.opts.Period)
	defer ticker.Stop()

	for {
		ap.seq.Tick()
		if ap.seq.Done() {
			ap.finish()
			ap.logger.Info().Msg("mission complete, autopilot disengaged")
			done <- true
			return
		}

		select {
		case <-stop:
			ap.abort()
			ap.finish()
			done <- false
			return
		case <-ticker.C:
		}
	}
}

func (ap *Autopilot) finish() {
	ap.mu.Lock()
	ap.running = false
	ap.stop = nil
	ap.mu.Unlock()
}

func (ap *Autopilot) abort() {
	phase := ap.seq.Phase()
	ap.logger.Warn().Stringer("phase", phase).Msg("mission cancelled")
	if ap.opts.Aborter == nil || phase.Terminal() {
		return
	}
	ap.opts.Aborter.SetVelocity(0, 0, 0)
	if err := ap.opts.Aborter.SetMode(mission.ModeLand); err != nil {
		ap.logger.Error().Err(err).Msg("abort: cannot switch to land mode")
		return
	}
	ap.logger.Warn().Msg("abort: landing")
}
