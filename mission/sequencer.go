// mission package sequencer.go - the timer-gated phase sequencer

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

package mission

import (
	"fmt"
	"time"
)

// State is the whole of the sequencer's mutable state.
type State struct {
	Phase          Phase
	PhaseStartedAt time.Time // set once, on entry to Phase
	LastTickAt     time.Time // last evaluated tick, only used for the cadence gate
	Completed      bool      // the completion notification has been sent
}

// Option tweaks a Sequencer at construction.
type Option func(*Sequencer)

// WithObserver registers an Observer for phase changes.
func WithObserver(o Observer) Option {
	return func(s *Sequencer) { s.observer = o }
}

// WithRepeatedCompletion makes the Done phase re-send its completion notification on
// every due tick instead of only once.
func WithRepeatedCompletion(repeat bool) Option {
	return func(s *Sequencer) { s.repeatCompletion = repeat }
}

// Sequencer flies the mission one tick at a time.
// It is not safe for concurrent use, it is meant to be owned by a single control loop.
type Sequencer struct {
	cfg              Config
	vehicle          Vehicle
	clock            Clock
	notifier         Notifier
	observer         Observer
	repeatCompletion bool

	state   State
	started bool // false until the first evaluated tick
}

// New returns a Sequencer in the Takeoff phase with both timestamps set to the clock's current time.
func New(cfg Config, vehicle Vehicle, clock Clock, notifier Notifier, opts ...Option) (*Sequencer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, ErrNilVehicle
	}
	if clock == nil {
		return nil, ErrNilClock
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	s := &Sequencer{
		cfg:      cfg,
		vehicle:  vehicle,
		clock:    clock,
		notifier: notifier,
	}
	for _, opt := range opts {
		opt(s)
	}
	now := clock.Now()
	s.state = State{Phase: PhaseTakeoff, PhaseStartedAt: now, LastTickAt: now}
	return s, nil
}

// Config returns the mission parameters.
func (s *Sequencer) Config() Config { return s.cfg }

// Phase returns the current phase.
func (s *Sequencer) Phase() Phase { return s.state.Phase }

// State returns a copy of the current state.
func (s *Sequencer) State() State { return s.state }

// Done is true once the mission has landed and completion has been reported.
func (s *Sequencer) Done() bool {
	return s.state.Phase == PhaseDone && s.state.Completed
}

// Tick evaluates the mission if at least Cadence has passed since the last evaluated tick.
// It reports whether an evaluation happened.
func (s *Sequencer) Tick() bool {
	now := s.clock.Now()
	if !s.due(now) {
		return false
	}

	switch s.state.Phase {
	case PhaseTakeoff:
		s.takeoff(now)
	case PhaseClimbWait:
		s.climbWait(now)
	case PhaseHover:
		s.hover(now)
	case PhaseCruise:
		s.cruise(now)
	case PhaseLand:
		s.land(now)
	case PhaseDone:
		s.done()
	}
	return true
}

// due is the cadence gate.  The first tick is always due.
func (s *Sequencer) due(now time.Time) bool {
	if s.started && now.Sub(s.state.LastTickAt) < s.cfg.Cadence {
		return false
	}
	s.started = true
	s.state.LastTickAt = now
	return true
}

func (s *Sequencer) takeoff(now time.Time) {
	if err := s.vehicle.SetMode(ModeGuided); err != nil {
		s.critical(ErrModeSwitchFailed, err)
		return
	}
	if err := s.vehicle.Arm(); err != nil {
		s.critical(ErrArmFailed, err)
		return
	}
	if err := s.vehicle.StartClimb(s.cfg.TargetAltitude); err != nil {
		s.critical(ErrClimbStartFailed, err)
		return
	}
	s.enter(now)
	s.notifier.Notify(SeverityInfo, fmt.Sprintf("Taking off, climbing to %.1fm", s.cfg.TargetAltitude))
}

func (s *Sequencer) climbWait(now time.Time) {
	alt, err := s.vehicle.Altitude()
	if err != nil {
		s.critical(ErrAltitudeUnavailable, err)
		return
	}
	if !s.cfg.reachedAltitude(alt) {
		return // the climb continues under host control
	}
	s.holdPosition()
	s.enter(now)
	s.notifier.Notify(SeverityInfo, fmt.Sprintf("Reached %.1fm, hovering", alt))
}

func (s *Sequencer) hover(now time.Time) {
	s.holdPosition()
	if now.Sub(s.state.PhaseStartedAt) > s.cfg.HoverDuration {
		s.enter(now)
		s.notifier.Notify(SeverityInfo, fmt.Sprintf("Cruising forward at %.1fm/s", s.cfg.CruiseSpeed))
	}
}

func (s *Sequencer) cruise(now time.Time) {
	s.vehicle.SetVelocity(s.cfg.CruiseSpeed, 0, 0)
	if now.Sub(s.state.PhaseStartedAt) > s.cfg.CruiseDuration {
		s.enter(now)
		s.notifier.Notify(SeverityInfo, "Preparing to land")
	}
}

func (s *Sequencer) land(now time.Time) {
	s.holdPosition() // settle before handing over to land mode
	if err := s.vehicle.SetMode(ModeLand); err != nil {
		s.critical(ErrLandModeSwitchFailed, err)
		return
	}
	s.enter(now)
	s.notifier.Notify(SeverityInfo, "Landing")
}

func (s *Sequencer) done() {
	if s.state.Completed && !s.repeatCompletion {
		return
	}
	s.state.Completed = true
	s.notifier.Notify(SeverityInfo, "Mission complete")
}

func (s *Sequencer) holdPosition() {
	s.vehicle.SetVelocity(0, 0, 0)
}

// enter moves to the next phase, it is the only place the phase changes.
func (s *Sequencer) enter(now time.Time) {
	from := s.state.Phase
	next := from.Next()
	s.state.Phase = next
	s.state.PhaseStartedAt = now
	if s.observer != nil {
		s.observer.PhaseChanged(Transition{From: from, To: next, At: now})
	}
}

func (s *Sequencer) critical(kind, cause error) {
	s.notifier.Notify(SeverityCritical, fmt.Errorf("%w: %w", kind, cause).Error())
}
