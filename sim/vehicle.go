// sim package vehicle.go - a point-mass multicopter

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

package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SMerrony/tellomission/mission"
)

// Simulated host failures
var (
	ErrInjected    = errors.New("injected failure")
	ErrNotGuided   = errors.New("vehicle not in guided mode")
	ErrNotArmed    = errors.New("vehicle not armed")
	ErrNoTelemetry = errors.New("no altitude telemetry")
)

// ModeStabilize is the mode the vehicle powers up in.
const ModeStabilize mission.Mode = "stabilize"

// Options describe the vehicle's performance.
type Options struct {
	ClimbRate   float64 // metres/second while executing a climb command
	DescentRate float64 // metres/second in land mode
}

// DefaultOptions returns a sprightly quadcopter.
func DefaultOptions() Options {
	return Options{ClimbRate: 2.5, DescentRate: 1.5}
}

// Faults counts how many upcoming calls of each kind should fail.
type Faults struct {
	FailGuided       int
	FailArm          int
	FailClimb        int
	FailLand         int
	AltitudeDropouts int
}

// Position is relative to the takeoff point, in metres.
type Position struct {
	North, East, Altitude float64
}

// State is a snapshot of the simulated vehicle.
type State struct {
	Mode     mission.Mode
	Armed    bool
	Climbing bool
	Position Position
	Forward  float64
	Lateral  float64
	Vertical float64
}

// Vehicle implements mission.Vehicle with simple kinematics, it faces north throughout.
type Vehicle struct {
	mu          sync.Mutex
	opts        Options
	faults      Faults
	state       State
	climbTarget float64
	calls       []string
}

var _ mission.Vehicle = (*Vehicle)(nil)

// NewVehicle returns a disarmed vehicle on the ground.  Non-positive rates take their defaults.
func NewVehicle(opts Options, faults Faults) *Vehicle {
	def := DefaultOptions()
	if opts.ClimbRate <= 0 {
		opts.ClimbRate = def.ClimbRate
	}
	if opts.DescentRate <= 0 {
		opts.DescentRate = def.DescentRate
	}
	return &Vehicle{
		opts:   opts,
		faults: faults,
		state:  State{Mode: ModeStabilize},
	}
}

// SetMode switches flight mode.
func (v *Vehicle) SetMode(mode mission.Mode) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("mode:" + string(mode))
	switch mode {
	case mission.ModeGuided:
		if consume(&v.faults.FailGuided) {
			return fmt.Errorf("%w: guided", ErrInjected)
		}
	case mission.ModeLand:
		if consume(&v.faults.FailLand) {
			return fmt.Errorf("%w: land", ErrInjected)
		}
		v.state.Climbing = false
	}
	v.state.Mode = mode
	return nil
}

// Arm arms the motors, only in guided mode.
func (v *Vehicle) Arm() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("arm")
	if v.state.Mode != mission.ModeGuided {
		return ErrNotGuided
	}
	if consume(&v.faults.FailArm) {
		return fmt.Errorf("%w: arm", ErrInjected)
	}
	v.state.Armed = true
	return nil
}

// StartClimb begins a climb to altitude at ClimbRate.
func (v *Vehicle) StartClimb(altitude float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record(fmt.Sprintf("climb:%g", altitude))
	if !v.state.Armed {
		return ErrNotArmed
	}
	if consume(&v.faults.FailClimb) {
		return fmt.Errorf("%w: climb", ErrInjected)
	}
	v.climbTarget = altitude
	v.state.Climbing = true
	return nil
}

// SetVelocity replaces any climb in progress with the given velocity setpoint.
func (v *Vehicle) SetVelocity(forward, lateral, vertical float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record(fmt.Sprintf("vel:%g,%g,%g", forward, lateral, vertical))
	v.state.Climbing = false
	v.state.Forward = forward
	v.state.Lateral = lateral
	v.state.Vertical = vertical
}

// Altitude returns the height above the takeoff point.
func (v *Vehicle) Altitude() (float64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("alt")
	if consume(&v.faults.AltitudeDropouts) {
		return 0, ErrNoTelemetry
	}
	return v.state.Position.Altitude, nil
}

// Step advances the physics by dt.
func (v *Vehicle) Step(dt time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.state.Armed {
		return
	}
	secs := dt.Seconds()
	pos := &v.state.Position

	switch {
	case v.state.Mode == mission.ModeLand:
		pos.Altitude -= v.opts.DescentRate * secs
		if pos.Altitude <= 0 {
			pos.Altitude = 0
			v.state.Armed = false // auto-disarm on touchdown
		}
		return
	case v.state.Climbing:
		pos.Altitude += v.opts.ClimbRate * secs
		if pos.Altitude >= v.climbTarget {
			pos.Altitude = v.climbTarget
			v.state.Climbing = false
		}
	default:
		pos.Altitude += v.state.Vertical * secs
		if pos.Altitude < 0 {
			pos.Altitude = 0
		}
	}
	pos.North += v.state.Forward * secs
	pos.East += v.state.Lateral * secs
}

// State returns a snapshot of the vehicle.
func (v *Vehicle) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Calls returns the host calls made so far, eg. "arm" or "vel:16,0,0".
func (v *Vehicle) Calls() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.calls...)
}

func (v *Vehicle) record(call string) {
	v.calls = append(v.calls, call)
}

func consume(n *int) bool {
	if *n > 0 {
		*n--
		return true
	}
	return false
}
