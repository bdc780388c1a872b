// tello package vehicle.go - lets a mission.Sequencer fly a Tello

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

package tello

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/SMerrony/tellomission/mission"
	"github.com/rs/zerolog"
)

// Vehicle adapter errors
var (
	ErrUnsupportedMode = errors.New("flight mode not supported by Tello")
	ErrNoFlightData    = errors.New("no flight data received from Tello yet")
	ErrBatteryCritical = errors.New("Tello battery critical")
	ErrNotArmed        = errors.New("Tello not armed")
)

const (
	maxStick       = 32767
	maxHeightLimit = 100 // metres
)

// Drone is the part of *Tello the Vehicle uses.
type Drone interface {
	ControlConnected() bool
	FlightDataReceived() bool
	GetFlightData() FlightData
	TakeOff() error
	Land() error
	SetHeightLimit(metres uint16) error
	UpdateSticks(sm StickMessage)
	Hover()
}

// VehicleOptions tune the mapping from mission setpoints to stick positions.
type VehicleOptions struct {
	MaxSpeed   float64 // metres/second at full stick deflection
	ClimbStick float64 // fraction of full throttle held while climbing, 0 < ClimbStick <= 1
}

// DefaultVehicleOptions suit a Tello in normal (not 'sports') mode.
func DefaultVehicleOptions() VehicleOptions {
	return VehicleOptions{MaxSpeed: 8, ClimbStick: 0.5}
}

// Vehicle implements mission.Vehicle on top of a Tello.
// The Tello has no flight modes, guided mode simply means we hold the control connection,
// and it arms as part of taking off.
type Vehicle struct {
	drone  Drone
	opts   VehicleOptions
	logger zerolog.Logger

	mu    sync.Mutex
	armed bool
}

var _ mission.Vehicle = (*Vehicle)(nil)

// NewVehicle wraps drone, zero option values take their defaults.
func NewVehicle(drone Drone, opts VehicleOptions, logger zerolog.Logger) *Vehicle {
	def := DefaultVehicleOptions()
	if opts.MaxSpeed <= 0 {
		opts.MaxSpeed = def.MaxSpeed
	}
	if opts.ClimbStick <= 0 || opts.ClimbStick > 1 {
		opts.ClimbStick = def.ClimbStick
	}
	return &Vehicle{
		drone:  drone,
		opts:   opts,
		logger: logger.With().Str("component", "tello-vehicle").Logger(),
	}
}

// SetMode accepts guided (needs a live connection) and land.
func (v *Vehicle) SetMode(mode mission.Mode) error {
	switch mode {
	case mission.ModeGuided:
		if !v.drone.ControlConnected() {
			return ErrNotConnected
		}
		return nil
	case mission.ModeLand:
		if err := v.drone.Land(); err != nil {
			return err
		}
		v.mu.Lock()
		v.armed = false
		v.mu.Unlock()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
}

// Arm runs the pre-flight checks the Tello would otherwise do silently on takeoff.
func (v *Vehicle) Arm() error {
	if !v.drone.ControlConnected() {
		return ErrNotConnected
	}
	if !v.drone.FlightDataReceived() {
		return ErrNoFlightData
	}
	if v.drone.GetFlightData().BatteryCritical {
		return ErrBatteryCritical
	}
	v.mu.Lock()
	v.armed = true
	v.mu.Unlock()
	return nil
}

// StartClimb limits the height to just above altitude, takes off and holds a climb.
func (v *Vehicle) StartClimb(altitude float64) error {
	v.mu.Lock()
	armed := v.armed
	v.mu.Unlock()
	if !armed {
		return ErrNotArmed
	}
	limit := math.Min(math.Ceil(altitude)+1, maxHeightLimit)
	if err := v.drone.SetHeightLimit(uint16(limit)); err != nil {
		return fmt.Errorf("setting height limit: %w", err)
	}
	if err := v.drone.TakeOff(); err != nil {
		return fmt.Errorf("takeoff: %w", err)
	}
	v.drone.UpdateSticks(StickMessage{Ly: int16(v.opts.ClimbStick * maxStick)})
	v.logger.Debug().Float64("target", altitude).Float64("limit", limit).Msg("climb started")
	return nil
}

// SetVelocity moves the sticks in proportion to the requested speeds.
// Right stick Y is forward, right stick X is lateral and left stick Y is vertical.
func (v *Vehicle) SetVelocity(forward, lateral, vertical float64) {
	if forward == 0 && lateral == 0 && vertical == 0 {
		v.drone.Hover()
		return
	}
	v.drone.UpdateSticks(StickMessage{
		Ry: v.speedToStick(forward),
		Rx: v.speedToStick(lateral),
		Ly: v.speedToStick(vertical),
	})
}

// Altitude reports the latest height from the flight status in metres.
func (v *Vehicle) Altitude() (float64, error) {
	if !v.drone.FlightDataReceived() {
		return 0, ErrNoFlightData
	}
	return v.drone.GetFlightData().HeightMetres(), nil
}

func (v *Vehicle) speedToStick(speed float64) int16 {
	s := speed / v.opts.MaxSpeed * maxStick
	switch {
	case s > maxStick:
		s = maxStick
	case s < -maxStick:
		s = -maxStick
	}
	return int16(math.Round(s))
}
