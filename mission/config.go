// mission package config.go - fixed mission parameters

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

// Defaults for the standard sortie
const (
	DefaultTargetAltitude    = 20.0 // metres above the takeoff point
	DefaultCruiseSpeed       = 16.0 // metres/second
	DefaultHoverDuration     = 5000 * time.Millisecond
	DefaultCruiseDuration    = 6000 * time.Millisecond
	DefaultAltitudeTolerance = 0.5 // metres
	DefaultCadence           = 200 * time.Millisecond
)

// Config holds the mission parameters.  It is copied into the Sequencer at construction
// and never changes afterwards.
type Config struct {
	TargetAltitude    float64       // climb target in metres above the takeoff point
	CruiseSpeed       float64       // forward speed during Cruise in metres/second
	HoverDuration     time.Duration // time to hold position before cruising
	CruiseDuration    time.Duration // time to spend cruising before landing
	AltitudeTolerance float64       // the target is reached at TargetAltitude-AltitudeTolerance
	Cadence           time.Duration // minimum interval between evaluated ticks
}

// DefaultConfig returns the standard sortie: 20m, hover 5s, cruise 6s at 16m/s.
func DefaultConfig() Config {
	return Config{
		TargetAltitude:    DefaultTargetAltitude,
		CruiseSpeed:       DefaultCruiseSpeed,
		HoverDuration:     DefaultHoverDuration,
		CruiseDuration:    DefaultCruiseDuration,
		AltitudeTolerance: DefaultAltitudeTolerance,
		Cadence:           DefaultCadence,
	}
}

// Validate checks that the parameters describe a flyable mission.
func (c Config) Validate() error {
	switch {
	case c.TargetAltitude <= 0:
		return fmt.Errorf("%w: target altitude must be positive, got %g", ErrInvalidConfig, c.TargetAltitude)
	case c.CruiseSpeed < 0:
		return fmt.Errorf("%w: cruise speed must not be negative, got %g", ErrInvalidConfig, c.CruiseSpeed)
	case c.HoverDuration < 0:
		return fmt.Errorf("%w: hover duration must not be negative, got %v", ErrInvalidConfig, c.HoverDuration)
	case c.CruiseDuration < 0:
		return fmt.Errorf("%w: cruise duration must not be negative, got %v", ErrInvalidConfig, c.CruiseDuration)
	case c.AltitudeTolerance < 0:
		return fmt.Errorf("%w: altitude tolerance must not be negative, got %g", ErrInvalidConfig, c.AltitudeTolerance)
	case c.AltitudeTolerance >= c.TargetAltitude:
		return fmt.Errorf("%w: altitude tolerance %g must be less than target altitude %g",
			ErrInvalidConfig, c.AltitudeTolerance, c.TargetAltitude)
	case c.Cadence < 0:
		return fmt.Errorf("%w: cadence must not be negative, got %v", ErrInvalidConfig, c.Cadence)
	}
	return nil
}

// reachedAltitude is the single-sided 'target reached' check, no hysteresis.
func (c Config) reachedAltitude(alt float64) bool {
	return alt >= c.TargetAltitude-c.AltitudeTolerance
}
