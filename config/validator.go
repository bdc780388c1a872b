// config package validator.go - configuration checks

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

package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/SMerrony/tellomission/logging"
)

// ValidationError is a single invalid setting
type ValidationError struct {
	Field   string // eg. "tello.control_port"
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid setting
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels lists the accepted logging.level values
func ValidLogLevels() []string {
	return []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}
}

// Validate checks every section and returns all problems found
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	errs = append(errs, c.validateMission()...)
	errs = append(errs, c.validateTello()...)
	errs = append(errs, c.validateSim()...)
	errs = append(errs, c.validateLogging()...)

	if c.Autopilot.PeriodMs <= 0 {
		errs = append(errs, ValidationError{"autopilot.period_ms", c.Autopilot.PeriodMs, "must be positive"})
	}
	if c.FlightLog.Enabled && c.FlightLog.Path == "" {
		errs = append(errs, ValidationError{"flight_log.path", c.FlightLog.Path, "required when the flight log is enabled"})
	}
	return errs
}

func (c *Config) validateMission() ValidationErrors {
	var errs ValidationErrors
	m := c.Mission
	if m.TargetAltitude <= 0 {
		errs = append(errs, ValidationError{"mission.target_altitude", m.TargetAltitude, "must be positive"})
	}
	if m.CruiseSpeed < 0 {
		errs = append(errs, ValidationError{"mission.cruise_speed", m.CruiseSpeed, "must be non-negative"})
	}
	if m.HoverMs < 0 {
		errs = append(errs, ValidationError{"mission.hover_ms", m.HoverMs, "must be non-negative"})
	}
	if m.CruiseMs < 0 {
		errs = append(errs, ValidationError{"mission.cruise_ms", m.CruiseMs, "must be non-negative"})
	}
	if m.AltitudeTolerance < 0 || (m.TargetAltitude > 0 && m.AltitudeTolerance >= m.TargetAltitude) {
		errs = append(errs, ValidationError{"mission.altitude_tolerance", m.AltitudeTolerance,
			"must be non-negative and below the target altitude"})
	}
	if m.CadenceMs < 0 {
		errs = append(errs, ValidationError{"mission.cadence_ms", m.CadenceMs, "must be non-negative"})
	}
	return errs
}

func (c *Config) validateTello() ValidationErrors {
	var errs ValidationErrors
	t := c.Tello
	if t.Address == "" {
		errs = append(errs, ValidationError{"tello.address", t.Address, "must not be empty"})
	}
	if t.ControlPort <= 0 || t.ControlPort > 65535 {
		errs = append(errs, ValidationError{"tello.control_port", t.ControlPort, "must be a valid UDP port"})
	}
	if t.LocalPort < 0 || t.LocalPort > 65535 {
		errs = append(errs, ValidationError{"tello.local_port", t.LocalPort, "must be a valid UDP port, or 0 for any"})
	}
	if t.MaxSpeed <= 0 {
		errs = append(errs, ValidationError{"tello.max_speed", t.MaxSpeed, "must be positive"})
	}
	if t.ClimbStick <= 0 || t.ClimbStick > 1 {
		errs = append(errs, ValidationError{"tello.climb_stick", t.ClimbStick, "must be in (0, 1]"})
	}
	return errs
}

func (c *Config) validateSim() ValidationErrors {
	var errs ValidationErrors
	s := c.Sim
	if s.ClimbRate <= 0 {
		errs = append(errs, ValidationError{"sim.climb_rate", s.ClimbRate, "must be positive"})
	}
	if s.DescentRate <= 0 {
		errs = append(errs, ValidationError{"sim.descent_rate", s.DescentRate, "must be positive"})
	}
	if s.LoopMs <= 0 {
		errs = append(errs, ValidationError{"sim.loop_ms", s.LoopMs, "must be positive"})
	}
	if s.TimeLimitSeconds <= 0 {
		errs = append(errs, ValidationError{"sim.time_limit_seconds", s.TimeLimitSeconds, "must be positive"})
	}
	return errs
}

func (c *Config) validateLogging() ValidationErrors {
	var errs ValidationErrors
	l := c.Logging
	if l.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(l.Level)) {
		errs = append(errs, ValidationError{"logging.level", l.Level,
			"must be one of: " + strings.Join(ValidLogLevels(), ", ")})
	}
	if l.Format != "" && !slices.Contains(logging.ValidFormats(), strings.ToLower(l.Format)) {
		errs = append(errs, ValidationError{"logging.format", l.Format,
			"must be one of: " + strings.Join(logging.ValidFormats(), ", ")})
	}
	return errs
}
