// config package config.go - layered tellomission configuration

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

// Package config loads tellomission settings from defaults, an optional YAML file,
// TELLOMISSION_ environment variables and command-line flags, in rising priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SMerrony/tellomission/mission"
	"github.com/SMerrony/tellomission/sim"
	"github.com/SMerrony/tellomission/tello"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to environment overrides, eg. TELLOMISSION_MISSION_TARGET_ALTITUDE
const EnvPrefix = "TELLOMISSION"

// Config is the complete tellomission configuration
type Config struct {
	Mission   MissionConfig   `mapstructure:"mission" yaml:"mission"`
	Tello     TelloConfig     `mapstructure:"tello" yaml:"tello"`
	Sim       SimConfig       `mapstructure:"sim" yaml:"sim"`
	Autopilot AutopilotConfig `mapstructure:"autopilot" yaml:"autopilot"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	FlightLog FlightLogConfig `mapstructure:"flight_log" yaml:"flight_log"`
}

// MissionConfig holds the mission profile
type MissionConfig struct {
	// TargetAltitude is the climb target in metres
	TargetAltitude float64 `mapstructure:"target_altitude" yaml:"target_altitude"`
	// CruiseSpeed is the forward speed in m/s
	CruiseSpeed float64 `mapstructure:"cruise_speed" yaml:"cruise_speed"`
	// HoverMs is how long to hover before cruising (in milliseconds)
	HoverMs int `mapstructure:"hover_ms" yaml:"hover_ms"`
	// CruiseMs is how long to cruise before landing (in milliseconds)
	CruiseMs int `mapstructure:"cruise_ms" yaml:"cruise_ms"`
	// AltitudeTolerance is how far below the target still counts as reached, in metres
	AltitudeTolerance float64 `mapstructure:"altitude_tolerance" yaml:"altitude_tolerance"`
	// CadenceMs is the minimum time between evaluated ticks (in milliseconds)
	CadenceMs int `mapstructure:"cadence_ms" yaml:"cadence_ms"`
	// RepeatCompletion re-sends "Mission complete" on every tick once done
	RepeatCompletion bool `mapstructure:"repeat_completion" yaml:"repeat_completion"`
}

// TelloConfig controls the connection to a real drone
type TelloConfig struct {
	Address     string `mapstructure:"address" yaml:"address"`
	ControlPort int    `mapstructure:"control_port" yaml:"control_port"`
	LocalPort   int    `mapstructure:"local_port" yaml:"local_port"`
	// MaxSpeed is the speed in m/s that a full stick deflection is taken to give
	MaxSpeed float64 `mapstructure:"max_speed" yaml:"max_speed"`
	// ClimbStick is the throttle fraction held while climbing to altitude (0-1]
	ClimbStick float64 `mapstructure:"climb_stick" yaml:"climb_stick"`
}

// SimConfig controls the simulated vehicle
type SimConfig struct {
	ClimbRate   float64 `mapstructure:"climb_rate" yaml:"climb_rate"`
	DescentRate float64 `mapstructure:"descent_rate" yaml:"descent_rate"`
	// LoopMs is the virtual time step of the simulation (in milliseconds)
	LoopMs int `mapstructure:"loop_ms" yaml:"loop_ms"`
	// TimeLimitSeconds bounds a simulated mission in virtual time
	TimeLimitSeconds int `mapstructure:"time_limit_seconds" yaml:"time_limit_seconds"`
}

// AutopilotConfig controls the loop ticking a real mission
type AutopilotConfig struct {
	PeriodMs int `mapstructure:"period_ms" yaml:"period_ms"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// FlightLogConfig controls the SQLite flight recorder
type FlightLogConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// Default returns the built-in configuration
func Default() *Config {
	mc := mission.DefaultConfig()
	so := sim.DefaultOptions()
	vo := tello.DefaultVehicleOptions()
	return &Config{
		Mission: MissionConfig{
			TargetAltitude:    mc.TargetAltitude,
			CruiseSpeed:       mc.CruiseSpeed,
			HoverMs:           int(mc.HoverDuration.Milliseconds()),
			CruiseMs:          int(mc.CruiseDuration.Milliseconds()),
			AltitudeTolerance: mc.AltitudeTolerance,
			CadenceMs:         int(mc.Cadence.Milliseconds()),
		},
		Tello: TelloConfig{
			Address:     tello.DefaultTelloAddr,
			ControlPort: tello.DefaultTelloControlPort,
			LocalPort:   tello.DefaultLocalControlPort,
			MaxSpeed:    vo.MaxSpeed,
			ClimbStick:  vo.ClimbStick,
		},
		Sim: SimConfig{
			ClimbRate:        so.ClimbRate,
			DescentRate:      so.DescentRate,
			LoopMs:           10,
			TimeLimitSeconds: 120,
		},
		Autopilot: AutopilotConfig{PeriodMs: 25},
		Logging:   LoggingConfig{Level: "info", Format: "console"},
		FlightLog: FlightLogConfig{Enabled: false, Path: "tellomission.db"},
	}
}

// SetDefaults registers every default with v
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("mission.target_altitude", d.Mission.TargetAltitude)
	v.SetDefault("mission.cruise_speed", d.Mission.CruiseSpeed)
	v.SetDefault("mission.hover_ms", d.Mission.HoverMs)
	v.SetDefault("mission.cruise_ms", d.Mission.CruiseMs)
	v.SetDefault("mission.altitude_tolerance", d.Mission.AltitudeTolerance)
	v.SetDefault("mission.cadence_ms", d.Mission.CadenceMs)
	v.SetDefault("mission.repeat_completion", d.Mission.RepeatCompletion)

	v.SetDefault("tello.address", d.Tello.Address)
	v.SetDefault("tello.control_port", d.Tello.ControlPort)
	v.SetDefault("tello.local_port", d.Tello.LocalPort)
	v.SetDefault("tello.max_speed", d.Tello.MaxSpeed)
	v.SetDefault("tello.climb_stick", d.Tello.ClimbStick)

	v.SetDefault("sim.climb_rate", d.Sim.ClimbRate)
	v.SetDefault("sim.descent_rate", d.Sim.DescentRate)
	v.SetDefault("sim.loop_ms", d.Sim.LoopMs)
	v.SetDefault("sim.time_limit_seconds", d.Sim.TimeLimitSeconds)

	v.SetDefault("autopilot.period_ms", d.Autopilot.PeriodMs)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("flight_log.enabled", d.FlightLog.Enabled)
	v.SetDefault("flight_log.path", d.FlightLog.Path)
}

// NewViper returns a viper instance with defaults, environment overrides and,
// if path is not empty, the YAML file at path.  Callers may bind flags to it
// before calling FromViper.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return v, nil
}

// FromViper unmarshals and validates the configuration held by v
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// Load reads the configuration, see NewViper
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// HoverDuration returns the hover time as a time.Duration
func (c *MissionConfig) HoverDuration() time.Duration {
	return time.Duration(c.HoverMs) * time.Millisecond
}

// CruiseDuration returns the cruise time as a time.Duration
func (c *MissionConfig) CruiseDuration() time.Duration {
	return time.Duration(c.CruiseMs) * time.Millisecond
}

// Cadence returns the tick cadence as a time.Duration
func (c *MissionConfig) Cadence() time.Duration {
	return time.Duration(c.CadenceMs) * time.Millisecond
}

// Loop returns the simulation step as a time.Duration
func (c *SimConfig) Loop() time.Duration {
	return time.Duration(c.LoopMs) * time.Millisecond
}

// TimeLimit returns the simulation bound as a time.Duration
func (c *SimConfig) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSeconds) * time.Second
}

// Period returns the autopilot loop period as a time.Duration
func (c *AutopilotConfig) Period() time.Duration {
	return time.Duration(c.PeriodMs) * time.Millisecond
}

// MissionConfig converts the mission section for mission.New
func (c *Config) MissionConfig() mission.Config {
	return mission.Config{
		TargetAltitude:    c.Mission.TargetAltitude,
		CruiseSpeed:       c.Mission.CruiseSpeed,
		HoverDuration:     c.Mission.HoverDuration(),
		CruiseDuration:    c.Mission.CruiseDuration(),
		AltitudeTolerance: c.Mission.AltitudeTolerance,
		Cadence:           c.Mission.Cadence(),
	}
}

// VehicleOptions converts the tello section for tello.NewVehicle
func (c *Config) VehicleOptions() tello.VehicleOptions {
	return tello.VehicleOptions{MaxSpeed: c.Tello.MaxSpeed, ClimbStick: c.Tello.ClimbStick}
}

// SimOptions converts the sim section for sim.NewVehicle
func (c *Config) SimOptions() sim.Options {
	return sim.Options{ClimbRate: c.Sim.ClimbRate, DescentRate: c.Sim.DescentRate}
}

// IsValidationError reports whether err came from Validate
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}
