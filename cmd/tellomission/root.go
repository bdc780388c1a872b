// tellomission root.go - root command and shared setup

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

package main

import (
	"context"
	"fmt"

	"github.com/SMerrony/tellomission/config"
	"github.com/SMerrony/tellomission/flightlog"
	"github.com/SMerrony/tellomission/logging"
	"github.com/SMerrony/tellomission/mission"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds the state shared by every subcommand once PersistentPreRunE has run.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	logger  zerolog.Logger
}

// flag name to configuration key, bound when the running command has the flag
var flagKeys = map[string]string{
	"log-level":  "logging.level",
	"log-format": "logging.format",
	"altitude":   "mission.target_altitude",
	"speed":      "mission.cruise_speed",
	"record":     "flight_log.enabled",
	"flight-log": "flight_log.path",
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tellomission",
		Short: "Fly a take-off, hover, cruise and land mission",
		Long: `tellomission runs a fixed mission profile: take off and climb to a target
altitude, hover, cruise forward, then land.

Settings come from built-in defaults, an optional YAML file (--config),
TELLOMISSION_* environment variables (eg. TELLOMISSION_MISSION_TARGET_ALTITUDE)
and flags, in rising priority.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (YAML)")
	root.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn or error")
	root.PersistentFlags().String("log-format", "", "log format: console or json")

	root.AddCommand(newFlyCmd(a), newSimulateCmd(a), newConfigCmd(a))
	return root
}

// addMissionFlags adds the flags shared by the commands which fly a mission.
func addMissionFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("altitude", 0, "target altitude in metres")
	cmd.Flags().Float64("speed", 0, "cruise speed in m/s")
	cmd.Flags().Bool("record", false, "record the mission in the flight log")
	cmd.Flags().String("flight-log", "", "flight log database path")
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	v, err := config.NewViper(a.cfgFile)
	if err != nil {
		return err
	}
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.v, a.cfg, a.logger = v, cfg, logger
	return nil
}

// flight is one mission's sequencer together with its optional flight log recording.
type flight struct {
	seq    *mission.Sequencer
	log    *flightlog.Log
	rec    *flightlog.Recorder
	logger zerolog.Logger
}

// newFlight builds the sequencer for vehicle, notifying the log (and flight log if enabled)
// and passing phase changes to obs.
func (a *app) newFlight(ctx context.Context, vehicle mission.Vehicle, clock mission.Clock, obs ...mission.Observer) (*flight, error) {
	mcfg := a.cfg.MissionConfig()
	f := &flight{logger: a.logger}
	notifiers := mission.MultiNotifier{mission.NewLogNotifier(a.logger)}

	if a.cfg.FlightLog.Enabled {
		fl, err := flightlog.Open(a.cfg.FlightLog.Path, a.logger)
		if err != nil {
			return nil, err
		}
		rec, err := fl.Begin(ctx, mcfg, clock)
		if err != nil {
			fl.Close()
			return nil, err
		}
		f.log, f.rec = fl, rec
		notifiers = append(notifiers, rec)
		obs = append(obs, rec)
		a.logger.Info().Str("mission_id", rec.ID()).Str("path", a.cfg.FlightLog.Path).Msg("recording flight")
	}

	seq, err := mission.New(mcfg, vehicle, clock, notifiers,
		mission.WithObserver(mission.MultiObserver(obs)),
		mission.WithRepeatedCompletion(a.cfg.Mission.RepeatCompletion))
	if err != nil {
		f.finish("invalid")
		return nil, err
	}
	f.seq = seq
	return f, nil
}

// finish closes any flight log recording with outcome.
func (f *flight) finish(outcome string) {
	if f.rec == nil {
		return
	}
	if err := f.rec.Finish(context.Background(), outcome); err != nil {
		f.logger.Error().Err(err).Msg("failed to finish flight log")
	}
	if err := f.log.Close(); err != nil {
		f.logger.Error().Err(err).Msg("failed to close flight log")
	}
	f.rec = nil
}

// recordingID is the flight log mission ID, or empty when not recording.
func (f *flight) recordingID() string {
	if f.rec == nil {
		return ""
	}
	return f.rec.ID()
}
