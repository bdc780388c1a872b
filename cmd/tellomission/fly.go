// tellomission fly.go - fly the mission on a real Tello

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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/SMerrony/tellomission/autopilot"
	"github.com/SMerrony/tellomission/mission"
	"github.com/SMerrony/tellomission/tello"
	"github.com/spf13/cobra"
)

func newFlyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fly",
		Short: "Fly the mission on a Tello",
		Long: `Connect to a Tello over its WiFi access point and fly the mission.

Interrupting (Ctrl-C) aborts the mission: the drone stops and lands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.fly(ctx, cmd)
		},
	}
	addMissionFlags(cmd)
	return cmd
}

func (a *app) fly(ctx context.Context, cmd *cobra.Command) error {
	tc := a.cfg.Tello
	drone := tello.New(a.logger)
	if err := drone.ControlConnect(tc.Address, tc.ControlPort, tc.LocalPort); err != nil {
		return fmt.Errorf("failed to connect to Tello at %s:%d: %w", tc.Address, tc.ControlPort, err)
	}
	defer drone.ControlDisconnect()

	vehicle := tello.NewVehicle(drone, a.cfg.VehicleOptions(), a.logger)
	f, err := a.newFlight(ctx, vehicle, mission.SystemClock{})
	if err != nil {
		return err
	}

	ap := autopilot.New(f.seq, autopilot.Options{Period: a.cfg.Autopilot.Period(), Aborter: vehicle}, a.logger)
	err = ap.Run(ctx)
	switch {
	case err == nil:
		f.finish("completed")
		fmt.Fprintln(cmd.OutOrStdout(), "mission complete")
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		f.finish("aborted")
		return fmt.Errorf("mission aborted in %s phase, landing", f.seq.Phase())
	default:
		f.finish("failed")
		return err
	}
}
