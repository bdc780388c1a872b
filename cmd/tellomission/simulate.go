// tellomission simulate.go - fly the mission in virtual time

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
	"fmt"
	"io"
	"time"

	"github.com/SMerrony/tellomission/mission"
	"github.com/SMerrony/tellomission/sim"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newSimulateCmd(a *app) *cobra.Command {
	var faults sim.Faults
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Fly the mission against a simulated vehicle",
		Long: `Fly the mission in virtual time against a simulated quadcopter and print
a timeline of its phases.

Faults can be injected to watch the mission retry, eg.
  tellomission simulate --fail-arm 3 --altitude-dropouts 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.simulate(cmd, faults)
		},
	}
	addMissionFlags(cmd)
	cmd.Flags().IntVar(&faults.FailGuided, "fail-guided", 0, "fail the next N guided mode switches")
	cmd.Flags().IntVar(&faults.FailArm, "fail-arm", 0, "fail the next N arming attempts")
	cmd.Flags().IntVar(&faults.FailClimb, "fail-climb", 0, "fail the next N climb commands")
	cmd.Flags().IntVar(&faults.FailLand, "fail-land", 0, "fail the next N land mode switches")
	cmd.Flags().IntVar(&faults.AltitudeDropouts, "altitude-dropouts", 0, "lose the next N altitude readings")
	return cmd
}

// timeline collects phase changes for printing.
type timeline struct {
	transitions []mission.Transition
}

func (t *timeline) PhaseChanged(tr mission.Transition) {
	t.transitions = append(t.transitions, tr)
}

func (a *app) simulate(cmd *cobra.Command, faults sim.Faults) error {
	start := time.Now().UTC().Truncate(time.Second)
	clock := sim.NewClock(start)
	vehicle := sim.NewVehicle(a.cfg.SimOptions(), faults)
	tl := &timeline{}

	f, err := a.newFlight(cmd.Context(), vehicle, clock, tl)
	if err != nil {
		return err
	}
	res, err := sim.Fly(f.seq, vehicle, clock, a.cfg.Sim.Loop(), a.cfg.Sim.TimeLimit())
	if err != nil {
		f.finish("timeout")
	} else {
		f.finish("completed")
	}

	out := cmd.OutOrStdout()
	printTimeline(out, start, tl.transitions)
	printResult(out, res, f.seq.Phase())
	if id := f.recordingID(); id != "" {
		fmt.Fprintf(out, "flight log mission %s\n", id)
	}
	return err
}

func printTimeline(w io.Writer, start time.Time, trs []mission.Transition) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("T+", "FROM", "TO")
	for _, tr := range trs {
		t.Row(fmt.Sprintf("%.1fs", tr.At.Sub(start).Seconds()), tr.From.String(), tr.To.String())
	}
	fmt.Fprintln(w, t.String())
}

func printResult(w io.Writer, res sim.Result, phase mission.Phase) {
	pos := res.Final.Position
	fmt.Fprintf(w, "phase %s after %.1fs (%d ticks)\n", phase, res.Elapsed.Seconds(), res.Ticks)
	fmt.Fprintf(w, "position north %.1fm east %.1fm altitude %.1fm, mode %s\n",
		pos.North, pos.East, pos.Altitude, res.Final.Mode)
}
