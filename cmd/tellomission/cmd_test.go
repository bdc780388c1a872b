// tellomission cmd_test.go

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
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/SMerrony/tellomission/flightlog"
	"github.com/SMerrony/tellomission/mission"
	"github.com/SMerrony/tellomission/sim"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSimulate(t *testing.T) {
	out, logs, err := execute(t, "simulate", "--log-format", "json")
	require.NoError(t, err)

	for _, p := range []mission.Phase{mission.PhaseClimbWait, mission.PhaseHover, mission.PhaseCruise, mission.PhaseLand, mission.PhaseDone} {
		assert.Contains(t, out, p.String())
	}
	assert.Contains(t, out, "phase done after")
	assert.Contains(t, out, "mode land")
	assert.Contains(t, logs, `"message":"Mission complete"`)
}

func TestSimulateRecordsFaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flights.db")
	out, _, err := execute(t, "simulate", "--log-level", "error",
		"--record", "--flight-log", path, "--fail-arm", "2", "--altitude", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "flight log mission")

	fl, err := flightlog.Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer fl.Close()

	ctx := context.Background()
	missions, err := fl.Missions(ctx)
	require.NoError(t, err)
	require.Len(t, missions, 1)
	assert.Equal(t, "completed", missions[0].Outcome)
	assert.Equal(t, 8.0, missions[0].Config.TargetAltitude)

	events, err := fl.Events(ctx, missions[0].ID)
	require.NoError(t, err)
	require.Len(t, events, 8)
	assert.Equal(t, mission.SeverityCritical, events[0].Severity)
	assert.Contains(t, events[0].Message, sim.ErrInjected.Error())
	assert.Equal(t, "Taking off, climbing to 8.0m", events[2].Message)
}

func TestSimulateTimeLimit(t *testing.T) {
	t.Setenv("TELLOMISSION_SIM_TIME_LIMIT_SECONDS", "3")
	out, _, err := execute(t, "simulate", "--log-level", "error")
	require.ErrorIs(t, err, sim.ErrTimeLimit)
	assert.Contains(t, out, "phase climb-wait")
}

func TestConfigShow(t *testing.T) {
	out, _, err := execute(t, "config", "show", "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, out, "target_altitude: 20")
	assert.Contains(t, out, "level: debug")

	out, _, err = execute(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, "no config file")
}

func TestInvalidSettings(t *testing.T) {
	_, _, err := execute(t, "config", "show", "--log-format", "xml")
	assert.ErrorContains(t, err, "logging.format")

	_, _, err = execute(t, "simulate", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
