// mission package sequencer_test.go

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

package mission_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SMerrony/tellomission/mission"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2018, 4, 1, 12, 0, 0, 0, time.UTC)

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) at(ms int64) { c.now = epoch.Add(time.Duration(ms) * time.Millisecond) }

// recordingVehicle stands in for the host and records every call made to it.
type recordingVehicle struct {
	guidedErr, armErr, climbErr, landErr, altErr error
	altitude                                      float64
	calls                                         []string
}

func (v *recordingVehicle) SetMode(m mission.Mode) error {
	v.calls = append(v.calls, "mode:"+string(m))
	if m == mission.ModeLand {
		return v.landErr
	}
	return v.guidedErr
}

func (v *recordingVehicle) Arm() error {
	v.calls = append(v.calls, "arm")
	return v.armErr
}

func (v *recordingVehicle) StartClimb(alt float64) error {
	v.calls = append(v.calls, fmt.Sprintf("climb:%g", alt))
	return v.climbErr
}

func (v *recordingVehicle) SetVelocity(f, l, u float64) {
	v.calls = append(v.calls, fmt.Sprintf("vel:%g,%g,%g", f, l, u))
}

func (v *recordingVehicle) Altitude() (float64, error) {
	v.calls = append(v.calls, "alt")
	return v.altitude, v.altErr
}

func (v *recordingVehicle) reset() { v.calls = nil }

type note struct {
	sev mission.Severity
	msg string
}

type recordingNotifier struct{ notes []note }

func (n *recordingNotifier) Notify(sev mission.Severity, msg string) {
	n.notes = append(n.notes, note{sev, msg})
}

func (n *recordingNotifier) count(sev mission.Severity) (c int) {
	for _, nt := range n.notes {
		if nt.sev == sev {
			c++
		}
	}
	return c
}

type transitions []mission.Transition

func (t *transitions) PhaseChanged(tr mission.Transition) { *t = append(*t, tr) }

func exampleConfig() mission.Config {
	return mission.Config{
		TargetAltitude:    20,
		CruiseSpeed:       16,
		HoverDuration:     5000 * time.Millisecond,
		CruiseDuration:    6000 * time.Millisecond,
		AltitudeTolerance: 0.5,
		Cadence:           200 * time.Millisecond,
	}
}

type fixture struct {
	clock    *manualClock
	vehicle  *recordingVehicle
	notifier *recordingNotifier
	trans    *transitions
	seq      *mission.Sequencer
}

func newFixture(t *testing.T, opts ...mission.Option) *fixture {
	t.Helper()
	f := &fixture{
		clock:    &manualClock{},
		vehicle:  &recordingVehicle{},
		notifier: &recordingNotifier{},
		trans:    &transitions{},
	}
	f.clock.at(0)
	opts = append(opts, mission.WithObserver(f.trans))
	seq, err := mission.New(exampleConfig(), f.vehicle, f.clock, f.notifier, opts...)
	require.NoError(t, err)
	f.seq = seq
	return f
}

func (f *fixture) tickAt(ms int64) bool {
	f.clock.at(ms)
	return f.seq.Tick()
}

func ms(n int64) time.Time { return epoch.Add(time.Duration(n) * time.Millisecond) }

// hovering drives a fresh fixture into Hover, entered at enteredAt.
func hovering(t *testing.T, enteredAt int64) *fixture {
	t.Helper()
	f := newFixture(t)
	f.tickAt(0)
	f.vehicle.altitude = 20
	f.tickAt(enteredAt)
	require.Equal(t, mission.PhaseHover, f.seq.Phase())
	return f
}

func TestNewInitialState(t *testing.T) {
	f := newFixture(t)
	st := f.seq.State()
	assert.Equal(t, mission.PhaseTakeoff, st.Phase)
	assert.Equal(t, ms(0), st.PhaseStartedAt)
	assert.Equal(t, ms(0), st.LastTickAt)
	assert.False(t, f.seq.Done())
	assert.Empty(t, f.vehicle.calls)
}

func TestNewRejectsBadArguments(t *testing.T) {
	clock := &manualClock{}
	v := &recordingVehicle{}

	_, err := mission.New(exampleConfig(), nil, clock, nil)
	assert.ErrorIs(t, err, mission.ErrNilVehicle)

	_, err = mission.New(exampleConfig(), v, nil, nil)
	assert.ErrorIs(t, err, mission.ErrNilClock)

	bad := exampleConfig()
	bad.AltitudeTolerance = 25
	_, err = mission.New(bad, v, clock, nil)
	assert.ErrorIs(t, err, mission.ErrInvalidConfig)

	seq, err := mission.New(exampleConfig(), v, clock, nil)
	require.NoError(t, err)
	assert.True(t, seq.Tick(), "nil notifier must be tolerated")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*mission.Config)
		ok     bool
	}{
		{"defaults", func(*mission.Config) {}, true},
		{"zero altitude", func(c *mission.Config) { c.TargetAltitude = 0 }, false},
		{"negative speed", func(c *mission.Config) { c.CruiseSpeed = -1 }, false},
		{"negative hover", func(c *mission.Config) { c.HoverDuration = -time.Second }, false},
		{"negative cruise", func(c *mission.Config) { c.CruiseDuration = -time.Second }, false},
		{"negative tolerance", func(c *mission.Config) { c.AltitudeTolerance = -0.1 }, false},
		{"tolerance swallows target", func(c *mission.Config) { c.AltitudeTolerance = c.TargetAltitude }, false},
		{"negative cadence", func(c *mission.Config) { c.Cadence = -time.Millisecond }, false},
		{"zero cadence", func(c *mission.Config) { c.Cadence = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mission.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, mission.ErrInvalidConfig)
			}
		})
	}
}

func TestCadenceGate(t *testing.T) {
	f := newFixture(t)
	f.vehicle.armErr = errors.New("battery low")

	require.True(t, f.tickAt(0), "first tick is always evaluated")
	before := f.seq.State()
	calls := len(f.vehicle.calls)

	for _, at := range []int64{1, 100, 199} {
		assert.False(t, f.tickAt(at), "tick at %dms", at)
		assert.Equal(t, before, f.seq.State())
		assert.Len(t, f.vehicle.calls, calls)
	}

	assert.True(t, f.tickAt(200), "a tick exactly one cadence later proceeds")
	assert.Equal(t, ms(200), f.seq.State().LastTickAt)
	assert.Equal(t, 2, f.notifier.count(mission.SeverityCritical))

	assert.False(t, f.tickAt(399))
	assert.True(t, f.tickAt(400))
}

func TestCadenceIndependentOfPhaseTimer(t *testing.T) {
	f := newFixture(t)
	f.tickAt(0)
	f.vehicle.altitude = 20
	f.tickAt(1000)
	st := f.seq.State()
	assert.Equal(t, ms(1000), st.PhaseStartedAt)
	assert.Equal(t, ms(1000), st.LastTickAt)

	f.tickAt(1200)
	st = f.seq.State()
	assert.Equal(t, ms(1000), st.PhaseStartedAt, "phase start is only set on entry")
	assert.Equal(t, ms(1200), st.LastTickAt)
}

func TestExampleRun(t *testing.T) {
	f := newFixture(t)

	f.tickAt(0)
	assert.Equal(t, mission.PhaseClimbWait, f.seq.Phase())
	assert.Equal(t, ms(0), f.seq.State().PhaseStartedAt)
	assert.Equal(t, []string{"mode:guided", "arm", "climb:20"}, f.vehicle.calls)

	for i, alt := range []float64{2, 10, 19.4} {
		f.vehicle.altitude = alt
		f.tickAt(int64(200 * (i + 1)))
		assert.Equal(t, mission.PhaseClimbWait, f.seq.Phase())
	}

	f.vehicle.reset()
	f.vehicle.altitude = 19.6
	f.tickAt(1000)
	assert.Equal(t, mission.PhaseHover, f.seq.Phase())
	assert.Equal(t, ms(1000), f.seq.State().PhaseStartedAt)
	assert.Equal(t, []string{"alt", "vel:0,0,0"}, f.vehicle.calls)

	for _, at := range []int64{1200, 3000, 5801} {
		f.tickAt(at)
		assert.Equal(t, mission.PhaseHover, f.seq.Phase(), "at %dms", at)
	}
	f.tickAt(6001)
	assert.Equal(t, mission.PhaseCruise, f.seq.Phase())
	assert.Equal(t, ms(6001), f.seq.State().PhaseStartedAt)

	f.vehicle.reset()
	for _, at := range []int64{6201, 9000, 11802} {
		f.tickAt(at)
		assert.Equal(t, mission.PhaseCruise, f.seq.Phase(), "at %dms", at)
	}
	assert.Equal(t, []string{"vel:16,0,0", "vel:16,0,0", "vel:16,0,0"}, f.vehicle.calls)

	f.tickAt(12002)
	assert.Equal(t, mission.PhaseLand, f.seq.Phase())
	assert.Equal(t, ms(12002), f.seq.State().PhaseStartedAt)

	f.vehicle.reset()
	f.tickAt(12202)
	assert.Equal(t, mission.PhaseDone, f.seq.Phase())
	assert.Equal(t, []string{"vel:0,0,0", "mode:land"}, f.vehicle.calls)
	assert.False(t, f.seq.Done(), "completion not yet reported")

	f.tickAt(12402)
	assert.True(t, f.seq.Done())

	want := []mission.Transition{
		{From: mission.PhaseTakeoff, To: mission.PhaseClimbWait, At: ms(0)},
		{From: mission.PhaseClimbWait, To: mission.PhaseHover, At: ms(1000)},
		{From: mission.PhaseHover, To: mission.PhaseCruise, At: ms(6001)},
		{From: mission.PhaseCruise, To: mission.PhaseLand, At: ms(12002)},
		{From: mission.PhaseLand, To: mission.PhaseDone, At: ms(12202)},
	}
	assert.Equal(t, want, []mission.Transition(*f.trans))
	assert.Zero(t, f.notifier.count(mission.SeverityCritical))
	assert.Equal(t, 6, f.notifier.count(mission.SeverityInfo))
}

func TestClimbWaitAltitudeBoundary(t *testing.T) {
	tests := []struct {
		alt  float64
		want mission.Phase
	}{
		{19.5, mission.PhaseHover},
		{19.5 - 1e-9, mission.PhaseClimbWait},
		{25, mission.PhaseHover},
		{0, mission.PhaseClimbWait},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.alt), func(t *testing.T) {
			f := newFixture(t)
			f.tickAt(0)
			f.vehicle.altitude = tt.alt
			f.tickAt(200)
			assert.Equal(t, tt.want, f.seq.Phase())
		})
	}
}

func TestHoverDurationBoundary(t *testing.T) {
	f := hovering(t, 1000)
	f.tickAt(6000)
	assert.Equal(t, mission.PhaseHover, f.seq.Phase(), "elapsed == hover duration")

	f = hovering(t, 1000)
	f.tickAt(6001)
	assert.Equal(t, mission.PhaseCruise, f.seq.Phase(), "elapsed == hover duration + 1ms")
}

func TestCruiseDurationBoundary(t *testing.T) {
	cruising := func() *fixture {
		f := hovering(t, 1000)
		f.tickAt(6001)
		require.Equal(t, mission.PhaseCruise, f.seq.Phase())
		return f
	}
	f := cruising()
	f.tickAt(12001)
	assert.Equal(t, mission.PhaseCruise, f.seq.Phase())

	f = cruising()
	f.tickAt(12002)
	assert.Equal(t, mission.PhaseLand, f.seq.Phase())
}

func TestHoverReissuesHoldEveryDueTick(t *testing.T) {
	f := hovering(t, 1000)
	f.vehicle.reset()
	f.tickAt(1100) // gated
	f.tickAt(1200)
	f.tickAt(1400)
	assert.Equal(t, []string{"vel:0,0,0", "vel:0,0,0"}, f.vehicle.calls)
}

func TestTakeoffStepFailures(t *testing.T) {
	cause := errors.New("host said no")
	tests := []struct {
		name      string
		setup     func(*recordingVehicle)
		wantErr   error
		wantCalls []string
	}{
		{"guided", func(v *recordingVehicle) { v.guidedErr = cause }, mission.ErrModeSwitchFailed,
			[]string{"mode:guided"}},
		{"arm", func(v *recordingVehicle) { v.armErr = cause }, mission.ErrArmFailed,
			[]string{"mode:guided", "arm"}},
		{"climb", func(v *recordingVehicle) { v.climbErr = cause }, mission.ErrClimbStartFailed,
			[]string{"mode:guided", "arm", "climb:20"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f.vehicle)
			f.tickAt(0)
			assert.Equal(t, mission.PhaseTakeoff, f.seq.Phase())
			assert.Equal(t, tt.wantCalls, f.vehicle.calls)
			require.Len(t, f.notifier.notes, 1)
			n := f.notifier.notes[0]
			assert.Equal(t, mission.SeverityCritical, n.sev)
			assert.Contains(t, n.msg, tt.wantErr.Error())
			assert.Contains(t, n.msg, cause.Error())
			assert.Empty(t, *f.trans)
		})
	}
}

func TestTakeoffRetriesIndefinitely(t *testing.T) {
	f := newFixture(t)
	f.vehicle.armErr = errors.New("pre-arm check failed")

	const due = 250
	for i := int64(0); i < due; i++ {
		f.tickAt(i * 200)
		f.tickAt(i*200 + 50) // not due
	}
	assert.Equal(t, mission.PhaseTakeoff, f.seq.Phase())
	assert.Equal(t, due, f.notifier.count(mission.SeverityCritical))
	assert.Len(t, f.notifier.notes, due)
	assert.Equal(t, ms(0), f.seq.State().PhaseStartedAt)

	f.vehicle.armErr = nil
	f.tickAt(due * 200)
	assert.Equal(t, mission.PhaseClimbWait, f.seq.Phase())
}

func TestAltitudeUnavailable(t *testing.T) {
	f := newFixture(t)
	f.tickAt(0)
	f.vehicle.altErr = errors.New("no baro")
	f.vehicle.altitude = 30

	f.tickAt(200)
	f.tickAt(400)
	assert.Equal(t, mission.PhaseClimbWait, f.seq.Phase())
	assert.Equal(t, 2, f.notifier.count(mission.SeverityCritical))
	assert.Contains(t, f.notifier.notes[len(f.notifier.notes)-1].msg, mission.ErrAltitudeUnavailable.Error())

	f.vehicle.altErr = nil
	f.tickAt(600)
	assert.Equal(t, mission.PhaseHover, f.seq.Phase())
	assert.Equal(t, ms(600), f.seq.State().PhaseStartedAt)
}

func TestAltitudeOscillationNeverRegresses(t *testing.T) {
	f := newFixture(t)
	f.tickAt(0)
	at := int64(200)
	for _, alt := range []float64{19.49, 19.2, 19.499, 18.9, 19.4999} {
		f.vehicle.altitude = alt
		f.tickAt(at)
		at += 200
		assert.Equal(t, mission.PhaseClimbWait, f.seq.Phase(), "alt %g", alt)
	}

	f.vehicle.altitude = 19.5
	f.tickAt(at)
	require.Equal(t, mission.PhaseHover, f.seq.Phase())

	f.vehicle.reset()
	for _, alt := range []float64{19.0, 20.2, 18.0} {
		at += 200
		f.vehicle.altitude = alt
		f.tickAt(at)
		assert.Equal(t, mission.PhaseHover, f.seq.Phase())
	}
	assert.NotContains(t, f.vehicle.calls, "alt", "altitude is not consulted after the crossing")
	assert.Len(t, *f.trans, 2)
}

func TestLandRetriesUntilModeAccepted(t *testing.T) {
	f := hovering(t, 1000)
	f.tickAt(6001)
	f.tickAt(12002)
	require.Equal(t, mission.PhaseLand, f.seq.Phase())

	f.vehicle.landErr = errors.New("rejected")
	f.vehicle.reset()
	f.tickAt(12202)
	f.tickAt(12402)
	assert.Equal(t, mission.PhaseLand, f.seq.Phase())
	assert.Equal(t, []string{"vel:0,0,0", "mode:land", "vel:0,0,0", "mode:land"}, f.vehicle.calls)
	assert.Equal(t, 2, f.notifier.count(mission.SeverityCritical))
	assert.Contains(t, f.notifier.notes[len(f.notifier.notes)-1].msg, mission.ErrLandModeSwitchFailed.Error())
	assert.Equal(t, ms(12002), f.seq.State().PhaseStartedAt)

	f.vehicle.landErr = nil
	f.tickAt(12602)
	assert.Equal(t, mission.PhaseDone, f.seq.Phase())
}

func flyToDone(t *testing.T, f *fixture) int64 {
	t.Helper()
	f.tickAt(0)
	f.vehicle.altitude = 20
	f.tickAt(200)
	f.tickAt(5201)
	f.tickAt(11202)
	f.tickAt(11402)
	require.Equal(t, mission.PhaseDone, f.seq.Phase())
	return 11402
}

func TestDoneIssuesNoCommands(t *testing.T) {
	f := newFixture(t)
	at := flyToDone(t, f)
	f.vehicle.reset()
	infos := f.notifier.count(mission.SeverityInfo)

	for i := 0; i < 100; i++ {
		at += 200
		assert.True(t, f.tickAt(at))
	}
	assert.Empty(t, f.vehicle.calls)
	assert.True(t, f.seq.Done())
	assert.Equal(t, infos+1, f.notifier.count(mission.SeverityInfo), "completion is reported once")
	assert.Equal(t, mission.PhaseDone, f.seq.Phase())
}

func TestRepeatedCompletion(t *testing.T) {
	f := newFixture(t, mission.WithRepeatedCompletion(true))
	at := flyToDone(t, f)
	infos := f.notifier.count(mission.SeverityInfo)
	for i := 0; i < 5; i++ {
		at += 200
		f.tickAt(at)
	}
	assert.Equal(t, infos+5, f.notifier.count(mission.SeverityInfo))
}

func TestIndependentSequencers(t *testing.T) {
	a := newFixture(t)
	b := newFixture(t)
	b.vehicle.guidedErr = errors.New("nope")

	a.tickAt(0)
	b.tickAt(0)
	assert.Equal(t, mission.PhaseClimbWait, a.seq.Phase())
	assert.Equal(t, mission.PhaseTakeoff, b.seq.Phase())
}

func TestPhaseNext(t *testing.T) {
	order := []mission.Phase{
		mission.PhaseTakeoff, mission.PhaseClimbWait, mission.PhaseHover,
		mission.PhaseCruise, mission.PhaseLand, mission.PhaseDone,
	}
	for i := 0; i < len(order)-1; i++ {
		assert.Equal(t, order[i+1], order[i].Next())
		assert.False(t, order[i].Terminal())
	}
	assert.Equal(t, mission.PhaseDone, mission.PhaseDone.Next())
	assert.True(t, mission.PhaseDone.Terminal())
	assert.Equal(t, "climb-wait", mission.PhaseClimbWait.String())
	assert.Equal(t, "unknown", mission.Phase(42).String())
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := mission.NewLogNotifier(zerolog.New(&buf))

	n.Notify(mission.SeverityCritical, "cannot arm motors")
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"severity":"critical"`)
	assert.Contains(t, buf.String(), `"component":"mission"`)

	buf.Reset()
	n.Notify(mission.SeverityInfo, "hovering")
	assert.Contains(t, buf.String(), `"level":"info"`)
	assert.Contains(t, buf.String(), `"message":"hovering"`)
}

func TestMultiNotifier(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	m := mission.MultiNotifier{a, nil, b}
	m.Notify(mission.SeverityWarning, "wind")
	assert.Equal(t, []note{{mission.SeverityWarning, "wind"}}, a.notes)
	assert.Equal(t, a.notes, b.notes)
}

func TestMultiObserver(t *testing.T) {
	a, b := &transitions{}, &transitions{}
	tr := mission.Transition{From: mission.PhaseHover, To: mission.PhaseCruise, At: epoch}
	mission.MultiObserver{a, nil, b}.PhaseChanged(tr)
	assert.Equal(t, transitions{tr}, *a)
	assert.Equal(t, *a, *b)
}

func TestTransitionsFollowPhaseOrder(t *testing.T) {
	f := newFixture(t)
	f.vehicle.altitude = 20
	for tick := int64(0); !f.seq.Done(); tick += 200 {
		require.Less(t, tick, int64(60000))
		f.tickAt(tick)
	}
	require.Len(t, *f.trans, 5)
	for _, tr := range *f.trans {
		assert.Equal(t, tr.From.Next(), tr.To)
	}
}
