// mission package vehicle.go - what the sequencer needs from its host

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

import "time"

// Mode is a host flight mode the sequencer may request.
type Mode string

// Flight modes
const (
	ModeGuided Mode = "guided"
	ModeLand   Mode = "land"
)

// Vehicle is the narrow set of host capabilities the sequencer drives.
// Every method must return promptly, they are called from inside the control loop.
type Vehicle interface {
	SetMode(mode Mode) error
	Arm() error
	StartClimb(altitude float64) error
	// SetVelocity is fire-and-forget, speeds are in metres/second.
	SetVelocity(forward, lateral, vertical float64)
	// Altitude returns metres above the takeoff point.
	Altitude() (float64, error)
}

// Clock supplies monotonic time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock, whose readings carry Go's monotonic component.
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }

// Transition describes one phase change.
type Transition struct {
	From, To Phase
	At       time.Time
}

// Observer is told about every phase change.
type Observer interface {
	PhaseChanged(tr Transition)
}

// MultiObserver passes each transition to several Observers in order.
type MultiObserver []Observer

// PhaseChanged forwards tr to every non-nil member
func (m MultiObserver) PhaseChanged(tr Transition) {
	for _, o := range m {
		if o != nil {
			o.PhaseChanged(tr)
		}
	}
}
