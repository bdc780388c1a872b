// mission package phase.go - the steps of a sortie

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

// Phase is one discrete step of the mission.
type Phase uint8

// Mission phases, in the only order they may be visited.
const (
	PhaseTakeoff Phase = iota
	PhaseClimbWait
	PhaseHover
	PhaseCruise
	PhaseLand
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseTakeoff:
		return "takeoff"
	case PhaseClimbWait:
		return "climb-wait"
	case PhaseHover:
		return "hover"
	case PhaseCruise:
		return "cruise"
	case PhaseLand:
		return "land"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Next returns the phase which follows p.  Done is its own successor.
func (p Phase) Next() Phase {
	if p >= PhaseDone {
		return PhaseDone
	}
	return p + 1
}

// Terminal is true for the Done phase only.
func (p Phase) Terminal() bool {
	return p == PhaseDone
}
