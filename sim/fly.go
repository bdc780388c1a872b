// sim package fly.go - fly a whole mission in simulated time

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

package sim

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeLimit is returned when the mission has not finished within the time limit.
var ErrTimeLimit = errors.New("simulation time limit reached")

// Sequencer is what Fly drives, *mission.Sequencer satisfies it.
type Sequencer interface {
	Tick() bool
	Done() bool
}

// Result summarises a simulated flight.
type Result struct {
	Elapsed time.Duration // simulated time flown
	Loops   int           // control loop iterations
	Ticks   int           // evaluated sequencer ticks
	Final   State
}

// Fly runs the control loop in simulated time: every loop period the vehicle's physics
// are stepped, the clock advanced and the sequencer ticked, until it is done or limit passes.
func Fly(seq Sequencer, v *Vehicle, clock *Clock, loop, limit time.Duration) (Result, error) {
	if loop <= 0 {
		return Result{}, fmt.Errorf("loop period must be positive, got %v", loop)
	}
	var res Result
	for !seq.Done() {
		if res.Elapsed >= limit {
			res.Final = v.State()
			return res, fmt.Errorf("%w after %v", ErrTimeLimit, res.Elapsed)
		}
		if seq.Tick() {
			res.Ticks++
		}
		v.Step(loop)
		clock.Advance(loop)
		res.Elapsed += loop
		res.Loops++
	}
	res.Final = v.State()
	return res, nil
}
