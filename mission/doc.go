// mission package doc.go

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

/*Package mission provides a timer-gated phase sequencer which flies a vehicle through a fixed sortie:
arm, climb to a target altitude, hover, cruise forward for a while, then land.

Concepts

The Sequencer does not control the vehicle itself.  It decides which commanded intent is active right now
and when to move on to the next one, and it calls into a Vehicle supplied by the host to do the flying.
Adapters for a Ryze Tello® (package tello) and for a simulated vehicle (package sim) are provided.

Ticks

Tick() is expected to be called very frequently, eg. once per control loop iteration.  It is rate-limited
by the configured Cadence; calls arriving sooner than that after the last evaluated tick return immediately
without touching the vehicle.  Tick never blocks.

Phases

  Takeoff   -> ClimbWait  once guided mode, arming and the climb command all succeed
  ClimbWait -> Hover      once altitude >= TargetAltitude - AltitudeTolerance
  Hover     -> Cruise     once more than HoverDuration has elapsed in Hover
  Cruise    -> Land       once more than CruiseDuration has elapsed in Cruise
  Land      -> Done       once the vehicle accepts land mode
  Done                    terminal

A failing host call never aborts the mission, the sequencer reports it at Critical severity and retries the
same phase on the next due tick.  There is no retry limit.

Aborting

Cancellation is not part of the sequencer.  A supervisor simply stops calling Tick and, if required, forces
the vehicle into land mode.  Package autopilot does exactly that.
*/
package mission
