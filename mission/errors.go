// mission package errors.go

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

import "errors"

// Failures reported while flying.  All of them are retried on the next due tick.
var (
	ErrModeSwitchFailed     = errors.New("cannot switch to guided mode")
	ErrArmFailed            = errors.New("cannot arm motors")
	ErrClimbStartFailed     = errors.New("cannot start climb")
	ErrAltitudeUnavailable  = errors.New("altitude unavailable")
	ErrLandModeSwitchFailed = errors.New("cannot switch to land mode")
)

// Construction errors.
var (
	ErrInvalidConfig = errors.New("invalid mission config")
	ErrNilVehicle    = errors.New("vehicle is required")
	ErrNilClock      = errors.New("clock is required")
)
