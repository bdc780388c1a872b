// tello package flightCommands.go - Tello flight command API

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

package tello

// sendCommand sends a sequenced command packet, fill may populate the payload.
func (tello *Tello) sendCommand(pt uint8, cmd uint16, payloadSize int, fill func([]byte)) error {
	tello.ctrlMu.Lock()
	defer tello.ctrlMu.Unlock()
	if !tello.ctrlConnected || tello.ctrlConn == nil {
		return ErrNotConnected
	}

	tello.ctrlSeq++
	pkt := newPacket(pt, cmd, tello.ctrlSeq, payloadSize)
	if fill != nil {
		fill(pkt.payload)
	}
	_, err := tello.ctrlConn.Write(packetToBuffer(pkt))
	return err
}

// TakeOff sends a normal takeoff request to the Tello
func (tello *Tello) TakeOff() error {
	return tello.sendCommand(ptSet, msgDoTakeoff, 0, nil)
}

// Land sends a normal Land request to the Tello
func (tello *Tello) Land() error {
	return tello.sendCommand(ptSet, msgDoLand, 1, func(pl []byte) { pl[0] = 0 })
}

// SetHeightLimit asks the Tello not to climb above the given height in metres.
func (tello *Tello) SetHeightLimit(metres uint16) error {
	return tello.sendCommand(ptSet, msgSetHeightLimit, 2, func(pl []byte) {
		pl[0] = byte(metres)
		pl[1] = byte(metres >> 8)
	})
}

// UpdateSticks does a one-off update of the stick values which are then sent to the Tello
// by the keep-alive transmitter.
func (tello *Tello) UpdateSticks(sm StickMessage) {
	tello.ctrlMu.Lock()
	tello.ctrlLx = sm.Lx
	tello.ctrlLy = sm.Ly
	tello.ctrlRx = sm.Rx
	tello.ctrlRy = sm.Ry
	tello.ctrlMu.Unlock()
}

// Hover simply sets the sticks to zero - useful as a panic action!
func (tello *Tello) Hover() {
	tello.UpdateSticks(StickMessage{})
}
