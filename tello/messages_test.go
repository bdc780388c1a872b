// tello package messages_test.go

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

import (
	"bytes"
	"errors"
	"testing"
)

// use go test -count=1 to bypass test caching

func TestPacketToBuffer(t *testing.T) {
	// create a minimal packet
	var p packet

	p.header = msgHdr
	p.toDrone = true
	p.packetType = ptSet
	p.messageID = msgDoTakeoff
	p.sequence = 0

	b := packetToBuffer(p)

	correct := []byte{0xcc, 0x58, 0, 0x7c, 0x68, 0x54, 0, 0, 0, 0xb2, 0x89}

	if !bytes.Equal(correct, b) {
		t.Errorf("Buffer encoding incorrect, got % x", b)
	}
}

func TestBufferToPacketRoundTrip(t *testing.T) {
	p := newPacket(ptSet, msgSetHeightLimit, 0x1234, 2)
	p.payload[0] = 21

	got, err := bufferToPacket(packetToBuffer(p))
	if err != nil {
		t.Fatalf("bufferToPacket failed with %v", err)
	}
	if got.messageID != msgSetHeightLimit || got.sequence != 0x1234 || got.packetType != ptSet {
		t.Errorf("Decoded header wrong: %+v", got)
	}
	if !got.toDrone || got.fromDrone {
		t.Errorf("Direction flags wrong: to %v, from %v", got.toDrone, got.fromDrone)
	}
	if !bytes.Equal(got.payload, []byte{21, 0}) {
		t.Errorf("Payload wrong: % x", got.payload)
	}
}

func TestBufferToPacketRejectsJunk(t *testing.T) {
	good := packetToBuffer(newPacket(ptSet, msgDoLand, 1, 1))

	if _, err := bufferToPacket(good[:5]); !errors.Is(err, ErrShortPacket) {
		t.Errorf("Expected ErrShortPacket, got %v", err)
	}

	badHdr := append([]byte(nil), good...)
	badHdr[0] = 0x55
	if _, err := bufferToPacket(badHdr); !errors.Is(err, ErrBadHeader) {
		t.Errorf("Expected ErrBadHeader, got %v", err)
	}

	badCRC := append([]byte(nil), good...)
	badCRC[len(badCRC)-1] ^= 0xff
	if _, err := bufferToPacket(badCRC); !errors.Is(err, ErrBadCRC) {
		t.Errorf("Expected ErrBadCRC, got %v", err)
	}
}

func TestPayloadToFlightData(t *testing.T) {
	pl := make([]byte, flightStatusSize)
	pl[0], pl[1] = 0x2c, 0x01 // 300dm
	pl[12] = 87                // battery %
	pl[17] = 1 | 1<<6          // flying, battery critical

	fd, err := payloadToFlightData(pl)
	if err != nil {
		t.Fatalf("payloadToFlightData failed with %v", err)
	}
	if fd.Height != 300 || fd.HeightMetres() != 30 {
		t.Errorf("Height: %d (%fm)", fd.Height, fd.HeightMetres())
	}
	if fd.BatteryPercentage != 87 || !fd.Flying || !fd.BatteryCritical || fd.OnGround {
		t.Errorf("Decoded %+v", fd)
	}

	if _, err = payloadToFlightData(pl[:10]); !errors.Is(err, ErrShortPacket) {
		t.Errorf("Expected ErrShortPacket, got %v", err)
	}
}

func TestJsInt16ToTello(t *testing.T) {
	cases := map[int16]uint64{0: 1024, 32767: 1388, -32768: 660}
	for in, want := range cases {
		if got := jsInt16ToTello(in); got != want {
			t.Errorf("jsInt16ToTello(%d) = %d, want %d", in, got, want)
		}
	}
}
