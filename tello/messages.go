// tello package messages.go - the Tello wire format

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
	"errors"
	"fmt"
)

const msgHdr = 0xcc // 204

// packet is our internal representation of the messages passed to/from the Tello
type packet struct {
	header        byte
	size13        uint16
	crc8          byte
	fromDrone     bool // the following 4 fields are encoded in a single byte in the raw packet
	toDrone       bool
	packetType    uint8 // 3-bit
	packetSubtype uint8 // 3-bit
	messageID     uint16
	sequence      uint16
	payload       []byte
	crc16         uint16
}

const minPktSize = 11 // smallest possible raw packet

// tello packet types we send
const (
	ptData1 = 2
	ptData2 = 4
	ptSet   = 5
)

// Tello message IDs we send or understand
const (
	msgWifiStrength   = 0x001a // 26
	msgLightStrength  = 0x0035 // 53
	msgSetDateTime    = 0x0046 // 70
	msgSetStick       = 0x0050 // 80
	msgDoTakeoff      = 0x0054 // 84
	msgDoLand         = 0x0055 // 85
	msgFlightStatus   = 0x0056 // 86
	msgSetHeightLimit = 0x0058 // 88
	msgLogHeader      = 0x1050 // 4176
)

const flightStatusSize = 24 // minimum payload of a msgFlightStatus

// Packet decoding errors
var (
	ErrShortPacket = errors.New("packet too short")
	ErrBadHeader   = errors.New("bad packet header")
	ErrBadCRC      = errors.New("packet CRC mismatch")
)

// FlightData holds our current knowledge of the drone's state, as reported
// in its flight status messages.
type FlightData struct {
	BatteryLow          bool
	BatteryCritical     bool
	BatteryMilliVolts   int16
	BatteryPercentage   int8
	DroneFlyTimeLeft    int16
	DroneHover          bool
	EastSpeed           int16
	FactoryMode         bool
	Flying              bool
	FlyMode             uint8
	FlyTime             int16
	Height              int16 // decimetres above the takeoff point
	ImuCalibrationState int8
	ImuState            bool
	LightStrength       uint8
	NorthSpeed          int16
	OnGround            bool
	OverTemp            bool
	PressureState       bool
	VerticalSpeed       int16
	WifiInterference    uint8
	WifiStrength        uint8
	WindState           bool
}

// HeightMetres converts the reported height to metres.
func (fd FlightData) HeightMetres() float64 {
	return float64(fd.Height) / 10
}

// StickMessage holds the signed 16-bit values of a joystick update.
// Each value can range from -32768 to 32767
type StickMessage struct {
	Rx, Ry, Lx, Ly int16
}

// bufferToPacket takes a raw buffer of bytes and populates our packet struct
func bufferToPacket(buff []byte) (pkt packet, err error) {
	if len(buff) < minPktSize {
		return pkt, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(buff))
	}
	if buff[0] != msgHdr {
		return pkt, fmt.Errorf("%w: 0x%02x", ErrBadHeader, buff[0])
	}
	pkt.header = buff[0]
	pkt.size13 = (uint16(buff[1]) + uint16(buff[2])<<8) >> 3
	if int(pkt.size13) < minPktSize || int(pkt.size13) > len(buff) {
		return pkt, fmt.Errorf("%w: header says %d bytes, have %d", ErrShortPacket, pkt.size13, len(buff))
	}
	pkt.crc8 = buff[3]
	if calculateCRC8(buff[0:3]) != pkt.crc8 {
		return pkt, fmt.Errorf("%w: header", ErrBadCRC)
	}
	pkt.fromDrone = (buff[4] & 0x80) != 0
	pkt.toDrone = (buff[4] & 0x40) != 0
	pkt.packetType = (buff[4] >> 3) & 0x07
	pkt.packetSubtype = buff[4] & 0x07
	pkt.messageID = (uint16(buff[6]) << 8) | uint16(buff[5])
	pkt.sequence = (uint16(buff[8]) << 8) | uint16(buff[7])
	payloadSize := int(pkt.size13) - minPktSize
	if payloadSize > 0 {
		pkt.payload = make([]byte, payloadSize)
		copy(pkt.payload, buff[9:9+payloadSize])
	}
	pkt.crc16 = uint16(buff[pkt.size13-1])<<8 + uint16(buff[pkt.size13-2])
	if calculateCRC16(buff[0:pkt.size13-2]) != pkt.crc16 {
		return pkt, fmt.Errorf("%w: body", ErrBadCRC)
	}
	return pkt, nil
}

// newPacket returns a packet with some fields populated
func newPacket(pt uint8, cmd uint16, seq uint16, payloadSize int) (pkt packet) {
	pkt.header = msgHdr
	pkt.toDrone = true
	pkt.packetType = pt
	pkt.messageID = cmd
	pkt.sequence = seq
	if payloadSize > 0 {
		pkt.payload = make([]byte, payloadSize)
	}
	return pkt
}

// pack the packet into raw buffer format and calculate CRCs etc.
func packetToBuffer(pkt packet) (buff []byte) {
	payloadSize := len(pkt.payload)
	packetSize := minPktSize + payloadSize
	buff = make([]byte, packetSize)

	buff[0] = pkt.header
	buff[1] = byte(packetSize << 3)
	buff[2] = byte(packetSize >> 5)
	buff[3] = calculateCRC8(buff[0:3])
	buff[4] = pkt.packetSubtype + (pkt.packetType << 3)
	if pkt.toDrone {
		buff[4] |= 0x40
	}
	if pkt.fromDrone {
		buff[4] |= 0x80
	}
	buff[5] = byte(pkt.messageID)
	buff[6] = byte(pkt.messageID >> 8)
	buff[7] = byte(pkt.sequence)
	buff[8] = byte(pkt.sequence >> 8)

	copy(buff[9:], pkt.payload)
	crc16 := calculateCRC16(buff[0 : 9+payloadSize])
	buff[9+payloadSize] = byte(crc16)
	buff[10+payloadSize] = byte(crc16 >> 8)

	return buff
}

func payloadToFlightData(pl []byte) (fd FlightData, err error) {
	if len(pl) < flightStatusSize {
		return fd, fmt.Errorf("%w: flight status has %d bytes", ErrShortPacket, len(pl))
	}
	fd.Height = int16(uint16(pl[0]) | uint16(pl[1])<<8)
	fd.NorthSpeed = int16(uint16(pl[2]) | uint16(pl[3])<<8)
	fd.EastSpeed = int16(uint16(pl[4]) | uint16(pl[5])<<8)
	fd.VerticalSpeed = int16(uint16(pl[6]) | uint16(pl[7])<<8)
	fd.FlyTime = int16(uint16(pl[8]) | uint16(pl[9])<<8)

	fd.ImuState = (pl[10] & 1) == 1
	fd.PressureState = (pl[10] >> 1 & 1) == 1
	// bits 2-6 are visual, power, battery, gravity and (unknown) states
	fd.WindState = (pl[10] >> 7 & 1) == 1

	fd.ImuCalibrationState = int8(pl[11])
	fd.BatteryPercentage = int8(pl[12])
	fd.DroneFlyTimeLeft = int16(uint16(pl[13]) | uint16(pl[14])<<8)
	fd.BatteryMilliVolts = int16(uint16(pl[15]) | uint16(pl[16])<<8)

	fd.Flying = (pl[17] & 1) == 1
	fd.OnGround = (pl[17] >> 1 & 1) == 1
	fd.DroneHover = (pl[17] >> 3 & 1) == 1
	fd.BatteryLow = (pl[17] >> 5 & 1) == 1
	fd.BatteryCritical = (pl[17] >> 6 & 1) == 1
	fd.FactoryMode = (pl[17] >> 7 & 1) == 1

	fd.FlyMode = pl[18]
	fd.OverTemp = (pl[23] & 1) == 1

	return fd, nil
}
