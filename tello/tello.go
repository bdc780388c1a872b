// tello package tello.go - control connection to a Tello

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
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Default network addresses of a Tello in its own WiFi AP mode
const (
	DefaultTelloAddr        = "192.168.10.1"
	DefaultTelloControlPort = 8889
	DefaultLocalControlPort = 8800
	defaultTelloVideoPort   = 6038
)

const (
	keepAlivePeriodMs = 50
	connectPollMs     = 100
	connectTimeout    = 3 * time.Second
)

// Connection errors
var (
	ErrAlreadyConnected  = errors.New("Tello already connected")
	ErrConnecting        = errors.New("Tello connection attempt already in progress")
	ErrNotConnected      = errors.New("Tello not connected")
	ErrConnectionTimeout = errors.New("timeout waiting for response to connection request from Tello")
)

// Tello holds the current state of a connection to a Tello drone
type Tello struct {
	logger zerolog.Logger

	ctrlMu                         sync.RWMutex // this mutex protects the control fields
	ctrlConn                       *net.UDPConn
	ctrlStopChan                   chan bool
	ctrlConnecting, ctrlConnected  bool
	ctrlSeq                        uint16
	ctrlRx, ctrlRy, ctrlLx, ctrlLy int16 // we are using the SDL convention: vals range from -32768 to 32767

	fdMu       sync.RWMutex // this mutex protects the flight data fields
	fd         FlightData   // our private amalgamated store of the latest data
	fdReceived bool         // at least one flight status message has arrived
}

// New returns an unconnected Tello which logs to logger.
func New(logger zerolog.Logger) *Tello {
	return &Tello{logger: logger.With().Str("component", "tello").Logger()}
}

// ControlConnect attempts to connect to a Tello at the provided network addr.
// It then starts listening for responses on the control channel and waits for the Tello to respond.
// A localUDPPort of 0 picks any free port.
func (tello *Tello) ControlConnect(udpAddr string, droneUDPPort int, localUDPPort int) (err error) {
	// first check that we are not already connected or connecting
	tello.ctrlMu.RLock()
	if tello.ctrlConnected {
		tello.ctrlMu.RUnlock()
		return ErrAlreadyConnected
	}
	if tello.ctrlConnecting {
		tello.ctrlMu.RUnlock()
		return ErrConnecting
	}
	tello.ctrlMu.RUnlock()

	droneAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(udpAddr, strconv.Itoa(droneUDPPort)))
	if err != nil {
		return err
	}
	localAddr, err := net.ResolveUDPAddr("udp", ":"+strconv.Itoa(localUDPPort))
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp", localAddr, droneAddr)
	if err != nil {
		return err
	}

	stop := make(chan bool, 2)
	tello.ctrlMu.Lock()
	tello.ctrlConn = conn
	tello.ctrlStopChan = stop
	tello.ctrlMu.Unlock()

	go tello.controlResponseListener(conn, stop)

	// say hello to the Tello
	tello.sendConnectRequest(defaultTelloVideoPort)

	for waited := time.Duration(0); waited < connectTimeout; waited += connectPollMs * time.Millisecond {
		if tello.ControlConnected() {
			break
		}
		time.Sleep(connectPollMs * time.Millisecond)
	}
	if !tello.ControlConnected() {
		tello.shutdown()
		return ErrConnectionTimeout
	}

	go tello.keepAlive()

	tello.logger.Info().Str("addr", droneAddr.String()).Msg("connected to Tello")
	return nil
}

// ControlConnectDefault attempts to connect to a Tello on the default network addresses.
func (tello *Tello) ControlConnectDefault() (err error) {
	return tello.ControlConnect(DefaultTelloAddr, DefaultTelloControlPort, DefaultLocalControlPort)
}

// ControlDisconnect stops the control channel listener and closes the connection to a Tello
func (tello *Tello) ControlDisconnect() {
	tello.shutdown()
	tello.logger.Info().Msg("disconnected from Tello")
}

func (tello *Tello) shutdown() {
	tello.ctrlMu.Lock()
	defer tello.ctrlMu.Unlock()
	if tello.ctrlConn == nil {
		return
	}
	tello.ctrlStopChan <- true
	tello.ctrlConn.Close()
	tello.ctrlConn = nil
	tello.ctrlConnected = false
	tello.ctrlConnecting = false
}

// ControlConnected returns true if we are currently connected
func (tello *Tello) ControlConnected() (c bool) {
	tello.ctrlMu.RLock()
	c = tello.ctrlConnected
	tello.ctrlMu.RUnlock()
	return c
}

// GetFlightData returns the current known state of the Tello
func (tello *Tello) GetFlightData() FlightData {
	tello.fdMu.RLock()
	rfd := tello.fd
	tello.fdMu.RUnlock()
	return rfd
}

// FlightDataReceived is true once the Tello has sent at least one flight status message.
func (tello *Tello) FlightDataReceived() (r bool) {
	tello.fdMu.RLock()
	r = tello.fdReceived
	tello.fdMu.RUnlock()
	return r
}

func (tello *Tello) controlResponseListener(conn *net.UDPConn, stop <-chan bool) {
	buff := make([]byte, 4096)

	for {
		n, err := conn.Read(buff)

		select {
		case <-stop:
			tello.logger.Debug().Msg("control response listener stopped")
			return
		default:
		}
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			tello.logger.Warn().Err(err).Msg("network read error")
			continue
		}

		// the initial connect response is different...
		tello.ctrlMu.RLock()
		connecting := tello.ctrlConnecting
		tello.ctrlMu.RUnlock()
		if connecting && n == 11 {
			if bytes.HasPrefix(buff[:n], []byte("conn_ack:")) {
				tello.ctrlMu.Lock()
				tello.ctrlConnecting = false
				tello.ctrlConnected = true
				tello.ctrlMu.Unlock()
			} else {
				tello.logger.Warn().Str("response", string(buff[:n])).Msg("unexpected response to connection request")
			}
			continue
		}

		pkt, err := bufferToPacket(buff[:n])
		if err != nil {
			tello.logger.Debug().Err(err).Msg("dropping message from Tello")
			continue
		}
		tello.handlePacket(pkt)
	}
}

func (tello *Tello) handlePacket(pkt packet) {
	switch pkt.messageID {
	case msgDoLand, msgDoTakeoff, msgSetHeightLimit: // acks, ignore for now
	case msgFlightStatus:
		tmpFd, err := payloadToFlightData(pkt.payload)
		if err != nil {
			tello.logger.Debug().Err(err).Msg("bad flight status")
			return
		}
		tello.fdMu.Lock()
		// light and wifi strength arrive in separate messages
		tmpFd.LightStrength = tello.fd.LightStrength
		tmpFd.WifiStrength = tello.fd.WifiStrength
		tmpFd.WifiInterference = tello.fd.WifiInterference
		tello.fd = tmpFd
		tello.fdReceived = true
		tello.fdMu.Unlock()
	case msgLightStrength:
		if len(pkt.payload) < 1 {
			return
		}
		tello.fdMu.Lock()
		tello.fd.LightStrength = pkt.payload[0]
		tello.fdMu.Unlock()
	case msgLogHeader:
		tello.logger.Debug().Uint16("size", pkt.size13).Msg("log header received")
	case msgSetDateTime:
		tello.sendDateTime()
	case msgWifiStrength:
		if len(pkt.payload) < 2 {
			return
		}
		tello.fdMu.Lock()
		tello.fd.WifiStrength = pkt.payload[0]
		tello.fd.WifiInterference = pkt.payload[1]
		tello.fdMu.Unlock()
	default:
		tello.logger.Debug().
			Uint16("id", pkt.messageID).
			Uint16("size", pkt.size13).
			Uint8("type", pkt.packetType).
			Msg("unknown message from Tello")
	}
}

func (tello *Tello) sendConnectRequest(videoPort uint16) {
	// the initial connect request is different to the usual packets...
	msgBuff := []byte("conn_req:lh")
	msgBuff[9] = byte(videoPort & 0xff)
	msgBuff[10] = byte(videoPort >> 8)
	tello.ctrlMu.Lock()
	tello.ctrlConnecting = true
	tello.ctrlConn.Write(msgBuff)
	tello.ctrlMu.Unlock()
}

func (tello *Tello) sendDateTime() {
	tello.ctrlMu.Lock()
	defer tello.ctrlMu.Unlock()
	if tello.ctrlConn == nil {
		return
	}

	tello.ctrlSeq++
	pkt := newPacket(ptData1, msgSetDateTime, tello.ctrlSeq, 15)

	now := time.Now()
	putUint16 := func(i int, v int) {
		pkt.payload[i] = byte(v)
		pkt.payload[i+1] = byte(v >> 8)
	}
	putUint16(1, now.Year())
	putUint16(3, int(now.Month()))
	putUint16(5, now.Day())
	putUint16(7, now.Hour())
	putUint16(9, now.Minute())
	putUint16(11, now.Second())
	putUint16(13, int(now.UnixNano()/1000000))

	tello.ctrlConn.Write(packetToBuffer(pkt))
}

// keepAlive re-sends the current stick positions, the Tello lands by itself if they stop arriving.
func (tello *Tello) keepAlive() {
	for tello.ControlConnected() {
		tello.sendStickUpdate()
		time.Sleep(keepAlivePeriodMs * time.Millisecond)
	}
}

func jsInt16ToTello(sv int16) uint64 {
	// sv is in range -32768 to 32767, we need 660 to 1388 where 0 => 1024
	return uint64((sv / 90) + 1024)
}

func (tello *Tello) sendStickUpdate() {
	tello.ctrlMu.Lock()
	defer tello.ctrlMu.Unlock()
	if tello.ctrlConn == nil {
		return
	}
	pkt := newPacket(ptData2, msgSetStick, 0, 11)

	// This packing of the joystick data is just vile...
	packedAxes := jsInt16ToTello(tello.ctrlRx) & 0x07ff
	packedAxes |= (jsInt16ToTello(tello.ctrlRy) & 0x07ff) << 11
	packedAxes |= (jsInt16ToTello(tello.ctrlLy) & 0x07ff) << 22
	packedAxes |= (jsInt16ToTello(tello.ctrlLx) & 0x07ff) << 33

	for i := 0; i < 6; i++ {
		pkt.payload[i] = byte(packedAxes >> (8 * i))
	}

	now := time.Now()
	pkt.payload[6] = byte(now.Hour())
	pkt.payload[7] = byte(now.Minute())
	pkt.payload[8] = byte(now.Second())
	ms := now.UnixNano() / 1000000
	pkt.payload[9] = byte(ms & 0xff)
	pkt.payload[10] = byte(ms >> 8)

	tello.ctrlConn.Write(packetToBuffer(pkt))
}
