package mqtt

import (
	"time"

	"github.com/golang-io/mqttc/packet"
)

type frameState int

const (
	frameReady frameState = iota
	frameGotType
	frameGotLength
	frameGotCompletePacket
)

// framingEngine assembles exactly one control packet per cycle from a
// streaming Transport (spec §4.6). Partial progress survives across Step
// calls so a timeout never discards bytes already read.
type framingEngine struct {
	state         frameState
	header        []byte // type byte + in-progress VarInt remaining-length
	remaining     uint32
	body          []byte
	bodyHave      int
	maxPacketSize int
}

func newFramingEngine(maxPacketSize int) *framingEngine {
	return &framingEngine{state: frameReady, maxPacketSize: maxPacketSize}
}

// isShortFrameKind reports whether kind can legally be exactly 2 bytes long: a bare type byte
// followed by a zero remaining-length (PINGRESP, and zero-reason-code
// DISCONNECT/AUTH).
func isShortFrameKind(kind byte) bool {
	switch kind {
	case packet.KindPingresp, packet.KindDisconnect, packet.KindAuth:
		return true
	default:
		return false
	}
}

// Step advances the engine by reading whatever the current state still
// needs from t, within timeout. It returns a complete frame (fixed header
// bytes + body bytes) once assembled; ErrTimedOut preserves state for the
// next call; protocol errors are fatal to the connection.
func (e *framingEngine) Step(t Transport, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)

	for {
		switch e.state {
		case frameReady, frameGotType:
			if err := e.readHeader(t, remaining(deadline)); err != nil {
				return nil, err
			}
			if e.state != frameGotLength {
				return nil, ErrTimedOut
			}

		case frameGotLength:
			if e.bodyHave < len(e.body) {
				n, err := t.Recv(e.body[e.bodyHave:], len(e.body)-e.bodyHave, remaining(deadline))
				e.bodyHave += n
				if err != nil {
					return nil, err
				}
			}
			e.state = frameGotCompletePacket

		case frameGotCompletePacket:
			frame := make([]byte, 0, len(e.header)+len(e.body))
			frame = append(frame, e.header...)
			frame = append(frame, e.body...)
			e.reset()
			return frame, nil
		}
	}
}

func remaining(deadline time.Time) time.Duration {
	d := time.Until(deadline)
	if d < 0 {
		return 0
	}
	return d
}

// readHeader pulls in the fixed header (type byte + VarInt remaining
// length) a few bytes at a time, handling the 2-byte short-frame shortcut,
// and transitions to frameGotLength once the full remaining length is
// known.
func (e *framingEngine) readHeader(t Transport, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	if len(e.header) == 0 {
		b := make([]byte, 2)
		n, err := t.Recv(b, 1, remaining(deadline))
		if n > 0 {
			e.header = append(e.header, b[:n]...)
			e.state = frameGotType
		}
		if err != nil {
			return err
		}
	}

	kind := e.header[0] >> 4
	if len(e.header) == 2 && isShortFrameKind(kind) && e.header[1] == 0x00 {
		e.remaining = 0
		return e.finishHeader()
	}

	for len(e.header) <= 5 {
		tail := e.header[1:]
		if value, _, err := packet.DecodeVarInt(tail); err == nil {
			e.remaining = value
			return e.finishHeader()
		} else if err != packet.ErrNotEnoughData {
			return protocolErr(packet.ErrMalformedPacket)
		}
		b := make([]byte, 1)
		n, err := t.Recv(b, 1, remaining(deadline))
		if n > 0 {
			e.header = append(e.header, b[:n]...)
		}
		if err != nil {
			return err
		}
	}
	return protocolErr(packet.ErrMalformedPacket)
}

func (e *framingEngine) finishHeader() error {
	if int(e.remaining) > e.maxPacketSize {
		return protocolErr(packet.ErrPacketTooLarge)
	}
	e.body = make([]byte, e.remaining)
	e.bodyHave = 0
	e.state = frameGotLength
	return nil
}

func (e *framingEngine) reset() {
	e.state = frameReady
	e.header = nil
	e.remaining = 0
	e.body = nil
	e.bodyHave = 0
}
