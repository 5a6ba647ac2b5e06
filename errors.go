package mqtt

import (
	"errors"
	"fmt"

	"github.com/golang-io/mqttc/packet"
)

// Error kinds surfaced to callers. ProtocolError and the full MQTT5
// reason-code set (packet.ReasonCode) are surfaced as-is rather than
// wrapped in a sentinel, since the broker's own wording is the useful
// part of that case.
var (
	ErrBadParameter     = errors.New("mqtt: bad parameter")
	ErrBadProperties    = errors.New("mqtt: bad properties")
	ErrNotConnected     = errors.New("mqtt: not connected")
	ErrAlreadyConnected = errors.New("mqtt: already connected")
	ErrTimedOut         = errors.New("mqtt: timed out")
	ErrNetworkError     = errors.New("mqtt: network error")
	ErrTranscientPacket = errors.New("mqtt: transient packet, drive the event loop")
	ErrWaitingForResult = errors.New("mqtt: result not yet available")
	ErrProtocolError    = errors.New("mqtt: protocol error")
)

// ProtocolErr wraps a broker-supplied or locally-detected ReasonCode so
// callers can inspect the exact code with errors.As while %v/%s still
// reads as a normal error.
type ProtocolErr struct {
	Code packet.ReasonCode
}

func (e *ProtocolErr) Error() string {
	return fmt.Sprintf("mqtt: protocol error: %s", e.Code.Error())
}

func (e *ProtocolErr) Unwrap() error { return ErrProtocolError }

func protocolErr(code packet.ReasonCode) error { return &ProtocolErr{Code: code} }
