package packet

import "fmt"

// Control packet kind, fixed header byte 1 bits 7-4 (MQTT v5.0 §2.1.2).
const (
	KindReserved    byte = 0x0
	KindConnect     byte = 0x1
	KindConnack     byte = 0x2
	KindPublish     byte = 0x3
	KindPuback      byte = 0x4
	KindPubrec      byte = 0x5
	KindPubrel      byte = 0x6
	KindPubcomp     byte = 0x7
	KindSubscribe   byte = 0x8
	KindSuback      byte = 0x9
	KindUnsubscribe byte = 0xA
	KindUnsuback    byte = 0xB
	KindPingreq     byte = 0xC
	KindPingresp    byte = 0xD
	KindDisconnect  byte = 0xE
	KindAuth        byte = 0xF
)

var kindName = map[byte]string{
	KindReserved: "RESERVED", KindConnect: "CONNECT", KindConnack: "CONNACK",
	KindPublish: "PUBLISH", KindPuback: "PUBACK", KindPubrec: "PUBREC",
	KindPubrel: "PUBREL", KindPubcomp: "PUBCOMP", KindSubscribe: "SUBSCRIBE",
	KindSuback: "SUBACK", KindUnsubscribe: "UNSUBSCRIBE", KindUnsuback: "UNSUBACK",
	KindPingreq: "PINGREQ", KindPingresp: "PINGRESP", KindDisconnect: "DISCONNECT",
	KindAuth: "AUTH",
}

// FixedHeader is byte 1 ({type, flags}) plus the Variable Byte Integer
// Remaining Length that every control packet starts with (spec §3/§4.4).
type FixedHeader struct {
	Kind byte

	Dup    uint8
	QoS    uint8
	Retain uint8

	RemainingLength uint32
}

func (h *FixedHeader) String() string {
	return fmt.Sprintf("%s len=%d", kindName[h.Kind], h.RemainingLength)
}

func (h *FixedHeader) encode() ([]byte, error) {
	b := make([]byte, 1, 5)
	b[0] = h.Kind<<4 | h.Dup<<3 | h.QoS<<1 | h.Retain
	enc, err := encodeVarInt(h.RemainingLength)
	if err != nil {
		return nil, err
	}
	return append(b, enc...), nil
}

// requiredFlags reports the flags byte 1 reserved bits must carry for kind,
// per MQTT-2.1.3-1: PUBREL, SUBSCRIBE and UNSUBSCRIBE fix flags at 0b0010;
// every other kind except PUBLISH fixes them at 0.
func requiredFlags(kind byte) (dup, qos, retain uint8, fixed bool) {
	switch kind {
	case KindPublish:
		return 0, 0, 0, false
	case KindPubrel, KindSubscribe, KindUnsubscribe:
		return 0, 1, 0, true
	default:
		return 0, 0, 0, true
	}
}

func decodeFixedHeader(r *reader) (*FixedHeader, error) {
	b, err := r.byte()
	if err != nil {
		return nil, err
	}
	h := &FixedHeader{
		Kind:   b >> 4,
		Dup:    b & 0b1000 >> 3,
		QoS:    b & 0b0110 >> 1,
		Retain: b & 0b0001,
	}
	if dup, qos, retain, fixed := requiredFlags(h.Kind); fixed {
		if h.Dup != dup || h.QoS != qos || h.Retain != retain {
			return nil, ErrMalformedFlags
		}
	} else if h.QoS > 2 {
		return nil, ErrProtocolViolationQosOutOfRange
	}
	h.RemainingLength, err = r.varint()
	if err != nil {
		return nil, err
	}
	return h, nil
}
