package packet

import "bytes"

// Packet is the common shape of every MQTT5 control packet (spec §4.4):
// a Kind, a way to compute and write its body (variable header + payload,
// the fixed header is handled once by Encode/Decode below), and a way to
// read that body back given the exact RemainingLength the fixed header
// advertised.
type Packet interface {
	Kind() byte
	encodeBody(buf *bytes.Buffer, validate bool) error
	decodeBody(r *reader, validate bool) error
}

// flags reports the fixed-header flags byte this packet wants to encode
// with. Only PUBLISH varies (DUP/QoS/RETAIN); every other kind uses the
// value requiredFlags mandates.
func flags(pkt Packet) (dup, qos, retain uint8) {
	if p, ok := pkt.(*PUBLISH); ok {
		return p.Dup, p.QoS, p.Retain
	}
	dup, qos, retain, _ = requiredFlags(pkt.Kind())
	return
}

// Encode serializes pkt (fixed header + body) into a fresh byte slice.
func Encode(pkt Packet, validate bool) ([]byte, error) {
	body := GetBuffer()
	defer PutBuffer(body)

	if err := pkt.encodeBody(body, validate); err != nil {
		return nil, err
	}
	if uint32(body.Len()) > varIntMax4 {
		return nil, ErrPacketTooLarge
	}
	dup, qos, retain := flags(pkt)
	h := &FixedHeader{Kind: pkt.Kind(), Dup: dup, QoS: qos, Retain: retain, RemainingLength: uint32(body.Len())}
	head, err := h.encode()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(head)+body.Len())
	out = append(out, head...)
	out = append(out, body.Bytes()...)
	return out, nil
}

// newByKind allocates the zero-value packet struct for a fixed-header kind.
func newByKind(kind byte) (Packet, error) {
	switch kind {
	case KindConnect:
		return &CONNECT{}, nil
	case KindConnack:
		return &CONNACK{}, nil
	case KindPublish:
		return &PUBLISH{}, nil
	case KindPuback:
		return &PUBACK{}, nil
	case KindPubrec:
		return &PUBREC{}, nil
	case KindPubrel:
		return &PUBREL{}, nil
	case KindPubcomp:
		return &PUBCOMP{}, nil
	case KindSubscribe:
		return &SUBSCRIBE{}, nil
	case KindSuback:
		return &SUBACK{}, nil
	case KindUnsubscribe:
		return &UNSUBSCRIBE{}, nil
	case KindUnsuback:
		return &UNSUBACK{}, nil
	case KindPingreq:
		return &PINGREQ{}, nil
	case KindPingresp:
		return &PINGRESP{}, nil
	case KindDisconnect:
		return &DISCONNECT{}, nil
	case KindAuth:
		return &AUTH{}, nil
	default:
		return nil, ErrMalformedPacket
	}
}

// Decode parses one complete frame (fixed header plus exactly
// RemainingLength body bytes, as handed over by the receive framing
// engine once it reaches GotCompletePacket) into a typed Packet.
func Decode(frame []byte, validate bool) (Packet, error) {
	r := newReader(frame)
	h, err := decodeFixedHeader(r)
	if err != nil {
		return nil, err
	}
	bodyBytes, err := r.bytesN(int(h.RemainingLength))
	if err != nil {
		return nil, err
	}
	pkt, err := newByKind(h.Kind)
	if err != nil {
		return nil, err
	}
	if p, ok := pkt.(*PUBLISH); ok {
		p.Dup, p.QoS, p.Retain = h.Dup, h.QoS, h.Retain
	}
	body := newReader(bodyBytes)
	if err := pkt.decodeBody(body, validate); err != nil {
		return nil, err
	}
	return pkt, nil
}
