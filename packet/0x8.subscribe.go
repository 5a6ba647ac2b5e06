package packet

import (
	"bytes"
	"fmt"
)

// SUBSCRIBE requests one or more topic subscriptions (spec §4.4/§4.7).
// Fixed-header flags are fixed at DUP=0, QoS=1, RETAIN=0, enforced by
// requiredFlags/decodeFixedHeader rather than here.
type SUBSCRIBE struct {
	PacketID      uint16
	Props         *SubscribeProperties
	Subscriptions []Subscription
}

func (pkt *SUBSCRIBE) Kind() byte { return KindSubscribe }

func (pkt *SUBSCRIBE) encodeBody(buf *bytes.Buffer, validate bool) error {
	if validate && len(pkt.Subscriptions) == 0 {
		return ErrProtocolViolationNoTopic
	}
	putU16(buf, pkt.PacketID)

	props := GetBuffer()
	defer PutBuffer(props)
	if pkt.Props != nil {
		if err := pkt.Props.encode(props); err != nil {
			return err
		}
	}
	if err := writePropsBlock(buf, props.Bytes()); err != nil {
		return err
	}

	for _, s := range pkt.Subscriptions {
		if validate && s.TopicFilter == "" {
			return ErrProtocolViolationNoTopic
		}
		putString(buf, s.TopicFilter)
		buf.WriteByte(s.optionsByte())
	}
	return nil
}

func (pkt *SUBSCRIBE) decodeBody(r *reader, validate bool) error {
	var err error
	if pkt.PacketID, err = r.u16(); err != nil {
		return err
	}

	propsR, err := readPropsBlock(r)
	if err != nil {
		return err
	}
	pkt.Props = &SubscribeProperties{}
	if err := pkt.Props.decode(propsR, validate); err != nil {
		return err
	}

	for r.remaining() > 0 {
		var s Subscription
		if s.TopicFilter, err = r.utf8string(validate); err != nil {
			return err
		}
		options, err := r.byte()
		if err != nil {
			return err
		}
		if err := s.setOptionsByte(options); err != nil {
			return err
		}
		pkt.Subscriptions = append(pkt.Subscriptions, s)
	}
	if validate && len(pkt.Subscriptions) == 0 {
		return ErrProtocolViolationNoTopic
	}
	return nil
}

// Subscription is one entry of a SUBSCRIBE payload: a topic filter and its
// options byte (MaximumQoS, NoLocal, RetainAsPublished, RetainHandling).
type Subscription struct {
	TopicFilter       string
	MaximumQoS        uint8
	NoLocal           bool
	RetainAsPublished bool
	RetainHandling    uint8
}

func (s *Subscription) String() string { return fmt.Sprintf("%s@%d", s.TopicFilter, s.MaximumQoS) }

func (s *Subscription) optionsByte() byte {
	b := s.MaximumQoS & 0x03
	if s.NoLocal {
		b |= 0x04
	}
	if s.RetainAsPublished {
		b |= 0x08
	}
	b |= (s.RetainHandling & 0x03) << 4
	return b
}

func (s *Subscription) setOptionsByte(b byte) error {
	s.MaximumQoS = b & 0x03
	if s.MaximumQoS > 2 {
		return ErrProtocolViolationQosOutOfRange
	}
	s.NoLocal = b&0x04 != 0
	s.RetainAsPublished = b&0x08 != 0
	s.RetainHandling = (b & 0x30) >> 4
	if s.RetainHandling > 2 {
		return ErrProtocolViolationReservedBit
	}
	if b&0xC0 != 0 {
		return ErrProtocolViolationReservedBit
	}
	return nil
}

// SubscribeProperties is the SUBSCRIBE property set. SubscriptionIdentifier
// may appear at most once here (unlike PUBLISH, where it repeats per
// matching subscription); a second occurrence is a protocol error this
// decoder rejects itself since the shared legality table treats the id as
// always-repeatable.
type SubscribeProperties struct {
	SubscriptionIdentifier uint32
	UserProperty           map[string][]string
}

func (p *SubscribeProperties) encode(buf *bytes.Buffer) error {
	if p.SubscriptionIdentifier != 0 {
		if err := putVarIntProp(buf, propSubscriptionIdentifier, p.SubscriptionIdentifier); err != nil {
			return err
		}
	}
	return putUserProperties(buf, p.UserProperty)
}

func (p *SubscribeProperties) decode(r *reader, validate bool) error {
	seen := map[byte]bool{}
	sawSubID := false
	for r.remaining() > 0 {
		d, err := decodeProperty(r, KindSubscribe, seen, validate)
		if err != nil {
			return err
		}
		switch d.id {
		case propSubscriptionIdentifier:
			if validate && sawSubID {
				return ErrMalformedProperties
			}
			sawSubID = true
			p.SubscriptionIdentifier = d.u32
		case propUserProperty:
			if p.UserProperty == nil {
				p.UserProperty = map[string][]string{}
			}
			p.UserProperty[d.key] = append(p.UserProperty[d.key], d.str)
		}
	}
	return nil
}
