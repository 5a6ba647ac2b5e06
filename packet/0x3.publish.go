package packet

import (
	"bytes"
	"strings"
)

// PUBLISH carries application data (spec §4.4/§4.7). Dup/QoS/Retain live
// on the packet itself because PUBLISH is the one kind whose fixed-header
// flags byte is packet-state rather than a fixed constant.
type PUBLISH struct {
	Dup    uint8
	QoS    uint8
	Retain uint8

	TopicName string
	PacketID  uint16
	Props     *PublishProperties
	Payload   []byte
}

func (pkt *PUBLISH) Kind() byte { return KindPublish }

func (pkt *PUBLISH) encodeBody(buf *bytes.Buffer, validate bool) error {
	if validate && pkt.TopicName == "" {
		return ErrProtocolViolationNoTopic
	}
	putString(buf, pkt.TopicName)
	if pkt.QoS > 0 {
		putU16(buf, pkt.PacketID)
	}

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
	buf.Write(pkt.Payload)
	return nil
}

func (pkt *PUBLISH) decodeBody(r *reader, validate bool) error {
	topic, err := r.utf8string(validate)
	if err != nil {
		return err
	}
	if validate && strings.ContainsAny(topic, "+#") {
		return ErrProtocolViolationSurplusWildcard
	}
	pkt.TopicName = topic

	if pkt.QoS > 2 {
		return ErrProtocolViolationQosOutOfRange
	}
	if pkt.QoS > 0 {
		if pkt.PacketID, err = r.u16(); err != nil {
			return err
		}
	}

	propsR, err := readPropsBlock(r)
	if err != nil {
		return err
	}
	pkt.Props = &PublishProperties{}
	if err := pkt.Props.decode(propsR, validate); err != nil {
		return err
	}

	pkt.Payload = bytes.Clone(r.b[r.off:])
	r.off = len(r.b)
	return nil
}

// PublishProperties is the PUBLISH property set. SubscriptionIdentifier
// may repeat (one per matching subscription) per spec §3's Properties
// invariant; every other field is single-occurrence.
type PublishProperties struct {
	PayloadFormatIndicator bool
	MessageExpiryInterval  uint32
	TopicAlias             uint16
	ResponseTopic          string
	CorrelationData        []byte
	SubscriptionIdentifier []uint32
	ContentType            string
	UserProperty           map[string][]string
}

func (p *PublishProperties) encode(buf *bytes.Buffer) error {
	if p.PayloadFormatIndicator {
		if err := putByteProp(buf, propPayloadFormatIndicator, 1); err != nil {
			return err
		}
	}
	if p.MessageExpiryInterval != 0 {
		if err := putU32Prop(buf, propMessageExpiryInterval, p.MessageExpiryInterval); err != nil {
			return err
		}
	}
	if p.TopicAlias != 0 {
		if err := putU16Prop(buf, propTopicAlias, p.TopicAlias); err != nil {
			return err
		}
	}
	if p.ResponseTopic != "" {
		if err := putUTF8Prop(buf, propResponseTopic, p.ResponseTopic); err != nil {
			return err
		}
	}
	if len(p.CorrelationData) != 0 {
		if err := putBinaryProp(buf, propCorrelationData, p.CorrelationData); err != nil {
			return err
		}
	}
	for _, id := range p.SubscriptionIdentifier {
		if err := putVarIntProp(buf, propSubscriptionIdentifier, id); err != nil {
			return err
		}
	}
	if p.ContentType != "" {
		if err := putUTF8Prop(buf, propContentType, p.ContentType); err != nil {
			return err
		}
	}
	return putUserProperties(buf, p.UserProperty)
}

func (p *PublishProperties) decode(r *reader, validate bool) error {
	seen := map[byte]bool{}
	for r.remaining() > 0 {
		d, err := decodeProperty(r, KindPublish, seen, validate)
		if err != nil {
			return err
		}
		switch d.id {
		case propPayloadFormatIndicator:
			p.PayloadFormatIndicator = d.u8 != 0
		case propMessageExpiryInterval:
			p.MessageExpiryInterval = d.u32
		case propTopicAlias:
			p.TopicAlias = d.u16
		case propResponseTopic:
			p.ResponseTopic = d.str
		case propCorrelationData:
			p.CorrelationData = d.bin
		case propSubscriptionIdentifier:
			p.SubscriptionIdentifier = append(p.SubscriptionIdentifier, d.u32)
		case propContentType:
			p.ContentType = d.str
		case propUserProperty:
			if p.UserProperty == nil {
				p.UserProperty = map[string][]string{}
			}
			p.UserProperty[d.key] = append(p.UserProperty[d.key], d.str)
		}
	}
	return nil
}
