package packet

import "bytes"

// UNSUBSCRIBE cancels one or more previously requested subscriptions
// (spec §4.4/§4.7). Payload carries bare topic filters, no QoS options.
type UNSUBSCRIBE struct {
	PacketID      uint16
	Props         *UnsubscribeProperties
	Subscriptions []Subscription
}

func (pkt *UNSUBSCRIBE) Kind() byte { return KindUnsubscribe }

func (pkt *UNSUBSCRIBE) encodeBody(buf *bytes.Buffer, validate bool) error {
	if validate && len(pkt.Subscriptions) == 0 {
		return ErrMalformedTopic
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
			return ErrMalformedTopic
		}
		putString(buf, s.TopicFilter)
	}
	return nil
}

func (pkt *UNSUBSCRIBE) decodeBody(r *reader, validate bool) error {
	var err error
	if pkt.PacketID, err = r.u16(); err != nil {
		return err
	}

	propsR, err := readPropsBlock(r)
	if err != nil {
		return err
	}
	pkt.Props = &UnsubscribeProperties{}
	if err := pkt.Props.decode(propsR, validate); err != nil {
		return err
	}

	for r.remaining() > 0 {
		topic, err := r.utf8string(validate)
		if err != nil {
			return err
		}
		pkt.Subscriptions = append(pkt.Subscriptions, Subscription{TopicFilter: topic})
	}
	if validate && len(pkt.Subscriptions) == 0 {
		return ErrMalformedTopic
	}
	return nil
}

// UnsubscribeProperties is the UNSUBSCRIBE property set.
type UnsubscribeProperties struct {
	UserProperty map[string][]string
}

func (p *UnsubscribeProperties) encode(buf *bytes.Buffer) error {
	return putUserProperties(buf, p.UserProperty)
}

func (p *UnsubscribeProperties) decode(r *reader, validate bool) error {
	seen := map[byte]bool{}
	for r.remaining() > 0 {
		d, err := decodeProperty(r, KindUnsubscribe, seen, validate)
		if err != nil {
			return err
		}
		if d.id == propUserProperty {
			if p.UserProperty == nil {
				p.UserProperty = map[string][]string{}
			}
			p.UserProperty[d.key] = append(p.UserProperty[d.key], d.str)
		}
	}
	return nil
}
