package packet

import "bytes"

// UNSUBACK answers UNSUBSCRIBE with one reason code per requested filter,
// in request order (spec §4.4/§4.7).
type UNSUBACK struct {
	PacketID   uint16
	Props      *UnsubackProperties
	ReasonCode []ReasonCode
}

func (pkt *UNSUBACK) Kind() byte { return KindUnsuback }

func (pkt *UNSUBACK) encodeBody(buf *bytes.Buffer, validate bool) error {
	if validate && len(pkt.ReasonCode) == 0 {
		return ErrMalformedReasonCode
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
	for _, rc := range pkt.ReasonCode {
		buf.WriteByte(rc.Code)
	}
	return nil
}

func (pkt *UNSUBACK) decodeBody(r *reader, validate bool) error {
	var err error
	if pkt.PacketID, err = r.u16(); err != nil {
		return err
	}

	propsR, err := readPropsBlock(r)
	if err != nil {
		return err
	}
	pkt.Props = &UnsubackProperties{}
	if err := pkt.Props.decode(propsR, validate); err != nil {
		return err
	}

	for r.remaining() > 0 {
		b, err := r.byte()
		if err != nil {
			return err
		}
		pkt.ReasonCode = append(pkt.ReasonCode, ReasonCode{Code: b})
	}
	if validate && len(pkt.ReasonCode) == 0 {
		return ErrMalformedReasonCode
	}
	return nil
}

// UnsubackProperties is the UNSUBACK property set.
type UnsubackProperties struct {
	ReasonString string
	UserProperty map[string][]string
}

func (p *UnsubackProperties) encode(buf *bytes.Buffer) error {
	if p.ReasonString != "" {
		if err := putUTF8Prop(buf, propReasonString, p.ReasonString); err != nil {
			return err
		}
	}
	return putUserProperties(buf, p.UserProperty)
}

func (p *UnsubackProperties) decode(r *reader, validate bool) error {
	seen := map[byte]bool{}
	for r.remaining() > 0 {
		d, err := decodeProperty(r, KindUnsuback, seen, validate)
		if err != nil {
			return err
		}
		switch d.id {
		case propReasonString:
			p.ReasonString = d.str
		case propUserProperty:
			if p.UserProperty == nil {
				p.UserProperty = map[string][]string{}
			}
			p.UserProperty[d.key] = append(p.UserProperty[d.key], d.str)
		}
	}
	return nil
}
