package packet

import "bytes"

// DISCONNECT ends a connection, either party-initiated (spec §4.4/§4.7).
// Shares the PUB-ack shortened-form rule: reason code and properties are
// omitted entirely iff the reason is NormalDisconnection/Success and there
// are no properties.
type DISCONNECT struct {
	ReasonCode ReasonCode
	Props      *DisconnectProperties
}

func (pkt *DISCONNECT) Kind() byte { return KindDisconnect }

func (pkt *DISCONNECT) hasProps() bool { return pkt.Props != nil && pkt.Props.nonEmpty() }

func (pkt *DISCONNECT) encodeBody(buf *bytes.Buffer, _ bool) error {
	if pkt.ReasonCode.Code == CodeSuccess.Code && !pkt.hasProps() {
		return nil
	}
	buf.WriteByte(pkt.ReasonCode.Code)
	props := GetBuffer()
	defer PutBuffer(props)
	if pkt.Props != nil {
		if err := pkt.Props.encode(props); err != nil {
			return err
		}
	}
	return writePropsBlock(buf, props.Bytes())
}

func (pkt *DISCONNECT) decodeBody(r *reader, validate bool) error {
	if r.remaining() == 0 {
		pkt.ReasonCode = CodeSuccess
		return nil
	}
	rc, err := r.byte()
	if err != nil {
		return err
	}
	pkt.ReasonCode = ReasonCode{Code: rc}

	if r.remaining() == 0 {
		return nil
	}
	propsR, err := readPropsBlock(r)
	if err != nil {
		return err
	}
	pkt.Props = &DisconnectProperties{}
	return pkt.Props.decode(propsR, validate)
}

// DisconnectProperties is the DISCONNECT property set. A server must never
// send SessionExpiryInterval here (spec calls this out as a protocol
// violation the client should reject); this codec does not itself enforce
// that directionality, since it has no notion of which side it is.
type DisconnectProperties struct {
	SessionExpiryInterval uint32
	ReasonString          string
	ServerReference       string
	UserProperty          map[string][]string
}

func (p *DisconnectProperties) nonEmpty() bool {
	return p.SessionExpiryInterval != 0 || p.ReasonString != "" || p.ServerReference != "" || len(p.UserProperty) != 0
}

func (p *DisconnectProperties) encode(buf *bytes.Buffer) error {
	if p.SessionExpiryInterval != 0 {
		if err := putU32Prop(buf, propSessionExpiryInterval, p.SessionExpiryInterval); err != nil {
			return err
		}
	}
	if p.ReasonString != "" {
		if err := putUTF8Prop(buf, propReasonString, p.ReasonString); err != nil {
			return err
		}
	}
	if p.ServerReference != "" {
		if err := putUTF8Prop(buf, propServerReference, p.ServerReference); err != nil {
			return err
		}
	}
	return putUserProperties(buf, p.UserProperty)
}

func (p *DisconnectProperties) decode(r *reader, validate bool) error {
	seen := map[byte]bool{}
	for r.remaining() > 0 {
		d, err := decodeProperty(r, KindDisconnect, seen, validate)
		if err != nil {
			return err
		}
		switch d.id {
		case propSessionExpiryInterval:
			p.SessionExpiryInterval = d.u32
		case propReasonString:
			p.ReasonString = d.str
		case propServerReference:
			p.ServerReference = d.str
		case propUserProperty:
			if p.UserProperty == nil {
				p.UserProperty = map[string][]string{}
			}
			p.UserProperty[d.key] = append(p.UserProperty[d.key], d.str)
		}
	}
	return nil
}
