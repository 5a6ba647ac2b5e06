package packet

import "bytes"

// AUTH carries an enhanced-authentication exchange (spec §4.4/§4.7's
// auth-context handling). Shares the PUB-ack shortened-form rule: reason
// code and properties are omitted entirely iff the reason is Success and
// there are no properties.
type AUTH struct {
	ReasonCode ReasonCode
	Props      *AuthProperties
}

func (pkt *AUTH) Kind() byte { return KindAuth }

func (pkt *AUTH) hasProps() bool { return pkt.Props != nil && pkt.Props.nonEmpty() }

func (pkt *AUTH) encodeBody(buf *bytes.Buffer, _ bool) error {
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

func (pkt *AUTH) decodeBody(r *reader, validate bool) error {
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
	pkt.Props = &AuthProperties{}
	return pkt.Props.decode(propsR, validate)
}

// AuthProperties is the AUTH property set. AuthenticationMethod is
// required whenever AuthenticationData is present; neither the codec nor
// the client engine checks that pairing.
type AuthProperties struct {
	AuthenticationMethod string
	AuthenticationData   []byte
	ReasonString         string
	UserProperty         map[string][]string
}

func (p *AuthProperties) nonEmpty() bool {
	return p.AuthenticationMethod != "" || len(p.AuthenticationData) != 0 || p.ReasonString != "" || len(p.UserProperty) != 0
}

func (p *AuthProperties) encode(buf *bytes.Buffer) error {
	if p.AuthenticationMethod != "" {
		if err := putUTF8Prop(buf, propAuthenticationMethod, p.AuthenticationMethod); err != nil {
			return err
		}
	}
	if len(p.AuthenticationData) != 0 {
		if err := putBinaryProp(buf, propAuthenticationData, p.AuthenticationData); err != nil {
			return err
		}
	}
	if p.ReasonString != "" {
		if err := putUTF8Prop(buf, propReasonString, p.ReasonString); err != nil {
			return err
		}
	}
	return putUserProperties(buf, p.UserProperty)
}

func (p *AuthProperties) decode(r *reader, validate bool) error {
	seen := map[byte]bool{}
	for r.remaining() > 0 {
		d, err := decodeProperty(r, KindAuth, seen, validate)
		if err != nil {
			return err
		}
		switch d.id {
		case propAuthenticationMethod:
			p.AuthenticationMethod = d.str
		case propAuthenticationData:
			p.AuthenticationData = d.bin
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
