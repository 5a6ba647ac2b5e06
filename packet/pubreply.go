package packet

import "bytes"

// pubReply is the shared {packetId, [reasonCode, properties]} shape of
// PUBACK, PUBREC, PUBREL and PUBCOMP (spec §4.4). The reason code and
// properties are omitted when the reason is Success and no properties are
// set; that shortened form must be both produced and accepted.
type pubReply struct {
	PacketID     uint16
	ReasonCode   ReasonCode
	ReasonString string
	UserProperty map[string][]string
}

func (p *pubReply) hasProps() bool {
	return p.ReasonString != "" || len(p.UserProperty) != 0
}

func (p *pubReply) encodeBody(buf *bytes.Buffer) error {
	putU16(buf, p.PacketID)
	if p.ReasonCode.Code == CodeSuccess.Code && !p.hasProps() {
		return nil
	}
	buf.WriteByte(p.ReasonCode.Code)
	props := GetBuffer()
	defer PutBuffer(props)
	if p.ReasonString != "" {
		if err := putUTF8Prop(props, propReasonString, p.ReasonString); err != nil {
			return err
		}
	}
	if err := putUserProperties(props, p.UserProperty); err != nil {
		return err
	}
	return writePropsBlock(buf, props.Bytes())
}

func (p *pubReply) decodeBody(r *reader, kind byte, validate bool) error {
	id, err := r.u16()
	if err != nil {
		return err
	}
	p.PacketID = id
	if r.remaining() == 0 {
		p.ReasonCode = CodeSuccess
		return nil
	}
	rc, err := r.byte()
	if err != nil {
		return err
	}
	p.ReasonCode = ReasonCode{Code: rc}
	if r.remaining() == 0 {
		// Some encoders omit the (now zero-length) properties block
		// entirely once a non-default reason code forces them to write
		// the code byte; tolerate it rather than demanding the trailing
		// 0x00 length byte.
		return nil
	}
	propsR, err := readPropsBlock(r)
	if err != nil {
		return err
	}
	seen := map[byte]bool{}
	for propsR.remaining() > 0 {
		d, err := decodeProperty(propsR, kind, seen, validate)
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
