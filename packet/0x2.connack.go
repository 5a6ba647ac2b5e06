package packet

import "bytes"

// CONNACK is the broker's reply to CONNECT (spec §4.4/§4.7 step 4). Its
// properties drive client-side negotiation: MaximumPacketSize, an assigned
// ClientID, ServerKeepAlive and the authentication fields.
type CONNACK struct {
	SessionPresent bool
	ReasonCode     ReasonCode
	Props          *ConnackProperties
}

func (pkt *CONNACK) Kind() byte { return KindConnack }

func (pkt *CONNACK) encodeBody(buf *bytes.Buffer, _ bool) error {
	var ack byte
	if pkt.SessionPresent {
		ack = 0x01
	}
	buf.WriteByte(ack)
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

func (pkt *CONNACK) decodeBody(r *reader, validate bool) error {
	ack, err := r.byte()
	if err != nil {
		return err
	}
	if ack&0xFE != 0 {
		return ErrMalformedSessionPresent
	}
	pkt.SessionPresent = ack&0x01 != 0

	rc, err := r.byte()
	if err != nil {
		return err
	}
	pkt.ReasonCode = ReasonCode{Code: rc}

	propsR, err := readPropsBlock(r)
	if err != nil {
		return err
	}
	pkt.Props = &ConnackProperties{}
	return pkt.Props.decode(propsR, validate)
}

// ConnackProperties is the CONNACK property set.
type ConnackProperties struct {
	SessionExpiryInterval               uint32
	ReceiveMaximum                      uint16
	MaximumQoS                          uint8
	MaximumQoSPresent                   bool
	RetainAvailable                     bool
	RetainAvailablePresent              bool
	MaximumPacketSize                   uint32
	AssignedClientIdentifier            string
	TopicAliasMaximum                   uint16
	ReasonString                        string
	UserProperty                        map[string][]string
	WildcardSubscriptionAvailable       bool
	SubscriptionIdentifierAvailable     bool
	SharedSubscriptionAvailable         bool
	ServerKeepAlive                     uint16
	ServerKeepAlivePresent              bool
	ResponseInformation                 string
	ServerReference                     string
	AuthenticationMethod                string
	AuthenticationData                  []byte
}

func (p *ConnackProperties) encode(buf *bytes.Buffer) error {
	if p.SessionExpiryInterval != 0 {
		if err := putU32Prop(buf, propSessionExpiryInterval, p.SessionExpiryInterval); err != nil {
			return err
		}
	}
	if p.ReceiveMaximum != 0 {
		if err := putU16Prop(buf, propReceiveMaximum, p.ReceiveMaximum); err != nil {
			return err
		}
	}
	if p.MaximumQoSPresent {
		if err := putByteProp(buf, propMaximumQoS, p.MaximumQoS); err != nil {
			return err
		}
	}
	if p.RetainAvailablePresent {
		if err := putByteProp(buf, propRetainAvailable, boolByte(p.RetainAvailable)); err != nil {
			return err
		}
	}
	if p.MaximumPacketSize != 0 {
		if err := putU32Prop(buf, propMaximumPacketSize, p.MaximumPacketSize); err != nil {
			return err
		}
	}
	if p.AssignedClientIdentifier != "" {
		if err := putUTF8Prop(buf, propAssignedClientIdentifier, p.AssignedClientIdentifier); err != nil {
			return err
		}
	}
	if p.TopicAliasMaximum != 0 {
		if err := putU16Prop(buf, propTopicAliasMaximum, p.TopicAliasMaximum); err != nil {
			return err
		}
	}
	if p.ReasonString != "" {
		if err := putUTF8Prop(buf, propReasonString, p.ReasonString); err != nil {
			return err
		}
	}
	if p.WildcardSubscriptionAvailable {
		if err := putByteProp(buf, propWildcardSubscriptionAvailable, 1); err != nil {
			return err
		}
	}
	if p.SubscriptionIdentifierAvailable {
		if err := putByteProp(buf, propSubscriptionIdentifierAvailable, 1); err != nil {
			return err
		}
	}
	if p.SharedSubscriptionAvailable {
		if err := putByteProp(buf, propSharedSubscriptionAvailable, 1); err != nil {
			return err
		}
	}
	if p.ServerKeepAlivePresent {
		if err := putU16Prop(buf, propServerKeepAlive, p.ServerKeepAlive); err != nil {
			return err
		}
	}
	if p.ResponseInformation != "" {
		if err := putUTF8Prop(buf, propResponseInformation, p.ResponseInformation); err != nil {
			return err
		}
	}
	if p.ServerReference != "" {
		if err := putUTF8Prop(buf, propServerReference, p.ServerReference); err != nil {
			return err
		}
	}
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
	return putUserProperties(buf, p.UserProperty)
}

func (p *ConnackProperties) decode(r *reader, validate bool) error {
	seen := map[byte]bool{}
	for r.remaining() > 0 {
		d, err := decodeProperty(r, KindConnack, seen, validate)
		if err != nil {
			return err
		}
		switch d.id {
		case propSessionExpiryInterval:
			p.SessionExpiryInterval = d.u32
		case propReceiveMaximum:
			p.ReceiveMaximum = d.u16
		case propMaximumQoS:
			p.MaximumQoS, p.MaximumQoSPresent = d.u8, true
		case propRetainAvailable:
			p.RetainAvailable, p.RetainAvailablePresent = d.u8 != 0, true
		case propMaximumPacketSize:
			p.MaximumPacketSize = d.u32
		case propAssignedClientIdentifier:
			p.AssignedClientIdentifier = d.str
		case propTopicAliasMaximum:
			p.TopicAliasMaximum = d.u16
		case propReasonString:
			p.ReasonString = d.str
		case propWildcardSubscriptionAvailable:
			p.WildcardSubscriptionAvailable = d.u8 != 0
		case propSubscriptionIdentifierAvailable:
			p.SubscriptionIdentifierAvailable = d.u8 != 0
		case propSharedSubscriptionAvailable:
			p.SharedSubscriptionAvailable = d.u8 != 0
		case propServerKeepAlive:
			p.ServerKeepAlive, p.ServerKeepAlivePresent = d.u16, true
		case propResponseInformation:
			p.ResponseInformation = d.str
		case propServerReference:
			p.ServerReference = d.str
		case propAuthenticationMethod:
			p.AuthenticationMethod = d.str
		case propAuthenticationData:
			p.AuthenticationData = d.bin
		case propUserProperty:
			if p.UserProperty == nil {
				p.UserProperty = map[string][]string{}
			}
			p.UserProperty[d.key] = append(p.UserProperty[d.key], d.str)
		}
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
