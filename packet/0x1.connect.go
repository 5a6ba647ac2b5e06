package packet

import "bytes"

var protocolName = []byte("MQTT")

const protocolLevel5 = 0x05

// CONNECT opens a session (spec §4.4/§4.7). Flags byte bit layout:
// {username, password, will-retain, will-qos(2), will-flag, clean-start,
// reserved(0)}.
type CONNECT struct {
	CleanStart bool
	KeepAlive  uint16
	ClientID   string
	Props      *ConnectProperties

	WillFlag    bool
	WillQoS     uint8
	WillRetain  bool
	WillProps   *WillProperties
	WillTopic   string
	WillPayload []byte

	HasUsername bool
	Username    string
	HasPassword bool
	Password    string
}

func (pkt *CONNECT) Kind() byte { return KindConnect }

func (pkt *CONNECT) encodeBody(buf *bytes.Buffer, _ bool) error {
	putBinary(buf, protocolName)
	buf.WriteByte(protocolLevel5)

	var f byte
	if pkt.HasUsername {
		f |= 0x80
	}
	if pkt.HasPassword {
		f |= 0x40
	}
	if pkt.WillFlag {
		f |= 0x04
		if pkt.WillRetain {
			f |= 0x20
		}
		f |= pkt.WillQoS << 3
	}
	if pkt.CleanStart {
		f |= 0x02
	}
	buf.WriteByte(f)

	putU16(buf, pkt.KeepAlive)

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

	putString(buf, pkt.ClientID)

	if pkt.WillFlag {
		wprops := GetBuffer()
		defer PutBuffer(wprops)
		if pkt.WillProps != nil {
			if err := pkt.WillProps.encode(wprops); err != nil {
				return err
			}
		}
		if err := writePropsBlock(buf, wprops.Bytes()); err != nil {
			return err
		}
		putString(buf, pkt.WillTopic)
		putBinary(buf, pkt.WillPayload)
	}
	if pkt.HasUsername {
		putString(buf, pkt.Username)
	}
	if pkt.HasPassword {
		putString(buf, pkt.Password)
	}
	return nil
}

func (pkt *CONNECT) decodeBody(r *reader, validate bool) error {
	name, err := r.binary()
	if err != nil {
		return err
	}
	if !bytes.Equal(name, protocolName) {
		return ErrMalformedProtocolName
	}
	level, err := r.byte()
	if err != nil {
		return err
	}
	if level != protocolLevel5 {
		return ErrUnsupportedProtocolVersion
	}
	f, err := r.byte()
	if err != nil {
		return err
	}
	if f&0x01 != 0 {
		return ErrProtocolViolationReservedBit
	}
	pkt.HasUsername = f&0x80 != 0
	pkt.HasPassword = f&0x40 != 0
	pkt.WillRetain = f&0x20 != 0
	pkt.WillQoS = f & 0x18 >> 3
	pkt.WillFlag = f&0x04 != 0
	pkt.CleanStart = f&0x02 != 0
	if pkt.WillQoS > 2 {
		return ErrProtocolViolationQosOutOfRange
	}
	if !pkt.WillFlag && (pkt.WillQoS != 0 || pkt.WillRetain) {
		return ErrProtocolViolationWillFlagSurplusRetain
	}

	if pkt.KeepAlive, err = r.u16(); err != nil {
		return err
	}

	propsR, err := readPropsBlock(r)
	if err != nil {
		return err
	}
	pkt.Props = &ConnectProperties{}
	if err := pkt.Props.decode(propsR, validate); err != nil {
		return err
	}

	if pkt.ClientID, err = r.utf8string(validate); err != nil {
		return err
	}

	if pkt.WillFlag {
		wpropsR, err := readPropsBlock(r)
		if err != nil {
			return err
		}
		pkt.WillProps = &WillProperties{}
		if err := pkt.WillProps.decode(wpropsR, validate); err != nil {
			return err
		}
		if pkt.WillTopic, err = r.utf8string(validate); err != nil {
			return err
		}
		if pkt.WillPayload, err = r.binary(); err != nil {
			return err
		}
	}
	if pkt.HasUsername {
		if pkt.Username, err = r.utf8string(validate); err != nil {
			return err
		}
	}
	if pkt.HasPassword {
		if pkt.Password, err = r.utf8string(validate); err != nil {
			return err
		}
	}
	return nil
}

// ConnectProperties is the CONNECT variable-header property set (spec
// §4.7 step 1: PacketSizeMax is carried here as MaximumPacketSize).
type ConnectProperties struct {
	SessionExpiryInterval      uint32
	ReceiveMaximum             uint16
	MaximumPacketSize          uint32
	TopicAliasMaximum          uint16
	RequestResponseInformation bool
	RequestProblemInformation  bool
	AuthenticationMethod       string
	AuthenticationData         []byte
	UserProperty               map[string][]string
}

func (p *ConnectProperties) encode(buf *bytes.Buffer) error {
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
	if p.MaximumPacketSize != 0 {
		if err := putU32Prop(buf, propMaximumPacketSize, p.MaximumPacketSize); err != nil {
			return err
		}
	}
	if p.TopicAliasMaximum != 0 {
		if err := putU16Prop(buf, propTopicAliasMaximum, p.TopicAliasMaximum); err != nil {
			return err
		}
	}
	if p.RequestResponseInformation {
		if err := putByteProp(buf, propRequestResponseInformation, 1); err != nil {
			return err
		}
	}
	if p.RequestProblemInformation {
		if err := putByteProp(buf, propRequestProblemInformation, 1); err != nil {
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

func (p *ConnectProperties) decode(r *reader, validate bool) error {
	seen := map[byte]bool{}
	for r.remaining() > 0 {
		d, err := decodeProperty(r, KindConnect, seen, validate)
		if err != nil {
			return err
		}
		switch d.id {
		case propSessionExpiryInterval:
			p.SessionExpiryInterval = d.u32
		case propReceiveMaximum:
			p.ReceiveMaximum = d.u16
		case propMaximumPacketSize:
			p.MaximumPacketSize = d.u32
		case propTopicAliasMaximum:
			p.TopicAliasMaximum = d.u16
		case propRequestResponseInformation:
			p.RequestResponseInformation = d.u8 != 0
		case propRequestProblemInformation:
			p.RequestProblemInformation = d.u8 != 0
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

// WillProperties is the property set of the optional Will Message carried
// in CONNECT's payload.
type WillProperties struct {
	WillDelayInterval      uint32
	PayloadFormatIndicator bool
	MessageExpiryInterval  uint32
	ContentType            string
	ResponseTopic          string
	CorrelationData        []byte
	UserProperty           map[string][]string
}

func (p *WillProperties) encode(buf *bytes.Buffer) error {
	if p.WillDelayInterval != 0 {
		if err := putU32Prop(buf, propWillDelayInterval, p.WillDelayInterval); err != nil {
			return err
		}
	}
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
	if p.ContentType != "" {
		if err := putUTF8Prop(buf, propContentType, p.ContentType); err != nil {
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
	return putUserProperties(buf, p.UserProperty)
}

func (p *WillProperties) decode(r *reader, validate bool) error {
	seen := map[byte]bool{}
	for r.remaining() > 0 {
		d, err := decodeProperty(r, kindWill, seen, validate)
		if err != nil {
			return err
		}
		switch d.id {
		case propWillDelayInterval:
			p.WillDelayInterval = d.u32
		case propPayloadFormatIndicator:
			p.PayloadFormatIndicator = d.u8 != 0
		case propMessageExpiryInterval:
			p.MessageExpiryInterval = d.u32
		case propContentType:
			p.ContentType = d.str
		case propResponseTopic:
			p.ResponseTopic = d.str
		case propCorrelationData:
			p.CorrelationData = d.bin
		case propUserProperty:
			if p.UserProperty == nil {
				p.UserProperty = map[string][]string{}
			}
			p.UserProperty[d.key] = append(p.UserProperty[d.key], d.str)
		}
	}
	return nil
}
