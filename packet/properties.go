package packet

import "bytes"

// Shared property codec (spec §4.3). Every MQTT5 property has a fixed
// identifier, a fixed value type, and a fixed set of packet kinds it may
// legally appear in; this file is the single id -> (type, legality) table
// that every packet's *Properties struct decodes and encodes against,
// instead of each packet re-deriving its own id/type switch as the
// pre-rework packet/props.go did per packet type.

type valueKind uint8

const (
	kindByteV valueKind = iota
	kindU16V
	kindU32V
	kindVarIntV
	kindUTF8V
	kindBinaryV
	kindStringPairV
)

// Property identifiers, MQTT v5.0 §2.2.2.2.
const (
	propPayloadFormatIndicator          byte = 0x01
	propMessageExpiryInterval           byte = 0x02
	propContentType                     byte = 0x03
	propResponseTopic                   byte = 0x08
	propCorrelationData                 byte = 0x09
	propSubscriptionIdentifier          byte = 0x0B
	propSessionExpiryInterval           byte = 0x11
	propAssignedClientIdentifier        byte = 0x12
	propServerKeepAlive                 byte = 0x13
	propAuthenticationMethod            byte = 0x15
	propAuthenticationData              byte = 0x16
	propRequestProblemInformation       byte = 0x17
	propWillDelayInterval               byte = 0x18
	propRequestResponseInformation      byte = 0x19
	propResponseInformation             byte = 0x1A
	propServerReference                 byte = 0x1C
	propReasonString                    byte = 0x1F
	propReceiveMaximum                  byte = 0x21
	propTopicAliasMaximum               byte = 0x22
	propTopicAlias                      byte = 0x23
	propMaximumQoS                      byte = 0x24
	propRetainAvailable                 byte = 0x25
	propUserProperty                    byte = 0x26
	propMaximumPacketSize                byte = 0x27
	propWildcardSubscriptionAvailable   byte = 0x28
	propSubscriptionIdentifierAvailable byte = 0x29
	propSharedSubscriptionAvailable     byte = 0x2A
)

// kindWill is a pseudo packet-kind used only to key the legality table: the
// CONNECT Will properties sub-structure has its own legal property set
// distinct from CONNECT's own variable header properties.
const kindWill byte = 0x10

type propertyMeta struct {
	kind  valueKind
	legal map[byte]bool
}

func legalIn(kinds ...byte) map[byte]bool {
	m := make(map[byte]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

var properties = map[byte]propertyMeta{
	propPayloadFormatIndicator:          {kindByteV, legalIn(KindPublish, kindWill)},
	propMessageExpiryInterval:           {kindU32V, legalIn(KindPublish, kindWill)},
	propContentType:                     {kindUTF8V, legalIn(KindPublish, kindWill)},
	propResponseTopic:                   {kindUTF8V, legalIn(KindPublish, kindWill)},
	propCorrelationData:                 {kindBinaryV, legalIn(KindPublish, kindWill)},
	propSubscriptionIdentifier:          {kindVarIntV, legalIn(KindPublish, KindSubscribe)},
	propSessionExpiryInterval:           {kindU32V, legalIn(KindConnect, KindConnack, KindDisconnect)},
	propAssignedClientIdentifier:        {kindUTF8V, legalIn(KindConnack)},
	propServerKeepAlive:                 {kindU16V, legalIn(KindConnack)},
	propAuthenticationMethod:            {kindUTF8V, legalIn(KindConnect, KindConnack, KindAuth)},
	propAuthenticationData:              {kindBinaryV, legalIn(KindConnect, KindConnack, KindAuth)},
	propRequestProblemInformation:       {kindByteV, legalIn(KindConnect)},
	propWillDelayInterval:               {kindU32V, legalIn(kindWill)},
	propRequestResponseInformation:      {kindByteV, legalIn(KindConnect)},
	propResponseInformation:             {kindUTF8V, legalIn(KindConnack)},
	propServerReference:                 {kindUTF8V, legalIn(KindConnack, KindDisconnect)},
	propReasonString: {kindUTF8V, legalIn(KindConnack, KindPuback, KindPubrec, KindPubrel,
		KindPubcomp, KindSuback, KindUnsuback, KindDisconnect, KindAuth)},
	propReceiveMaximum:                  {kindU16V, legalIn(KindConnect, KindConnack)},
	propTopicAliasMaximum:               {kindU16V, legalIn(KindConnect, KindConnack)},
	propTopicAlias:                      {kindU16V, legalIn(KindPublish)},
	propMaximumQoS:                      {kindByteV, legalIn(KindConnack)},
	propRetainAvailable:                 {kindByteV, legalIn(KindConnack)},
	propUserProperty: {kindStringPairV, legalIn(KindConnect, KindConnack, KindPublish, kindWill,
		KindPuback, KindPubrec, KindPubrel, KindPubcomp, KindSubscribe, KindSuback,
		KindUnsubscribe, KindUnsuback, KindDisconnect, KindAuth)},
	propMaximumPacketSize:               {kindU32V, legalIn(KindConnect, KindConnack)},
	propWildcardSubscriptionAvailable:   {kindByteV, legalIn(KindConnack)},
	propSubscriptionIdentifierAvailable: {kindByteV, legalIn(KindConnack)},
	propSharedSubscriptionAvailable:     {kindByteV, legalIn(KindConnack)},
}

// decodedProperty is the generic value produced while iterating an
// unknown-in-advance property list; callers switch on id and pull the
// field matching that id's kind.
type decodedProperty struct {
	id  byte
	u8  byte
	u16 uint16
	u32 uint32
	str string
	key string // populated alongside str for string-pair properties
	bin []byte
}

// decodeProperty reads one {id, value} pair. packetKind selects the
// legality table used when validate is true; seen accumulates ids observed
// so far in this list so that non-repeatable ids are rejected on a second
// occurrence (UserProperty and SubscriptionIdentifier are the only
// repeatable ids).
func decodeProperty(r *reader, packetKind byte, seen map[byte]bool, validate bool) (decodedProperty, error) {
	id32, err := r.varint()
	if err != nil {
		return decodedProperty{}, err
	}
	id := byte(id32)
	meta, ok := properties[id]
	if !ok {
		return decodedProperty{}, ErrMalformedBadProperty
	}
	if validate {
		if !meta.legal[packetKind] {
			return decodedProperty{}, ErrProtocolViolationUnsupportedProperty
		}
		repeatable := id == propUserProperty || id == propSubscriptionIdentifier
		if !repeatable {
			if seen[id] {
				return decodedProperty{}, ErrMalformedProperties
			}
			seen[id] = true
		}
	}
	d := decodedProperty{id: id}
	switch meta.kind {
	case kindByteV:
		d.u8, err = r.byte()
	case kindU16V:
		d.u16, err = r.u16()
	case kindU32V:
		d.u32, err = r.u32()
	case kindVarIntV:
		d.u32, err = r.varint()
	case kindUTF8V:
		d.str, err = r.utf8string(validate)
	case kindBinaryV:
		d.bin, err = r.binary()
	case kindStringPairV:
		d.key, d.str, err = r.stringPair(validate)
	}
	if err != nil {
		return decodedProperty{}, err
	}
	return d, nil
}

func putByteProp(buf *bytes.Buffer, id, v byte) error {
	if err := putVarInt(buf, uint32(id)); err != nil {
		return err
	}
	buf.WriteByte(v)
	return nil
}

func putU16Prop(buf *bytes.Buffer, id byte, v uint16) error {
	if err := putVarInt(buf, uint32(id)); err != nil {
		return err
	}
	putU16(buf, v)
	return nil
}

func putU32Prop(buf *bytes.Buffer, id byte, v uint32) error {
	if err := putVarInt(buf, uint32(id)); err != nil {
		return err
	}
	putU32(buf, v)
	return nil
}

func putVarIntProp(buf *bytes.Buffer, id byte, v uint32) error {
	if err := putVarInt(buf, uint32(id)); err != nil {
		return err
	}
	return putVarInt(buf, v)
}

func putUTF8Prop(buf *bytes.Buffer, id byte, v string) error {
	if err := putVarInt(buf, uint32(id)); err != nil {
		return err
	}
	putString(buf, v)
	return nil
}

func putBinaryProp(buf *bytes.Buffer, id byte, v []byte) error {
	if err := putVarInt(buf, uint32(id)); err != nil {
		return err
	}
	putBinary(buf, v)
	return nil
}

func putUserProperties(buf *bytes.Buffer, m map[string][]string) error {
	for k, vs := range m {
		for _, v := range vs {
			if err := putVarInt(buf, uint32(propUserProperty)); err != nil {
				return err
			}
			putStringPair(buf, k, v)
		}
	}
	return nil
}

// writePropsBlock prefixes propBytes with its VarInt total length and
// appends it to buf, per spec §4.3 ("totalLength == 0 means no
// properties").
func writePropsBlock(buf *bytes.Buffer, propBytes []byte) error {
	if err := putVarInt(buf, uint32(len(propBytes))); err != nil {
		return err
	}
	buf.Write(propBytes)
	return nil
}

// readPropsBlock reads the VarInt property-list length then returns a
// reader scoped to exactly that many bytes.
func readPropsBlock(r *reader) (*reader, error) {
	n, err := r.varint()
	if err != nil {
		return nil, err
	}
	b, err := r.bytesN(int(n))
	if err != nil {
		return nil, err
	}
	return newReader(b), nil
}
