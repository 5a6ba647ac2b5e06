package packet

import "bytes"

// PUBREL answers PUBREC in a QoS 2 exchange; flags are fixed at 0b0010
// (enforced by requiredFlags/decodeFixedHeader, spec §4.4).
type PUBREL struct{ pubReply }

func (pkt *PUBREL) Kind() byte { return KindPubrel }

func (pkt *PUBREL) encodeBody(buf *bytes.Buffer, _ bool) error { return pkt.pubReply.encodeBody(buf) }

func (pkt *PUBREL) decodeBody(r *reader, validate bool) error {
	return pkt.pubReply.decodeBody(r, KindPubrel, validate)
}
