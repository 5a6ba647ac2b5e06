package packet

import "bytes"

// PUBREC is the first acknowledgement of a QoS 2 PUBLISH, answered by the
// sender with PUBREL carrying the same packet id (spec §4.7).
type PUBREC struct{ pubReply }

func (pkt *PUBREC) Kind() byte { return KindPubrec }

func (pkt *PUBREC) encodeBody(buf *bytes.Buffer, _ bool) error { return pkt.pubReply.encodeBody(buf) }

func (pkt *PUBREC) decodeBody(r *reader, validate bool) error {
	return pkt.pubReply.decodeBody(r, KindPubrec, validate)
}
