package packet

import "bytes"

// PUBACK acknowledges a QoS 1 PUBLISH (spec §4.7 "Publish cycle").
type PUBACK struct{ pubReply }

func (pkt *PUBACK) Kind() byte { return KindPuback }

func (pkt *PUBACK) encodeBody(buf *bytes.Buffer, _ bool) error { return pkt.pubReply.encodeBody(buf) }

func (pkt *PUBACK) decodeBody(r *reader, validate bool) error {
	return pkt.pubReply.decodeBody(r, KindPuback, validate)
}
