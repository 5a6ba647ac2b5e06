package packet

import "bytes"

// PUBCOMP completes a QoS 2 exchange.
type PUBCOMP struct{ pubReply }

func (pkt *PUBCOMP) Kind() byte { return KindPubcomp }

func (pkt *PUBCOMP) encodeBody(buf *bytes.Buffer, _ bool) error { return pkt.pubReply.encodeBody(buf) }

func (pkt *PUBCOMP) decodeBody(r *reader, validate bool) error {
	return pkt.pubReply.decodeBody(r, KindPubcomp, validate)
}
