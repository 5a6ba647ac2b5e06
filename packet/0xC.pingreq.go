package packet

import "bytes"

// PINGREQ has no variable header and no payload: the wire frame is exactly
// the 2-byte fixed header `C0 00` (spec §4.4, scenario S2).
type PINGREQ struct{}

func (pkt *PINGREQ) Kind() byte { return KindPingreq }

func (pkt *PINGREQ) encodeBody(_ *bytes.Buffer, _ bool) error { return nil }

func (pkt *PINGREQ) decodeBody(_ *reader, _ bool) error { return nil }
