package packet

import "bytes"

// PINGRESP mirrors PINGREQ: 2-byte frame, no body.
type PINGRESP struct{}

func (pkt *PINGRESP) Kind() byte { return KindPingresp }

func (pkt *PINGRESP) encodeBody(_ *bytes.Buffer, _ bool) error { return nil }

func (pkt *PINGRESP) decodeBody(_ *reader, _ bool) error { return nil }
