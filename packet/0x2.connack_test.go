package packet

import "testing"

func TestConnackRoundTrip(t *testing.T) {
	want := &CONNACK{
		SessionPresent: true,
		ReasonCode:     CodeSuccess,
		Props: &ConnackProperties{
			AssignedClientIdentifier: "server-assigned-1",
			ServerKeepAlivePresent:   true,
			ServerKeepAlive:          30,
			MaximumQoSPresent:        true,
			MaximumQoS:               1,
		},
	}
	buf, err := Encode(want, true)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	got, err := Decode(buf, true)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	pkt, ok := got.(*CONNACK)
	if !ok {
		t.Fatalf("expected *CONNACK, got %T", got)
	}
	if !pkt.SessionPresent || pkt.ReasonCode.Code != CodeSuccess.Code {
		t.Errorf("round trip mismatch: got %+v", pkt)
	}
	if pkt.Props.AssignedClientIdentifier != "server-assigned-1" {
		t.Errorf("AssignedClientIdentifier = %q, want server-assigned-1", pkt.Props.AssignedClientIdentifier)
	}
	if !pkt.Props.ServerKeepAlivePresent || pkt.Props.ServerKeepAlive != 30 {
		t.Errorf("ServerKeepAlive = %+v, want present/30", pkt.Props)
	}
	if !pkt.Props.MaximumQoSPresent || pkt.Props.MaximumQoS != 1 {
		t.Errorf("MaximumQoS = %+v, want present/1", pkt.Props)
	}
}

func TestConnackRejectsMalformedSessionPresent(t *testing.T) {
	pkt := &CONNACK{ReasonCode: CodeSuccess, Props: &ConnackProperties{}}
	buf, err := Encode(pkt, true)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	ackByteOffset := len(buf) - (encodedBodyLen(t, pkt))
	buf[ackByteOffset] = 0x02 // only bit 0 may be set
	if _, err := Decode(buf, true); err != ErrMalformedSessionPresent {
		t.Errorf("expected ErrMalformedSessionPresent, got %v", err)
	}
}

// encodedBodyLen returns how many bytes pkt's body encodes to, so callers
// can locate the first body byte within a full Encode() frame without
// hardcoding the fixed header's length.
func encodedBodyLen(t *testing.T, pkt Packet) int {
	t.Helper()
	body := GetBuffer()
	defer PutBuffer(body)
	if err := pkt.encodeBody(body, true); err != nil {
		t.Fatalf("encodeBody() failed: %v", err)
	}
	return body.Len()
}

func TestConnackUnspecifiedErrorReasonCode(t *testing.T) {
	pkt := &CONNACK{ReasonCode: ErrUnspecifiedError, Props: &ConnackProperties{}}
	buf, err := Encode(pkt, true)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	got, err := Decode(buf, true)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if got.(*CONNACK).ReasonCode.Code != ErrUnspecifiedError.Code {
		t.Errorf("ReasonCode = %#x, want %#x", got.(*CONNACK).ReasonCode.Code, ErrUnspecifiedError.Code)
	}
}
