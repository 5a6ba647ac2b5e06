package packet

import "testing"

func TestPubrecRoundTrip(t *testing.T) {
	pkt := &PUBREC{}
	pkt.PacketID = 8
	pkt.ReasonCode = CodeSuccess
	buf, err := Encode(pkt, true)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	got, err := Decode(buf, true)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	rec, ok := got.(*PUBREC)
	if !ok {
		t.Fatalf("expected *PUBREC, got %T", got)
	}
	if rec.PacketID != 8 || rec.ReasonCode.Code != CodeSuccess.Code {
		t.Errorf("round trip mismatch: got %+v", rec)
	}
}

func TestPubrecShortenedForm(t *testing.T) {
	pkt := &PUBREC{}
	pkt.PacketID = 8
	pkt.ReasonCode = CodeSuccess
	buf, err := Encode(pkt, true)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(buf) != 4 {
		t.Fatalf("shortened PUBREC frame = %d bytes, want 4: % X", len(buf), buf)
	}
}

func TestPubrecPacketIdentifierNotFound(t *testing.T) {
	pkt := &PUBREC{}
	pkt.PacketID = 8
	pkt.ReasonCode = ErrPacketIdentifierNotFound
	buf, err := Encode(pkt, true)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	got, err := Decode(buf, true)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if got.(*PUBREC).ReasonCode.Code != ErrPacketIdentifierNotFound.Code {
		t.Errorf("ReasonCode = %#x, want %#x", got.(*PUBREC).ReasonCode.Code, ErrPacketIdentifierNotFound.Code)
	}
}
