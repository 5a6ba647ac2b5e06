package packet

import "testing"

func TestAuthShortenedFormOnSuccess(t *testing.T) {
	pkt := &AUTH{ReasonCode: CodeSuccess}
	buf, err := Encode(pkt, true)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(buf) != 2 {
		t.Fatalf("shortened AUTH frame = %d bytes, want 2: % X", len(buf), buf)
	}
}

func TestAuthRoundTripContinueAuthentication(t *testing.T) {
	want := &AUTH{
		ReasonCode: CodeContinueAuthentication,
		Props: &AuthProperties{
			AuthenticationMethod: "SCRAM-SHA-1",
			AuthenticationData:   []byte{0x01, 0x02, 0x03},
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
	pkt, ok := got.(*AUTH)
	if !ok {
		t.Fatalf("expected *AUTH, got %T", got)
	}
	if pkt.ReasonCode.Code != CodeContinueAuthentication.Code {
		t.Errorf("ReasonCode = %#x, want %#x", pkt.ReasonCode.Code, CodeContinueAuthentication.Code)
	}
	if pkt.Props.AuthenticationMethod != "SCRAM-SHA-1" {
		t.Errorf("AuthenticationMethod = %q", pkt.Props.AuthenticationMethod)
	}
	if len(pkt.Props.AuthenticationData) != 3 {
		t.Errorf("AuthenticationData = % X, want 01 02 03", pkt.Props.AuthenticationData)
	}
}

func TestAuthReAuthenticate(t *testing.T) {
	pkt := &AUTH{ReasonCode: CodeReAuthenticate, Props: &AuthProperties{AuthenticationMethod: "SCRAM-SHA-1"}}
	buf, err := Encode(pkt, true)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	got, err := Decode(buf, true)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if got.(*AUTH).ReasonCode.Code != CodeReAuthenticate.Code {
		t.Errorf("ReasonCode = %#x, want %#x", got.(*AUTH).ReasonCode.Code, CodeReAuthenticate.Code)
	}
}
