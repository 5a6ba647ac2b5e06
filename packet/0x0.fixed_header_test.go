package packet

import "testing"

func TestFixedHeaderEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		header *FixedHeader
	}{
		{"CONNECT_Empty", &FixedHeader{Kind: KindConnect, RemainingLength: 0}},
		{"PUBLISH_QoS1", &FixedHeader{Kind: KindPublish, QoS: 1, RemainingLength: 10}},
		{"PUBLISH_QoS2Dup", &FixedHeader{Kind: KindPublish, Dup: 1, QoS: 2, RemainingLength: 10}},
		{"SUBSCRIBE_FixedFlags", &FixedHeader{Kind: KindSubscribe, QoS: 1, RemainingLength: 20}},
		{"LargeRemainingLength", &FixedHeader{Kind: KindPublish, RemainingLength: 2097152}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := tc.header.encode()
			if err != nil {
				t.Fatalf("encode() failed: %v", err)
			}
			r := newReader(encoded)
			decoded, err := decodeFixedHeader(r)
			if err != nil {
				t.Fatalf("decodeFixedHeader() failed: %v", err)
			}
			if decoded.Kind != tc.header.Kind || decoded.Dup != tc.header.Dup ||
				decoded.QoS != tc.header.QoS || decoded.Retain != tc.header.Retain ||
				decoded.RemainingLength != tc.header.RemainingLength {
				t.Errorf("round trip mismatch: got %+v, want %+v", decoded, tc.header)
			}
		})
	}
}

func TestFixedHeaderWireBytes(t *testing.T) {
	cases := []struct {
		name   string
		header *FixedHeader
		want   []byte
	}{
		{"CONNECT_Empty", &FixedHeader{Kind: KindConnect, RemainingLength: 0}, []byte{0x10, 0x00}},
		{"PUBLISH_QoS1", &FixedHeader{Kind: KindPublish, QoS: 1, RemainingLength: 10}, []byte{0x32, 0x0A}},
		{"SUBSCRIBE_QoS1", &FixedHeader{Kind: KindSubscribe, QoS: 1, RemainingLength: 20}, []byte{0x82, 0x14}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.header.encode()
			if err != nil {
				t.Fatalf("encode() failed: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("encode() = % X, want % X", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("encode() = % X, want % X", got, tc.want)
				}
			}
		})
	}
}

func TestFixedHeaderPingreqExactBytes(t *testing.T) {
	// Scenario S2: PINGREQ is a fixed 2-byte wire form with no body.
	buf, err := Encode(&PINGREQ{}, true)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(buf) != 2 || buf[0] != 0xC0 || buf[1] != 0x00 {
		t.Fatalf("PINGREQ wire form = % X, want C0 00", buf)
	}
}

func TestFixedHeaderRemainingLengthTooLarge(t *testing.T) {
	h := &FixedHeader{Kind: KindPublish, RemainingLength: varIntMax4 + 1}
	if _, err := h.encode(); err == nil {
		t.Error("encode() should reject a remaining length above the 4-byte VarInt range")
	}
}

func TestFixedHeaderRejectsFixedFlagViolation(t *testing.T) {
	// SUBSCRIBE's flags are fixed at DUP=0, QoS=1, RETAIN=0 (MQTT-2.1.3-1).
	encoded := []byte{byte(KindSubscribe)<<4 | 0x00, 0x00}
	if _, err := decodeFixedHeader(newReader(encoded)); err != ErrMalformedFlags {
		t.Errorf("expected ErrMalformedFlags for a SUBSCRIBE with flags=0, got %v", err)
	}
}

func TestFixedHeaderRejectsPublishQosOutOfRange(t *testing.T) {
	encoded := []byte{byte(KindPublish)<<4 | 0x06, 0x00} // QoS bits = 3
	if _, err := decodeFixedHeader(newReader(encoded)); err != ErrProtocolViolationQosOutOfRange {
		t.Errorf("expected ErrProtocolViolationQosOutOfRange, got %v", err)
	}
}

func TestFixedHeaderIncompleteDataWantsMore(t *testing.T) {
	if _, err := decodeFixedHeader(newReader(nil)); err != ErrNotEnoughData {
		t.Errorf("expected ErrNotEnoughData for an empty slice, got %v", err)
	}
	if _, err := decodeFixedHeader(newReader([]byte{0x10})); err != ErrNotEnoughData {
		t.Errorf("expected ErrNotEnoughData when the Remaining Length byte is missing, got %v", err)
	}
}
