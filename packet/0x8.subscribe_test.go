package packet

import "testing"

func TestSubscribeRoundTrip(t *testing.T) {
	want := &SUBSCRIBE{
		PacketID: 11,
		Props:    &SubscribeProperties{SubscriptionIdentifier: 5},
		Subscriptions: []Subscription{
			{TopicFilter: "a/#", MaximumQoS: 1},
			{TopicFilter: "b/+/c", MaximumQoS: 2, NoLocal: true, RetainAsPublished: true, RetainHandling: 1},
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
	pkt, ok := got.(*SUBSCRIBE)
	if !ok {
		t.Fatalf("expected *SUBSCRIBE, got %T", got)
	}
	if pkt.PacketID != 11 || pkt.Props.SubscriptionIdentifier != 5 {
		t.Errorf("round trip mismatch: got %+v", pkt)
	}
	if len(pkt.Subscriptions) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(pkt.Subscriptions))
	}
	first, second := pkt.Subscriptions[0], pkt.Subscriptions[1]
	if first.TopicFilter != "a/#" || first.MaximumQoS != 1 {
		t.Errorf("first subscription mismatch: %+v", first)
	}
	if second.TopicFilter != "b/+/c" || second.MaximumQoS != 2 || !second.NoLocal || !second.RetainAsPublished || second.RetainHandling != 1 {
		t.Errorf("second subscription mismatch: %+v", second)
	}
}

func TestSubscribeFixedFlags(t *testing.T) {
	pkt := &SUBSCRIBE{PacketID: 1, Props: &SubscribeProperties{}, Subscriptions: []Subscription{{TopicFilter: "a"}}}
	buf, err := Encode(pkt, true)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if buf[0]&0x0F != 0b0010 {
		t.Errorf("SUBSCRIBE flags nibble = %04b, want 0010 (MQTT-2.1.3-1)", buf[0]&0x0F)
	}
}

func TestSubscribeRejectsNoFilters(t *testing.T) {
	pkt := &SUBSCRIBE{PacketID: 1, Props: &SubscribeProperties{}}
	if _, err := Encode(pkt, true); err != ErrProtocolViolationNoTopic {
		t.Errorf("expected ErrProtocolViolationNoTopic, got %v", err)
	}
}

func TestSubscriptionOptionsByteRoundTrip(t *testing.T) {
	want := Subscription{MaximumQoS: 2, NoLocal: true, RetainAsPublished: true, RetainHandling: 2}
	var got Subscription
	if err := got.setOptionsByte(want.optionsByte()); err != nil {
		t.Fatalf("setOptionsByte() failed: %v", err)
	}
	if got != want {
		t.Errorf("options byte round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestSubscriptionRejectsReservedBits(t *testing.T) {
	var s Subscription
	if err := s.setOptionsByte(0xC0); err != ErrProtocolViolationReservedBit {
		t.Errorf("expected ErrProtocolViolationReservedBit for reserved bits 6-7, got %v", err)
	}
}

func TestSubscriptionRejectsQosOutOfRange(t *testing.T) {
	var s Subscription
	if err := s.setOptionsByte(0x03); err != ErrProtocolViolationQosOutOfRange {
		t.Errorf("expected ErrProtocolViolationQosOutOfRange for MaximumQoS=3, got %v", err)
	}
}
