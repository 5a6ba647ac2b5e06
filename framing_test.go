package mqtt

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/golang-io/mqttc/packet"
)

func TestFramingEngineAssemblesMultiByteFrame(t *testing.T) {
	clientSide, brokerSide := net.Pipe()
	defer clientSide.Close()
	defer brokerSide.Close()

	want := &packet.PUBLISH{
		TopicName: "sensors/temp",
		QoS:       1,
		PacketID:  7,
		Props:     &packet.PublishProperties{},
		Payload:   []byte("a payload long enough to push the remaining length past a single VarInt byte, padding padding padding padding padding"),
	}
	full, err := packet.Encode(want, true)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(full) < 130 {
		t.Fatalf("test frame too short to exercise a multi-byte remaining length: %d bytes", len(full))
	}

	go func() { _, _ = brokerSide.Write(full) }()

	transport := &streamTransport{conn: clientSide}
	engine := newFramingEngine(4096)
	frame, err := engine.Step(transport, 2*time.Second)
	if err != nil {
		t.Fatalf("Step() failed: %v", err)
	}
	if string(frame) != string(full) {
		t.Fatalf("assembled frame = % X, want % X", frame, full)
	}
}

func TestFramingEngineShortFrameShortcut(t *testing.T) {
	clientSide, brokerSide := net.Pipe()
	defer clientSide.Close()
	defer brokerSide.Close()

	go func() { _, _ = brokerSide.Write([]byte{0xD0, 0x00}) }()

	transport := &streamTransport{conn: clientSide}
	engine := newFramingEngine(4096)
	frame, err := engine.Step(transport, time.Second)
	if err != nil {
		t.Fatalf("Step() failed: %v", err)
	}
	if len(frame) != 2 || frame[0] != 0xD0 || frame[1] != 0x00 {
		t.Fatalf("frame = % X, want D0 00", frame)
	}
}

// TestFramingEnginePreservesStateAcrossTimeout drives a single type byte
// across the pipe, lets the Step call time out waiting for the rest of the
// VarInt remaining length, then confirms the already-read type byte is
// still there for the next Step call to build on.
func TestFramingEnginePreservesStateAcrossTimeout(t *testing.T) {
	clientSide, brokerSide := net.Pipe()
	defer clientSide.Close()
	defer brokerSide.Close()

	want := &packet.PUBLISH{TopicName: "a/b", QoS: 0, Props: &packet.PublishProperties{}, Payload: []byte{0x01, 0x02, 0x03}}
	full, err := packet.Encode(want, true)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	transport := &streamTransport{conn: clientSide}
	engine := newFramingEngine(4096)

	go func() { _, _ = brokerSide.Write(full[:1]) }()

	if _, err := engine.Step(transport, 50*time.Millisecond); !errors.Is(err, ErrTimedOut) {
		t.Fatalf("Step() with only the type byte available = %v, want ErrTimedOut", err)
	}
	if len(engine.header) != 1 || engine.header[0] != full[0] {
		t.Fatalf("engine should retain the type byte across the timeout, header = % X", engine.header)
	}

	go func() { _, _ = brokerSide.Write(full[1:]) }()

	frame, err := engine.Step(transport, 2*time.Second)
	if err != nil {
		t.Fatalf("Step() after resuming failed: %v", err)
	}
	if string(frame) != string(full) {
		t.Fatalf("assembled frame = % X, want % X", frame, full)
	}
}

func TestFramingEngineRejectsOversizedPacket(t *testing.T) {
	clientSide, brokerSide := net.Pipe()
	defer clientSide.Close()
	defer brokerSide.Close()

	want := &packet.PUBLISH{TopicName: "a/b", QoS: 0, Props: &packet.PublishProperties{}, Payload: make([]byte, 200)}
	full, err := packet.Encode(want, true)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	go func() { _, _ = brokerSide.Write(full) }()

	transport := &streamTransport{conn: clientSide}
	engine := newFramingEngine(64) // smaller than the 200-byte payload

	_, err = engine.Step(transport, 2*time.Second)
	var protoErr *ProtocolErr
	if !errors.As(err, &protoErr) || protoErr.Code.Code != packet.ErrPacketTooLarge.Code {
		t.Fatalf("Step() = %v, want ProtocolErr wrapping ErrPacketTooLarge", err)
	}
}

func TestIsShortFrameKind(t *testing.T) {
	for _, kind := range []byte{packet.KindPingresp, packet.KindDisconnect, packet.KindAuth} {
		if !isShortFrameKind(kind) {
			t.Errorf("isShortFrameKind(%#x) = false, want true", kind)
		}
	}
	for _, kind := range []byte{packet.KindConnect, packet.KindPublish, packet.KindSubscribe} {
		if isShortFrameKind(kind) {
			t.Errorf("isShortFrameKind(%#x) = true, want false", kind)
		}
	}
}
