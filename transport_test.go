package mqtt

import (
	"context"
	"errors"
	"net"
	"net/url"
	"testing"
	"time"
)

func TestStreamTransportSendRecvRoundTrip(t *testing.T) {
	clientSide, brokerSide := net.Pipe()
	defer clientSide.Close()
	defer brokerSide.Close()

	client := &streamTransport{conn: clientSide}
	broker := &streamTransport{conn: brokerSide}

	payload := []byte{0x01, 0x02, 0x03, 0x04}
	sendErr := make(chan error, 1)
	go func() {
		_, err := client.Send(payload, time.Second)
		sendErr <- err
	}()

	buf := make([]byte, 4)
	n, err := broker.Recv(buf, 4, 2*time.Second)
	if err != nil {
		t.Fatalf("Recv() failed: %v", err)
	}
	if n != 4 || string(buf) != string(payload) {
		t.Fatalf("Recv() = % X, want % X", buf[:n], payload)
	}
	if err := <-sendErr; err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
}

// TestStreamTransportRecvAccumulatesAcrossShortWrites confirms Recv keeps
// reading until min bytes have arrived rather than returning after the
// first short read.
func TestStreamTransportRecvAccumulatesAcrossShortWrites(t *testing.T) {
	clientSide, brokerSide := net.Pipe()
	defer clientSide.Close()
	defer brokerSide.Close()

	broker := &streamTransport{conn: brokerSide}

	go func() {
		_, _ = clientSide.Write([]byte{0xAA, 0xBB})
		_, _ = clientSide.Write([]byte{0xCC, 0xDD})
	}()

	buf := make([]byte, 4)
	n, err := broker.Recv(buf, 4, 2*time.Second)
	if err != nil {
		t.Fatalf("Recv() failed: %v", err)
	}
	if n != 4 || buf[0] != 0xAA || buf[1] != 0xBB || buf[2] != 0xCC || buf[3] != 0xDD {
		t.Fatalf("Recv() = % X, want AA BB CC DD", buf[:n])
	}
}

func TestStreamTransportRecvTimesOut(t *testing.T) {
	clientSide, brokerSide := net.Pipe()
	defer clientSide.Close()
	defer brokerSide.Close()

	broker := &streamTransport{conn: brokerSide}
	buf := make([]byte, 4)
	if _, err := broker.Recv(buf, 4, 50*time.Millisecond); !errors.Is(err, ErrTimedOut) {
		t.Fatalf("Recv() with nothing written = %v, want ErrTimedOut", err)
	}
}

func TestStreamTransportNotConnected(t *testing.T) {
	transport := newStreamTransport()
	if _, err := transport.Send([]byte{0x00}, time.Second); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send() before Connect = %v, want ErrNotConnected", err)
	}
	if _, err := transport.Recv(make([]byte, 1), 1, time.Second); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Recv() before Connect = %v, want ErrNotConnected", err)
	}
	if err := transport.Close(); err != nil {
		t.Errorf("Close() before Connect = %v, want nil", err)
	}
}

// TestStreamTransportConnectTCP exercises the plain-tcp branch of Connect
// against a loopback listener, since it needs no outside network access.
func TestStreamTransportConnectTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() failed: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	u, err := url.Parse("tcp://" + ln.Addr().String())
	if err != nil {
		t.Fatalf("url.Parse() failed: %v", err)
	}
	transport := newStreamTransport()
	if err := transport.Connect(context.Background(), u, nil); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	defer transport.Close()

	select {
	case conn := <-accepted:
		conn.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("listener never accepted the connection")
	}
}

func TestStreamTransportConnectRejectsUnsupportedScheme(t *testing.T) {
	u, err := url.Parse("ftp://example.com")
	if err != nil {
		t.Fatalf("url.Parse() failed: %v", err)
	}
	transport := newStreamTransport()
	if err := transport.Connect(context.Background(), u, nil); !errors.Is(err, ErrBadParameter) {
		t.Fatalf("Connect() with unsupported scheme = %v, want ErrBadParameter", err)
	}
}

type fakeTimeoutErr struct{}

func (fakeTimeoutErr) Error() string   { return "fake timeout" }
func (fakeTimeoutErr) Timeout() bool   { return true }
func (fakeTimeoutErr) Temporary() bool { return true }

func TestClassifyDialErr(t *testing.T) {
	if err := classifyDialErr(fakeTimeoutErr{}); !errors.Is(err, ErrTimedOut) {
		t.Errorf("classifyDialErr(timeout) = %v, want ErrTimedOut", err)
	}
	if err := classifyDialErr(errors.New("connection refused")); !errors.Is(err, ErrNetworkError) {
		t.Errorf("classifyDialErr(plain) = %v, want ErrNetworkError", err)
	}
}

func TestTLSConfigFromRootCertWithoutCert(t *testing.T) {
	cfg, err := tlsConfigFromRootCert(nil, true)
	if err != nil {
		t.Fatalf("tlsConfigFromRootCert() failed: %v", err)
	}
	if !cfg.InsecureSkipVerify {
		t.Error("expected InsecureSkipVerify to pass through when no root cert is given")
	}
}

func TestTLSConfigFromRootCertRejectsInvalidDER(t *testing.T) {
	if _, err := tlsConfigFromRootCert([]byte{0x00, 0x01, 0x02}, false); !errors.Is(err, ErrBadParameter) {
		t.Errorf("tlsConfigFromRootCert() with garbage DER = %v, want ErrBadParameter", err)
	}
}
