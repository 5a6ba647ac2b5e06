package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/websocket"
)

// Transport is the network adaptation layer (spec §4.5): connect, send,
// receive-with-minimum, and close. Go's net.Conn already exposes
// non-blocking-with-deadline semantics, so `select(read?, write?, timeout)`
// collapses into SetReadDeadline/SetWriteDeadline around Send/Recv rather
// than a separate call — the idiomatic equivalent on this runtime.
type Transport interface {
	Connect(ctx context.Context, network *url.URL, tlsConfig *tls.Config) error
	Send(buf []byte, timeout time.Duration) (int, error)
	Recv(buf []byte, min int, timeout time.Duration) (int, error)
	Close() error
}

// streamTransport wraps a net.Conn (TCP, TLS, or WebSocket binary framing)
// behind the Transport contract. Its Connect method branches on the URL
// scheme to produce each of these net.Conn flavors.
type streamTransport struct {
	conn net.Conn
}

func newStreamTransport() *streamTransport { return &streamTransport{} }

func (t *streamTransport) Connect(ctx context.Context, u *url.URL, tlsConfig *tls.Config) error {
	addr := u.Host
	switch u.Scheme {
	case "mqtt", "tcp":
		c, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
		if err != nil {
			return classifyDialErr(err)
		}
		t.conn = c
	case "mqtts", "tls", "ssl":
		d := tls.Dialer{Config: tlsConfig}
		c, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return classifyDialErr(err)
		}
		t.conn = c
	case "ws", "wss":
		path := u.Path
		if path == "" {
			path = "/mqtt"
		}
		loc := &url.URL{Scheme: u.Scheme, Host: addr, Path: path}
		originScheme := "http"
		if u.Scheme == "wss" {
			originScheme = "https"
		}
		origin := &url.URL{Scheme: originScheme, Host: addr}
		cfg, err := websocket.NewConfig(loc.String(), origin.String())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadParameter, err)
		}
		cfg.Protocol = []string{"mqtt"}
		if u.Scheme == "wss" {
			cfg.TlsConfig = tlsConfig
		}
		ws, err := websocket.DialConfig(cfg)
		if err != nil {
			return classifyDialErr(err)
		}
		ws.PayloadType = websocket.BinaryFrame
		t.conn = ws
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrBadParameter, u.Scheme)
	}
	return nil
}

func classifyDialErr(err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimedOut, err)
	}
	return fmt.Errorf("%w: %v", ErrNetworkError, err)
}

func (t *streamTransport) Send(buf []byte, timeout time.Duration) (int, error) {
	if t.conn == nil {
		return 0, ErrNotConnected
	}
	if timeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(timeout))
		defer t.conn.SetWriteDeadline(time.Time{})
	}
	n, err := t.conn.Write(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, fmt.Errorf("%w: %v", ErrTimedOut, err)
		}
		return n, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	return n, nil
}

// Recv blocks until at least min bytes of buf are filled, up to
// len(buf), or the timeout elapses. It never reads more than one frame's
// worth because the receive framing engine sizes buf exactly (spec §4.6:
// "asks the transport for the known remaining bytes... in one call").
func (t *streamTransport) Recv(buf []byte, min int, timeout time.Duration) (int, error) {
	if t.conn == nil {
		return 0, ErrNotConnected
	}
	if timeout > 0 {
		_ = t.conn.SetReadDeadline(time.Now().Add(timeout))
		defer t.conn.SetReadDeadline(time.Time{})
	}
	total := 0
	for total < min {
		n, err := t.conn.Read(buf[total:])
		total += n
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return total, fmt.Errorf("%w: %v", ErrTimedOut, err)
			}
			return total, fmt.Errorf("%w: %v", ErrNetworkError, err)
		}
	}
	return total, nil
}

func (t *streamTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

// tlsConfigFromRootCert builds a tls.Config from a caller-supplied
// DER-encoded root certificate. Without one, the system trust store is
// used, and verification is disabled only when the caller passes
// insecureSkipVerify as an explicit opt-in (spec §4.5).
func tlsConfigFromRootCert(rootCertDER []byte, insecureSkipVerify bool) (*tls.Config, error) {
	if len(rootCertDER) == 0 {
		return &tls.Config{InsecureSkipVerify: insecureSkipVerify}, nil
	}
	cert, err := x509.ParseCertificate(rootCertDER)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid root certificate: %v", ErrBadParameter, err)
	}
	pool := x509.NewCertPool()
	pool.AddCert(cert)
	return &tls.Config{RootCAs: pool}, nil
}
