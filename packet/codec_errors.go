package packet

import "errors"

// Codec-level outcomes distinct from wire ReasonCode values: these never
// travel on the wire, they describe the state of a decode attempt against
// a byte slice that may be a truncated prefix of a larger frame.
var (
	// ErrNotEnoughData means the slice given to a decoder ended before a
	// complete value could be read. Callers holding a streaming buffer
	// should wait for more bytes and retry; the caller must not treat
	// this as a protocol violation.
	ErrNotEnoughData = errors.New("mqtt: not enough data")

	// ErrBadData means the bytes present can never form a valid encoding
	// no matter how many more bytes arrive (e.g. an overlong Variable
	// Byte Integer). Callers should close the connection.
	ErrBadData = errors.New("mqtt: malformed encoding")
)
