// Package transport handles the engine's two UDP endpoints: the
// outbound feature-frame sender and the inbound parameter-update
// listener.
package transport

import (
	"net"

	"github.com/loli/notedancer/internal/logging"
)

// FeatureSender emits packed feature frames over UDP, best-effort and
// non-blocking: a send that would fail or block is simply dropped, the
// same "never let the transport back up the pipeline" posture the
// teacher's buffered audio output used, minus the buffering (a dropped
// feature frame is fine; a dropped audio sample is not, which is why the
// teacher needed a buffer and this sender doesn't).
type FeatureSender struct {
	conn net.Conn
	log  *logging.Logger
}

// NewFeatureSender dials a UDP "connection" (no handshake, just a fixed
// peer) to addr.
func NewFeatureSender(addr string, log *logging.Logger) (*FeatureSender, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}
	return &FeatureSender{conn: conn, log: log}, nil
}

// Send writes a packed frame, dropping and logging at debug level on any
// error rather than propagating it — a single lost UDP datagram should
// never stall the analysis loop.
func (s *FeatureSender) Send(packed []byte) {
	if _, err := s.conn.Write(packed); err != nil {
		s.log.Debug("dropped feature frame", "err", err)
	}
}

// Close releases the underlying socket.
func (s *FeatureSender) Close() error {
	return s.conn.Close()
}
