package transport

import (
	"context"
	"encoding/json"
	"net"

	"github.com/loli/notedancer/internal/logging"
	"github.com/loli/notedancer/internal/params"
)

// ParamUpdate is the inbound keyed-JSON partial update to the live
// Parameters snapshot: any subset of fields may be present, each
// range-checked and applied independently; an unknown key or an
// out-of-range value never aborts the rest of the datagram. A value of
// the wrong JSON type fails decoding, and the whole datagram is then
// dropped. This mirrors the teacher's
// ConfigRequest partial-update shape (pointer fields, only present ones
// applied) flattened from an enveloped IPC command into a bare object,
// since the wire contract here is a single UDP datagram, not a
// request/response pair.
type ParamUpdate struct {
	LowGain         *float64 `json:"low_gain,omitempty"`
	MidGain         *float64 `json:"mid_gain,omitempty"`
	HighGain        *float64 `json:"high_gain,omitempty"`
	FluxSens        *float64 `json:"flux_sens,omitempty"`
	NormMode        *string  `json:"norm_mode,omitempty"`
	NoteSensitivity *float64 `json:"note_sensitivity,omitempty"`
	LowAttack       *float64 `json:"low_attack,omitempty"`
	LowDecay        *float64 `json:"low_decay,omitempty"`
	MidAttack       *float64 `json:"mid_attack,omitempty"`
	MidDecay        *float64 `json:"mid_decay,omitempty"`
	HighAttack      *float64 `json:"high_attack,omitempty"`
	HighDecay       *float64 `json:"high_decay,omitempty"`
}

// validNormModes enumerates the accepted values for norm_mode.
var validNormModes = map[string]params.NormMode{
	"fixed":       params.NormFixed,
	"competitive": params.NormCompetitive,
	"statistical": params.NormStatistical,
}

// ControlListener reads parameter-update datagrams from a UDP socket and
// applies validated fields to a params.Store.
type ControlListener struct {
	conn  *net.UDPConn
	store *params.Store
	log   *logging.Logger
}

// NewControlListener binds addr and returns a listener ready to Run.
func NewControlListener(addr string, store *params.Store, log *logging.Logger) (*ControlListener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &ControlListener{conn: conn, store: store, log: log}, nil
}

// Run reads datagrams until ctx is canceled or Close is called.
func (c *ControlListener) Run(ctx context.Context) {
	buf := make([]byte, 4096)
	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	for {
		n, _, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				c.log.Debug("control read error", "err", err)
				continue
			}
		}
		c.apply(buf[:n])
	}
}

// apply parses one datagram and merges its validated fields into the
// live Parameters snapshot. Malformed JSON, including a field whose
// value has the wrong JSON type, is logged and the whole datagram
// dropped; an unknown norm_mode or an out-of-range value is skipped, the
// rest still applied.
func (c *ControlListener) apply(data []byte) {
	var update ParamUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		c.log.Debug("malformed parameter update", "err", err)
		return
	}

	c.store.Update(func(p *params.Parameters) {
		if update.NormMode != nil {
			if mode, ok := validNormModes[*update.NormMode]; ok {
				p.NormMode = mode
			} else {
				c.log.Debug("unknown norm_mode", "value", *update.NormMode)
			}
		}
		if update.LowGain != nil && inRange(*update.LowGain, 0, 100) {
			p.LowGain = *update.LowGain
		}
		if update.MidGain != nil && inRange(*update.MidGain, 0, 100) {
			p.MidGain = *update.MidGain
		}
		if update.HighGain != nil && inRange(*update.HighGain, 0, 100) {
			p.HighGain = *update.HighGain
		}
		if update.FluxSens != nil && inRange(*update.FluxSens, 0, 10) {
			p.FluxSens = *update.FluxSens
		}
		if update.NoteSensitivity != nil && inRange(*update.NoteSensitivity, 0.5, 0.98) {
			p.NoteSensitivity = *update.NoteSensitivity
		}
		if update.LowAttack != nil && inRange(*update.LowAttack, 0, 1) {
			p.LowAttack = *update.LowAttack
		}
		if update.LowDecay != nil && inRange(*update.LowDecay, 0, 1) {
			p.LowDecay = *update.LowDecay
		}
		if update.MidAttack != nil && inRange(*update.MidAttack, 0, 1) {
			p.MidAttack = *update.MidAttack
		}
		if update.MidDecay != nil && inRange(*update.MidDecay, 0, 1) {
			p.MidDecay = *update.MidDecay
		}
		if update.HighAttack != nil && inRange(*update.HighAttack, 0, 1) {
			p.HighAttack = *update.HighAttack
		}
		if update.HighDecay != nil && inRange(*update.HighDecay, 0, 1) {
			p.HighDecay = *update.HighDecay
		}
	})
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

// Close releases the underlying socket.
func (c *ControlListener) Close() error {
	return c.conn.Close()
}
