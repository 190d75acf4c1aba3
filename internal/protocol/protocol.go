// Package protocol defines the wire messages spoken by the HTTP and
// WebSocket transports. Messages are routed by type; unknown fields are
// ignored so older clients keep working.
package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello     = "HELLO"
	TypeWelcome   = "WELCOME"
	TypeDerive    = "DERIVE"
	TypeModel     = "MODEL"
	TypeAggregate = "AGGREGATE"
	TypeTotals    = "TOTALS"
	TypeError     = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
