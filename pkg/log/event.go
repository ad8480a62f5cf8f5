package log

import "time"

// Event is a bootstrap session event. CBOR encoding uses integer keys.
type Event struct {
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the bootstrap session (UUID).
	SessionID string `cbor:"2,keyasint"`

	Direction Direction `cbor:"3,keyasint"`
	Category  Category  `cbor:"4,keyasint"`

	// Endpoint is the client endpoint name.
	Endpoint string `cbor:"5,keyasint,omitempty"`

	// RemoteAddr is the client address (IP:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Identity is the redacted client credential.
	Identity string `cbor:"7,keyasint,omitempty"`

	// One of these is set, matching Category.
	Message     *MessageEvent     `cbor:"10,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"12,keyasint,omitempty"`
}

// Direction is the message flow as seen from the bootstrap server.
type Direction uint8

const (
	DirectionIn  Direction = 0
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies events.
type Category uint8

const (
	CategoryMessage Category = 0
	CategoryState   Category = 1
	CategoryError   Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent describes a request or a response.
type MessageEvent struct {
	// Operation is the request kind, e.g. WRITE or DISCOVER.
	Operation string `cbor:"1,keyasint"`

	// Path is the request target.
	Path string `cbor:"2,keyasint,omitempty"`

	// ContentFormat is set for writes.
	ContentFormat *uint16 `cbor:"3,keyasint,omitempty"`

	// Code is the response code in "c.dd" form. Empty for requests.
	Code string `cbor:"4,keyasint,omitempty"`

	// Summary is a redacted rendering of the payload.
	Summary string `cbor:"5,keyasint,omitempty"`
}

// IsResponse reports whether m describes a response.
func (m *MessageEvent) IsResponse() bool {
	return m.Code != ""
}

// StateChangeEvent records a session milestone.
type StateChangeEvent struct {
	OldState string `cbor:"1,keyasint,omitempty"`
	NewState string `cbor:"2,keyasint"`
	Reason   string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData records a failed request.
type ErrorEventData struct {
	Message string `cbor:"1,keyasint"`

	// Context names what was being attempted.
	Context string `cbor:"2,keyasint,omitempty"`
}
