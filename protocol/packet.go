package protocol

import "encoding/json"

// Packet is the wire envelope. A request carries Type and Data; a response
// additionally carries Success and, when Success is false, a human-readable
// Error. Data holds the dynamically shaped payload; values are whatever
// encoding/json produces (string, float64, bool, nested map), narrowed
// through the typed accessors below.
type Packet struct {
	Type    MessageType    `json:"type"`
	Success bool           `json:"success,omitempty"`
	Error   string         `json:"error,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// NewRequest creates a request packet of the given type with an empty,
// non-nil Data map ready for Set calls.
//
// Parameters:
//   - t: The request message type
//
// Returns:
//   - A new request Packet
func NewRequest(t MessageType) *Packet {
	return &Packet{Type: t, Data: map[string]any{}}
}

// NewResponse creates a successful response packet of the given type.
//
// Parameters:
//   - t: The response message type
//
// Returns:
//   - A new Packet with Success set to true and an empty Data map
func NewResponse(t MessageType) *Packet {
	return &Packet{Type: t, Success: true, Data: map[string]any{}}
}

// Failure creates a failed response packet of the given type carrying a
// business error message. Data is left empty by convention.
//
// Parameters:
//   - t: The response message type
//   - msg: The human-readable error message
//
// Returns:
//   - A new Packet with Success false and Error set
func Failure(t MessageType, msg string) *Packet {
	return &Packet{Type: t, Error: msg, Data: map[string]any{}}
}

// NewError creates an ERROR packet. ERROR is the type used for protocol
// level failures (malformed input, unknown type, handler fault) rather than
// business failures, which use Failure with the request's response type.
//
// Parameters:
//   - msg: The human-readable error message
//
// Returns:
//   - A new ERROR Packet
func NewError(msg string) *Packet {
	return &Packet{Type: Error, Error: msg, Data: map[string]any{}}
}

// Set stores a payload value under key and returns the packet, so calls can
// be chained builder-style.
//
// Parameters:
//   - key: The payload key
//   - v: The value to store; must be representable in JSON
//
// Returns:
//   - The packet itself
func (p *Packet) Set(key string, v any) *Packet {
	if p.Data == nil {
		p.Data = map[string]any{}
	}
	p.Data[key] = v
	return p
}

// GetString returns the payload value under key as a string, or "" when the
// key is absent or holds a non-string value.
func (p *Packet) GetString(key string) string {
	s, _ := p.Data[key].(string)
	return s
}

// GetInt64 returns the payload value under key as an int64. JSON numbers
// decode as float64, so the accessor normalizes float64, int, int64 and
// json.Number representations.
//
// Parameters:
//   - key: The payload key
//
// Returns:
//   - The numeric value as int64, or 0 if absent or not a number
//   - true if the key held a numeric value, false otherwise
func (p *Packet) GetInt64(key string) (int64, bool) {
	switch v := p.Data[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// GetBool returns the payload value under key as a bool, or false when the
// key is absent or holds a non-boolean value.
func (p *Packet) GetBool(key string) bool {
	b, _ := p.Data[key].(bool)
	return b
}

// GetMap returns the payload value under key as a nested mapping, or nil
// when the key is absent or holds a non-object value.
func (p *Packet) GetMap(key string) map[string]any {
	m, _ := p.Data[key].(map[string]any)
	return m
}
