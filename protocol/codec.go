package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MalformedPacketError reports a line that could not be decoded into a
// Packet. Reason is safe to surface to the offending client inside an ERROR
// response.
type MalformedPacketError struct {
	Reason string
}

// Error implements the error interface.
func (e *MalformedPacketError) Error() string {
	return "malformed packet: " + e.Reason
}

// Encode serializes a packet into exactly one LF-terminated JSON line. It
// never fails for packets built through this package; a packet whose Type is
// outside the closed set or whose Data holds unmarshalable values is
// rejected rather than written to the wire.
//
// Parameters:
//   - p: The packet to serialize
//
// Returns:
//   - The encoded line including the trailing newline
//   - An error if the packet is not well formed
func Encode(p *Packet) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("encode packet: nil packet")
	}
	if !p.Type.Valid() {
		return nil, fmt.Errorf("encode packet: unknown message type %q", string(p.Type))
	}

	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode packet: %w", err)
	}

	return append(b, '\n'), nil
}

// Decode parses one line into a Packet. The trailing newline, if present,
// is ignored. Decode fails with *MalformedPacketError when the line is not
// a JSON object, the "type" field is missing or not a recognized enumerant,
// or "data" is present but not an object. The unknown-type reason names the
// offending type so it can be echoed back to the client.
//
// Parameters:
//   - line: One wire line, with or without the trailing LF
//
// Returns:
//   - The decoded Packet
//   - A *MalformedPacketError describing why the line was rejected
func Decode(line []byte) (*Packet, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, &MalformedPacketError{Reason: "empty line"}
	}

	var raw struct {
		Type    *string         `json:"type"`
		Success bool            `json:"success"`
		Error   string          `json:"error"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &MalformedPacketError{Reason: "invalid JSON: " + err.Error()}
	}

	if raw.Type == nil || *raw.Type == "" {
		return nil, &MalformedPacketError{Reason: `missing "type" field`}
	}

	t := MessageType(*raw.Type)
	if !t.Valid() {
		return nil, &MalformedPacketError{Reason: "unknown message type: " + *raw.Type}
	}

	data := map[string]any{}
	if len(raw.Data) > 0 && !bytes.Equal(raw.Data, []byte("null")) {
		if err := json.Unmarshal(raw.Data, &data); err != nil {
			return nil, &MalformedPacketError{Reason: `"data" is not an object`}
		}
	}

	return &Packet{Type: t, Success: raw.Success, Error: raw.Error, Data: data}, nil
}
