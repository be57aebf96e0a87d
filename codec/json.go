// File: codec/json.go
// Package codec implements the JSON wire codec for discovery messages.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Every datagram and stream message is a UTF-8 JSON encoding of a
// structured value. There is no envelope, version field or checksum.

package codec

import (
	"encoding/json"
	"fmt"

	"github.com/momentics/landisco/api"
)

// JSON is the message-interchange codec used by both discovery roles.
type JSON struct{}

var _ api.Codec = JSON{}

// Encode serializes a message to UTF-8 JSON bytes.
func (JSON) Encode(m api.Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return b, nil
}

// Decode parses JSON bytes into a message. Malformed input resolves to
// the NoMessage sentinel, never an error: a shared broadcast port sees
// arbitrary noise from unrelated senders and the protocol treats it as
// "nothing to report".
func (JSON) Decode(b []byte) api.Message {
	var m api.Message
	if err := json.Unmarshal(b, &m); err != nil {
		return api.NoMessage
	}
	return m
}
