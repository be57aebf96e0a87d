// File: api/codec.go
// Author: momentics <momentics@gmail.com>
//
// Wire-format boundary between structured messages and raw bytes.

package api

// Codec converts messages to and from their wire representation.
//
// Decode must never fail: discovery traffic on a shared broadcast address
// carries noise from unrelated senders, so undecodable bytes resolve to
// the NoMessage sentinel and are silently ignorable by callers.
type Codec interface {
	// Encode serializes a message to its wire bytes.
	Encode(m Message) ([]byte, error)

	// Decode parses wire bytes, returning NoMessage on malformed input.
	Decode(b []byte) Message
}
