// File: api/message.go
// Author: momentics <momentics@gmail.com>
//
// Shared message type for the discovery wire protocol.

package api

// Message is a structured wire value: string keys mapping to numbers,
// strings, booleans, nil, nested objects or arrays. It is what travels
// inside every discovery datagram and registration stream.
type Message map[string]any

// NoMessage is the sentinel returned by codecs for input that does not
// decode to a valid message. It is distinct from every valid message,
// including the empty object.
var NoMessage Message = nil

// Empty reports whether the message carries nothing worth sending.
// Both NoMessage and a zero-length object are empty.
func (m Message) Empty() bool {
	return len(m) == 0
}
