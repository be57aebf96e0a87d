// File: codec/json_test.go
// Author: momentics <momentics@gmail.com>

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/landisco/api"
)

func TestRoundTrip(t *testing.T) {
	c := JSON{}
	cases := []api.Message{
		{"time": 1700000000.25},
		{"hello": "world"},
		{"nested": map[string]any{"a": true, "b": nil}},
		{"list": []any{"x", 1.5, false}},
		{},
	}
	for _, m := range cases {
		b, err := c.Encode(m)
		require.NoError(t, err)
		got := c.Decode(b)
		assert.Equal(t, m, got)
	}
}

func TestDecodeMalformed(t *testing.T) {
	c := JSON{}
	for _, b := range [][]byte{
		[]byte("{not json"),
		[]byte(""),
		[]byte("\xff\xfe\x00"),
		[]byte("[1, 2"),
		[]byte("5"), // valid JSON, but not an object
	} {
		assert.True(t, c.Decode(b).Empty(), "input %q should decode to NoMessage", b)
	}
}

func TestDecodeNullIsNoMessage(t *testing.T) {
	assert.True(t, JSON{}.Decode([]byte("null")).Empty())
}
