package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase64URLRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"simple", []byte("hello")},
		{"url unsafe chars", []byte{0xfb, 0xf0}},
		{"binary mixed", []byte{0x00, 0xff, 0x7f, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := ToBase64URL(tt.data)
			assert.NotContains(t, encoded, "=")
			assert.False(t, strings.ContainsAny(encoded, "+/"))

			decoded, err := FromBase64URL(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.data, decoded)
		})
	}
}

func TestDecodeBase64_AcceptsAllAlphabets(t *testing.T) {
	want := []byte("hello world")

	for _, encoded := range []string{
		"aGVsbG8gd29ybGQ",   // raw url
		"aGVsbG8gd29ybGQ=",  // padded
		" aGVsbG8gd29ybGQ ", // surrounding whitespace
	} {
		got, err := DecodeBase64(encoded)
		require.NoError(t, err, encoded)
		assert.Equal(t, want, got)
	}

	got, err := DecodeBase64("+/8=")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xfb, 0xff}, got)
}

func TestDecodeBase64_Invalid(t *testing.T) {
	_, err := DecodeBase64("!!!invalid!!!")
	assert.Error(t, err)
}
