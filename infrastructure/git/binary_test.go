package git

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsProbablyBinary(t *testing.T) {
	assert.False(t, IsProbablyBinary(nil))
	assert.False(t, IsProbablyBinary([]byte("package main\n\nfunc main() {}\n")))
	assert.False(t, IsProbablyBinary([]byte("tabs\tand\r\nnewlines\n")))

	assert.True(t, IsProbablyBinary([]byte("abc\x00def")))
	assert.True(t, IsProbablyBinary(bytes.Repeat([]byte{0x01, 'a'}, 100)))
}

func TestIsProbablyBinary_SampleWindow(t *testing.T) {
	// A NUL beyond the sample window is not seen.
	data := append([]byte(strings.Repeat("a", binarySniffLen)), 0x00)
	assert.False(t, IsProbablyBinary(data))

	// Inside the window it is.
	data = append([]byte(strings.Repeat("a", binarySniffLen-1)), 0x00)
	assert.True(t, IsProbablyBinary(data))
}

func TestIsProbablyBinary_ControlRatio(t *testing.T) {
	// 3 control bytes out of 10 is exactly 30%, still text.
	atThreshold := []byte("aaaaaaa\x01\x02\x03")
	assert.False(t, IsProbablyBinary(atThreshold))

	// 4 out of 10 crosses it.
	overThreshold := []byte("aaaaaa\x01\x02\x03\x04")
	assert.True(t, IsProbablyBinary(overThreshold))
}
