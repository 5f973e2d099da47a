package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDisplayCode(t *testing.T) {
	assert.Equal(t, "1234-5678", FormatDisplayCode("12345678"))
	assert.Equal(t, "1234", FormatDisplayCode("1234"))
	assert.Equal(t, "abcdefgh", FormatDisplayCode("abcdefgh"))
}

func TestNormalizeDisplayCode(t *testing.T) {
	cases := map[string]string{
		"1234-5678":   "12345678",
		" 1234 5678 ": "12345678",
		"1234\t5678":  "12345678",
		"12-34-56-78": "12345678",
		"12345678":    "12345678",
		"":            "",
	}
	for in, want := range cases {
		got := NormalizeDisplayCode(in)
		assert.Equal(t, want, got, "input %q", in)
		if want != "" {
			assert.True(t, IsValidDisplayCode(got))
		}
	}
}

func TestNormalizeQRCode(t *testing.T) {
	upper := "  ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789 "
	got := NormalizeQRCode(upper)
	assert.Len(t, got, 64)
	assert.True(t, IsValidQRCode(got))
}

func TestCodeFormatValidation(t *testing.T) {
	assert.False(t, IsValidQRCode("abc"))
	assert.False(t, IsValidQRCode("G000000000000000000000000000000000000000000000000000000000000000"))
	assert.False(t, IsValidDisplayCode("1234567"))
	assert.False(t, IsValidDisplayCode("123456789"))
	assert.False(t, IsValidDisplayCode("1234-567"))
}
