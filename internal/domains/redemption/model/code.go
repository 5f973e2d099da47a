package model

import (
	"regexp"
	"strings"
)

const (
	QRCodeBytes       = 32
	DisplayCodeDigits = 8
)

var (
	QRCodePattern      = regexp.MustCompile(`^[a-f0-9]{64}$`)
	DisplayCodePattern = regexp.MustCompile(`^\d{8}$`)
)

func IsValidQRCode(code string) bool {
	return QRCodePattern.MatchString(code)
}

func IsValidDisplayCode(code string) bool {
	return DisplayCodePattern.MatchString(code)
}

// FormatDisplayCode groups an 8-digit code as XXXX-XXXX. Anything else is
// returned unchanged.
func FormatDisplayCode(code string) string {
	if !IsValidDisplayCode(code) {
		return code
	}
	return code[:4] + "-" + code[4:]
}

// NormalizeDisplayCode strips the separators a cashier may type.
func NormalizeDisplayCode(input string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(input))
}

// NormalizeQRCode lowercases a scanned QR payload.
func NormalizeQRCode(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
