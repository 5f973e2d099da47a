package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"localdeals-backend/internal/domains/redemption/model"
)

var ten = big.NewInt(10)

// CodeGenerator sinh qr_code và display_code từ hai lần đọc random độc lập,
// display_code không suy ra được từ qr_code
type CodeGenerator struct {
	random io.Reader
}

// NewCodeGenerator uses crypto/rand when random is nil.
func NewCodeGenerator(random io.Reader) *CodeGenerator {
	if random == nil {
		random = rand.Reader
	}
	return &CodeGenerator{random: random}
}

// QRCode returns 32 random bytes as 64 lowercase hex characters.
func (g *CodeGenerator) QRCode() (string, error) {
	buf := make([]byte, model.QRCodeBytes)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", fmt.Errorf("read qr code entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// DisplayCode returns 8 independently drawn decimal digits.
func (g *CodeGenerator) DisplayCode() (string, error) {
	digits := make([]byte, model.DisplayCodeDigits)
	for i := range digits {
		n, err := rand.Int(g.random, ten)
		if err != nil {
			return "", fmt.Errorf("read display code entropy: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

func (g *CodeGenerator) Pair() (qrCode, displayCode string, err error) {
	if qrCode, err = g.QRCode(); err != nil {
		return "", "", err
	}
	if displayCode, err = g.DisplayCode(); err != nil {
		return "", "", err
	}
	return qrCode, displayCode, nil
}
