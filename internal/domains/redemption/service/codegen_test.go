package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localdeals-backend/internal/domains/redemption/model"
)

func TestCodeGenerator_FormatAndUniqueness(t *testing.T) {
	g := NewCodeGenerator(nil)

	const trials = 10000
	qrSeen := make(map[string]struct{}, trials)
	displaySeen := make(map[string]struct{}, trials)

	for i := 0; i < trials; i++ {
		qr, display, err := g.Pair()
		require.NoError(t, err)

		require.True(t, model.IsValidQRCode(qr), "qr code %q", qr)
		require.True(t, model.IsValidDisplayCode(display), "display code %q", display)

		_, dup := qrSeen[qr]
		require.False(t, dup, "duplicate qr code after %d draws", i)
		qrSeen[qr] = struct{}{}
		displaySeen[display] = struct{}{}
	}

	// 8 chữ số = 10^8 giá trị, 10k lần rút gần như không trùng
	assert.Greater(t, len(displaySeen), trials-10)
}

func TestCodeGenerator_DeterministicReader(t *testing.T) {
	g := NewCodeGenerator(zeroReader{})

	qr, display, err := g.Pair()
	require.NoError(t, err)
	assert.Equal(t, "0000000000000000000000000000000000000000000000000000000000000000", qr)
	assert.Equal(t, "00000000", display)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy pool drained")
}

func TestCodeGenerator_ReaderFailure(t *testing.T) {
	g := NewCodeGenerator(failingReader{})

	_, _, err := g.Pair()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qr code entropy")

	_, err = g.DisplayCode()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "display code entropy")
}
