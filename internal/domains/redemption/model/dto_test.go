package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmRedemptionRequest_Validate(t *testing.T) {
	req := ConfirmRedemptionRequest{
		QRCode:      " " + strings.Repeat("AB", 32) + " ",
		DisplayCode: "1234-5678",
	}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, "12345678", req.DisplayCode)

	assert.Error(t, ConfirmRedemptionRequest{QRCode: "", DisplayCode: "12345678"}.Validate())
	assert.Error(t, ConfirmRedemptionRequest{QRCode: strings.Repeat("a", 64), DisplayCode: "1234"}.Validate())
}

func TestListRedemptionsRequest(t *testing.T) {
	req := ListRedemptionsRequest{}
	req.ApplyDefaults()
	require.NoError(t, req.Validate())

	f := req.ToFilter()
	assert.Nil(t, f.Status)
	assert.Equal(t, 20, f.Limit)
	assert.Equal(t, 0, f.Offset)

	req = ListRedemptionsRequest{Status: "redeemed", Page: 3, Limit: 10}
	require.NoError(t, req.Validate())
	f = req.ToFilter()
	require.NotNil(t, f.Status)
	assert.Equal(t, StatusRedeemed, *f.Status)
	assert.Equal(t, 20, f.Offset)

	assert.Error(t, ListRedemptionsRequest{Status: "archived", Page: 1, Limit: 10}.Validate())
	assert.Error(t, ListRedemptionsRequest{Page: 1, Limit: 500}.Validate())
}
