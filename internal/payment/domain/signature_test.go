package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "whsec_test"

func TestVerifyAcceptsValidSignature(t *testing.T) {
	header := "ts=1700000000,v1=" + Sign(secret, "123", "1700000000")

	sig, err := Verify(secret, header, "123")
	require.NoError(t, err)
	assert.Equal(t, "1700000000", sig.TS)
}

func TestVerifyRejects(t *testing.T) {
	good := Sign(secret, "123", "1700000000")

	tests := []struct {
		name      string
		header    string
		paymentID string
	}{
		{name: "empty header", header: "", paymentID: "123"},
		{name: "missing v1", header: "ts=1700000000", paymentID: "123"},
		{name: "missing ts", header: "v1=" + good, paymentID: "123"},
		{name: "other payment", header: "ts=1700000000,v1=" + good, paymentID: "124"},
		{name: "other timestamp", header: "ts=1700000001,v1=" + good, paymentID: "123"},
		{name: "forged", header: "ts=1700000000,v1=deadbeef", paymentID: "123"},
		{name: "no payment id", header: "ts=1700000000,v1=" + good, paymentID: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Verify(secret, tt.header, tt.paymentID)
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
}

func TestParseSignatureTolerance(t *testing.T) {
	sig, err := ParseSignature(" v1=ABCD , ts=42 ")
	require.NoError(t, err)
	assert.Equal(t, Signature{TS: "42", V1: "abcd"}, sig)
}

func TestManifest(t *testing.T) {
	assert.Equal(t, "id:987;ts:1700;", Manifest("987", "1700"))
}

func TestStatusMapping(t *testing.T) {
	to, ok := StatusApproved.OrderStatus()
	assert.True(t, ok)
	assert.Equal(t, "Paid", string(to))

	to, ok = StatusRejected.OrderStatus()
	assert.True(t, ok)
	assert.Equal(t, "Cancelled", string(to))

	_, ok = StatusInProcess.OrderStatus()
	assert.False(t, ok)
}
