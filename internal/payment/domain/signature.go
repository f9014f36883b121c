package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Signature is the parsed x-signature header: "ts=<ts>,v1=<hex>".
type Signature struct {
	TS string
	V1 string
}

func ParseSignature(header string) (Signature, error) {
	var sig Signature
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(k) {
		case "ts":
			sig.TS = strings.TrimSpace(v)
		case "v1":
			sig.V1 = strings.ToLower(strings.TrimSpace(v))
		}
	}
	if sig.TS == "" || sig.V1 == "" {
		return Signature{}, ErrInvalidSignature
	}
	return sig, nil
}

func Manifest(paymentID, ts string) string {
	return "id:" + paymentID + ";ts:" + ts + ";"
}

// Sign returns the hex HMAC-SHA256 of the manifest for paymentID and ts.
func Sign(secret, paymentID, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(Manifest(paymentID, ts)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks header against the payment id. The comparison is constant
// time.
func Verify(secret, header, paymentID string) (Signature, error) {
	if secret == "" || paymentID == "" {
		return Signature{}, ErrInvalidSignature
	}
	sig, err := ParseSignature(header)
	if err != nil {
		return Signature{}, err
	}
	want := Sign(secret, paymentID, sig.TS)
	if !hmac.Equal([]byte(want), []byte(sig.V1)) {
		return Signature{}, ErrInvalidSignature
	}
	return sig, nil
}
