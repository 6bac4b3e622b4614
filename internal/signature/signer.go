// Package signature computes the message-authentication code carried in the
// X-Webhook-Signature header of every outbound delivery.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Header is the outbound request header carrying the payload signature.
const Header = "X-Webhook-Signature"

// Sign returns the hex-encoded HMAC-SHA256 of payload keyed by secret.
// The signature covers the exact raw request body bytes.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is a valid signature of payload under secret,
// using a constant-time comparison.
func Verify(secret string, payload []byte, sig string) bool {
	expected, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}
