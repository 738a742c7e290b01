package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier authenticates gateway payment confirmations against the shared
// gateway secret. It is pure: no I/O, no side effects.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the given gateway secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify reports whether signature is a valid HMAC-SHA256 of
// "orderID|paymentID" under the gateway secret. The signature is expected
// hex-encoded, as the gateway sends it.
//
// Verify never panics or errors on malformed input; anything that does not
// decode and match exactly is simply not authentic. The comparison is
// constant-time.
func (v *Verifier) Verify(orderID, paymentID, signature string) bool {
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))

	return hmac.Equal(mac.Sum(nil), sig)
}

// Sign computes the hex-encoded HMAC-SHA256 signature for the given pair.
// The gateway does this on its side; exposed here for tests and tooling.
func (v *Verifier) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
