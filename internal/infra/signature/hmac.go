package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog"

	"course-purchase-platform/internal/domain"
	"course-purchase-platform/internal/domain/ports/adapter"
)

var _ adapter.SignatureVerifier = (*HMACVerifier)(nil)

// HMACVerifier is the production verifier. It recomputes
// HMAC-SHA256(secret, orderID + "|" + paymentID) and compares the hex
// digest against the supplied signature in constant time. It contains no
// mock-payment logic.
type HMACVerifier struct {
	secret []byte
	log    *zerolog.Logger
}

func NewHMACVerifier(secret string, logger *zerolog.Logger) (*HMACVerifier, error) {
	if secret == "" {
		return nil, domain.ErrMissingGatewaySecret
	}
	return &HMACVerifier{secret: []byte(secret), log: logger}, nil
}

func (v *HMACVerifier) Name() string { return "hmac-sha256" }

func (v *HMACVerifier) Verify(orderID, paymentID, signature string) (bool, error) {
	if len(v.secret) == 0 {
		return false, domain.ErrMissingGatewaySecret
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	ok := hmac.Equal([]byte(expected), []byte(signature))
	v.log.Debug().
		Str("order_id", orderID).
		Str("payment_id", paymentID).
		Bool("authentic", ok).
		Msg("signature check")
	return ok, nil
}
