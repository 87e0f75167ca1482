package adapter

// SignatureVerifier decides whether the gateway authentically reported
// paymentID against orderID. Implementations are pure: no side effects,
// and a logging failure can never change the result.
//
// A false result means the signature did not match. A non-nil error means
// the verifier itself is misconfigured (e.g. missing secret) and must be
// reported as a server error, never as a rejected payment.
type SignatureVerifier interface {
	Name() string
	Verify(orderID, paymentID, signature string) (bool, error)
}
