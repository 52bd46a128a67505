// Package auth defines the capability boundary between the HTTP layer and
// the external identity provider. The concrete provider is chosen in main
// via configuration; everything else depends only on TokenVerifier.
package auth

import "context"

// IdentityClaims is the provider-neutral result of verifying an ID token.
type IdentityClaims struct {
	// Subject is the provider's stable unique id for the principal.
	Subject string
	// Phone is the E.164 phone number the principal verified via OTP.
	Phone string
	// Email is optional; not all providers or flows supply one.
	Email string
}

// TokenVerifier checks a bearer identity token and returns its claims.
// Verification is single-attempt: no retry, no result caching.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*IdentityClaims, error)
}
