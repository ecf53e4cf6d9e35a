// Package identity verifies ID tokens minted by the external identity provider.
//
// Tokens are RS256 JWTs whose signing keys are published as a JSON object of
// key ID to X.509 certificate PEM. The Verifier caches those certificates for
// the Cache-Control max-age of the response and refetches when it sees an
// unknown key ID.
//
//	v := identity.NewVerifier(identity.Config{ProjectID: "kinship-prod"})
//	tok, err := v.Verify(ctx, bearer)
//	// tok.Subject is the stable external account ID
package identity
