// Package jwt signs and validates Kinship access tokens.
//
// Tokens are RS256 JWTs built on github.com/golang-jwt/jwt/v5. A service
// loaded with only a public key can validate but not sign.
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "keys/private.pem",
//	    Issuer:         "kinship-api",
//	    ExpirationMins: 60,
//	})
//
//	token, err := svc.Sign(jwt.Claims{UserID: user.ID, Email: user.Email, Role: "parent"})
//	claims, err := svc.Validate(token)
//
// Validate maps library errors onto this package's sentinels (ErrTokenExpired,
// ErrInvalidSignature, ...) so callers never import the underlying library.
package jwt
