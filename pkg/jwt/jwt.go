package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidKey       = errors.New("invalid key")
)

// Claims represents the claims carried by a Kinship access token
type Claims struct {
	Email  string `json:"email,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"` // parent, volunteer, admin

	gojwt.RegisteredClaims
}

// RoleAdmin is the role claim granted to organization administrators
const RoleAdmin = "admin"

// IsAdmin reports whether the token was issued to an administrator
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Service signs and validates Kinship access tokens
type Service struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	expiration time.Duration
}

// Config locates the PEM keys and sets token lifetime
type Config struct {
	PrivateKeyPath string
	PublicKeyPath  string
	Issuer         string
	ExpirationMins int
}

// NewService builds a token service from PEM key files. A service without a
// private key can still validate tokens; one without any key can do neither.
func NewService(cfg Config) (*Service, error) {
	s := &Service{
		issuer:     cfg.Issuer,
		expiration: time.Duration(cfg.ExpirationMins) * time.Minute,
	}

	switch {
	case cfg.PrivateKeyPath != "":
		key, err := readPrivateKey(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load signing key %s: %w", cfg.PrivateKeyPath, err)
		}
		s.privateKey = key
		s.publicKey = &key.PublicKey
	case cfg.PublicKeyPath != "":
		key, err := readPublicKey(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load verification key %s: %w", cfg.PublicKeyPath, err)
		}
		s.publicKey = key
	}

	return s, nil
}

// GenerateKeyPair writes a fresh 2048-bit RSA key pair as PEM files
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("generate rsa key: %w", err)
	}

	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("encode public key: %w", err)
	}

	if err := writePEM(privateKeyPath, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key), 0o600); err != nil {
		return err
	}
	return writePEM(publicKeyPath, "PUBLIC KEY", pub, 0o644)
}

// Sign creates a signed RS256 token. Issuer, issued-at and token ID are always
// set; expiry defaults to the configured duration when the caller leaves it unset.
func (s *Service) Sign(claims Claims) (string, error) {
	if s.privateKey == nil {
		return "", ErrInvalidKey
	}

	now := time.Now()
	claims.Issuer = s.issuer
	claims.IssuedAt = gojwt.NewNumericDate(now)
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = gojwt.NewNumericDate(now.Add(s.expiration))
	}
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
	if claims.Subject == "" {
		claims.Subject = claims.UserID
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims)
	return token.SignedString(s.privateKey)
}

// Validate verifies the signature, time claims and issuer and returns the claims
func (s *Service) Validate(tokenString string) (*Claims, error) {
	if s.publicKey == nil {
		return nil, ErrInvalidKey
	}

	claims := &Claims{}
	_, err := gojwt.ParseWithClaims(tokenString, claims, func(token *gojwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*gojwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.publicKey, nil
	}, gojwt.WithIssuer(s.issuer), gojwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		switch {
		case errors.Is(err, gojwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, gojwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	return claims, nil
}

// GetExpiration is the lifetime given to tokens without an explicit expiry
func (s *Service) GetExpiration() time.Duration {
	return s.expiration
}

// NewTestService wraps an in-memory key. Tests only.
func NewTestService(privateKey *rsa.PrivateKey, issuer string, expiration time.Duration) *Service {
	return &Service{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		issuer:     issuer,
		expiration: expiration,
	}
}

func writePEM(path, blockType string, der []byte, perm os.FileMode) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readPEM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	return block.Bytes, nil
}

func readPrivateKey(path string) (*rsa.PrivateKey, error) {
	der, err := readPEM(path)
	if err != nil {
		return nil, err
	}
	return x509.ParsePKCS1PrivateKey(der)
}

func readPublicKey(path string) (*rsa.PublicKey, error) {
	der, err := readPEM(path)
	if err != nil {
		return nil, err
	}
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, err
	}
	key, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("verification key is not RSA")
	}
	return key, nil
}
