package identity

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid identity token")
	ErrTokenExpired = errors.New("identity token expired")
	ErrUnknownKey   = errors.New("identity token signed with unknown key")
	ErrNotEnabled   = errors.New("identity provider not configured")
)

const (
	defaultCertsURL  = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"
	defaultIssuerFmt = "https://securetoken.google.com/%s"
	defaultCacheTTL  = time.Hour

	// minRefreshInterval bounds how often an unknown kid can trigger a fetch
	minRefreshInterval = time.Minute
)

// Token is the verified identity asserted by the provider
type Token struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	ExpiresAt     time.Time
}

// Config holds identity provider settings
type Config struct {
	ProjectID string
	CertsURL  string // defaults to the Google secure token certificate endpoint
	Issuer    string // defaults to https://securetoken.google.com/<ProjectID>
	Client    *http.Client
	Now       func() time.Time
}

// Verifier validates ID tokens issued by the external identity provider.
// Public certificates are fetched lazily and cached for the max-age the
// provider advertises.
type Verifier struct {
	projectID string
	certsURL  string
	issuer    string
	client    *http.Client
	now       func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time

	refreshMu   sync.Mutex
	lastRefresh time.Time
}

type idClaims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// NewVerifier creates a verifier. It returns nil when no project is configured.
func NewVerifier(cfg Config) *Verifier {
	if cfg.ProjectID == "" {
		return nil
	}
	v := &Verifier{
		projectID: cfg.ProjectID,
		certsURL:  cfg.CertsURL,
		issuer:    cfg.Issuer,
		client:    cfg.Client,
		now:       cfg.Now,
	}
	if v.certsURL == "" {
		v.certsURL = defaultCertsURL
	}
	if v.issuer == "" {
		v.issuer = fmt.Sprintf(defaultIssuerFmt, cfg.ProjectID)
	}
	if v.client == nil {
		v.client = &http.Client{Timeout: 10 * time.Second}
	}
	if v.now == nil {
		v.now = time.Now
	}
	return v
}

// Verify checks signature, issuer, audience, expiry and subject of an ID token
func (v *Verifier) Verify(ctx context.Context, raw string) (*Token, error) {
	if v == nil {
		return nil, ErrNotEnabled
	}

	claims := &idClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKey
		}
		return v.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, ErrUnknownKey):
			return nil, ErrUnknownKey
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	return &Token{
		Subject:       claims.Subject,
		Email:         strings.ToLower(strings.TrimSpace(claims.Email)),
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		ExpiresAt:     claims.ExpiresAt.Time,
	}, nil
}

// key returns the public key for kid. A stale cache is always refreshed. An
// unknown kid on a fresh cache triggers a refresh at most once per
// minRefreshInterval, since providers rotate keys ahead of cache expiry.
// Refreshes are serialized so concurrent misses share one fetch.
func (v *Verifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok, fresh := v.cached(kid); ok && fresh {
		return key, nil
	}

	v.refreshMu.Lock()
	defer v.refreshMu.Unlock()

	key, ok, fresh := v.cached(kid)
	switch {
	case ok && fresh:
		return key, nil
	case fresh && v.now().Sub(v.lastRefresh) < minRefreshInterval:
		return nil, ErrUnknownKey
	}

	v.lastRefresh = v.now()
	if err := v.refresh(ctx); err != nil {
		return nil, err
	}

	if key, ok, _ := v.cached(kid); ok {
		return key, nil
	}
	return nil, ErrUnknownKey
}

func (v *Verifier) cached(kid string) (*rsa.PublicKey, bool, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	key, ok := v.keys[kid]
	return key, ok, v.now().Before(v.expiresAt)
}

func (v *Verifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch identity certificates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch identity certificates: unexpected status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("decode identity certificates: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, certPEM := range certs {
		key, err := parseCertificateKey(certPEM)
		if err != nil {
			return fmt.Errorf("parse certificate %s: %w", kid, err)
		}
		keys[kid] = key
	}

	v.mu.Lock()
	v.keys = keys
	v.expiresAt = v.now().Add(maxAge(resp.Header.Get("Cache-Control")))
	v.mu.Unlock()
	return nil
}

func parseCertificateKey(certPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return key, nil
}

// maxAge extracts max-age from a Cache-Control header
func maxAge(header string) time.Duration {
	for _, directive := range strings.Split(header, ",") {
		directive = strings.TrimSpace(directive)
		if value, ok := strings.CutPrefix(directive, "max-age="); ok {
			if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return defaultCacheTTL
}
