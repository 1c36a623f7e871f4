package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer     = "ares-dashboard"
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims is the identity payload carried by both token kinds. The type tag
// distinguishes access from refresh tokens on the wire; DecodeAccess and
// DecodeRefresh return distinct types so the two cannot be mixed up in code.
type Claims struct {
	Email          string   `json:"email"`
	Role           Role     `json:"role"`
	OrganizationID string   `json:"org,omitempty"`
	Permissions    []string `json:"permissions,omitempty"`
	TokenType      string   `json:"token_type"`
	jwt.RegisteredClaims
}

// AccessClaims is a decoded, verified access token payload.
type AccessClaims struct{ Claims }

// RefreshClaims is a decoded, verified refresh token payload.
type RefreshClaims struct{ Claims }

// ClaimInput describes the identity a new token pair is minted for.
type ClaimInput struct {
	SubjectID      string
	Email          string
	Role           Role
	OrganizationID string
	// Permissions are explicit grants beyond the role defaults, used for
	// provider-issued identities. They augment the role table, never
	// restrict it.
	Permissions []string
}

// TokenPair holds the two independently decodable tokens minted for one
// identity. The access token is short-lived; the refresh token carries the
// refresh type tag and a long validity window.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Codec signs and verifies session tokens with HS256. Access and refresh
// tokens use independent secrets, so one kind can never verify as the other
// even before the type tag is checked. The codec is stateless after
// construction and safe for concurrent use.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// CodecOption configures optional Codec behavior.
type CodecOption func(*Codec)

// WithIssuer overrides the issuer claim.
func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		if s := strings.TrimSpace(issuer); s != "" {
			c.issuer = s
		}
	}
}

// WithAccessTTL overrides the access token lifetime.
func WithAccessTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		if ttl > 0 {
			c.accessTTL = ttl
		}
	}
}

// WithRefreshTTL overrides the refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		if ttl > 0 {
			c.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec builds a token codec from the two signing secrets. Absence of
// either secret is a deployment error and fails construction; there is no
// insecure fallback.
func NewCodec(accessSecret, refreshSecret string, opts ...CodecOption) (*Codec, error) {
	accessSecret = strings.TrimSpace(accessSecret)
	refreshSecret = strings.TrimSpace(refreshSecret)
	if accessSecret == "" || refreshSecret == "" {
		return nil, ErrMissingSecret
	}
	c := &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        defaultIssuer,
		accessTTL:     defaultAccessTTL,
		refreshTTL:    defaultRefreshTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue mints an access/refresh token pair for the given identity.
func (c *Codec) Issue(in ClaimInput) (TokenPair, error) {
	in.SubjectID = strings.TrimSpace(in.SubjectID)
	if in.SubjectID == "" {
		return TokenPair{}, fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	if !in.Role.Valid() {
		return TokenPair{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}

	now := c.now().UTC()
	accessExp := now.Add(c.accessTTL)
	refreshExp := now.Add(c.refreshTTL)

	access, err := c.sign(in, tokenTypeAccess, now, accessExp, c.accessSecret)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := c.sign(in, tokenTypeRefresh, now, refreshExp, c.refreshSecret)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (c *Codec) sign(in ClaimInput, tokenType string, now, exp time.Time, secret []byte) (string, error) {
	claims := Claims{
		Email:          strings.TrimSpace(strings.ToLower(in.Email)),
		Role:           in.Role,
		OrganizationID: strings.TrimSpace(in.OrganizationID),
		Permissions:    dedupePermissionKeys(in.Permissions),
		TokenType:      tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   in.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// DecodeAccess verifies an access token and returns its claims. Any failure
// (malformed, forged, expired, wrong type tag) maps to ErrInvalidToken; the
// token contents are never included in the error.
func (c *Codec) DecodeAccess(token string) (*AccessClaims, error) {
	claims, err := c.decode(token, c.accessSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, fmt.Errorf("%w: wrong token type", ErrInvalidToken)
	}
	return &AccessClaims{Claims: *claims}, nil
}

// DecodeRefresh verifies a refresh token, additionally rejecting tokens
// without the refresh type tag so an access token cannot stand in for one.
func (c *Codec) DecodeRefresh(token string) (*RefreshClaims, error) {
	claims, err := c.decode(token, c.refreshSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, fmt.Errorf("%w: wrong token type", ErrInvalidToken)
	}
	return &RefreshClaims{Claims: *claims}, nil
}

func (c *Codec) decode(token string, secret []byte) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now().UTC() }))
	if err != nil {
		// Expiry is kept distinguishable for diagnostics but collapses to
		// ErrInvalidToken for callers.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := c.validateClaims(claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims.Permissions = dedupePermissionKeys(claims.Permissions)
	return claims, nil
}

func (c *Codec) validateClaims(claims *Claims) error {
	if claims.Issuer != c.issuer {
		return fmt.Errorf("unexpected issuer %q", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("expiry precedes issued-at")
	}
	if !claims.Role.Valid() {
		return fmt.Errorf("unknown role %q", claims.Role)
	}
	return nil
}

// ExtractBearer parses an Authorization header of the exact form
// "Bearer <token>". Any other shape yields ok=false rather than an error.
func ExtractBearer(header string) (token string, ok bool) {
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func dedupePermissionKeys(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(keys))
	var out []string
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
