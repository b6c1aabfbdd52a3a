package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pulsedesk/pulsedesk/internal/shared"
)

const issuer = "pulsedesk"

// Token classes. Request authentication only ever accepts the access class;
// the refresh class is accepted solely by the refresh endpoint.
const (
	classAccess  = "access"
	classRefresh = "refresh"
)

// Claims is the verified JWT payload carried by both token classes.
type Claims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Class  string `json:"cls"`
	jwt.RegisteredClaims
}

// Identity converts verified claims into a request-scoped identity.
func (c *Claims) Identity() shared.Identity {
	return shared.Identity{
		UserID: c.UserID,
		Email:  c.Email,
		Role:   shared.Role(c.Role),
	}
}

// Verifier validates signed bearer tokens. Access and refresh tokens are
// signed with distinct secrets so one class can never stand in for the other.
type Verifier struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewVerifier constructs a Verifier from the two pre-shared secrets.
func NewVerifier(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Verifier {
	return &Verifier{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// Verify validates an access token and yields the caller identity.
// Any failure (malformed, bad signature, expired, wrong class) reports
// shared.ErrUnauthenticated.
func (v *Verifier) Verify(token string) (shared.Identity, error) {
	claims, err := v.VerifyAccess(token)
	if err != nil {
		return shared.Identity{}, err
	}
	return claims.Identity(), nil
}

// VerifyAccess validates an access token and returns the full claims.
func (v *Verifier) VerifyAccess(token string) (*Claims, error) {
	return v.parse(token, v.accessSecret, classAccess)
}

// VerifyRefresh validates a refresh token and returns the full claims.
func (v *Verifier) VerifyRefresh(token string) (*Claims, error) {
	return v.parse(token, v.refreshSecret, classRefresh)
}

func (v *Verifier) parse(token string, secret []byte, class string) (*Claims, error) {
	if token == "" {
		return nil, shared.ErrUnauthenticated
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !parsed.Valid {
		return nil, shared.ErrUnauthenticated
	}
	if claims.Class != class {
		return nil, shared.ErrUnauthenticated
	}
	return claims, nil
}

// IssueAccess signs a new access token for the identity.
func (v *Verifier) IssueAccess(id shared.Identity) (token string, jti string, err error) {
	return v.issue(id, v.accessSecret, classAccess, v.accessTTL)
}

// IssueRefresh signs a new refresh token for the identity.
func (v *Verifier) IssueRefresh(id shared.Identity) (token string, jti string, err error) {
	return v.issue(id, v.refreshSecret, classRefresh, v.refreshTTL)
}

// AccessTTL exposes the access token lifetime.
func (v *Verifier) AccessTTL() time.Duration {
	return v.accessTTL
}

// RefreshTTL exposes the refresh token lifetime.
func (v *Verifier) RefreshTTL() time.Duration {
	return v.refreshTTL
}

func (v *Verifier) issue(id shared.Identity, secret []byte, class string, ttl time.Duration) (string, string, error) {
	now := v.now().UTC()
	jti := uuid.NewString()
	claims := &Claims{
		UserID: id.UserID,
		Email:  id.Email,
		Role:   string(id.Role),
		Class:  class,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}
