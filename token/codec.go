package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
)

// Type distinguishes access tokens from refresh tokens inside the "type" claim.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Claims is the payload of every token the codec issues.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Type  Type   `json:"type"`
	jwt.RegisteredClaims
}

type Codec struct {
	signer  Signer
	issuer  string
	nowFunc func() time.Time
}

type CodecOption func(*Codec)

func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

func NewCodec(signer Signer, options ...CodecOption) *Codec {
	c := &Codec{signer: signer}
	for _, opt := range options {
		opt(c)
	}
	if c.nowFunc == nil {
		c.nowFunc = time.Now
	}
	return c
}

func (c *Codec) IssueAccess(subjectID, email, role string, ttl time.Duration) (string, error) {
	return c.issue(subjectID, email, role, TypeAccess, ttl)
}

func (c *Codec) IssueRefresh(subjectID, email, role string, ttl time.Duration) (string, error) {
	return c.issue(subjectID, email, role, TypeRefresh, ttl)
}

func (c *Codec) issue(subjectID, email, role string, typ Type, ttl time.Duration) (string, error) {
	now := c.nowFunc()
	claims := Claims{
		Email: email,
		Role:  role,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(), // Unique token ID, no two issued tokens are equal
		},
	}
	return c.signer.Sign(claims)
}

// Verify checks signature, expiry, issuer (when set) and the "type" claim. Expiry is reported
// as ErrTokenExpired, a wrong type as ErrTokenTypeMismatch and anything else
// as ErrTokenInvalid.
func (c *Codec) Verify(rawToken string, expected Type) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, c.signer.GetVerificationKey, opts...)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperrors.Mark(apperrors.ErrTokenExpired, err)
	default:
		return nil, apperrors.Mark(apperrors.ErrTokenInvalid, err)
	}

	if claims.Type != expected {
		return nil, apperrors.ErrTokenTypeMismatch
	}
	return claims, nil
}

// Remaining is how long claims stay valid from now, never negative.
func (c *Codec) Remaining(claims *Claims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	d := claims.ExpiresAt.Time.Sub(c.nowFunc())
	if d < 0 {
		return 0
	}
	return d
}
