package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer signs claims and hands back the verification key for a parsed token.
type Signer interface {
	// Sign creates a signed JWT token from claims
	Sign(claims jwt.Claims) (string, error)

	// GetVerificationKey is a jwt.Keyfunc; it rejects tokens signed with any other method
	GetVerificationKey(token *jwt.Token) (any, error)

	// GetSigningMethod returns the JWT signing method used
	GetSigningMethod() jwt.SigningMethod
}

var _ Signer = (*HMACsigner)(nil)

// HMACsigner implements Signer using a symmetric HMAC secret
type HMACsigner struct {
	secret []byte
	method *jwt.SigningMethodHMAC
}

// NewHMACSigner creates a new HMAC signer for HS256, HS384 or HS512.
func NewHMACSigner(secret, algorithm string) (*HMACsigner, error) {
	if secret == "" {
		return nil, errors.New("signing secret is empty")
	}

	var method *jwt.SigningMethodHMAC
	switch algorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, errors.Errorf("unsupported signing algorithm: %s", algorithm)
	}

	return &HMACsigner{
		secret: []byte(secret),
		method: method,
	}, nil
}

func (h *HMACsigner) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(h.method, claims)
	signedToken, err := token.SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signedToken, nil
}

func (h *HMACsigner) GetVerificationKey(token *jwt.Token) (interface{}, error) {
	if token.Method.Alg() != h.method.Alg() {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

func (h *HMACsigner) GetSigningMethod() jwt.SigningMethod {
	return h.method
}
