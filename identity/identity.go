// Package identity verifies credentials issued by external identity
// providers and reduces them to an email and display name.
package identity

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"golang.org/x/oauth2"
)

const (
	ProviderGoogle   = "google"
	ProviderFirebase = "firebase"
)

// Identity is what a provider vouches for. Email may be empty when the
// provider did not return one.
type Identity struct {
	Email string
	Name  string
}

// Verifier checks a provider-specific payload: an authorization code for
// Google, an ID token for Firebase.
type Verifier interface {
	Verify(ctx context.Context, payload string) (*Identity, error)
}

// Verifiers maps a provider name to its verifier.
type Verifiers map[string]Verifier

func (v Verifiers) Get(provider string) (Verifier, error) {
	verifier, ok := v[strings.ToLower(provider)]
	if !ok || verifier == nil {
		return nil, apperrors.Wrapf(apperrors.ErrUnsupportedProvider, "provider %q", provider)
	}
	return verifier, nil
}

type flowKey struct{}

// AuthFlow carries the values bound to one authorization redirect.
type AuthFlow struct {
	Nonce        string
	CodeVerifier string
}

// WithAuthFlow attaches the nonce and PKCE verifier of the redirect that
// produced an authorization code so the verifier can check them.
func WithAuthFlow(ctx context.Context, flow AuthFlow) context.Context {
	return context.WithValue(ctx, flowKey{}, flow)
}

func authFlowFrom(ctx context.Context) (AuthFlow, bool) {
	flow, ok := ctx.Value(flowKey{}).(AuthFlow)
	return flow, ok
}

// withTimeout bounds a provider call. A zero timeout leaves ctx unchanged.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// classify sorts a provider error into unavailable (network, deadline,
// provider 5xx) or rejected (everything the provider or the token itself
// refused). ctx is the context the failed call ran under.
func classify(ctx context.Context, err error, msg string) error {
	if providerDown(ctx, err) {
		return unavailable(err, msg)
	}
	return apperrors.Mark(apperrors.ErrIdentityVerificationFailed, apperrors.Wrapf(err, "%s", msg))
}

func providerDown(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		return true
	}
	var retrieveErr *oauth2.RetrieveError
	return errors.As(err, &retrieveErr) && retrieveErr.Response != nil &&
		retrieveErr.Response.StatusCode >= http.StatusInternalServerError
}

func unavailable(err error, msg string) error {
	return apperrors.Mark(apperrors.ErrIdentityProviderUnavailable, apperrors.Wrapf(err, "%s", msg))
}

func rejected(msg string) error {
	return apperrors.Wrapf(apperrors.ErrIdentityVerificationFailed, "%s", msg)
}
