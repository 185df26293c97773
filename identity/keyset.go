package identity

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// remoteKeyFetchPrefix is how oidc.RemoteKeySet reports a failed JWKS download.
const remoteKeyFetchPrefix = "fetching keys"

type keyFetchKey struct{}

// keyFetch holds the key set failure of a single verification.
type keyFetch struct {
	err error
}

// fetchTrackingKeySet records JWKS download failures on the verification's
// context. IDTokenVerifier flattens key set errors into strings, which would
// otherwise make an unreachable endpoint look like a forged token.
type fetchTrackingKeySet struct {
	oidc.KeySet
}

func trackKeyFetches(keySet oidc.KeySet) oidc.KeySet {
	if _, ok := keySet.(fetchTrackingKeySet); ok {
		return keySet
	}
	return fetchTrackingKeySet{KeySet: keySet}
}

func (k fetchTrackingKeySet) VerifySignature(ctx context.Context, jwt string) ([]byte, error) {
	payload, err := k.KeySet.VerifySignature(ctx, jwt)
	if err != nil && isKeyFetchFailure(err) {
		if fetch, ok := ctx.Value(keyFetchKey{}).(*keyFetch); ok {
			fetch.err = err
		}
	}
	return payload, err
}

func isKeyFetchFailure(err error) bool {
	var netErr net.Error
	return strings.HasPrefix(err.Error(), remoteKeyFetchPrefix) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.As(err, &netErr)
}

// verifyIDToken runs verifier and reports key set outages as unavailable.
func verifyIDToken(ctx context.Context, verifier *oidc.IDTokenVerifier, rawIDToken, msg string) (*oidc.IDToken, error) {
	fetch := &keyFetch{}
	idToken, err := verifier.Verify(context.WithValue(ctx, keyFetchKey{}, fetch), rawIDToken)
	if err == nil {
		return idToken, nil
	}
	if fetch.err != nil {
		return nil, unavailable(fetch.err, msg)
	}
	return nil, classify(ctx, err, msg)
}
