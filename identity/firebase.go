package identity

import (
	"context"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	firebaseIssuerPrefix = "https://securetoken.google.com/"
	firebaseJWKSURL      = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

type FirebaseConfig struct {
	ProjectID string
	Timeout   time.Duration
}

var _ Verifier = (*FirebaseVerifier)(nil)

// FirebaseVerifier checks Firebase Authentication ID tokens: issuer
// securetoken.google.com/<project>, audience <project>, Google signing keys.
type FirebaseVerifier struct {
	timeout  time.Duration
	verifier *oidc.IDTokenVerifier
}

type FirebaseOption func(*firebaseOptions)

type firebaseOptions struct {
	keySet oidc.KeySet
	now    func() time.Time
}

// WithFirebaseKeySet replaces the remote Google key set.
func WithFirebaseKeySet(keySet oidc.KeySet) FirebaseOption {
	return func(o *firebaseOptions) {
		o.keySet = keySet
	}
}

func WithFirebaseNow(now func() time.Time) FirebaseOption {
	return func(o *firebaseOptions) {
		o.now = now
	}
}

func NewFirebaseVerifier(cfg FirebaseConfig, options ...FirebaseOption) *FirebaseVerifier {
	opts := firebaseOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.keySet == nil {
		opts.keySet = oidc.NewRemoteKeySet(context.Background(), firebaseJWKSURL)
	}

	return &FirebaseVerifier{
		timeout: cfg.Timeout,
		verifier: oidc.NewVerifier(firebaseIssuerPrefix+cfg.ProjectID, trackKeyFetches(opts.keySet), &oidc.Config{
			ClientID: cfg.ProjectID,
			Now:      opts.now,
		}),
	}
}

func (f *FirebaseVerifier) Verify(ctx context.Context, rawIDToken string) (*Identity, error) {
	if rawIDToken == "" {
		return nil, rejected("missing ID token")
	}

	ctx, cancel := withTimeout(ctx, f.timeout)
	defer cancel()

	idToken, err := verifyIDToken(ctx, f.verifier, rawIDToken, "Firebase ID token verification failed")
	if err != nil {
		return nil, err
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, rejected("failed to extract claims")
	}

	return &Identity{Email: claims.Email, Name: claims.Name}, nil
}
