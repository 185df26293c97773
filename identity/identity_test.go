package identity_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-bookstore-server/identity"
	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testClientID  = "client-123"
	testProjectID = "bookstore-test"
	testIssuer    = "https://issuer.example.com"
	testNonce     = "nonce-abc"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type testKeys struct {
	private *rsa.PrivateKey
	keySet  *oidc.StaticKeySet
}

func newTestKeys(t *testing.T) *testKeys {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &testKeys{
		private: key,
		keySet:  &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}},
	}
}

func (k *testKeys) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(k.private)
	require.NoError(t, err)
	return signed
}

func idClaims(issuer, audience string) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":            issuer,
		"aud":            audience,
		"sub":            "provider-user-1",
		"email":          "reader@example.com",
		"email_verified": true,
		"name":           "Avid Reader",
		"nonce":          testNonce,
		"iat":            testNow.Unix(),
		"exp":            testNow.Add(time.Hour).Unix(),
	}
}

// newTokenEndpoint serves an OAuth2 token endpoint that answers every code
// with idToken, except "bad-code" which is refused and "outage-code" which
// fails with a 503.
func newTokenEndpoint(t *testing.T, idToken string, delay time.Duration) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.Form.Get("code") == "outage-code" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "temporarily_unavailable"})
			return
		}
		if r.Form.Get("code") == "bad-code" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "provider-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idToken,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGoogle(t *testing.T, keys *testKeys, tokenURL string, timeout time.Duration) *identity.GoogleVerifier {
	t.Helper()

	verifier := oidc.NewVerifier(testIssuer, keys.keySet, &oidc.Config{
		ClientID: testClientID,
		Now:      func() time.Time { return testNow },
	})
	endpoint := oauth2.Endpoint{
		AuthURL:   "https://issuer.example.com/auth",
		TokenURL:  tokenURL,
		AuthStyle: oauth2.AuthStyleInParams,
	}
	return identity.NewGoogleVerifier(identity.GoogleConfig{
		ClientID:     testClientID,
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/api/auth/oauth/google/callback",
		Issuer:       testIssuer,
		Timeout:      timeout,
	}, identity.WithGoogleEndpoint(endpoint, verifier))
}

func TestGoogleVerifier_AuthCodeURL(t *testing.T) {
	keys := newTestKeys(t)
	g := newGoogle(t, keys, "https://issuer.example.com/token", time.Second)

	raw, err := g.AuthCodeURL(context.Background(), "state-1", testNonce, "challenge")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "state-1", q.Get("state"))
	require.Equal(t, testNonce, q.Get("nonce"))
	require.Equal(t, testClientID, q.Get("client_id"))
	require.Equal(t, "challenge", q.Get("code_challenge"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.Contains(t, q.Get("scope"), "email")
}

func TestGoogleVerifier_Verify(t *testing.T) {
	keys := newTestKeys(t)
	ctx := identity.WithAuthFlow(context.Background(), identity.AuthFlow{Nonce: testNonce})

	t.Run("success", func(t *testing.T) {
		srv := newTokenEndpoint(t, keys.sign(t, idClaims(testIssuer, testClientID)), 0)
		g := newGoogle(t, keys, srv.URL, time.Second)

		id, err := g.Verify(ctx, "good-code")
		require.NoError(t, err)
		require.Equal(t, "reader@example.com", id.Email)
		require.Equal(t, "Avid Reader", id.Name)
	})

	t.Run("code refused", func(t *testing.T) {
		srv := newTokenEndpoint(t, keys.sign(t, idClaims(testIssuer, testClientID)), 0)
		g := newGoogle(t, keys, srv.URL, time.Second)

		_, err := g.Verify(ctx, "bad-code")
		require.ErrorIs(t, err, apperrors.ErrIdentityVerificationFailed)
		require.NotErrorIs(t, err, apperrors.ErrIdentityProviderUnavailable)
	})

	t.Run("wrong audience", func(t *testing.T) {
		srv := newTokenEndpoint(t, keys.sign(t, idClaims(testIssuer, "someone-else")), 0)
		g := newGoogle(t, keys, srv.URL, time.Second)

		_, err := g.Verify(ctx, "good-code")
		require.ErrorIs(t, err, apperrors.ErrIdentityVerificationFailed)
	})

	t.Run("nonce mismatch", func(t *testing.T) {
		srv := newTokenEndpoint(t, keys.sign(t, idClaims(testIssuer, testClientID)), 0)
		g := newGoogle(t, keys, srv.URL, time.Second)

		other := identity.WithAuthFlow(context.Background(), identity.AuthFlow{Nonce: "other"})
		_, err := g.Verify(other, "good-code")
		require.ErrorIs(t, err, apperrors.ErrIdentityVerificationFailed)
	})

	t.Run("unverified email", func(t *testing.T) {
		claims := idClaims(testIssuer, testClientID)
		claims["email_verified"] = false
		srv := newTokenEndpoint(t, keys.sign(t, claims), 0)
		g := newGoogle(t, keys, srv.URL, time.Second)

		_, err := g.Verify(ctx, "good-code")
		require.ErrorIs(t, err, apperrors.ErrIdentityVerificationFailed)
	})

	t.Run("provider timeout", func(t *testing.T) {
		srv := newTokenEndpoint(t, keys.sign(t, idClaims(testIssuer, testClientID)), 200*time.Millisecond)
		g := newGoogle(t, keys, srv.URL, 20*time.Millisecond)

		_, err := g.Verify(ctx, "good-code")
		require.ErrorIs(t, err, apperrors.ErrIdentityProviderUnavailable)
	})

	t.Run("token endpoint 5xx", func(t *testing.T) {
		srv := newTokenEndpoint(t, keys.sign(t, idClaims(testIssuer, testClientID)), 0)
		g := newGoogle(t, keys, srv.URL, time.Second)

		_, err := g.Verify(ctx, "outage-code")
		require.ErrorIs(t, err, apperrors.ErrIdentityProviderUnavailable)
	})

	t.Run("provider down", func(t *testing.T) {
		srv := newTokenEndpoint(t, "", 0)
		srv.Close()
		g := newGoogle(t, keys, srv.URL, time.Second)

		_, err := g.Verify(ctx, "good-code")
		require.ErrorIs(t, err, apperrors.ErrIdentityProviderUnavailable)
		require.ErrorIs(t, err, apperrors.ErrIdentityVerificationFailed)
	})
}

func newFirebase(keys *testKeys) *identity.FirebaseVerifier {
	return newFirebaseWithKeySet(keys.keySet, time.Second)
}

func newFirebaseWithKeySet(keySet oidc.KeySet, timeout time.Duration) *identity.FirebaseVerifier {
	return identity.NewFirebaseVerifier(
		identity.FirebaseConfig{ProjectID: testProjectID, Timeout: timeout},
		identity.WithFirebaseKeySet(keySet),
		identity.WithFirebaseNow(func() time.Time { return testNow }),
	)
}

// newJWKSEndpoint serves a signing-key endpoint that waits delay and then
// answers with status and an empty key set.
func newJWKSEndpoint(t *testing.T, status int, delay time.Duration) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"keys":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFirebaseVerifier_KeyEndpointOutage(t *testing.T) {
	keys := newTestKeys(t)
	issuer := "https://securetoken.google.com/" + testProjectID
	idToken := keys.sign(t, idClaims(issuer, testProjectID))

	t.Run("unreachable", func(t *testing.T) {
		srv := newJWKSEndpoint(t, http.StatusOK, 0)
		srv.Close()
		f := newFirebaseWithKeySet(oidc.NewRemoteKeySet(context.Background(), srv.URL), time.Second)

		_, err := f.Verify(context.Background(), idToken)
		require.ErrorIs(t, err, apperrors.ErrIdentityProviderUnavailable)
	})

	t.Run("slower than timeout", func(t *testing.T) {
		srv := newJWKSEndpoint(t, http.StatusOK, 200*time.Millisecond)
		f := newFirebaseWithKeySet(oidc.NewRemoteKeySet(context.Background(), srv.URL), 20*time.Millisecond)

		_, err := f.Verify(context.Background(), idToken)
		require.ErrorIs(t, err, apperrors.ErrIdentityProviderUnavailable)
	})

	t.Run("server error", func(t *testing.T) {
		srv := newJWKSEndpoint(t, http.StatusServiceUnavailable, 0)
		f := newFirebaseWithKeySet(oidc.NewRemoteKeySet(context.Background(), srv.URL), time.Second)

		_, err := f.Verify(context.Background(), idToken)
		require.ErrorIs(t, err, apperrors.ErrIdentityProviderUnavailable)
	})

	t.Run("keys fetched but none match", func(t *testing.T) {
		srv := newJWKSEndpoint(t, http.StatusOK, 0)
		f := newFirebaseWithKeySet(oidc.NewRemoteKeySet(context.Background(), srv.URL), time.Second)

		_, err := f.Verify(context.Background(), idToken)
		require.ErrorIs(t, err, apperrors.ErrIdentityVerificationFailed)
		require.NotErrorIs(t, err, apperrors.ErrIdentityProviderUnavailable)
	})
}

func TestFirebaseVerifier_Verify(t *testing.T) {
	keys := newTestKeys(t)
	issuer := "https://securetoken.google.com/" + testProjectID

	t.Run("success", func(t *testing.T) {
		id, err := newFirebase(keys).Verify(context.Background(), keys.sign(t, idClaims(issuer, testProjectID)))
		require.NoError(t, err)
		require.Equal(t, "reader@example.com", id.Email)
	})

	t.Run("no email", func(t *testing.T) {
		claims := idClaims(issuer, testProjectID)
		delete(claims, "email")
		id, err := newFirebase(keys).Verify(context.Background(), keys.sign(t, claims))
		require.NoError(t, err)
		require.Empty(t, id.Email)
	})

	t.Run("wrong project", func(t *testing.T) {
		_, err := newFirebase(keys).Verify(context.Background(), keys.sign(t, idClaims(issuer, "other-project")))
		require.ErrorIs(t, err, apperrors.ErrIdentityVerificationFailed)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := newFirebase(keys).Verify(context.Background(), keys.sign(t, idClaims(testIssuer, testProjectID)))
		require.ErrorIs(t, err, apperrors.ErrIdentityVerificationFailed)
	})

	t.Run("expired", func(t *testing.T) {
		claims := idClaims(issuer, testProjectID)
		claims["exp"] = testNow.Add(-time.Minute).Unix()
		_, err := newFirebase(keys).Verify(context.Background(), keys.sign(t, claims))
		require.ErrorIs(t, err, apperrors.ErrIdentityVerificationFailed)
	})

	t.Run("foreign key", func(t *testing.T) {
		other := newTestKeys(t)
		_, err := newFirebase(keys).Verify(context.Background(), other.sign(t, idClaims(issuer, testProjectID)))
		require.ErrorIs(t, err, apperrors.ErrIdentityVerificationFailed)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := newFirebase(keys).Verify(context.Background(), "not-a-token")
		require.ErrorIs(t, err, apperrors.ErrIdentityVerificationFailed)
	})
}

func TestVerifiers_Get(t *testing.T) {
	keys := newTestKeys(t)
	v := identity.Verifiers{identity.ProviderFirebase: newFirebase(keys)}

	_, err := v.Get("Firebase")
	require.NoError(t, err)

	_, err = v.Get("github")
	require.ErrorIs(t, err, apperrors.ErrUnsupportedProvider)
}
