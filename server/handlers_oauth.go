package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-bookstore-server/auth"
	"github.com/jrsteele09/go-bookstore-server/identity"
	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/server/authflowrepo"
)

type federatedLoginRequest struct {
	IDToken  string `json:"id_token"`
	Provider string `json:"provider,omitempty"` // defaults to firebase
}

// OAuthRedirectHandler sends the browser to the provider's consent screen.
// The state, nonce and PKCE verifier are kept until the callback redeems them.
func (s *Server) OAuthRedirectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := strings.ToLower(chi.URLParam(r, "provider"))
		builder, ok := s.consent[provider]
		if !ok || builder == nil {
			writeError(w, r, apperrors.Wrapf(apperrors.ErrUnsupportedProvider, "provider %q", provider))
			return
		}

		state, err := generateRandomString(32)
		if err != nil {
			writeError(w, r, err)
			return
		}
		nonce, err := generateRandomString(32)
		if err != nil {
			writeError(w, r, err)
			return
		}
		codeVerifier, err := generateRandomString(32)
		if err != nil {
			writeError(w, r, err)
			return
		}

		err = s.authState.Upsert(state, &authflowrepo.AuthFlowState{
			Provider:     provider,
			CodeVerifier: codeVerifier,
			Nonce:        nonce,
		})
		if err != nil {
			writeError(w, r, apperrors.Wrapf(err, "[Server OAuthRedirectHandler] store auth flow"))
			return
		}

		consentURL, err := builder.AuthCodeURL(r.Context(), state, nonce, generateCodeChallenge(codeVerifier))
		if err != nil {
			_ = s.authState.Delete(state)
			writeError(w, r, err)
			return
		}

		s.SetOAuthStateCookie(w, state, r)
		http.Redirect(w, r, consentURL, http.StatusFound)
	}
}

// OAuthCallbackHandler completes a consent redirect: the state must match the
// cookie set by OAuthRedirectHandler and a pending flow, then the code is
// exchanged and the user logged in.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := strings.ToLower(chi.URLParam(r, "provider"))
		query := r.URL.Query()

		// Check for authorization errors
		if errorParam := query.Get("error"); errorParam != "" {
			writeError(w, r, apperrors.Wrapf(apperrors.ErrIdentityVerificationFailed, "provider returned %q", errorParam))
			return
		}

		state := query.Get("state")
		if err := auth.ValidateState(state); err != nil {
			writeError(w, r, apperrors.Mark(apperrors.ErrIdentityVerificationFailed, err))
			return
		}

		cookie, err := r.Cookie(oauthStateCookieName)
		if err != nil || cookie.Value != state {
			writeError(w, r, apperrors.Wrapf(apperrors.ErrIdentityVerificationFailed, "state does not match this browser"))
			return
		}
		s.ClearOAuthStateCookie(w, r)

		// Clean up state on use
		flow, err := s.authState.Take(state)
		if err != nil {
			writeError(w, r, apperrors.Mark(apperrors.ErrIdentityVerificationFailed, err))
			return
		}
		if flow.Provider != provider {
			writeError(w, r, apperrors.Wrapf(apperrors.ErrIdentityVerificationFailed, "state was issued for %q", flow.Provider))
			return
		}

		code := query.Get("code")
		if code == "" {
			writeError(w, r, apperrors.NewValidationError(map[string]string{"code": "authorization code is required"}))
			return
		}

		ctx := identity.WithAuthFlow(r.Context(), identity.AuthFlow{
			Nonce:        flow.Nonce,
			CodeVerifier: flow.CodeVerifier,
		})
		pair, err := s.sessions.FederatedLogin(ctx, provider, code)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Login succeeded", pair)
	}
}

// FederatedLoginHandler logs in with an ID token the client obtained from a
// provider SDK.
func (s *Server) FederatedLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req federatedLoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.validator.ValidateIDToken(req.IDToken); err != nil {
			writeError(w, r, err)
			return
		}

		provider := strings.ToLower(req.Provider)
		if provider == "" {
			provider = identity.ProviderFirebase
		}
		// Redirect providers take an authorization code, not an ID token.
		if _, redirect := s.consent[provider]; redirect {
			writeError(w, r, apperrors.NewValidationError(map[string]string{"provider": "provider logs in through " + RouteOAuthRedirect}))
			return
		}

		pair, err := s.sessions.FederatedLogin(r.Context(), provider, req.IDToken)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Login succeeded", pair)
	}
}
