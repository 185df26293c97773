package auth

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-bookstore-server/identity"
	"github.com/jrsteele09/go-bookstore-server/internal/config"
	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/token"
	"github.com/jrsteele09/go-bookstore-server/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const TokenTypeBearer = "bearer"

// TokenPair is returned by every successful login. RefreshToken is empty
// when a refresh does not rotate it.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// Repos holds the stores the SessionService reads and writes
type Repos struct {
	Users       users.Repo            // Credential store
	Revocations token.RevocationStore // Blacklist and live refresh tokens
}

// SessionService owns the token lifecycle: login, federated login, refresh,
// logout and resolving the caller behind an access token.
type SessionService struct {
	repos     Repos
	codec     *token.Codec
	verifiers identity.Verifiers
	config    config.TokenConfig
	hasher    users.PasswordHasher
	dummyHash string // compared against when the email is unknown
}

// SessionServiceOption defines a function type to modify the SessionService instance.
type SessionServiceOption func(*SessionService)

func WithPasswordHasher(hasher users.PasswordHasher) SessionServiceOption {
	return func(s *SessionService) {
		s.hasher = hasher
	}
}

// NewSessionService wires the service. verifiers may be empty, in which case
// every federated login fails with ErrUnsupportedProvider.
func NewSessionService(
	repos Repos,
	codec *token.Codec,
	verifiers identity.Verifiers,
	cfg config.TokenConfig,
	options ...SessionServiceOption,
) (*SessionService, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewSessionService] Users repo is required")
	}
	if repos.Revocations == nil {
		return nil, errors.New("[NewSessionService] Revocations store is required")
	}
	if codec == nil {
		return nil, errors.New("[NewSessionService] codec is required")
	}
	if cfg == nil {
		return nil, errors.New("[NewSessionService] config is required")
	}

	s := &SessionService{
		repos:     repos,
		codec:     codec,
		verifiers: verifiers,
		config:    cfg,
		hasher:    users.NewPasswordHasher(0),
	}
	for _, opt := range options {
		opt(s)
	}

	dummy, err := s.hasher.UnusableHash()
	if err != nil {
		return nil, errors.Wrap(err, "[NewSessionService] UnusableHash")
	}
	s.dummyHash = dummy

	return s, nil
}

// Login checks email and password. An unknown email and a wrong password
// fail identically with ErrBadCredentials.
func (s *SessionService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repos.Users.GetByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrUserNotFound) {
			return nil, errors.Wrap(err, "[SessionService.Login] GetByEmail")
		}
		// Same bcrypt work as a real account.
		_, _ = s.hasher.Verify(password, s.dummyHash)
		return nil, apperrors.ErrBadCredentials
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("stored password hash is unreadable")
		return nil, apperrors.ErrBadCredentials
	}
	if !ok {
		return nil, apperrors.ErrBadCredentials
	}

	return s.issueSession(ctx, user)
}

// FederatedLogin verifies payload with the named provider and logs in the
// matching account, creating it on first sight.
func (s *SessionService) FederatedLogin(ctx context.Context, provider, payload string) (*TokenPair, error) {
	verifier, err := s.verifiers.Get(provider)
	if err != nil {
		return nil, err
	}

	id, err := verifier.Verify(ctx, payload)
	if err != nil {
		return nil, err
	}

	email := users.NormalizeEmail(id.Email)
	if email == "" {
		return nil, apperrors.ErrUnresolvedIdentity
	}

	user, err := s.findOrProvision(ctx, email, id.Name)
	if err != nil {
		return nil, err
	}
	return s.issueSession(ctx, user)
}

func (s *SessionService) findOrProvision(ctx context.Context, email, name string) (*users.User, error) {
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !apperrors.Is(err, apperrors.ErrUserNotFound) {
		return nil, errors.Wrap(err, "[SessionService.findOrProvision] GetByEmail")
	}

	hash, err := s.hasher.UnusableHash()
	if err != nil {
		return nil, errors.Wrap(err, "[SessionService.findOrProvision] UnusableHash")
	}

	name = strings.TrimSpace(name)
	if users.ValidateName(name) != nil {
		name = users.DefaultName(email)
	}

	user = &users.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         users.RoleUser,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		if apperrors.Is(err, apperrors.ErrDuplicateEmail) {
			// Lost a race with a concurrent first login.
			return s.repos.Users.GetByEmail(ctx, email)
		}
		return nil, errors.Wrap(err, "[SessionService.findOrProvision] Create")
	}

	log.Info().Int64("user_id", user.ID).Str("email", email).Msg("provisioned account from federated login")
	return user, nil
}

// Refresh exchanges a live refresh token for a new access token. With
// rotation enabled a new refresh token replaces the presented one.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken, token.TypeRefresh)
	if err != nil {
		return nil, err
	}

	userID, err := users.ParseSubjectID(claims.Subject)
	if err != nil {
		return nil, apperrors.ErrInvalidTokenPayload
	}

	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	valid, err := s.repos.Revocations.IsValidRefresh(ctx, userID, refreshToken)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	access, err := s.codec.IssueAccess(user.SubjectID(), user.Email, string(user.Role), s.config.GetAccessTokenExpiry())
	if err != nil {
		return nil, errors.Wrap(err, "[SessionService.Refresh] IssueAccess")
	}
	pair := &TokenPair{AccessToken: access, TokenType: TokenTypeBearer}

	if s.config.GetRefreshTokenRotation() {
		pair.RefreshToken, err = s.storeNewRefresh(ctx, user)
		if err != nil {
			return nil, err
		}
	}
	return pair, nil
}

// Logout blacklists accessToken for the rest of its lifetime and drops the
// user's refresh token. Calling it again is harmless.
func (s *SessionService) Logout(ctx context.Context, accessToken string, userID int64) error {
	claims, err := s.codec.Verify(accessToken, token.TypeAccess)
	switch {
	case err == nil:
		if err := s.repos.Revocations.BlacklistAccess(ctx, accessToken, s.codec.Remaining(claims)); err != nil {
			return err
		}
	case apperrors.Is(err, apperrors.ErrTokenExpired):
		// Nothing left to blacklist.
	default:
		return err
	}

	return s.repos.Revocations.DeleteRefresh(ctx, userID)
}

// RevokeRefresh drops the user's stored refresh token so no new access
// tokens can be minted from it. Access tokens already issued stay valid
// until they expire.
func (s *SessionService) RevokeRefresh(ctx context.Context, userID int64) error {
	return s.repos.Revocations.DeleteRefresh(ctx, userID)
}

// ResolveCurrentUser returns the account behind a live access token. A
// revocation store failure is returned as an error, never as "not blacklisted".
func (s *SessionService) ResolveCurrentUser(ctx context.Context, accessToken string) (*users.User, error) {
	blacklisted, err := s.repos.Revocations.IsBlacklisted(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, apperrors.ErrTokenBlacklisted
	}

	claims, err := s.codec.Verify(accessToken, token.TypeAccess)
	if err != nil {
		return nil, err
	}

	userID, err := users.ParseSubjectID(claims.Subject)
	if err != nil {
		return nil, apperrors.ErrInvalidTokenPayload
	}

	return s.repos.Users.GetByID(ctx, userID)
}

func (s *SessionService) RequireRole(user *users.User, role users.Role) (*users.User, error) {
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !user.HasRole(role) {
		return nil, apperrors.ErrForbidden
	}
	return user, nil
}

func (s *SessionService) RequireAdmin(user *users.User) (*users.User, error) {
	return s.RequireRole(user, users.RoleAdmin)
}

func (s *SessionService) issueSession(ctx context.Context, user *users.User) (*TokenPair, error) {
	access, err := s.codec.IssueAccess(user.SubjectID(), user.Email, string(user.Role), s.config.GetAccessTokenExpiry())
	if err != nil {
		return nil, errors.Wrap(err, "[SessionService.issueSession] IssueAccess")
	}

	refresh, err := s.storeNewRefresh(ctx, user)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
	}, nil
}

// storeNewRefresh issues a refresh token and makes it the user's only live one.
func (s *SessionService) storeNewRefresh(ctx context.Context, user *users.User) (string, error) {
	ttl := s.config.GetRefreshTokenExpiry()
	refresh, err := s.codec.IssueRefresh(user.SubjectID(), user.Email, string(user.Role), ttl)
	if err != nil {
		return "", errors.Wrap(err, "[SessionService.storeNewRefresh] IssueRefresh")
	}
	if err := s.repos.Revocations.StoreRefresh(ctx, user.ID, refresh, ttl); err != nil {
		return "", err
	}
	return refresh, nil
}
