package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-bookstore-server/auth"
	"github.com/jrsteele09/go-bookstore-server/identity"
	"github.com/jrsteele09/go-bookstore-server/internal/config"
	"github.com/jrsteele09/go-bookstore-server/server"
	"github.com/jrsteele09/go-bookstore-server/server/authflowrepo"
	"github.com/jrsteele09/go-bookstore-server/token"
	"github.com/jrsteele09/go-bookstore-server/token/redisstore"
	"github.com/jrsteele09/go-bookstore-server/users"
	"github.com/jrsteele09/go-bookstore-server/users/pgstore"
	"github.com/jrsteele09/go-bookstore-server/users/sqlstore"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const startupTimeout = 30 * time.Second

// userStore is what both user store backends provide.
type userStore interface {
	users.Repo
	Ping(ctx context.Context) error
	Close() error
}

type dependencies struct {
	services server.Services
	closers  []func() error
}

func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			log.Warn().Err(err).Msg("failed to release resource")
		}
	}
}

// buildDependencies constructs every client and service explicitly. Nothing
// is held in package globals.
func buildDependencies(ctx context.Context, c config.Config) (*dependencies, error) {
	deps := &dependencies{}
	fail := func(err error) (*dependencies, error) {
		deps.Close()
		return nil, err
	}

	store, err := openUserStore(ctx, c)
	if err != nil {
		return fail(err)
	}
	deps.closers = append(deps.closers, store.Close)

	redisClient := redis.NewClient(&redis.Options{
		Addr:       c.GetRedisAddr(),
		Password:   c.GetRedisPassword(),
		DB:         c.GetRedisDB(),
		MaxRetries: c.GetRedisMaxRetries(),
	})
	deps.closers = append(deps.closers, redisClient.Close)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fail(fmt.Errorf("[buildDependencies] redis ping %s: %w", c.GetRedisAddr(), err))
	}

	signer, err := token.NewHMACSigner(c.GetSecretKey(), c.GetAlgorithm())
	if err != nil {
		return fail(err)
	}
	codec := token.NewCodec(signer, token.WithIssuer(c.GetBaseURL()))

	verifiers, consent := buildVerifiers(c)

	hasher := users.NewPasswordHasher(c.GetBcryptCost())
	sessions, err := auth.NewSessionService(
		auth.Repos{Users: store, Revocations: redisstore.New(redisClient)},
		codec,
		verifiers,
		c,
		auth.WithPasswordHasher(hasher),
	)
	if err != nil {
		return fail(err)
	}

	deps.services = server.Services{
		Sessions:  sessions,
		Users:     users.NewService(store, hasher),
		Consent:   consent,
		AuthFlows: authflowrepo.NewInMemoryRepo(),
		Checks: map[string]server.HealthChecker{
			"database": store,
			"redis": server.HealthCheckFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
		},
	}
	return deps, nil
}

func openUserStore(ctx context.Context, c config.Config) (userStore, error) {
	if c.IsPostgres() {
		log.Info().Msg("Using Postgres user store")
		return pgstore.Open(ctx, c.GetDatabaseURL())
	}
	log.Info().Str("path", c.GetDatabaseURL()).Msg("Using SQLite user store")
	return sqlstore.Open(ctx, c.GetDatabaseURL())
}

// buildVerifiers registers a provider only when its credentials are configured.
func buildVerifiers(c config.Config) (identity.Verifiers, map[string]server.ConsentURLBuilder) {
	verifiers := identity.Verifiers{}
	consent := map[string]server.ConsentURLBuilder{}

	if c.GetGoogleClientID() != "" {
		google := identity.NewGoogleVerifier(identity.GoogleConfig{
			ClientID:     c.GetGoogleClientID(),
			ClientSecret: c.GetGoogleClientSecret(),
			RedirectURL:  c.GetGoogleRedirectURI(),
			Issuer:       c.GetGoogleIssuer(),
			Timeout:      c.GetIdentityTimeout(),
		})
		verifiers[identity.ProviderGoogle] = google
		consent[identity.ProviderGoogle] = google
		log.Info().Msg("Google sign-in enabled")
	}

	if c.GetFirebaseProjectID() != "" {
		verifiers[identity.ProviderFirebase] = identity.NewFirebaseVerifier(identity.FirebaseConfig{
			ProjectID: c.GetFirebaseProjectID(),
			Timeout:   c.GetIdentityTimeout(),
		})
		log.Info().Msg("Firebase sign-in enabled")
	}

	return verifiers, consent
}
