package server

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// InitialiseSystem creates the configured administrator account if it does not
// exist yet. When no admin password is configured one is generated and logged
// once, on creation.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	email := s.config.GetAdminEmail()
	if email == "" {
		log.Warn().Msg("ADMIN_EMAIL is empty, skipping administrator bootstrap")
		return nil
	}

	created, generatedPassword, err := s.users.EnsureAdmin(ctx, email, s.config.GetAdminPassword(), s.config.GetAdminName())
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap administrator: %w", err)
	}
	if !created {
		return nil
	}

	log.Info().
		Str("email", email).
		Str("base_url", s.config.GetBaseURL()).
		Msg("administrator account created")
	if generatedPassword != "" {
		log.Warn().
			Str("email", email).
			Str("password", generatedPassword).
			Msg("generated administrator password, change it after the first login")
	}
	return nil
}
