package config

import "time"

type TokenConfig interface {
	GetSecretKey() string
	GetAlgorithm() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenRotation() bool
}

type Token struct {
	SecretKey                string `env:"SECRET_KEY"`
	Algorithm                string `env:"ALGORITHM" envDefault:"HS256"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"60"`
	RefreshTokenExpireDays   int    `env:"REFRESH_TOKEN_EXPIRE_DAYS" envDefault:"7"`
	RefreshTokenRotation     bool   `env:"REFRESH_TOKEN_ROTATION" envDefault:"false"`
}

var _ TokenConfig = Token{}

func (t Token) GetSecretKey() string {
	return t.SecretKey
}

func (t Token) GetAlgorithm() string {
	return t.Algorithm
}

func (t Token) GetAccessTokenExpiry() time.Duration {
	return time.Duration(t.AccessTokenExpireMinutes) * time.Minute
}

func (t Token) GetRefreshTokenExpiry() time.Duration {
	return time.Duration(t.RefreshTokenExpireDays) * 24 * time.Hour
}

// GetRefreshTokenRotation reports whether /refresh also replaces the refresh token.
func (t Token) GetRefreshTokenRotation() bool {
	return t.RefreshTokenRotation
}
