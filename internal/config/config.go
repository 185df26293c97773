package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const devEnv = "DEV"

// insecureDevSecret is only used when ENV=DEV and no SECRET_KEY is provided.
const insecureDevSecret = "dev-only-insecure-secret-key"

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	SecurityConfig
	StorageConfig
	ProviderConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetAppVersion() string
	GetBaseURL() string
	GetLogLevel() string
	GetEnv() string
	IsDev() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Token
	Security
	Storage
	Providers
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return load(env.Options{})
}

// LoadFromMap reads the configuration from vars instead of the process
// environment. Unset variables take their defaults.
func LoadFromMap(vars map[string]string) (Config, error) {
	if vars == nil {
		vars = map[string]string{}
	}
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (Config, error) {
	var c mainConfig
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, fmt.Errorf("[config Load] parse env: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("[config Load] %w", err)
	}
	return c, nil
}

func (c *mainConfig) validate() error {
	c.Env = strings.ToUpper(strings.TrimSpace(c.Env))
	if c.SecretKey == "" {
		if c.Env != devEnv {
			return fmt.Errorf("SECRET_KEY is required when ENV=%s", c.Env)
		}
		c.SecretKey = insecureDevSecret
	}
	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported ALGORITHM %q", c.Algorithm)
	}
	if c.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.RefreshTokenExpireDays <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_EXPIRE_DAYS must be positive")
	}
	if c.IdentityTimeout <= 0 {
		return fmt.Errorf("IDENTITY_TIMEOUT must be positive")
	}
	return nil
}
