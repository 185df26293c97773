package config

import "golang.org/x/time/rate"

type SecurityConfig interface {
	GetBcryptCost() int
	GetLoginRateLimit() rate.Limit
	GetLoginRateBurst() int
	GetTrustProxyHeaders() bool
	GetAdminEmail() string
	GetAdminPassword() string
	GetAdminName() string
}

type Security struct {
	BcryptCost        int     `env:"BCRYPT_COST" envDefault:"10"`
	LoginRateLimit    float64 `env:"LOGIN_RATE_LIMIT" envDefault:"5"` // requests per second per client IP, 0 disables
	LoginRateBurst    int     `env:"LOGIN_RATE_BURST" envDefault:"10"`
	TrustProxyHeaders bool    `env:"TRUST_PROXY_HEADERS" envDefault:"false"` // only behind a proxy that overwrites X-Forwarded-For
	AdminEmail        string  `env:"ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword     string  `env:"ADMIN_PASSWORD"`
	AdminName         string  `env:"ADMIN_NAME" envDefault:"Administrator"`
}

var _ SecurityConfig = Security{}

func (s Security) GetBcryptCost() int {
	return s.BcryptCost
}

func (s Security) GetLoginRateLimit() rate.Limit {
	if s.LoginRateLimit <= 0 {
		return rate.Inf
	}
	return rate.Limit(s.LoginRateLimit)
}

func (s Security) GetLoginRateBurst() int {
	return s.LoginRateBurst
}

func (s Security) GetTrustProxyHeaders() bool {
	return s.TrustProxyHeaders
}

func (s Security) GetAdminEmail() string {
	return s.AdminEmail
}

// GetAdminPassword may be empty, in which case one is generated on first boot.
func (s Security) GetAdminPassword() string {
	return s.AdminPassword
}

func (s Security) GetAdminName() string {
	return s.AdminName
}
