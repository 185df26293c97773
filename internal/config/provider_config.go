package config

import "time"

type ProviderConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURI() string
	GetGoogleIssuer() string
	GetFirebaseProjectID() string
	GetIdentityTimeout() time.Duration
}

type Providers struct {
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string        `env:"GOOGLE_REDIRECT_URI" envDefault:"http://localhost:8080/api/auth/oauth/google/callback"`
	GoogleIssuer       string        `env:"GOOGLE_ISSUER" envDefault:"https://accounts.google.com"`
	FirebaseProjectID  string        `env:"FIREBASE_PROJECT_ID"`
	IdentityTimeout    time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"10s"`
}

var _ ProviderConfig = Providers{}

func (p Providers) GetGoogleClientID() string {
	return p.GoogleClientID
}

func (p Providers) GetGoogleClientSecret() string {
	return p.GoogleClientSecret
}

func (p Providers) GetGoogleRedirectURI() string {
	return p.GoogleRedirectURI
}

func (p Providers) GetGoogleIssuer() string {
	return p.GoogleIssuer
}

func (p Providers) GetFirebaseProjectID() string {
	return p.FirebaseProjectID
}

// GetIdentityTimeout bounds every call to an external identity provider.
func (p Providers) GetIdentityTimeout() time.Duration {
	return p.IdentityTimeout
}
