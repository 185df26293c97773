package config

import (
	"fmt"
	"strings"
)

type EnvVars struct {
	Port       string `env:"PORT" envDefault:"8080"`
	AppName    string `env:"APP_NAME" envDefault:"Bookstore API"`
	AppVersion string `env:"APP_VERSION" envDefault:"1.0.0"`
	BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	Env        string `env:"ENV" envDefault:"DEV"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port != "" && !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetAppVersion() string {
	return e.AppVersion
}

// GetBaseURL returns the public base URL of the API (e.g., "https://books.example.com")
func (e EnvVars) GetBaseURL() string {
	return strings.TrimSuffix(e.BaseURL, "/")
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return devEnv
	}
	return e.Env
}

func (e EnvVars) IsDev() bool {
	return e.GetEnv() == devEnv
}
