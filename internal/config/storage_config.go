package config

import (
	"net"
	"strconv"
	"strings"
)

type StorageConfig interface {
	GetDatabaseURL() string
	IsPostgres() bool
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisMaxRetries() int
}

type Storage struct {
	DatabaseURL     string `env:"DATABASE_URL" envDefault:"bookstore.db"`
	RedisHost       string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort       int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	RedisMaxRetries int    `env:"REDIS_MAX_RETRIES" envDefault:"3"`
}

var _ StorageConfig = Storage{}

func (s Storage) GetDatabaseURL() string {
	return s.DatabaseURL
}

// IsPostgres reports whether DATABASE_URL points at Postgres rather than a SQLite file.
func (s Storage) IsPostgres() bool {
	return strings.HasPrefix(s.DatabaseURL, "postgres://") || strings.HasPrefix(s.DatabaseURL, "postgresql://")
}

func (s Storage) GetRedisAddr() string {
	return net.JoinHostPort(s.RedisHost, strconv.Itoa(s.RedisPort))
}

func (s Storage) GetRedisPassword() string {
	return s.RedisPassword
}

func (s Storage) GetRedisDB() int {
	return s.RedisDB
}

func (s Storage) GetRedisMaxRetries() int {
	return s.RedisMaxRetries
}
