package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-bookstore-server/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMap_Defaults(t *testing.T) {
	c, err := config.LoadFromMap(nil)
	require.NoError(t, err)

	require.Equal(t, ":8080", c.GetPort())
	require.True(t, c.IsDev())
	require.Equal(t, "HS256", c.GetAlgorithm())
	require.NotEmpty(t, c.GetSecretKey())
	require.Equal(t, time.Hour, c.GetAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, c.GetRefreshTokenExpiry())
	require.False(t, c.GetRefreshTokenRotation())
	require.False(t, c.GetTrustProxyHeaders())
	require.Equal(t, "localhost:6379", c.GetRedisAddr())
	require.False(t, c.IsPostgres())
	require.Equal(t, 10*time.Second, c.GetIdentityTimeout())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("http://localhost:3000"))
}

func TestLoadFromMap_Overrides(t *testing.T) {
	c, err := config.LoadFromMap(map[string]string{
		"PORT":                        ":9000",
		"ENV":                         "prod",
		"SECRET_KEY":                  "s3cret",
		"ALGORITHM":                   "HS512",
		"ACCESS_TOKEN_EXPIRE_MINUTES": "15",
		"REFRESH_TOKEN_EXPIRE_DAYS":   "1",
		"REFRESH_TOKEN_ROTATION":      "true",
		"DATABASE_URL":                "postgres://u:p@db:5432/books",
		"REDIS_HOST":                  "cache",
		"REDIS_PORT":                  "6380",
		"ALLOWED_ORIGINS":             "https://a.example, https://b.example",
		"TRUST_PROXY_HEADERS":         "true",
	})
	require.NoError(t, err)

	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, "PROD", c.GetEnv())
	require.False(t, c.IsDev())
	require.Equal(t, "HS512", c.GetAlgorithm())
	require.Equal(t, 15*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 24*time.Hour, c.GetRefreshTokenExpiry())
	require.True(t, c.GetRefreshTokenRotation())
	require.True(t, c.IsPostgres())
	require.Equal(t, "cache:6380", c.GetRedisAddr())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://b.example"))
	require.True(t, c.GetTrustProxyHeaders())
}

func TestLoadFromMap_Validation(t *testing.T) {
	t.Run("secret required outside dev", func(t *testing.T) {
		_, err := config.LoadFromMap(map[string]string{"ENV": "PROD"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "SECRET_KEY")
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		_, err := config.LoadFromMap(map[string]string{"ALGORITHM": "RS256"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "ALGORITHM")
	})

	t.Run("non-positive lifetime", func(t *testing.T) {
		_, err := config.LoadFromMap(map[string]string{"ACCESS_TOKEN_EXPIRE_MINUTES": "0"})
		require.Error(t, err)
	})
}
