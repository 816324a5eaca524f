package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		expectedErr assert.ErrorAssertionFunc
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "development defaults",
			env:  map[string]string{"APP_ENV": "development"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres", cfg.Database.Driver)
				assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
				assert.Equal(t, "accessToken", cfg.Auth.CookieName)
				assert.Equal(t, 21, cfg.App.NanoIDSize)
				assert.NotEmpty(t, cfg.Auth.JWTSecret)
				assert.Empty(t, cfg.Kafka.Brokers)
				assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
			},
		},
		{
			name: "production requires a jwt secret",
			env:  map[string]string{"APP_ENV": "production"},
			expectedErr: func(t assert.TestingT, err error, _ ...interface{}) bool {
				return assert.ErrorContains(t, err, "JWT_SECRET")
			},
		},
		{
			name: "unknown driver",
			env:  map[string]string{"APP_ENV": "test", "DB_DRIVER": "mysql"},
			expectedErr: func(t assert.TestingT, err error, _ ...interface{}) bool {
				return assert.ErrorContains(t, err, "DB_DRIVER")
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"APP_ENV":       "production",
				"JWT_SECRET":    "s3cret",
				"KAFKA_BROKERS": "k1:9092, k2:9092,",
				"JWT_TTL":       "30m",
				"DATABASE_URL":  "postgres://u:p@db:5432/x",
				"TZ_NAME":       "UTC",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
				assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
				assert.Equal(t, "postgres://u:p@db:5432/x", cfg.GetDSN())
				assert.Equal(t, time.UTC, cfg.Location())
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			for k, v := range test.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(zerolog.Nop())
			if test.expectedErr != nil {
				test.expectedErr(t, err)
				return
			}
			require.NoError(t, err)
			test.check(t, cfg)
		})
	}
}
