package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"JWT_SECRET": "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.Storage.Enabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFrom_MissingSecret(t *testing.T) {
	_, err := LoadFrom(map[string]string{})
	require.Error(t, err)

	_, err = LoadFrom(map[string]string{"JWT_SECRET": ""})
	require.Error(t, err)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"JWT_SECRET":     "s3cret",
		"JWT_EXPIRES_IN": "36h",
		"BCRYPT_COST":    "10",
		"R2_BUCKET_NAME": "evidence",
		"R2_ENDPOINT":    "https://r2.example.com",
		"R2_ACCESS_KEY":  "ak",
		"R2_SECRET_KEY":  "sk",
	})
	require.NoError(t, err)

	assert.Equal(t, 36*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.True(t, cfg.Storage.Enabled())
	assert.Equal(t, "evidence", cfg.Storage.Bucket)
}

func TestLoadFrom_RejectsWeakCost(t *testing.T) {
	_, err := LoadFrom(map[string]string{"JWT_SECRET": "s3cret", "BCRYPT_COST": "4"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BCRYPT_COST")
}

func TestLoadFrom_ProductionNeedsDatabase(t *testing.T) {
	_, err := LoadFrom(map[string]string{"JWT_SECRET": "s3cret", "APP_ENV": "production"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadFrom_PartialStorage(t *testing.T) {
	_, err := LoadFrom(map[string]string{"JWT_SECRET": "s3cret", "R2_BUCKET_NAME": "evidence"})
	require.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"7d":   7 * 24 * time.Hour,
		"1d":   24 * time.Hour,
		"90m":  90 * time.Minute,
		" 2h ": 2 * time.Hour,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "xd", "soon"} {
		_, err := ParseDuration(bad)
		assert.Error(t, err, bad)
	}
}
