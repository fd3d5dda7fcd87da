package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("UseRedis and UseJira follow URLs", func(t *testing.T) {
		cfg := &Config{}
		assert.False(t, cfg.UseRedis())
		assert.False(t, cfg.UseJira())

		cfg.RedisURL = "redis://localhost:6379"
		cfg.JiraBaseURL = "https://jira.example.com"
		assert.True(t, cfg.UseRedis())
		assert.True(t, cfg.UseJira())
	})

	t.Run("AllowedVoteValues trims blanks", func(t *testing.T) {
		cfg := &Config{AllowedVotes: []string{" 1", "2 ", "", "  ", "?"}}
		assert.Equal(t, []string{"1", "2", "?"}, cfg.AllowedVoteValues())
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads config with defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, "", cfg.RedisURL)
		assert.Equal(t, time.Hour, cfg.SessionWindow)
		assert.Equal(t, 90*24*time.Hour, cfg.SessionRetention)
		assert.Equal(t, []string{"0", "0.5", "1", "2", "3", "5", "8", "13", "20", "40", "100", "?", "coffee"}, cfg.AllowedVotes)
		assert.Equal(t, 60, cfg.VoteRateLimitPerMin)
		assert.Equal(t, "customfield_10205", cfg.JiraEstimateField)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("loads custom values", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("PORT", "3000")
		t.Setenv("SESSION_WINDOW", "30m")
		t.Setenv("ALLOWED_VOTES", "1,2,3")
		t.Setenv("ALLOWED_EDITORS", "alice,bob")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
		assert.Equal(t, 30*time.Minute, cfg.SessionWindow)
		assert.Equal(t, []string{"1", "2", "3"}, cfg.AllowedVotes)
		assert.Equal(t, []string{"alice", "bob"}, cfg.AllowedEditors)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("fails on malformed duration", func(t *testing.T) {
		t.Setenv("SESSION_WINDOW", "soon")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreDriver:       StoreDriverPostgres,
			DatabaseURL:       "postgres://localhost/test",
			SessionWindow:     time.Hour,
			JiraEstimateField: "customfield_10205",
		}
	}

	t.Run("accepts defaults", func(t *testing.T) {
		assert.NoError(t, valid().Validate(false))
	})

	t.Run("requires DATABASE_URL for postgres", func(t *testing.T) {
		cfg := valid()
		cfg.DatabaseURL = ""
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("memory store needs no DATABASE_URL", func(t *testing.T) {
		cfg := valid()
		cfg.StoreDriver = StoreDriverMemory
		cfg.DatabaseURL = ""
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("rejects unknown store driver", func(t *testing.T) {
		cfg := valid()
		cfg.StoreDriver = "mongo"
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects non positive window", func(t *testing.T) {
		cfg := valid()
		cfg.SessionWindow = 0
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects non http jira url", func(t *testing.T) {
		cfg := valid()
		cfg.JiraBaseURL = "jira.example.com"
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("requires strong identity secret in production", func(t *testing.T) {
		cfg := valid()
		cfg.IdentitySecret = "short"
		assert.Error(t, cfg.Validate(true))

		cfg.IdentitySecret = "0123456789abcdef0123456789abcdef"
		assert.NoError(t, cfg.Validate(true))
	})
}
