package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port                int           `env:"PORT" envDefault:"8080"`
	StoreDriver         string        `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL         string        `env:"DATABASE_URL"`
	RedisURL            string        `env:"REDIS_URL"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	SessionWindow       time.Duration `env:"SESSION_WINDOW" envDefault:"1h"`
	SessionRetention    time.Duration `env:"SESSION_RETENTION" envDefault:"2160h"`
	AllowedVotes        []string      `env:"ALLOWED_VOTES" envSeparator:"," envDefault:"0,0.5,1,2,3,5,8,13,20,40,100,?,coffee"`
	VoteRateLimitPerMin int           `env:"VOTE_RATE_LIMIT_PER_MIN" envDefault:"60"`
	IdentitySecret      string        `env:"IDENTITY_SECRET"`
	JiraBaseURL         string        `env:"JIRA_BASE_URL"`
	JiraUsername        string        `env:"JIRA_USERNAME"`
	JiraAPIToken        string        `env:"JIRA_API_TOKEN"`
	JiraEstimateField   string        `env:"JIRA_ESTIMATE_FIELD" envDefault:"customfield_10205"`
	AllowedEditors      []string      `env:"ALLOWED_EDITORS" envSeparator:","`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) UseRedis() bool {
	return c.RedisURL != ""
}

func (c *Config) UseJira() bool {
	return c.JiraBaseURL != ""
}

func (c *Config) Validate(isProduction bool) error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver)
	}

	if c.SessionWindow <= 0 {
		return fmt.Errorf("SESSION_WINDOW must be positive")
	}
	if c.SessionRetention < 0 {
		return fmt.Errorf("SESSION_RETENTION must not be negative")
	}

	if c.UseJira() {
		if !strings.HasPrefix(c.JiraBaseURL, "http://") && !strings.HasPrefix(c.JiraBaseURL, "https://") {
			return fmt.Errorf("JIRA_BASE_URL must be an http(s) URL")
		}
		if c.JiraEstimateField == "" {
			return fmt.Errorf("JIRA_ESTIMATE_FIELD must not be empty when JIRA_BASE_URL is set")
		}
	}

	if isProduction {
		if len(c.IdentitySecret) < 32 {
			return fmt.Errorf("IDENTITY_SECRET must be at least 32 characters in production (generate with: openssl rand -base64 32)")
		}
		if c.StoreDriver == StoreDriverMemory {
			log.Warn().Msg("STORE_DRIVER=memory in production: sessions are lost on restart")
		}
		if !c.UseJira() {
			log.Warn().Msg("JIRA_BASE_URL is empty in production: estimates are not written to the tracker")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

// AllowedVoteValues returns the configured card deck with blanks removed.
func (c *Config) AllowedVoteValues() []string {
	values := make([]string, 0, len(c.AllowedVotes))
	for _, v := range c.AllowedVotes {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
