package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.API.AuthHeader = "Bearer token"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5, cfg.API.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.API.RetryBaseDelay)
	assert.Equal(t, time.Second, cfg.API.PageCooldown)
	assert.Equal(t, 30*time.Second, cfg.Jobs.PollInterval)
	assert.Equal(t, time.Hour, cfg.Jobs.Timeout)
	assert.Equal(t, 12, cfg.Funnel.PostsPerAccount)
	assert.Equal(t, 1000, cfg.Funnel.MinLikes)
	assert.Equal(t, 50, cfg.Funnel.MinComments)
	assert.Equal(t, 10000, cfg.Funnel.MinFollowers)
	assert.Equal(t, CommentModeAPI, cfg.Funnel.CommentMode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing auth",
			mutate:  func(c *Config) { c.API.AuthHeader = "" },
			wantErr: "auth header",
		},
		{
			name:    "zero retries",
			mutate:  func(c *Config) { c.API.MaxRetries = 0 },
			wantErr: "max retries",
		},
		{
			name:    "bad comment mode",
			mutate:  func(c *Config) { c.Funnel.CommentMode = "webhook" },
			wantErr: "comment mode",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "log level",
		},
		{
			name:    "job mode without credentials",
			mutate:  func(c *Config) { c.Funnel.CommentMode = CommentModeJob },
			wantErr: "job service",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestJobCredentialsNotRequiredInAPIMode(t *testing.T) {
	cfg := validConfig()
	cfg.Funnel.CommentMode = CommentModeAPI
	cfg.Jobs.APIKey = ""
	cfg.Jobs.AgentID = ""

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  auth_header: "Bearer from-file"
funnel:
  niche: fitness
  min_likes: 2500
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "Bearer from-file", cfg.API.AuthHeader)
	assert.Equal(t, "fitness", cfg.Funnel.Niche)
	assert.Equal(t, 2500, cfg.Funnel.MinLikes)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched values keep their defaults.
	assert.Equal(t, 50, cfg.Funnel.MinComments)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IGFUNNEL_API_AUTH", "Bearer from-env")
	t.Setenv("IGFUNNEL_POSTS_PER_ACCOUNT", "24")
	t.Setenv("IGFUNNEL_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "Bearer from-env", cfg.API.AuthHeader)
	assert.Equal(t, 24, cfg.Funnel.PostsPerAccount)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestMergeFlagsOverridesEverything(t *testing.T) {
	cfg := validConfig()
	cfg.Funnel.Niche = "cooking"

	cfg.MergeFlags(map[string]interface{}{
		"niche":        "fitness",
		"posts":        36,
		"comment-mode": CommentModeJob,
		"output":       "/tmp/out",
	})

	assert.Equal(t, "fitness", cfg.Funnel.Niche)
	assert.Equal(t, 36, cfg.Funnel.PostsPerAccount)
	assert.Equal(t, CommentModeJob, cfg.Funnel.CommentMode)
	assert.Equal(t, "/tmp/out", cfg.Output.BaseDirectory)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := validConfig()
	cfg.Funnel.Niche = "fitness"
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "fitness", loaded.Funnel.Niche)
	assert.Equal(t, cfg.API.AuthHeader, loaded.API.AuthHeader)
}
