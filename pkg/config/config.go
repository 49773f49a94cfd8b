package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every option the funnel needs. It is built once at process
// start and passed by reference into each component; nothing re-reads
// configuration mid-run.
type Config struct {
	// Scrape API access and pacing
	API APIConfig `yaml:"api" json:"api"`

	// Async comment-extraction job service
	Jobs JobsConfig `yaml:"jobs" json:"jobs"`

	// Funnel stage thresholds and caps
	Funnel FunnelConfig `yaml:"funnel" json:"funnel"`

	// Hashtag generation service
	Hashtags HashtagsConfig `yaml:"hashtags" json:"hashtags"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds scrape API configuration. Page sizes are fixed per
// upstream endpoint and deliberately not configurable.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	AuthHeader     string        `yaml:"auth_header" json:"auth_header"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	PageCooldown   time.Duration `yaml:"page_cooldown" json:"page_cooldown"`
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" json:"retry_base_delay"`
}

// JobsConfig holds async job service configuration.
type JobsConfig struct {
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	APIKey       string        `yaml:"api_key" json:"api_key"`
	AgentID      string        `yaml:"agent_id" json:"agent_id"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
}

// FunnelConfig holds the stage thresholds and per-stage caps. Caps are
// hard ceilings applied before any remote call is issued.
type FunnelConfig struct {
	SeedsFile       string `yaml:"seeds_file" json:"seeds_file"`
	Niche           string `yaml:"niche" json:"niche"`
	MaxAccounts     int    `yaml:"max_accounts" json:"max_accounts"`
	PostsPerAccount int    `yaml:"posts_per_account" json:"posts_per_account"`
	MinLikes        int    `yaml:"min_likes" json:"min_likes"`
	MinComments     int    `yaml:"min_comments" json:"min_comments"`
	MinFollowers    int    `yaml:"min_followers" json:"min_followers"`
	MaxProfiles     int    `yaml:"max_profiles" json:"max_profiles"`
	MaxCommentPosts int    `yaml:"max_comment_posts" json:"max_comment_posts"`
	CommentsPerPost int    `yaml:"comments_per_post" json:"comments_per_post"`
	CommentMode     string `yaml:"comment_mode" json:"comment_mode"`
}

// HashtagsConfig holds the text-generation service configuration used by
// the hashtags command.
type HashtagsConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	APIKey  string `yaml:"api_key" json:"api_key"`
	Model   string `yaml:"model" json:"model"`
}

// OutputConfig holds output directory configuration.
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	DatabaseFile  string `yaml:"database_file" json:"database_file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// Comment extraction backends.
const (
	CommentModeAPI = "api"
	CommentModeJob = "job"
)

// DefaultConfig returns a Config instance with sensible defaults. The
// engagement thresholds and retry constants match the budgets the funnel
// was tuned with.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://scraper-api.decodo.com",
			RequestTimeout: 30 * time.Second,
			PageCooldown:   time.Second,
			MaxRetries:     5,
			RetryBaseDelay: 2 * time.Second,
		},
		Jobs: JobsConfig{
			PollInterval: 30 * time.Second,
			Timeout:      time.Hour,
		},
		Funnel: FunnelConfig{
			SeedsFile:       "seeds.json",
			MaxAccounts:     0, // 0 means every account in the niche
			PostsPerAccount: 12,
			MinLikes:        1000,
			MinComments:     50,
			MinFollowers:    10000,
			MaxProfiles:     25,
			MaxCommentPosts: 10,
			CommentsPerPost: 50,
			CommentMode:     CommentModeAPI,
		},
		Hashtags: HashtagsConfig{
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "llama-3.1-8b-instant",
		},
		Output: OutputConfig{
			BaseDirectory: "./output",
			DatabaseFile:  "./output/funnel.db",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration overrides from environment variables.
func (c *Config) LoadFromEnv() error {
	if auth := os.Getenv("IGFUNNEL_API_AUTH"); auth != "" {
		c.API.AuthHeader = auth
	}
	if baseURL := os.Getenv("IGFUNNEL_API_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if key := os.Getenv("IGFUNNEL_JOBS_API_KEY"); key != "" {
		c.Jobs.APIKey = key
	}
	if agent := os.Getenv("IGFUNNEL_JOBS_AGENT_ID"); agent != "" {
		c.Jobs.AgentID = agent
	}
	if key := os.Getenv("IGFUNNEL_HASHTAGS_API_KEY"); key != "" {
		c.Hashtags.APIKey = key
	}
	if seeds := os.Getenv("IGFUNNEL_SEEDS_FILE"); seeds != "" {
		c.Funnel.SeedsFile = seeds
	}
	if outputDir := os.Getenv("IGFUNNEL_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if logLevel := os.Getenv("IGFUNNEL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if posts := os.Getenv("IGFUNNEL_POSTS_PER_ACCOUNT"); posts != "" {
		if val, err := strconv.Atoi(posts); err == nil && val > 0 {
			c.Funnel.PostsPerAccount = val
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations.
func (c *Config) findConfigFile() string {
	locations := []string{
		".igfunnel.yaml",
		".igfunnel.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "igfunnel", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".igfunnel.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Configuration-level
// failures are the only failures fatal to a whole run.
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("scrape API base URL is required"))
	}
	if c.API.AuthHeader == "" {
		errs = append(errs, errors.New("scrape API auth header is required"))
	}
	if c.API.MaxRetries <= 0 {
		errs = append(errs, errors.New("max retries must be positive"))
	}
	if c.API.RetryBaseDelay <= 0 {
		errs = append(errs, errors.New("retry base delay must be positive"))
	}
	if c.API.PageCooldown < 0 {
		errs = append(errs, errors.New("page cooldown cannot be negative"))
	}

	if c.Funnel.PostsPerAccount <= 0 {
		errs = append(errs, errors.New("posts per account must be positive"))
	}
	if c.Funnel.MaxProfiles <= 0 {
		errs = append(errs, errors.New("max profiles must be positive"))
	}
	if c.Funnel.MaxCommentPosts <= 0 {
		errs = append(errs, errors.New("max comment posts must be positive"))
	}
	if c.Funnel.CommentsPerPost <= 0 {
		errs = append(errs, errors.New("comments per post must be positive"))
	}
	switch c.Funnel.CommentMode {
	case CommentModeAPI, CommentModeJob:
	default:
		errs = append(errs, fmt.Errorf("invalid comment mode %q", c.Funnel.CommentMode))
	}

	// Job service credentials only matter when the job backend is selected.
	if c.Funnel.CommentMode == CommentModeJob {
		if c.Jobs.BaseURL == "" {
			errs = append(errs, errors.New("job service base URL is required in job comment mode"))
		}
		if c.Jobs.APIKey == "" {
			errs = append(errs, errors.New("job service API key is required in job comment mode"))
		}
		if c.Jobs.AgentID == "" {
			errs = append(errs, errors.New("job service agent ID is required in job comment mode"))
		}
		if c.Jobs.PollInterval <= 0 {
			errs = append(errs, errors.New("job poll interval must be positive"))
		}
		if c.Jobs.Timeout <= 0 {
			errs = append(errs, errors.New("job timeout must be positive"))
		}
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeFlags merges command line flag values into the configuration.
func (c *Config) MergeFlags(flags map[string]interface{}) {
	if niche, ok := flags["niche"].(string); ok && niche != "" {
		c.Funnel.Niche = niche
	}
	if accounts, ok := flags["accounts"].(int); ok && accounts > 0 {
		c.Funnel.MaxAccounts = accounts
	}
	if posts, ok := flags["posts"].(int); ok && posts > 0 {
		c.Funnel.PostsPerAccount = posts
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if mode, ok := flags["comment-mode"].(string); ok && mode != "" {
		c.Funnel.CommentMode = mode
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment variables > .env file > config
// file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igfunnel.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
