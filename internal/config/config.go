package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL        = "http://localhost:14243"
	DefaultTimeout       = 30 * time.Second
	DefaultTimeoutHealth = 5 * time.Second

	// Content bounds applied while parsing transcripts.
	MinContentLength = 5
	MaxContentLength = 15000
)

// ValidSources are the accepted session source hints.
var ValidSources = map[string]bool{"auto": true, "claude": true, "codex": true}

type Config struct {
	APIURL        string `toml:"api_url"`
	AuthToken     string `toml:"auth_token"`
	ClaudeRoot    string `toml:"claude_root"`
	CodexRoot     string `toml:"codex_root"`
	MaxMessages   int    `toml:"max_messages"`
	SessionSource string `toml:"session_source"`

	// TOML and env carry timeouts as seconds; converted in Load.
	TimeoutSec       float64 `toml:"timeout"`
	TimeoutHealthSec float64 `toml:"timeout_health"`

	Timeout       time.Duration `toml:"-"`
	TimeoutHealth time.Duration `toml:"-"`
}

// Load builds configuration in priority order: defaults, then
// ~/.config/nmem/config.toml, then a .env file in the working directory,
// then NOWLEDGE_MEM_* environment variables.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIURL:        DefaultAPIURL,
		ClaudeRoot:    filepath.Join(home, ".claude", "projects"),
		CodexRoot:     filepath.Join(home, ".codex", "sessions"),
		Timeout:       DefaultTimeout,
		TimeoutHealth: DefaultTimeoutHealth,
		SessionSource: "auto",
	}

	cfgPath := filepath.Join(home, ".config", "nmem", "config.toml")
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
		if cfg.TimeoutSec > 0 {
			cfg.Timeout = time.Duration(cfg.TimeoutSec * float64(time.Second))
		}
		if cfg.TimeoutHealthSec > 0 {
			cfg.TimeoutHealth = time.Duration(cfg.TimeoutHealthSec * float64(time.Second))
		}
	}

	// .env never overrides variables already present in the environment.
	_ = godotenv.Load()

	cfg.applyEnv()

	cfg.ClaudeRoot = expandHome(cfg.ClaudeRoot, home)
	cfg.CodexRoot = expandHome(cfg.CodexRoot, home)

	cfg.clamp()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.APIURL = getEnv("NOWLEDGE_MEM_API_URL", c.APIURL)
	if v := strings.TrimSpace(os.Getenv("NOWLEDGE_MEM_AUTH_TOKEN")); v != "" {
		c.AuthToken = v
	}
	c.ClaudeRoot = getEnv("NOWLEDGE_MEM_CLAUDE_ROOT", c.ClaudeRoot)
	c.CodexRoot = getEnv("NOWLEDGE_MEM_CODEX_ROOT", c.CodexRoot)
	c.Timeout = getEnvSeconds("NOWLEDGE_MEM_TIMEOUT", c.Timeout)
	c.TimeoutHealth = getEnvSeconds("NOWLEDGE_MEM_TIMEOUT_HEALTH", c.TimeoutHealth)
	c.MaxMessages = getEnvInt("NOWLEDGE_MEM_MAX_MESSAGES", c.MaxMessages)
	if v := os.Getenv("NOWLEDGE_MEM_SESSION_SOURCE"); v != "" {
		c.SessionSource = strings.ToLower(strings.TrimSpace(v))
	}
}

// clamp normalizes out-of-range values instead of failing.
func (c *Config) clamp() {
	if c.MaxMessages < 0 {
		c.MaxMessages = 0
	}
	if !ValidSources[c.SessionSource] {
		c.SessionSource = "auto"
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.TimeoutHealth <= 0 {
		c.TimeoutHealth = DefaultTimeoutHealth
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return time.Duration(f * float64(time.Second))
		}
	}
	return def
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
