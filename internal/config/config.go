// Package config handles configuration loading and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultBackend   = "local"
	DefaultStorage   = "file"
	DefaultAPIURL    = "http://localhost:8080"
	DefaultTimeout   = 30
	DefaultLogLevel  = "warn"
	DefaultAddr      = ":8080"
	DefaultRedisURL  = "redis://localhost:6379/0"
	DefaultStoreKey  = "todos"
	DefaultBasePath  = "/todos"
	DefaultThemeName = "classic"
)

// Config holds the full configuration for tada.
type Config struct {
	Backend string `toml:"backend"` // local | remote
	Theme   string `toml:"theme"`   // classic | neon | mono
	Group   bool   `toml:"group"`

	Local  LocalConfig  `toml:"local"`
	Remote RemoteConfig `toml:"remote"`
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`

	// File is the config file that was read, if any.
	File string `toml:"-"`
}

type LocalConfig struct {
	Storage  string `toml:"storage"` // file | redis | memory
	DataDir  string `toml:"data_dir"`
	Key      string `toml:"key"`
	RedisURL string `toml:"redis_url"`
}

type RemoteConfig struct {
	BaseURL        string `toml:"base_url"`
	BasePath       string `toml:"base_path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// CredentialsDir holds credentials.json; defaults to ~/.tada.
	CredentialsDir string `toml:"credentials_dir"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr      string `toml:"addr"`
	JWTSecret string `toml:"jwt_secret"`
	Storage   string `toml:"storage"`
	DataDir   string `toml:"data_dir"`
}

// Load applies, in order: defaults, the TOML file (explicit path or the
// first one found), environment variables. Flags are applied by the caller,
// which then calls Validate.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := setDefaults(cfg); err != nil {
		return nil, err
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		cfg.File = path
	}

	loadFromEnv(cfg)
	return cfg, nil
}

func setDefaults(cfg *Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("home: %w", err)
	}
	base := filepath.Join(home, ".tada")

	cfg.Backend = DefaultBackend
	cfg.Theme = DefaultThemeName
	cfg.Local = LocalConfig{
		Storage:  DefaultStorage,
		DataDir:  base,
		Key:      DefaultStoreKey,
		RedisURL: DefaultRedisURL,
	}
	cfg.Remote = RemoteConfig{
		BaseURL:        DefaultAPIURL,
		BasePath:       DefaultBasePath,
		TimeoutSeconds: DefaultTimeout,
		CredentialsDir: base,
	}
	cfg.Log = LogConfig{Level: DefaultLogLevel, Format: "text"}
	cfg.Server = ServerConfig{
		Addr:    DefaultAddr,
		Storage: DefaultStorage,
		DataDir: filepath.Join(base, "server"),
	}
	return nil
}

// findConfigFile looks in the working directory, then ~/.tada.
func findConfigFile() string {
	names := []string{"tada.toml", ".tada.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		names = append(names, filepath.Join(home, ".tada", "config.toml"))
	}
	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TADA_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("TADA_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("TADA_DATA_DIR"); v != "" {
		cfg.Local.DataDir = v
	}
	if v := os.Getenv("TADA_STORAGE"); v != "" {
		cfg.Local.Storage = v
	}
	if v := os.Getenv("TADA_REDIS_URL"); v != "" {
		cfg.Local.RedisURL = v
	}
	if v := os.Getenv("TADA_API_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := os.Getenv("TADA_API_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Remote.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("TADA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TADA_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TADA_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TADA_JWT_SECRET"); v != "" {
		cfg.Server.JWTSecret = v
	}
}

// Validate rejects values no component understands.
func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend != "local" && c.Backend != "remote" {
		return fmt.Errorf("backend %q: want local or remote", c.Backend)
	}
	for _, s := range []struct{ name, v string }{
		{"local.storage", c.Local.Storage},
		{"server.storage", c.Server.Storage},
	} {
		switch s.v {
		case "file", "redis", "memory":
		default:
			return fmt.Errorf("%s %q: want file, redis or memory", s.name, s.v)
		}
	}
	if c.Remote.TimeoutSeconds <= 0 {
		return fmt.Errorf("remote.timeout_seconds must be positive, got %d", c.Remote.TimeoutSeconds)
	}
	return nil
}
