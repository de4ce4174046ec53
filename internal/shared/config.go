package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/desertthunder/uus/internal/embed"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
)

// Config represents the application configuration loaded from a TOML file and the environment.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Backend  BackendConfig  `toml:"backend"`
	Supabase SupabaseConfig `toml:"supabase"`
	Database DatabaseConfig `toml:"database"`
	Video    VideoConfig    `toml:"video"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `toml:"host" env:"UUS_HOST"`
	Port            int    `toml:"port" env:"UUS_PORT"`
	RequestTimeout  int    `toml:"request_timeout" env:"UUS_REQUEST_TIMEOUT"`
	ShutdownTimeout int    `toml:"shutdown_timeout"`
}

// Addr returns the host:port pair the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BackendConfig selects where catalog data lives.
type BackendConfig struct {
	Driver string `toml:"driver" env:"UUS_BACKEND"`
}

// SupabaseConfig contains the hosted backend's REST endpoint and credentials.
type SupabaseConfig struct {
	URL            string  `toml:"url" env:"SUPABASE_URL"`
	ServiceRoleKey string  `toml:"service_role_key" env:"SUPABASE_SERVICE_ROLE_KEY"`
	RateLimit      float64 `toml:"rate_limit" env:"SUPABASE_RATE_LIMIT"`
	Burst          int     `toml:"burst"`
	Timeout        int     `toml:"timeout"`
}

// DatabaseConfig contains local database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"UUS_DATABASE_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// VideoConfig describes the accepted video provider.
type VideoConfig struct {
	Provider   string   `toml:"provider"`
	Host       string   `toml:"host" env:"UUS_VIDEO_HOST"`
	EmbedPath  string   `toml:"embed_path"`
	SharePaths []string `toml:"share_paths"`
}

// LogConfig controls logger verbosity and output format.
type LogConfig struct {
	Level  string `toml:"level" env:"UUS_LOG_LEVEL"`
	Format string `toml:"format" env:"UUS_LOG_FORMAT"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads the given dotenv files (".env" when none are named) into the process environment
// and overlays any set variables onto c. Missing dotenv files are not an error.
func (c *Config) ApplyEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, f, err)
		}
	}

	if err := env.Parse(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Backend.Driver {
	case BackendSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for the sqlite backend", ErrMissingConfig)
		}
	case BackendSupabase:
		if c.Supabase.URL == "" {
			return fmt.Errorf("%w: supabase.url (SUPABASE_URL)", ErrMissingConfig)
		}
		if c.Supabase.ServiceRoleKey == "" {
			return fmt.Errorf("%w: supabase.service_role_key (SUPABASE_SERVICE_ROLE_KEY)", ErrMissingCredentials)
		}
	default:
		return fmt.Errorf("%w: unknown backend driver %q", ErrInvalidConfig, c.Backend.Driver)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// VideoProvider converts the [video] section into an [embed.Provider].
func (c *Config) VideoProvider() embed.Provider {
	return embed.Provider{
		Name:       c.Video.Provider,
		Host:       c.Video.Host,
		EmbedPath:  c.Video.EmbedPath,
		SharePaths: c.Video.SharePaths,
	}
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

// RequestTimeoutDuration is the per-request deadline applied by the server middleware.
func (s ServerConfig) RequestTimeoutDuration() time.Duration {
	return seconds(s.RequestTimeout, 15)
}

// ShutdownTimeoutDuration bounds graceful shutdown.
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return seconds(s.ShutdownTimeout, 10)
}

// TimeoutDuration is the HTTP client timeout for backend calls.
func (s SupabaseConfig) TimeoutDuration() time.Duration {
	return seconds(s.Timeout, 10)
}
