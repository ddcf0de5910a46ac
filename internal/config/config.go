package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectURL is the project page shown in the about overlay.
const ProjectURL = "https://github.com/netphils/cefdetector-standalone"

// Config holds the settings of both the client and the fixture backend.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	UI      UIConfig      `yaml:"ui"`
	Server  ServerConfig  `yaml:"server"`
	Fixture FixtureConfig `yaml:"fixture"`
}

// BackendConfig locates the detection backend.
type BackendConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
	// RequestTimeout bounds each HTTP call; zero means no timeout.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// UIConfig controls the terminal client.
type UIConfig struct {
	LogFile  string `yaml:"log_file"`
	AboutURL string `yaml:"about_url"`
}

// ServerConfig controls the fixture backend listener.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AuthToken      string   `yaml:"auth_token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxConnections int      `yaml:"max_connections"`
}

// FixtureConfig controls what the fixture backend replays.
type FixtureConfig struct {
	Path         string        `yaml:"path"`
	ItemDelay    time.Duration `yaml:"item_delay"`
	FailCount    bool          `yaml:"fail_count"`
	FailAnalysis bool          `yaml:"fail_analysis"`
}

// Default returns a Config with all default values populated.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL: "ws://127.0.0.1:8080/ws",
		},
		UI: UIConfig{
			LogFile:  filepath.Join(os.TempDir(), "cefdetector.log"),
			AboutURL: ProjectURL,
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			MaxConnections: 100,
		},
		Fixture: FixtureConfig{
			ItemDelay: 150 * time.Millisecond,
		},
	}
}

// DefaultPath returns ~/.config/cefdetector/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "cefdetector", "config.yaml"), nil
}

// Load loads config from path, or from DefaultPath when path is empty. A
// missing file is created with default values.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	return LoadFrom(path)
}

// LoadOrDefault is like LoadFrom but returns defaults when the file does
// not exist. It never writes.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom loads and parses config from path. Missing fields keep their
// default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save marshals the config to YAML and writes it to path, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects values neither binary can run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil {
		return fmt.Errorf("backend.url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("backend.url: scheme must be ws or wss, got %q", u.Scheme)
	}
	if c.Backend.RequestTimeout < 0 {
		return fmt.Errorf("backend.request_timeout: must not be negative")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if c.Fixture.ItemDelay < 0 {
		return fmt.Errorf("fixture.item_delay: must not be negative")
	}
	return nil
}

// Addr returns the fixture backend listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GenerateToken returns a random 32-character hex token.
func GenerateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
