package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultBaseURL = "http://localhost:7090/api"
	baseURLEnv     = "ERPCTL_BASE_URL"
	passwordEnv    = "ERPCTL_PASSWORD"
)

// Config is the erpctl profile read from ~/.erpctl/config.yaml.
type Config struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	SessionFile  string        `yaml:"session_file"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".erpctl"
	}
	return filepath.Join(home, ".erpctl")
}

func defaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// loadConfig reads the profile at path. A missing file yields defaults. The
// .env file in the working directory and ERPCTL_BASE_URL override base_url.
func loadConfig(path string) (Config, error) {
	cfg := Config{}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if v := strings.TrimSpace(os.Getenv(baseURLEnv)); v != "" {
		cfg.BaseURL = v
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.SessionFile == "" {
		cfg.SessionFile = filepath.Join(configDir(), "session.json")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return cfg, nil
}
