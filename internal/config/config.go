package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"prestalab/portal/internal/model"
	"prestalab/portal/internal/service/gateway"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort  string `yaml:"server_port"`
	DatabaseURL string `yaml:"database_url"`

	Gateway struct {
		URL      string           `yaml:"url"`
		Timeout  time.Duration    `yaml:"timeout"`
		Services gateway.Services `yaml:"services"`
	} `yaml:"gateway"`

	Session struct {
		Key           string `yaml:"-"`
		CSRFKey       string `yaml:"-"`
		SecureCookies bool   `yaml:"secure_cookies"`
	} `yaml:"session"`

	AdminEmails        []string     `yaml:"admin_emails"`
	Sedes              []model.Sede `yaml:"sedes"`
	PageSize           int          `yaml:"page_size"`
	HydrateConcurrency int          `yaml:"hydrate_concurrency"`

	// ConfigPath is the YAML file that was read, if any.
	ConfigPath string `yaml:"-"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	cfg := &Config{
		ServerPort:         "8080",
		PageSize:           24,
		HydrateConcurrency: 6,
		Sedes: []model.Sede{
			{ID: "1", Nombre: "Casa Central"},
			{ID: "2", Nombre: "San Carlos"},
			{ID: "3", Nombre: "Peñalolén"},
		},
	}
	cfg.Gateway.Timeout = 30 * time.Second
	cfg.Gateway.Services = gateway.DefaultServices()
	return cfg
}

// Load builds the configuration from the defaults, the optional YAML file
// named by CONFIG_FILE (prestalab.yaml) and the environment, in that order.
func Load() (*Config, error) {
	// Load .env file if it exists (useful for local dev)
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "prestalab.yaml"
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads path over the defaults. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.ConfigPath = path
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		c.ServerPort = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("GATEWAY_URL"); v != "" {
		c.Gateway.URL = v
	}
	if v := os.Getenv("GATEWAY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid GATEWAY_TIMEOUT %q: %w", v, err)
		}
		c.Gateway.Timeout = d
	}
	c.Session.Key = os.Getenv("SESSION_KEY")
	c.Session.CSRFKey = os.Getenv("CSRF_KEY")
	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SECURE_COOKIES %q: %w", v, err)
		}
		c.Session.SecureCookies = b
	}
	if v := os.Getenv("ADMIN_EMAILS"); v != "" {
		for _, email := range strings.Split(v, ",") {
			if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
				c.AdminEmails = append(c.AdminEmails, email)
			}
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Gateway.URL == "" {
		return fmt.Errorf("GATEWAY_URL must be set")
	}
	if len(c.Session.Key) < 32 {
		return fmt.Errorf("SESSION_KEY must be set to at least 32 bytes")
	}
	if c.Session.CSRFKey != "" && len(c.Session.CSRFKey) != 32 {
		return fmt.Errorf("CSRF_KEY must be exactly 32 bytes")
	}
	if c.PageSize <= 0 {
		c.PageSize = 24
	}
	if c.HydrateConcurrency <= 0 {
		c.HydrateConcurrency = 6
	}
	return nil
}
