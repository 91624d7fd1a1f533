// Package config loads client configuration.
//
// The file is taken from --config, else from RETOS_CONFIG; with neither
// set, built-in defaults apply. YAML files (.yaml, .yml) and JSON with
// comments (.json, .jsonc) are accepted. RETOS_BASE_URL overrides the
// base URL from any source.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/retos/internal/logger"
	"github.com/Makepad-fr/retos/internal/model"
)

const (
	EnvConfig  = "RETOS_CONFIG"
	EnvBaseURL = "RETOS_BASE_URL"
)

// Config is the full client configuration.
type Config struct {
	// BaseURL is the API origin, e.g. http://127.0.0.1:5000.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// ListPath serves GET (list), POST, and /{id} routes.
	ListPath string `yaml:"list_path" json:"list_path"`

	// FilterPath serves filtered lists. Empty means ListPath with a query.
	FilterPath string `yaml:"filter_path" json:"filter_path"`

	// UpdateMethod is PATCH or PUT.
	UpdateMethod string `yaml:"update_method" json:"update_method"`

	// Timeout bounds each request at the transport. Go duration syntax.
	Timeout Duration `yaml:"timeout" json:"timeout"`

	// Labels is the server's status/difficulty vocabulary: es or en.
	Labels string `yaml:"labels" json:"labels"`

	// Theme is classic, neon, or mono.
	Theme string `yaml:"theme" json:"theme"`

	Log logger.Config `yaml:"log" json:"log"`
}

// Duration accepts "10s"-style strings in both YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		BaseURL:      "http://127.0.0.1:5000",
		ListPath:     "/retos",
		FilterPath:   "/retos/filtrar",
		UpdateMethod: http.MethodPatch,
		Timeout:      Duration(10 * time.Second),
		Labels:       "es",
		Theme:        "classic",
		Log: logger.Config{
			Level: "info",
		},
	}
}

// Load resolves the config path (flag first, then environment) and loads
// it over the defaults.
func Load(flagPath string) (*Config, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		cfg.BaseURL = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks the fields the client cannot work without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", c.BaseURL)
	}
	if !strings.HasPrefix(c.ListPath, "/") {
		return fmt.Errorf("list_path must start with /, got %q", c.ListPath)
	}
	if c.FilterPath != "" && !strings.HasPrefix(c.FilterPath, "/") {
		return fmt.Errorf("filter_path must start with /, got %q", c.FilterPath)
	}
	c.UpdateMethod = strings.ToUpper(strings.TrimSpace(c.UpdateMethod))
	switch c.UpdateMethod {
	case http.MethodPatch, http.MethodPut:
	default:
		return fmt.Errorf("update_method must be PATCH or PUT, got %q", c.UpdateMethod)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if _, ok := model.LabelsByName(c.Labels); !ok {
		return fmt.Errorf("labels must be es or en, got %q", c.Labels)
	}
	return nil
}

// WireLabels returns the vocabulary named by Labels.
func (c *Config) WireLabels() model.Labels {
	l, _ := model.LabelsByName(c.Labels)
	return l
}
