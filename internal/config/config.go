// Package config loads the corpusctl YAML configuration with .env overlays
// and environment variable expansion.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a corpus.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Site      SiteConfig      `yaml:"site"`
	Output    OutputConfig    `yaml:"output"`
	LinkCheck LinkCheckConfig `yaml:"linkcheck,omitempty"`
	Serve     ServeConfig     `yaml:"serve,omitempty"`
	Store     StoreConfig     `yaml:"store,omitempty"`
}

// CorpusConfig locates the markdown sources.
type CorpusConfig struct {
	Dir   string `yaml:"dir"`
	Index string `yaml:"index,omitempty"` // catalog index page, relative to Dir
}

// SiteConfig describes the rendered site.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
}

// OutputConfig is where the rendered site goes.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"`
}

// LinkCheckConfig tunes link verification.
type LinkCheckConfig struct {
	Enabled         bool   `yaml:"enabled"`
	MaxConcurrent   int    `yaml:"max_concurrent,omitempty"`
	RequestTimeout  string `yaml:"request_timeout,omitempty"` // duration string
	FollowRedirects bool   `yaml:"follow_redirects,omitempty"`
	MaxRedirects    int    `yaml:"max_redirects,omitempty"`
	CacheTTL        string `yaml:"cache_ttl,omitempty"` // duration string
	ExternalOnly    bool   `yaml:"external_only,omitempty"`
	NATSURL         string `yaml:"nats_url,omitempty"` // broken-link event publication, empty disables
	NATSSubject     string `yaml:"nats_subject,omitempty"`
}

// ServeConfig tunes the preview server.
type ServeConfig struct {
	Port           int    `yaml:"port,omitempty"`
	MetricsEnabled bool   `yaml:"metrics,omitempty"`
	CheckSchedule  string `yaml:"check_schedule,omitempty"` // duration string between scheduled link checks
}

// StoreConfig locates the run-record database.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"` // sqlite file, empty means ./corpusctl.db
}

// Load reads the configuration file, layering .env files (without overriding
// the process environment) and expanding ${VAR} references in the YAML.
func Load(path string) (*Config, error) {
	// Best effort; a missing .env is the normal case.
	_ = godotenv.Load(".env.local", ".env")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Corpus.Dir == "" {
		c.Corpus.Dir = "./docs"
	}
	if c.Corpus.Index == "" {
		c.Corpus.Index = "implementations.md"
	}
	if c.Site.Title == "" {
		c.Site.Title = "Documentation"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./site"
	}
	if c.LinkCheck.MaxConcurrent <= 0 {
		c.LinkCheck.MaxConcurrent = 10
	}
	if c.LinkCheck.RequestTimeout == "" {
		c.LinkCheck.RequestTimeout = "10s"
	}
	if c.LinkCheck.MaxRedirects <= 0 {
		c.LinkCheck.MaxRedirects = 5
	}
	if c.LinkCheck.CacheTTL == "" {
		c.LinkCheck.CacheTTL = "24h"
	}
	if c.LinkCheck.NATSSubject == "" {
		c.LinkCheck.NATSSubject = "corpus.links.broken"
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = 1380
	}
	if c.Serve.CheckSchedule == "" {
		c.Serve.CheckSchedule = "1h"
	}
}

// Init writes a starter configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	example := Config{
		Corpus: CorpusConfig{Dir: "./docs", Index: "implementations.md"},
		Site: SiteConfig{
			Title:       "Network protocols, sans I/O",
			Description: "Writing I/O-free protocol implementations",
			BaseURL:     "https://sans-io.readthedocs.io",
		},
		Output: OutputConfig{Directory: "./site", Clean: true},
		LinkCheck: LinkCheckConfig{
			Enabled:         true,
			MaxConcurrent:   10,
			RequestTimeout:  "10s",
			FollowRedirects: true,
			MaxRedirects:    5,
			CacheTTL:        "24h",
		},
		Serve: ServeConfig{Port: 1380, MetricsEnabled: true, CheckSchedule: "1h"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
