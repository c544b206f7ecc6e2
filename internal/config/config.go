// Package config loads wikiserve settings from defaults, an optional
// wikiserve.yaml, WIKISERVE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rcliao/wikiserve/internal/compat"
	"github.com/rcliao/wikiserve/internal/session"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "WIKISERVE"

// WikiConfig holds the display options pages are rendered with.
type WikiConfig struct {
	PageFileDir  string `json:"page_file_dir" mapstructure:"page_file_dir"`
	UniversalTOC bool   `json:"universal_toc" mapstructure:"universal_toc"`
	MathJax      bool   `json:"mathjax" mapstructure:"mathjax"`
	CSS          bool   `json:"css" mapstructure:"css"`
	H1Title      bool   `json:"h1_title" mapstructure:"h1_title"`
}

// Config is the complete server configuration.
type Config struct {
	DBPath      string `json:"db" mapstructure:"db"`
	Addr        string `json:"addr" mapstructure:"addr"`
	MetricsAddr string `json:"metrics_addr" mapstructure:"metrics_addr"`
	BasePath    string `json:"base_path" mapstructure:"base_path"`
	DefaultPage string `json:"default_page" mapstructure:"default_page"`

	LogLevel  string `json:"log_level" mapstructure:"log_level"`
	LogPretty bool   `json:"log_pretty" mapstructure:"log_pretty"`

	Wiki        WikiConfig       `json:"wiki" mapstructure:"wiki"`
	MinBrowsers []compat.Minimum `json:"min_browsers" mapstructure:"min_browsers"`

	// Request headers a trusted proxy sets with the signed-in author. Empty
	// disables header authors.
	AuthorHeader      string `json:"author_header" mapstructure:"author_header"`
	AuthorEmailHeader string `json:"author_email_header" mapstructure:"author_email_header"`

	// TrustedProxies lists the CIDR blocks or addresses whose author and
	// X-Forwarded-Prefix headers are believed. Everyone else's are dropped.
	TrustedProxies []string `json:"trusted_proxies" mapstructure:"trusted_proxies"`

	ReadTimeout     time.Duration `json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// DefaultDBPath is ~/.wikiserve/wiki.db.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".wikiserve", "wiki.db")
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		DBPath:          DefaultDBPath(),
		Addr:            ":4567",
		MetricsAddr:     ":9090",
		DefaultPage:     "Home",
		LogLevel:        "info",
		MinBrowsers:     compat.DefaultMinimums(),
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// SetDefaults registers every default on v so that environment variables
// and flags bound to the same keys take part in Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("db", d.DBPath)
	v.SetDefault("addr", d.Addr)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("base_path", d.BasePath)
	v.SetDefault("default_page", d.DefaultPage)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_pretty", d.LogPretty)
	v.SetDefault("wiki.page_file_dir", d.Wiki.PageFileDir)
	v.SetDefault("wiki.universal_toc", d.Wiki.UniversalTOC)
	v.SetDefault("wiki.mathjax", d.Wiki.MathJax)
	v.SetDefault("wiki.css", d.Wiki.CSS)
	v.SetDefault("wiki.h1_title", d.Wiki.H1Title)
	v.SetDefault("author_header", d.AuthorHeader)
	v.SetDefault("author_email_header", d.AuthorEmailHeader)
	v.SetDefault("trusted_proxies", []string{})
	v.SetDefault("read_timeout", d.ReadTimeout)
	v.SetDefault("write_timeout", d.WriteTimeout)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)
}

// Load reads configuration into a Config. configFile may be empty, in
// which case wikiserve.yaml is looked up in the working directory and in
// ~/.wikiserve; a missing file is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("wikiserve")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".wikiserve"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.BasePath = NormalizeBasePath(c.BasePath)
	c.Wiki.PageFileDir = strings.Trim(c.Wiki.PageFileDir, "/")
	c.DefaultPage = strings.Trim(c.DefaultPage, "/")
	if c.DefaultPage == "" {
		return fmt.Errorf("default_page must not be empty")
	}
	if len(c.MinBrowsers) == 0 {
		c.MinBrowsers = compat.DefaultMinimums()
	}
	for _, m := range c.MinBrowsers {
		if m.Family == "" || m.Version == "" {
			return fmt.Errorf("min_browsers entry %+v needs family and version", m)
		}
	}
	c.AuthorHeader = strings.TrimSpace(c.AuthorHeader)
	c.AuthorEmailHeader = strings.TrimSpace(c.AuthorEmailHeader)
	if _, err := session.ParseProxies(c.TrustedProxies); err != nil {
		return err
	}
	return nil
}

// NormalizeBasePath returns p with one leading slash and no trailing
// slash, or "" for the root mount.
func NormalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
