// Package config loads the manager's own settings from config.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/kirsle/configdir"
	"gopkg.in/yaml.v3"
)

const (
	AppName  = "goldberg-manager"
	fileName = "config.yaml"
)

// Config holds paths, endpoints and credentials of the manager.
type Config struct {
	Paths struct {
		// WorkDir holds goldberg/, tools/, Configs/ and Media/. Empty means
		// the directory of the executable.
		WorkDir string `yaml:"work_dir"`
		// EmuDir overrides <WorkDir>/goldberg.
		EmuDir string `yaml:"emu_dir"`
		// SettingsRoot overrides the per-user "Goldberg SteamEmu Saves" dir.
		SettingsRoot string `yaml:"settings_root"`
	} `yaml:"paths"`

	Release struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
	} `yaml:"release"`

	Steam struct {
		APIKey   string `yaml:"api_key"`
		APIURL   string `yaml:"api_url"`
		StoreURL string `yaml:"store_url"`
	} `yaml:"steam"`

	HTTP struct {
		TimeoutSec int    `yaml:"timeout_sec"`
		UserAgent  string `yaml:"user_agent"`
	} `yaml:"http"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns the configuration used when no config.yaml exists.
func Default() Config {
	var c Config
	c.Release.BaseURL = "https://github.com"
	c.Steam.APIURL = "https://api.steampowered.com"
	c.Steam.StoreURL = "https://store.steampowered.com"
	c.HTTP.TimeoutSec = 45
	c.HTTP.UserAgent = "Goldberg-Manager/1.0 (+fyne)"
	c.Logging.Level = "info"
	return c
}

// Load reads path on top of Default. A missing file is not an error.
// Environment variables win over the file.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"release.base_url": c.Release.BaseURL,
		"steam.api_url":    c.Steam.APIURL,
		"steam.store_url":  c.Steam.StoreURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s: invalid URL %q", name, raw)
		}
	}
	if c.HTTP.TimeoutSec <= 0 {
		return fmt.Errorf("http.timeout_sec must be positive")
	}
	return nil
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSec) * time.Second
}

func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("GOLDBERG_EMU_DIR"); v != "" {
		cfg.Paths.EmuDir = v
	}
	if v := os.Getenv("STEAM_WEB_API_KEY"); v != "" {
		cfg.Steam.APIKey = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.Release.Token = v
	}
}

// ResolvePath finds config.yaml: the working directory first, then the OS
// config directory.
func ResolvePath() string {
	if _, err := os.Stat(fileName); err == nil {
		return fileName
	}
	p := filepath.Join(configdir.LocalConfig(AppName), fileName)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return fileName
}
