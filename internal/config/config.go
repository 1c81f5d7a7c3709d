// Package config loads roseline.toml, co-located with the executable.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const fileName = "roseline.toml"

// Config is the root of roseline.toml.
type Config struct {
	Remote  Remote `toml:"remote"`
	Store   Store  `toml:"store"`
	HTTP    HTTP   `toml:"http"`
	Workers int    `toml:"workers"`
	Bots    []Bot  `toml:"bots"`
}

// Remote holds the connection info for the remote VN metadata service.
type Remote struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Store holds the local SQLite file location.
type Store struct {
	Path string `toml:"path"`
}

// HTTP holds the admin surface listen address and the shared secret used
// to validate bearer tokens on mutating routes.
type HTTP struct {
	Addr      string `toml:"addr"`
	JWTSecret string `toml:"jwt_secret"`
}

// Bot describes one chat transport instance (IRC network, Discord guild, ...).
// Transport shims themselves are out of scope; this only carries what a
// launcher needs to start one.
type Bot struct {
	Transport string `toml:"transport"`
	Name      string `toml:"name"`
	TokenFile string `toml:"token_file"`
}

// Defaults returns a Config with the values roseline used historically.
func Defaults() Config {
	return Config{
		Remote: Remote{
			Host: "api.vndb.org",
			Port: 19535,
		},
		Store: Store{
			Path: "./roseline.db",
		},
		HTTP: HTTP{
			Addr: ":8080",
		},
		Workers: 4,
	}
}

// path returns the full path to roseline.toml, co-located with the
// executable unless overridden by ROSELINE_CONFIG.
func path() (string, error) {
	if v := os.Getenv("ROSELINE_CONFIG"); v != "" {
		return v, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), fileName), nil
}

// Load reads roseline.toml, falling back to Defaults for any field the
// file omits. A missing file is a config error (exit code 1 per spec.md §6).
func Load() (Config, error) {
	cfg := Defaults()

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", p, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", p, err)
	}

	return cfg, nil
}
