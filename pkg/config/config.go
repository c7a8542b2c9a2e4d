// Package config loads server settings from an optional YAML file with
// environment-variable overrides, so a bare binary runs with sane
// defaults while deployments can pin everything.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DataServerConfig locates the upstream ephemeris provider.
type DataServerConfig struct {
	Host string `yaml:"host" env:"MOONTREK_DATA_SERVER_HOST"`
	Port int    `yaml:"port" env:"MOONTREK_DATA_SERVER_PORT"`
}

// DirsConfig lists the filesystem tree the server owns.
type DirsConfig struct {
	Uploads   string `yaml:"uploads" env:"MOONTREK_DIR_UPLOADS"`
	Processed string `yaml:"processed" env:"MOONTREK_DIR_PROCESSED"`
	Models    string `yaml:"models" env:"MOONTREK_DIR_MODELS"`
	Live      string `yaml:"live" env:"MOONTREK_DIR_LIVE"`
}

// RegistrationConfig describes how to launch the external registration
// tool.  The stored file name is appended as the final argument.
type RegistrationConfig struct {
	Command string   `yaml:"command" env:"MOONTREK_REGISTRATION_COMMAND"`
	Args    []string `yaml:"args"`
	Workers int      `yaml:"workers" env:"MOONTREK_REGISTRATION_WORKERS"`
}

// Config is the full server configuration.
type Config struct {
	Port                   int                `yaml:"port" env:"MOONTREK_PORT"`
	Domain                 string             `yaml:"domain" env:"MOONTREK_DOMAIN"`
	DataServer             DataServerConfig   `yaml:"data_server"`
	UpstreamTimeoutSeconds int                `yaml:"upstream_timeout_seconds" env:"MOONTREK_UPSTREAM_TIMEOUT_SECONDS"`
	Dirs                   DirsConfig         `yaml:"dirs"`
	Registration           RegistrationConfig `yaml:"registration"`
}

// Default mirrors the layout the registration tool expects on disk.
func Default() Config {
	return Config{
		Port: 8888,
		DataServer: DataServerConfig{
			Host: "127.0.0.1",
			Port: 5000,
		},
		UpstreamTimeoutSeconds: 5,
		Dirs: DirsConfig{
			Uploads:   "images/uploads",
			Processed: "images/processed",
			Models:    "models",
			Live:      "images/live",
		},
		Registration: RegistrationConfig{
			Command: "conda",
			Args:    []string{"run", "-n", "MoonTrek", "python", "image-registration/process.py"},
			Workers: 1,
		},
	}
}

// Load reads the YAML file at path when it exists, then applies
// MOONTREK_* environment overrides.  A missing file is not an error;
// defaults carry the server.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Run on defaults.
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// UpstreamTimeout converts the configured seconds into a duration.
func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// Addr is the HTTP listen address for the plain (non-domain) mode.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// EnsureDirs creates the directory tree the server writes into.  The
// processed directory belongs to the registration tool but is created
// here too so static serving works before the first job completes.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.Dirs.Uploads, c.Dirs.Processed, c.Dirs.Models, c.Dirs.Live} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
