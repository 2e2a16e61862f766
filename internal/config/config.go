package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	CORS    CORSConfig
	Catalog CatalogConfig
	Log     LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type CatalogConfig struct {
	// Path to a YAML incident document. Empty means the built-in catalog.
	Path string
}

type LogConfig struct {
	Level  string
	Format string
}

// Addr returns the host:port the HTTP server listens on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BaseURL returns the URL CLI commands use to reach a running server.
func (c ServerConfig) BaseURL() string {
	return "http://" + c.Addr()
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8000,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://127.0.0.1:5173",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/silence/config.json, a .env file in the working
// directory, and environment variables.
//
// Environment variables (SILENCE_*) override backend values. Variables from
// .env never replace ones already set in the process environment.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return loadWith(newPlatformBackend())
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid config: server.port %d is out of range", cfg.Server.Port)
	}
	if cfg.Server.Host == "" {
		return Config{}, fmt.Errorf("invalid config: server.host is empty")
	}

	return cfg, nil
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[WARN] "+format+"\n", args...)
}
