package web

import (
	"time"

	"github.com/ukpostcodes/internal/config"
)

// Config represents the web server configuration.
type Config struct {
	Host        string        `json:"host"`
	Port        int           `json:"port"`
	CORSOrigins []string      `json:"cors_origins"`
	APIKey      string        `json:"-"`
	Limits      config.Limits `json:"limits"`

	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8000,
		CORSOrigins:     []string{"*"},
		Limits:          config.DefaultLimits(),
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// ConfigFrom builds a Config from the shared runtime settings.
func ConfigFrom(s config.Settings) Config {
	c := DefaultConfig()
	c.Host = s.Host
	c.Port = s.Port
	c.CORSOrigins = s.CORSOrigins
	c.APIKey = s.APIKey
	c.Limits = s.Limits
	return c
}
