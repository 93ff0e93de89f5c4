package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/dmrelay/internal/core"
)

// Store drivers.
const (
	StoreSQLite = "sqlite"
	StoreBadger = "badger"
)

// DefaultAdminID is the counterparty whose conversation every user sees on connect.
const DefaultAdminID = "6940e8fb7e042f29dcf61df0"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	PersistTimeout    time.Duration `mapstructure:"persist_timeout" yaml:"persist_timeout"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	AdminID      string `mapstructure:"admin_id" yaml:"admin_id"`
	HistoryLimit int    `mapstructure:"history_limit" yaml:"history_limit"`

	StoreDriver string `mapstructure:"store_driver" yaml:"store_driver"`
	StorePath   string `mapstructure:"store_path" yaml:"store_path"`

	OutboundQueueSize  int      `mapstructure:"outbound_queue_size" yaml:"outbound_queue_size"`
	OutboundPolicy     string   `mapstructure:"outbound_policy" yaml:"outbound_policy"`
	MaxMessageBytes    int64    `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	AllowedOrigins     []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	MetricsEnabled     bool     `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":4000",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		WriteTimeout:       10 * time.Second,
		PersistTimeout:     5 * time.Second,
		LogLevel:           "info",
		LogFormat:          "console",
		AdminID:            DefaultAdminID,
		HistoryLimit:       core.DefaultHistoryLimit,
		StoreDriver:        StoreSQLite,
		StorePath:          "dmrelay.db",
		OutboundQueueSize:  core.DefaultQueueSize,
		OutboundPolicy:     string(core.DropNewest),
		MaxMessageBytes:    1 << 16,
		RateLimitPerMinute: 0,
		AllowedOrigins:     []string{"localhost:3000", "gurusharan.vercel.app"},
		MetricsEnabled:     true,
	}
}

// Validate reports configuration that the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	}
	if c.AdminID != "" && !core.ValidID(c.AdminID) {
		errs = append(errs, fmt.Errorf("admin_id %q is not a 24-character hex id", c.AdminID))
	}
	switch c.StoreDriver {
	case StoreSQLite, StoreBadger:
	default:
		errs = append(errs, fmt.Errorf("unknown store_driver %q", c.StoreDriver))
	}
	if _, err := core.ParseQueuePolicy(c.OutboundPolicy); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
