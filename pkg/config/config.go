// Package config defines the runtime configuration for the WitnessChain
// backend: storage gateway endpoints, upload limits, database connection,
// HTTP listen address, debug mode, and operation timeouts. It also provides
// validation and defaulting helpers.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all settings required to run the daemon or embed the storage
// boundary as a library. Use Validate to fill implicit defaults and to check
// for required fields.
type Config struct {
	// IpfsAPIURL is the HTTP API endpoint of the IPFS/Kubo node used by the
	// development gateway backend. Default: http://localhost:5001
	IpfsAPIURL string `json:"ipfs_api_url" yaml:"ipfs_api_url"`
	// GatewayURL is the HTTP gateway used for piece status checks and
	// retrieval URLs. Default: https://gateway.lighthouse.storage/ipfs/
	GatewayURL string `json:"gateway_url" yaml:"gateway_url"`
	// DatabaseDSN is the Postgres connection string (required for the daemon,
	// unused when only the storage boundary is embedded).
	DatabaseDSN string `json:"database_dsn" yaml:"database_dsn"`
	// ListenAddr is the HTTP listen address of the REST API. Default: :8080
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
	// MaxFileSize caps evidence uploads in bytes. Default: 200 MiB.
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`
	// Debug enables verbose logging.
	Debug bool `json:"debug" yaml:"debug"`
	// Timeouts configures per-operation deadlines. See Timeouts.WithDefaults.
	Timeouts Timeouts `json:"timeouts" yaml:"timeouts"`
}

// Timeouts controls operation deadlines handed to the storage backend and
// the HTTP server. Zero values are replaced by sane defaults in WithDefaults.
type Timeouts struct {
	Upload   time.Duration // storage upload, context creation included
	Retrieve time.Duration // storage download
	Request  time.Duration // inbound HTTP request budget
	Shutdown time.Duration // graceful server shutdown
}

// Validate normalizes the configuration by applying implicit defaults for
// IpfsAPIURL, GatewayURL, ListenAddr and MaxFileSize, and verifies that
// DatabaseDSN is provided. Returns an error when DatabaseDSN is empty.
func (c *Config) Validate() error {

	if c.IpfsAPIURL == "" {
		c.IpfsAPIURL = "http://localhost:5001"
	}

	if c.GatewayURL == "" {
		c.GatewayURL = "https://gateway.lighthouse.storage/ipfs/"
	}

	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}

	if c.MaxFileSize == 0 {
		c.MaxFileSize = 200 << 20
	}

	if c.DatabaseDSN == "" {
		return errors.New("database DSN is required")
	}

	return nil
}

// WithDefaults returns a copy of t with zero values replaced by defaults:
//
//	Upload:   120s
//	Retrieve: 60s
//	Request:  150s
//	Shutdown: 10s
func (t Timeouts) WithDefaults() Timeouts {
	tt := t
	if tt.Upload == 0 {
		tt.Upload = 120 * time.Second
	}
	if tt.Retrieve == 0 {
		tt.Retrieve = 60 * time.Second
	}
	if tt.Request == 0 {
		tt.Request = 150 * time.Second
	}
	if tt.Shutdown == 0 {
		tt.Shutdown = 10 * time.Second
	}
	return tt
}

// FromEnv builds a Config from environment variables:
//
//	WITNESS_IPFS_API_URL, WITNESS_GATEWAY_URL, WITNESS_DATABASE_DSN,
//	WITNESS_LISTEN_ADDR, WITNESS_MAX_FILE_SIZE (bytes), WITNESS_DEBUG
//
// Unset variables are left zero so Validate can apply defaults.
func FromEnv() *Config {
	c := &Config{
		IpfsAPIURL:  os.Getenv("WITNESS_IPFS_API_URL"),
		GatewayURL:  os.Getenv("WITNESS_GATEWAY_URL"),
		DatabaseDSN: os.Getenv("WITNESS_DATABASE_DSN"),
		ListenAddr:  os.Getenv("WITNESS_LISTEN_ADDR"),
	}
	if raw := os.Getenv("WITNESS_MAX_FILE_SIZE"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			c.MaxFileSize = v
		}
	}
	if raw := os.Getenv("WITNESS_DEBUG"); raw != "" {
		c.Debug, _ = strconv.ParseBool(raw)
	}
	return c
}
