package hostlink

import (
	"errors"
	"time"
)

// Config holds configuration for the host link
type Config struct {
	// ListenAddress is where the provider serves HandleCall
	ListenAddress string
	// HostAddress is the host's Dispatch endpoint. Empty means no reverse channel.
	HostAddress    string
	MaxMessageSize int
	// ShutdownTimeout bounds graceful shutdown before in-flight calls are cut off
	ShutdownTimeout time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return errors.New("listen address cannot be empty")
	}
	if c.MaxMessageSize < 0 {
		return errors.New("max message size cannot be negative")
	}
	return nil
}

// SetDefaults sets sensible default values for unset configuration fields
func (c *Config) SetDefaults() {
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 4 * 1024 * 1024 // 4MB
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}
