package redisstore

import (
	"errors"
	"time"
)

// DefaultURL is used when a bind does not supply a connection URL.
const DefaultURL = "redis://0.0.0.0:6379/"

// Config holds configuration for the Redis connector
type Config struct {
	// DialTimeout bounds connection establishment, including the verification ping
	DialTimeout time.Duration

	// VerifyOnOpen pings the server when a client is opened
	VerifyOnOpen bool

	// PoolSize is the maximum number of connections per bound actor
	PoolSize int
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DialTimeout < 0 {
		return errors.New("dial timeout cannot be negative")
	}
	if c.PoolSize < 0 {
		return errors.New("pool size cannot be negative")
	}
	return nil
}

// SetDefaults sets sensible default values for unset configuration fields
func (c *Config) SetDefaults() {
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
}
