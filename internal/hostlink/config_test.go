package hostlink

import (
	"testing"
	"time"
)

// TestConfig_Validation tests our config validation logic
func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  &Config{ListenAddress: "localhost:9090"},
			wantErr: false,
		},
		{
			name:    "valid config with host address",
			config:  &Config{ListenAddress: "localhost:9090", HostAddress: "localhost:9091"},
			wantErr: false,
		},
		{
			name:    "empty listen address",
			config:  &Config{ListenAddress: ""},
			wantErr: true,
		},
		{
			name:    "negative max message size",
			config:  &Config{ListenAddress: "localhost:9090", MaxMessageSize: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestConfig_SetDefaults tests that config provides sensible defaults
func TestConfig_SetDefaults(t *testing.T) {
	config := &Config{ListenAddress: "localhost:9090"}
	config.SetDefaults()

	if config.MaxMessageSize != 4*1024*1024 {
		t.Errorf("Expected MaxMessageSize default of 4MB, got %d", config.MaxMessageSize)
	}
	if config.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected ShutdownTimeout default of 5s, got %v", config.ShutdownTimeout)
	}
}

// TestConfig_SetDefaults_PreservesExistingValues tests that non-zero values are preserved
func TestConfig_SetDefaults_PreservesExistingValues(t *testing.T) {
	config := &Config{
		ListenAddress:   "localhost:9090",
		MaxMessageSize:  2048,
		ShutdownTimeout: time.Second,
	}
	config.SetDefaults()

	if config.MaxMessageSize != 2048 {
		t.Errorf("Expected existing MaxMessageSize (2048) to be preserved, got %d", config.MaxMessageSize)
	}
	if config.ShutdownTimeout != time.Second {
		t.Errorf("Expected existing ShutdownTimeout (1s) to be preserved, got %v", config.ShutdownTimeout)
	}
}
