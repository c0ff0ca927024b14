package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			Timeout: 60 * time.Second,
		},
		Playback: PlaybackConfig{
			FrameInterval: 16 * time.Millisecond,
			Speed:         1.0,
		},
		Server: ServerConfig{
			Port: "8080",
			TLS:  TLSConfig{Mode: "disabled"},
		},
		App: AppConfig{
			LogLevel:         "info",
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:        "non-positive analyzer timeout",
			mutate:      func(c *Config) { c.Analyzer.Timeout = 0 },
			expectError: true,
			errorMsg:    "analyzer timeout must be positive",
		},
		{
			name:        "non-positive frame interval",
			mutate:      func(c *Config) { c.Playback.FrameInterval = 0 },
			expectError: true,
			errorMsg:    "playback frame interval must be positive",
		},
		{
			name:        "negative playback speed",
			mutate:      func(c *Config) { c.Playback.Speed = -1 },
			expectError: true,
			errorMsg:    "playback speed must be positive",
		},
		{
			name:        "missing server port",
			mutate:      func(c *Config) { c.Server.Port = "" },
			expectError: true,
			errorMsg:    "server port is required",
		},
		{
			name:        "unsupported default format",
			mutate:      func(c *Config) { c.App.DefaultFormat = "xml" },
			expectError: true,
			errorMsg:    "invalid default format: xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTLSConfig(t *testing.T) {
	tests := []struct {
		name        string
		tls         TLSConfig
		expectError bool
		errorMsg    string
	}{
		{
			name: "disabled mode",
			tls:  TLSConfig{Mode: "disabled"},
		},
		{
			name: "server mode with files",
			tls: TLSConfig{
				Mode:     "server",
				CertFile: "/path/to/cert.pem",
				KeyFile:  "/path/to/key.pem",
			},
		},
		{
			name: "server mode with content",
			tls: TLSConfig{
				Mode:        "server",
				CertContent: "cert-content",
				KeyContent:  "key-content",
			},
		},
		{
			name: "server mode missing key",
			tls: TLSConfig{
				Mode:     "server",
				CertFile: "/path/to/cert.pem",
			},
			expectError: true,
			errorMsg:    "TLS certificate and key are required for server mode",
		},
		{
			name: "server mode duplicate cert sources",
			tls: TLSConfig{
				Mode:        "server",
				CertFile:    "/path/to/cert.pem",
				CertContent: "cert-content",
				KeyFile:     "/path/to/key.pem",
			},
			expectError: true,
			errorMsg:    "cannot specify both certFile and certContent",
		},
		{
			name: "mutual mode valid",
			tls: TLSConfig{
				Mode:     "mutual",
				CertFile: "/path/to/cert.pem",
				KeyFile:  "/path/to/key.pem",
				CAFile:   "/path/to/ca.pem",
			},
		},
		{
			name: "mutual mode missing CA",
			tls: TLSConfig{
				Mode:     "mutual",
				CertFile: "/path/to/cert.pem",
				KeyFile:  "/path/to/key.pem",
			},
			expectError: true,
			errorMsg:    "CA certificate is required for mutual TLS mode",
		},
		{
			name: "mutual mode bad client auth policy",
			tls: TLSConfig{
				Mode:             "mutual",
				CertFile:         "/path/to/cert.pem",
				KeyFile:          "/path/to/key.pem",
				CAFile:           "/path/to/ca.pem",
				ClientAuthPolicy: "sometimes",
			},
			expectError: true,
			errorMsg:    "invalid clientAuthPolicy",
		},
		{
			name:        "invalid mode",
			tls:         TLSConfig{Mode: "sideways"},
			expectError: true,
			errorMsg:    "invalid TLS mode: sideways",
		},
		{
			name: "invalid min version",
			tls: TLSConfig{
				Mode:       "server",
				CertFile:   "/path/to/cert.pem",
				KeyFile:    "/path/to/key.pem",
				MinVersion: "1.0",
			},
			expectError: true,
			errorMsg:    "invalid TLS minVersion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.TLS = tt.tls

			err := cfg.ValidateTLSConfig()

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyFallbacks(t *testing.T) {
	t.Run("api keys from environment", func(t *testing.T) {
		t.Setenv("SCANSTAGE_SERVER_APIKEYS", "key-one, key-two ,key-three")

		cfg := validConfig()
		cfg.applyFallbacks()

		assert.Equal(t, []string{"key-one", "key-two", "key-three"}, cfg.Server.APIKeys)
	})

	t.Run("mutual TLS defaults client auth policy", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.TLS.Mode = "mutual"
		cfg.applyFallbacks()

		assert.Equal(t, "require", cfg.Server.TLS.ClientAuthPolicy)
		assert.Equal(t, "1.2", cfg.Server.TLS.MinVersion)
	})

	t.Run("service instance generated from hostname", func(t *testing.T) {
		cfg := validConfig()
		cfg.Observability.ServiceName = "scanstage"
		cfg.applyFallbacks()

		assert.NotEmpty(t, cfg.Observability.ServiceInstance)
		assert.Contains(t, cfg.Observability.ServiceInstance, "scanstage-")
	})
}
