package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Environment:         "development",
		SessionLifetime:     24 * time.Hour,
		ThrottleWindow:      15 * time.Minute,
		ThrottleMaxAttempts: 5,
		AnomalyWindow:       5 * time.Minute,
		AnomalyThreshold:    50,
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"dev", "dev", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			if got := cfg.IsProduction(); got != tt.expected {
				t.Errorf("IsProduction() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{"development", "development", true},
		{"dev", "dev", true},
		{"empty", "", true},
		{"production", "production", false},
		{"prod", "prod", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			if got := cfg.IsDevelopment(); got != tt.expected {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		wantError     bool
		errorContains string
	}{
		{
			name:      "valid_defaults",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:          "zero_throttle_attempts",
			mutate:        func(c *Config) { c.ThrottleMaxAttempts = 0 },
			wantError:     true,
			errorContains: "THROTTLE_MAX_ATTEMPTS",
		},
		{
			name:          "negative_throttle_window",
			mutate:        func(c *Config) { c.ThrottleWindow = -time.Minute },
			wantError:     true,
			errorContains: "THROTTLE_WINDOW",
		},
		{
			name:          "zero_anomaly_threshold",
			mutate:        func(c *Config) { c.AnomalyThreshold = 0 },
			wantError:     true,
			errorContains: "ANOMALY_THRESHOLD",
		},
		{
			name:          "zero_session_lifetime",
			mutate:        func(c *Config) { c.SessionLifetime = 0 },
			wantError:     true,
			errorContains: "SESSION_LIFETIME",
		},
		{
			name: "production_requires_secure_cookies",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.SecureCookies = false
			},
			wantError:     true,
			errorContains: "SECURE_COOKIES",
		},
		{
			name: "production_with_secure_cookies",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.SecureCookies = true
			},
			wantError: false,
		},
		{
			name: "development_allows_insecure_cookies",
			mutate: func(c *Config) {
				c.Environment = "development"
				c.SecureCookies = false
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantError {
				if err == nil {
					t.Error("Expected error, got nil")
				} else if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error containing %q, got %q", tt.errorContains, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Run("env_set", func(t *testing.T) {
		t.Setenv("TEST_KEY", "custom")
		if got := getEnv("TEST_KEY", "default"); got != "custom" {
			t.Errorf("getEnv() = %v, want custom", got)
		}
	})

	t.Run("env_not_set", func(t *testing.T) {
		if got := getEnv("TEST_KEY_NOT_SET", "default"); got != "default" {
			t.Errorf("getEnv() = %v, want default", got)
		}
	})
}

func TestGetInt(t *testing.T) {
	t.Run("parses_value", func(t *testing.T) {
		t.Setenv("TEST_INT", "42")
		if got := getInt("TEST_INT", 7); got != 42 {
			t.Errorf("getInt() = %d, want 42", got)
		}
	})

	t.Run("invalid_falls_back", func(t *testing.T) {
		t.Setenv("TEST_INT", "not-a-number")
		if got := getInt("TEST_INT", 7); got != 7 {
			t.Errorf("getInt() = %d, want 7", got)
		}
	})
}

func TestGetBool(t *testing.T) {
	t.Run("parses_value", func(t *testing.T) {
		t.Setenv("TEST_BOOL", "true")
		if got := getBool("TEST_BOOL", false); !got {
			t.Error("getBool() = false, want true")
		}
	})

	t.Run("invalid_falls_back", func(t *testing.T) {
		t.Setenv("TEST_BOOL", "maybe")
		if got := getBool("TEST_BOOL", true); !got {
			t.Error("getBool() = false, want true (default)")
		}
	})
}

func TestGetDuration(t *testing.T) {
	t.Run("parses_value", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "30m")
		if got := getDuration("TEST_DURATION", time.Hour); got != 30*time.Minute {
			t.Errorf("getDuration() = %s, want 30m", got)
		}
	})

	t.Run("invalid_falls_back", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "soon")
		if got := getDuration("TEST_DURATION", time.Hour); got != time.Hour {
			t.Errorf("getDuration() = %s, want 1h", got)
		}
	})
}
