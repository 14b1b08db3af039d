package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Save original env vars
	origPort := os.Getenv("CURALINK_SERVER__PORT")
	defer func() {
		if origPort != "" {
			os.Setenv("CURALINK_SERVER__PORT", origPort)
		} else {
			os.Unsetenv("CURALINK_SERVER__PORT")
		}
	}()

	t.Run("defaults", func(t *testing.T) {
		os.Unsetenv("CURALINK_SERVER__PORT")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 8080 {
			t.Errorf("Load() port = %v, want 8080", cfg.Server.Port)
		}
		if cfg.Server.RequestTimeoutSeconds != 120 {
			t.Errorf("Load() timeout = %v, want 120", cfg.Server.RequestTimeoutSeconds)
		}
		if cfg.Perplexity.Model != "sonar" {
			t.Errorf("Load() model = %v, want sonar", cfg.Perplexity.Model)
		}
		if cfg.Storage.Type != "none" {
			t.Errorf("Load() storage type = %v, want none", cfg.Storage.Type)
		}
	})

	t.Run("env var port override", func(t *testing.T) {
		os.Setenv("CURALINK_SERVER__PORT", "9000")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 9000 {
			t.Errorf("Load() port = %v, want 9000", cfg.Server.Port)
		}
	})

	t.Run("api key env substitution", func(t *testing.T) {
		os.Setenv("TEST_PPLX_KEY", "pplx-secret")
		os.Setenv("CURALINK_PERPLEXITY__API_KEY", "${TEST_PPLX_KEY}")
		defer func() {
			os.Unsetenv("TEST_PPLX_KEY")
			os.Unsetenv("CURALINK_PERPLEXITY__API_KEY")
		}()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Perplexity.APIKey != "pplx-secret" {
			t.Errorf("Load() api key = %q, want substituted value", cfg.Perplexity.APIKey)
		}
	})
}

func TestSubstituteEnvVars(t *testing.T) {
	os.Setenv("TEST_VAR", "test-value")
	defer os.Unsetenv("TEST_VAR")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple substitution", input: "${TEST_VAR}", want: "test-value"},
		{name: "embedded substitution", input: "prefix-${TEST_VAR}-suffix", want: "prefix-test-value-suffix"},
		{name: "no substitution", input: "plain-value", want: "plain-value"},
		{name: "missing variable", input: "${DOES_NOT_EXIST_XYZ}", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := substituteEnvVars(tt.input); got != tt.want {
				t.Errorf("substituteEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
