package config

import "testing"

type testConfig struct {
	Addr    string `env:"TEST_VEIL_ADDR" envDefault:"localhost:9000"`
	Verbose bool   `env:"TEST_VEIL_VERBOSE" envDefault:"false"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("ParseEnv() error = %v", err)
	}
	if cfg.Addr != "localhost:9000" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, "localhost:9000")
	}
	if cfg.Verbose {
		t.Error("Verbose = true, want false")
	}
}

func TestParseEnvOverride(t *testing.T) {
	t.Setenv("TEST_VEIL_ADDR", "0.0.0.0:7777")
	t.Setenv("TEST_VEIL_VERBOSE", "true")

	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("ParseEnv() error = %v", err)
	}
	if cfg.Addr != "0.0.0.0:7777" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, "0.0.0.0:7777")
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true")
	}
}
