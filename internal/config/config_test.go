package config

import (
	"os"
	"testing"
)

const sampleConfig = `
backend:
  base_url: https://console.example.com
  timeout_seconds: 10
voice:
  capture:
    provider: whisper
    api_key: dummy
    language: en
    sample_rate: 8000
  output:
    enabled: true
    api_key: dummy
    voice_preferences: ["shimmer", "onyx"]
log:
  level: debug
`

// TestLoad_File verifies that Load unmarshals a full config file named by CONFIG_PATH.
func TestLoad_File(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := tmp.WriteString(sampleConfig); err != nil {
		t.Fatalf("write: %v", err)
	}
	tmp.Close()

	t.Setenv("CONFIG_PATH", tmp.Name())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.BaseURL != "https://console.example.com" {
		t.Fatalf("unexpected backend base_url: %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSeconds != 10 {
		t.Fatalf("unexpected timeout: %d", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Voice.Capture.Provider != "whisper" {
		t.Fatalf("unexpected capture provider: %s", cfg.Voice.Capture.Provider)
	}
	if cfg.Voice.Capture.SampleRate != 8000 {
		t.Fatalf("unexpected sample rate: %d", cfg.Voice.Capture.SampleRate)
	}
	if !cfg.Voice.Output.Enabled {
		t.Fatal("voice output should be enabled")
	}
	if len(cfg.Voice.Output.VoicePreferences) != 2 || cfg.Voice.Output.VoicePreferences[0] != "shimmer" {
		t.Fatalf("unexpected voice preferences: %v", cfg.Voice.Output.VoicePreferences)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.Log.Level)
	}
}

// TestLoad_Defaults verifies that a missing config file falls back to defaults.
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected default base_url: %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSeconds != 30 {
		t.Fatalf("unexpected default timeout: %d", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Voice.Capture.Provider != "" {
		t.Fatalf("capture should default to disabled, got %q", cfg.Voice.Capture.Provider)
	}
	if cfg.Voice.Output.Speed != 0.95 {
		t.Fatalf("unexpected default speed: %v", cfg.Voice.Output.Speed)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("unexpected default log level: %s", cfg.Log.Level)
	}
}

// TestLoad_EnvOverride verifies DESKCHAT_* environment variables win over defaults.
func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())
	t.Setenv("DESKCHAT_BACKEND_BASE_URL", "http://10.0.0.5:8000")
	t.Setenv("DESKCHAT_VOICE_CAPTURE_PROVIDER", "deepgram")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.BaseURL != "http://10.0.0.5:8000" {
		t.Fatalf("env override not applied: %s", cfg.Backend.BaseURL)
	}
	if cfg.Voice.Capture.Provider != "deepgram" {
		t.Fatalf("env override not applied: %s", cfg.Voice.Capture.Provider)
	}
}
