package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.HTTPAddr != ":8000" {
		t.Fatalf("expected default http addr %q, got %q", ":8000", cfg.HTTPAddr)
	}
	if cfg.FrontendURL != "http://localhost:5173" {
		t.Fatalf("expected default frontend url, got %q", cfg.FrontendURL)
	}
	if cfg.Google.Model != "gemini-2.0-flash-lite" {
		t.Fatalf("expected default model, got %q", cfg.Google.Model)
	}
	if cfg.Roboflow.ModelID != "asl-hand-gesture-recognition/1" {
		t.Fatalf("expected default roboflow model, got %q", cfg.Roboflow.ModelID)
	}
	if cfg.Gesture.ConfidenceThreshold != 0.65 {
		t.Fatalf("expected default confidence threshold 0.65, got %v", cfg.Gesture.ConfidenceThreshold)
	}
}

func TestLoadLayersFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := strings.Join([]string{
		"http_addr: \":9000\"",
		"roboflow:",
		"  api_key: file-roboflow-key",
		"gesture:",
		"  confidence_threshold: 0.5",
	}, "\n")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("STREAM_API_KEY", "env-stream-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}

	if cfg.HTTPAddr != ":7000" {
		t.Fatalf("expected environment to win over file, got %q", cfg.HTTPAddr)
	}
	if cfg.Roboflow.APIKey != "file-roboflow-key" {
		t.Fatalf("expected file to win over default, got %q", cfg.Roboflow.APIKey)
	}
	if cfg.Stream.APIKey != "env-stream-key" {
		t.Fatalf("expected environment value, got %q", cfg.Stream.APIKey)
	}
	if cfg.Gesture.ConfidenceThreshold != 0.5 {
		t.Fatalf("expected file threshold 0.5, got %v", cfg.Gesture.ConfidenceThreshold)
	}
	if cfg.FrontendURL != "http://localhost:5173" {
		t.Fatalf("expected untouched default to survive, got %q", cfg.FrontendURL)
	}
}

func TestLoadWithoutFileUsesEnvironment(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "env-google-key")
	t.Setenv("GESTURE_CONFIDENCE_THRESHOLD", "0.8")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}

	if cfg.Google.APIKey != "env-google-key" {
		t.Fatalf("expected environment value, got %q", cfg.Google.APIKey)
	}
	if cfg.Gesture.ConfidenceThreshold != 0.8 {
		t.Fatalf("expected threshold 0.8, got %v", cfg.Gesture.ConfidenceThreshold)
	}
}

func TestLoadRejectsMalformedThreshold(t *testing.T) {
	t.Setenv("GESTURE_CONFIDENCE_THRESHOLD", "very confident")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected load to fail on malformed threshold")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected load to fail on a missing file")
	}
}

func TestValidateListsMissingKeys(t *testing.T) {
	cfg := Default()

	missing := cfg.Validate()
	expected := []string{"STREAM_API_KEY", "STREAM_API_SECRET", "GOOGLE_API_KEY", "ROBOFLOW_API_KEY"}
	if len(missing) != len(expected) {
		t.Fatalf("expected %d missing keys, got %v", len(expected), missing)
	}
	for i, key := range expected {
		if missing[i] != key {
			t.Fatalf("expected missing key %q at %d, got %v", key, i, missing)
		}
	}

	cfg.Stream.APIKey = "k"
	cfg.Stream.APISecret = "s"
	cfg.Google.APIKey = "g"
	cfg.Roboflow.APIKey = "r"
	if missing := cfg.Validate(); len(missing) != 0 {
		t.Fatalf("expected no missing keys, got %v", missing)
	}
}
