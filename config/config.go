package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config carries every runtime setting of the interpretation stack. Values
// resolve in three layers: built-in defaults, an optional YAML file, then
// environment variables, with the environment winning.
type Config struct {
	HTTPAddr       string `yaml:"http_addr"`
	FrontendURL    string `yaml:"frontend_url"`
	MediaBridgeURL string `yaml:"media_bridge_url"`

	Stream struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
	} `yaml:"stream"`

	Google struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"google"`

	Deepgram struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"deepgram"`

	Roboflow struct {
		APIKey  string `yaml:"api_key"`
		ModelID string `yaml:"model_id"`
	} `yaml:"roboflow"`

	Gesture struct {
		ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	} `yaml:"gesture"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.HTTPAddr = ":8000"
	cfg.FrontendURL = "http://localhost:5173"
	cfg.Google.Model = "gemini-2.0-flash-lite"
	cfg.Roboflow.ModelID = "asl-hand-gesture-recognition/1"
	cfg.Gesture.ConfidenceThreshold = 0.65
	return cfg
}

// Load resolves the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("error opening config file: %w", err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	overlayString(&c.HTTPAddr, "HTTP_ADDR")
	overlayString(&c.FrontendURL, "FRONTEND_URL")
	overlayString(&c.MediaBridgeURL, "MEDIA_BRIDGE_URL")
	overlayString(&c.Stream.APIKey, "STREAM_API_KEY")
	overlayString(&c.Stream.APISecret, "STREAM_API_SECRET")
	overlayString(&c.Google.APIKey, "GOOGLE_API_KEY")
	overlayString(&c.Google.Model, "GOOGLE_MODEL")
	overlayString(&c.Deepgram.APIKey, "DEEPGRAM_API_KEY")
	overlayString(&c.Roboflow.APIKey, "ROBOFLOW_API_KEY")
	overlayString(&c.Roboflow.ModelID, "ROBOFLOW_MODEL_ID")

	if raw := os.Getenv("GESTURE_CONFIDENCE_THRESHOLD"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("error parsing GESTURE_CONFIDENCE_THRESHOLD: %w", err)
		}
		c.Gesture.ConfidenceThreshold = threshold
	}

	return nil
}

func overlayString(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

// Validate returns the names of required settings that are still empty,
// using their environment variable spelling.
func (c *Config) Validate() []string {
	missing := []string{}
	for _, required := range []struct {
		key   string
		value string
	}{
		{"STREAM_API_KEY", c.Stream.APIKey},
		{"STREAM_API_SECRET", c.Stream.APISecret},
		{"GOOGLE_API_KEY", c.Google.APIKey},
		{"ROBOFLOW_API_KEY", c.Roboflow.APIKey},
	} {
		if required.value == "" {
			missing = append(missing, required.key)
		}
	}
	return missing
}
