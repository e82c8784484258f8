package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Voice   VoiceConfig   `mapstructure:"voice"`
	Log     LogConfig     `mapstructure:"log"`
}

// BackendConfig points at the console backend serving the chat and office APIs.
type BackendConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// VoiceConfig holds the optional speech capture and output configuration.
// Empty provider / disabled output means the capability is absent.
type VoiceConfig struct {
	Capture CaptureConfig `mapstructure:"capture"`
	Output  OutputConfig  `mapstructure:"output"`
}

// CaptureConfig selects and tunes the speech-to-text provider.
type CaptureConfig struct {
	Provider   string `mapstructure:"provider"` // whisper, deepgram or empty
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"` // empty picks the provider default
	Language   string `mapstructure:"language"`
	SampleRate int    `mapstructure:"sample_rate"`
	Input      string `mapstructure:"input"` // utterance clip source for the terminal client
}

// OutputConfig tunes the text-to-speech provider.
type OutputConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	APIKey           string   `mapstructure:"api_key"`
	BaseURL          string   `mapstructure:"base_url"`
	Model            string   `mapstructure:"model"`
	VoicePreferences []string `mapstructure:"voice_preferences"`
	Speed            float64  `mapstructure:"speed"`
	Format           string   `mapstructure:"format"`
	Player           string   `mapstructure:"player"` // command audio is piped into
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads config.yaml (or the file named by CONFIG_PATH) and applies
// DESKCHAT_* environment overrides. A missing config file is not an error
// when no explicit path was given; defaults plus environment suffice.
func Load() (*Config, error) {
	v := viper.New()

	explicit := os.Getenv("CONFIG_PATH")
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DESKCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout_seconds", 30)

	v.SetDefault("voice.capture.provider", "")
	v.SetDefault("voice.capture.api_key", "")
	v.SetDefault("voice.capture.base_url", "")
	v.SetDefault("voice.capture.model", "")
	v.SetDefault("voice.capture.language", "en")
	v.SetDefault("voice.capture.sample_rate", 16000)
	v.SetDefault("voice.capture.input", "")

	v.SetDefault("voice.output.enabled", false)
	v.SetDefault("voice.output.api_key", "")
	v.SetDefault("voice.output.base_url", "")
	v.SetDefault("voice.output.model", "tts-1")
	v.SetDefault("voice.output.voice_preferences", []string{"nova", "shimmer", "alloy"})
	v.SetDefault("voice.output.speed", 0.95)
	v.SetDefault("voice.output.format", "wav")
	v.SetDefault("voice.output.player", "")

	v.SetDefault("log.level", "info")
}
