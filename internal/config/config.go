// Package config holds parley's typed configuration and its Viper bindings.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains all parley configuration options.
type Config struct {
	// AWS settings
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`

	// Output settings
	LogLevel  string `yaml:"log_level"`
	OutputDir string `yaml:"output_dir"`

	Bedrock   BedrockConfig   `yaml:"bedrock"`
	Polly     PollyConfig     `yaml:"polly"`
	Translate TranslateConfig `yaml:"translate"`
	Cache     CacheConfig     `yaml:"cache"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// BedrockConfig contains text generation settings.
type BedrockConfig struct {
	ModelID     string        `yaml:"model_id"`
	Streaming   bool          `yaml:"streaming"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	TopP        float64       `yaml:"top_p"`
	Timeout     time.Duration `yaml:"timeout"`
}

// PollyConfig contains speech synthesis settings.
type PollyConfig struct {
	Engine            string  `yaml:"engine"`
	LanguageCode      string  `yaml:"language_code"`
	VoiceID           string  `yaml:"voice_id"`
	OutputFormat      string  `yaml:"output_format"`
	MaxTextLength     int     `yaml:"max_text_length"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// TranslateConfig contains translation settings.
type TranslateConfig struct {
	SourceLanguage string `yaml:"source_language"`
	TargetLanguage string `yaml:"target_language"`
}

// CacheConfig contains audio cache settings.
type CacheConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Dir              string `yaml:"dir"`
	MemoryMB         int    `yaml:"memory_mb"`
	DiskMB           int    `yaml:"disk_mb"`
	CompressionLevel int    `yaml:"compression_level"`
}

// PipelineConfig contains end-to-end request settings.
type PipelineConfig struct {
	// StreamSpeech synthesizes response sentences as they arrive when no
	// translation of the response is needed.
	StreamSpeech bool `yaml:"stream_speech"`
}

// DefaultConfig returns a Config with the settings of the original demo.
func DefaultConfig() Config {
	return Config{
		Region:    "us-east-1",
		LogLevel:  "info",
		OutputDir: ".",
		Bedrock: BedrockConfig{
			ModelID:     "amazon.titan-text-lite-v1",
			Streaming:   true,
			MaxTokens:   4096,
			Temperature: 0,
			TopP:        1,
			Timeout:     2 * time.Minute,
		},
		Polly: PollyConfig{
			Engine:        "neural",
			LanguageCode:  "en-US",
			VoiceID:       "Joanna",
			OutputFormat:  "mp3",
			MaxTextLength: 3000,
		},
		Translate: TranslateConfig{
			SourceLanguage: "auto",
			TargetLanguage: "en-US",
		},
		Cache: CacheConfig{
			Enabled:          true,
			MemoryMB:         32,
			DiskMB:           256,
			CompressionLevel: 3,
		},
		Pipeline: PipelineConfig{
			StreamSpeech: true,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("region cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error", "none"}
	levelValid := false
	for _, l := range validLevels {
		if strings.EqualFold(c.LogLevel, l) {
			levelValid = true
			c.LogLevel = strings.ToLower(c.LogLevel)
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels)
	}

	if err := c.Bedrock.Validate(); err != nil {
		return fmt.Errorf("bedrock config: %w", err)
	}
	if err := c.Polly.Validate(); err != nil {
		return fmt.Errorf("polly config: %w", err)
	}
	if err := c.Translate.Validate(); err != nil {
		return fmt.Errorf("translate config: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	return nil
}

// Validate checks if the Bedrock configuration is valid.
func (c *BedrockConfig) Validate() error {
	if c.ModelID == "" {
		return fmt.Errorf("model_id cannot be empty")
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0.0 and 1.0, got %f", c.Temperature)
	}
	if c.TopP < 0 || c.TopP > 1 {
		return fmt.Errorf("top_p must be between 0.0 and 1.0, got %f", c.TopP)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %v", c.Timeout)
	}
	return nil
}

// Validate checks if the Polly configuration is valid.
func (c *PollyConfig) Validate() error {
	validEngines := []string{"standard", "neural", "long-form", "generative"}
	engineValid := false
	for _, e := range validEngines {
		if strings.EqualFold(c.Engine, e) {
			engineValid = true
			c.Engine = strings.ToLower(c.Engine)
			break
		}
	}
	if !engineValid {
		return fmt.Errorf("invalid engine '%s': must be one of %v", c.Engine, validEngines)
	}

	validFormats := []string{"mp3", "ogg_vorbis", "pcm"}
	formatValid := false
	for _, f := range validFormats {
		if strings.EqualFold(c.OutputFormat, f) {
			formatValid = true
			c.OutputFormat = strings.ToLower(c.OutputFormat)
			break
		}
	}
	if !formatValid {
		return fmt.Errorf("invalid output format '%s': must be one of %v", c.OutputFormat, validFormats)
	}

	if c.MaxTextLength < 1 || c.MaxTextLength > 3000 {
		return fmt.Errorf("max_text_length must be between 1 and 3000, got %d", c.MaxTextLength)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second cannot be negative, got %f", c.RequestsPerSecond)
	}
	return nil
}

// Validate checks if the Translate configuration is valid.
func (c *TranslateConfig) Validate() error {
	if c.SourceLanguage == "" {
		return fmt.Errorf("source_language cannot be empty")
	}
	if c.TargetLanguage == "" || strings.EqualFold(c.TargetLanguage, "auto") {
		return fmt.Errorf("target_language must be a concrete language, got %q", c.TargetLanguage)
	}
	return nil
}

// Validate checks if the cache configuration is valid.
func (c *CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MemoryMB < 1 || c.MemoryMB > 4096 {
		return fmt.Errorf("memory_mb must be between 1 and 4096, got %d", c.MemoryMB)
	}
	if c.DiskMB < 0 || c.DiskMB > 10000 {
		return fmt.Errorf("disk_mb must be between 0 and 10000, got %d", c.DiskMB)
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 22 {
		return fmt.Errorf("compression_level must be between 0 and 22, got %d", c.CompressionLevel)
	}
	return nil
}

// OutputExtension returns the file extension for the configured audio format.
func (c *PollyConfig) OutputExtension() string {
	switch c.OutputFormat {
	case "ogg_vorbis":
		return "ogg"
	case "pcm":
		return "pcm"
	default:
		return "mp3"
	}
}
