package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Environment holds settings read from the process environment rather than
// the config file.
type Environment struct {
	LogFile    string `env:"PARLEY_LOG_FILE"`
	Debug      bool   `env:"PARLEY_DEBUG" envDefault:"false"`
	AWSRegion  string `env:"AWS_REGION"`
	AWSProfile string `env:"AWS_PROFILE"`
}

// LoadEnvironment parses the process environment.
func LoadEnvironment() (Environment, error) {
	e, err := env.ParseAs[Environment]()
	if err != nil {
		return Environment{}, fmt.Errorf("error parsing environment: %w", err)
	}
	return e, nil
}

// LoadConfigFromViper loads configuration from Viper, falling back to the
// environment for AWS settings the config file leaves empty.
func LoadConfigFromViper(v *viper.Viper, e Environment) (Config, error) {
	cfg := DefaultConfig()

	if v.IsSet("region") {
		cfg.Region = v.GetString("region")
	} else if e.AWSRegion != "" {
		cfg.Region = e.AWSRegion
	}
	if v.IsSet("profile") {
		cfg.Profile = v.GetString("profile")
	}
	if cfg.Profile == "" {
		cfg.Profile = e.AWSProfile
	}
	if v.IsSet("log_level") {
		cfg.LogLevel = v.GetString("log_level")
	}
	if e.Debug {
		cfg.LogLevel = "debug"
	}
	if v.IsSet("output_dir") {
		cfg.OutputDir = v.GetString("output_dir")
	}

	cfg.Bedrock = loadBedrockConfig(v)
	cfg.Polly = loadPollyConfig(v)
	cfg.Translate = loadTranslateConfig(v)
	cfg.Cache = loadCacheConfig(v)

	if v.IsSet("pipeline.stream_speech") {
		cfg.Pipeline.StreamSpeech = v.GetBool("pipeline.stream_speech")
	}

	cfg.OutputDir = ExpandPath(cfg.OutputDir)
	cfg.Cache.Dir = ExpandPath(cfg.Cache.Dir)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadBedrockConfig loads generation settings from Viper.
func loadBedrockConfig(v *viper.Viper) BedrockConfig {
	cfg := DefaultConfig().Bedrock

	if v.IsSet("bedrock.model_id") {
		cfg.ModelID = v.GetString("bedrock.model_id")
	}
	if v.IsSet("bedrock.streaming") {
		cfg.Streaming = v.GetBool("bedrock.streaming")
	}
	if v.IsSet("bedrock.max_tokens") {
		cfg.MaxTokens = v.GetInt("bedrock.max_tokens")
	}
	if v.IsSet("bedrock.temperature") {
		cfg.Temperature = v.GetFloat64("bedrock.temperature")
	}
	if v.IsSet("bedrock.top_p") {
		cfg.TopP = v.GetFloat64("bedrock.top_p")
	}
	if v.IsSet("bedrock.timeout") {
		if d, err := time.ParseDuration(v.GetString("bedrock.timeout")); err == nil {
			cfg.Timeout = d
		}
	}

	return cfg
}

// loadPollyConfig loads synthesis settings from Viper.
func loadPollyConfig(v *viper.Viper) PollyConfig {
	cfg := DefaultConfig().Polly

	if v.IsSet("polly.engine") {
		cfg.Engine = v.GetString("polly.engine")
	}
	if v.IsSet("polly.language_code") {
		cfg.LanguageCode = v.GetString("polly.language_code")
	}
	if v.IsSet("polly.voice_id") {
		cfg.VoiceID = v.GetString("polly.voice_id")
	}
	if v.IsSet("polly.output_format") {
		cfg.OutputFormat = v.GetString("polly.output_format")
	}
	if v.IsSet("polly.max_text_length") {
		cfg.MaxTextLength = v.GetInt("polly.max_text_length")
	}
	if v.IsSet("polly.requests_per_second") {
		cfg.RequestsPerSecond = v.GetFloat64("polly.requests_per_second")
	}

	return cfg
}

// loadTranslateConfig loads translation settings from Viper.
func loadTranslateConfig(v *viper.Viper) TranslateConfig {
	cfg := DefaultConfig().Translate

	if v.IsSet("translate.source_language") {
		cfg.SourceLanguage = v.GetString("translate.source_language")
	}
	if v.IsSet("translate.target_language") {
		cfg.TargetLanguage = v.GetString("translate.target_language")
	}

	return cfg
}

// loadCacheConfig loads audio cache settings from Viper.
func loadCacheConfig(v *viper.Viper) CacheConfig {
	cfg := DefaultConfig().Cache

	if v.IsSet("cache.enabled") {
		cfg.Enabled = v.GetBool("cache.enabled")
	}
	if v.IsSet("cache.dir") {
		cfg.Dir = v.GetString("cache.dir")
	}
	if v.IsSet("cache.memory_mb") {
		cfg.MemoryMB = v.GetInt("cache.memory_mb")
	}
	if v.IsSet("cache.disk_mb") {
		cfg.DiskMB = v.GetInt("cache.disk_mb")
	}
	if v.IsSet("cache.compression_level") {
		cfg.CompressionLevel = v.GetInt("cache.compression_level")
	}

	return cfg
}

// SetDefaults sets default values in Viper.
func SetDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("output_dir", defaults.OutputDir)

	v.SetDefault("bedrock.model_id", defaults.Bedrock.ModelID)
	v.SetDefault("bedrock.streaming", defaults.Bedrock.Streaming)
	v.SetDefault("bedrock.max_tokens", defaults.Bedrock.MaxTokens)
	v.SetDefault("bedrock.temperature", defaults.Bedrock.Temperature)
	v.SetDefault("bedrock.top_p", defaults.Bedrock.TopP)
	v.SetDefault("bedrock.timeout", defaults.Bedrock.Timeout.String())

	v.SetDefault("polly.engine", defaults.Polly.Engine)
	v.SetDefault("polly.language_code", defaults.Polly.LanguageCode)
	v.SetDefault("polly.voice_id", defaults.Polly.VoiceID)
	v.SetDefault("polly.output_format", defaults.Polly.OutputFormat)
	v.SetDefault("polly.max_text_length", defaults.Polly.MaxTextLength)
	v.SetDefault("polly.requests_per_second", defaults.Polly.RequestsPerSecond)

	v.SetDefault("translate.source_language", defaults.Translate.SourceLanguage)
	v.SetDefault("translate.target_language", defaults.Translate.TargetLanguage)

	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.dir", defaults.Cache.Dir)
	v.SetDefault("cache.memory_mb", defaults.Cache.MemoryMB)
	v.SetDefault("cache.disk_mb", defaults.Cache.DiskMB)
	v.SetDefault("cache.compression_level", defaults.Cache.CompressionLevel)

	v.SetDefault("pipeline.stream_speech", defaults.Pipeline.StreamSpeech)
}

// ExpandPath expands a leading ~ and environment variables in path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	expanded, err := homedir.Expand(os.ExpandEnv(path))
	if err != nil {
		return path
	}
	return expanded
}
