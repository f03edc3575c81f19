package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	awspolly "github.com/aws/aws-sdk-go-v2/service/polly"
	awstranslate "github.com/aws/aws-sdk-go-v2/service/translate"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"

	"github.com/dgnsrekt/parley/internal/cache"
	"github.com/dgnsrekt/parley/internal/config"
	"github.com/dgnsrekt/parley/internal/lang"
	"github.com/dgnsrekt/parley/internal/pipeline"
	"github.com/dgnsrekt/parley/internal/translate"
	"github.com/dgnsrekt/parley/llm"
	"github.com/dgnsrekt/parley/llm/bedrock"
	"github.com/dgnsrekt/parley/tts"
	"github.com/dgnsrekt/parley/tts/engines"
	"github.com/dgnsrekt/parley/tts/engines/polly"
)

const megabyte = 1024 * 1024

// app holds the services of one CLI invocation.
type app struct {
	pipeline *pipeline.Pipeline
	catalog  tts.VoiceCatalog
	cache    *cache.Manager
	logger   *log.Logger
}

// loadAWSConfig resolves credentials and region the way the AWS CLI does,
// with the region and profile from the parley config taking precedence.
func loadAWSConfig(ctx context.Context, c config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(c.Region),
	}
	if c.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(c.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS configuration: %w", err)
	}
	return awsCfg, nil
}

func newApp(ctx context.Context, c config.Config, logger *log.Logger) (*app, error) {
	awsCfg, err := loadAWSConfig(ctx, c)
	if err != nil {
		return nil, err
	}

	brClient := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if c.Bedrock.Timeout > 0 {
			o.HTTPClient = awshttp.NewBuildableClient().WithTimeout(c.Bedrock.Timeout)
		}
	})
	generator, err := bedrock.New(brClient, bedrock.Config{
		ModelID:   c.Bedrock.ModelID,
		Streaming: c.Bedrock.Streaming,
		Params: llm.Params{
			MaxTokens:   c.Bedrock.MaxTokens,
			Temperature: c.Bedrock.Temperature,
			TopP:        c.Bedrock.TopP,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	pollyClient := awspolly.NewFromConfig(awsCfg)
	catalog := polly.NewCatalog(pollyClient)
	catalog.Engine = c.Polly.Engine

	a := &app{catalog: catalog, logger: logger}

	var synth tts.Synthesizer = polly.New(pollyClient, polly.Config{
		Engine:            c.Polly.Engine,
		RequestsPerSecond: c.Polly.RequestsPerSecond,
		Logger:            logger,
	})
	if c.Cache.Enabled {
		a.cache, err = openCache(c.Cache, logger)
		if err != nil {
			return nil, err
		}
		synth = engines.NewCached(synth, a.cache, logger)
	}

	translator := translate.New(awstranslate.NewFromConfig(awsCfg), logger)

	a.pipeline = pipeline.New(translator, generator, synth, pipeline.Config{
		OutputDir:     c.OutputDir,
		Extension:     c.Polly.OutputExtension(),
		MaxTextLength: c.Polly.MaxTextLength,
		StreamSpeech:  c.Pipeline.StreamSpeech,
		Logger:        logger,
	})
	return a, nil
}

// cacheDir returns the configured audio cache directory, or "audio" in the
// user cache dir.
func cacheDir(c config.CacheConfig) (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	dir, err := gap.NewScope(gap.User, "parley").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "audio"), nil
}

func openCache(c config.CacheConfig, logger *log.Logger) (*cache.Manager, error) {
	dir, err := cacheDir(c)
	if err != nil {
		return nil, err
	}
	m, err := cache.NewManager(cache.Config{
		MemoryCapacity:   int64(c.MemoryMB) * megabyte,
		DiskCapacity:     int64(c.DiskMB) * megabyte,
		Dir:              dir,
		CompressionLevel: c.CompressionLevel,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("unable to open audio cache: %w", err)
	}
	return m, nil
}

// voiceFor resolves query against the voices of language. A voice that
// came from the config file rather than --voice falls back to the first
// voice of the language when it does not match.
func (a *app) voiceFor(ctx context.Context, language, query string, explicit bool) (string, error) {
	return pickVoice(ctx, a.catalog, language, query, explicit, a.logger)
}

func pickVoice(ctx context.Context, catalog tts.VoiceCatalog, language, query string, explicit bool, logger *log.Logger) (string, error) {
	voices, err := catalog.Voices(ctx)
	if err != nil {
		return "", err
	}

	code := lang.Canonical(language)
	voice, err := lang.ResolveVoice(query, voices[code])
	if errors.Is(err, tts.ErrVoiceNotFound) && !explicit {
		logger.Warn("Configured voice not available, using default", "voice", query, "language", code, "using", voices[code][0])
		return voices[code][0], nil
	}
	if err != nil {
		return "", fmt.Errorf("no voice for %s: %w", code, err)
	}
	if voice != query {
		logger.Debug("Resolved voice", "query", query, "voice", voice)
	}
	return voice, nil
}

func (a *app) Close() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}
