// Package bedrock generates text with Amazon Bedrock foundation models.
package bedrock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/parley/internal/awserr"
	"github.com/dgnsrekt/parley/llm"
)

const contentType = "application/json"

// ErrEmptyPrompt is returned when Generate is called with blank text.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Client is the subset of the Bedrock runtime API the generator uses.
// *bedrockruntime.Client satisfies it.
type Client interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
	InvokeModelWithResponseStream(ctx context.Context, params *bedrockruntime.InvokeModelWithResponseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelWithResponseStreamOutput, error)
}

// eventSource is the event stream of one streaming invocation.
type eventSource interface {
	Events() <-chan types.ResponseStream
	Close() error
	Err() error
}

// Config controls a Generator.
type Config struct {
	ModelID   string
	Streaming bool
	Params    llm.Params
	Logger    *log.Logger
}

// Generator sends prompts to one Bedrock model.
type Generator struct {
	client    Client
	modelID   string
	family    llm.Family
	streaming bool
	params    llm.Params
	logger    *log.Logger

	openStream func(ctx context.Context, in *bedrockruntime.InvokeModelWithResponseStreamInput) (eventSource, error)
}

// New returns a Generator for cfg.ModelID. It fails with
// llm.ErrUnsupportedModelFamily when no request builder exists for the
// model's provider.
func New(client Client, cfg Config) (*Generator, error) {
	family, err := llm.ForModel(cfg.ModelID)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	g := &Generator{
		client:    client,
		modelID:   cfg.ModelID,
		family:    family,
		streaming: cfg.Streaming,
		params:    cfg.Params,
		logger:    logger.With("model", cfg.ModelID),
	}
	g.openStream = g.invokeStream
	return g, nil
}

// ModelID returns the model the generator invokes.
func (g *Generator) ModelID() string {
	return g.modelID
}

// Generate starts a generation for prompt. In streaming mode fragments
// arrive as the model produces them; otherwise the stream yields the whole
// reply as one fragment.
func (g *Generator) Generate(ctx context.Context, prompt string) (llm.Stream, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	params := g.params
	params.Stream = g.streaming

	body, err := g.family.BuildRequest(prompt, params)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("Invoking model", "streaming", g.streaming, "bytes", len(body))

	if !g.streaming {
		return g.invoke(ctx, body)
	}

	events, err := g.openStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(g.modelID),
		Body:        body,
		ContentType: aws.String(contentType),
		Accept:      aws.String(contentType),
	})
	if err != nil {
		g.logger.Error("Stream invocation failed", "code", awserr.Code(err), "error", err)
		return nil, awserr.Wrap("bedrock InvokeModelWithResponseStream", err)
	}

	return &stream{events: events, family: g.family, logger: g.logger}, nil
}

func (g *Generator) invokeStream(ctx context.Context, in *bedrockruntime.InvokeModelWithResponseStreamInput) (eventSource, error) {
	out, err := g.client.InvokeModelWithResponseStream(ctx, in)
	if err != nil {
		return nil, err
	}
	return out.GetStream(), nil
}

func (g *Generator) invoke(ctx context.Context, body []byte) (llm.Stream, error) {
	out, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		Body:        body,
		ContentType: aws.String(contentType),
		Accept:      aws.String(contentType),
	})
	if err != nil {
		g.logger.Error("Invocation failed", "code", awserr.Code(err), "error", err)
		return nil, awserr.Wrap("bedrock InvokeModel", err)
	}

	text, err := g.family.ExtractResponse(out.Body)
	if err != nil {
		return nil, err
	}
	return &single{text: text}, nil
}

// stream adapts a Bedrock event stream to llm.Stream.
type stream struct {
	events eventSource
	family llm.Family
	logger *log.Logger
	chunks int
}

func (s *stream) Next(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case event, ok := <-s.events.Events():
			if !ok {
				if err := s.events.Err(); err != nil {
					return "", awserr.Wrap("bedrock response stream", err)
				}
				s.logger.Debug("Response stream finished", "chunks", s.chunks)
				return "", io.EOF
			}

			chunk, ok := event.(*types.ResponseStreamMemberChunk)
			if !ok {
				continue
			}
			s.chunks++

			text, err := s.family.ExtractText(chunk.Value.Bytes)
			if err != nil {
				return "", fmt.Errorf("chunk %d: %w", s.chunks, err)
			}
			if text == "" {
				continue
			}
			return text, nil
		}
	}
}

func (s *stream) Close() error {
	return s.events.Close()
}

// single is a stream with exactly one fragment.
type single struct {
	text string
	done bool
}

func (s *single) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.done || s.text == "" {
		s.done = true
		return "", io.EOF
	}
	s.done = true
	return s.text, nil
}

func (s *single) Close() error {
	return nil
}
