package bedrock

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"github.com/tidwall/gjson"

	"github.com/dgnsrekt/parley/llm"
)

// fakeClient records requests and answers InvokeModel with a fixed body.
type fakeClient struct {
	body      []byte
	err       error
	lastInput *bedrockruntime.InvokeModelInput
}

func (f *fakeClient) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.lastInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

func (f *fakeClient) InvokeModelWithResponseStream(_ context.Context, _ *bedrockruntime.InvokeModelWithResponseStreamInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelWithResponseStreamOutput, error) {
	return nil, errors.New("not used")
}

// fakeEvents replays a fixed list of events and then an optional error.
type fakeEvents struct {
	ch     chan types.ResponseStream
	err    error
	closed bool
}

func newFakeEvents(err error, events ...types.ResponseStream) *fakeEvents {
	ch := make(chan types.ResponseStream, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return &fakeEvents{ch: ch, err: err}
}

func (f *fakeEvents) Events() <-chan types.ResponseStream { return f.ch }
func (f *fakeEvents) Err() error                         { return f.err }
func (f *fakeEvents) Close() error {
	f.closed = true
	return nil
}

func chunk(json string) types.ResponseStream {
	return &types.ResponseStreamMemberChunk{Value: types.PayloadPart{Bytes: []byte(json)}}
}

func newStreamingGenerator(t *testing.T, events *fakeEvents, openErr error) (*Generator, *bedrockruntime.InvokeModelWithResponseStreamInput) {
	t.Helper()
	g, err := New(&fakeClient{}, Config{ModelID: "amazon.titan-text-lite-v1", Streaming: true, Params: llm.Params{MaxTokens: 100}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var captured bedrockruntime.InvokeModelWithResponseStreamInput
	g.openStream = func(_ context.Context, in *bedrockruntime.InvokeModelWithResponseStreamInput) (eventSource, error) {
		captured = *in
		if openErr != nil {
			return nil, openErr
		}
		return events, nil
	}
	return g, &captured
}

func drain(t *testing.T, s llm.Stream) ([]string, error) {
	t.Helper()
	var fragments []string
	for {
		f, err := s.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return fragments, nil
		}
		if err != nil {
			return fragments, err
		}
		fragments = append(fragments, f)
	}
}

func TestNewUnsupportedFamily(t *testing.T) {
	_, err := New(&fakeClient{}, Config{ModelID: "ai21.j2-mid-v1"})
	if !errors.Is(err, llm.ErrUnsupportedModelFamily) {
		t.Fatalf("Expected ErrUnsupportedModelFamily, got %v", err)
	}
}

func TestGenerateStreaming(t *testing.T) {
	events := newFakeEvents(nil,
		chunk(`{"outputText":"Hello"}`),
		chunk(`{"outputText":""}`),
		chunk(`{"outputText":" world."}`),
		chunk(`{"index":0,"completionReason":"FINISH"}`),
	)
	g, captured := newStreamingGenerator(t, events, nil)

	s, err := g.Generate(context.Background(), "Say hello")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	fragments, err := drain(t, s)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if len(fragments) != 2 || fragments[0] != "Hello" || fragments[1] != " world." {
		t.Errorf("Unexpected fragments %q", fragments)
	}

	if *captured.ModelId != "amazon.titan-text-lite-v1" {
		t.Errorf("ModelId = %q", *captured.ModelId)
	}
	if got := gjson.GetBytes(captured.Body, "inputText").String(); got != "Say hello" {
		t.Errorf("inputText = %q", got)
	}
	if *captured.ContentType != "application/json" {
		t.Errorf("ContentType = %q", *captured.ContentType)
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if !events.closed {
		t.Error("Close should close the event stream")
	}
}

func TestGenerateStreamError(t *testing.T) {
	boom := errors.New("connection reset")
	events := newFakeEvents(boom, chunk(`{"outputText":"Partial"}`))
	g, _ := newStreamingGenerator(t, events, nil)

	s, err := g.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	fragments, err := drain(t, s)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected stream error, got %v", err)
	}
	if len(fragments) != 1 || fragments[0] != "Partial" {
		t.Errorf("Fragments before the error should be delivered, got %q", fragments)
	}
}

func TestGenerateMalformedChunk(t *testing.T) {
	events := newFakeEvents(nil, chunk(`{"outputText":`))
	g, _ := newStreamingGenerator(t, events, nil)

	s, err := g.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := s.Next(context.Background()); !errors.Is(err, llm.ErrMalformedChunk) {
		t.Errorf("Expected ErrMalformedChunk, got %v", err)
	}
}

func TestGenerateOpenError(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "no model access", Fault: smithy.FaultClient}
	g, _ := newStreamingGenerator(t, nil, apiErr)

	_, err := g.Generate(context.Background(), "hi")
	if !errors.Is(err, apiErr) {
		t.Fatalf("Expected API error, got %v", err)
	}
	if err.Error() != "bedrock InvokeModelWithResponseStream: AccessDeniedException: no model access" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestGenerateCanceled(t *testing.T) {
	ch := make(chan types.ResponseStream)
	g, _ := newStreamingGenerator(t, &fakeEvents{ch: ch}, nil)

	s, err := g.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestGenerateNonStreaming(t *testing.T) {
	client := &fakeClient{body: []byte(`{"results":[{"outputText":"All done."}]}`)}
	g, err := New(client, Config{ModelID: "amazon.titan-text-express-v1"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	s, err := g.Generate(context.Background(), "Finish up")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	fragments, err := drain(t, s)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if len(fragments) != 1 || fragments[0] != "All done." {
		t.Errorf("Unexpected fragments %q", fragments)
	}
	if client.lastInput == nil || *client.lastInput.ModelId != "amazon.titan-text-express-v1" {
		t.Error("InvokeModel was not called with the model id")
	}
}

func TestGenerateNonStreamingError(t *testing.T) {
	boom := errors.New("throttled")
	g, err := New(&fakeClient{err: boom}, Config{ModelID: "meta.llama3-8b-instruct-v1:0"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := g.Generate(context.Background(), "hi"); !errors.Is(err, boom) {
		t.Errorf("Expected invocation error, got %v", err)
	}
}

func TestGenerateEmptyPrompt(t *testing.T) {
	g, err := New(&fakeClient{}, Config{ModelID: "amazon.titan-text-lite-v1"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := g.Generate(context.Background(), "  "); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("Expected ErrEmptyPrompt, got %v", err)
	}
}
