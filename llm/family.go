package llm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// anthropicVersion is the messages API version Bedrock expects in Claude
// request bodies.
const anthropicVersion = "bedrock-2023-05-31"

// defaultAnthropicMaxTokens is used when Params.MaxTokens is zero; Claude
// rejects requests without max_tokens.
const defaultAnthropicMaxTokens = 1024

// Family knows the request and response shapes of one model provider.
type Family struct {
	Name string

	build func(text string, p Params) ([]byte, error)

	// textPath locates the generated text in a streaming chunk.
	textPath string
	// responsePath locates the generated text in a non-streaming body.
	responsePath string
}

// BuildRequest returns the JSON body for generating a reply to text.
func (f Family) BuildRequest(text string, p Params) ([]byte, error) {
	body, err := f.build(text, p)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", f.Name, err)
	}
	return body, nil
}

// ExtractText returns the text carried by one streaming chunk. Chunks that
// carry no text, such as start and stop events, yield "".
func (f Family) ExtractText(chunk []byte) (string, error) {
	return extract(chunk, f.textPath)
}

// ExtractResponse returns the generated text of a non-streaming reply.
func (f Family) ExtractResponse(body []byte) (string, error) {
	return extract(body, f.responsePath)
}

func extract(data []byte, path string) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("%w: %.64q", ErrMalformedChunk, data)
	}
	return gjson.GetBytes(data, path).String(), nil
}

// families is the closed set of supported providers. It is only read.
var families = map[string]Family{
	"amazon": {
		Name:         "amazon",
		build:        buildTitan,
		textPath:     "outputText",
		responsePath: "results.0.outputText",
	},
	"anthropic": {
		Name:         "anthropic",
		build:        buildClaude,
		textPath:     "delta.text",
		responsePath: "content.0.text",
	},
	"meta": {
		Name:         "meta",
		build:        buildLlama,
		textPath:     "generation",
		responsePath: "generation",
	},
	"mistral": {
		Name:         "mistral",
		build:        buildMistral,
		textPath:     "outputs.0.text",
		responsePath: "outputs.0.text",
	},
	"cohere": {
		Name:         "cohere",
		build:        buildCohere,
		textPath:     "text",
		responsePath: "generations.0.text",
	},
}

// crossRegionPrefixes are inference profile prefixes that precede the
// provider in a model id.
var crossRegionPrefixes = []string{"us", "eu", "apac", "global"}

// FamilyOf returns the provider prefix of a Bedrock model id:
// "amazon.titan-text-lite-v1" is "amazon", and so is
// "us.amazon.nova-lite-v1:0".
func FamilyOf(modelID string) string {
	name, rest, found := strings.Cut(modelID, ".")
	if found && slices.Contains(crossRegionPrefixes, name) {
		name, _, _ = strings.Cut(rest, ".")
	}
	return name
}

// Lookup returns the family registered under name.
func Lookup(name string) (Family, error) {
	f, ok := families[name]
	if !ok {
		return Family{}, &UnsupportedModelFamilyError{Family: name}
	}
	return f, nil
}

// ForModel returns the family of a Bedrock model id.
func ForModel(modelID string) (Family, error) {
	name := FamilyOf(modelID)
	f, ok := families[name]
	if !ok {
		return Family{}, &UnsupportedModelFamilyError{ModelID: modelID, Family: name}
	}
	return f, nil
}

// Families lists the supported family names in sorted order.
func Families() []string {
	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// BuildRequest builds the request body for text with the named family.
func BuildRequest(family, text string, p Params) ([]byte, error) {
	f, err := Lookup(family)
	if err != nil {
		return nil, err
	}
	return f.BuildRequest(text, p)
}

// ExtractText decodes one streaming chunk of the named family.
func ExtractText(family string, chunk []byte) (string, error) {
	f, err := Lookup(family)
	if err != nil {
		return "", err
	}
	return f.ExtractText(chunk)
}

// ExtractResponse decodes a complete non-streaming body of the named family.
func ExtractResponse(family string, body []byte) (string, error) {
	f, err := Lookup(family)
	if err != nil {
		return "", err
	}
	return f.ExtractResponse(body)
}

// setter applies sjson writes in order and keeps the first error.
type setter struct {
	body []byte
	err  error
}

func newSetter() *setter {
	return &setter{body: []byte("{}")}
}

func (s *setter) set(path string, value any) {
	if s.err != nil {
		return
	}
	s.body, s.err = sjson.SetBytes(s.body, path, value)
}

func (s *setter) setRaw(path, raw string) {
	if s.err != nil {
		return
	}
	s.body, s.err = sjson.SetRawBytes(s.body, path, []byte(raw))
}

// stops returns p.StopSequences, never nil, so that the field encodes as [].
func stops(p Params) []string {
	if p.StopSequences == nil {
		return []string{}
	}
	return p.StopSequences
}

func buildTitan(text string, p Params) ([]byte, error) {
	s := newSetter()
	s.set("inputText", text)
	s.setRaw("textGenerationConfig", "{}")
	if p.MaxTokens > 0 {
		s.set("textGenerationConfig.maxTokenCount", p.MaxTokens)
	}
	s.set("textGenerationConfig.stopSequences", stops(p))
	s.set("textGenerationConfig.temperature", p.Temperature)
	s.set("textGenerationConfig.topP", p.TopP)
	return s.body, s.err
}

func buildClaude(text string, p Params) ([]byte, error) {
	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	s := newSetter()
	s.set("anthropic_version", anthropicVersion)
	s.set("max_tokens", maxTokens)
	s.set("messages.0.role", "user")
	s.set("messages.0.content", text)
	s.set("temperature", p.Temperature)
	s.set("top_p", p.TopP)
	if len(p.StopSequences) > 0 {
		s.set("stop_sequences", p.StopSequences)
	}
	return s.body, s.err
}

func buildLlama(text string, p Params) ([]byte, error) {
	s := newSetter()
	s.set("prompt", text)
	if p.MaxTokens > 0 {
		s.set("max_gen_len", p.MaxTokens)
	}
	s.set("temperature", p.Temperature)
	s.set("top_p", p.TopP)
	return s.body, s.err
}

func buildMistral(text string, p Params) ([]byte, error) {
	s := newSetter()
	s.set("prompt", "<s>[INST] "+text+" [/INST]")
	if p.MaxTokens > 0 {
		s.set("max_tokens", p.MaxTokens)
	}
	s.set("temperature", p.Temperature)
	s.set("top_p", p.TopP)
	if len(p.StopSequences) > 0 {
		s.set("stop", p.StopSequences)
	}
	return s.body, s.err
}

func buildCohere(text string, p Params) ([]byte, error) {
	s := newSetter()
	s.set("prompt", text)
	if p.MaxTokens > 0 {
		s.set("max_tokens", p.MaxTokens)
	}
	s.set("temperature", p.Temperature)
	s.set("p", p.TopP)
	if len(p.StopSequences) > 0 {
		s.set("stop_sequences", p.StopSequences)
	}
	if p.Stream {
		s.set("stream", true)
	}
	return s.body, s.err
}
