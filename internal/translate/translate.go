// Package translate translates text between languages with Amazon
// Translate.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awstranslate "github.com/aws/aws-sdk-go-v2/service/translate"
	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/parley/internal/awserr"
)

// AutoDetect asks the service to detect the source language.
const AutoDetect = "auto"

// ErrTranslationFailed wraps every failed translation.
var ErrTranslationFailed = errors.New("translation failed")

// Client is the subset of the Translate API used here.
// *translate.Client satisfies it.
type Client interface {
	TranslateText(ctx context.Context, params *awstranslate.TranslateTextInput, optFns ...func(*awstranslate.Options)) (*awstranslate.TranslateTextOutput, error)
}

// Translator translates text with a Client.
type Translator struct {
	client Client
	logger *log.Logger
}

// New returns a Translator. A nil logger uses the default logger.
func New(client Client, logger *log.Logger) *Translator {
	if logger == nil {
		logger = log.Default()
	}
	return &Translator{client: client, logger: logger}
}

// Translate translates text from source to target. Both are language
// codes as Amazon Translate accepts them ("en", "pt", "zh-TW"); source may
// be AutoDetect. When source and target are equal, text is returned
// without a service call. Failures match ErrTranslationFailed and the
// underlying cause.
func (t *Translator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.EqualFold(source, target) || strings.TrimSpace(text) == "" {
		return text, nil
	}

	out, err := t.client.TranslateText(ctx, &awstranslate.TranslateTextInput{
		Text:               aws.String(text),
		SourceLanguageCode: aws.String(source),
		TargetLanguageCode: aws.String(target),
	})
	if err != nil {
		t.logger.Error("Translation failed", "source", source, "target", target, "code", awserr.Code(err), "error", err)
		return "", fmt.Errorf("%w: %s to %s: %w", ErrTranslationFailed, source, target, awserr.Wrap("translate TranslateText", err))
	}

	translated := aws.ToString(out.TranslatedText)
	t.logger.Debug("Translated text",
		"source", source,
		"detected", aws.ToString(out.SourceLanguageCode),
		"target", target,
		"chars", len(text))

	return translated, nil
}
