// Package lang holds the languages parley offers and maps them between the
// code systems of the speech and translation services.
package lang

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/language"

	"github.com/dgnsrekt/parley/tts"
)

// Auto lets the translation service detect the input language.
const Auto = "auto"

// English is the language the model is prompted in.
const English = "en-US"

// ErrUnknownLanguage is returned for codes outside the options table.
var ErrUnknownLanguage = errors.New("unknown language")

// Option is a selectable language.
type Option struct {
	Code string // Speech language code, e.g. "pt-BR"
	Name string
}

// options are the languages both the speech and the translation service
// support. Auto is only valid for input.
var options = []Option{
	{Auto, "Auto-detect"},
	{"ar-AE", "Arabic (UAE)"},
	{"en-US", "English (US)"},
	{"en-IN", "English (India)"},
	{"es-MX", "Spanish (Mexico)"},
	{"en-ZA", "English (South Africa)"},
	{"tr-TR", "Turkish (Turkey)"},
	{"ru-RU", "Russian (Russia)"},
	{"ro-RO", "Romanian (Romania)"},
	{"pt-PT", "Portuguese (Portugal)"},
	{"pl-PL", "Polish (Poland)"},
	{"nl-NL", "Dutch (Netherlands)"},
	{"it-IT", "Italian (Italy)"},
	{"is-IS", "Icelandic (Iceland)"},
	{"fr-FR", "French (France)"},
	{"fi-FI", "Finnish (Finland)"},
	{"es-ES", "Spanish (Spain)"},
	{"de-DE", "German (Germany)"},
	{"yue-CN", "Cantonese (China)"},
	{"ko-KR", "Korean (South Korea)"},
	{"en-NZ", "English (New Zealand)"},
	{"en-GB-WLS", "English (Wales)"},
	{"hi-IN", "Hindi (India)"},
	{"arb", "Arabic (Modern Standard)"},
	{"cy-GB", "Welsh (Wales)"},
	{"cmn-CN", "Chinese (Mandarin, China)"},
	{"da-DK", "Danish (Denmark)"},
	{"en-AU", "English (Australia)"},
	{"pt-BR", "Portuguese (Brazil)"},
	{"nb-NO", "Norwegian (Norway)"},
	{"sv-SE", "Swedish (Sweden)"},
	{"ja-JP", "Japanese (Japan)"},
	{"es-US", "Spanish (US)"},
	{"ca-ES", "Catalan (Spain)"},
	{"fr-CA", "French (Canada)"},
	{"en-GB", "English (UK)"},
	{"de-AT", "German (Austria)"},
}

// translateOverrides covers speech codes whose base language is not a code
// the translation service accepts.
var translateOverrides = map[string]string{
	"cmn": "zh",
	"yue": "zh-TW",
	"arb": "ar",
	"nb":  "no",
}

// Options returns the language table in display order. When input is
// false, Auto is left out.
func Options(input bool) []Option {
	out := make([]Option, 0, len(options))
	for _, o := range options {
		if o.Code == Auto && !input {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Lookup finds a table entry by code, ignoring case.
func Lookup(code string) (Option, bool) {
	for _, o := range options {
		if strings.EqualFold(o.Code, code) {
			return o, true
		}
	}
	return Option{}, false
}

// Validate checks that code is a known input or output language.
func Validate(code string, input bool) error {
	o, ok := Lookup(code)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}
	if o.Code == Auto && !input {
		return fmt.Errorf("%w: %q is only valid for input", ErrUnknownLanguage, code)
	}
	return nil
}

// Canonical returns the table spelling of code, or code unchanged when it
// is not in the table.
func Canonical(code string) string {
	if o, ok := Lookup(code); ok {
		return o.Code
	}
	return code
}

// TranslateCode maps a speech language code to the code the translation
// service expects: the base language of the tag ("pt-BR" is "pt"), with
// the Chinese, Arabic and Norwegian variants mapped explicitly. Auto is kept as is.
func TranslateCode(code string) string {
	if strings.EqualFold(code, Auto) {
		return Auto
	}

	prefix, _, _ := strings.Cut(strings.ToLower(code), "-")
	if override, ok := translateOverrides[prefix]; ok {
		return override
	}

	tag, err := language.Parse(code)
	if err != nil {
		return prefix
	}
	base, _ := tag.Base()
	return base.String()
}

// SpeechCode returns the language code used to voice the input text.
// Auto-detected input is voiced as English.
func SpeechCode(input string) string {
	if strings.EqualFold(input, Auto) {
		return English
	}
	return Canonical(input)
}

// IsEnglish reports whether code is an English variant.
func IsEnglish(code string) bool {
	return TranslateCode(code) == "en"
}

// ResolveVoice picks a voice id from candidates for a user query. An
// exact match, ignoring case, wins; otherwise the best fuzzy match is
// used. An empty query selects the first candidate.
func ResolveVoice(query string, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", tts.ErrNoVoices
	}
	if query == "" {
		return candidates[0], nil
	}

	for _, c := range candidates {
		if strings.EqualFold(c, query) {
			return c, nil
		}
	}

	matches := fuzzy.Find(query, candidates)
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %q (available: %s)", tts.ErrVoiceNotFound, query, strings.Join(candidates, ", "))
	}
	return matches[0].Str, nil
}
