package main

import (
	"fmt"
	"io"
	"strings"

	awspolly "github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/parley/internal/lang"
	"github.com/dgnsrekt/parley/tts"
	"github.com/dgnsrekt/parley/tts/engines/polly"
)

var voicesCmd = &cobra.Command{
	Use:     "voices [LANG]",
	Short:   "List the Polly voices for each language",
	Long:    paragraph(fmt.Sprintf("\n%s the voices Polly offers for the configured engine, optionally for a single language.", keyword("List"))),
	Example: paragraph("parley voices\nparley voices es-MX"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		awsCfg, err := loadAWSConfig(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		catalog := polly.NewCatalog(awspolly.NewFromConfig(awsCfg))
		catalog.Engine = cfg.Polly.Engine

		voices, err := catalog.Voices(cmd.Context())
		if err != nil {
			return err
		}
		log.Debug("Listed voices", "engine", cfg.Polly.Engine, "languages", len(voices))

		language := ""
		if len(args) == 1 {
			language = lang.Canonical(args[0])
			if len(voices[language]) == 0 {
				return fmt.Errorf("%w for %s", tts.ErrNoVoices, language)
			}
		}
		return printVoices(cmd.OutOrStdout(), voices, language, width)
	},
}

// printVoices writes one line per language. An empty language lists all.
func printVoices(w io.Writer, voices tts.VoiceMap, language string, width int) error {
	languages := voices.Languages()
	if language != "" {
		languages = []string{language}
	}

	for _, l := range languages {
		name := ""
		if o, ok := lang.Lookup(l); ok {
			name = faint(o.Name)
		}
		ids := wordwrap.String(strings.Join(voices[l], ", "), max(width-12, 20))
		ids = strings.ReplaceAll(ids, "\n", "\n"+strings.Repeat(" ", 12))
		if _, err := fmt.Fprintf(w, "  %s%s %s\n", keyword(runewidth.FillRight(l, 10)), ids, name); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}
	return nil
}
