package main

import (
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/parley/internal/lang"
)

var languagesCmd = &cobra.Command{
	Use:               "languages",
	Short:             "List the languages parley can translate and speak",
	Args:              cobra.NoArgs,
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printLanguages(cmd.OutOrStdout())
	},
}

func printLanguages(w io.Writer) error {
	for _, o := range lang.Options(true) {
		note := ""
		if o.Code == lang.Auto {
			note = faint(" (--from only)")
		}
		if _, err := fmt.Fprintf(w, "  %s%s%s\n", keyword(runewidth.FillRight(o.Code, 8)), o.Name, note); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}
	return nil
}
