package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/dgnsrekt/parley/internal/pipeline"
)

// markdownStyle picks the glamour style for model output: plain when
// stdout is not a terminal, otherwise matching the terminal background.
func markdownStyle() string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return styles.NoTTYStyle
	}
	if termenv.HasDarkBackground() {
		return styles.DarkStyle
	}
	return styles.LightStyle
}

// renderResult formats a finished, or partially finished, request for the
// terminal. Model output is rendered as markdown in the given glamour style.
func renderResult(res *pipeline.Result, width int, style string) string {
	wrap := func(s string) string {
		return indent.String(wordwrap.String(strings.TrimSpace(s), max(width-4, 20)), 2)
	}

	md := wrap
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		log.Debug("Markdown rendering unavailable", "style", style, "error", err)
	} else {
		md = func(s string) string {
			out, err := r.Render(s)
			if err != nil {
				return wrap(s)
			}
			return strings.TrimRight(out, "\n")
		}
	}

	var b strings.Builder
	if res.Transcript != "" {
		fmt.Fprintf(&b, "\n%s\n%s\n", heading("You"), wrap(res.Transcript))
	}
	if res.Response != "" {
		fmt.Fprintf(&b, "\n%s\n%s\n", heading("Model"), md(res.Response))
	}
	if res.TranslatedResponse != "" && res.TranslatedResponse != res.Response {
		fmt.Fprintf(&b, "\n%s\n%s\n", heading("Translated"), md(res.TranslatedResponse))
	}

	b.WriteString("\n")
	if res.InputAudio != "" {
		fmt.Fprintf(&b, "  %s%s %s\n", label("input"), res.InputAudio, faint(humanize.Bytes(uint64(res.InputBytes)))) //nolint:gosec
	}
	if res.ResponseAudio != "" {
		fmt.Fprintf(&b, "  %s%s %s\n", label("response"), res.ResponseAudio, faint(humanize.Bytes(uint64(res.ResponseBytes)))) //nolint:gosec
	}
	if res.Units > 0 {
		mode := "after generation"
		if res.Streamed {
			mode = "while generating"
		}
		fmt.Fprintf(&b, "  %s%s, spoken %s\n", label("sentences"), humanize.Comma(int64(res.Units)), mode)
	}
	return b.String()
}

// progressPrinter reports stage changes on w.
func progressPrinter(w io.Writer) pipeline.ProgressFunc {
	return func(e pipeline.Event) {
		if e.Unit > 0 {
			return
		}
		_, _ = fmt.Fprintln(w, faint("› "+e.Stage.String()))
	}
}
