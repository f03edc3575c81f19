// Package main provides the entry point for the parley CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/parley/internal/config"
	"github.com/dgnsrekt/parley/internal/lang"
	"github.com/dgnsrekt/parley/internal/pipeline"
	"github.com/dgnsrekt/parley/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile     string
	fromLanguage   string
	toLanguage     string
	voiceQuery     string
	modelID        string
	outputDir      string
	noStreamSpeech bool
	copyResponse   bool
	verbose        bool

	// cfg is the validated configuration, set by validateOptions.
	cfg   config.Config
	width int

	rootCmd = &cobra.Command{
		Use:   "parley [TEXT]",
		Short: "Talk to a Bedrock model and hear the answer",
		Long: paragraph(
			fmt.Sprintf("\nSend text to a foundation model on Amazon Bedrock, %s, translated into the language of your choice.", keyword("hear the answer")),
		),
		Example: paragraph("parley \"What is the tallest mountain?\"\n" +
			"echo \"¿Qué hora es en Tokio?\" | parley --from es-ES --to es-ES --voice Lucia\n" +
			"parley --model anthropic.claude-3-haiku-20240307-v1:0 -o out \"Tell me a joke\""),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if f := cmd.Flag("config"); f != nil && f.Changed {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	// A flag can only turn streaming speech off.
	if noStreamSpeech {
		viper.Set("pipeline.stream_speech", false)
	}

	e, err := config.LoadEnvironment()
	if err != nil {
		return err
	}
	cfg, err = config.LoadConfigFromViper(viper.GetViper(), e)
	if err != nil {
		return err
	}

	if err := lang.Validate(cfg.Translate.SourceLanguage, true); err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	if err := lang.Validate(cfg.Translate.TargetLanguage, false); err != nil {
		return fmt.Errorf("--to: %w", err)
	}

	if err := configureLog(cfg.LogLevel, verbose || e.Debug); err != nil {
		return err
	}

	width = 80
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = min(w, 120)
		}
	}
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// readTranscript returns the text to send: the argument, or stdin when it
// is piped or the argument is "-".
func readTranscript(args []string, stdin io.Reader, piped bool) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	if len(args) == 0 && !piped {
		return "", errors.New("no text given: pass it as an argument or pipe it to stdin")
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("unable to read from stdin: %w", err)
	}
	return string(b), nil
}

func execute(cmd *cobra.Command, args []string) error {
	piped, err := stdinIsPipe()
	if err != nil {
		return err
	}
	text, err := readTranscript(args, os.Stdin, piped)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return pipeline.ErrEmptyTranscript
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg, log.Default())
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	voice, err := a.voiceFor(ctx, cfg.Translate.TargetLanguage, cfg.Polly.VoiceID, cmd.Flags().Changed("voice"))
	if err != nil {
		return err
	}

	req := pipeline.Request{
		Text:           text,
		InputLanguage:  cfg.Translate.SourceLanguage,
		OutputLanguage: cfg.Translate.TargetLanguage,
		VoiceID:        voice,
		OutputFormat:   cfg.Polly.OutputFormat,
	}
	process := func(ctx context.Context, progress pipeline.ProgressFunc) (*pipeline.Result, error) {
		a.pipeline.OnProgress(progress)
		return a.pipeline.Process(ctx, req)
	}

	var res *pipeline.Result
	switch {
	case verbose:
		res, err = process(ctx, progressPrinter(os.Stderr))
	case term.IsTerminal(int(os.Stderr.Fd())):
		res, err = ui.Run(ctx, os.Stderr, process)
	default:
		res, err = process(ctx, nil)
	}

	if res != nil {
		if _, werr := fmt.Fprint(cmd.OutOrStdout(), renderResult(res, width, markdownStyle())); werr != nil {
			return fmt.Errorf("unable to write to writer: %w", werr)
		}
	}
	if err != nil {
		return err
	}

	if copyResponse && res.TranslatedResponse != "" {
		if err := clipboard.WriteAll(strings.TrimSpace(res.TranslatedResponse)); err != nil {
			log.Warn("Could not copy response to clipboard", "error", err)
		} else {
			log.Debug("Copied response to clipboard")
		}
	}

	if a.cache != nil {
		s := a.cache.Stats()
		log.Debug("Audio cache", "l1_hits", s.L1Hits, "l2_hits", s.L2Hits, "misses", s.Misses, "hit_rate", s.HitRate())
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr as well as the log file")
	rootCmd.Flags().StringVarP(&fromLanguage, "from", "f", "", "language of the input text, or auto")
	rootCmd.Flags().StringVarP(&toLanguage, "to", "t", "", "language of the spoken response")
	rootCmd.Flags().StringVar(&voiceQuery, "voice", "", "Polly voice, matched fuzzily against the voices of the response language")
	rootCmd.Flags().StringVarP(&modelID, "model", "m", "", "Bedrock model id")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for input and response audio")
	rootCmd.Flags().BoolVar(&noStreamSpeech, "no-stream-speech", false, "speak the response only after it is complete")
	rootCmd.Flags().BoolVarP(&copyResponse, "copy", "c", false, "copy the spoken response to the clipboard")

	// Config bindings
	_ = viper.BindPFlag("translate.source_language", rootCmd.Flags().Lookup("from"))
	_ = viper.BindPFlag("translate.target_language", rootCmd.Flags().Lookup("to"))
	_ = viper.BindPFlag("polly.voice_id", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("bedrock.model_id", rootCmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("output_dir", rootCmd.Flags().Lookup("output-dir"))

	config.SetDefaults(viper.GetViper())

	rootCmd.AddCommand(configCmd, manCmd, voicesCmd, languagesCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "parley")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "parley")}, dirs...)
	}

	if c := os.Getenv("PARLEY_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("parley")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("parley")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "parley.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
