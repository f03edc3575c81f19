package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# AWS region and shared config profile (empty uses AWS_PROFILE)
region: "us-east-1"
profile: ""
# debug, info, warn, error or none
log_level: "info"
# where input and response audio are written
output_dir: "."

bedrock:
  # amazon, anthropic, meta, mistral and cohere models are supported
  model_id: "amazon.titan-text-lite-v1"
  # stream the response and speak sentences as they arrive
  streaming: true
  max_tokens: 4096
  temperature: 0.0
  top_p: 1.0
  timeout: "2m"

polly:
  # standard, neural, long-form or generative
  engine: "neural"
  language_code: "en-US"
  # matched fuzzily against the voices of the response language
  voice_id: "Joanna"
  # mp3, ogg_vorbis or pcm
  output_format: "mp3"
  # longest text sent in one request (at most 3000)
  max_text_length: 3000
  # 0 sends requests as fast as possible
  requests_per_second: 0

translate:
  # language of the input text, or auto
  source_language: "auto"
  # language of the spoken response
  target_language: "en-US"

# synthesized audio is cached by voice, language and text
cache:
  enabled: true
  # dir: "/path/to/cache"
  memory_mb: 32
  disk_mb: 256
  # zstd level, 0 disables compression
  compression_level: 3

pipeline:
  # speak English responses while the model is still generating
  stream_speech: true
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the parley config file",
	Long:    paragraph(fmt.Sprintf("\n%s the parley config file. EDITOR determines which editor is used. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("parley config\nparley config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	// The file must stay editable when its contents are invalid.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Parley", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
