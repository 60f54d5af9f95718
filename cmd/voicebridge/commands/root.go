package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/voicebridge/cmd/voicebridge/internal/config"
	"github.com/haivivi/voicebridge/pkg/cli"
)

var (
	verbose      bool
	formatOutput string
	outputFile   string
	contextName  string
)

var rootCmd = &cobra.Command{
	Use:   "voicebridge",
	Short: "Bridge phone calls to a realtime voice model",
	Long: `voicebridge relays the audio of inbound phone calls to a realtime voice
model and plays the model's answers back, including barge-in handling.

Configuration is stored in the OS config directory (override with
$VOICEBRIDGE_CONFIG_DIR):
  macOS:   ~/Library/Application Support/voicebridge/
  Linux:   ~/.config/voicebridge/
  Windows: %AppData%/voicebridge/

Examples:
  voicebridge config add-context prod
  voicebridge config use-context prod
  voicebridge config set api_key sk-xxxx
  voicebridge config set public_url https://bridge.example.com
  voicebridge serve
  voicebridge calls list`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(cmd.ErrOrStderr())
		_, err := cli.ParseFormat(formatOutput)
		return err
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&formatOutput, "format", "table", "output format (table, yaml, json)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context to use (default: current context)")
}

func setupLogging(w io.Writer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// GetConfig loads the root configuration.
func GetConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config not available: %w", err)
	}
	return cfg, nil
}

// loadBridge resolves the context and its bridge.yaml with environment
// overrides applied. Without any context only the environment is used.
func loadBridge() (*config.Config, *config.Bridge, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, nil, err
	}
	dir, err := cfg.ResolveContext(contextName)
	if err != nil {
		if !errors.Is(err, config.ErrNoContext) {
			return nil, nil, err
		}
		dir = ""
	}
	b, err := config.LoadBridge(dir)
	if err != nil {
		return nil, nil, err
	}
	if err := b.ApplyEnv(os.Getenv); err != nil {
		return nil, nil, err
	}
	return cfg, b, nil
}

// output renders result with the global --format and --output flags.
func output(cmd *cobra.Command, result any) error {
	format, err := cli.ParseFormat(formatOutput)
	if err != nil {
		return err
	}
	opts := cli.OutputOptions{Format: format, File: outputFile}
	if outputFile == "" {
		opts.Writer = cmd.OutOrStdout()
	}
	return cli.Output(result, opts)
}
