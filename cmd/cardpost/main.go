package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/cardpost/config"
	"github.com/use-agent/cardpost/models"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// errReported marks an error whose JSON form was already written to stderr.
var errReported = errors.New("reported")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code. stdout receives
// at most one report; stderr receives logs and at most one error object.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return 0
	}
	if !errors.Is(err, errReported) {
		writeError(stderr, models.NewPostError(models.ErrCodeArgument, err.Error(), nil))
	}
	return 1
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "cardpost",
		Short:         "Publish authored content with embedded product cards",
		Long:          `cardpost drives a headless browser with a pre-authenticated session, injects sanitized text into a content editor, embeds commerce product cards and confirms publication on the wire.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $CARDPOST_CONFIG)")

	root.AddCommand(
		newPublishCmd(&configPath, stdout, stderr),
		newSanitizeCmd(&configPath, stdout, stderr),
		newVersionCmd(stdout),
	)
	return root
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(stdout, version+"\n")
			return err
		},
	}
}

// initLogger configures slog based on the LogConfig. Logs always go to
// stderr: stdout carries only the report.
func initLogger(cfg config.LogConfig, w io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeError(w io.Writer, err error) {
	if werr := writeJSON(w, models.DetailOf(err)); werr != nil {
		slog.Error("failed to write error report", "error", werr)
	}
}
