package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/use-agent/cardpost/config"
	"github.com/use-agent/cardpost/driver"
	"github.com/use-agent/cardpost/models"
	"github.com/use-agent/cardpost/poster"
	"github.com/use-agent/cardpost/webhook"
)

type publishFlags struct {
	url        string
	body       string
	bodyFile   string
	mode       string
	headed     bool
	products   []string
	cookieFile string
}

func newPublishCmd(configPath *string, stdout, stderr io.Writer) *cobra.Command {
	var f publishFlags

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Inject content into the target editor, embed product cards and publish or save a draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// ── 1. Configuration and logging ──
			cfg := config.Load(*configPath)
			initLogger(cfg.Log, stderr)
			if err := cfg.Validate(); err != nil {
				writeError(stderr, models.NewPostError(models.ErrCodeArgument, "invalid configuration", err))
				return errReported
			}

			// ── 2. Request ──
			body, err := readBody(f.body, f.bodyFile)
			if err != nil {
				writeError(stderr, err)
				return errReported
			}
			req := &models.PostRequest{
				RunID:       uuid.NewString(),
				TargetURL:   f.url,
				Body:        body,
				Mode:        f.mode,
				ProductURLs: f.products,
				CookieFile:  f.cookieFile,
			}
			f.applyBrowser(&cfg.Browser)

			// ── 3. Run ──
			p := poster.New(cfg, driver.NewRodLauncher(cfg.Browser))
			report, runErr := p.Run(cmd.Context(), req)

			// ── 4. Deliver ──
			notifier := webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret)
			if runErr != nil {
				slog.Error("run failed", "code", models.CodeOf(runErr), "error", runErr)
				if notifier != nil {
					notify(notifier, webhook.NewEvent(webhook.EventFailed, req.RunID, models.DetailOf(runErr)))
				}
				writeError(stderr, runErr)
				return errReported
			}
			if notifier != nil {
				notify(notifier, webhook.NewEvent(webhook.EventCompleted, report.RunID, report))
			}
			if err := writeJSON(stdout, report); err != nil {
				writeError(stderr, models.NewPostError(models.ErrCodeInternal, "failed to write report", err))
				return errReported
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.url, "url", "", "target content page URL (required)")
	flags.StringVar(&f.body, "content", "", `body text; literal "\n" escapes become newlines`)
	flags.StringVar(&f.bodyFile, "content-file", "", "read the body from a file instead of --content")
	flags.StringVar(&f.mode, "mode", models.ModePublish, "draft or publish")
	flags.BoolVar(&f.headed, "headed", false, "show the browser window")
	flags.StringArrayVar(&f.products, "product", nil, "explicit product URL, inserted before inline ones (repeatable)")
	flags.StringVar(&f.cookieFile, "cookie-file", "", "cookie header file (default from config)")
	return cmd
}

// applyBrowser overrides the configured browser options with the flags.
func (f publishFlags) applyBrowser(cfg *config.BrowserConfig) {
	if f.headed {
		cfg.Headless = false
	}
}

// readBody returns the inline body or the content of file; setting both is
// an argument error.
func readBody(inline, file string) (string, error) {
	if file == "" {
		return inline, nil
	}
	if inline != "" {
		return "", models.NewPostError(models.ErrCodeArgument, "use either --content or --content-file, not both", nil)
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return "", models.NewPostError(models.ErrCodeArgument, "cannot read content file", err)
	}
	return string(raw), nil
}

// notify delivers ev with its own deadline so a slow endpoint cannot hold
// the process open indefinitely.
func notify(n *webhook.Notifier, ev *webhook.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n.Notify(ctx, ev)
}
