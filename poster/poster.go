// Package poster runs one publishing job end to end: validate, sanitize,
// authenticate, reach the editor, inject, embed cards and publish.
package poster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/cardpost/cards"
	"github.com/use-agent/cardpost/config"
	"github.com/use-agent/cardpost/content"
	"github.com/use-agent/cardpost/credential"
	"github.com/use-agent/cardpost/driver"
	"github.com/use-agent/cardpost/editor"
	"github.com/use-agent/cardpost/models"
	"github.com/use-agent/cardpost/publish"
	"github.com/use-agent/cardpost/session"
)

// Poster owns the configuration and browser launcher for runs.
type Poster struct {
	cfg       *config.Config
	launcher  driver.Launcher
	sanitizer *content.Sanitizer
}

// New creates a Poster. The launcher is only used once every static check
// of a run has passed.
func New(cfg *config.Config, launcher driver.Launcher) *Poster {
	return &Poster{
		cfg:       cfg,
		launcher:  launcher,
		sanitizer: content.NewSanitizer(cfg.Platform.CommerceDomains),
	}
}

// Run executes req and returns the report. Every failure is a *models.PostError.
// The browser, when launched, is closed on every path.
func (p *Poster) Run(ctx context.Context, req *models.PostRequest) (*models.Report, error) {
	start := time.Now()
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	runID := req.RunID
	log := slog.With("run_id", runID)

	// ── 1. Arguments ──
	req.Defaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// ── 2. Content ──
	c := p.sanitizer.Sanitize(req.Body, req.ProductURLs)
	if c.Cleaned == "" {
		return nil, models.NewPostError(models.ErrCodeContent, "content is empty after sanitization", nil)
	}
	visible := content.VisibleChars(c.Cleaned)
	log.Info("content sanitized",
		"step", "sanitize",
		"visible_chars", visible,
		"inline_refs", len(c.InlineURLs),
		"explicit_refs", len(c.ExplicitURLs),
		"total_refs", len(c.ProductURLs),
	)

	// ── 3. Publish gate ──
	if req.Mode == models.ModePublish && len(c.ProductURLs) > 0 && visible < content.MinPublishVisibleChars {
		return nil, models.NewPostError(models.ErrCodeContent, fmt.Sprintf(
			"content has %d visible characters; at least %d are required to publish with product cards",
			visible, content.MinPublishVisibleChars), nil)
	}

	// ── 4. Credential ──
	path := req.CookieFile
	if path == "" {
		path = p.cfg.Credential.Path
	}
	cookies, err := credential.Load(path, p.cfg.Platform.CookieDomain)
	if err != nil {
		return nil, err
	}
	log.Info("credential loaded", "step", "credential", "cookies", len(cookies), "names", strings.Join(credential.Names(cookies), ","))

	inserter, err := cards.NewInserter(p.cfg)
	if err != nil {
		return nil, err
	}

	// ── 5. Browser ──
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeouts.Run)
	defer cancel()

	browser, err := p.launcher.Launch(ctx)
	if err != nil {
		return nil, categorizeError(err, "failed to launch browser", models.ErrCodeBrowserCrash)
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			log.Debug("browser close", "error", cerr)
		}
	}()

	page, err := browser.NewPage(ctx)
	if err != nil {
		return nil, categorizeError(err, "failed to open page", models.ErrCodeBrowserCrash)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Debug("page close", "error", cerr)
		}
	}()

	// ── 6. Session ──
	if _, err := session.NewBootstrapper(p.cfg).Bootstrap(ctx, page, cookies); err != nil {
		return nil, categorizeError(err, "session bootstrap failed", models.ErrCodeAuth)
	}

	// ── 7. Editor ──
	nav := editor.NewNavigator(p.cfg)
	ed, err := nav.Open(ctx, page, req.TargetURL)
	log.Info("editor search finished", "step", "editor", "url", req.TargetURL, "transitions", nav.Transitions())
	if err != nil {
		return nil, categorizeError(err, "failed to open editor", models.ErrCodeEditor)
	}
	if err := editor.Inject(ctx, page, ed, c.Cleaned); err != nil {
		return nil, categorizeError(err, "failed to inject body", models.ErrCodeEditor)
	}

	// ── 8. Product cards ──
	attempts := inserter.InsertAll(ctx, page, ed, c.ProductURLs)
	if err := ctx.Err(); err != nil {
		return nil, categorizeError(err, "run timed out while inserting product cards", models.ErrCodeTimeout)
	}

	// ── 9. Publish or draft ──
	var (
		outcome        models.PublishOutcome
		draftAttempted bool
		draftSaved     bool
	)
	verifier := publish.NewVerifier(p.cfg)
	if req.Mode == models.ModePublish {
		outcome, err = verifier.Publish(ctx, page)
		if err != nil {
			return nil, categorizeError(err, "publish failed", models.ErrCodePublish)
		}
	} else {
		draftAttempted = true
		draftSaved = verifier.SaveDraft(ctx, page)
	}

	// ── 10. Report ──
	report := models.NewReport(models.ReportInput{
		RunID:          runID,
		Mode:           req.Mode,
		Found:          len(c.InlineURLs),
		Requested:      len(c.ExplicitURLs),
		Total:          len(c.ProductURLs),
		Attempts:       attempts,
		Publish:        outcome,
		DraftAttempted: draftAttempted,
		DraftSaved:     draftSaved,
		VisibleChars:   visible,
		Title:          page.Title(ctx),
		URL:            page.URL(ctx),
		ElapsedMs:      time.Since(start).Milliseconds(),
	})
	log.Info("run finished",
		"step", "report",
		"mode", report.Mode,
		"inserted", report.ProductCardsInserted,
		"skipped", len(report.ProductCardsSkipped),
		"publish_verified", report.PublishVerified,
		"elapsed_ms", report.ElapsedMs,
	)
	return report, nil
}

// categorizeError keeps existing PostErrors, maps context cancellation to
// TIMEOUT and wraps anything else with fallbackCode.
func categorizeError(err error, msg, fallbackCode string) error {
	var pe *models.PostError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.NewPostError(models.ErrCodeTimeout, msg, err)
	}
	return models.NewPostError(fallbackCode, msg, err)
}
