// Package session turns a loaded credential into an authenticated page.
package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/use-agent/cardpost/config"
	"github.com/use-agent/cardpost/credential"
	"github.com/use-agent/cardpost/driver"
	"github.com/use-agent/cardpost/models"
	"github.com/use-agent/cardpost/probe"
)

// Session is the authenticated browsing context of one run. It lives in
// memory only and is never written back to disk.
type Session struct {
	Cookies       []credential.Cookie
	Authenticated bool
}

// Bootstrapper installs cookies and checks the login state.
type Bootstrapper struct {
	homeURL  string
	login    probe.Chain
	timeouts config.TimeoutConfig
}

// NewBootstrapper creates a Bootstrapper from configuration.
func NewBootstrapper(cfg *config.Config) *Bootstrapper {
	return &Bootstrapper{
		homeURL:  cfg.Platform.HomeURL,
		login:    probe.FromAffordances(cfg.Selectors.LoginControls),
		timeouts: cfg.Timeouts,
	}
}

// Bootstrap sets cookies on page, loads the platform home page and fails with
// AUTH_ERROR when a login control is visible there.
func (b *Bootstrapper) Bootstrap(ctx context.Context, page driver.Page, cookies []credential.Cookie) (*Session, error) {
	if err := page.SetCookies(ctx, cookies); err != nil {
		return nil, models.NewPostError(models.ErrCodeAuth, "failed to install session cookies", err)
	}
	slog.Debug("session cookies installed", "count", len(cookies), "names", credential.Names(cookies))

	navCtx, cancel := context.WithTimeout(ctx, b.timeouts.Navigation)
	defer cancel()
	if err := page.Navigate(navCtx, b.homeURL); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, models.NewPostError(models.ErrCodeNavigation, "failed to load home page", err)
	}
	if err := page.WaitStable(ctx, b.timeouts.StepSettle); err != nil {
		slog.Debug("home page did not settle", "error", err)
	}

	probeCtx, cancelProbe := context.WithTimeout(ctx, b.timeouts.Probe)
	defer cancelProbe()
	_, name, err := b.login.Find(probeCtx, page)
	switch {
	case err == nil:
		slog.Warn("login control visible, session not authenticated", "control", name)
		return nil, models.NewPostError(models.ErrCodeAuth, "session is not authenticated: login control is visible", nil)
	case errors.Is(err, probe.ErrNotFound):
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		// Later login probes never ran.
		return nil, models.NewPostError(models.ErrCodeAuth, "could not confirm login state", err)
	default:
		return nil, models.NewPostError(models.ErrCodeAuth, "failed to check login state", err)
	}

	slog.Info("session authenticated", "home", b.homeURL, "cookies", len(cookies))
	return &Session{Cookies: cookies, Authenticated: true}, nil
}
