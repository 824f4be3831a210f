// Package editor reaches the authoring editor of a target page and injects
// the article body into it.
package editor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/use-agent/cardpost/config"
	"github.com/use-agent/cardpost/driver"
	"github.com/use-agent/cardpost/models"
	"github.com/use-agent/cardpost/probe"
)

// State is a step of the editor search.
type State string

const (
	StateLanded        State = "landed"
	StateSeekingEntry  State = "seeking-entry-point"
	StateEditorOpen    State = "editor-open"
	StateEntryNotFound State = "entry-not-found"
)

// Navigator walks Landed → SeekingEntryPoint → EditorOpen | EntryNotFound.
// A Navigator is used for one run only.
type Navigator struct {
	entry     probe.Chain
	myContent probe.Chain
	edit      probe.Chain
	editors   probe.Chain
	timeouts  config.TimeoutConfig

	transitions []State
}

// NewNavigator creates a Navigator from configuration.
func NewNavigator(cfg *config.Config) *Navigator {
	return &Navigator{
		entry:     probe.FromAffordances(cfg.Selectors.EntryPoints),
		myContent: probe.FromAffordances(cfg.Selectors.MyContentLinks),
		edit:      probe.FromAffordances(cfg.Selectors.EditLinks),
		editors:   probe.Selectors(cfg.Selectors.Editors),
		timeouts:  cfg.Timeouts,
	}
}

// Transitions returns the states visited so far, in order.
func (n *Navigator) Transitions() []State {
	return append([]State(nil), n.transitions...)
}

func (n *Navigator) enter(s State, attrs ...any) {
	n.transitions = append(n.transitions, s)
	slog.Debug("editor navigator", append([]any{"state", string(s)}, attrs...)...)
}

// Open loads targetURL and returns the first visible editor surface.
//
// Entry points are tried first on the target page itself; failing that the
// "my content" link is followed and an edit affordance is looked for there.
func (n *Navigator) Open(ctx context.Context, page driver.Page, targetURL string) (driver.Element, error) {
	// ── 1. Land on the target ──
	navCtx, cancel := context.WithTimeout(ctx, n.timeouts.Navigation)
	err := page.Navigate(navCtx, targetURL)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, models.NewPostError(models.ErrCodeNavigation, "failed to load target page", err)
	}
	n.enter(StateLanded, "url", targetURL)
	n.waitStable(ctx, page)

	// ── 2. Seek an entry point ──
	n.enter(StateSeekingEntry)
	via, err := n.seekEntry(ctx, page)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		n.enter(StateEntryNotFound)
		return nil, models.NewPostError(models.ErrCodeNavigation, "no editor entry point found on target page", err)
	}
	slog.Info("editor entry point activated", "via", via)

	// ── 3. Wait for an editor surface ──
	if err := probe.Settle(ctx, n.timeouts.EditorSettle); err != nil {
		return nil, err
	}
	el, sel, err := probe.WaitFor(ctx, page, n.editors, n.timeouts.EditorWait, n.timeouts.PollInterval)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, models.NewPostError(models.ErrCodeEditor, "editor surface did not appear", err)
	}
	n.enter(StateEditorOpen, "selector", sel)
	return el, nil
}

func (n *Navigator) seekEntry(ctx context.Context, page driver.Page) (string, error) {
	actCtx, cancel := context.WithTimeout(ctx, n.timeouts.Action)
	defer cancel()

	name, err := n.entry.Run(actCtx, page)
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, probe.ErrNotFound) {
		return "", err
	}

	link, err := n.myContent.Run(actCtx, page)
	if err != nil {
		return "", err
	}
	slog.Debug("followed my-content link", "via", link)
	n.waitStable(ctx, page)

	editCtx, cancelEdit := context.WithTimeout(ctx, n.timeouts.Action)
	defer cancelEdit()
	name, err = n.edit.Run(editCtx, page)
	if err != nil {
		return "", err
	}
	return link + " → " + name, nil
}

func (n *Navigator) waitStable(ctx context.Context, page driver.Page) {
	if err := page.WaitStable(ctx, n.timeouts.StepSettle); err != nil {
		slog.Debug("page did not settle", "error", err)
	}
}
