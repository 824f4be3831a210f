// Package cards embeds commerce product cards into the open editor through
// the platform's product recommendation panel.
package cards

import (
	"context"
	"log/slog"

	"github.com/use-agent/cardpost/config"
	"github.com/use-agent/cardpost/content"
	"github.com/use-agent/cardpost/driver"
	"github.com/use-agent/cardpost/editor"
	"github.com/use-agent/cardpost/models"
	"github.com/use-agent/cardpost/probe"
)

// Inserter embeds one card per product URL. A failure for one URL is
// recorded on its attempt and never stops the batch.
type Inserter struct {
	tabs     map[string]string
	timeouts config.TimeoutConfig

	profitEntry    probe.Chain
	frameSelectors []string
	categories     probe.Chain
	providerTab    string
	searchInputs   probe.Chain
	searchTriggers probe.Chain
	addButton      probe.Chain
	confirm        probe.Chain
	closeControls  probe.Chain

	analyzer *analyzer
}

// NewInserter creates an Inserter from configuration.
func NewInserter(cfg *config.Config) (*Inserter, error) {
	sel := cfg.Selectors
	a, err := newAnalyzer(sel)
	if err != nil {
		return nil, models.NewPostError(models.ErrCodeArgument, "invalid panel selectors", err)
	}
	return &Inserter{
		tabs:           cfg.Platform.ProviderTabs,
		timeouts:       cfg.Timeouts,
		profitEntry:    probe.FromAffordances(sel.ProfitEntry),
		frameSelectors: sel.PanelFrames,
		categories:     probe.FromAffordances(sel.CategoryTabs),
		providerTab:    sel.ProviderTab,
		searchInputs:   probe.Selectors(sel.SearchInputs),
		searchTriggers: probe.FromAffordances(sel.SearchTriggers),
		addButton:      probe.FromAffordances([]config.Affordance{sel.AddButton}),
		confirm:        probe.FromAffordances(sel.ConfirmButtons),
		closeControls:  probe.FromAffordances(sel.PanelClose),
		analyzer:       a,
	}, nil
}

// InsertAll attempts every URL in order and returns one attempt per URL
// processed. It stops early only when ctx ends.
func (ins *Inserter) InsertAll(ctx context.Context, page driver.Page, ed driver.Element, urls []string) []models.CardAttempt {
	attempts := make([]models.CardAttempt, 0, len(urls))
	for i, u := range urls {
		if ctx.Err() != nil {
			slog.Warn("card insertion interrupted", "remaining", len(urls)-i, "error", ctx.Err())
			break
		}
		a := ins.insertOne(ctx, page, ed, u)
		if a.Inserted() {
			slog.Info("product card inserted", "url", u, "index", i)
		} else {
			slog.Info("product card skipped", "url", u, "index", i, "reason", a.Reason)
		}
		attempts = append(attempts, a)
	}
	return attempts
}

func (ins *Inserter) insertOne(ctx context.Context, page driver.Page, ed driver.Element, u string) models.CardAttempt {
	skipped := func(reason string) models.CardAttempt {
		return models.CardAttempt{URL: u, Outcome: models.OutcomeSkipped, Reason: reason}
	}

	tab, ok := content.ProviderTab(u, ins.tabs)
	if !ok {
		return skipped(models.SkipUnsupportedProvider)
	}

	before := editor.Length(ctx, ed)

	panel, err := ins.openPanel(ctx, page)
	if err != nil {
		slog.Debug("panel not opened", "url", u, "error", err)
		return skipped(reasonOf(err))
	}
	defer panel.Close(ctx)

	if err := panel.Query(ctx, tab, u); err != nil {
		slog.Debug("panel query failed", "url", u, "error", err)
		return skipped(reasonOf(err))
	}
	if err := panel.Add(ctx); err != nil {
		slog.Debug("add failed", "url", u, "error", err)
		return skipped(reasonOf(err))
	}
	panel.Close(ctx)

	if err := probe.Settle(ctx, ins.timeouts.StepSettle); err != nil {
		return skipped(models.SkipPanelError)
	}
	if after := editor.Length(ctx, ed); after == before {
		return skipped(models.SkipEditorNotChanged)
	}
	return models.CardAttempt{URL: u, Outcome: models.OutcomeInserted}
}
