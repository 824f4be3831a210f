package cards

import (
	"context"
	"errors"
	"log/slog"
	"regexp"

	"github.com/use-agent/cardpost/driver"
	"github.com/use-agent/cardpost/models"
	"github.com/use-agent/cardpost/probe"
)

// skip carries a skip reason out of a panel step.
type skip struct {
	reason string
	err    error
}

func (s *skip) Error() string {
	if s.err != nil {
		return s.reason + ": " + s.err.Error()
	}
	return s.reason
}

func (s *skip) Unwrap() error { return s.err }

func skipWith(reason string, err error) error {
	return &skip{reason: reason, err: err}
}

// reasonOf maps a step error to a skip reason; anything unexpected is a
// panel error.
func reasonOf(err error) string {
	var s *skip
	if errors.As(err, &s) {
		return s.reason
	}
	return models.SkipPanelError
}

// Panel is one open "product recommendation" side panel. It lives in a
// nested frame and is opened, queried, acted on and closed exactly once.
type Panel struct {
	ins    *Inserter
	page   driver.Page
	host   driver.Element
	frame  driver.Frame
	closed bool
}

// openPanel activates the profit entry and waits for the panel frame.
func (ins *Inserter) openPanel(ctx context.Context, page driver.Page) (*Panel, error) {
	actCtx, cancel := context.WithTimeout(ctx, ins.timeouts.Action)
	defer cancel()
	if _, err := ins.profitEntry.Run(actCtx, page); err != nil {
		return nil, skipWith(models.SkipCannotOpenEntry, err)
	}

	p := &Panel{ins: ins, page: page}
	err := probe.Poll(ctx, ins.timeouts.PanelWait, ins.timeouts.PollInterval, func(ctx context.Context) (bool, error) {
		host, frame := ins.findFrame(ctx, page)
		if frame == nil {
			return false, nil
		}
		p.host, p.frame = host, frame
		return true, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// The toggle may have opened something frameless; dismiss it.
		if perr := page.Press(ctx, "Escape"); perr != nil {
			slog.Debug("escape after failed panel open", "error", perr)
		}
		return nil, skipWith(models.SkipPanelNotOpened, err)
	}
	return p, nil
}

func (ins *Inserter) findFrame(ctx context.Context, page driver.Page) (driver.Element, driver.Frame) {
	for _, sel := range ins.frameSelectors {
		els, err := page.Elements(ctx, sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			if ok, verr := el.Visible(ctx); verr != nil || !ok {
				continue
			}
			if f, ferr := el.Frame(ctx); ferr == nil {
				return el, f
			}
		}
	}
	return nil, nil
}

// Query selects the provider, searches for url and checks that exactly one
// candidate row came back.
func (p *Panel) Query(ctx context.Context, tab, url string) error {
	ins := p.ins

	// ── 1. Category and sub-provider tabs ──
	if name, err := ins.categories.Run(ctx, p.frame); err != nil {
		slog.Debug("category tab not found, assuming preselected", "error", err)
	} else {
		slog.Debug("category selected", "via", name)
	}
	if err := probe.Settle(ctx, ins.timeouts.StepSettle); err != nil {
		return err
	}
	tabProbe := probe.Text(ins.providerTab, `^\s*`+regexp.QuoteMeta(tab)+`\s*$`)
	if _, err := (probe.Chain{tabProbe}).Run(ctx, p.frame); err != nil {
		slog.Debug("provider tab not found, assuming preselected", "tab", tab, "error", err)
	}
	if err := probe.Settle(ctx, ins.timeouts.StepSettle); err != nil {
		return err
	}

	// ── 2. Search ──
	input, _, err := ins.searchInputs.Find(ctx, p.frame)
	if err != nil {
		if errors.Is(err, probe.ErrNotFound) {
			return skipWith(models.SkipSearchInputMissing, nil)
		}
		return err
	}
	if err := input.Input(ctx, url); err != nil {
		return skipWith(models.SkipPanelError, err)
	}
	if _, err := ins.searchTriggers.Run(ctx, p.frame); err != nil {
		if perr := p.page.Press(ctx, "Enter"); perr != nil {
			return skipWith(models.SkipPanelError, perr)
		}
	}
	if err := probe.Settle(ctx, ins.timeouts.SearchSettle); err != nil {
		return err
	}

	// ── 3. Inspect results ──
	text, err := p.frame.Text(ctx)
	if err != nil {
		return skipWith(models.SkipPanelError, err)
	}
	doc, err := p.frame.HTML(ctx)
	if err != nil {
		return skipWith(models.SkipPanelError, err)
	}
	a, err := ins.analyzer.Analyze(text, doc)
	if err != nil {
		return skipWith(models.SkipPanelError, err)
	}
	switch {
	case a.NoMatch:
		return skipWith(models.SkipNoMatch, nil)
	case a.Candidates == 0:
		return skipWith(models.SkipNoAddButton, nil)
	case a.Candidates > 1:
		slog.Info("ambiguous product search, not guessing", "url", url, "candidates", a.Candidates)
		return skipWith(models.SkipMultipleCandidates, nil)
	}
	return nil
}

// Add clicks the single candidate's add button and confirms if asked.
func (p *Panel) Add(ctx context.Context) error {
	ins := p.ins
	if _, err := ins.addButton.Run(ctx, p.frame); err != nil {
		return skipWith(models.SkipAddClickFailed, err)
	}
	if err := probe.Settle(ctx, ins.timeouts.StepSettle); err != nil {
		return err
	}
	if name, err := ins.confirm.Run(ctx, p.frame); err == nil {
		slog.Debug("insertion confirmed", "via", name)
	} else if name, err := ins.confirm.Run(ctx, p.page); err == nil {
		slog.Debug("insertion confirmed", "via", name)
	}
	return nil
}

// Close dismisses the panel: close control, else Escape and, if the panel
// is still showing, toggling the profit entry again. Safe to call twice.
func (p *Panel) Close(ctx context.Context) {
	if p.closed {
		return
	}
	p.closed = true
	ins := p.ins

	if _, err := ins.closeControls.Run(ctx, p.frame); err == nil {
		return
	}
	if _, err := ins.closeControls.Run(ctx, p.page); err == nil {
		return
	}
	if err := p.page.Press(ctx, "Escape"); err != nil {
		slog.Debug("escape on panel failed", "error", err)
	}
	if err := probe.Settle(ctx, ins.timeouts.StepSettle); err != nil {
		return
	}
	if p.host == nil {
		return
	}
	if visible, err := p.host.Visible(ctx); err != nil || !visible {
		return
	}
	if _, err := ins.profitEntry.Run(ctx, p.page); err != nil {
		slog.Warn("panel may still be open", "error", err)
	}
}
