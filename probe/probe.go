// Package probe locates and activates UI affordances through ordered chains
// of capability probes.
//
// A Probe pairs a Locate step (find a visible candidate on a surface) with an
// Act step (usually a click). A Chain tries its probes in order and stops at
// the first one whose Locate and Act both succeed, so adding a fallback for a
// new page variant is one more entry, not another branch.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/use-agent/cardpost/config"
	"github.com/use-agent/cardpost/driver"
)

// ErrNotFound is returned when no probe in a chain matched.
var ErrNotFound = errors.New("probe: no affordance matched")

// Locator finds a candidate on s. A nil element with a nil error means
// "not present".
type Locator func(ctx context.Context, s driver.Surface) (driver.Element, error)

// Action activates a located element.
type Action func(ctx context.Context, el driver.Element) error

// Probe is one way of finding and activating an affordance.
type Probe struct {
	Name   string
	Locate Locator
	Act    Action
}

// Chain is an ordered list of probes; earlier probes win.
type Chain []Probe

// Find returns the first element any probe locates, without acting on it.
func (c Chain) Find(ctx context.Context, s driver.Surface) (driver.Element, string, error) {
	for _, p := range c {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		el, err := p.Locate(ctx, s)
		if err != nil {
			slog.Debug("probe locate failed", "probe", p.Name, "error", err)
			continue
		}
		if el != nil {
			return el, p.Name, nil
		}
	}
	return nil, "", ErrNotFound
}

// Run tries each probe in order until one both locates and acts. It returns
// the name of the probe that succeeded, or ErrNotFound.
func (c Chain) Run(ctx context.Context, s driver.Surface) (string, error) {
	var lastErr error
	for _, p := range c {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		el, err := p.Locate(ctx, s)
		if err != nil {
			slog.Debug("probe locate failed", "probe", p.Name, "error", err)
			continue
		}
		if el == nil {
			continue
		}

		act := p.Act
		if act == nil {
			act = Click
		}
		if err := act(ctx, el); err != nil {
			slog.Debug("probe action failed", "probe", p.Name, "error", err)
			lastErr = err
			continue
		}
		return p.Name, nil
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w (last action error: %v)", ErrNotFound, lastErr)
	}
	return "", ErrNotFound
}

// Selector probes for the first visible element matching sel.
func Selector(sel string) Probe {
	return Probe{Name: sel, Locate: locate(sel, nil), Act: Click}
}

// Text probes for the first visible element matching sel whose trimmed
// text matches pattern.
func Text(sel, pattern string) Probe {
	name := sel + " /" + pattern + "/"
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Probe{
			Name: name,
			Locate: func(context.Context, driver.Surface) (driver.Element, error) {
				return nil, fmt.Errorf("invalid text pattern %q: %w", pattern, err)
			},
			Act: Click,
		}
	}
	return Probe{Name: name, Locate: locate(sel, re), Act: Click}
}

// FromAffordances builds a chain from configured affordances, in order.
func FromAffordances(list []config.Affordance) Chain {
	chain := make(Chain, 0, len(list))
	for _, a := range list {
		if a.Text == "" {
			chain = append(chain, Selector(a.Selector))
		} else {
			chain = append(chain, Text(a.Selector, a.Text))
		}
	}
	return chain
}

// Selectors builds a locate-only chain from plain selectors, in order.
func Selectors(list []string) Chain {
	chain := make(Chain, 0, len(list))
	for _, sel := range list {
		chain = append(chain, Selector(sel))
	}
	return chain
}

// plainClickTimeout caps how long a plain click may wait for its target to
// become clickable before the forced click takes over.
const plainClickTimeout = 2 * time.Second

// Click performs a plain click and falls back to a script-dispatched click
// when the element is covered or otherwise not hit-testable. The plain click
// gets at most half of the remaining deadline so the forced click always
// runs with a live context.
func Click(ctx context.Context, el driver.Element) error {
	plainCtx, cancel := context.WithTimeout(ctx, plainClickBudget(ctx))
	err := el.Click(plainCtx)
	cancel()
	if err == nil {
		return nil
	}
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("click: %w", cerr)
	}
	slog.Debug("plain click failed, forcing", "error", err)
	if ferr := el.ForceClick(ctx); ferr != nil {
		return fmt.Errorf("click: %v; forced click: %w", err, ferr)
	}
	return nil
}

func plainClickBudget(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if half := time.Until(deadline) / 2; half < plainClickTimeout {
			return half
		}
	}
	return plainClickTimeout
}

func locate(sel string, re *regexp.Regexp) Locator {
	return func(ctx context.Context, s driver.Surface) (driver.Element, error) {
		els, err := s.Elements(ctx, sel)
		if err != nil {
			return nil, err
		}
		for _, el := range els {
			if visible, verr := el.Visible(ctx); verr != nil || !visible {
				continue
			}
			if re == nil {
				return el, nil
			}
			text, terr := el.Text(ctx)
			if terr != nil {
				continue
			}
			if re.MatchString(strings.TrimSpace(text)) {
				return el, nil
			}
		}
		return nil, nil
	}
}
