// Package publish submits the editor and confirms the result on the wire.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/use-agent/cardpost/config"
	"github.com/use-agent/cardpost/driver"
	"github.com/use-agent/cardpost/models"
	"github.com/use-agent/cardpost/probe"
)

const errNoExchange = "publish action did not trigger the expected network exchange"

// Verifier triggers submission and inspects the publish API exchange. A
// response waiter is always armed before the action that may trigger it.
type Verifier struct {
	match    driver.ResponseMatch
	submit   probe.Chain
	draft    probe.Chain
	chord    string
	timeouts config.TimeoutConfig
}

// NewVerifier creates a Verifier from configuration.
func NewVerifier(cfg *config.Config) *Verifier {
	return &Verifier{
		match: driver.ResponseMatch{
			Method:   cfg.Platform.PublishMethod,
			PathPart: cfg.Platform.PublishAPIPath,
		},
		submit:   probe.FromAffordances(cfg.Selectors.SubmitButtons),
		draft:    probe.FromAffordances(cfg.Selectors.DraftButtons),
		chord:    cfg.Platform.SubmitChord,
		timeouts: cfg.Timeouts,
	}
}

// Publish submits the editor and returns the verified outcome. The trigger
// is retried exactly once, with the submit chord, when no exchange shows up.
func (v *Verifier) Publish(ctx context.Context, page driver.Page) (models.PublishOutcome, error) {
	// ── 1. Arm, then trigger ──
	waiter := page.ArmResponse(ctx, v.match)
	if err := v.trigger(ctx, page); err != nil {
		waiter.Cancel()
		return models.PublishOutcome{}, err
	}
	resp, err := waiter.Wait(ctx, v.timeouts.PublishResponse)
	waiter.Cancel()

	// ── 2. Retry once ──
	if errors.Is(err, driver.ErrNoResponse) {
		slog.Warn("no publish exchange observed, retrying with submit chord", "chord", v.chord)
		retry := page.ArmResponse(ctx, v.match)
		if perr := page.Press(ctx, v.chord); perr != nil {
			retry.Cancel()
			return models.PublishOutcome{}, models.NewPostError(models.ErrCodePublish, "failed to send submit chord", perr)
		}
		resp, err = retry.Wait(ctx, v.timeouts.PublishResponse)
		retry.Cancel()
	}
	if err != nil {
		if errors.Is(err, driver.ErrNoResponse) {
			return models.PublishOutcome{}, models.NewPostError(models.ErrCodePublish, errNoExchange, nil)
		}
		return models.PublishOutcome{}, err
	}

	// ── 3. Inspect the exchange ──
	return inspect(resp)
}

func (v *Verifier) trigger(ctx context.Context, page driver.Page) error {
	actCtx, cancel := context.WithTimeout(ctx, v.timeouts.Action)
	defer cancel()

	name, err := v.submit.Run(actCtx, page)
	if err == nil {
		slog.Info("submit control activated", "via", name)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	slog.Debug("no submit control, using chord", "chord", v.chord, "error", err)
	if err := page.Press(ctx, v.chord); err != nil {
		return models.NewPostError(models.ErrCodePublish, "failed to send submit chord", err)
	}
	return nil
}

func inspect(resp *driver.Response) (models.PublishOutcome, error) {
	out := models.PublishOutcome{HTTPStatus: resp.Status}
	if resp.Status < 200 || resp.Status > 299 {
		return out, models.NewPostError(models.ErrCodePublish,
			fmt.Sprintf("publish API returned HTTP %d", resp.Status), nil)
	}

	payload, ok := parsePayload(resp.Body)
	if !ok {
		slog.Debug("publish response is not JSON", "bytes", len(resp.Body))
		out.Verified = true
		out.Result = "ok"
		return out, nil
	}
	out.Payload = payload

	if msg, bad := errorMarker(payload); bad {
		return out, models.NewPostError(models.ErrCodePublish, "publish API rejected the post: "+msg, nil)
	}
	out.Verified = true
	out.Result = resultOf(payload)
	slog.Info("publish verified", "status", resp.Status, "result", out.Result)
	return out, nil
}

// SaveDraft activates the draft control. A missing control is logged and
// reported as false; it is never fatal.
func (v *Verifier) SaveDraft(ctx context.Context, page driver.Page) bool {
	actCtx, cancel := context.WithTimeout(ctx, v.timeouts.Action)
	defer cancel()

	name, err := v.draft.Run(actCtx, page)
	if err != nil {
		slog.Warn("draft save control not found, leaving editor as is", "error", err)
		return false
	}
	if err := probe.Settle(ctx, v.timeouts.StepSettle); err != nil {
		return false
	}
	slog.Info("draft saved", "via", name)
	return true
}
