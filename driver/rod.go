package driver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/cardpost/config"
	"github.com/use-agent/cardpost/credential"
	"github.com/use-agent/cardpost/models"
)

// RodLauncher launches a local Chromium through go-rod.
type RodLauncher struct {
	cfg config.BrowserConfig
}

// NewRodLauncher creates a launcher for the given browser configuration.
func NewRodLauncher(cfg config.BrowserConfig) *RodLauncher {
	return &RodLauncher{cfg: cfg}
}

// Launch starts Chromium with the stealth flag set and connects to it.
func (l *RodLauncher) Launch(ctx context.Context) (Browser, error) {
	ln := launcher.New().
		Context(ctx).
		Headless(l.cfg.Headless).
		NoSandbox(l.cfg.NoSandbox)

	if l.cfg.BrowserBin != "" {
		ln = ln.Bin(l.cfg.BrowserBin)
	}
	if l.cfg.Proxy != "" {
		ln = ln.Proxy(l.cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	ln.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	ln.Delete(flags.Flag("enable-automation"))
	ln.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	ln.Set(flags.Flag("disable-popup-blocking"))
	ln.Set(flags.Flag("disable-prompt-on-repost"))
	ln.Set(flags.Flag("disable-renderer-backgrounding"))
	ln.Set(flags.Flag("disable-background-timer-throttling"))
	ln.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	ln.Set(flags.Flag("disable-component-update"))
	ln.Set(flags.Flag("disable-default-apps"))
	ln.Set(flags.Flag("disable-dev-shm-usage"))
	ln.Set(flags.Flag("disable-extensions"))
	ln.Set(flags.Flag("no-first-run"))

	controlURL, err := ln.Launch()
	if err != nil {
		return nil, models.NewPostError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		ln.Kill()
		return nil, models.NewPostError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	return &rodBrowser{browser: browser, launcher: ln, cfg: l.cfg}, nil
}

type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      config.BrowserConfig
}

func (b *rodBrowser) NewPage(ctx context.Context) (Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewPostError(models.ErrCodeBrowserCrash, "failed to create page", err)
	}

	if b.cfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	return &rodPage{page: page, restore: setupBlocking(page, b.cfg.BlockedResourceTypes)}, nil
}

// Close closes the browser and kills the process.
func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	return err
}

type rodPage struct {
	page    *rod.Page
	restore func()
}

func (p *rodPage) ctx(ctx context.Context) *rod.Page {
	return p.page.Context(ctx)
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg := p.ctx(ctx)
	if err := pg.Navigate(url); err != nil {
		return err
	}
	return pg.WaitLoad()
}

func (p *rodPage) WaitStable(ctx context.Context, d time.Duration) error {
	return p.ctx(ctx).WaitDOMStable(d, 0.1)
}

func (p *rodPage) SetCookies(ctx context.Context, cookies []credential.Cookie) error {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: sameSite(c.SameSite),
		})
	}
	return proto.NetworkSetCookies{Cookies: params}.Call(p.ctx(ctx))
}

func (p *rodPage) Elements(ctx context.Context, selector string) ([]Element, error) {
	return elements(p.ctx(ctx), selector)
}

func (p *rodPage) Text(ctx context.Context) (string, error) {
	return bodyText(p.ctx(ctx))
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	return p.ctx(ctx).HTML()
}

func (p *rodPage) Press(ctx context.Context, chord string) error {
	c, err := ParseChord(chord)
	if err != nil {
		return err
	}
	key, err := rodKey(c.Key)
	if err != nil {
		return err
	}
	actions := p.ctx(ctx).KeyActions()
	for _, m := range c.Modifiers {
		actions = actions.Press(rodModifiers[m])
	}
	return actions.Type(key).Do()
}

func (p *rodPage) InsertText(ctx context.Context, text string) error {
	return p.ctx(ctx).InsertText(text)
}

func (p *rodPage) Title(ctx context.Context) string {
	return evalStringOrEmpty(p.ctx(ctx), `() => document.title`)
}

func (p *rodPage) URL(ctx context.Context) string {
	return evalStringOrEmpty(p.ctx(ctx), `() => window.location.href`)
}

func (p *rodPage) Close() error {
	if p.restore != nil {
		p.restore()
	}
	return p.page.Close()
}

// ArmResponse subscribes to Network events before returning. Request IDs are
// matched on RequestWillBeSent (method + URL), the status is taken from
// ResponseReceived and the exchange is complete on LoadingFinished.
func (p *rodPage) ArmResponse(ctx context.Context, match ResponseMatch) ResponseWaiter {
	wctx, cancel := context.WithCancel(ctx)
	w := &rodWaiter{done: make(chan struct{}), cancel: cancel}

	pending := map[proto.NetworkRequestID]*Response{}
	var matchedID proto.NetworkRequestID

	wait := p.page.Context(wctx).EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			if e.Request != nil && match.Matches(e.Request.Method, e.Request.URL) {
				pending[e.RequestID] = &Response{URL: e.Request.URL, Method: e.Request.Method}
			}
		},
		func(e *proto.NetworkResponseReceived) {
			if r, ok := pending[e.RequestID]; ok && e.Response != nil {
				r.Status = e.Response.Status
			}
		},
		func(e *proto.NetworkLoadingFinished) bool {
			if _, ok := pending[e.RequestID]; ok {
				matchedID = e.RequestID
				return true
			}
			return false
		},
		func(e *proto.NetworkLoadingFailed) bool {
			if _, ok := pending[e.RequestID]; ok {
				matchedID = e.RequestID
				return true
			}
			return false
		},
	)

	go func() {
		defer close(w.done)
		wait()
		if matchedID == "" {
			return
		}
		resp := pending[matchedID]
		if body, err := (proto.NetworkGetResponseBody{RequestID: matchedID}).Call(p.page.Context(wctx)); err == nil {
			resp.Body = decodeBody(body)
		} else {
			slog.Debug("response body unavailable", "url", resp.URL, "error", err)
		}
		w.resp = resp
	}()

	return w
}

type rodWaiter struct {
	done   chan struct{}
	cancel context.CancelFunc
	resp   *Response
}

func (w *rodWaiter) Wait(ctx context.Context, timeout time.Duration) (*Response, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.done:
		if w.resp == nil {
			return nil, ErrNoResponse
		}
		return w.resp, nil
	case <-timer.C:
		w.Cancel()
		return nil, ErrNoResponse
	case <-ctx.Done():
		w.Cancel()
		return nil, ctx.Err()
	}
}

func (w *rodWaiter) Cancel() {
	w.cancel()
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) ctx(ctx context.Context) *rod.Element {
	return e.el.Context(ctx)
}

// Click fails at once when the element is covered; rod's own click would
// keep waiting for it to become interactable until ctx ends.
func (e *rodElement) Click(ctx context.Context) error {
	el := e.ctx(ctx)
	if err := el.ScrollIntoView(); err != nil {
		return err
	}
	if _, err := el.Interactable(); errors.Is(err, &rod.CoveredError{}) {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) ForceClick(ctx context.Context) error {
	_, err := e.ctx(ctx).Eval(`() => this.click()`)
	return err
}

func (e *rodElement) Focus(ctx context.Context) error {
	return e.ctx(ctx).Focus()
}

func (e *rodElement) Visible(ctx context.Context) (bool, error) {
	return e.ctx(ctx).Visible()
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	return e.ctx(ctx).Text()
}

func (e *rodElement) HTML(ctx context.Context) (string, error) {
	return e.ctx(ctx).HTML()
}

func (e *rodElement) Input(ctx context.Context, text string) error {
	el := e.ctx(ctx)
	if err := el.SelectAllText(); err != nil {
		slog.Debug("select all before input failed", "error", err)
	}
	return el.Input(text)
}

func (e *rodElement) Frame(ctx context.Context) (Frame, error) {
	frame, err := e.ctx(ctx).Frame()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	return &rodFrame{page: frame}, nil
}

type rodFrame struct {
	page *rod.Page
}

func (f *rodFrame) Elements(ctx context.Context, selector string) ([]Element, error) {
	return elements(f.page.Context(ctx), selector)
}

func (f *rodFrame) Text(ctx context.Context) (string, error) {
	return bodyText(f.page.Context(ctx))
}

func (f *rodFrame) HTML(ctx context.Context) (string, error) {
	return f.page.Context(ctx).HTML()
}

func elements(p *rod.Page, selector string) ([]Element, error) {
	els, err := p.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = &rodElement{el: el}
	}
	return out, nil
}

func bodyText(p *rod.Page) (string, error) {
	res, err := p.Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func decodeBody(body *proto.NetworkGetResponseBodyResult) []byte {
	if !body.Base64Encoded {
		return []byte(body.Body)
	}
	raw, err := base64.StdEncoding.DecodeString(body.Body)
	if err != nil {
		return []byte(body.Body)
	}
	return raw
}

func sameSite(s string) proto.NetworkCookieSameSite {
	switch s {
	case "Strict":
		return proto.NetworkCookieSameSiteStrict
	case "None":
		return proto.NetworkCookieSameSiteNone
	default:
		return proto.NetworkCookieSameSiteLax
	}
}

var rodModifiers = map[string]input.Key{
	"Control": input.ControlLeft,
	"Shift":   input.ShiftLeft,
	"Alt":     input.AltLeft,
	"Meta":    input.MetaLeft,
}

var rodNamedKeys = map[string]input.Key{
	"Enter":     input.Enter,
	"Escape":    input.Escape,
	"Tab":       input.Tab,
	"Backspace": input.Backspace,
	"Space":     input.Key(' '),
}

func rodKey(name string) (input.Key, error) {
	if k, ok := rodNamedKeys[name]; ok {
		return k, nil
	}
	r := []rune(name)
	if len(r) == 1 {
		return input.Key(r[0]), nil
	}
	return 0, fmt.Errorf("no key for %q", name)
}
