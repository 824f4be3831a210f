// Package drivertest provides a scriptable in-memory driver for engine tests.
package drivertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/use-agent/cardpost/credential"
	"github.com/use-agent/cardpost/driver"
)

// Launcher hands out a single scripted Browser.
type Launcher struct {
	Browser   *Browser
	LaunchErr error
	Launches  int
}

func (l *Launcher) Launch(ctx context.Context) (driver.Browser, error) {
	l.Launches++
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	return l.Browser, nil
}

// Browser hands out a single scripted Page.
type Browser struct {
	Page   *Page
	Closed bool
}

func (b *Browser) NewPage(ctx context.Context) (driver.Page, error) {
	return b.Page, nil
}

func (b *Browser) Close() error {
	b.Closed = true
	return nil
}

// Doc is a queryable document: the page itself or a frame.
type Doc struct {
	mu       sync.Mutex
	elements map[string][]*Element
	TextBody string
	HTMLBody string

	// Delay is how long every Elements query takes.
	Delay time.Duration
}

func newDoc() Doc {
	return Doc{elements: make(map[string][]*Element)}
}

// Add registers el under selector, after any already registered.
func (d *Doc) Add(selector string, el *Element) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[selector] = append(d.elements[selector], el)
	return el
}

// Remove drops every element registered under selector.
func (d *Doc) Remove(selector string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.elements, selector)
}

func (d *Doc) Elements(ctx context.Context, selector string) ([]driver.Element, error) {
	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []driver.Element
	for _, el := range d.elements[selector] {
		out = append(out, el)
	}
	return out, nil
}

func (d *Doc) Text(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.TextBody, nil
}

func (d *Doc) HTML(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.HTMLBody, nil
}

// Page is a scripted driver.Page. Every interaction is appended to Log so
// tests can assert ordering.
type Page struct {
	Doc

	TitleValue string
	URLValue   string
	Cookies    []credential.Cookie
	Closed     bool

	// Responses are handed out, one per ArmResponse call; a nil entry (or
	// running out) makes that waiter time out.
	Responses []*driver.Response

	// OnNavigate, OnPress and OnInsert let tests mutate the page.
	OnNavigate func(p *Page, url string)
	OnPress    func(p *Page, chord string)
	OnInsert   func(p *Page, text string)

	NavigateErr error

	logMu sync.Mutex
	Log   []string
	arms  int
}

// NewPage creates an empty scripted page.
func NewPage() *Page {
	return &Page{Doc: newDoc()}
}

func (p *Page) record(entry string) {
	p.logMu.Lock()
	defer p.logMu.Unlock()
	p.Log = append(p.Log, entry)
}

// Record appends entry to the interaction log; element hooks use it to
// interleave clicks with page events.
func (p *Page) Record(entry string) {
	p.record(entry)
}

// Entries returns a copy of the interaction log.
func (p *Page) Entries() []string {
	p.logMu.Lock()
	defer p.logMu.Unlock()
	return append([]string(nil), p.Log...)
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.record("navigate:" + url)
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	p.URLValue = url
	if p.OnNavigate != nil {
		p.OnNavigate(p, url)
	}
	return nil
}

func (p *Page) WaitStable(ctx context.Context, d time.Duration) error { return nil }

func (p *Page) SetCookies(ctx context.Context, cookies []credential.Cookie) error {
	p.record(fmt.Sprintf("cookies:%d", len(cookies)))
	p.Cookies = append(p.Cookies, cookies...)
	return nil
}

func (p *Page) Press(ctx context.Context, chord string) error {
	if _, err := driver.ParseChord(chord); err != nil {
		return err
	}
	p.record("press:" + chord)
	if p.OnPress != nil {
		p.OnPress(p, chord)
	}
	return nil
}

func (p *Page) InsertText(ctx context.Context, text string) error {
	p.record("insert:" + text)
	if p.OnInsert != nil {
		p.OnInsert(p, text)
	}
	return nil
}

func (p *Page) ArmResponse(ctx context.Context, match driver.ResponseMatch) driver.ResponseWaiter {
	p.logMu.Lock()
	idx := p.arms
	p.arms++
	p.Log = append(p.Log, "arm")
	p.logMu.Unlock()

	var resp *driver.Response
	if idx < len(p.Responses) {
		resp = p.Responses[idx]
	}
	if resp != nil && !match.Matches(resp.Method, resp.URL) {
		resp = nil
	}
	return &waiter{resp: resp}
}

// Arms reports how many response waiters were armed.
func (p *Page) Arms() int {
	p.logMu.Lock()
	defer p.logMu.Unlock()
	return p.arms
}

func (p *Page) Title(ctx context.Context) string { return p.TitleValue }
func (p *Page) URL(ctx context.Context) string   { return p.URLValue }

func (p *Page) Close() error {
	p.Closed = true
	return nil
}

type waiter struct {
	resp     *driver.Response
	canceled bool
}

func (w *waiter) Wait(ctx context.Context, timeout time.Duration) (*driver.Response, error) {
	if w.canceled || w.resp == nil {
		return nil, driver.ErrNoResponse
	}
	return w.resp, nil
}

func (w *waiter) Cancel() { w.canceled = true }

// Frame is a scripted nested document.
type Frame struct {
	Doc
}

// NewFrame creates an empty scripted frame.
func NewFrame() *Frame {
	return &Frame{Doc: newDoc()}
}

// Element is a scripted driver.Element.
type Element struct {
	mu sync.Mutex

	TextValue string
	HTMLValue string
	Hidden    bool

	ClickErr      error
	ForceClickErr error
	InputErr      error

	// Covered makes Click wait until its context ends, the way a real
	// browser keeps waiting for an obscured element to become clickable.
	Covered bool

	// OnClick runs after a successful plain or forced click.
	OnClick func()

	// FrameDoc is returned by Frame; nil means the element hosts no frame.
	FrameDoc *Frame

	Clicks      int
	ForceClicks int
	Inputs      []string
	Focused     bool
}

// NewElement creates a visible element with the given text.
func NewElement(text string) *Element {
	return &Element{TextValue: text}
}

func (e *Element) Click(ctx context.Context) error {
	e.mu.Lock()
	if e.Covered {
		e.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	if e.ClickErr != nil {
		e.mu.Unlock()
		return e.ClickErr
	}
	e.Clicks++
	fn := e.OnClick
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (e *Element) ForceClick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	if e.ForceClickErr != nil {
		e.mu.Unlock()
		return e.ForceClickErr
	}
	e.ForceClicks++
	fn := e.OnClick
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (e *Element) Focus(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Focused = true
	return nil
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.Hidden, nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.TextValue, nil
}

func (e *Element) HTML(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.HTMLValue, nil
}

// SetHTML replaces the element's HTML.
func (e *Element) SetHTML(html string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.HTMLValue = html
}

func (e *Element) Input(ctx context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.InputErr != nil {
		return e.InputErr
	}
	e.Inputs = append(e.Inputs, text)
	return nil
}

func (e *Element) Frame(ctx context.Context) (driver.Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FrameDoc == nil {
		return nil, driver.ErrNoFrame
	}
	return e.FrameDoc, nil
}

// ErrClick is a convenient scripted click failure.
var ErrClick = errors.New("drivertest: element not clickable")
