// Package driver defines the browser automation contract the engine depends on
// and provides the go-rod backend for it.
//
// The engine only sees Launcher, Browser, Page, Surface and Element, so a
// different automation backend (or the in-memory drivertest fake) can be
// swapped in without touching engine logic.
package driver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/use-agent/cardpost/credential"
)

// ErrNoResponse is returned by ResponseWaiter.Wait when no matching network
// exchange arrived before the timeout.
var ErrNoResponse = errors.New("driver: no matching network response")

// ErrNoFrame is returned by Element.Frame when the element hosts no document.
var ErrNoFrame = errors.New("driver: element has no frame")

// Launcher starts a browser.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// Browser owns pages. Close kills the browser process.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Surface is anything elements can be queried on: a page or a nested frame.
type Surface interface {
	// Elements returns all elements currently matching selector, without waiting.
	Elements(ctx context.Context, selector string) ([]Element, error)

	// Text returns the visible text of the document body.
	Text(ctx context.Context) (string, error)

	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)
}

// Page is a top-level browser tab.
type Page interface {
	Surface

	Navigate(ctx context.Context, url string) error

	// WaitStable waits until the DOM stops changing for d, best-effort.
	WaitStable(ctx context.Context, d time.Duration) error

	SetCookies(ctx context.Context, cookies []credential.Cookie) error

	// Press sends a key chord such as "Enter", "Escape" or "Control+a".
	Press(ctx context.Context, chord string) error

	// InsertText types text at the current focus.
	InsertText(ctx context.Context, text string) error

	// ArmResponse starts listening for the first network exchange accepted
	// by match. The listener is active when ArmResponse returns, so the
	// triggering action must happen after it.
	ArmResponse(ctx context.Context, match ResponseMatch) ResponseWaiter

	Title(ctx context.Context) string
	URL(ctx context.Context) string

	Close() error
}

// Element is a handle to a DOM node.
type Element interface {
	// Click performs a real mouse click.
	Click(ctx context.Context) error

	// ForceClick dispatches a synthetic click from script, bypassing
	// overlays and hit-testing.
	ForceClick(ctx context.Context) error

	Focus(ctx context.Context) error
	Visible(ctx context.Context) (bool, error)
	Text(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)

	// Input replaces the value of a text field.
	Input(ctx context.Context, text string) error

	// Frame returns the document hosted by an iframe element.
	Frame(ctx context.Context) (Frame, error)
}

// Frame is a nested execution context (an iframe document).
type Frame interface {
	Surface
}

// Response is an observed network exchange.
type Response struct {
	URL    string
	Method string
	Status int
	Body   []byte
}

// ResponseMatch selects the exchange a ResponseWaiter is interested in.
type ResponseMatch struct {
	Method   string
	PathPart string
}

// Matches reports whether a request with method and url is selected.
func (m ResponseMatch) Matches(method, url string) bool {
	if m.Method != "" && !strings.EqualFold(m.Method, method) {
		return false
	}
	return strings.Contains(url, m.PathPart)
}

// ResponseWaiter blocks for an armed network exchange.
type ResponseWaiter interface {
	// Wait returns the matched response, or ErrNoResponse after timeout.
	Wait(ctx context.Context, timeout time.Duration) (*Response, error)

	// Cancel stops listening. It is safe to call more than once.
	Cancel()
}
