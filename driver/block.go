package driver

import (
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockPatterns maps human-readable config strings to URL patterns.
//
// Blocking is done with Network.setBlockedURLs rather than a Fetch-domain
// hijack router: Fetch interception conflicts with the Network events that
// ArmResponse listens to.
var blockPatterns = map[string][]string{
	"Image": {"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.avif"},
	"Font":  {"*.woff", "*.woff2", "*.ttf", "*.otf"},
	"Media": {"*.mp4", "*.webm", "*.m3u8", "*.mp3", "*.m4a"},
}

// blockedURLPatterns returns the URL patterns for the configured resource types.
// Unknown names are ignored.
func blockedURLPatterns(names []string) []string {
	var patterns []string
	for _, name := range names {
		patterns = append(patterns, blockPatterns[name]...)
	}
	return patterns
}

// setupBlocking enables the Network domain on page and installs the block list.
// It returns a restore func for the domain, or nil if there is nothing to block.
func setupBlocking(page *rod.Page, names []string) func() {
	patterns := blockedURLPatterns(names)
	if len(patterns) == 0 {
		return nil
	}
	// EnableDomain records the state so that later EachEvent listeners do
	// not disable the domain (and with it the block list) when they end.
	restore := page.EnableDomain(&proto.NetworkEnable{})
	if err := (proto.NetworkSetBlockedURLs{Urls: patterns}).Call(page); err != nil {
		slog.Warn("resource blocking failed, proceeding without it", "error", err)
	}
	return restore
}
