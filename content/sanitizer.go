// Package content extracts commerce references from authored text and
// normalizes the remaining body.
package content

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// MinPublishVisibleChars is the minimum number of visible characters a body
// needs before it may be published together with product cards.
const MinPublishVisibleChars = 200

// Content is the sanitizer result.
type Content struct {
	Raw     string
	Cleaned string

	// ProductURLs is the deduplicated union, explicit references first.
	ProductURLs []string

	// InlineURLs are the commerce references removed from Raw, in order.
	InlineURLs []string

	// ExplicitURLs are the normalized explicit references (after dedup).
	ExplicitURLs []string
}

var (
	urlToken        = regexp.MustCompile(`https?://[A-Za-z0-9\-._~:/?#\[\]@!$&'()*+,;=%]+`)
	trailingSpace   = regexp.MustCompile(`[ \t]+\n`)
	manyNewlines    = regexp.MustCompile(`\n{3,}`)
	spaceRuns       = regexp.MustCompile(`[ \t]+`)
	escapedNewlines = strings.NewReplacer(`\r\n`, "\n", `\n`, "\n")
	lineBreaks      = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// trailingPunct lists characters stripped from the end of a URL token,
// ASCII and full-width forms.
const trailingPunct = ")]}>.,;:!?'\"）】」』》〉。，；：！？、…"

// Sanitizer classifies URLs against a marketplace allow-list.
type Sanitizer struct {
	allow []string
}

// NewSanitizer creates a Sanitizer for the given marketplace domains.
func NewSanitizer(commerceDomains []string) *Sanitizer {
	allow := make([]string, 0, len(commerceDomains))
	for _, d := range commerceDomains {
		d = strings.ToLower(strings.Trim(strings.TrimSpace(d), "."))
		if d != "" {
			allow = append(allow, d)
		}
	}
	return &Sanitizer{allow: allow}
}

// Sanitize removes inline commerce references from raw, normalizes the
// whitespace and merges the references with the explicit ones.
// The result is deterministic and Sanitize(out.Cleaned, nil).Cleaned == out.Cleaned.
func (s *Sanitizer) Sanitize(raw string, explicit []string) Content {
	var inline []string
	text := urlToken.ReplaceAllStringFunc(raw, func(tok string) string {
		norm := NormalizeURL(tok)
		if !s.IsCommerce(norm) {
			return tok
		}
		inline = append(inline, norm)
		// Only the normalized prefix is removed; stripped punctuation stays.
		return tok[len(norm):]
	})

	text = escapedNewlines.Replace(text)
	text = lineBreaks.Replace(text)
	cleaned := collapse(text)

	seen := make(map[string]struct{}, len(explicit)+len(inline))
	var merged, explicitOut []string
	for _, u := range explicit {
		u = NormalizeURL(strings.TrimSpace(u))
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		merged = append(merged, u)
		explicitOut = append(explicitOut, u)
	}
	for _, u := range inline {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		merged = append(merged, u)
	}

	return Content{
		Raw:          raw,
		Cleaned:      cleaned,
		ProductURLs:  merged,
		InlineURLs:   inline,
		ExplicitURLs: explicitOut,
	}
}

// IsCommerce reports whether u's host is, or is a subdomain of, an allowed marketplace.
func (s *Sanitizer) IsCommerce(u string) bool {
	return MatchDomain(Host(u), s.allow) != ""
}

// NormalizeURL strips trailing punctuation from a URL token.
func NormalizeURL(tok string) string {
	return strings.TrimRightFunc(tok, func(r rune) bool {
		return strings.ContainsRune(trailingPunct, r)
	})
}

// Host returns the lower-cased hostname of u, or "" when u does not parse.
func Host(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// MatchDomain returns the entry of domains that host equals or is a
// subdomain of, or "" when none matches.
func MatchDomain(host string, domains []string) string {
	if host == "" {
		return ""
	}
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return d
		}
	}
	return ""
}

// VisibleChars counts the non-whitespace runes of s.
func VisibleChars(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func collapse(s string) string {
	s = trailingSpace.ReplaceAllString(s, "\n")
	s = manyNewlines.ReplaceAllString(s, "\n\n")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
