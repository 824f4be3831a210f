package cards

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/cardpost/config"
	"golang.org/x/net/html"
)

// Analysis summarizes what a panel search returned.
type Analysis struct {
	// NoMatch is set when the panel shows a "nothing found" message.
	NoMatch bool

	// Candidates is the number of distinct result rows offering an add action.
	Candidates int
}

// analyzer inspects panel snapshots.
type analyzer struct {
	row     cascadia.Selector
	add     cascadia.Selector
	addText *regexp.Regexp
	noMatch []string
}

func newAnalyzer(sel config.SelectorConfig) (*analyzer, error) {
	row, err := cascadia.Compile(sel.CandidateRow)
	if err != nil {
		return nil, fmt.Errorf("candidate row selector: %w", err)
	}
	add, err := cascadia.Compile(sel.AddButton.Selector)
	if err != nil {
		return nil, fmt.Errorf("add button selector: %w", err)
	}
	var addText *regexp.Regexp
	if sel.AddButton.Text != "" {
		if addText, err = regexp.Compile(sel.AddButton.Text); err != nil {
			return nil, fmt.Errorf("add button text: %w", err)
		}
	}
	return &analyzer{row: row, add: add, addText: addText, noMatch: sel.NoMatchTexts}, nil
}

// hiddenMarkup matches elements hidden by their own markup; a snapshot
// carries no computed style, so rows hidden only by stylesheets still count.
var hiddenMarkup = cascadia.MustCompile(`[hidden], [aria-hidden="true"], ` +
	`[style*="display:none"], [style*="display: none"], ` +
	`[style*="visibility:hidden"], [style*="visibility: hidden"]`)

// Analyze classifies the panel from its visible text and serialized HTML.
// A "no match" message only counts when no candidate row was found, so the
// markers may appear inside real rows.
func (a *analyzer) Analyze(text, doc string) (Analysis, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return Analysis{}, fmt.Errorf("parse panel html: %w", err)
	}

	// Each add button belongs to its innermost row; a button outside any
	// row is its own candidate. Rows are counted once however many add
	// buttons they hold.
	rows := map[*html.Node]struct{}{}
	goquery.NewDocumentFromNode(root).FindMatcher(a.add).Each(func(_ int, s *goquery.Selection) {
		if a.addText != nil && !a.addText.MatchString(strings.TrimSpace(s.Text())) {
			return
		}
		if s.ClosestMatcher(hiddenMarkup).Length() > 0 {
			return
		}
		row := s.ParentsMatcher(a.row).First()
		if row.Length() == 0 {
			row = s
		}
		rows[row.Get(0)] = struct{}{}
	})
	if len(rows) > 0 {
		return Analysis{Candidates: len(rows)}, nil
	}

	for _, marker := range a.noMatch {
		if marker != "" && strings.Contains(text, marker) {
			return Analysis{NoMatch: true}, nil
		}
	}
	return Analysis{}, nil
}
