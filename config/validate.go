package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"

	"github.com/andybalholm/cascadia"
)

// Validate compiles every selector and text pattern so that a typo in a
// config file fails before the browser is launched.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Platform.HomeURL); err != nil || u.Host == "" {
		errs = append(errs, fmt.Errorf("platform.homeUrl %q is not an absolute url", c.Platform.HomeURL))
	}
	if c.Platform.PublishAPIPath == "" {
		errs = append(errs, errors.New("platform.publishApiPath is empty"))
	}
	if len(c.Platform.CommerceDomains) == 0 {
		errs = append(errs, errors.New("platform.commerceDomains is empty"))
	}

	s := c.Selectors
	lists := map[string][]Affordance{
		"loginControls":  s.LoginControls,
		"entryPoints":    s.EntryPoints,
		"myContentLinks": s.MyContentLinks,
		"editLinks":      s.EditLinks,
		"profitEntry":    s.ProfitEntry,
		"categoryTabs":   s.CategoryTabs,
		"searchTriggers": s.SearchTriggers,
		"confirmButtons": s.ConfirmButtons,
		"panelClose":     s.PanelClose,
		"submitButtons":  s.SubmitButtons,
		"draftButtons":   s.DraftButtons,
		"addButton":      {s.AddButton},
	}
	for name, list := range lists {
		for i, a := range list {
			if err := checkAffordance(a); err != nil {
				errs = append(errs, fmt.Errorf("selectors.%s[%d]: %w", name, i, err))
			}
		}
	}

	plain := map[string][]string{
		"editors":      s.Editors,
		"panelFrames":  s.PanelFrames,
		"searchInputs": s.SearchInputs,
		"providerTab":  {s.ProviderTab},
		"candidateRow": {s.CandidateRow},
	}
	for name, list := range plain {
		if len(list) == 0 {
			errs = append(errs, fmt.Errorf("selectors.%s is empty", name))
		}
		for i, sel := range list {
			if _, err := cascadia.ParseGroup(sel); err != nil {
				errs = append(errs, fmt.Errorf("selectors.%s[%d] %q: %w", name, i, sel, err))
			}
		}
	}

	return errors.Join(errs...)
}

func checkAffordance(a Affordance) error {
	if a.Selector == "" {
		return errors.New("empty selector")
	}
	if _, err := cascadia.ParseGroup(a.Selector); err != nil {
		return fmt.Errorf("selector %q: %w", a.Selector, err)
	}
	if a.Text != "" {
		if _, err := regexp.Compile(a.Text); err != nil {
			return fmt.Errorf("text %q: %w", a.Text, err)
		}
	}
	return nil
}
