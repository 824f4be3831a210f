package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/use-agent/cardpost/config"
	"github.com/use-agent/cardpost/content"
)

func newSanitizeCmd(configPath *string, stdout, stderr io.Writer) *cobra.Command {
	var (
		body     string
		bodyFile string
		products []string
	)

	cmd := &cobra.Command{
		Use:   "sanitize",
		Short: "Print the sanitized body and product references without launching a browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(*configPath)
			initLogger(cfg.Log, stderr)

			raw, err := readBody(body, bodyFile)
			if err != nil {
				writeError(stderr, err)
				return errReported
			}
			c := content.NewSanitizer(cfg.Platform.CommerceDomains).Sanitize(raw, products)
			visible := content.VisibleChars(c.Cleaned)

			return writeJSON(stdout, sanitizeResult{
				Cleaned:      c.Cleaned,
				ProductURLs:  nonNil(c.ProductURLs),
				InlineURLs:   nonNil(c.InlineURLs),
				ExplicitURLs: nonNil(c.ExplicitURLs),
				VisibleChars: visible,
				Publishable:  c.Cleaned != "" && (len(c.ProductURLs) == 0 || visible >= content.MinPublishVisibleChars),
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&body, "content", "", "body text")
	flags.StringVar(&bodyFile, "content-file", "", "read the body from a file")
	flags.StringArrayVar(&products, "product", nil, "explicit product URL (repeatable)")
	return cmd
}

type sanitizeResult struct {
	Cleaned      string   `json:"cleaned"`
	ProductURLs  []string `json:"product_urls"`
	InlineURLs   []string `json:"inline_urls"`
	ExplicitURLs []string `json:"explicit_urls"`
	VisibleChars int      `json:"visible_chars"`
	Publishable  bool     `json:"publishable"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
