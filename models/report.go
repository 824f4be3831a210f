package models

import "github.com/ysmood/gson"

// Card insertion outcomes.
const (
	OutcomeInserted = "inserted"
	OutcomeSkipped  = "skipped"
)

// Skip reasons recorded on CardAttempt.Reason.
const (
	SkipCannotOpenEntry     = "cannot-open-profit-entry"
	SkipPanelNotOpened      = "profit-panel-not-opened"
	SkipUnsupportedProvider = "unsupported-provider"
	SkipSearchInputMissing  = "search-input-not-found"
	SkipNoMatch             = "no-matching-product"
	SkipNoAddButton         = "no-row-add-button"
	SkipMultipleCandidates  = "multiple-candidates"
	SkipAddClickFailed      = "add-click-failed"
	SkipEditorNotChanged    = "editor-not-changed"
	SkipPanelError          = "panel-error"
)

// CardAttempt is the outcome of embedding one commerce reference.
type CardAttempt struct {
	URL     string `json:"url"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// Inserted reports whether the card landed in the editor.
func (a CardAttempt) Inserted() bool { return a.Outcome == OutcomeInserted }

// SkippedCard is the report view of a skipped attempt.
type SkippedCard struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// PublishOutcome is the evidence collected from the publish API exchange.
type PublishOutcome struct {
	// HTTPStatus is the status of the observed publish response (0 when none).
	HTTPStatus int `json:"http_status"`

	// Verified is true only when a matching exchange was observed and its
	// payload carried no error marker.
	Verified bool `json:"verified"`

	// Result is the payload's indication of the created/updated content.
	Result string `json:"result,omitempty"`

	// Payload is the parsed response body, when it was JSON.
	Payload gson.JSON `json:"-"`
}

// Report is the single structured object printed on success.
type Report struct {
	RunID                string        `json:"run_id"`
	Mode                 string        `json:"mode"`
	ProductURLsFound     int           `json:"product_urls_found"`
	ProductURLsRequested int           `json:"product_urls_requested"`
	ProductURLsTotal     int           `json:"product_urls_total"`
	ProductCardsInserted int           `json:"product_cards_inserted"`
	ProductCardsSkipped  []SkippedCard `json:"product_cards_skipped"`
	Attempts             []CardAttempt `json:"attempts"`
	PublishVerified      bool          `json:"publish_verified"`
	PublishStatus        int           `json:"publish_status"`
	PublishResult        string        `json:"publish_result,omitempty"`
	DraftSaveAttempted   bool          `json:"draft_save_attempted"`
	DraftSaved           bool          `json:"draft_saved"`
	VisibleChars         int           `json:"visible_chars"`
	Title                string        `json:"title"`
	URL                  string        `json:"url"`
	ElapsedMs            int64         `json:"elapsed_ms"`
}

// ReportInput carries everything NewReport folds into a Report.
type ReportInput struct {
	RunID          string
	Mode           string
	Found          int
	Requested      int
	Total          int
	Attempts       []CardAttempt
	Publish        PublishOutcome
	DraftAttempted bool
	DraftSaved     bool
	VisibleChars   int
	Title          string
	URL            string
	ElapsedMs      int64
}

// NewReport builds the report once; callers must not mutate it afterwards.
func NewReport(in ReportInput) *Report {
	attempts := make([]CardAttempt, len(in.Attempts))
	copy(attempts, in.Attempts)

	inserted := 0
	skipped := make([]SkippedCard, 0, len(attempts))
	for _, a := range attempts {
		if a.Inserted() {
			inserted++
			continue
		}
		skipped = append(skipped, SkippedCard{URL: a.URL, Reason: a.Reason})
	}

	return &Report{
		RunID:                in.RunID,
		Mode:                 in.Mode,
		ProductURLsFound:     in.Found,
		ProductURLsRequested: in.Requested,
		ProductURLsTotal:     in.Total,
		ProductCardsInserted: inserted,
		ProductCardsSkipped:  skipped,
		Attempts:             attempts,
		PublishVerified:      in.Publish.Verified,
		PublishStatus:        in.Publish.HTTPStatus,
		PublishResult:        in.Publish.Result,
		DraftSaveAttempted:   in.DraftAttempted,
		DraftSaved:           in.DraftSaved,
		VisibleChars:         in.VisibleChars,
		Title:                in.Title,
		URL:                  in.URL,
		ElapsedMs:            in.ElapsedMs,
	}
}
