package models

import (
	"net/url"
	"strings"
)

// Publishing modes.
const (
	ModeDraft   = "draft"
	ModePublish = "publish"
)

// PostRequest is the validated input of a single run.
type PostRequest struct {
	// RunID correlates logs, report and webhook events. Generated when empty.
	RunID string `json:"run_id,omitempty"`

	// TargetURL is the content page whose editor is opened. Required.
	TargetURL string `json:"target_url"`

	// Body is the raw authored text. Required.
	Body string `json:"body"`

	// Mode is "draft" or "publish". Default: "publish".
	Mode string `json:"mode"`

	// ProductURLs are explicit commerce references, inserted before the
	// ones found inline in Body.
	ProductURLs []string `json:"product_urls,omitempty"`

	// CookieFile overrides the configured credential path.
	CookieFile string `json:"cookie_file,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *PostRequest) Defaults() {
	r.Mode = strings.ToLower(strings.TrimSpace(r.Mode))
	if r.Mode == "" {
		r.Mode = ModePublish
	}
}

// Validate checks the required inputs. It never touches the network.
func (r *PostRequest) Validate() error {
	target := strings.TrimSpace(r.TargetURL)
	if target == "" {
		return NewPostError(ErrCodeArgument, "target url is required", nil)
	}
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewPostError(ErrCodeArgument, "target url must be an absolute http(s) url: "+target, err)
	}
	if strings.TrimSpace(r.Body) == "" {
		return NewPostError(ErrCodeArgument, "content is required", nil)
	}
	switch r.Mode {
	case ModeDraft, ModePublish:
	default:
		return NewPostError(ErrCodeArgument, "mode must be draft or publish, got "+r.Mode, nil)
	}
	return nil
}
