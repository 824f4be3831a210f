// Package credential turns a single-line cookie header file into structured
// browser cookies scoped to the platform domain.
package credential

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/use-agent/cardpost/models"
)

// Cookie is one structured session credential record.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	HTTPOnly bool
	Secure   bool
	SameSite string
}

// Load reads the cookie header file at path and parses it for domain.
// An unreadable file, or one that is empty after trimming, is a CREDENTIAL_ERROR.
func Load(path, domain string) ([]Cookie, error) {
	resolved, err := expandHome(path)
	if err != nil {
		return nil, models.NewPostError(models.ErrCodeCredential, "cannot resolve cookie file path", err)
	}
	raw, err := os.ReadFile(resolved)
	if err != nil {
		return nil, models.NewPostError(models.ErrCodeCredential, "cannot read cookie file "+resolved, err)
	}
	header := strings.TrimSpace(string(raw))
	if header == "" {
		return nil, models.NewPostError(models.ErrCodeCredential, "cookie file is empty: "+resolved, nil)
	}
	return Parse(header, domain)
}

// Parse splits a "name=value; name2=value2" header. Pairs without a name are
// dropped; the first '=' separates name from value.
func Parse(header, domain string) ([]Cookie, error) {
	// Multi-line exports are folded into a single header.
	header = strings.NewReplacer("\r\n", ";", "\n", ";").Replace(header)

	var cookies []Cookie
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, Cookie{
			Name:     name,
			Value:    strings.TrimSpace(value),
			Domain:   domain,
			Path:     "/",
			HTTPOnly: false,
			Secure:   true,
			SameSite: "Lax",
		})
	}
	if len(cookies) == 0 {
		return nil, models.NewPostError(models.ErrCodeCredential, "cookie header contains no name=value pairs", nil)
	}
	return cookies, nil
}

// Names lists cookie names for logging. Values are never logged.
func Names(cookies []Cookie) []string {
	names := make([]string, len(cookies))
	for i, c := range cookies {
		names[i] = c.Name
	}
	return names
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
