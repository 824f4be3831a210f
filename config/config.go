package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "CARDPOST_CONFIG"

// Config holds all application configuration.
type Config struct {
	Browser    BrowserConfig    `yaml:"browser"`
	Platform   PlatformConfig   `yaml:"platform"`
	Selectors  SelectorConfig   `yaml:"selectors"`
	Timeouts   TimeoutConfig    `yaml:"timeouts"`
	Credential CredentialConfig `yaml:"credential"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	Log        LogConfig        `yaml:"log"`
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool `yaml:"headless"` // default: true

	// Stealth injects go-rod/stealth evasions before every navigation.
	Stealth bool `yaml:"stealth"` // default: true

	// Proxy is the proxy URL for the browser.
	Proxy string `yaml:"proxy"`

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `yaml:"noSandbox"` // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"browserBin"`

	// BlockedResourceTypes lists resource types to block.
	// default: ["Media", "Font"]
	BlockedResourceTypes []string `yaml:"blockedResourceTypes"`
}

// PlatformConfig describes the target content platform.
type PlatformConfig struct {
	// CookieDomain scopes every loaded cookie.
	CookieDomain string `yaml:"cookieDomain"` // default: ".zhihu.com"

	// HomeURL is probed for the login state.
	HomeURL string `yaml:"homeUrl"` // default: "https://www.zhihu.com/"

	// PublishAPIPath is matched against request URLs to find the publish exchange.
	PublishAPIPath string `yaml:"publishApiPath"` // default: "/api/v4/content/publish"

	// PublishMethod is the HTTP method of the publish exchange.
	PublishMethod string `yaml:"publishMethod"` // default: "POST"

	// CommerceDomains is the marketplace allow-list.
	CommerceDomains []string `yaml:"commerceDomains"`

	// ProviderTabs maps a marketplace domain to its sub-provider tab label.
	ProviderTabs map[string]string `yaml:"providerTabs"`

	// SubmitChord is the keyboard shortcut that submits the editor.
	SubmitChord string `yaml:"submitChord"` // default: "Control+Enter"
}

// TimeoutConfig bounds every wait point of a run.
type TimeoutConfig struct {
	Run             time.Duration `yaml:"run"`             // default: 5m
	Navigation      time.Duration `yaml:"navigation"`      // default: 30s
	Action          time.Duration `yaml:"action"`          // default: 10s
	Probe           time.Duration `yaml:"probe"`           // default: 3s
	PollInterval    time.Duration `yaml:"pollInterval"`    // default: 250ms
	EditorSettle    time.Duration `yaml:"editorSettle"`    // default: 1.5s
	EditorWait      time.Duration `yaml:"editorWait"`      // default: 10s
	PanelWait       time.Duration `yaml:"panelWait"`       // default: 8s
	SearchSettle    time.Duration `yaml:"searchSettle"`    // default: 2.5s
	StepSettle      time.Duration `yaml:"stepSettle"`      // default: 600ms
	PublishResponse time.Duration `yaml:"publishResponse"` // default: 15s
}

// CredentialConfig locates the cookie header file.
type CredentialConfig struct {
	Path string `yaml:"path"` // default: "~/.config/cardpost/cookies.txt"
}

// WebhookConfig controls report delivery.
type WebhookConfig struct {
	URL    string `yaml:"url"`
	Secret string `yaml:"secret"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "json"
}

// Load builds the defaults, overlays the YAML file named by CARDPOST_CONFIG
// (or path, when non-empty) and finally applies environment overrides.
func Load(path string) *Config {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			slog.Warn("config: cannot read file, using defaults", "path", path, "error", err)
		} else if err := yaml.Unmarshal(raw, cfg); err != nil {
			slog.Warn("config: cannot parse file, using defaults", "path", path, "error", err)
			cfg = Default()
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:             true,
			Stealth:              true,
			BlockedResourceTypes: []string{"Media", "Font"},
		},
		Platform: PlatformConfig{
			CookieDomain:   ".zhihu.com",
			HomeURL:        "https://www.zhihu.com/",
			PublishAPIPath: "/api/v4/content/publish",
			PublishMethod:  "POST",
			CommerceDomains: []string{
				"jd.com", "3.cn", "taobao.com", "tmall.com", "yangkeduo.com", "pinduoduo.com",
			},
			ProviderTabs: map[string]string{
				"jd.com":        "京东",
				"3.cn":          "京东",
				"taobao.com":    "淘宝",
				"tmall.com":     "天猫",
				"yangkeduo.com": "拼多多",
				"pinduoduo.com": "拼多多",
			},
			SubmitChord: "Control+Enter",
		},
		Selectors: DefaultSelectors(),
		Timeouts: TimeoutConfig{
			Run:             5 * time.Minute,
			Navigation:      30 * time.Second,
			Action:          10 * time.Second,
			Probe:           3 * time.Second,
			PollInterval:    250 * time.Millisecond,
			EditorSettle:    1500 * time.Millisecond,
			EditorWait:      10 * time.Second,
			PanelWait:       8 * time.Second,
			SearchSettle:    2500 * time.Millisecond,
			StepSettle:      600 * time.Millisecond,
			PublishResponse: 15 * time.Second,
		},
		Credential: CredentialConfig{
			Path: "~/.config/cardpost/cookies.txt",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func (c *Config) applyEnvOverrides() {
	c.Browser.Headless = envBoolOr("CARDPOST_HEADLESS", c.Browser.Headless)
	c.Browser.Stealth = envBoolOr("CARDPOST_STEALTH", c.Browser.Stealth)
	c.Browser.Proxy = envOr("CARDPOST_PROXY", c.Browser.Proxy)
	c.Browser.NoSandbox = envBoolOr("CARDPOST_NO_SANDBOX", c.Browser.NoSandbox)
	c.Browser.BrowserBin = envOr("CARDPOST_BROWSER_BIN", c.Browser.BrowserBin)
	c.Browser.BlockedResourceTypes = envSliceOr("CARDPOST_BLOCKED_RESOURCES", c.Browser.BlockedResourceTypes)

	c.Platform.HomeURL = envOr("CARDPOST_HOME_URL", c.Platform.HomeURL)
	c.Platform.CookieDomain = envOr("CARDPOST_COOKIE_DOMAIN", c.Platform.CookieDomain)
	c.Platform.PublishAPIPath = envOr("CARDPOST_PUBLISH_API_PATH", c.Platform.PublishAPIPath)
	c.Platform.CommerceDomains = envSliceOr("CARDPOST_COMMERCE_DOMAINS", c.Platform.CommerceDomains)

	c.Timeouts.Run = envDurationOr("CARDPOST_RUN_TIMEOUT", c.Timeouts.Run)
	c.Timeouts.Navigation = envDurationOr("CARDPOST_NAV_TIMEOUT", c.Timeouts.Navigation)
	c.Timeouts.PublishResponse = envDurationOr("CARDPOST_PUBLISH_TIMEOUT", c.Timeouts.PublishResponse)

	c.Credential.Path = envOr("CARDPOST_COOKIE_FILE", c.Credential.Path)

	c.Webhook.URL = envOr("CARDPOST_WEBHOOK_URL", c.Webhook.URL)
	c.Webhook.Secret = envOr("CARDPOST_WEBHOOK_SECRET", c.Webhook.Secret)

	c.Log.Level = envOr("CARDPOST_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("CARDPOST_LOG_FORMAT", c.Log.Format)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
