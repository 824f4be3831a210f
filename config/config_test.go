package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Validates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate_RejectsBadSelector(t *testing.T) {
	cfg := Default()
	cfg.Selectors.Editors = append(cfg.Selectors.Editors, "div[[")
	cfg.Selectors.SubmitButtons[0].Text = "(unclosed"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selectors.editors")
	assert.Contains(t, err.Error(), "selectors.submitButtons[0]")
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cardpost.yaml")
	yml := `
platform:
  homeUrl: https://example.test/
  publishApiPath: /api/publish
timeouts:
  publishResponse: 3s
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("CARDPOST_LOG_LEVEL", "warn")
	t.Setenv("CARDPOST_COOKIE_FILE", "/tmp/cookies.txt")

	cfg := Load(path)

	assert.Equal(t, "https://example.test/", cfg.Platform.HomeURL)
	assert.Equal(t, "/api/publish", cfg.Platform.PublishAPIPath)
	assert.Equal(t, 3*time.Second, cfg.Timeouts.PublishResponse)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/tmp/cookies.txt", cfg.Credential.Path)
	// Untouched sections keep their defaults.
	assert.Equal(t, "POST", cfg.Platform.PublishMethod)
	assert.NotEmpty(t, cfg.Selectors.Editors)
}

func TestLoad_UnreadableFileFallsBack(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, Default().Platform.HomeURL, cfg.Platform.HomeURL)
}

func TestEnvSliceOr(t *testing.T) {
	t.Setenv("CARDPOST_TEST_SLICE", " jd.com , ,tmall.com")
	assert.Equal(t, []string{"jd.com", "tmall.com"}, envSliceOr("CARDPOST_TEST_SLICE", nil))
	assert.Equal(t, []string{"x"}, envSliceOr("CARDPOST_TEST_UNSET", []string{"x"}))
}
