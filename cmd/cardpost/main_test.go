package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/cardpost/config"
	"github.com/use-agent/cardpost/models"
)

// decodeLast decodes the last JSON value on buf; log lines come before it.
func decodeLast(t *testing.T, buf *bytes.Buffer, v interface{}) {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(buf.String()))
	var last json.RawMessage
	for dec.More() {
		var raw json.RawMessage
		require.NoError(t, dec.Decode(&raw))
		last = raw
	}
	require.NotNil(t, last, "no JSON on stream")
	require.NoError(t, json.Unmarshal(last, v))
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"version"}, &stdout, &stderr))
	assert.Equal(t, "dev\n", stdout.String())
}

func TestRun_Sanitize(t *testing.T) {
	t.Setenv("CARDPOST_LOG_LEVEL", "error")
	var stdout, stderr bytes.Buffer
	code := run([]string{
		"sanitize",
		"--content", `买它 https://item.jd.com/1.html。\n\n\n\n好用`,
		"--product", "https://detail.tmall.com/item.htm?id=2",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var got sanitizeResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "买它 。\n\n好用", got.Cleaned)
	assert.Equal(t, []string{"https://detail.tmall.com/item.htm?id=2", "https://item.jd.com/1.html"}, got.ProductURLs)
	assert.Equal(t, []string{"https://item.jd.com/1.html"}, got.InlineURLs)
	assert.False(t, got.Publishable)
}

func TestRun_PublishArgumentErrorGoesToStderr(t *testing.T) {
	t.Setenv("CARDPOST_LOG_LEVEL", "error")
	var stdout, stderr bytes.Buffer
	code := run([]string{"publish", "--content", "hello"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())

	var detail models.ErrorDetail
	decodeLast(t, &stderr, &detail)
	assert.Equal(t, models.ErrCodeArgument, detail.Code)
	assert.Contains(t, detail.Message, "target url is required")
}

func TestRun_PublishCredentialError(t *testing.T) {
	t.Setenv("CARDPOST_LOG_LEVEL", "error")
	var stdout, stderr bytes.Buffer
	code := run([]string{
		"publish",
		"--url", "https://www.zhihu.com/question/1",
		"--content", "hello",
		"--cookie-file", filepath.Join(t.TempDir(), "missing.txt"),
	}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())

	var detail models.ErrorDetail
	decodeLast(t, &stderr, &detail)
	assert.Equal(t, models.ErrCodeCredential, detail.Code)
}

func TestRun_UnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"publish", "--bogus"}, &stdout, &stderr))

	var detail models.ErrorDetail
	decodeLast(t, &stderr, &detail)
	assert.Equal(t, models.ErrCodeArgument, detail.Code)
}

func TestReadBody(t *testing.T) {
	file := filepath.Join(t.TempDir(), "body.txt")
	require.NoError(t, os.WriteFile(file, []byte("from file"), 0o600))

	got, err := readBody("", file)
	require.NoError(t, err)
	assert.Equal(t, "from file", got)

	got, err = readBody("inline", "")
	require.NoError(t, err)
	assert.Equal(t, "inline", got)

	_, err = readBody("inline", file)
	assert.Equal(t, models.ErrCodeArgument, models.CodeOf(err))
}

func TestPublishFlags_ApplyBrowser(t *testing.T) {
	cfg := config.Default()
	require.True(t, cfg.Browser.Headless)

	publishFlags{}.applyBrowser(&cfg.Browser)
	assert.True(t, cfg.Browser.Headless)

	publishFlags{headed: true}.applyBrowser(&cfg.Browser)
	assert.False(t, cfg.Browser.Headless)
}
