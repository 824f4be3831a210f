package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultDomains = []string{"jd.com", "3.cn", "taobao.com", "tmall.com", "yangkeduo.com", "pinduoduo.com"}

func TestSanitize_ExtractsCommerceReferences(t *testing.T) {
	s := NewSanitizer(defaultDomains)

	raw := "推荐这款耳机 https://item.jd.com/123.html。\n官网 https://www.sony.com/headphones 有详情。"
	got := s.Sanitize(raw, nil)

	assert.Equal(t, []string{"https://item.jd.com/123.html"}, got.ProductURLs)
	assert.Equal(t, []string{"https://item.jd.com/123.html"}, got.InlineURLs)
	assert.NotContains(t, got.Cleaned, "item.jd.com")
	assert.Contains(t, got.Cleaned, "https://www.sony.com/headphones")
	assert.Equal(t, "推荐这款耳机 。\n官网 https://www.sony.com/headphones 有详情。", got.Cleaned)
}

func TestSanitize_NormalizesTrailingPunctuation(t *testing.T) {
	s := NewSanitizer(defaultDomains)
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"ascii paren", "(see https://detail.tmall.com/item.htm?id=9)", "https://detail.tmall.com/item.htm?id=9"},
		{"ascii dot", "buy https://item.taobao.com/x.", "https://item.taobao.com/x"},
		{"full-width", "链接：https://item.jd.com/7.html），很好", "https://item.jd.com/7.html"},
		{"question", "really https://3.cn/abc?!", "https://3.cn/abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.raw, nil)
			require.Len(t, got.ProductURLs, 1)
			assert.Equal(t, tt.want, got.ProductURLs[0])
		})
	}
}

func TestSanitize_NonCommerceLeftVerbatim(t *testing.T) {
	s := NewSanitizer(defaultDomains)
	raw := "see https://notjd.com/item and https://jd.com.evil.io/x"
	got := s.Sanitize(raw, nil)

	assert.Empty(t, got.ProductURLs)
	assert.Equal(t, raw, got.Cleaned)
}

func TestSanitize_DedupExplicitFirst(t *testing.T) {
	s := NewSanitizer(defaultDomains)
	raw := "a https://item.jd.com/1.html b https://item.jd.com/2.html c https://item.jd.com/1.html"
	explicit := []string{"https://item.jd.com/2.html", " https://item.jd.com/3.html ", ""}

	got := s.Sanitize(raw, explicit)

	assert.Equal(t, []string{
		"https://item.jd.com/2.html",
		"https://item.jd.com/3.html",
		"https://item.jd.com/1.html",
	}, got.ProductURLs)
	assert.Equal(t, []string{"https://item.jd.com/2.html", "https://item.jd.com/3.html"}, got.ExplicitURLs)
	assert.Len(t, got.InlineURLs, 3)
}

func TestSanitize_Whitespace(t *testing.T) {
	s := NewSanitizer(defaultDomains)
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"trailing spaces", "a  \t\nb", "a\nb"},
		{"many newlines", "a\n\n\n\n\nb", "a\n\nb"},
		{"space runs", "a \t  b", "a b"},
		{"trim", "\n\n  a  \n\n", "a"},
		{"escaped newlines", `line1\nline2\n\n\n\nline3`, "line1\nline2\n\nline3"},
		{"crlf", "a\r\nb", "a\nb"},
		{"lone carriage return", "a\r \nb", "a\n\nb"},
		{"removed url leaves no gap", "x https://item.jd.com/1.html \n\n\ny", "x\n\ny"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Sanitize(tt.raw, nil).Cleaned)
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	s := NewSanitizer(defaultDomains)
	inputs := []string{
		"",
		"Hello world",
		"  a \\n\\n\\n b  https://item.jd.com/1.html)。 ",
		"\\nstart",
		"end\\n",
		"x \\n \\n \\n y",
		"https://item.jd.com/1.htmlhttps://item.jd.com/2.html",
		"tabs\t\t\tand  spaces \t\n\n\n\nhttps://example.com/a.",
		"　全角空格　 \n\n\n\n 第二段",
		`\\n double escaped`,
		"a\r \nb",
		"lone\rreturn\r\r\r\rend",
	}
	for _, in := range inputs {
		once := s.Sanitize(in, nil).Cleaned
		twice := s.Sanitize(once, nil).Cleaned
		assert.Equal(t, once, twice, "input %q", in)
	}
}

func TestVisibleChars(t *testing.T) {
	assert.Equal(t, 10, VisibleChars("Hello world"))
	assert.Equal(t, 4, VisibleChars(" 你好\n世界\t"))
	assert.Equal(t, 0, VisibleChars(" \n\t　"))
	assert.Equal(t, MinPublishVisibleChars, VisibleChars(strings.Repeat("字", MinPublishVisibleChars)))
}

func TestProviderTab(t *testing.T) {
	tabs := map[string]string{"jd.com": "京东", "3.cn": "京东", "taobao.com": "淘宝", "tmall.com": "天猫"}

	tab, ok := ProviderTab("https://item.jd.com/1.html", tabs)
	require.True(t, ok)
	assert.Equal(t, "京东", tab)

	tab, ok = ProviderTab("https://detail.tmall.com/item.htm?id=1", tabs)
	require.True(t, ok)
	assert.Equal(t, "天猫", tab)

	_, ok = ProviderTab("https://example.com/", tabs)
	assert.False(t, ok)
}
