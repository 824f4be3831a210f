package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChord(t *testing.T) {
	tests := []struct {
		in   string
		want Chord
	}{
		{"Enter", Chord{Key: "Enter"}},
		{"esc", Chord{Key: "Escape"}},
		{"Control+Enter", Chord{Modifiers: []string{"Control"}, Key: "Enter"}},
		{"ctrl + A", Chord{Modifiers: []string{"Control"}, Key: "a"}},
		{"Cmd+Shift+s", Chord{Modifiers: []string{"Meta", "Shift"}, Key: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChord(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChord_Errors(t *testing.T) {
	for _, in := range []string{"", "Control+", "Hyper+Enter", "Control+F13"} {
		_, err := ParseChord(in)
		assert.Error(t, err, in)
	}
}

func TestChord_String(t *testing.T) {
	c, err := ParseChord("ctrl+enter")
	require.NoError(t, err)
	assert.Equal(t, "Control+Enter", c.String())
}

func TestResponseMatch(t *testing.T) {
	m := ResponseMatch{Method: "POST", PathPart: "/api/v4/content/publish"}

	assert.True(t, m.Matches("post", "https://www.zhihu.com/api/v4/content/publish?x=1"))
	assert.False(t, m.Matches("GET", "https://www.zhihu.com/api/v4/content/publish"))
	assert.False(t, m.Matches("POST", "https://www.zhihu.com/api/v4/answers"))
	assert.True(t, ResponseMatch{PathPart: "/x"}.Matches("GET", "https://a/x"))
}

func TestBlockedURLPatterns(t *testing.T) {
	got := blockedURLPatterns([]string{"Font", "Bogus"})
	assert.Equal(t, []string{"*.woff", "*.woff2", "*.ttf", "*.otf"}, got)
	assert.Empty(t, blockedURLPatterns(nil))
}
