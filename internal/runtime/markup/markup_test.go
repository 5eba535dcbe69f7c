package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		newLine bool
		want    string
	}{
		{"plain", "no tags here", true, "no tags here"},
		{"empty", "", true, ""},
		{"colour mid sentence", "Hello" + Red + " world", true, "Hello world"},
		{"colour at start", White + " welcome", true, " welcome"},
		{"line marker", "first" + NewLine + " second", true, "first\nsecond"},
		{"line marker dropped", "first" + NewLine + " second", false, "firstsecond"},
		{"lower case tags", "a <rgb:1,1,1> b <line> c", true, "a b\nc"},
		{"unknown tag kept", "x < y <b>bold</b>", true, "x < y <b>bold</b>"},
		{"unterminated tag kept", "broken <RGB:1,1", true, "broken <RGB:1,1"},
		{"only one space swallowed", "a " + White + "b", true, "a b"},
		{"trailing spaces kept", "end  ", true, "end  "},
		{"space before unknown tag kept", "a <b>", true, "a <b>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripTags(tt.in, tt.newLine))
		})
	}
}

func TestStripTagsLongMessage(t *testing.T) {
	in := strings.Repeat("word"+Red+" ", 20000)
	assert.Equal(t, strings.Repeat("word ", 20000), StripTags(in, true))
}

func TestStripConvertsLines(t *testing.T) {
	assert.Equal(t, "Commands:\nhelp: lists commands", Strip("Commands:"+NewLine+" help:"+White+" lists commands"))
}

func TestColor(t *testing.T) {
	tag, ok := Color("Light-Green")
	assert.True(t, ok)
	assert.Equal(t, LightGreen, tag)

	_, ok = Color("ultraviolet")
	assert.False(t, ok)
}

func TestListColors(t *testing.T) {
	listed := ListColors()
	for name, tag := range colors {
		assert.Contains(t, listed, tag+" ["+name+"]")
	}
	assert.Len(t, colorOrder, len(colors))

	plain := Strip(listed)
	assert.Contains(t, plain, "Colors:\n")
	assert.Contains(t, plain, "[light-green]")
	assert.NotContains(t, plain, "<RGB")
}
