// Package markup holds the presentation tags understood by game clients and
// the helpers that remove them for plain-text callers such as the console.
//
// Every tag constant carries a leading space; clients treat the space as
// part of the tag.
package markup

import "strings"

const (
	White       = " <RGB:1,1,1>"
	LightGray   = " <RGB:0.7,0.7,0.7>"
	DarkGray    = " <RGB:0.3,0.3,0.3>"
	Black       = " <RGB:0,0,0>"
	LightRed    = " <RGB:1,0.6,0.6>"
	Red         = " <RGB:1,0.25,0.25>"
	DarkRed     = " <RGB:0.6,0,0>"
	Beige       = " <RGB:1,0.65,0.38>"
	Orange      = " <RGB:1,0.45,0.18>"
	Brown       = " <RGB:0.6,0.2,0.1>"
	LightYellow = " <RGB:1,1,0.8>"
	Yellow      = " <RGB:1,1,0.25>"
	DarkYellow  = " <RGB:0.6,0.6,0>"
	LightGreen  = " <RGB:0.6,1,0.6>"
	Green       = " <RGB:0.25,1,0.25>"
	DarkGreen   = " <RGB:0,0.6,0>"
	LightBlue   = " <RGB:0.6,1,1>"
	Blue        = " <RGB:0.25,1,1>"
	DarkBlue    = " <RGB:0.25,0.25,1>"
	Indigo      = " <RGB:0.5,0.5,1>"
	LightPurple = " <RGB:1,0.6,1>"
	Purple      = " <RGB:1,0.25,1>"
	DarkPurple  = " <RGB:0.6,0,0.6>"
	Pink        = " <RGB:1,0.45,1>"

	// NewLine is the client's line break marker.
	NewLine = " <LINE>"
)

// colorOrder is the display order used by ListColors.
var colorOrder = []string{
	"white", "light-gray", "black", "dark-gray",
	"light-red", "red", "dark-red", "beige", "orange", "brown",
	"light-yellow", "yellow", "dark-yellow",
	"light-green", "green", "dark-green",
	"indigo", "light-blue", "blue", "dark-blue",
	"light-purple", "purple", "dark-purple", "pink",
}

var colors = map[string]string{
	"white":        White,
	"light-gray":   LightGray,
	"dark-gray":    DarkGray,
	"black":        Black,
	"light-red":    LightRed,
	"red":          Red,
	"dark-red":     DarkRed,
	"beige":        Beige,
	"orange":       Orange,
	"brown":        Brown,
	"light-yellow": LightYellow,
	"yellow":       Yellow,
	"dark-yellow":  DarkYellow,
	"light-green":  LightGreen,
	"green":        Green,
	"dark-green":   DarkGreen,
	"light-blue":   LightBlue,
	"blue":         Blue,
	"dark-blue":    DarkBlue,
	"indigo":       Indigo,
	"light-purple": LightPurple,
	"purple":       Purple,
	"dark-purple":  DarkPurple,
	"pink":         Pink,
}

// Color looks up a colour tag by its dashed name, case-insensitively.
func Color(name string) (string, bool) {
	tag, ok := colors[strings.ToLower(name)]
	return tag, ok
}

// ListColors renders every colour name in its own colour.
func ListColors() string {
	var b strings.Builder
	b.WriteString("Colors:")
	b.WriteString(NewLine)
	for _, name := range colorOrder {
		b.WriteString(colors[name])
		b.WriteString(" [" + name + "]")
		b.WriteString(White)
	}
	b.WriteString(NewLine)
	return b.String()
}

// Strip removes colour tags and turns line markers into '\n'.
func Strip(text string) string {
	return StripTags(text, true)
}

// StripTags removes <RGB:...> and <LINE> tags from text together with the
// single space that precedes each tag. A <LINE> tag also swallows one
// following space and becomes '\n' when newLine is set. Unrecognised '<'
// sequences are kept verbatim.
func StripTags(text string, newLine bool) string {
	if text == "" {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	// A single space is held back until the next byte shows it does not
	// precede a tag.
	pending := false
	flush := func() {
		if pending {
			b.WriteByte(' ')
			pending = false
		}
	}

	for i := 0; i < len(text); {
		c := text[i]
		if c != '<' {
			if c == ' ' {
				flush()
				pending = true
			} else {
				flush()
				b.WriteByte(c)
			}
			i++
			continue
		}

		rest := text[i+1:]
		isColor := hasPrefixFold(rest, "rgb:")
		isLine := hasPrefixFold(rest, "line>")
		end := strings.IndexByte(rest, '>')
		if (!isColor && !isLine) || end < 0 {
			flush()
			b.WriteByte('<')
			i++
			continue
		}

		pending = false
		if isLine && newLine {
			b.WriteByte('\n')
		}

		i += end + 2
		if isLine && i < len(text) && text[i] == ' ' {
			i++
		}
	}
	flush()
	return b.String()
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
