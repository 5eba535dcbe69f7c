// Package commands models operator and player commands: the parsed Command,
// the Response composed by listeners, and the Listener contract the
// dispatcher routes tokens to.
package commands

import (
	"strings"

	"github.com/drblury/hookbus/internal/runtime/actor"
	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
)

// HelpToken is the reserved token that aggregates tooltips.
const HelpToken = "help"

// WildcardToken is the bucket consulted for every token.
const WildcardToken = "*"

// Command is a parsed command line. The token is always lower-case.
type Command struct {
	token   string
	args    []string
	raw     string
	actor   actor.Actor
	channel string
}

// New builds a command from a token and arguments. The raw text is
// reconstructed on demand.
func New(token string, args ...string) *Command {
	return &Command{
		token: NormalizeToken(token),
		args:  append([]string(nil), args...),
	}
}

// Parse splits raw input into token and arguments. Leading '/' and '!'
// prefixes are dropped and quoted arguments are kept together.
func Parse(raw string) (*Command, error) {
	body := trimPrefix(raw)
	if body == "" {
		return nil, errspkg.ErrCommandTokenRequired
	}

	words := splitWords(body)
	if len(words) == 0 {
		return nil, errspkg.ErrCommandTokenRequired
	}

	return &Command{
		token: NormalizeToken(words[0]),
		args:  words[1:],
		raw:   raw,
	}, nil
}

// NormalizeToken lower-cases and trims a token for lookup.
func NormalizeToken(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}

func trimPrefix(raw string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(raw), "/!"))
}

// splitWords separates words on unquoted blanks. A double-quoted span is
// part of one word, an empty pair yields an empty word and an unterminated
// quote runs to the end of the line. Every other character is literal.
func splitWords(line string) []string {
	var (
		out     []string
		word    strings.Builder
		inQuote bool
		quoted  bool
	)
	flush := func() {
		if word.Len() > 0 || quoted {
			out = append(out, word.String())
		}
		word.Reset()
		quoted = false
	}
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			quoted = true
		case !inQuote && (r == ' ' || r == '\t'):
			flush()
		default:
			word.WriteRune(r)
		}
	}
	flush()
	return out
}

func (c *Command) Token() string { return c.token }

// Args returns a copy of the argument vector.
func (c *Command) Args() []string { return append([]string(nil), c.args...) }

func (c *Command) HasArgs() bool { return len(c.args) > 0 }

// Arg returns the i-th argument.
func (c *Command) Arg(i int) (string, bool) {
	if i < 0 || i >= len(c.args) {
		return "", false
	}
	return c.args[i], true
}

// Raw returns the original input, or a rebuilt "/token args" line when the
// command was constructed programmatically.
func (c *Command) Raw() string {
	if c.raw != "" {
		return c.raw
	}
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(c.token)
	for _, arg := range c.args {
		arg = strings.TrimSpace(arg)
		b.WriteByte(' ')
		if strings.ContainsAny(arg, " \t") {
			b.WriteByte('"')
			b.WriteString(arg)
			b.WriteByte('"')
			continue
		}
		b.WriteString(arg)
	}
	return b.String()
}

// ArgumentsAsString returns everything after the token as typed.
func (c *Command) ArgumentsAsString() string {
	if len(c.args) == 0 {
		return ""
	}
	body := trimPrefix(c.Raw())
	if i := strings.IndexAny(body, " \t"); i >= 0 {
		return strings.TrimSpace(body[i+1:])
	}
	return ""
}

func (c *Command) Actor() actor.Actor { return c.actor }

// SetActor assigns the originating actor.
func (c *Command) SetActor(a actor.Actor) *Command {
	c.actor = a
	return c
}

func (c *Command) Channel() string { return c.channel }

func (c *Command) SetChannel(channel string) *Command {
	c.channel = channel
	return c
}

func (c *Command) String() string {
	name := "<none>"
	if c.actor != nil {
		name = c.actor.Name()
	}
	return "(" + name + ") " + c.Raw()
}

// CombineArguments joins args[start:] with single spaces.
func CombineArguments(args []string, start int) string {
	if start < 0 || start >= len(args) {
		return ""
	}
	return strings.Join(args[start:], " ")
}

// SubArgs returns a copy of args[start:].
func SubArgs(args []string, start int) []string {
	if start < 0 || start >= len(args) {
		return nil
	}
	return append([]string(nil), args[start:]...)
}
