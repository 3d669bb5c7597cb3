// Package inifile implements the Joomla language file (.ini) handler.
//
// Each entry is KEY=VALUE with the key ending at the first '='. Joomla 1.5
// files use '#' for comments and bare values; from 1.6 on comments start
// with ';' and values are wrapped in double quotes, with a literal quote
// written as "_QQ_". A file whose first byte is ';' is taken to be in the
// 1.6 dialect.
//
// See http://docs.joomla.org/Specification_of_language_files.
package inifile

import (
	"context"
	"fmt"
	"strings"

	"github.com/minios-linux/txfmt/compiler"
	"github.com/minios-linux/txfmt/handler"
	"github.com/minios-linux/txfmt/hashtag"
	"github.com/minios-linux/txfmt/lineutil"
	"github.com/minios-linux/txfmt/stringset"
)

// CommentChars start a comment line: '#' up to 1.5, ';' from 1.6.
const CommentChars = "#;"

// quoteToken is how Joomla 1.6+ spells a double quote inside a value.
const quoteToken = `"_QQ_"`

// Dialect is the Joomla language file version family.
type Dialect int

const (
	// Legacy is the Joomla 1.5 format.
	Legacy Dialect = iota
	// Current is the Joomla 1.6+ format.
	Current
)

func (d Dialect) String() string {
	if d == Current {
		return "1.6"
	}
	return "1.5"
}

// CommentPrefix is written in front of untranslated entries on compile.
func (d Dialect) CommentPrefix() string {
	if d == Current {
		return "; "
	}
	return "# "
}

// DetectDialect inspects the first byte of content.
func DetectDialect(content string) Dialect {
	if strings.HasPrefix(strings.TrimPrefix(content, "\ufeff"), ";") {
		return Current
	}
	return Legacy
}

// ---------------------------------------------------------------------------
// Codec
// ---------------------------------------------------------------------------

// Codec implements handler.Codec for one dialect.
type Codec struct {
	Dialect Dialect
}

var _ handler.Codec = Codec{}

// Split splits line at its first '=' and strips the optional quotes.
func (Codec) Split(line string) (string, string, bool) {
	e, ok := splitEntry(line)
	return e.key, e.value, ok
}

// Escape doubles backslashes and, in the 1.6 dialect, spells quotes as "_QQ_".
func (c Codec) Escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	if c.Dialect == Current {
		s = strings.ReplaceAll(s, `"`, quoteToken)
	}
	return s
}

// Unescape reverses Escape. A backslash not followed by another backslash
// is kept as is.
func (c Codec) Unescape(s string) string {
	if c.Dialect == Current {
		s = strings.ReplaceAll(s, quoteToken, `"`)
	}
	if !strings.Contains(s, `\\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		b.WriteByte(s[i])
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == '\\' {
			i++
		}
	}
	return b.String()
}

// IsComment reports whether line is a comment in either dialect.
func (Codec) IsComment(line string) bool {
	return lineutil.IsComment(line, CommentChars)
}

// entry locates the parts of a KEY=VALUE line.
type entry struct {
	key   string
	value string
	// start is the byte offset of value in the line.
	start int
}

func splitEntry(line string) (entry, bool) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return entry{}, false
	}
	rest := line[eq+1:]
	lead := len(rest) - len(strings.TrimLeft(rest, " \t"))
	value := strings.TrimRight(rest[lead:], " \t")
	start := eq + 1 + lead
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
		start++
	}
	return entry{key: strings.TrimSpace(line[:eq]), value: value, start: start}, true
}

func isSection(line string) bool {
	t := strings.TrimSpace(line)
	return len(t) >= 2 && t[0] == '[' && t[len(t)-1] == ']'
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// Parse extracts the units of a Joomla .ini file. Lines without '=' are
// reported as malformed and kept verbatim in the template.
func Parse(ctx context.Context, req handler.Request) (*handler.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	content, err := req.DecodeContent()
	if err != nil {
		return nil, err
	}

	codec := Codec{Dialect: DetectDialect(content)}
	res := &handler.Result{
		Strings:       stringset.NewSet(),
		LineSeparator: lineutil.DetectLineSeparator(content),
		Dialect:       codec.Dialect.String(),
	}
	lines, terminated := lineutil.Split(content)
	tpl := make([]string, 0, len(lines))

	for i, line := range lines {
		keep := func() {
			if req.Source {
				tpl = append(tpl, line)
			}
		}
		if lineutil.IsBlank(line) || codec.IsComment(line) || isSection(line) {
			keep()
			continue
		}

		e, ok := splitEntry(line)
		if !ok {
			res.Diagnostics.Add(i+1, handler.KindMalformedLine, "no '=' in %q", line)
			keep()
			continue
		}
		if strings.TrimSpace(e.value) == "" {
			keep()
			continue
		}

		hash, err := hashtag.Tag(e.key, "")
		if err != nil {
			res.Diagnostics.Add(i+1, handler.KindUnhashable, "%v", err)
			keep()
			continue
		}

		if req.Source {
			tpl = append(tpl, line[:e.start]+compiler.Placeholder(hash)+line[e.start+len(e.value):])
		} else {
			ok, err := req.Lookup.Exists(ctx, req.Resource, e.key)
			if err != nil {
				return nil, fmt.Errorf("looking up %q in %s: %w", e.key, req.Resource, err)
			}
			if !ok {
				continue
			}
		}

		if !res.Strings.Add(stringset.New(e.key, codec.Unescape(e.value))) {
			res.Diagnostics.Add(i+1, handler.KindDuplicateKey, "key %q already defined, keeping the first value", e.key)
		}
	}

	if req.Source {
		res.Template = lineutil.Join(tpl, res.LineSeparator, terminated)
	}
	return res, nil
}

// ---------------------------------------------------------------------------
// Compilation
// ---------------------------------------------------------------------------

// Compile fills template with the translations in target. The quotes of
// the original line are part of the template and come back unchanged.
// Untranslated entries take the source value and are commented out with
// the dialect's comment marker, so Joomla falls back to its default
// language for them.
func Compile(template string, target, source *stringset.StringSet) ([]byte, error) {
	dialect := DetectDialect(template)
	codec := Codec{Dialect: dialect}
	c := &compiler.Compiler{
		Resolve: compiler.FromStringSet(target, codec.Escape),
		Mark:    true,
	}
	if source != nil {
		c.Fallback = compiler.FromStringSet(source, codec.Escape)
	}
	out, err := c.Compile(template)
	if err != nil {
		return nil, err
	}
	return []byte(out.CommentMarked(dialect.CommentPrefix())), nil
}
