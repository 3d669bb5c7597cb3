// Package propfile implements the Java .properties format handler.
//
// Format: key/value pairs, one logical line each. The key ends at the first
// unescaped space, tab, form feed, '=' or ':'; any run of those characters
// after it is skipped. Lines starting with '#' or '!' are comments. A line
// whose last character is an unescaped backslash continues on the next
// physical line, whose leading whitespace is dropped.
//
// In source mode Parse returns a template: the original file with every
// non-empty value replaced by a placeholder. Compile fills the template
// with the translations of a target language; entries without one are
// written with the source value and commented out:
//
//	greeting=Hello          (source)
//	greeting=<hash>_tr      (template)
//	greeting=Bonjour        (compiled, translated)
//	# greeting=Hello        (compiled, untranslated)
package propfile

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

// Separators are the bytes that may end a key.
const Separators = " \t\f=:"

// CommentChars start a comment line.
const CommentChars = "#!"

// CommentPrefix is written in front of untranslated entries on compile.
const CommentPrefix = "# "

// ---------------------------------------------------------------------------
// Codec
// ---------------------------------------------------------------------------

// Codec implements handler.Codec for .properties files.
type Codec struct{}

var _ handler.Codec = Codec{}

// Split splits a logical line into its key and raw value.
func (Codec) Split(line string) (string, string, bool) {
	p := lineutil.SplitKeyValue(line, Separators)
	return p.Key, p.Value, p.HasValue
}

// Escape escapes backslashes, then ':' and '=', the way Java's
// Properties.store does for values.
func (Codec) Escape(s string) string { return Escape(s) }

// Unescape reverses Escape.
func (Codec) Unescape(s string) string { return Unescape(s) }

// IsComment reports whether line is a comment line.
func (Codec) IsComment(line string) bool { return lineutil.IsComment(line, CommentChars) }

var escaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`, `=`, `\=`)

// Escape escapes s for use as a value.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape collapses the escape pairs `\\`, `\:` and `\=` in a single left
// to right scan. A backslash followed by anything else is kept as is, so
// Escape(Unescape(v)) == v only holds for values written by Escape.
func Unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\', ':', '=':
				b.WriteByte(s[i+1])
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// Parse extracts the units of a .properties file. In source mode it also
// builds the template; in target mode entries whose key the lookup does
// not know, or whose value is empty, are dropped.
func Parse(ctx context.Context, req handler.Request) (*handler.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	content, err := req.DecodeContent()
	if err != nil {
		return nil, err
	}

	res := &handler.Result{
		Strings:       stringset.NewSet(),
		LineSeparator: lineutil.DetectLineSeparator(content),
	}
	lines, terminated := lineutil.Split(content)
	var tpl []string
	codec := Codec{}

	for i := 0; i < len(lines); i++ {
		raw, first := lines[i], i

		if lineutil.IsBlank(raw) || codec.IsComment(raw) {
			if req.Source {
				tpl = append(tpl, raw)
			}
			continue
		}

		logical := raw
		for lineutil.EndsWithContinuation(logical) {
			logical = logical[:len(logical)-1]
			if i+1 >= len(lines) {
				res.Diagnostics.Add(i+1, handler.KindDanglingCont, "continuation at end of file")
				break
			}
			i++
			logical += strings.TrimLeft(lines[i], " \t\f")
		}

		pair := lineutil.SplitKeyValue(logical, Separators)
		value := trimValue(pair.Value)

		if value == "" {
			// Keys without a value are never shown to translators.
			if req.Source {
				tpl = append(tpl, lines[first:i+1]...)
			}
			continue
		}

		hash, err := hashtag.Tag(pair.Key, "")
		if err != nil {
			res.Diagnostics.Add(first+1, handler.KindUnhashable, "%v", err)
			if req.Source {
				tpl = append(tpl, lines[first:i+1]...)
			}
			continue
		}

		if req.Source {
			tpl = append(tpl, logical[:pair.ValueOffset]+
				compiler.Placeholder(hash)+
				logical[pair.ValueOffset+len(value):])
		} else {
			ok, err := req.Lookup.Exists(ctx, req.Resource, pair.Key)
			if err != nil {
				return nil, fmt.Errorf("looking up %q in %s: %w", pair.Key, req.Resource, err)
			}
			if !ok {
				continue
			}
		}

		if !res.Strings.Add(stringset.New(pair.Key, codec.Unescape(value))) {
			res.Diagnostics.Add(first+1, handler.KindDuplicateKey, "key %q already defined, keeping the first value", pair.Key)
		}
	}

	if req.Source {
		res.Template = lineutil.Join(tpl, res.LineSeparator, terminated)
	}
	return res, nil
}

// trimValue drops unescaped trailing whitespace.
func trimValue(v string) string {
	end := len(v)
	for end > 0 && strings.IndexByte(" \t\f", v[end-1]) >= 0 && !lineutil.IsEscaped(v, end-1) {
		end--
	}
	return v[:end]
}

// ---------------------------------------------------------------------------
// Compilation
// ---------------------------------------------------------------------------

// Compile fills template with the translations in target. Placeholders
// without a translation take their value from source (when given) and the
// whole line is commented out. With a non-nil source, a placeholder that
// neither collection knows is a *handler.CompileError.
func Compile(template string, target, source *stringset.StringSet) ([]byte, error) {
	c := &compiler.Compiler{
		Resolve: compiler.FromStringSet(target, Escape),
		Mark:    true,
	}
	if source != nil {
		c.Fallback = compiler.FromStringSet(source, Escape)
	}
	out, err := c.Compile(template)
	if err != nil {
		return nil, err
	}
	return []byte(out.CommentMarked(CommentPrefix)), nil
}
