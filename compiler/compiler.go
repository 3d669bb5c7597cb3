// Package compiler substitutes translations into templates.
//
// A template is the original file with every translatable value replaced
// by a placeholder token "<hash>_tr", where hash is a hashtag.Tag. The
// compiler walks the template once, left to right, and replaces each
// token with the resolved text. Tokens without a translation receive the
// fallback text followed by the Sentinel; a format's post-compile pass
// (CommentMarked) then turns those lines into comments.
package compiler

import (
	"errors"
	"sort"
	"strings"

	"github.com/minios-linux/txfmt/handler"
	"github.com/minios-linux/txfmt/hashtag"
	"github.com/minios-linux/txfmt/stringset"
)

// Suffix terminates every placeholder token.
const Suffix = "_tr"

// Sentinel marks text substituted for an untranslated token.
const Sentinel = "_txss"

// ErrUnresolved is returned for a token neither Resolve nor Fallback knows.
var ErrUnresolved = errors.New("unresolvable placeholder")

// Placeholder returns the template token for hash.
func Placeholder(hash string) string {
	return hash + Suffix
}

// ResolveFunc maps a hash to its replacement text.
type ResolveFunc func(hash string) (string, bool)

// Compiler holds the resolution strategy for one compile call.
type Compiler struct {
	// Resolve returns the translated text of a token.
	Resolve ResolveFunc
	// Fallback returns the text used when Resolve has none, typically the
	// source-language value. A nil Fallback substitutes an empty string.
	Fallback ResolveFunc
	// Mark appends Sentinel after every fallback substitution.
	Mark bool
}

// Output is a compiled template.
type Output struct {
	Text string
	// marks holds the byte offsets of the sentinels written into Text.
	marks []int
	// Unresolved lists the hashes that fell back, in template order.
	Unresolved []string
}

// Compile replaces every placeholder token in template.
func (c *Compiler) Compile(template string) (*Output, error) {
	out := &Output{}
	var b strings.Builder
	b.Grow(len(template))

	i := 0
	for {
		j := nextToken(template, i)
		if j < 0 {
			b.WriteString(template[i:])
			break
		}
		b.WriteString(template[i:j])
		hash := template[j : j+hashtag.Len]
		i = j + hashtag.Len + len(Suffix)

		if text, ok := c.resolve(hash); ok {
			b.WriteString(text)
			continue
		}
		text := ""
		if c.Fallback != nil {
			var ok bool
			if text, ok = c.Fallback(hash); !ok {
				return nil, &handler.CompileError{Hash: hash, Err: ErrUnresolved}
			}
		}
		b.WriteString(text)
		out.Unresolved = append(out.Unresolved, hash)
		if c.Mark {
			out.marks = append(out.marks, b.Len())
			b.WriteString(Sentinel)
		}
	}
	out.Text = b.String()
	return out, nil
}

func (c *Compiler) resolve(hash string) (string, bool) {
	if c.Resolve == nil {
		return "", false
	}
	return c.Resolve(hash)
}

// nextToken returns the offset of the first token at or after from, or -1.
// A token is exactly hashtag.Len tag bytes followed by Suffix and not
// preceded by another tag byte.
func nextToken(s string, from int) int {
	for {
		k := strings.Index(s[from:], Suffix)
		if k < 0 {
			return -1
		}
		end := from + k
		start := end - hashtag.Len
		if start >= from && hashtag.IsTag(s[start:end]) && (start == 0 || !hashtag.IsTagByte(s[start-1])) {
			return start
		}
		from = end + 1
	}
}

// CommentMarked is the post-compile pass for untranslated entries: every
// line holding a sentinel written by Compile loses the sentinel and is
// prefixed with prefix.
func (o *Output) CommentMarked(prefix string) string {
	if len(o.marks) == 0 {
		return o.Text
	}
	marks := append([]int(nil), o.marks...)
	sort.Ints(marks)

	var b strings.Builder
	b.Grow(len(o.Text) + len(marks)*len(prefix))
	lineStart, m := 0, 0
	for lineStart <= len(o.Text) {
		lineEnd := strings.IndexByte(o.Text[lineStart:], '\n')
		if lineEnd < 0 {
			lineEnd = len(o.Text)
		} else {
			lineEnd += lineStart
		}

		first := m
		for m < len(marks) && marks[m] < lineEnd {
			m++
		}
		if first == m {
			b.WriteString(o.Text[lineStart:lineEnd])
		} else {
			b.WriteString(prefix)
			pos := lineStart
			for _, at := range marks[first:m] {
				b.WriteString(o.Text[pos:at])
				pos = at + len(Sentinel)
			}
			b.WriteString(o.Text[pos:lineEnd])
		}

		if lineEnd == len(o.Text) {
			break
		}
		b.WriteByte('\n')
		lineStart = lineEnd + 1
	}
	return b.String()
}

// FromStringSet returns a ResolveFunc over the translated units of set,
// keyed by the tag of (source, context) and passed through escape.
func FromStringSet(set *stringset.StringSet, escape func(string) string) ResolveFunc {
	m := make(map[string]string, set.Len())
	if set != nil {
		for _, g := range set.Strings {
			if !g.Translated() {
				continue
			}
			hash, err := hashtag.Tag(g.Source, g.Context)
			if err != nil {
				continue
			}
			if _, dup := m[hash]; !dup {
				m[hash] = escape(g.Translation)
			}
		}
	}
	return func(hash string) (string, bool) {
		v, ok := m[hash]
		return v, ok
	}
}
