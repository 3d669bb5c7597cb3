// Package handler defines the contract shared by the format handlers: the
// request a parse call receives, the result it returns, the diagnostics
// channel for per-line anomalies and the typed errors for file-level
// failures.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"

	"github.com/minios-linux/txfmt/stringset"
)

// Lookup answers whether a key is a known source entry of a resource.
// Implementations may block (database, network); the engine never
// retries a failed lookup.
type Lookup interface {
	Exists(ctx context.Context, resource, key string) (bool, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, resource, key string) (bool, error)

// Exists calls f.
func (f LookupFunc) Exists(ctx context.Context, resource, key string) (bool, error) {
	return f(ctx, resource, key)
}

// Codec is the per-format capability set used by the handlers.
type Codec interface {
	// Split splits a logical line into key and raw value.
	Split(line string) (key, value string, ok bool)
	Escape(s string) string
	Unescape(s string) string
	IsComment(line string) bool
}

// Request is the input of a parse call.
type Request struct {
	// Resource identifies the resource in the translation memory.
	Resource string
	// Language is a BCP 47 tag of the file's language.
	Language string
	// Content is the raw UTF-8 file content.
	Content []byte
	// Source selects source mode (template + source units) over target
	// mode (translated units only).
	Source bool
	// Lookup is consulted in target mode.
	Lookup Lookup
}

// Result is the output of a parse call.
type Result struct {
	Strings *stringset.StringSet
	// Template is empty in target mode.
	Template string
	// LineSeparator is the separator detected in the content.
	LineSeparator string
	// Dialect names the format version detected, when the format has
	// several. It is informational.
	Dialect     string
	Diagnostics Diagnostics
}

// ErrPrecondition is wrapped by every error returned by Validate.
var ErrPrecondition = errors.New("precondition failed")

// Validate checks the preconditions of a parse call: content must be
// present, the language must be a valid tag and target mode needs a
// resource and a lookup.
func (r *Request) Validate() error {
	if r.Content == nil {
		return fmt.Errorf("%w: no content", ErrPrecondition)
	}
	if strings.TrimSpace(r.Language) == "" {
		return fmt.Errorf("%w: no language", ErrPrecondition)
	}
	if _, err := language.Parse(r.Language); err != nil {
		return fmt.Errorf("%w: language %q: %v", ErrPrecondition, r.Language, err)
	}
	if !r.Source {
		if r.Resource == "" {
			return fmt.Errorf("%w: target mode needs a resource", ErrPrecondition)
		}
		if r.Lookup == nil {
			return fmt.Errorf("%w: target mode needs a translation memory lookup", ErrPrecondition)
		}
	}
	return nil
}

// DecodeContent validates and returns r.Content as a string. Invalid
// UTF-8 is reported as a ParseError on the first offending line.
func (r *Request) DecodeContent() (string, error) {
	if utf8.Valid(r.Content) {
		return string(r.Content), nil
	}
	line := 1
	for i := 0; i < len(r.Content); {
		c, size := utf8.DecodeRune(r.Content[i:])
		if c == utf8.RuneError && size <= 1 {
			break
		}
		if c == '\n' {
			line++
		}
		i += size
	}
	return "", &ParseError{Resource: r.Resource, Line: line, Err: ErrEncoding}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// ErrEncoding is wrapped by a ParseError for content that is not UTF-8.
var ErrEncoding = errors.New("content is not valid UTF-8")

// ParseError aborts the extraction of a file.
type ParseError struct {
	Resource string
	Line     int
	Err      error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse")
	if e.Resource != "" {
		b.WriteString(" ")
		b.WriteString(e.Resource)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// CompileError aborts the compilation of a template.
type CompileError struct {
	Hash string
	Err  error
}

func (e *CompileError) Error() string {
	if e.Hash != "" {
		return fmt.Sprintf("compile placeholder %s: %v", e.Hash, e.Err)
	}
	return "compile: " + e.Err.Error()
}

func (e *CompileError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

// Kind classifies a per-line anomaly.
type Kind string

const (
	KindMalformedLine Kind = "malformed-line"
	KindDuplicateKey  Kind = "duplicate-key"
	KindUnhashable    Kind = "unhashable-key"
	KindDanglingCont  Kind = "dangling-continuation"
)

// Diagnostic is a recovered per-line anomaly. The offending line was
// skipped or kept verbatim; extraction continued.
type Diagnostic struct {
	Line    int
	Kind    Kind
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Kind, d.Message)
}

// Diagnostics collects the anomalies of one call.
type Diagnostics []Diagnostic

// Add records an anomaly.
func (d *Diagnostics) Add(line int, kind Kind, format string, args ...any) {
	*d = append(*d, Diagnostic{Line: line, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Count returns the number of diagnostics of the given kind.
func (d Diagnostics) Count(kind Kind) int {
	n := 0
	for _, x := range d {
		if x.Kind == kind {
			n++
		}
	}
	return n
}
