// Package format selects a handler by file format. The supported formats
// are a closed set; dispatch happens here rather than through a registry.
package format

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/minios-linux/txfmt/handler"
	"github.com/minios-linux/txfmt/inifile"
	"github.com/minios-linux/txfmt/propfile"
	"github.com/minios-linux/txfmt/stringset"
)

// Format identifies a file format.
type Format int

const (
	Unknown Format = iota
	Properties
	JoomlaINI
)

var names = map[Format]string{
	Properties: "properties",
	JoomlaINI:  "joomla-ini",
}

func (f Format) String() string {
	if n, ok := names[f]; ok {
		return n
	}
	return "unknown"
}

// Parse returns the format with the given name. "ini" and "joomla" are
// accepted as aliases of "joomla-ini".
func Parse(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "properties", "java-properties":
		return Properties, nil
	case "joomla-ini", "joomla", "ini":
		return JoomlaINI, nil
	}
	return Unknown, fmt.Errorf("unknown format %q", name)
}

// FromPath guesses the format from a file extension.
func FromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".properties":
		return Properties, nil
	case ".ini":
		return JoomlaINI, nil
	}
	return Unknown, fmt.Errorf("cannot tell format of %s", path)
}

// Codec returns the line codec of f. For Joomla the 1.6 dialect is
// assumed; handlers detect the actual dialect from the content.
func (f Format) Codec() (handler.Codec, error) {
	switch f {
	case Properties:
		return propfile.Codec{}, nil
	case JoomlaINI:
		return inifile.Codec{Dialect: inifile.Current}, nil
	}
	return nil, fmt.Errorf("no codec for format %s", f)
}

// Extract parses content with the handler of f.
func Extract(ctx context.Context, f Format, req handler.Request) (*handler.Result, error) {
	switch f {
	case Properties:
		return propfile.Parse(ctx, req)
	case JoomlaINI:
		return inifile.Parse(ctx, req)
	}
	return nil, fmt.Errorf("%w: unsupported format %s", handler.ErrPrecondition, f)
}

// Compile fills template with the handler of f.
func Compile(f Format, template string, target, source *stringset.StringSet) ([]byte, error) {
	switch f {
	case Properties:
		return propfile.Compile(template, target, source)
	case JoomlaINI:
		return inifile.Compile(template, target, source)
	}
	return nil, &handler.CompileError{Err: fmt.Errorf("unsupported format %s", f)}
}
