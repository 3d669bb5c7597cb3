// Package lineutil holds the line-level primitives shared by the key/value
// format handlers: line separator discovery, comment detection, escape
// detection and key/value splitting.
package lineutil

import (
	"runtime"
	"strings"
)

// DefaultLineSeparator is used when the content contains no line break.
func DefaultLineSeparator() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// DetectLineSeparator returns "\r\n" or "\n" depending on the first line
// break found in content.
func DetectLineSeparator(content string) string {
	i := strings.IndexByte(content, '\n')
	switch {
	case i < 0:
		return DefaultLineSeparator()
	case i > 0 && content[i-1] == '\r':
		return "\r\n"
	default:
		return "\n"
	}
}

// Split breaks content into physical lines without their terminators.
// terminated reports whether the last line was followed by a line break,
// so that Join can reproduce the input exactly.
func Split(content string) (lines []string, terminated bool) {
	if content == "" {
		return nil, false
	}
	lines = strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
		terminated = true
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines, terminated
}

// Join is the inverse of Split for content using a single line separator.
func Join(lines []string, sep string, terminated bool) string {
	var b strings.Builder
	for i, l := range lines {
		b.WriteString(l)
		if i < len(lines)-1 || terminated {
			b.WriteString(sep)
		}
	}
	return b.String()
}

// IsBlank reports whether line holds only whitespace.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// IsComment reports whether line, ignoring leading whitespace, starts with
// one of the bytes in markers.
func IsComment(line, markers string) bool {
	trimmed := strings.TrimLeft(line, " \t\f")
	return trimmed != "" && strings.IndexByte(markers, trimmed[0]) >= 0
}

// IsEscaped reports whether the byte at index is escaped, i.e. preceded by
// an odd number of consecutive backslashes.
func IsEscaped(line string, index int) bool {
	n := 0
	for i := index - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// EndsWithContinuation reports whether line ends in a backslash that is not
// itself escaped.
func EndsWithContinuation(line string) bool {
	return line != "" && line[len(line)-1] == '\\' && !IsEscaped(line, len(line)-1)
}

// Pair is a line split into its key and value.
type Pair struct {
	Key string
	// Value is the raw (still escaped) value, empty when HasValue is false.
	Value string
	// ValueOffset is the byte offset of Value within the split line.
	ValueOffset int
	HasValue    bool
}

// SplitKeyValue splits line at the first unescaped byte from separators.
// Whitespace around the key is dropped and any run of separator bytes
// following the split point is stripped from the value. Without a
// separator the whole line is the key and the value is absent.
func SplitKeyValue(line, separators string) Pair {
	start := len(line) - len(strings.TrimLeft(line, " \t\f"))
	for i := start; i < len(line); i++ {
		if strings.IndexByte(separators, line[i]) < 0 || IsEscaped(line, i) {
			continue
		}
		rest := line[i+1:]
		value := strings.TrimLeft(rest, separators)
		return Pair{
			Key:         strings.TrimSpace(line[start:i]),
			Value:       value,
			ValueOffset: len(line) - len(value),
			HasValue:    true,
		}
	}
	return Pair{Key: strings.TrimSpace(line), ValueOffset: len(line)}
}
