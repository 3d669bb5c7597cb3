// Package hashtag derives the placeholder identifiers that stand in for
// translatable values inside a template.
//
// A tag is the MD5 hex digest of the (key, context) pair. Both halves are
// escaped before they are joined with ':' so that different pairs never
// encode to the same digest input ("a:b"+"" and "a"+"b" stay distinct).
// The output alphabet is [0-9a-f], which no supported format treats as a
// separator, quote or escape character.
package hashtag

import (
	"crypto/md5"
	"errors"
	"fmt"
	"strings"
)

// Len is the length of every tag returned by Tag.
const Len = 32

// ErrControlChar is returned when a key or context holds a NUL byte or a
// control character that cannot appear in a well-formed line.
var ErrControlChar = errors.New("control character in hashed string")

var pairEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`)

// Tag returns the placeholder identifier for key within context.
func Tag(key, context string) (string, error) {
	if err := check(key); err != nil {
		return "", fmt.Errorf("key %q: %w", key, err)
	}
	if err := check(context); err != nil {
		return "", fmt.Errorf("context %q: %w", context, err)
	}
	sum := md5.Sum([]byte(pairEscaper.Replace(key) + ":" + pairEscaper.Replace(context)))
	return fmt.Sprintf("%x", sum), nil
}

// IsTag reports whether s has the shape of a tag produced by Tag.
func IsTag(s string) bool {
	if len(s) != Len {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !IsTagByte(s[i]) {
			return false
		}
	}
	return true
}

// IsTagByte reports whether c belongs to the tag alphabet.
func IsTagByte(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

// check rejects C0 controls except tab and form feed, which are legal
// (escaped) inside .properties keys.
func check(s string) error {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 && c != '\t' && c != '\f' {
			return ErrControlChar
		}
		if c == 0x7f {
			return ErrControlChar
		}
	}
	return nil
}
