// Package langmeta resolves display metadata (names and emoji flags) for
// language codes used in resource configuration and CLI output.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Name is the language name in the interface language.
	Name string
	// Native is the language name in the language itself.
	Native string
	// Flag is the emoji flag of the language's most likely region.
	Flag string
}

// Label returns "Name (Native)", or just Name when both are equal.
func (m Meta) Label() string {
	if m.Native == "" || m.Native == m.Name {
		return m.Name
	}
	return m.Name + " (" + m.Native + ")"
}

// canonicalize turns "pt_br" or " EN-us " into "pt-BR" / "en-US".
// Codes that are not valid BCP 47 are returned trimmed.
func canonicalize(lang string) string {
	lang = strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	return tag.String()
}

// Resolve returns the metadata of lang with names given in the language
// in. Unknown codes resolve to the code itself with no flag.
func Resolve(lang string, in language.Tag) Meta {
	code := canonicalize(lang)
	tag, err := language.Parse(code)
	if err != nil {
		return Meta{Name: code}
	}

	m := Meta{
		Name:   display.Tags(in).Name(tag),
		Native: display.Self.Name(tag),
	}
	if m.Name == "" {
		m.Name = code
	}
	if region, conf := tag.Region(); conf != language.No {
		m.Flag = flagFromRegion(region.String())
	}
	return m
}

// flagFromRegion converts a two-letter region code into its pair of
// regional indicator symbols.
func flagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	var b strings.Builder
	for _, c := range strings.ToUpper(region) {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (c - 'A'))
	}
	return b.String()
}
