// Package stringset models the output of a format handler: an ordered,
// append-only collection of translation units.
//
// A unit's identity is (source, context, rule). Units are stored by value,
// so a collection never hands out a pointer that could change a unit after
// it was added.
package stringset

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Units
// ---------------------------------------------------------------------------

// PluralRule is the CLDR plural category index of a unit.
type PluralRule int

const (
	RuleZero PluralRule = iota
	RuleOne
	RuleTwo
	RuleFew
	RuleMany
	RuleOther
)

var ruleNames = [...]string{"zero", "one", "two", "few", "many", "other"}

func (r PluralRule) String() string {
	if r < RuleZero || r > RuleOther {
		return fmt.Sprintf("rule(%d)", int(r))
	}
	return ruleNames[r]
}

// GenericTranslation is one source/translation pair. For key/value formats
// the source is the key and the translation is the value found in the file.
// An empty Translation means the unit is untranslated.
type GenericTranslation struct {
	Source      string     `yaml:"source"`
	Translation string     `yaml:"translation,omitempty"`
	Context     string     `yaml:"context,omitempty"`
	Rule        PluralRule `yaml:"rule"`
	Pluralized  bool       `yaml:"pluralized,omitempty"`
	Fuzzy       bool       `yaml:"fuzzy,omitempty"`
	Obsolete    bool       `yaml:"obsolete,omitempty"`
}

// Option customises a unit built by New.
type Option func(*GenericTranslation)

// WithContext sets the unit context.
func WithContext(ctx string) Option {
	return func(g *GenericTranslation) { g.Context = ctx }
}

// WithRule sets the plural rule and marks the unit as pluralized unless the
// rule is RuleOther.
func WithRule(r PluralRule) Option {
	return func(g *GenericTranslation) {
		g.Rule = r
		g.Pluralized = r != RuleOther
	}
}

// Fuzzy marks the unit as fuzzy.
func Fuzzy() Option {
	return func(g *GenericTranslation) { g.Fuzzy = true }
}

// New builds a unit. The rule defaults to RuleOther, as for every
// non-plural string.
func New(source, translation string, opts ...Option) GenericTranslation {
	g := GenericTranslation{Source: source, Translation: translation, Rule: RuleOther}
	for _, o := range opts {
		o(&g)
	}
	return g
}

// Identity is the tuple that makes a unit unique within a collection.
type Identity struct {
	Source  string
	Context string
	Rule    PluralRule
}

// ID returns the identity of g.
func (g GenericTranslation) ID() Identity {
	return Identity{Source: g.Source, Context: g.Context, Rule: g.Rule}
}

// Translated reports whether g carries a non-empty translation.
func (g GenericTranslation) Translated() bool {
	return g.Translation != ""
}

// ---------------------------------------------------------------------------
// Collection
// ---------------------------------------------------------------------------

// StringSet is an ordered collection of units plus the suggestions that
// were set aside while merging.
//
// A StringSet is not safe for concurrent use.
type StringSet struct {
	Strings     []GenericTranslation `yaml:"strings"`
	Suggestions []GenericTranslation `yaml:"suggestions,omitempty"`

	index map[Identity]int
}

// NewSet returns an empty collection.
func NewSet() *StringSet {
	return &StringSet{index: make(map[Identity]int)}
}

func (s *StringSet) ensureIndex() {
	if s.index != nil {
		return
	}
	s.index = make(map[Identity]int, len(s.Strings))
	for i, g := range s.Strings {
		if _, dup := s.index[g.ID()]; !dup {
			s.index[g.ID()] = i
		}
	}
}

// Add appends g. It returns false, leaving the collection unchanged, when
// a unit with the same identity is already present.
func (s *StringSet) Add(g GenericTranslation) bool {
	s.ensureIndex()
	if _, ok := s.index[g.ID()]; ok {
		return false
	}
	s.index[g.ID()] = len(s.Strings)
	s.Strings = append(s.Strings, g)
	return true
}

// AddSuggestion appends g to the suggestions.
func (s *StringSet) AddSuggestion(g GenericTranslation) {
	s.Suggestions = append(s.Suggestions, g)
}

// Len returns the number of units, suggestions excluded.
func (s *StringSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Strings)
}

// Get returns the unit with the given identity.
func (s *StringSet) Get(id Identity) (GenericTranslation, bool) {
	if s == nil {
		return GenericTranslation{}, false
	}
	s.ensureIndex()
	i, ok := s.index[id]
	if !ok {
		return GenericTranslation{}, false
	}
	return s.Strings[i], true
}

// Find returns the non-plural unit for source within context.
func (s *StringSet) Find(source, context string) (GenericTranslation, bool) {
	return s.Get(Identity{Source: source, Context: context, Rule: RuleOther})
}

// Sources returns the unit sources in order.
func (s *StringSet) Sources() []string {
	out := make([]string, 0, s.Len())
	for _, g := range s.Strings {
		out = append(out, g.Source)
	}
	return out
}

// Coverage returns (total, translated, percentTranslated) of s measured
// against target: a unit of s counts as translated when target holds a
// translated unit with the same identity.
func (s *StringSet) Coverage(target *StringSet) (int, int, float64) {
	total, translated := s.Len(), 0
	for _, g := range s.Strings {
		if tg, ok := target.Get(g.ID()); ok && tg.Translated() {
			translated++
		}
	}
	pct := 0.0
	if total > 0 {
		pct = float64(translated) / float64(total) * 100
	}
	return total, translated, pct
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

// Marshal encodes s as YAML.
func (s *StringSet) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encoding stringset: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding stringset: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a collection written by Marshal.
func Unmarshal(data []byte) (*StringSet, error) {
	s := &StringSet{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decoding stringset: %w", err)
	}
	s.ensureIndex()
	return s, nil
}

// ReadFile loads a collection from path.
func ReadFile(path string) (*StringSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	s, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// WriteFile serialises s to path, creating parent directories with 0755
// permissions.
func (s *StringSet) WriteFile(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
