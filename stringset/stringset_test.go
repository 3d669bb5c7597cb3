package stringset

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	g := New("greeting", "Hello")
	if g.Rule != RuleOther {
		t.Errorf("Rule = %v, want other", g.Rule)
	}
	if g.Pluralized || g.Fuzzy || g.Obsolete {
		t.Errorf("flags set on default unit: %+v", g)
	}

	p := New("files", "%d files", WithRule(RuleMany), WithContext("menu"), Fuzzy())
	if !p.Pluralized || p.Rule != RuleMany || p.Context != "menu" || !p.Fuzzy {
		t.Errorf("options not applied: %+v", p)
	}
}

func TestPluralRuleString(t *testing.T) {
	if got := RuleFew.String(); got != "few" {
		t.Errorf("RuleFew.String() = %q, want few", got)
	}
	if got := PluralRule(9).String(); got != "rule(9)" {
		t.Errorf("PluralRule(9).String() = %q, want rule(9)", got)
	}
}

func TestAddKeepsOrderAndRejectsDuplicates(t *testing.T) {
	s := NewSet()
	if !s.Add(New("b", "B")) || !s.Add(New("a", "A")) {
		t.Fatal("Add of fresh units returned false")
	}
	if s.Add(New("b", "other")) {
		t.Fatal("Add of duplicate identity returned true")
	}
	if !s.Add(New("b", "ctx", WithContext("x"))) {
		t.Fatal("Add of same source in other context returned false")
	}

	want := []string{"b", "a", "b"}
	if got := s.Sources(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Sources() = %v, want %v", got, want)
	}
	if g, _ := s.Find("b", ""); g.Translation != "B" {
		t.Fatalf("Find(b) translation = %q, want first value B", g.Translation)
	}
}

func TestFindOnNilSet(t *testing.T) {
	var s *StringSet
	if _, ok := s.Find("a", ""); ok {
		t.Fatal("Find on nil set reported a hit")
	}
	if s.Len() != 0 {
		t.Fatal("Len on nil set != 0")
	}
}

func TestCoverage(t *testing.T) {
	src := NewSet()
	src.Add(New("a", "A"))
	src.Add(New("b", "B"))
	src.Add(New("c", "C"))
	src.Add(New("d", "D"))

	target := NewSet()
	target.Add(New("a", "Á"))
	target.Add(New("b", ""))
	target.Add(New("c", "Ç"))
	target.Add(New("zz", "unknown"))

	total, translated, pct := src.Coverage(target)
	if total != 4 || translated != 2 || pct != 50 {
		t.Fatalf("Coverage() = %d, %d, %v; want 4, 2, 50", total, translated, pct)
	}
}

func TestWriteAndReadFile(t *testing.T) {
	s := NewSet()
	s.Add(New("greeting", "Bonjour"))
	s.Add(New("colon", "a:b", WithContext("menu")))
	s.AddSuggestion(New("gone", "Parti"))

	path := filepath.Join(t.TempDir(), "units", "app.fr.yaml")
	if err := s.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !reflect.DeepEqual(got.Strings, s.Strings) {
		t.Fatalf("Strings = %+v, want %+v", got.Strings, s.Strings)
	}
	if len(got.Suggestions) != 1 || got.Suggestions[0].Source != "gone" {
		t.Fatalf("Suggestions = %+v", got.Suggestions)
	}
	if g, ok := got.Find("colon", "menu"); !ok || g.Translation != "a:b" {
		t.Fatalf("Find after load = %+v, %v", g, ok)
	}
	if got.Add(New("greeting", "dup")) {
		t.Fatal("index not rebuilt after load")
	}
}
