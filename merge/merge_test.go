package merge

import (
	"reflect"
	"testing"

	"github.com/minios-linux/txfmt/stringset"
)

func set(pairs ...string) *stringset.StringSet {
	s := stringset.NewSet()
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Add(stringset.New(pairs[i], pairs[i+1]))
	}
	return s
}

func TestMergeKeepNewObsolete(t *testing.T) {
	source := set("keep", "Keep", "new", "New", "also", "Also")
	target := set("obsolete", "Obsolète", "keep", "Garder", "empty-gone", "")
	target.AddSuggestion(stringset.New("older", "Ancien"))

	merged := Merge(source, target)

	if got, want := merged.Sources(), []string{"keep", "new", "also"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Sources() = %v, want %v", got, want)
	}
	if g, _ := merged.Find("keep", ""); g.Translation != "Garder" {
		t.Errorf("keep = %q, want Garder", g.Translation)
	}
	if g, _ := merged.Find("new", ""); g.Translated() {
		t.Errorf("new = %q, want untranslated", g.Translation)
	}

	if len(merged.Suggestions) != 2 {
		t.Fatalf("Suggestions = %+v, want older and obsolete", merged.Suggestions)
	}
	if merged.Suggestions[0].Source != "older" {
		t.Errorf("first suggestion = %q, want older", merged.Suggestions[0].Source)
	}
	obs := merged.Suggestions[1]
	if obs.Source != "obsolete" || !obs.Obsolete || obs.Translation != "Obsolète" {
		t.Errorf("obsolete suggestion = %+v", obs)
	}

	if target.Strings[0].Obsolete {
		t.Error("Merge modified its input")
	}
}

func TestMergeRevivesSuggestionKeys(t *testing.T) {
	source := set("back", "Back")
	target := set()
	target.AddSuggestion(stringset.GenericTranslation{Source: "back", Translation: "Retour", Rule: stringset.RuleOther, Obsolete: true})

	merged := Merge(source, target)
	if len(merged.Suggestions) != 0 {
		t.Errorf("Suggestions = %+v, want none", merged.Suggestions)
	}
	if g, _ := merged.Find("back", ""); g.Translated() {
		t.Errorf("back = %q; suggestions are not applied automatically", g.Translation)
	}
}

func TestMergeNilTarget(t *testing.T) {
	merged := Merge(set("a", "A"), nil)
	if merged.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", merged.Len())
	}
}

func TestMergeDroppedUnitSupersedesSuggestion(t *testing.T) {
	source := set("a", "A")
	target := set("gone", "Nouveau")
	target.AddSuggestion(stringset.New("gone", "Ancien"))

	merged := Merge(source, target)
	if len(merged.Suggestions) != 1 {
		t.Fatalf("Suggestions = %+v, want one", merged.Suggestions)
	}
	if got := merged.Suggestions[0].Translation; got != "Nouveau" {
		t.Fatalf("suggestion = %q, want Nouveau", got)
	}
}
