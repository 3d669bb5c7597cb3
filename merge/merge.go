// Package merge aligns a target-language collection with the current
// source collection, the way msgmerge aligns a PO file with its template.
package merge

import (
	"github.com/minios-linux/txfmt/stringset"
)

// Merge rebuilds target in source order.
//   - Units present in both keep the target translation.
//   - Source units missing from target are added untranslated.
//   - Target units no longer in source are kept as obsolete suggestions,
//     so a reviewer can still reuse them.
//
// Neither input is modified.
func Merge(source, target *stringset.StringSet) *stringset.StringSet {
	result := stringset.NewSet()

	for _, src := range source.Strings {
		if existing, ok := target.Get(src.ID()); ok {
			existing.Obsolete = false
			result.Add(existing)
			continue
		}
		result.Add(stringset.GenericTranslation{
			Source:     src.Source,
			Context:    src.Context,
			Rule:       src.Rule,
			Pluralized: src.Pluralized,
		})
	}

	if target == nil {
		return result
	}
	// A unit dropped from the source in this round supersedes an older
	// suggestion with the same identity.
	seen := make(map[stringset.Identity]bool, len(target.Suggestions))
	dropped := make(map[stringset.Identity]bool)
	for _, g := range target.Strings {
		if _, live := source.Get(g.ID()); !live && g.Translated() {
			dropped[g.ID()] = true
		}
	}
	for _, g := range target.Suggestions {
		if _, live := source.Get(g.ID()); live || seen[g.ID()] || dropped[g.ID()] {
			continue
		}
		seen[g.ID()] = true
		result.AddSuggestion(g)
	}
	for _, g := range target.Strings {
		if _, live := source.Get(g.ID()); live || seen[g.ID()] || !g.Translated() {
			continue
		}
		seen[g.ID()] = true
		g.Obsolete = true
		result.AddSuggestion(g)
	}
	return result
}
