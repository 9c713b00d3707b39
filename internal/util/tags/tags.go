package tags

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Separator is the separator Proxmox uses when storing guest tags.
const Separator = ";"

// Parse splits a Proxmox tag string. Both ';' and ',' separators are
// accepted, blanks are trimmed and empty entries dropped. Order is kept.
func Parse(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == ','
	})
	out := make([]string, 0, len(fields))
	seen := sets.New[string]()
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || seen.Has(f) {
			continue
		}
		seen.Insert(f)
		out = append(out, f)
	}
	return out
}

// Join renders tags in the form Proxmox stores them.
func Join(tags []string) string {
	return strings.Join(tags, Separator)
}

// Delta returns the tags to add (in desired order) and to remove
// (in old order) to turn old into desired. Tags in both are untouched.
func Delta(old, desired []string) (added, removed []string) {
	oldSet := sets.New(old...)
	desiredSet := sets.New(desired...)

	for _, t := range desired {
		if !oldSet.Has(t) {
			added = appendUnique(added, t)
		}
	}
	for _, t := range old {
		if !desiredSet.Has(t) {
			removed = appendUnique(removed, t)
		}
	}
	return added, removed
}

// Apply subtracts removed from current and then unions added, keeping the
// order of current and appending new tags at the end.
func Apply(current, added, removed []string) []string {
	drop := sets.New(removed...)
	result := make([]string, 0, len(current)+len(added))
	have := sets.New[string]()

	for _, t := range current {
		if drop.Has(t) || have.Has(t) {
			continue
		}
		have.Insert(t)
		result = append(result, t)
	}
	for _, t := range added {
		if have.Has(t) {
			continue
		}
		have.Insert(t)
		result = append(result, t)
	}
	return result
}

// Union merges extra into current without duplicates.
func Union(current, extra []string) []string {
	return Apply(current, extra, nil)
}

// Equal reports whether two tag lists hold the same set.
func Equal(a, b []string) bool {
	return sets.New(a...).Equal(sets.New(b...))
}

func appendUnique(list []string, t string) []string {
	for _, existing := range list {
		if existing == t {
			return list
		}
	}
	return append(list, t)
}
