// Package merge implements the Merge Engine (C6): given a newly extracted
// record and any existing approved record with the same primary key, it
// computes a structured diff and, on review, applies or rejects it.
package merge

import (
	"fmt"

	"github.com/jokari/knowledgehub/schema"
)

// Diff is a structured comparison between an existing approved record's
// data and a newly extracted candidate's data.
type Diff struct {
	Added     map[string]any       `json:"added"`
	Removed   map[string]any       `json:"removed"`
	Changed   map[string]FieldDiff `json:"changed"`
	Unchanged map[string]any       `json:"unchanged"`
}

// FieldDiff is the old/new pair for one changed field.
type FieldDiff struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// ComputeDiff compares oldData (an existing approved record) against
// newData (a freshly extracted candidate) field by field. Unlike a
// generic deep-diff library, equality for list-valued fields is
// order-independent, matching DeepDiff(ignore_order=True)'s treatment of
// unordered collections such as the stub extractor's "kabeltypen" field.
func ComputeDiff(oldData, newData map[string]any) Diff {
	diff := Diff{
		Added:     map[string]any{},
		Removed:   map[string]any{},
		Changed:   map[string]FieldDiff{},
		Unchanged: map[string]any{},
	}

	seen := map[string]bool{}
	for field := range oldData {
		seen[field] = true
	}
	for field := range newData {
		seen[field] = true
	}

	for field := range seen {
		oldVal, inOld := oldData[field]
		newVal, inNew := newData[field]

		switch {
		case inOld && !inNew:
			diff.Removed[field] = oldVal
		case !inOld && inNew:
			diff.Added[field] = newVal
		case valuesEqual(oldVal, newVal):
			diff.Unchanged[field] = oldVal
		default:
			diff.Changed[field] = FieldDiff{Old: oldVal, New: newVal}
		}
	}

	return diff
}

func valuesEqual(a, b any) bool {
	aList, aIsList := a.([]any)
	bList, bIsList := b.([]any)
	if aIsList && bIsList {
		return unorderedEqual(aList, bList)
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func unorderedEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[string]int{}
	for _, v := range a {
		counts[fmt.Sprintf("%v", v)]++
	}
	for _, v := range b {
		key := fmt.Sprintf("%v", v)
		if counts[key] == 0 {
			return false
		}
		counts[key]--
	}
	return true
}

// PrimaryKey derives the lookup key a new candidate's data would use to
// find a prior approved record of the same schema.
func PrimaryKey(desc *schema.Descriptor, data map[string]any) string {
	return desc.ComputePrimaryKey(data)
}
