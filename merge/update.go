package merge

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"
)

// ErrStaleUpdate signals the concurrent-update conflict named in the
// review workflow's open question: a second proposed update was approved
// against the same record after this one's diff was computed, and at
// least one field this update assumed was unchanged no longer matches the
// record's current data.
var ErrStaleUpdate = fmt.Errorf("merge: proposed update conflicts with a more recent approved change")

// ApplyUpdate merges a proposed update into a record's current data.
// Before merging, every field the update's diff recorded as "unchanged"
// relative to the data it was computed against is re-checked against
// currentData: if any of them drifted (another update was approved in the
// meantime), ApplyUpdate refuses with ErrStaleUpdate rather than silently
// clobbering the intervening change.
//
// The returned map is an independent deep copy of proposedNewData so the
// caller can persist it without aliasing the ProposedUpdate's own record.
func ApplyUpdate(currentData map[string]any, diff Diff, proposedNewData map[string]any) (map[string]any, error) {
	for field, expected := range diff.Unchanged {
		if actual, ok := currentData[field]; !ok || !valuesEqual(actual, expected) {
			return nil, ErrStaleUpdate
		}
	}

	var merged map[string]any
	if err := deepcopy.Copy(&merged, proposedNewData); err != nil {
		return nil, fmt.Errorf("merge: snapshotting new data: %w", err)
	}
	return merged, nil
}
