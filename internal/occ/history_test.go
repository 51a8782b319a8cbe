package occ

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryConflictsWithinHalfOpenRange(t *testing.T) {
	h := newHistory[string]()
	h.append(5, writtenKeys[string]{"a": {}})
	h.append(10, writtenKeys[string]{"b": {}})

	// commit_ts 10 is excluded by the half-open upper bound.
	assert.False(t, h.conflictsWith(5, 10, map[string]struct{}{"b": {}}))
	// commit_ts 5 is included: startTs is the lower inclusive bound.
	assert.True(t, h.conflictsWith(5, 11, map[string]struct{}{"a": {}}))
	// disjoint keys never conflict.
	assert.False(t, h.conflictsWith(5, 11, map[string]struct{}{"c": {}}))
}

func TestHistoryEmptyReadSetNeverConflicts(t *testing.T) {
	h := newHistory[string]()
	h.append(1, writtenKeys[string]{"a": {}})
	assert.False(t, h.conflictsWith(0, 100, map[string]struct{}{}))
}

func TestHistoryPruneBelowRetainsFloorAndAbove(t *testing.T) {
	h := newHistory[string]()
	for _, ts := range []uint64{1, 2, 3, 4, 5} {
		h.append(ts, writtenKeys[string]{"k": {}})
	}

	pruned := h.pruneBelow(3)
	assert.Equal(t, 2, pruned)
	assert.Equal(t, 3, h.len())

	// Records at ts 1 and 2 are gone, but 3, 4, 5 survive and still
	// conflict when the read set's key overlaps their write set,
	// regardless of whether the query's own start is below the floor.
	assert.True(t, h.conflictsWith(1, 10, map[string]struct{}{"k": {}}))
	assert.True(t, h.conflictsWith(3, 10, map[string]struct{}{"k": {}}))
	assert.False(t, h.conflictsWith(6, 10, map[string]struct{}{"k": {}}))
}
