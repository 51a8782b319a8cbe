package occ

import "github.com/tidwall/btree"

// writtenKeys is the set of keys a committed transaction wrote. Only
// the keys matter here — the values already live in the store.
type writtenKeys[K comparable] map[K]struct{}

// history is the ordered commit_ts -> write-set mapping used to
// detect conflicts against recently committed transactions.
type history[K comparable] struct {
	records btree.Map[uint64, writtenKeys[K]]
}

func newHistory[K comparable]() *history[K] {
	return &history[K]{}
}

func (h *history[K]) append(commitTs uint64, keys writtenKeys[K]) {
	h.records.Set(commitTs, keys)
}

// conflictsWith reports whether any record with commitTs in the
// half-open range [startTs, beforeTs) wrote a key present in readSet.
func (h *history[K]) conflictsWith(startTs, beforeTs uint64, readSet map[K]struct{}) bool {
	if len(readSet) == 0 {
		return false
	}
	iter := h.records.Iter()
	for ok := iter.Seek(startTs); ok; ok = iter.Next() {
		ts := iter.Key()
		if ts >= beforeTs {
			break
		}
		for k := range iter.Value() {
			if _, read := readSet[k]; read {
				return true
			}
		}
	}
	return false
}

// pruneBelow deletes every record with commitTs strictly less than
// floor and returns the number removed.
func (h *history[K]) pruneBelow(floor uint64) int {
	var doomed []uint64
	iter := h.records.Iter()
	for ok := iter.First(); ok; ok = iter.Next() {
		if iter.Key() >= floor {
			break
		}
		doomed = append(doomed, iter.Key())
	}
	for _, ts := range doomed {
		h.records.Delete(ts)
	}
	return len(doomed)
}

func (h *history[K]) len() int {
	return h.records.Len()
}
