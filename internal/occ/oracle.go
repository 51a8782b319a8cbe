package occ

import "sync"

// liveEntry is the minimal view the Oracle needs of a live
// transaction: its lazily-assigned start timestamp, 0 meaning not yet
// assigned. Declared as a plain interface rather than parameterizing
// Oracle over a value type lets a single Oracle[K] track transactions
// of any V.
type liveEntry interface {
	loadStartTs() uint64
}

// Oracle dispenses commit timestamps, tracks live transactions,
// validates a committing transaction against recent history, and
// records successful commits.
type Oracle[K comparable] struct {
	validationMu sync.Mutex
	nextTs       uint64 // next commit_ts to dispense; 0 is never assigned

	liveMu sync.Mutex
	live   map[liveEntry]struct{}

	history *history[K]

	committed uint64
	aborted   uint64
	pruned    uint64
}

func newOracle[K comparable]() *Oracle[K] {
	return &Oracle[K]{
		nextTs:  1,
		live:    make(map[liveEntry]struct{}),
		history: newHistory[K](),
	}
}

func (o *Oracle[K]) readCounter() uint64 {
	o.validationMu.Lock()
	defer o.validationMu.Unlock()
	return o.nextTs
}

// beginTxn assigns a start timestamp to t and adds it to the live set
// in one step: assign and setLive run while validationMu and liveMu
// are both held, so no GC sweep can observe t's start_ts fixed without
// also observing t as live, or vice versa.
func (o *Oracle[K]) beginTxn(t liveEntry, assign func(startTs uint64)) uint64 {
	o.validationMu.Lock()
	ts := o.nextTs
	o.liveMu.Lock()
	assign(ts)
	o.live[t] = struct{}{}
	o.liveMu.Unlock()
	o.validationMu.Unlock()
	return ts
}

func (o *Oracle[K]) register(t liveEntry) {
	o.liveMu.Lock()
	o.live[t] = struct{}{}
	o.liveMu.Unlock()
}

func (o *Oracle[K]) unregister(t liveEntry) {
	o.liveMu.Lock()
	delete(o.live, t)
	o.liveMu.Unlock()
}

// minLiveStartTs returns the minimum start_ts across live
// transactions, skipping any with start_ts still unset (0). ok is
// false if no live transaction has an assigned start_ts.
func (o *Oracle[K]) minLiveStartTs() (ts uint64, ok bool) {
	o.liveMu.Lock()
	defer o.liveMu.Unlock()

	min := uint64(0)
	found := false
	for t := range o.live {
		s := t.loadStartTs()
		if s == 0 {
			continue
		}
		if !found || s < min {
			min = s
			found = true
		}
	}
	return min, found
}

// validateAndCommit checks startTs/readSet against history, installs
// writeSet on success, and in either case removes self from the live
// set before releasing validationMu.
func (o *Oracle[K]) validateAndCommit(self liveEntry, startTs uint64, readSet map[K]struct{}, writeSet writtenKeys[K], install func()) (commitTs uint64, err error) {
	o.validationMu.Lock()
	defer o.validationMu.Unlock()

	snapHigh := o.nextTs
	if o.history.conflictsWith(startTs, snapHigh, readSet) {
		o.aborted++
		o.unregister(self)
		return 0, ErrTxnConflict
	}

	install()

	commitTs = o.nextTs
	o.nextTs++
	o.history.append(commitTs, writeSet)
	o.committed++
	o.unregister(self)
	return commitTs, nil
}

func (o *Oracle[K]) gcFloor() (uint64, bool) {
	return o.minLiveStartTs()
}

func (o *Oracle[K]) pruneHistory(floor uint64) int {
	o.validationMu.Lock()
	defer o.validationMu.Unlock()
	n := o.history.pruneBelow(floor)
	o.pruned += uint64(n)
	return n
}

func (o *Oracle[K]) stats() (historyLen, liveLen int, committed, aborted, pruned uint64) {
	o.validationMu.Lock()
	historyLen = o.history.len()
	committed = o.committed
	aborted = o.aborted
	pruned = o.pruned
	o.validationMu.Unlock()

	o.liveMu.Lock()
	liveLen = len(o.live)
	o.liveMu.Unlock()
	return
}
