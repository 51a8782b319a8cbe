package occ

import "sync/atomic"

// DB is a self-contained OCC key-value store: an Oracle, a committed
// store, and the background GC/stats workers that observe them. Each
// DB is independent; there is no process-wide state.
type DB[K comparable, V any] struct {
	oracle *Oracle[K]
	store  *store[K, V]
	opts   Options

	gc     *gcWorker[K]
	stats  *statsCollector[K]
	closed atomic.Bool
}

// New constructs an empty DB and launches its GC worker (and, unless
// WithoutStats is given, its stats collector).
func New[K comparable, V any](opts ...Option) *DB[K, V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	db := &DB[K, V]{
		oracle: newOracle[K](),
		store:  newStore[K, V](),
		opts:   o,
	}
	db.gc = startGC(db.oracle, o.gcInterval)
	if o.statsEnabled {
		db.stats = newStatsCollector(db.oracle, o.statsInterval, "occkv")
		db.stats.start()
	}

	log.Info("occ: db started")
	return db
}

// Begin creates a Handle. No locks are taken until the first Get or
// Put. Calling Begin after Close panics.
func (db *DB[K, V]) Begin() *Handle[K, V] {
	if db.closed.Load() {
		panicf("occ: Begin called on a closed db")
	}
	return &Handle[K, V]{txn: newTxnState(db)}
}

// Close joins the GC and stats workers. Any other operation on db
// after Close returns is undefined, except Retry, which returns
// ErrClosed.
func (db *DB[K, V]) Close() {
	if !db.closed.CompareAndSwap(false, true) {
		return
	}
	db.gc.stop()
	if db.stats != nil {
		db.stats.stop()
	}
	log.Info("occ: db closed")
}

// Stats returns a point-in-time snapshot of the engine's counters.
func (db *DB[K, V]) Stats() (historyRecords, liveTxns int, committed, aborted, pruned uint64) {
	return db.oracle.stats()
}
