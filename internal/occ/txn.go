package occ

import "sync/atomic"

// txnState is the per-transaction read set, staged write set, and
// start timestamp. Owned exclusively by its Handle until
// commit, at which point only the written keys survive into history.
type txnState[K comparable, V any] struct {
	db *DB[K, V]

	startTs atomic.Uint64 // 0 == unset (lazy init on first Get/Put)

	writeSet map[K]V
	readSet  map[K]struct{}

	registered bool
	done       bool // committed or discarded; further ops are programming errors
}

func newTxnState[K comparable, V any](db *DB[K, V]) *txnState[K, V] {
	return &txnState[K, V]{
		db:       db,
		writeSet: make(map[K]V),
		readSet:  make(map[K]struct{}),
	}
}

func (t *txnState[K, V]) loadStartTs() uint64 { return t.startTs.Load() }

// ensureStarted lazily assigns start_ts and registers the transaction
// as live on its first read or write. The assignment and registration
// happen as one step in the Oracle so a GC sweep can never see one
// without the other.
func (t *txnState[K, V]) ensureStarted() {
	if t.startTs.Load() != 0 {
		return
	}
	t.registered = true
	t.db.oracle.beginTxn(t, func(ts uint64) { t.startTs.Store(ts) })
}

// Handle is the client-facing transaction handle. Operations on a
// single Handle must be externally synchronized by the caller —
// cross-handle safety is the Oracle's job, not the Handle's.
type Handle[K comparable, V any] struct {
	txn *txnState[K, V]
}

// Get consults the staged write set first, then the committed store.
// The key is recorded in the read set regardless of where the value
// was found.
func (h *Handle[K, V]) Get(k K) (V, bool) {
	t := h.txn
	t.mustBeLive()
	t.ensureStarted()

	if v, ok := t.writeSet[k]; ok {
		t.readSet[k] = struct{}{}
		return cloneValue(v), true
	}
	t.readSet[k] = struct{}{}
	return t.db.store.get(k)
}

// Put stages a value under k. Last write wins within the transaction;
// the committed store and the read set are untouched until commit.
func (h *Handle[K, V]) Put(k K, v V) {
	t := h.txn
	t.mustBeLive()
	t.ensureStarted()
	t.writeSet[k] = cloneValue(v)
}

// Commit validates and installs the transaction's write set. Calling
// Commit twice is a no-op.
func (h *Handle[K, V]) Commit() error {
	t := h.txn
	if t.done {
		return nil
	}

	if t.startTs.Load() == 0 {
		// Never read or wrote anything: trivially commits.
		t.done = true
		return nil
	}

	keys := make(writtenKeys[K], len(t.writeSet))
	for k := range t.writeSet {
		keys[k] = struct{}{}
	}

	_, err := t.db.oracle.validateAndCommit(t, t.startTs.Load(), t.readSet, keys, func() {
		for k, v := range t.writeSet {
			t.db.store.upsert(k, v)
		}
	})
	t.done = true
	if err != nil {
		log.WithError(err).Debug("transaction aborted on commit")
		return err
	}
	return nil
}

// Rollback discards the transaction without committing. Safe to call
// on a handle that never read or wrote anything; idempotent.
func (h *Handle[K, V]) Rollback() {
	t := h.txn
	if t.done {
		return
	}
	t.done = true
	if t.registered {
		t.db.oracle.unregister(t)
	}
}

func (t *txnState[K, V]) mustBeLive() {
	if t.done {
		panicf("occ: operation on a handle that already committed, aborted, or rolled back")
	}
}
