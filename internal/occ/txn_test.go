package occ

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicRoundTrip(t *testing.T) {
	db := New[int, string](WithoutStats())
	defer db.Close()

	t1 := db.Begin()
	t1.Put(3, "asdf")
	x, found := t1.Get(3)
	require.True(t, found)
	assert.Equal(t, "asdf", x)
	require.NoError(t, t1.Commit())

	t2 := db.Begin()
	x, found = t2.Get(3)
	require.True(t, found)
	assert.Equal(t, "asdf", x)
	require.NoError(t, t2.Commit())
}

func TestReadWriteConflictAborts(t *testing.T) {
	db := New[int, string](WithoutStats())
	defer db.Close()

	t1 := db.Begin()
	t2 := db.Begin()

	t1.Put(3, "a")
	t2.Get(3)

	require.NoError(t, t1.Commit())

	err := t2.Commit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTxnConflict))
}

func TestNoConflictOnDisjointKeys(t *testing.T) {
	db := New[int, string](WithoutStats())
	defer db.Close()

	t1 := db.Begin()
	t2 := db.Begin()

	t1.Put(3, "a")
	t2.Get(4)

	require.NoError(t, t1.Commit())
	require.NoError(t, t2.Commit())
}

// Both transactions read key 3; t1's commit writes it, so t2's
// validation must see the conflict even though t2 also touches keys
// t1 never touched.
func TestInterleavedConflictOnSharedKey(t *testing.T) {
	db := New[int, string](WithoutStats())
	defer db.Close()

	t1 := db.Begin()
	t2 := db.Begin()

	t1.Get(3)
	t1.Get(4)
	t1.Put(3, "asdf")
	t1.Put(4, "asdf1")

	t2.Get(3)
	t2.Get(5)
	t2.Put(3, "asdf")
	t2.Put(5, "asdf1")

	require.NoError(t, t1.Commit())

	err := t2.Commit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTxnConflict))
}

// A blind write-write on the same key is allowed; the later committer
// wins.
func TestBlindWriteWriteLastCommitWins(t *testing.T) {
	db := New[int, string](WithoutStats())
	defer db.Close()

	t1 := db.Begin()
	t2 := db.Begin()

	t1.Put(3, "a")
	t2.Put(3, "b")

	require.NoError(t, t1.Commit())
	require.NoError(t, t2.Commit())

	readBack := db.Begin()
	v, found := readBack.Get(3)
	require.True(t, found)
	assert.Equal(t, "b", v)
	require.NoError(t, readBack.Commit())
}

func TestGetOfMissingKeyReturnsNotFound(t *testing.T) {
	db := New[int, string](WithoutStats())
	defer db.Close()

	h := db.Begin()
	_, found := h.Get(999)
	assert.False(t, found)
	require.NoError(t, h.Commit())
}

func TestCommitIsIdempotent(t *testing.T) {
	db := New[int, string](WithoutStats())
	defer db.Close()

	h := db.Begin()
	h.Put(1, "x")
	require.NoError(t, h.Commit())
	require.NoError(t, h.Commit(), "second commit must be a no-op, not an error")
}

func TestCommitWithNoReadsOrWritesTriviallySucceeds(t *testing.T) {
	db := New[int, string](WithoutStats())
	defer db.Close()

	h := db.Begin()
	require.NoError(t, h.Commit())
}

func TestWriteSetShadowsCommittedStoreForOwnReads(t *testing.T) {
	db := New[int, string](WithoutStats())
	defer db.Close()

	seed := db.Begin()
	seed.Put(1, "committed-value")
	require.NoError(t, seed.Commit())

	h := db.Begin()
	h.Put(1, "staged-value")
	v, found := h.Get(1)
	require.True(t, found)
	assert.Equal(t, "staged-value", v, "a key written then read must see the staged value, not the committed one")
	require.NoError(t, h.Commit())
}

func TestRollbackDiscardsWrites(t *testing.T) {
	db := New[int, string](WithoutStats())
	defer db.Close()

	h := db.Begin()
	h.Put(1, "should-not-persist")
	h.Rollback()

	reader := db.Begin()
	_, found := reader.Get(1)
	assert.False(t, found)
	require.NoError(t, reader.Commit())
}

func TestAbortedTransactionLeavesNoPartialWrites(t *testing.T) {
	db := New[int, string](WithoutStats())
	defer db.Close()

	t1 := db.Begin()
	t2 := db.Begin()

	t2.Get(1)
	t2.Get(2)

	t1.Put(1, "a")
	t1.Put(2, "b")
	require.NoError(t, t1.Commit())

	t2.Put(1, "x")
	t2.Put(2, "y")
	err := t2.Commit()
	require.Error(t, err)

	reader := db.Begin()
	v1, _ := reader.Get(1)
	v2, _ := reader.Get(2)
	assert.Equal(t, "a", v1)
	assert.Equal(t, "b", v2)
	require.NoError(t, reader.Commit())
}

func TestOperationOnDiscardedHandlePanics(t *testing.T) {
	db := New[int, string](WithoutStats())
	defer db.Close()

	t1 := db.Begin()
	t2 := db.Begin()

	t1.Put(1, "a")
	t2.Get(1)
	require.NoError(t, t1.Commit())
	require.Error(t, t2.Commit())

	assert.Panics(t, func() { t2.Get(1) })
}
