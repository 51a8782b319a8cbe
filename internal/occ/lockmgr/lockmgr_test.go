package lockmgr

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTwoReadersGrantedConcurrently(t *testing.T) {
	m := New[string]()

	done := make(chan struct{}, 2)
	g1 := m.Lock("k", Read)
	go func() {
		g2 := m.Lock("k", Read)
		done <- struct{}{}
		m.Unlock(g2)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second reader never granted alongside the first")
	}
	m.Unlock(g1)
}

func TestWriterBlocksUntilReaderReleases(t *testing.T) {
	m := New[string]()

	g1 := m.Lock("k", Read)
	writerGranted := make(chan struct{})
	go func() {
		g2 := m.Lock("k", Write)
		close(writerGranted)
		m.Unlock(g2)
	}()

	select {
	case <-writerGranted:
		t.Fatal("writer must not be granted while a reader holds the lock")
	case <-time.After(20 * time.Millisecond):
	}

	m.Unlock(g1)

	select {
	case <-writerGranted:
	case <-time.After(time.Second):
		t.Fatal("writer was never granted after the reader released")
	}
}

func TestWritersAreExclusive(t *testing.T) {
	m := New[string]()

	var mu sync.Mutex
	active := 0
	maxActive := 0

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := m.Lock("k", Write)
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			m.Unlock(g)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive, "writers must never overlap")
}

func TestLocksOnDistinctKeysNeverBlock(t *testing.T) {
	m := New[string]()

	g1 := m.Lock("a", Write)
	done := make(chan struct{})
	go func() {
		g2 := m.Lock("b", Write)
		close(done)
		m.Unlock(g2)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("locks on distinct keys must not contend")
	}
	m.Unlock(g1)
}
