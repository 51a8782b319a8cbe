package occ

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// statsCollector periodically samples the Oracle's counters and Go's
// runtime memory stats, onto Prometheus gauges/counters and a log
// line. It never gates commit-path behavior.
type statsCollector[K comparable] struct {
	oracle *Oracle[K]

	historyGauge   prometheus.Gauge
	liveGauge      prometheus.Gauge
	committedTotal prometheus.Counter
	abortedTotal   prometheus.Counter
	prunedTotal    prometheus.Counter

	interval time.Duration
	cancel   context.CancelFunc
	done     sync.WaitGroup

	// lastCommitted/lastAborted/lastPruned let sample() turn the
	// Oracle's monotonic totals into Counter.Add() deltas.
	lastCommitted uint64
	lastAborted   uint64
	lastPruned    uint64
}

func newStatsCollector[K comparable](oracle *Oracle[K], interval time.Duration, namespace string) *statsCollector[K] {
	reg := prometheus.NewRegistry()
	s := &statsCollector[K]{
		oracle:   oracle,
		interval: interval,
		historyGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "occ", Name: "history_records",
			Help: "Number of committed-transaction records currently retained for validation.",
		}),
		liveGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "occ", Name: "live_txns",
			Help: "Number of transactions currently live (begun but not yet committed or discarded).",
		}),
		committedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "occ", Name: "committed_total",
			Help: "Total number of transactions successfully committed.",
		}),
		abortedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "occ", Name: "aborted_total",
			Help: "Total number of transactions aborted on validation conflict.",
		}),
		prunedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "occ", Name: "pruned_total",
			Help: "Total number of history records removed by garbage collection.",
		}),
	}
	reg.MustRegister(s.historyGauge, s.liveGauge, s.committedTotal, s.abortedTotal, s.prunedTotal)
	return s
}

func (s *statsCollector[K]) start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done.Add(1)
	go s.run(ctx)
}

func (s *statsCollector[K]) run(ctx context.Context) {
	defer s.done.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *statsCollector[K]) sample() {
	historyLen, liveLen, committed, aborted, pruned := s.oracle.stats()

	s.historyGauge.Set(float64(historyLen))
	s.liveGauge.Set(float64(liveLen))
	if committed > s.lastCommitted {
		s.committedTotal.Add(float64(committed - s.lastCommitted))
		s.lastCommitted = committed
	}
	if aborted > s.lastAborted {
		s.abortedTotal.Add(float64(aborted - s.lastAborted))
		s.lastAborted = aborted
	}
	if pruned > s.lastPruned {
		s.prunedTotal.Add(float64(pruned - s.lastPruned))
		s.lastPruned = pruned
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	log.WithFields(map[string]any{
		"history_records": historyLen,
		"live_txns":       liveLen,
		"committed_total": committed,
		"aborted_total":   aborted,
		"pruned_total":    pruned,
		"heap_alloc_mb":   mem.HeapAlloc / (1 << 20),
		"rss_sys_mb":      mem.Sys / (1 << 20),
	}).Info("occ: stats snapshot")
}

func (s *statsCollector[K]) stop() {
	if s.cancel != nil {
		s.cancel()
		s.done.Wait()
	}
}
