package occ

import "time"

type Options struct {
	gcInterval    time.Duration
	statsInterval time.Duration
	statsEnabled  bool
	maxRetries    int
	backoffBase   time.Duration
	backoffFactor float64
}

func defaultOptions() Options {
	return Options{
		gcInterval:    100 * time.Millisecond,
		statsInterval: time.Second,
		statsEnabled:  true,
		maxRetries:    100,
		backoffBase:   5 * time.Millisecond,
		backoffFactor: 1.5,
	}
}

type Option func(*Options)

func WithGCInterval(d time.Duration) Option {
	return func(o *Options) { o.gcInterval = d }
}

func WithStatsInterval(d time.Duration) Option {
	return func(o *Options) { o.statsInterval = d }
}

// WithoutStats disables the stats collector: no Prometheus gauges or
// counters are created and no periodic stats log line is written. The
// Oracle's own counters, read through DB.Stats, stay live.
func WithoutStats() Option {
	return func(o *Options) { o.statsEnabled = false }
}

func WithMaxRetries(n int) Option {
	return func(o *Options) { o.maxRetries = n }
}

func WithBackoff(base time.Duration, factor float64) Option {
	return func(o *Options) { o.backoffBase = base; o.backoffFactor = factor }
}
