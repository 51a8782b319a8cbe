package main

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"occkv/internal/occ"
)

// newBenchCommand runs a fleet of worker goroutines hammering random
// int64 keys with string values through Retry, reporting how many
// transactions committed.
func newBenchCommand() *cobra.Command {
	var workers int
	var txnsPerWorker int
	var keySpace int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run concurrent random-key write-then-read transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := occ.New[int64, string]()
			defer db.Close()

			var commits atomic.Uint64
			var wg sync.WaitGroup
			wg.Add(workers)

			for i := 0; i < workers; i++ {
				go func(worker int) {
					defer wg.Done()
					rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))

					for j := 0; j < txnsPerWorker; j++ {
						key := rng.Int63n(int64(keySpace))
						err := occ.Retry(db, func(h *occ.Handle[int64, string]) error {
							val := randString(rng, 10)
							h.Put(key, val)
							got, found := h.Get(key)
							if !found || got != val {
								return fmt.Errorf("read-your-own-write violated for key %d", key)
							}
							return nil
						})
						if err != nil {
							return
						}
						commits.Add(1)
					}
				}(i)
			}

			wg.Wait()

			historyRecords, liveTxns, committed, aborted, _ := db.Stats()
			fmt.Printf("committed %d/%d transactions (history=%d live=%d committed_total=%d aborted_total=%d)\n",
				commits.Load(), uint64(workers*txnsPerWorker), historyRecords, liveTxns, committed, aborted)
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 5, "number of concurrent workers")
	cmd.Flags().IntVar(&txnsPerWorker, "txns", 1000, "transactions per worker")
	cmd.Flags().IntVar(&keySpace, "keys", 100000, "size of the random key space")
	return cmd
}

func randString(rng *rand.Rand, n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(b)
}
