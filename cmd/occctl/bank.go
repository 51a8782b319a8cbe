package main

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"occkv/internal/occ"
)

// newBankCommand runs a bank-transfer conservation stress scenario: N
// accounts summing to S, worker goroutines transferring money between
// random pairs via Retry, and a reader goroutine repeatedly summing
// every account. Every read and the final state must see sum == S.
func newBankCommand() *cobra.Command {
	var accounts int
	var workers int
	var transfersPerWorker int

	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Run the bank-transfer conservation stress scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := occ.New[int, int64]()
			defer db.Close()

			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			var total int64
			err := occ.Retry(db, func(h *occ.Handle[int, int64]) error {
				total = 0
				for i := 0; i < accounts; i++ {
					amount := int64(1 + rng.Intn(100))
					total += amount
					h.Put(i, amount)
				}
				return nil
			})
			if err != nil {
				return err
			}

			sum := func() (int64, error) {
				var s int64
				err := occ.Retry(db, func(h *occ.Handle[int, int64]) error {
					s = 0
					for i := 0; i < accounts; i++ {
						v, found := h.Get(i)
						if !found {
							return fmt.Errorf("account %d missing", i)
						}
						s += v
					}
					return nil
				})
				return s, err
			}

			stop := make(chan struct{})
			var readerWG sync.WaitGroup
			readerWG.Add(1)
			var badRead int
			go func() {
				defer readerWG.Done()
				for {
					select {
					case <-stop:
						return
					default:
					}
					s, err := sum()
					if err != nil || s != total {
						badRead++
					}
				}
			}()

			var workerWG sync.WaitGroup
			workerWG.Add(workers)
			for w := 0; w < workers; w++ {
				go func(worker int) {
					defer workerWG.Done()
					wrng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))
					for i := 0; i < transfersPerWorker; i++ {
						from := wrng.Intn(accounts)
						to := from
						for to == from {
							to = wrng.Intn(accounts)
						}
						_ = occ.Retry(db, func(h *occ.Handle[int, int64]) error {
							fromBal, _ := h.Get(from)
							toBal, _ := h.Get(to)
							amount := int64(0)
							if fromBal > 0 {
								amount = wrng.Int63n(fromBal)
							}
							h.Put(from, fromBal-amount)
							h.Put(to, toBal+amount)
							return nil
						})
					}
				}(w)
			}
			workerWG.Wait()
			close(stop)
			readerWG.Wait()

			finalSum, err := sum()
			if err != nil {
				return err
			}
			if finalSum != total || badRead != 0 {
				return fmt.Errorf("invariant violated: expected %d, got %d (bad intermediate reads: %d)", total, finalSum, badRead)
			}
			fmt.Printf("invariant held: sum=%d across %d accounts (bad intermediate reads observed: %d)\n", finalSum, accounts, badRead)
			return nil
		},
	}

	cmd.Flags().IntVar(&accounts, "accounts", 10, "number of bank accounts")
	cmd.Flags().IntVar(&workers, "workers", 10, "number of transfer worker goroutines")
	cmd.Flags().IntVar(&transfersPerWorker, "transfers", 1000, "transfers per worker")
	return cmd
}
