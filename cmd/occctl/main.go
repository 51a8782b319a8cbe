// Command occctl drives the OCC store with small built-in workloads,
// exercising the engine directly rather than through a test
// framework.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "occctl",
		Short: "Drive the in-memory OCC key-value store with built-in workloads",
	}

	logrus.SetLevel(logrus.InfoLevel)

	rootCmd.AddCommand(
		newBenchCommand(),
		newBankCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
