package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/sightmark/internal/loadgen"
)

func (c *cli) newLoadCmd() *cobra.Command {
	cfg := loadgen.Config{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Send random batches to a server and verify every result",
		Long: `Submits random adjustment batches to POST /adjustments/batch concurrently
and compares each result with a local computation using the mechanism the
server reports. Exits non-zero on any mismatch or failed item.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := loadgen.Run(cmd.Context(), &cfg)

			if c.jsonOut {
				if werr := writeJSON(cmd.OutOrStdout(), stats); werr != nil {
					return werr
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "batches: %d submitted, %d rejected, %d failed\nitems: %d verified, %d mismatched, %d failed\nduration: %s\n",
					stats.BatchesSubmitted, stats.BatchesRejected, stats.BatchesFailed,
					stats.ItemsVerified, stats.ItemsMismatched, stats.ItemsFailed, stats.Duration)
			}
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	fs.IntVar(&cfg.Batches, "batches", 100, "number of batches to submit")
	fs.IntVar(&cfg.BatchSize, "size", 50, "items per batch")
	fs.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "number of concurrent submitters")
	fs.DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "HTTP request timeout")
	fs.Uint64Var(&cfg.Seed, "seed", uint64(time.Now().UnixNano()), "seed for the input generator")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "log every failed item")
	return cmd
}
