package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-impute/internal/config"
	"github.com/inodb/vibe-impute/internal/gtdb"
	"github.com/inodb/vibe-impute/internal/ld"
)

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarise a genotype database",
		Long:  "Show table sizes, the last recorded build and the distribution of r2 values.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"gtdb":    config.KeyGTDBPath,
				"backend": config.KeyBackend,
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, path, err := config.LoadStore(viper.GetViper())
			if err != nil {
				return err
			}
			return runSummary(cmd.Context(), backend, path, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("gtdb", "", "genotype database path")
	cmd.Flags().String("backend", string(gtdb.DuckDB), "store backend: duckdb or sqlite")
	return cmd
}

func runSummary(ctx context.Context, backend gtdb.Backend, path string, out io.Writer) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := statDatabase(path); err != nil {
		return err
	}

	store, err := gtdb.Open(backend, path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	fmt.Fprintf(out, "Database: %s (%s)\n", path, backend)
	for _, table := range []string{gtdb.TableSNPs, gtdb.TableKinship, gtdb.TableLD} {
		n, err := store.Count(ctx, table)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-8s %d rows\n", table, n)
	}

	run, ok, err := store.LastRun(ctx)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(out, "Last build: %s\n", run.ID)
		fmt.Fprintf(out, "  Input: %s (%d bytes)\n", run.VCFPath, run.VCFSize)
		fmt.Fprintf(out, "  Samples: %d  Records: %d  SNPs: %d\n", run.Samples, run.Records, run.SNPs)
		fmt.Fprintf(out, "  Started: %s  Finished: %s\n", run.StartedAt, run.FinishedAt)
	}

	sum, err := ld.Summarize(ctx, store)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "r2: %d defined, %d undefined\n", sum.Defined, sum.Undefined)
	if sum.Defined > 0 {
		fmt.Fprintf(out, "  mean %.6f  median %.6f  p95 %.6f\n", sum.Mean, sum.Median, sum.P95)
	}
	if sum.HasStdev {
		fmt.Fprintf(out, "  stdev %.6f\n", sum.Stdev)
	}
	return nil
}
