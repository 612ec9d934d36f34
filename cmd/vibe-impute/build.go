package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-impute/internal/config"
	"github.com/inodb/vibe-impute/internal/gtdb"
	"github.com/inodb/vibe-impute/internal/logging"
	"github.com/inodb/vibe-impute/internal/pipeline"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [vcf]",
		Short: "Build the genotype database from a VCF file",
		Long: `Rebuild the snps, kinship and ld tables of the genotype database from a
VCF file. Files ending in .gz are decompressed; use '-' for stdin.`,
		Example: `  vibe-impute build --gtdb cohort.duckdb cohort.vcf.gz
  vibe-impute build -t 8 --backend sqlite --gtdb cohort.db cohort.vcf
  vibe-impute build --trace --tvi chr1-10583 --gtdb cohort.duckdb cohort.vcf`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"threads": config.KeyThreads,
				"gtdb":    config.KeyGTDBPath,
				"verbose": config.KeyVerbose,
				"trace":   config.KeyTrace,
				"tvi":     config.KeyTVI,
				"backend": config.KeyBackend,
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				viper.Set(config.KeyVCFPath, args[0])
			}
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			return runBuild(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.IntP("threads", "t", runtime.NumCPU(), "LD worker count, capped at the number of CPUs")
	f.String("gtdb", "", "genotype database path")
	f.BoolP("verbose", "v", false, "show progress and debug logging")
	f.Bool("trace", false, "log per-variant computations")
	f.StringSlice("tvi", nil, "restrict tracing to these <chrom>-<pos> variants")
	f.String("backend", string(gtdb.DuckDB), "store backend: duckdb or sqlite")
	return cmd
}

func runBuild(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	z, err := logging.NewZap(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	log := logging.New(z, logging.Options{
		Verbose:     cfg.Verbose,
		Trace:       cfg.Trace,
		Tracepoints: cfg.TVI,
		Progress:    stdout,
	})
	defer log.Sync()

	store, err := gtdb.Open(cfg.StoreBackend(), cfg.GTDBPath)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	res, err := pipeline.New(store, log).Run(ctx, pipeline.Options{
		VCFPath: cfg.VCFPath,
		Workers: cfg.Threads,
	})
	if err != nil {
		log.Error("build failed", zap.String("vcf", cfg.VCFPath), zap.Error(err))
		return err
	}

	fmt.Fprintf(stderr, "Read %d variant records for %d samples\n", res.Records, res.Samples)
	fmt.Fprintf(stderr, "  SNPs: %d\n", res.SNPs)
	fmt.Fprintf(stderr, "  Kinship rows: %d\n", res.KinshipRows)
	fmt.Fprintf(stderr, "  LD rows: %d (%d undefined r2)\n", res.LDRows, res.UndefinedLD)
	fmt.Fprintf(stderr, "Wrote %s (run %s)\n", cfg.GTDBPath, res.RunID)
	return nil
}

// statDatabase fails early when path holds no database yet.
func statDatabase(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no genotype database at %s: %w", path, err)
	}
	return nil
}
