// Package main provides the vibe-impute command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-impute/internal/gtdb"
	"github.com/inodb/vibe-impute/internal/vcf"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var cfgFile string

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if hint := hintFor(err); hint != "" {
			fmt.Fprintf(stderr, "Hint: %s\n", hint)
		}
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vibe-impute",
		Short: "Genotype database builder for imputation",
		Long: `vibe-impute streams a VCF of biallelic SNPs once, stores each SNP's
genotype vector, computes kinship between every pair of samples and
linkage disequilibrium between every SNP with missing calls and all
other SNPs.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}
	root.SetVersionTemplate("vibe-impute version {{.Version}}\n")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.vibe-impute.yaml)")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newSummaryCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibe-impute version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// initConfig reads the config file, if any, and the VIBE_IMPUTE_* environment.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".vibe-impute")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VIBE_IMPUTE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// bindFlags binds the named flags of cmd to config keys. Binding happens
// when the command runs, since several commands share keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".vibe-impute.yaml"), nil
}

func hintFor(err error) string {
	var (
		locusErr *vcf.LocusError
		parseErr *vcf.ParseError
		ioErr    *vcf.IOError
		storeErr *gtdb.StoreError
	)
	switch {
	case errors.As(err, &locusErr):
		return "Only biallelic SNPs with a GT key and one column per sample are accepted"
	case errors.As(err, &parseErr):
		return "Check that the input is a tab separated VCF with a #CHROM header line"
	case errors.As(err, &ioErr):
		return "Check that the file path is correct"
	case errors.As(err, &storeErr):
		return "Check that gtdb_path is writable and not held open by another process"
	}
	return ""
}
