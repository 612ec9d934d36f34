// Package config decodes and validates the settings of a build.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/inodb/vibe-impute/internal/gtdb"
)

// Keys recognised in the config file, the environment and on flags.
const (
	KeyThreads  = "threads"
	KeyGTDBPath = "gtdb_path"
	KeyVCFPath  = "vcf_path"
	KeyVerbose  = "verbose"
	KeyTrace    = "trace"
	KeyTVI      = "tvi"
	KeyBackend  = "backend"
)

// Config holds the settings of one build.
type Config struct {
	Threads  int      `mapstructure:"threads"`
	GTDBPath string   `mapstructure:"gtdb_path"`
	VCFPath  string   `mapstructure:"vcf_path"`
	Verbose  bool     `mapstructure:"verbose"`
	Trace    bool     `mapstructure:"trace"`
	TVI      []string `mapstructure:"tvi"`
	Backend  string   `mapstructure:"backend"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyThreads, runtime.NumCPU())
	// registered so Unmarshal sees them when they only come from the environment
	v.SetDefault(KeyGTDBPath, "")
	v.SetDefault(KeyVCFPath, "")
	v.SetDefault(KeyBackend, string(gtdb.DuckDB))
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyTrace, false)
	v.SetDefault(KeyTVI, []string{})
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	c.TVI = cleanTracepoints(c.TVI)
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// LoadStore decodes the subset of v needed to open an existing database.
func LoadStore(v *viper.Viper) (gtdb.Backend, string, error) {
	SetDefaults(v)
	path := v.GetString(KeyGTDBPath)
	if path == "" {
		return "", "", fmt.Errorf("config: %s is required", KeyGTDBPath)
	}
	backend, err := gtdb.ParseBackend(v.GetString(KeyBackend))
	if err != nil {
		return "", "", fmt.Errorf("config: %w", err)
	}
	return backend, path, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("config: %s must be a positive integer, got %d", KeyThreads, c.Threads)
	}
	if c.GTDBPath == "" {
		return fmt.Errorf("config: %s is required", KeyGTDBPath)
	}
	if c.VCFPath == "" {
		return fmt.Errorf("config: %s is required", KeyVCFPath)
	}
	if _, err := gtdb.ParseBackend(c.Backend); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for _, id := range c.TVI {
		if !validTracepoint(id) {
			return fmt.Errorf("config: tracepoint %q is not of the form <chrom>-<pos>", id)
		}
	}
	return nil
}

// StoreBackend returns the parsed backend.
func (c Config) StoreBackend() gtdb.Backend {
	b, _ := gtdb.ParseBackend(c.Backend)
	return b
}

// cleanTracepoints splits comma separated entries, as they arrive from the
// environment, and drops blanks.
func cleanTracepoints(in []string) []string {
	var out []string
	for _, s := range in {
		for _, id := range strings.Split(s, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}

func validTracepoint(id string) bool {
	i := strings.LastIndexByte(id, '-')
	if i <= 0 || i == len(id)-1 {
		return false
	}
	for _, r := range id[i+1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
