// Package main provides the vibe-genotype command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/vibe-genotype/internal/input"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Config keys
const (
	keyPanel     = "panel"
	keyOutputDir = "output_dir"
	keyWorkers   = "workers"
	keyTop       = "top_categories"
	keyStore     = "store"
	keyVerbose   = "verbose"
)

const configName = ".vibe-genotype.yaml"

// usageError marks errors caused by invalid command-line usage.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

// usageArgs wraps a cobra argument validator so its failures are reported as
// usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// app carries the state shared by all commands.
type app struct {
	v      *viper.Viper
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{
		v:      viper.New(),
		logger: zap.NewNop(),
		stdout: stdout,
		stderr: stderr,
	}
	defer func() { a.logger.Sync() }() //nolint:errcheck

	if args == nil {
		args = []string{}
	}
	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	var uerr usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stderr, "Run 'vibe-genotype --help' for usage.\n")
		return ExitUsage
	}
	if errors.Is(err, input.ErrNotFound) {
		fmt.Fprintf(stderr, "Hint: Check that the file path is correct\n")
	}
	return ExitError
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vibe-genotype",
		Short: "Genotype export normalizer and panel extractor",
		Long: `vibe-genotype reads raw genotype exports from consumer DNA services,
genotyping arrays and VCF files, detects their layout, normalizes every row to
rsid, chromosome, position and two alleles, and extracts the markers of a
reference panel grouped by category.`,
		Example: `  # Extract panel markers from a 23andMe export
  vibe-genotype extract genome.txt

  # Show which format a file is detected as
  vibe-genotype detect raw_data.csv.gz

  # List the reference panel
  vibe-genotype panel`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(cmd); err != nil {
				return err
			}
			a.logger = newLogger(a.stderr, a.v.GetBool(keyVerbose))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Help() //nolint:errcheck
			return usageError{errors.New("no command given")}
		},
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().String("config", "", "config file (default: ./vibe-genotype.yaml or ~/"+configName+")")
	root.PersistentFlags().BoolP(keyVerbose, "v", false, "Enable debug logging")
	root.PersistentFlags().String(keyPanel, "", "Panel file, YAML or TSV (default: built-in panel)")
	root.PersistentFlags().String(keyStore, "", "DuckDB file recording run history")
	a.v.BindPFlag(keyVerbose, root.PersistentFlags().Lookup(keyVerbose)) //nolint:errcheck
	a.v.BindPFlag(keyPanel, root.PersistentFlags().Lookup(keyPanel))     //nolint:errcheck
	a.v.BindPFlag(keyStore, root.PersistentFlags().Lookup(keyStore))     //nolint:errcheck

	root.AddCommand(a.newExtractCmd())
	root.AddCommand(a.newDetectCmd())
	root.AddCommand(a.newPanelCmd())
	root.AddCommand(a.newHistoryCmd())
	root.AddCommand(a.newConfigCmd())
	root.AddCommand(a.newVersionCmd())

	return root
}

// initConfig reads the config file and environment. An explicit --config
// file must exist; the default locations are optional.
func (a *app) initConfig(cmd *cobra.Command) error {
	a.v.SetDefault(keyWorkers, 1)
	a.v.SetDefault(keyTop, 5)

	a.v.SetEnvPrefix("VIBE_GENOTYPE")
	a.v.AutomaticEnv()

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile == "" {
		cfgFile = defaultConfigFile()
		if _, err := os.Stat(cfgFile); err != nil {
			return nil
		}
	}

	a.v.SetConfigFile(cfgFile)
	a.v.SetConfigType("yaml")
	if err := a.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	return nil
}

// defaultConfigFile returns ./vibe-genotype.yaml when present, otherwise
// ~/.vibe-genotype.yaml.
func defaultConfigFile() string {
	if _, err := os.Stat("vibe-genotype.yaml"); err == nil {
		return "vibe-genotype.yaml"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return configName
	}
	return filepath.Join(home, configName)
}

// newLogger builds a console logger on w at warn level, or debug when
// verbose.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "vibe-genotype version %s (%s) built %s\n", version, commit, date)
		},
	}
}
