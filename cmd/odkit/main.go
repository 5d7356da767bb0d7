// Command odkit merges OpenDocument files and edits spreadsheets from the
// command line.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tsawler/opendoc/internal/config"
)

// app is the state shared by the commands of one invocation.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "odkit",
		Short: "OpenDocument toolkit",
		Long: `odkit works on OpenDocument (and OpenOffice.org 1.x) files.

It merges documents into one, checks their style references, reads and
writes spreadsheet cells, resizes sheets and renders them as HTML or PNG.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Configuration file (YAML)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		a.mergeCmd(),
		a.checkCmd(),
		a.cellCmd(),
		a.resizeCmd(),
		a.renderCmd(),
		a.infoCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := cfg.Logging.ZapLevel()
	if err != nil {
		return err
	}
	if a.verbose {
		level = zapcore.DebugLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = cfg.Logging.Format
	if zc.Encoding == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	logger, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
