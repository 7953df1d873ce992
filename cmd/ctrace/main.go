// ctrace - execution-trace oracle and C fixture interpreter
//
// ctrace runs small C loop and branch demonstration programs and checks
// their output against an oracle that derives the expected trace.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kolkov/ctrace"
	"github.com/kolkov/ctrace/internal/config"
	"github.com/kolkov/ctrace/internal/logging"
)

// version is set at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errVerifyFailed marks a verify run with at least one failing fixture.
var errVerifyFailed = errors.New("verification failed")

// cli holds the state shared by all subcommands of one invocation.
type cli struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "ctrace",
		Short: "Execution-trace oracle and interpreter for C loop fixtures",
		Long: `ctrace reproduces the output of small C programs that demonstrate
for, while, do-while, if/else and nested loops.

The oracle derives each fixture's expected trace from its loop bounds;
the interpreter runs the C source. Both must agree byte for byte.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg

			logger, err := logging.New(cfg.Logging.Level, c.verbose)
			if err != nil {
				return err
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "ctrace.yaml", "Configuration file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		c.newRunCmd(),
		c.newOracleCmd(),
		c.newVerifyCmd(),
		c.newFixturesCmd(),
		c.newDisasmCmd(),
		c.newASTCmd(),
		c.newWatchCmd(),
	)
	return root
}

// libraryConfig maps the loaded configuration to ctrace.Config.
func (c *cli) libraryConfig() *ctrace.Config {
	return &ctrace.Config{
		SimplifiedDoWhile: c.cfg.Lowering.SimplifiedDoWhile,
		MaxLoopIterations: c.cfg.Limits.MaxLoopIterations,
		MaxSteps:          c.cfg.Limits.MaxSteps,
		Workers:           c.cfg.Verify.Workers,
		Logger:            c.logger,
	}
}

// exitCode maps an error from a command to a process exit status.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	if code, ok := ctrace.IsExitError(err); ok {
		return code
	}
	if errors.Is(err, errVerifyFailed) {
		return 1
	}
	fmt.Fprintln(stderr, "ctrace:", err)
	return 2
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err, os.Stderr))
}
