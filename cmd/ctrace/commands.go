package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kolkov/ctrace"
	"github.com/kolkov/ctrace/internal/watch"
)

// runFlags are the execution flags shared by run and watch.
type runFlags struct {
	simplified bool
	noOptimize bool
	maxLoop    int
	maxSteps   int
	stats      bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.simplified, "simplified-do-while", false, "Compile do-while as a pre-check while loop")
	cmd.Flags().BoolVar(&f.noOptimize, "no-optimize", false, "Disable the peephole optimizer")
	cmd.Flags().IntVar(&f.maxLoop, "max-loop", 0, "Iteration budget per loop (default from config)")
	cmd.Flags().IntVar(&f.maxSteps, "max-steps", 0, "Statement budget per run (default from config)")
	cmd.Flags().BoolVar(&f.stats, "stats", false, "Print execution statistics to stderr")
}

// apply overrides config values with the flags the user set.
func (f *runFlags) apply(cmd *cobra.Command, config *ctrace.Config) {
	if cmd.Flags().Changed("simplified-do-while") {
		config.SimplifiedDoWhile = f.simplified
	}
	config.NoOptimize = f.noOptimize
	if f.maxLoop > 0 {
		config.MaxLoopIterations = f.maxLoop
	}
	if f.maxSteps > 0 {
		config.MaxSteps = f.maxSteps
	}
}

// compileFile reads and compiles a C source file.
func compileFile(path string, config *ctrace.Config) (*ctrace.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ctrace.CompileFile(path, string(src), config)
}

// execute compiles and runs path, streaming output to cmd's stdout.
func (c *cli) execute(ctx context.Context, cmd *cobra.Command, path string, flags *runFlags) error {
	config := c.libraryConfig()
	flags.apply(cmd, config)
	config.Output = cmd.OutOrStdout()

	prog, err := compileFile(path, config)
	if err != nil {
		return err
	}
	_, stats, err := prog.RunContext(ctx, config)
	if flags.stats {
		printStats(cmd, stats)
	}
	return err
}

func printStats(cmd *cobra.Command, stats ctrace.Stats) {
	w := tabwriter.NewWriter(cmd.ErrOrStderr(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "steps\t%d\n", stats.Steps)
	fmt.Fprintf(w, "iterations\t%d\n", stats.Iterations)
	fmt.Fprintf(w, "output\t%d bytes\n", stats.OutputSize)
	fmt.Fprintf(w, "exit\t%d\n", stats.ExitStatus)
	for _, l := range stats.Loops {
		fmt.Fprintf(w, "%s loop at line %d\t%d entries, %d iterations, longest %d\n",
			l.Kind, l.Line, l.Entries, l.Iterations, l.Longest)
	}
	w.Flush()
}

func (c *cli) newRunCmd() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run FILE.c",
		Short: "Interpret a C program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(cmd.Context(), cmd, args[0], flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *cli) newOracleCmd() *cobra.Command {
	var maxLoop int
	cmd := &cobra.Command{
		Use:   "oracle NAME",
		Short: "Print the expected trace of a registered fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := c.libraryConfig()
			if maxLoop > 0 {
				config.MaxLoopIterations = maxLoop
			}
			out, err := ctrace.Oracle(args[0], config)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().IntVar(&maxLoop, "max-loop", 0, "Iteration budget per loop (default from config)")
	return cmd
}

func (c *cli) newVerifyCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "verify [NAME...]",
		Short: "Run fixtures through the interpreter and diff against the oracle",
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := uuid.NewString()
			config := c.libraryConfig()
			config.Logger = c.logger.With(zap.String("run", runID))
			if workers > 0 {
				config.Workers = workers
			}
			config.Logger.Info("verify started", zap.Strings("fixtures", args), zap.Int("workers", config.Workers))

			results, err := ctrace.Verify(cmd.Context(), args, config)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, r := range results {
				switch {
				case r.Err != nil:
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", r.Fixture, r.Err)
				case !r.Equal:
					failed++
					fmt.Fprintf(out, "FAIL %s: line %d: want %q, got %q\n%s", r.Fixture, r.FirstDiff, r.Want, r.Got, r.Diff)
				default:
					fmt.Fprintf(out, "ok   %s\n", r.Fixture)
				}
			}
			config.Logger.Info("verify finished", zap.Int("fixtures", len(results)), zap.Int("failed", failed))
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d fixtures", errVerifyFailed, failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "jobs", "j", 0, "Fixtures to verify concurrently (default from config)")
	return cmd
}

func (c *cli) newFixturesCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "List the registered fixtures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if source != "" {
				f, ok := ctrace.LookupFixture(source)
				if !ok {
					return fmt.Errorf("unknown fixture %q", source)
				}
				_, err := fmt.Fprint(out, f.Source)
				return err
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, f := range ctrace.Fixtures() {
				fmt.Fprintf(w, "%s\t%s\n", f.Name, f.Filename)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Print the C source of the named fixture")
	return cmd
}

func (c *cli) newDisasmCmd() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "disasm FILE.c",
		Short: "Print the compiled bytecode of a C program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := c.libraryConfig()
			flags.apply(cmd, config)
			prog, err := compileFile(args[0], config)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), prog.Disassemble())
			return err
		},
	}
	cmd.Flags().BoolVar(&flags.simplified, "simplified-do-while", false, "Compile do-while as a pre-check while loop")
	cmd.Flags().BoolVar(&flags.noOptimize, "no-optimize", false, "Disable the peephole optimizer")
	return cmd
}

func (c *cli) newASTCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ast FILE.c",
		Short: "Print the parsed syntax tree of a C program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := compileFile(args[0], c.libraryConfig())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), prog.AST())
			return err
		},
	}
}

func (c *cli) newWatchCmd() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "watch FILE.c",
		Short: "Re-run a C program whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			rerun := func(ctx context.Context, path string) {
				fmt.Fprintf(cmd.ErrOrStderr(), "==> %s\n", path)
				if err := c.execute(ctx, cmd, path, flags); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "ctrace:", err)
				}
			}

			w, err := watch.New(path, rerun, c.cfg.GetDebounce(), c.logger)
			if err != nil {
				return err
			}
			rerun(ctx, path)
			if err := w.Start(ctx); err != nil {
				w.Stop()
				return err
			}
			defer w.Stop()

			<-ctx.Done()
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
