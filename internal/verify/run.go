package verify

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kolkov/ctrace/internal/fixtures"
	"github.com/kolkov/ctrace/internal/oracle"
)

// Interpreter runs a fixture's source and returns what it printed.
type Interpreter func(ctx context.Context, f *fixtures.Fixture) (string, error)

// Config holds configuration for a verification run.
type Config struct {
	// Workers is the number of fixtures verified concurrently.
	// Default: runtime.NumCPU()
	Workers int

	// Oracle controls trace generation.
	Oracle oracle.Options

	// Logger receives one entry per fixture. Nil means no logging.
	Logger *zap.Logger
}

// Result is the verification outcome of a single fixture.
type Result struct {
	Fixture string
	Report  Report

	// Err is set when the oracle rejected the fixture or the
	// interpreter failed; Report is then empty.
	Err error
}

// Passed reports whether the fixture ran and matched its oracle.
func (r Result) Passed() bool {
	return r.Err == nil && r.Report.Equal
}

// Run verifies each fixture with interp. Each fixture runs on its own
// and a failing fixture does not stop the others; the returned error is
// non-nil only when ctx is cancelled. Results are in input order.
func Run(ctx context.Context, list []*fixtures.Fixture, interp Interpreter, config Config) ([]Result, error) {
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}

	results := make([]Result, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)

	for i, f := range list {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = verifyOne(gctx, f, interp, config.Oracle)

			r := results[i]
			switch {
			case r.Err != nil:
				log.Warn("fixture failed", zap.String("fixture", f.Name), zap.Error(r.Err))
			case !r.Report.Equal:
				log.Warn("fixture output differs",
					zap.String("fixture", f.Name),
					zap.Int("line", r.Report.FirstDiff),
					zap.String("want", r.Report.Want),
					zap.String("got", r.Report.Got))
			default:
				log.Debug("fixture matches oracle", zap.String("fixture", f.Name))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

func verifyOne(ctx context.Context, f *fixtures.Fixture, interp Interpreter, opts oracle.Options) Result {
	r := Result{Fixture: f.Name}

	want, err := f.Program.Output(opts)
	if err != nil {
		r.Err = fmt.Errorf("oracle: %w", err)
		return r
	}
	got, err := interp(ctx, f)
	if err != nil {
		r.Err = fmt.Errorf("interpreter: %w", err)
		return r
	}
	r.Report = Compare(want, got)
	return r
}
