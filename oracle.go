package ctrace

import (
	"context"
	"fmt"
	"strings"

	"github.com/kolkov/ctrace/internal/fixtures"
	"github.com/kolkov/ctrace/internal/oracle"
	"github.com/kolkov/ctrace/internal/verify"
)

// Fixture describes one embedded fixture program.
type Fixture struct {
	Name     string // registry name, such as "comprehensive"
	Filename string // original file name
	Source   string // C source text
}

// Fixtures returns the embedded fixtures in registration order.
func Fixtures() []Fixture {
	var list []Fixture
	for _, f := range fixtures.All() {
		list = append(list, Fixture{Name: f.Name, Filename: f.Filename, Source: f.Source})
	}
	return list
}

// LookupFixture finds an embedded fixture by name.
func LookupFixture(name string) (Fixture, bool) {
	f, ok := fixtures.Lookup(name)
	if !ok {
		return Fixture{}, false
	}
	return Fixture{Name: f.Name, Filename: f.Filename, Source: f.Source}, true
}

// Oracle returns the expected output of the named fixture. A fixture
// whose loops would not terminate, overflow, or exceed
// config.MaxLoopIterations is rejected before any output is produced.
func Oracle(name string, config *Config) (string, error) {
	f, err := lookup(name)
	if err != nil {
		return "", err
	}
	c := withDefaults(config)
	return f.Program.Output(oracleOptions(c))
}

// VerifyResult is the outcome of checking one fixture.
type VerifyResult struct {
	Fixture   string
	Equal     bool   // interpreter output matches the oracle byte for byte
	FirstDiff int    // 1-based first differing line, 0 when equal
	Want      string // oracle text of that line
	Got       string // interpreter text of that line
	Diff      string // unified diff, empty when equal
	Err       error  // set when the oracle or the interpreter failed
}

// Passed reports whether the fixture ran and matched its oracle.
func (r VerifyResult) Passed() bool {
	return r.Err == nil && r.Equal
}

// Verify runs the named fixtures (all of them when names is empty)
// through the interpreter, up to config.Workers at a time, and compares
// each output with the oracle. A failing fixture does not stop the
// others; the error is non-nil only for an unknown name or a
// cancelled ctx.
func Verify(ctx context.Context, names []string, config *Config) ([]VerifyResult, error) {
	c := withDefaults(config)

	list := fixtures.All()
	if len(names) > 0 {
		list = list[:0]
		for _, name := range names {
			f, err := lookup(name)
			if err != nil {
				return nil, err
			}
			list = append(list, f)
		}
	}

	interp := func(ctx context.Context, f *fixtures.Fixture) (string, error) {
		run := c
		run.Output = nil
		prog, err := CompileFile(f.Filename, f.Source, &run)
		if err != nil {
			return "", err
		}
		out, _, err := prog.RunContext(ctx, &run)
		return out, err
	}

	results, err := verify.Run(ctx, list, interp, verify.Config{
		Workers: c.Workers,
		Oracle:  oracleOptions(c),
		Logger:  c.Logger,
	})

	public := make([]VerifyResult, len(results))
	for i, r := range results {
		public[i] = VerifyResult{
			Fixture:   r.Fixture,
			Equal:     r.Report.Equal,
			FirstDiff: r.Report.FirstDiff,
			Want:      r.Report.Want,
			Got:       r.Report.Got,
			Diff:      r.Report.Diff,
			Err:       r.Err,
		}
	}
	return public, err
}

func lookup(name string) (*fixtures.Fixture, error) {
	f, ok := fixtures.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown fixture %q (known: %s)", name, strings.Join(fixtures.Names(), ", "))
	}
	return f, nil
}

func oracleOptions(c Config) oracle.Options {
	return oracle.Options{MaxLoopIterations: c.MaxLoopIterations, Logger: c.Logger}
}
