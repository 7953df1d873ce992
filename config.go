package ctrace

import (
	"io"

	"go.uber.org/zap"

	"github.com/kolkov/ctrace/internal/vm"
)

// Config holds configuration options for compilation and execution.
type Config struct {
	// SimplifiedDoWhile compiles do { S } while (c); as while (c) S,
	// the way the fixtures' original compiler treated it.
	// Default: false (true do-while semantics).
	SimplifiedDoWhile bool

	// NoOptimize disables the peephole optimizer.
	NoOptimize bool

	// MaxLoopIterations bounds each loop, per entry (default: 10000).
	MaxLoopIterations int

	// MaxSteps bounds the statements a run executes (default: 100000).
	MaxSteps int

	// Workers is the number of fixtures Verify runs concurrently.
	// Default: one per CPU.
	Workers int

	// Output is the writer for program output.
	// If nil, output is captured and returned from Run.
	Output io.Writer

	// Logger receives diagnostics. If nil, nothing is logged.
	Logger *zap.Logger
}

// applyDefaults fills in default values for unset Config fields.
func (c *Config) applyDefaults() {
	if c.MaxLoopIterations <= 0 {
		c.MaxLoopIterations = vm.DefaultMaxLoopIterations
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = vm.DefaultMaxSteps
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// withDefaults returns a copy of config with defaults applied; config
// may be nil.
func withDefaults(config *Config) Config {
	var c Config
	if config != nil {
		c = *config
	}
	c.applyDefaults()
	return c
}
