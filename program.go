package ctrace

import (
	"bytes"
	"context"
	"errors"

	"github.com/kolkov/ctrace/internal/ast"
	"github.com/kolkov/ctrace/internal/compiler"
	"github.com/kolkov/ctrace/internal/vm"
)

// Program represents a compiled C program ready for execution.
// It is safe for concurrent use; each call to Run creates an
// independent execution context.
type Program struct {
	compiled *compiler.Program
	ast      *ast.Program
	source   string
}

// Stats summarizes one run. It holds no timing, so repeated runs of a
// program report identical stats.
type Stats struct {
	Steps      int // statements executed
	Iterations int // loop iterations across all loops
	OutputSize int // bytes written
	ExitStatus int // value returned by main
	Loops      []LoopStats
}

// LoopStats describes one loop statement of the program.
type LoopStats struct {
	Kind       string // "for", "while" or "do-while"
	Line       int
	Entries    int // times the loop was reached
	Iterations int // body executions across all entries
	Longest    int // most iterations in a single entry
}

// Run executes the program and returns its output.
//
// If config.Output is set, output is written there and the returned
// string is empty. On a runtime fault the output produced so far is
// returned along with the error.
func (p *Program) Run(config *Config) (string, error) {
	out, _, err := p.RunContext(context.Background(), config)
	return out, err
}

// RunContext is like Run but stops when ctx is cancelled, and also
// returns execution statistics.
func (p *Program) RunContext(ctx context.Context, config *Config) (string, Stats, error) {
	c := withDefaults(config)

	v := vm.NewWithConfig(p.compiled, vm.Config{
		MaxLoopIterations: c.MaxLoopIterations,
		MaxSteps:          c.MaxSteps,
		Logger:            c.Logger,
	})

	var outputBuf *bytes.Buffer
	if c.Output == nil {
		outputBuf = &bytes.Buffer{}
		v.SetOutput(outputBuf)
	} else {
		v.SetOutput(c.Output)
	}

	err := v.RunContext(ctx)
	stats := convertStats(v.Stats())

	var output string
	if outputBuf != nil {
		output = outputBuf.String()
	}
	return output, stats, convertRuntimeError(err)
}

// Disassemble returns a human-readable listing of the compiled bytecode.
func (p *Program) Disassemble() string {
	return p.compiled.Disassemble()
}

// AST returns the parsed program printed back as C.
func (p *Program) AST() string {
	return ast.String(p.ast)
}

// Source returns the original C source code.
func (p *Program) Source() string {
	return p.source
}

func convertRuntimeError(err error) error {
	if err == nil {
		return nil
	}
	var exit *vm.ExitError
	if errors.As(err, &exit) {
		return &ExitError{Code: exit.Code}
	}
	var re *vm.RuntimeError
	if errors.As(err, &re) {
		return &RuntimeError{Line: re.Line, Kind: re.Kind, Message: re.Message}
	}
	return err
}

func convertStats(s vm.Stats) Stats {
	stats := Stats{
		Steps:      s.Steps,
		Iterations: s.Iterations,
		OutputSize: s.OutputSize,
		ExitStatus: s.ExitStatus,
	}
	for _, l := range s.Loops {
		stats.Loops = append(stats.Loops, LoopStats{
			Kind:       l.Kind.String(),
			Line:       l.Line,
			Entries:    l.Entries,
			Iterations: l.Iterations,
			Longest:    l.Longest,
		})
	}
	return stats
}
