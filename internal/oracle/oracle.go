// Package oracle produces the expected execution traces of the fixture
// programs.
//
// A Program is an ordered list of Steps. Each step owns its loop
// variable and accumulator; the only thing steps share is the order of
// their output. Programs are validated by a dry run before any output
// is produced, so a malformed program yields an error and no trace.
package oracle

import (
	"go.uber.org/zap"
)

// DefaultMaxLoopIterations bounds the iterations of a single loop.
const DefaultMaxLoopIterations = 10000

// Options controls validation and execution.
type Options struct {
	// MaxLoopIterations bounds each loop; zero means the default.
	MaxLoopIterations int

	// Logger receives diagnostics. Nil means no logging.
	Logger *zap.Logger
}

func (o Options) budget() int {
	if o.MaxLoopIterations <= 0 {
		return DefaultMaxLoopIterations
	}
	return o.MaxLoopIterations
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Program is a named sequence of steps.
type Program struct {
	Name  string
	Steps []Step
}

// Validate rejects a program whose loops would not terminate, exceed
// the iteration budget, overflow int, or interpolate a value outside
// the int range.
func (p *Program) Validate(opts Options) error {
	budget := opts.budget()
	seen := make(map[string]bool)
	for _, s := range p.Steps {
		if label := s.Label(); label != "" {
			if seen[label] {
				return malformed(label, "duplicate step label")
			}
			seen[label] = true
		}
		if err := s.validate(budget); err != nil {
			return err
		}
	}

	// Dry run: every runtime fault surfaces here, before any output.
	scratch := newTrace(budget)
	for _, s := range p.Steps {
		if err := s.Execute(scratch); err != nil {
			return err
		}
	}
	return nil
}

// Trace validates and then executes the program.
func (p *Program) Trace(opts Options) (*Trace, error) {
	log := opts.logger().With(zap.String("program", p.Name))

	if err := p.Validate(opts); err != nil {
		log.Debug("program rejected", zap.Error(err))
		return nil, err
	}

	t := newTrace(opts.budget())
	for _, s := range p.Steps {
		if d, ok := s.(*EmulatedDoWhileStep); ok && d.Diverges() {
			log.Warn("emulated do-while diverges from do-while semantics",
				zap.String("step", d.Name),
				zap.Stringer("counter", d.Counter))
		}
		if err := s.Execute(t); err != nil {
			return nil, err
		}
	}

	log.Debug("trace produced",
		zap.Int("steps", len(p.Steps)),
		zap.Int("lines", len(t.Lines())),
		zap.Int("bytes", len(t.Bytes())))
	return t, nil
}

// Output returns the program's expected output.
func (p *Program) Output(opts Options) (string, error) {
	t, err := p.Trace(opts)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

