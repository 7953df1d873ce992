package oracle

import (
	"github.com/kolkov/ctrace/internal/runtime"
	"github.com/kolkov/ctrace/internal/types"
)

// Step is one control-flow construct of a Program. The concrete types
// are Banner, ForStep, WhileStep, EmulatedDoWhileStep, IfChainStep and
// NestedStep.
type Step interface {
	// Label identifies the step within its Program; empty for banners.
	Label() string

	// Execute appends the step's output to t.
	Execute(t *Trace) error

	// validate checks the step's static shape before any execution.
	validate(budget int) error
}

// Banner prints constant text, such as a section header.
type Banner struct {
	Text string
}

func (b *Banner) Label() string { return "" }

func (b *Banner) Execute(t *Trace) error {
	t.write(b.Text)
	return nil
}

func (b *Banner) validate(int) error { return nil }

// Loop is the common shape of the loop steps: print a line for each
// value of the counter, then add the value to an accumulator.
type Loop struct {
	Name    string // step label, also the accumulator's name
	Counter Counter
	Acc     int64           // initial accumulator value
	Body    *runtime.Format // arguments: variable, or variable and accumulator
	Final   *runtime.Format // argument: accumulator
}

func (l *Loop) Label() string { return l.Name }

// Execute runs the loop state machine. Each iteration prints first and
// then adds the variable to the accumulator.
func (l *Loop) Execute(t *Trace) error {
	acc := l.Acc
	_, err := l.Counter.run(l.Name, t.maxIterations,
		func(v int64) error {
			t.observe(l.Name, acc)
			if l.Body.NumArgs() == 1 {
				return t.printf(l.Name, l.Body, v)
			}
			return t.printf(l.Name, l.Body, v, acc)
		},
		func(v int64) error {
			next := acc + v
			if !types.InIntRange(next) {
				return malformed(l.Name, "accumulator %s overflows int at %d", l.Name, next)
			}
			acc = next
			return nil
		})
	if err != nil {
		return err
	}
	t.finals[l.Name] = acc
	return t.printf(l.Name, l.Final, acc)
}

func (l *Loop) validate(budget int) error {
	if l.Body == nil || l.Final == nil {
		return malformed(l.Name, "loop step needs body and final formats")
	}
	if n := l.Body.NumArgs(); n != 1 && n != 2 {
		return malformed(l.Name, "body format %q takes %d arguments, want 1 or 2", l.Body.Text(), n)
	}
	if n := l.Final.NumArgs(); n != 1 {
		return malformed(l.Name, "final format %q takes %d arguments, want 1", l.Final.Text(), n)
	}
	n := l.Counter.Iterations()
	if n < 0 {
		return malformed(l.Name, "loop %s never terminates", l.Counter)
	}
	if n > int64(budget) {
		return malformed(l.Name, "loop %s runs %d iterations, limit is %d", l.Counter, n, budget)
	}
	return nil
}

// ForStep is a for loop.
type ForStep struct{ Loop }

// WhileStep is a while loop with a manual increment at the end of its body.
type WhileStep struct{ Loop }

// EmulatedDoWhileStep is a do-while written as a pre-check while loop.
type EmulatedDoWhileStep struct{ Loop }

// Diverges reports whether a true do-while would behave differently:
// the pre-check skips the body when the predicate is false on entry,
// where a do-while runs it once.
func (s *EmulatedDoWhileStep) Diverges() bool {
	return !s.Counter.Cmp.Holds(s.Counter.From, s.Counter.Limit)
}

// NewFor returns a for-loop step.
func NewFor(name string, c Counter, body, final string) *ForStep {
	return &ForStep{newLoop(name, c, body, final)}
}

// NewWhile returns a while-loop step.
func NewWhile(name string, c Counter, body, final string) *WhileStep {
	return &WhileStep{newLoop(name, c, body, final)}
}

// NewEmulatedDoWhile returns an emulated do-while step.
func NewEmulatedDoWhile(name string, c Counter, body, final string) *EmulatedDoWhileStep {
	return &EmulatedDoWhileStep{newLoop(name, c, body, final)}
}

func newLoop(name string, c Counter, body, final string) Loop {
	return Loop{
		Name:    name,
		Counter: c,
		Body:    runtime.MustParseFormat(body),
		Final:   runtime.MustParseFormat(final),
	}
}

// Branch is one if statement of an IfChainStep: when Value Cmp Operand
// holds, Then is printed, otherwise Else (if any).
type Branch struct {
	Cmp     Cmp
	Operand int64
	Then    *runtime.Format // argument: value
	Else    *runtime.Format // nil for an if without else
}

// IfChainStep is a sequence of independent if statements testing one
// constant. It records 1 for each taken Then branch and 0 otherwise.
type IfChainStep struct {
	Name     string
	Value    int64
	Branches []Branch
}

func (s *IfChainStep) Label() string { return s.Name }

func (s *IfChainStep) Execute(t *Trace) error {
	for _, b := range s.Branches {
		if b.Cmp.Holds(s.Value, b.Operand) {
			t.observe(s.Name, 1)
			if err := t.printf(s.Name, b.Then, s.Value); err != nil {
				return err
			}
			continue
		}
		t.observe(s.Name, 0)
		if b.Else != nil {
			if err := t.printf(s.Name, b.Else, s.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *IfChainStep) validate(int) error {
	for _, b := range s.Branches {
		for _, f := range []*runtime.Format{b.Then, b.Else} {
			if f == nil {
				continue
			}
			if n := f.NumArgs(); n != 1 {
				return malformed(s.Name, "branch format %q takes %d arguments, want 1", f.Text(), n)
			}
		}
		if b.Then == nil {
			return malformed(s.Name, "branch %s %d has no then format", b.Cmp, b.Operand)
		}
	}
	return nil
}

// NewBranch returns a branch; an empty elseFormat means no else.
func NewBranch(cmp Cmp, operand int64, thenFormat, elseFormat string) Branch {
	b := Branch{Cmp: cmp, Operand: operand, Then: runtime.MustParseFormat(thenFormat)}
	if elseFormat != "" {
		b.Else = runtime.MustParseFormat(elseFormat)
	}
	return b
}

// NestedStep is a loop over rows whose inner loop runs up to the outer
// variable, printing Token per inner iteration and RowEnd per row.
// It records the token count of each row.
type NestedStep struct {
	Name   string
	Outer  Counter
	Inner  Counter // Limit is replaced by the outer variable
	Token  string
	RowEnd string
}

func (s *NestedStep) Label() string { return s.Name }

func (s *NestedStep) Execute(t *Trace) error {
	_, err := s.Outer.run(s.Name, t.maxIterations, func(x int64) error {
		inner := s.Inner
		inner.Limit = x
		n, err := inner.run(s.Name, t.maxIterations, func(int64) error {
			t.write(s.Token)
			return nil
		}, nil)
		if err != nil {
			return err
		}
		t.observe(s.Name, int64(n))
		t.write(s.RowEnd)
		return nil
	}, nil)
	return err
}

func (s *NestedStep) validate(budget int) error {
	n := s.Outer.Iterations()
	if n < 0 {
		return malformed(s.Name, "loop %s never terminates", s.Outer)
	}
	if n > int64(budget) {
		return malformed(s.Name, "loop %s runs %d iterations, limit is %d", s.Outer, n, budget)
	}
	return nil
}
