package oracle

import (
	"fmt"

	"github.com/kolkov/ctrace/internal/types"
)

// Cmp is the operator of a loop predicate or branch condition.
type Cmp uint8

const (
	LessEq Cmp = iota
	Less
	GreaterEq
	Greater
	Equal
	NotEqual
)

func (c Cmp) String() string {
	switch c {
	case LessEq:
		return "<="
	case Less:
		return "<"
	case GreaterEq:
		return ">="
	case Greater:
		return ">"
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	default:
		return fmt.Sprintf("Cmp(%d)", c)
	}
}

// Holds evaluates a Cmp b.
func (c Cmp) Holds(a, b int64) bool {
	switch c {
	case LessEq:
		return a <= b
	case Less:
		return a < b
	case GreaterEq:
		return a >= b
	case Greater:
		return a > b
	case Equal:
		return a == b
	default:
		return a != b
	}
}

// Counter is a counting loop: Var starts at From, the body runs while
// Var Cmp Limit holds, and By is added after each body.
type Counter struct {
	Var   string
	From  int64
	Cmp   Cmp
	Limit int64
	By    int64
}

// Up returns the counter Var = from; Var <= to; Var++.
func Up(v string, from, to int64) Counter {
	return Counter{Var: v, From: from, Cmp: LessEq, Limit: to, By: 1}
}

// Down returns the counter Var = from; Var >= to; Var--.
func Down(v string, from, to int64) Counter {
	return Counter{Var: v, From: from, Cmp: GreaterEq, Limit: to, By: -1}
}

func (c Counter) String() string {
	return fmt.Sprintf("%s = %d; %s %s %d; %s += %d", c.Var, c.From, c.Var, c.Cmp, c.Limit, c.Var, c.By)
}

// Terminates reports whether the predicate eventually fails, ignoring
// overflow of the variable. A loop whose predicate is false on entry
// always terminates.
func (c Counter) Terminates() bool {
	if !c.Cmp.Holds(c.From, c.Limit) {
		return true
	}
	switch c.Cmp {
	case LessEq, Less:
		return c.By > 0
	case GreaterEq, Greater:
		return c.By < 0
	case Equal:
		return c.By != 0
	default:
		d := c.Limit - c.From
		return c.By != 0 && d%c.By == 0 && d/c.By > 0
	}
}

// Iterations returns how many times the body runs, or -1 if the loop
// never terminates.
func (c Counter) Iterations() int64 {
	if !c.Terminates() {
		return -1
	}
	if !c.Cmp.Holds(c.From, c.Limit) {
		return 0
	}
	switch c.Cmp {
	case LessEq:
		return (c.Limit-c.From)/c.By + 1
	case Less:
		return (c.Limit-c.From-1)/c.By + 1
	case GreaterEq:
		return (c.From-c.Limit)/-c.By + 1
	case Greater:
		return (c.From-c.Limit-1)/-c.By + 1
	case Equal:
		return 1
	default:
		return (c.Limit - c.From) / c.By
	}
}

// loopState is a state of the loop machine shared by every loop step.
type loopState uint8

const (
	stateInit loopState = iota
	stateCheck
	stateBody
	stateUpdate
	stateDone
)

// run drives Init -> (Check -> Body -> Update)* -> Done. body observes
// the variable; update performs the mutations of one iteration before
// the variable itself is stepped. budget bounds the iterations.
func (c Counter) run(label string, budget int, body, update func(v int64) error) (int, error) {
	if !c.Terminates() {
		return 0, malformed(label, "loop %s never terminates", c)
	}

	var v int64
	n := 0
	state := stateInit
	for {
		switch state {
		case stateInit:
			v = c.From
			state = stateCheck

		case stateCheck:
			if c.Cmp.Holds(v, c.Limit) {
				state = stateBody
			} else {
				state = stateDone
			}

		case stateBody:
			n++
			if n > budget {
				return n - 1, malformed(label, "loop %s exceeded %d iterations", c, budget)
			}
			if err := body(v); err != nil {
				return n, err
			}
			state = stateUpdate

		case stateUpdate:
			if update != nil {
				if err := update(v); err != nil {
					return n, err
				}
			}
			next := v + c.By
			if !types.InIntRange(next) {
				return n, malformed(label, "loop variable %s overflows int at %d", c.Var, next)
			}
			v = next
			state = stateCheck

		case stateDone:
			return n, nil
		}
	}
}
