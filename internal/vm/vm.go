// Package vm executes compiled fixture programs.
package vm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/kolkov/ctrace/internal/compiler"
	"github.com/kolkov/ctrace/internal/types"
)

// Stack size constant.
const (
	// DefaultStackSize is the initial stack capacity.
	DefaultStackSize = 64
)

// Default budgets.
const (
	DefaultMaxLoopIterations = 10000
	DefaultMaxSteps          = 100000
)

// Capacity thresholds for buffer pooling.
// Buffers exceeding max capacity are reallocated to base capacity
// to prevent holding peak allocations indefinitely.
const (
	basePrintCapacity = 8
	maxPrintCapacity  = 64
	basePrintBuf      = 128
	maxPrintBuf       = 4096
)

// contextCheckInterval is how many steps run between context checks.
const contextCheckInterval = 1024

// ExitError represents main returning a non-zero status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// RuntimeError is a fault raised while executing a program.
type RuntimeError struct {
	Line    int
	Kind    error // types.ErrMalformedFixture, types.ErrFormatOverflow or nil
	Message string
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Unwrap returns the fault kind.
func (e *RuntimeError) Unwrap() error {
	return e.Kind
}

// Config holds VM configuration options.
type Config struct {
	// MaxLoopIterations bounds the iterations of one loop per entry.
	MaxLoopIterations int

	// MaxSteps bounds the total number of statements executed.
	MaxSteps int

	// Logger receives debug diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// DefaultConfig returns the default budgets.
func DefaultConfig() Config {
	return Config{
		MaxLoopIterations: DefaultMaxLoopIterations,
		MaxSteps:          DefaultMaxSteps,
	}
}

// Stats summarizes one run. Every field is deterministic for a given
// program, so repeated runs report identical stats.
type Stats struct {
	Steps      int         // statements executed
	Iterations int         // loop iterations across all loops
	Loops      []LoopStats // per loop, indexed like Program.Loops
	OutputSize int         // bytes written
	ExitStatus int         // value returned by main
}

// LoopStats counts the activity of one loop.
type LoopStats struct {
	Kind       compiler.LoopKind
	Line       int
	Entries    int // times the loop statement was reached
	Iterations int // body executions across all entries
	Longest    int // most iterations in a single entry
}

// VM is the fixture-subset virtual machine. A VM runs one program once;
// the compiled Program itself is shared and never modified.
type VM struct {
	program *compiler.Program
	config  Config
	logger  *zap.Logger

	// Value stack (inline for performance - no pointer indirection)
	stackData []types.Value
	sp        int // Stack pointer (index of next free slot)

	// Frame of main
	locals []types.Value

	// I/O
	output *bufio.Writer

	// Accounting
	line       int   // source line of the current statement
	loopCounts []int // iterations of the current entry, per loop
	stats      Stats

	// Reusable buffers for performance (reduce allocations)
	printArgs []types.Value
	printBuf  []byte
}

// New creates a new VM for the given compiled program with default budgets.
func New(prog *compiler.Program) *VM {
	return NewWithConfig(prog, DefaultConfig())
}

// NewWithConfig creates a new VM with the specified configuration.
// Zero budgets are replaced by the defaults.
func NewWithConfig(prog *compiler.Program, config Config) *VM {
	if config.MaxLoopIterations <= 0 {
		config.MaxLoopIterations = DefaultMaxLoopIterations
	}
	if config.MaxSteps <= 0 {
		config.MaxSteps = DefaultMaxSteps
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	vm := &VM{
		program:    prog,
		config:     config,
		logger:     logger,
		stackData:  make([]types.Value, DefaultStackSize),
		locals:     make([]types.Value, prog.NumLocals()),
		output:     bufio.NewWriter(os.Stdout),
		loopCounts: make([]int, len(prog.Loops)),
		printArgs:  make([]types.Value, 0, basePrintCapacity),
		printBuf:   make([]byte, 0, basePrintBuf),
	}
	vm.stats.Loops = make([]LoopStats, len(prog.Loops))
	for i, l := range prog.Loops {
		vm.stats.Loops[i] = LoopStats{Kind: l.Kind, Line: l.Line}
	}
	return vm
}

// SetOutput sets the output writer.
func (vm *VM) SetOutput(w io.Writer) {
	vm.output = bufio.NewWriter(w)
}

// Stats returns the statistics of the last run.
func (vm *VM) Stats() Stats {
	return vm.stats
}

// -----------------------------------------------------------------------------
// Inline Stack Operations
// -----------------------------------------------------------------------------

// push pushes a value onto the stack.
func (vm *VM) push(v types.Value) {
	if vm.sp >= len(vm.stackData) {
		vm.growStack()
	}
	vm.stackData[vm.sp] = v
	vm.sp++
}

// pop removes and returns the top value from the stack.
func (vm *VM) pop() types.Value {
	vm.sp--
	return vm.stackData[vm.sp]
}

// peek returns the top value without removing it.
func (vm *VM) peek() types.Value {
	return vm.stackData[vm.sp-1]
}

// peekPop returns the second-from-top value and pops the top value.
// Useful for binary operations: left = peek, right = pop.
func (vm *VM) peekPop() (types.Value, types.Value) {
	vm.sp--
	return vm.stackData[vm.sp-1], vm.stackData[vm.sp]
}

// replaceTop replaces the top value without pop/push overhead.
func (vm *VM) replaceTop(v types.Value) {
	vm.stackData[vm.sp-1] = v
}

// popInts pops the two operands of a binary operation.
func (vm *VM) popInts() (int64, int64) {
	vm.sp -= 2
	return vm.stackData[vm.sp].AsInt(), vm.stackData[vm.sp+1].AsInt()
}

func (vm *VM) growStack() {
	newStack := make([]types.Value, len(vm.stackData)*2)
	copy(newStack, vm.stackData)
	vm.stackData = newStack
}

// -----------------------------------------------------------------------------
// Execution
// -----------------------------------------------------------------------------

// Run executes the compiled program.
func (vm *VM) Run() error {
	return vm.RunContext(context.Background())
}

// RunContext executes the compiled program, stopping early if ctx is
// cancelled. Output produced before an error is kept and flushed.
func (vm *VM) RunContext(ctx context.Context) error {
	vm.logger.Debug("run started",
		zap.String("file", vm.program.Filename),
		zap.Int("code", len(vm.program.Code)),
		zap.Int("locals", vm.program.NumLocals()))

	err := vm.execute(ctx, vm.program.Code)
	if flushErr := vm.output.Flush(); err == nil && flushErr != nil {
		err = flushErr
	}

	fields := []zap.Field{
		zap.Int("steps", vm.stats.Steps),
		zap.Int("iterations", vm.stats.Iterations),
		zap.Int("output", vm.stats.OutputSize),
	}
	if err != nil {
		vm.logger.Debug("run failed", append(fields, zap.Error(err))...)
		return err
	}
	vm.logger.Debug("run finished", append(fields, zap.Int("status", vm.stats.ExitStatus))...)

	if vm.stats.ExitStatus != 0 {
		return &ExitError{Code: vm.stats.ExitStatus}
	}
	return nil
}

// fault builds a RuntimeError at the current line.
func (vm *VM) fault(kind error, format string, args ...any) error {
	return &RuntimeError{Line: vm.line, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// checked range-checks an arithmetic result.
func (vm *VM) checked(n int64) (types.Value, error) {
	if !types.InIntRange(n) {
		return types.Value{}, vm.fault(types.ErrMalformedFixture, "integer overflow: %d does not fit in int", n)
	}
	return types.Int(n), nil
}

func (vm *VM) execute(ctx context.Context, code []compiler.Opcode) error {
	ip := 0
	for ip < len(code) {
		op := code[ip]
		ip++

		switch op {
		case compiler.Nop:
			// Do nothing

		case compiler.Num:
			idx := int(code[ip])
			ip++
			vm.push(types.Int(vm.program.Nums[idx]))

		case compiler.Str:
			idx := int(code[ip])
			ip++
			vm.push(types.Str(vm.program.Strs[idx]))

		case compiler.Dupe:
			vm.push(vm.peek())

		case compiler.Drop:
			vm.sp--

		case compiler.LoadLocal:
			idx := int(code[ip])
			ip++
			vm.push(vm.locals[idx])

		case compiler.StoreLocal:
			idx := int(code[ip])
			ip++
			vm.locals[idx] = vm.pop()

		case compiler.IncrLocal:
			amount := int64(code[ip])
			idx := int(code[ip+1])
			ip += 2
			v, err := vm.checked(vm.locals[idx].AsInt() + amount)
			if err != nil {
				return err
			}
			vm.locals[idx] = v

		case compiler.AugLocal:
			augOp := compiler.AugOp(code[ip])
			idx := int(code[ip+1])
			ip += 2
			v, err := vm.arith(augOp.Binary(), vm.locals[idx].AsInt(), vm.pop().AsInt())
			if err != nil {
				return err
			}
			vm.locals[idx] = v

		case compiler.Add, compiler.Subtract, compiler.Multiply, compiler.Divide, compiler.Modulo:
			a, b := vm.popInts()
			v, err := vm.arith(op, a, b)
			if err != nil {
				return err
			}
			vm.push(v)

		case compiler.Equal:
			l, r := vm.peekPop()
			vm.replaceTop(types.Bool(l.AsInt() == r.AsInt()))

		case compiler.NotEqual:
			l, r := vm.peekPop()
			vm.replaceTop(types.Bool(l.AsInt() != r.AsInt()))

		case compiler.Less:
			l, r := vm.peekPop()
			vm.replaceTop(types.Bool(l.AsInt() < r.AsInt()))

		case compiler.LessEqual:
			l, r := vm.peekPop()
			vm.replaceTop(types.Bool(l.AsInt() <= r.AsInt()))

		case compiler.Greater:
			l, r := vm.peekPop()
			vm.replaceTop(types.Bool(l.AsInt() > r.AsInt()))

		case compiler.GreaterEqual:
			l, r := vm.peekPop()
			vm.replaceTop(types.Bool(l.AsInt() >= r.AsInt()))

		case compiler.UnaryMinus:
			v, err := vm.checked(-vm.peek().AsInt())
			if err != nil {
				return err
			}
			vm.replaceTop(v)

		case compiler.Not:
			vm.replaceTop(types.Bool(!vm.peek().AsBool()))

		case compiler.Boolean:
			vm.replaceTop(types.Bool(vm.peek().AsBool()))

		case compiler.Jump:
			offset := int(code[ip])
			ip++
			ip += offset

		case compiler.JumpTrue:
			offset := int(code[ip])
			ip++
			if vm.pop().AsBool() {
				ip += offset
			}

		case compiler.JumpFalse:
			offset := int(code[ip])
			ip++
			if !vm.pop().AsBool() {
				ip += offset
			}

		case compiler.JumpEqual, compiler.JumpNotEq, compiler.JumpLess,
			compiler.JumpLessEq, compiler.JumpGreater, compiler.JumpGrEq:
			offset := int(code[ip])
			ip++
			a, b := vm.popInts()
			if compare(op, a, b) {
				ip += offset
			}

		case compiler.JumpLocalLessNum, compiler.JumpLocalLessEqNum,
			compiler.JumpLocalGreaterNum, compiler.JumpLocalGrEqNum:
			a := vm.locals[code[ip]].AsInt()
			b := vm.program.Nums[code[ip+1]]
			offset := int(code[ip+2])
			ip += 3
			if compare(op, a, b) {
				ip += offset
			}

		case compiler.Step:
			vm.line = int(code[ip])
			ip++
			vm.stats.Steps++
			if vm.stats.Steps > vm.config.MaxSteps {
				return vm.fault(types.ErrMalformedFixture, "execution exceeded %d steps", vm.config.MaxSteps)
			}
			if vm.stats.Steps%contextCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}

		case compiler.LoopEnter:
			idx := int(code[ip])
			ip++
			vm.loopCounts[idx] = 0
			vm.stats.Loops[idx].Entries++

		case compiler.LoopIter:
			idx := int(code[ip])
			ip++
			vm.loopCounts[idx]++
			vm.stats.Iterations++
			ls := &vm.stats.Loops[idx]
			ls.Iterations++
			ls.Longest = max(ls.Longest, vm.loopCounts[idx])
			if vm.loopCounts[idx] > vm.config.MaxLoopIterations {
				loop := vm.program.Loops[idx]
				vm.logger.Debug("loop budget exhausted",
					zap.Stringer("kind", loop.Kind),
					zap.Int("line", loop.Line),
					zap.Int("limit", vm.config.MaxLoopIterations))
				return &RuntimeError{
					Line:    loop.Line,
					Kind:    types.ErrMalformedFixture,
					Message: fmt.Sprintf("%s loop exceeded %d iterations", loop.Kind, vm.config.MaxLoopIterations),
				}
			}

		case compiler.Printf:
			idx := int(code[ip])
			numArgs := int(code[ip+1])
			ip += 2
			n, err := vm.executePrintf(idx, numArgs)
			if err != nil {
				return err
			}
			vm.push(types.Int(int64(n)))

		case compiler.Puts:
			s := vm.peek().AsStr()
			vm.write(append(append(vm.printBuf[:0], s...), '\n'))
			vm.replaceTop(types.Int(int64(len(s) + 1)))

		case compiler.Putchar:
			c := byte(vm.peek().AsInt())
			vm.write(append(vm.printBuf[:0], c))
			vm.replaceTop(types.Int(int64(c)))

		case compiler.Return:
			vm.stats.ExitStatus = int(vm.pop().AsInt())
			return nil

		default:
			panic(fmt.Sprintf("invalid opcode: %v", op))
		}
	}

	return nil
}

// arith applies a binary arithmetic opcode with C int semantics.
func (vm *VM) arith(op compiler.Opcode, a, b int64) (types.Value, error) {
	switch op {
	case compiler.Add:
		return vm.checked(a + b)
	case compiler.Subtract:
		return vm.checked(a - b)
	case compiler.Multiply:
		return vm.checked(a * b)
	case compiler.Divide:
		if b == 0 {
			return types.Value{}, vm.fault(nil, "division by zero")
		}
		return vm.checked(a / b)
	case compiler.Modulo:
		if b == 0 {
			return types.Value{}, vm.fault(nil, "division by zero")
		}
		return vm.checked(a % b)
	default:
		panic(fmt.Sprintf("invalid arithmetic opcode: %v", op))
	}
}

// compare evaluates the comparison of a compare-jump opcode.
func compare(op compiler.Opcode, a, b int64) bool {
	switch op {
	case compiler.JumpEqual:
		return a == b
	case compiler.JumpNotEq:
		return a != b
	case compiler.JumpLess, compiler.JumpLocalLessNum:
		return a < b
	case compiler.JumpLessEq, compiler.JumpLocalLessEqNum:
		return a <= b
	case compiler.JumpGreater, compiler.JumpLocalGreaterNum:
		return a > b
	default:
		return a >= b
	}
}

// executePrintf formats and writes one printf call, returning the
// number of bytes written.
func (vm *VM) executePrintf(formatIdx, numArgs int) (int, error) {
	// Capacity-aware reuse: shrink if buffer grew too large
	args := vm.printArgs
	if cap(args) > maxPrintCapacity {
		args = make([]types.Value, 0, basePrintCapacity)
	}
	if cap(args) < numArgs {
		args = make([]types.Value, numArgs)
	} else {
		args = args[:numArgs]
	}
	for i := numArgs - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}
	vm.printArgs = args[:0] // Save for next call

	buf := vm.printBuf
	if cap(buf) > maxPrintBuf {
		buf = make([]byte, 0, basePrintBuf)
	}
	buf, err := vm.program.Formats[formatIdx].Append(buf[:0], args)
	if err != nil {
		var kind error
		if errors.Is(err, types.ErrFormatOverflow) {
			kind = types.ErrFormatOverflow
		}
		return 0, &RuntimeError{Line: vm.line, Kind: kind, Message: err.Error()}
	}
	vm.write(buf)
	return len(buf), nil
}

// write appends to the output and keeps the buffer for reuse.
func (vm *VM) write(b []byte) {
	vm.output.Write(b)
	vm.stats.OutputSize += len(b)
	vm.printBuf = b[:0]
}
