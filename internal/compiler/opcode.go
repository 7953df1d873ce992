// Package compiler compiles a resolved C AST into bytecode for the VM.
package compiler

import "fmt"

// Opcode represents a virtual machine instruction.
// Each opcode is a 32-bit signed integer, allowing for large jump offsets
// and constant indices without overflow concerns.
type Opcode int32

const (
	// Nop does nothing (used for empty blocks to distinguish from nil).
	Nop Opcode = iota

	// Stack operations
	Num  // Push int constant: Num numIndex
	Str  // Push string constant: Str strIndex
	Dupe // Duplicate top of stack
	Drop // Discard top of stack

	// Locals
	LoadLocal  // Push local: LoadLocal slot
	StoreLocal // Pop into local: StoreLocal slot
	IncrLocal  // Add amount to local: IncrLocal amount slot
	AugLocal   // op= local: AugLocal augOp slot (value on stack)

	// Arithmetic operators
	Add      // a + b
	Subtract // a - b
	Multiply // a * b
	Divide   // a / b (truncates toward zero)
	Modulo   // a % b (sign of the dividend)

	// Comparison operators
	Equal        // a == b
	NotEqual     // a != b
	Less         // a < b
	LessEqual    // a <= b
	Greater      // a > b
	GreaterEqual // a >= b

	// Unary operators
	UnaryMinus // -a
	Not        // !a
	Boolean    // Convert to boolean (0 or 1)

	// Control flow
	Jump        // Unconditional jump: Jump offset
	JumpTrue    // Jump if true: JumpTrue offset
	JumpFalse   // Jump if false: JumpFalse offset
	JumpEqual   // Jump if equal: JumpEqual offset (two values on stack)
	JumpNotEq   // Jump if not equal: JumpNotEq offset
	JumpLess    // Jump if less: JumpLess offset
	JumpLessEq  // Jump if less or equal: JumpLessEq offset
	JumpGreater // Jump if greater: JumpGreater offset
	JumpGrEq    // Jump if greater or equal: JumpGrEq offset

	// Budgets and bookkeeping
	Step      // One statement executed: Step line
	LoopEnter // Reset the iteration count of a loop: LoopEnter loopIndex
	LoopIter  // Count one iteration of a loop: LoopIter loopIndex

	// Library calls; each pushes its C return value
	Printf  // printf: Printf formatIndex numArgs (arguments on stack)
	Puts    // puts: string on stack
	Putchar // putchar: character code on stack

	// Return ends main with the exit status on the stack
	Return
)

// String returns a human-readable name for the opcode.
func (op Opcode) String() string {
	switch op {
	case Nop:
		return "Nop"
	case Num:
		return "Num"
	case Str:
		return "Str"
	case Dupe:
		return "Dupe"
	case Drop:
		return "Drop"
	case LoadLocal:
		return "LoadLocal"
	case StoreLocal:
		return "StoreLocal"
	case IncrLocal:
		return "IncrLocal"
	case AugLocal:
		return "AugLocal"
	case Add:
		return "Add"
	case Subtract:
		return "Subtract"
	case Multiply:
		return "Multiply"
	case Divide:
		return "Divide"
	case Modulo:
		return "Modulo"
	case Equal:
		return "Equal"
	case NotEqual:
		return "NotEqual"
	case Less:
		return "Less"
	case LessEqual:
		return "LessEqual"
	case Greater:
		return "Greater"
	case GreaterEqual:
		return "GreaterEqual"
	case UnaryMinus:
		return "UnaryMinus"
	case Not:
		return "Not"
	case Boolean:
		return "Boolean"
	case Jump:
		return "Jump"
	case JumpTrue:
		return "JumpTrue"
	case JumpFalse:
		return "JumpFalse"
	case JumpEqual:
		return "JumpEqual"
	case JumpNotEq:
		return "JumpNotEq"
	case JumpLess:
		return "JumpLess"
	case JumpLessEq:
		return "JumpLessEq"
	case JumpGreater:
		return "JumpGreater"
	case JumpGrEq:
		return "JumpGrEq"
	case Step:
		return "Step"
	case LoopEnter:
		return "LoopEnter"
	case LoopIter:
		return "LoopIter"
	case Printf:
		return "Printf"
	case Puts:
		return "Puts"
	case Putchar:
		return "Putchar"
	case Return:
		return "Return"
	case JumpLocalLessNum:
		return "JumpLocalLessNum"
	case JumpLocalLessEqNum:
		return "JumpLocalLessEqNum"
	case JumpLocalGreaterNum:
		return "JumpLocalGreaterNum"
	case JumpLocalGrEqNum:
		return "JumpLocalGrEqNum"
	default:
		return fmt.Sprintf("Opcode(%d)", op)
	}
}

// AugOp represents a compound assignment operation.
type AugOp Opcode

const (
	AugAdd AugOp = iota // +=
	AugSub              // -=
	AugMul              // *=
	AugDiv              // /=
	AugMod              // %=
)

// String returns a human-readable name for the augmented operation.
func (op AugOp) String() string {
	switch op {
	case AugAdd:
		return "AugAdd"
	case AugSub:
		return "AugSub"
	case AugMul:
		return "AugMul"
	case AugDiv:
		return "AugDiv"
	case AugMod:
		return "AugMod"
	default:
		return fmt.Sprintf("AugOp(%d)", op)
	}
}

// Binary returns the arithmetic opcode applied by the augmented operation.
func (op AugOp) Binary() Opcode {
	switch op {
	case AugAdd:
		return Add
	case AugSub:
		return Subtract
	case AugMul:
		return Multiply
	case AugDiv:
		return Divide
	default:
		return Modulo
	}
}
