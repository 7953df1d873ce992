package compiler

import (
	"fmt"
	"strings"

	"github.com/kolkov/ctrace/internal/runtime"
)

// Program represents a compiled C program ready for VM execution.
type Program struct {
	// Filename is the source name, if known.
	Filename string

	// Code is the bytecode of main.
	Code []Opcode

	// Constant pools
	Nums    []int64           // Int constants
	Strs    []string          // String constants
	Formats []*runtime.Format // Parsed printf formats

	// Locals holds the declared name of each frame slot, for disassembly.
	Locals []string

	// Loops describes every loop in source order; LoopEnter and LoopIter
	// operands index into it.
	Loops []Loop
}

// NumLocals returns the frame size of main.
func (p *Program) NumLocals() int {
	return len(p.Locals)
}

// LoopKind identifies the source construct of a loop.
type LoopKind uint8

const (
	LoopFor LoopKind = iota
	LoopWhile
	LoopDoWhile
)

func (k LoopKind) String() string {
	switch k {
	case LoopFor:
		return "for"
	case LoopWhile:
		return "while"
	case LoopDoWhile:
		return "do-while"
	default:
		return fmt.Sprintf("LoopKind(%d)", k)
	}
}

// Loop is the metadata of one loop statement.
type Loop struct {
	Kind LoopKind
	Line int

	// Lowered is set for a do-while compiled with a leading condition check.
	Lowered bool
}

// Disassemble returns a human-readable disassembly of the program.
func (p *Program) Disassemble() string {
	var sb strings.Builder

	// Constants
	if len(p.Nums) > 0 {
		sb.WriteString("=== Numbers ===\n")
		for i, n := range p.Nums {
			fmt.Fprintf(&sb, "  [%d] %d\n", i, n)
		}
		sb.WriteString("\n")
	}

	if len(p.Strs) > 0 {
		sb.WriteString("=== Strings ===\n")
		for i, s := range p.Strs {
			fmt.Fprintf(&sb, "  [%d] %q\n", i, s)
		}
		sb.WriteString("\n")
	}

	if len(p.Formats) > 0 {
		sb.WriteString("=== Formats ===\n")
		for i, f := range p.Formats {
			fmt.Fprintf(&sb, "  [%d] %q (%d args)\n", i, f.Text(), f.NumArgs())
		}
		sb.WriteString("\n")
	}

	if len(p.Locals) > 0 {
		sb.WriteString("=== Locals ===\n")
		for i, name := range p.Locals {
			fmt.Fprintf(&sb, "  [%d] %s\n", i, name)
		}
		sb.WriteString("\n")
	}

	if len(p.Loops) > 0 {
		sb.WriteString("=== Loops ===\n")
		for i, l := range p.Loops {
			fmt.Fprintf(&sb, "  [%d] %s at line %d", i, l.Kind, l.Line)
			if l.Lowered {
				sb.WriteString(" (lowered)")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("=== main ===\n")
	p.disassembleCode(&sb, p.Code, "  ")

	return sb.String()
}

// disassembleCode outputs bytecode with proper formatting.
func (p *Program) disassembleCode(sb *strings.Builder, code []Opcode, indent string) {
	for i := 0; i < len(code); i++ {
		op := code[i]
		fmt.Fprintf(sb, "%s%04d: %s", indent, i, op.String())

		// Handle opcodes with arguments
		switch op {
		case Num:
			if i+1 < len(code) {
				i++
				idx := int(code[i])
				if idx < len(p.Nums) {
					fmt.Fprintf(sb, " [%d] = %d", idx, p.Nums[idx])
				} else {
					fmt.Fprintf(sb, " [%d]", idx)
				}
			}
		case Str:
			if i+1 < len(code) {
				i++
				idx := int(code[i])
				if idx < len(p.Strs) {
					fmt.Fprintf(sb, " [%d] = %q", idx, p.Strs[idx])
				} else {
					fmt.Fprintf(sb, " [%d]", idx)
				}
			}
		case LoadLocal, StoreLocal:
			if i+1 < len(code) {
				i++
				sb.WriteString(" " + p.localName(int(code[i])))
			}
		case IncrLocal:
			if i+2 < len(code) {
				i++
				amount := code[i]
				i++
				name := p.localName(int(code[i]))
				if amount > 0 {
					fmt.Fprintf(sb, " ++ %s", name)
				} else {
					fmt.Fprintf(sb, " -- %s", name)
				}
			}
		case AugLocal:
			if i+2 < len(code) {
				i++
				augOp := AugOp(code[i])
				i++
				fmt.Fprintf(sb, " %s %s", augOp, p.localName(int(code[i])))
			}
		case Jump, JumpTrue, JumpFalse, JumpEqual, JumpNotEq,
			JumpLess, JumpLessEq, JumpGreater, JumpGrEq:
			if i+1 < len(code) {
				i++
				offset := int(code[i])
				fmt.Fprintf(sb, " %+d -> %04d", offset, i+1+offset)
			}
		case JumpLocalLessNum, JumpLocalLessEqNum, JumpLocalGreaterNum, JumpLocalGrEqNum:
			if i+3 < len(code) {
				name := p.localName(int(code[i+1]))
				idx := int(code[i+2])
				i += 3
				offset := int(code[i])
				if idx < len(p.Nums) {
					fmt.Fprintf(sb, " %s %d %+d -> %04d", name, p.Nums[idx], offset, i+1+offset)
				} else {
					fmt.Fprintf(sb, " %s [%d] %+d -> %04d", name, idx, offset, i+1+offset)
				}
			}
		case Step:
			if i+1 < len(code) {
				i++
				fmt.Fprintf(sb, " line %d", code[i])
			}
		case LoopEnter, LoopIter:
			if i+1 < len(code) {
				i++
				fmt.Fprintf(sb, " [%d]", code[i])
			}
		case Printf:
			if i+2 < len(code) {
				i++
				idx := int(code[i])
				i++
				nargs := code[i]
				if idx < len(p.Formats) {
					fmt.Fprintf(sb, " %q %d", p.Formats[idx].Text(), nargs)
				} else {
					fmt.Fprintf(sb, " [%d] %d", idx, nargs)
				}
			}
		}
		sb.WriteString("\n")
	}
}

func (p *Program) localName(slot int) string {
	if slot >= 0 && slot < len(p.Locals) && p.Locals[slot] != "" {
		return fmt.Sprintf("%s [%d]", p.Locals[slot], slot)
	}
	return fmt.Sprintf("[%d]", slot)
}
