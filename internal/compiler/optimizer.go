package compiler

// Peephole optimization: a post-compilation pass that combines the
// loop-condition sequence "local compared with a constant" into one
// fused jump.

// Fused opcodes (added after standard opcodes).
const (
	// Loop optimization: LoadLocal + Num + JumpLess
	// JumpLocalLessNum slot numIdx offset
	// Jumps if local[slot] < nums[numIdx]
	JumpLocalLessNum Opcode = iota + 200

	// JumpLocalLessEqNum slot numIdx offset
	JumpLocalLessEqNum

	// JumpLocalGreaterNum slot numIdx offset
	JumpLocalGreaterNum

	// JumpLocalGrEqNum slot numIdx offset
	JumpLocalGrEqNum
)

// fusedJumps maps a compare-jump to its fused local-vs-constant form.
var fusedJumps = map[Opcode]Opcode{
	JumpLess:    JumpLocalLessNum,
	JumpLessEq:  JumpLocalLessEqNum,
	JumpGreater: JumpLocalGreaterNum,
	JumpGrEq:    JumpLocalGrEqNum,
}

// jumpFixup records a jump whose offset must be recomputed.
type jumpFixup struct {
	newOffsetPos int // Position of offset in NEW code
	oldOffsetPos int // Position of offset in OLD code
}

// optimizeCode applies peephole optimizations to a code sequence.
// Returns optimized code (may be shorter than input).
func optimizeCode(code []Opcode) []Opcode {
	if len(code) < 6 {
		return code
	}

	targets := jumpTargets(code)

	// Phase 1: Build position mapping and new code
	result := make([]Opcode, 0, len(code))
	posMap := make(map[int]int) // oldPos -> newPos
	var fixups []jumpFixup

	oldPos := 0
	for oldPos < len(code) {
		posMap[oldPos] = len(result)

		if fused, ok := tryFuse(code, oldPos, targets); ok {
			fixups = append(fixups, jumpFixup{
				newOffsetPos: len(result) + 3,
				oldOffsetPos: oldPos + 5,
			})
			result = append(result, fused...)
			oldPos += 6
			continue
		}

		instrLen := instructionLength(code, oldPos)
		if isJumpOpcode(code[oldPos]) {
			fixups = append(fixups, jumpFixup{
				newOffsetPos: len(result) + instrLen - 1,
				oldOffsetPos: oldPos + instrLen - 1,
			})
		}
		result = append(result, code[oldPos:oldPos+instrLen]...)
		oldPos += instrLen
	}

	// Record end position
	posMap[oldPos] = len(result)

	// Phase 2: Fix jump offsets. A target is relative to the position
	// after the offset operand, in both old and new code.
	for _, f := range fixups {
		oldTarget := f.oldOffsetPos + 1 + int(code[f.oldOffsetPos])
		newTarget := posMap[oldTarget]
		result[f.newOffsetPos] = opcodeInt(newTarget - (f.newOffsetPos + 1))
	}

	return result
}

// tryFuse attempts to fuse LoadLocal + Num + compare-jump at position i.
// No jump may land inside the fused sequence.
func tryFuse(code []Opcode, i int, targets map[int]bool) ([]Opcode, bool) {
	if len(code)-i < 6 || code[i] != LoadLocal || code[i+2] != Num {
		return nil, false
	}
	fused, ok := fusedJumps[code[i+4]]
	if !ok || targets[i+2] || targets[i+4] {
		return nil, false
	}
	return []Opcode{
		fused,
		code[i+1], // slot
		code[i+3], // numIdx
		code[i+5], // offset (will be fixed later)
	}, true
}

// jumpTargets returns the positions of all jump destinations.
func jumpTargets(code []Opcode) map[int]bool {
	targets := make(map[int]bool)
	for i := 0; i < len(code); {
		n := instructionLength(code, i)
		if isJumpOpcode(code[i]) {
			offsetPos := i + n - 1
			targets[offsetPos+1+int(code[offsetPos])] = true
		}
		i += n
	}
	return targets
}

// isJumpOpcode returns true if the opcode is a jump instruction.
func isJumpOpcode(op Opcode) bool {
	switch op {
	case Jump, JumpTrue, JumpFalse, JumpEqual, JumpNotEq,
		JumpLess, JumpLessEq, JumpGreater, JumpGrEq,
		JumpLocalLessNum, JumpLocalLessEqNum, JumpLocalGreaterNum, JumpLocalGrEqNum:
		return true
	default:
		return false
	}
}

// instructionLength returns the length of instruction at position i.
func instructionLength(code []Opcode, i int) int {
	if i >= len(code) {
		return 0
	}

	switch code[i] {
	case Num, Str, LoadLocal, StoreLocal,
		Jump, JumpTrue, JumpFalse, JumpEqual, JumpNotEq,
		JumpLess, JumpLessEq, JumpGreater, JumpGrEq,
		Step, LoopEnter, LoopIter:
		return 2

	case IncrLocal, AugLocal, Printf:
		return 3

	// Jump fused opcodes
	case JumpLocalLessNum, JumpLocalLessEqNum, JumpLocalGreaterNum, JumpLocalGrEqNum:
		return 4

	default:
		return 1
	}
}
