package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestOptimizerPatterns tests that optimization produces correct patterns.
func TestOptimizerPatterns(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		wantOp Opcode // Expected fused opcode
	}{
		{
			name:   "JumpLocalLessEqNum in loop",
			code:   "int main() { int s = 0; for (int i = 1; i <= 5; i++) s += i; }",
			wantOp: JumpLocalLessEqNum,
		},
		{
			name:   "JumpLocalGreaterNum at loop entry",
			code:   "int main() { int s = 0; for (int i = 1; i <= 5; i++) s += i; }",
			wantOp: JumpLocalGreaterNum,
		},
		{
			name:   "JumpLocalGrEqNum in descending loop",
			code:   "int main() { int s = 0; for (int j = 5; j >= 1; j--) s += j; }",
			wantOp: JumpLocalGrEqNum,
		},
		{
			name:   "JumpLocalLessNum at descending loop entry",
			code:   "int main() { int s = 0; for (int j = 5; j >= 1; j--) s += j; }",
			wantOp: JumpLocalLessNum,
		},
		{
			name:   "if condition",
			code:   "int main() { int n = 10; if (n > 5) n = 0; }",
			wantOp: JumpLocalLessEqNum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiled := compileSource(t, tt.code, Options{})
			require.True(t, contains(compiled.Code, tt.wantOp), "missing %s in:\n%s", tt.wantOp, compiled.Disassemble())

			plain := compileSource(t, tt.code, Options{NoOptimize: true})
			require.False(t, contains(plain.Code, tt.wantOp))
			require.Less(t, len(compiled.Code), len(plain.Code))
		})
	}
}

// TestOptimizerNoFusion checks sequences the peephole pass must leave alone.
func TestOptimizerNoFusion(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"equality", "int main() { int n = 10; if (n == 10) n = 0; }"},
		{"two locals", "int main() { int a = 1, b = 2; if (a < b) a = b; }"},
		{"constant on the left", "int main() { int a = 1; if (5 > a) a = 0; }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiled := compileSource(t, tt.code, Options{})
			plain := compileSource(t, tt.code, Options{NoOptimize: true})
			require.Equal(t, plain.Code, compiled.Code)
		})
	}
}

// TestOptimizerJumpRelocation checks that jumps around fused code still
// land on the same instructions.
func TestOptimizerJumpRelocation(t *testing.T) {
	code := []Opcode{
		Jump, 6, // 0: -> 8
		LoadLocal, 0, // 2
		Num, 0, // 4
		JumpLess, -8, // 6: -> 0
		Return, // 8
	}
	got := optimizeCode(code)
	want := []Opcode{
		Jump, 4, // 0: -> 6
		JumpLocalLessNum, 0, 0, -6, // 2: -> 0
		Return, // 6
	}
	require.Equal(t, want, got)
}

// TestOptimizerSkipsJumpIntoSequence checks that a sequence is not fused
// when a jump lands inside it.
func TestOptimizerSkipsJumpIntoSequence(t *testing.T) {
	code := []Opcode{
		LoadLocal, 0, // 0
		Num, 0, // 2
		JumpLess, -6, // 4: -> 0
		Jump, -6, // 6: -> 2
	}
	require.Equal(t, code, optimizeCode(code))
}
