// Package fixtures embeds the C fixture programs together with the
// oracle programs that describe their expected output.
package fixtures

import (
	_ "embed"
	"slices"

	"github.com/kolkov/ctrace/internal/oracle"
)

//go:embed sources/loop_test.c
var loopTestSource string

//go:embed sources/comprehensive_loop_test.c
var comprehensiveSource string

// Fixture is a C program and the oracle for its output.
type Fixture struct {
	Name     string
	Filename string
	Source   string
	Program  *oracle.Program
}

var registry = []*Fixture{
	{
		Name:     "loop-test",
		Filename: "LoopTestCode.c",
		Source:   loopTestSource,
		Program:  loopTestProgram(),
	},
	{
		Name:     "comprehensive",
		Filename: "ComprehensiveLoopTest.c",
		Source:   comprehensiveSource,
		Program:  comprehensiveProgram(),
	},
}

// All returns the registered fixtures in registration order.
func All() []*Fixture {
	return slices.Clone(registry)
}

// Names returns the names of the registered fixtures.
func Names() []string {
	names := make([]string, len(registry))
	for i, f := range registry {
		names[i] = f.Name
	}
	return names
}

// Lookup finds a fixture by name.
func Lookup(name string) (*Fixture, bool) {
	for _, f := range registry {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// comparisons is the if chain both fixtures run on the value 10.
func comparisons() []oracle.Branch {
	return []oracle.Branch{
		oracle.NewBranch(oracle.Greater, 5, "%d > 5\n", "%d <= 5\n"),
		oracle.NewBranch(oracle.Equal, 10, "%d == 10\n", ""),
		oracle.NewBranch(oracle.NotEqual, 20, "%d != 20\n", ""),
	}
}

func loopTestProgram() *oracle.Program {
	return &oracle.Program{
		Name: "loop-test",
		Steps: []oracle.Step{
			&oracle.Banner{Text: "for循环测试：\n"},
			oracle.NewFor("for-sum", oracle.Up("i", 1, 5), "i = %d\n", "sum = %d\n\n"),
			&oracle.Banner{Text: "while循环测试：\n"},
			oracle.NewWhile("while-sum", oracle.Up("i", 1, 5), "i = %d\n", "sum = %d\n\n"),
			&oracle.Banner{Text: "if语句测试：\n"},
			&oracle.IfChainStep{Name: "number", Value: 10, Branches: comparisons()},
		},
	}
}

func comprehensiveProgram() *oracle.Program {
	return &oracle.Program{
		Name: "comprehensive",
		Steps: []oracle.Step{
			&oracle.Banner{Text: "===== 基本for循环测试 =====\n"},
			oracle.NewFor("sum1", oracle.Up("i", 1, 5), "i = %d, sum = %d\n", "最终sum1 = %d\n\n"),

			&oracle.Banner{Text: "===== 递减for循环测试 =====\n"},
			oracle.NewFor("sum2", oracle.Down("j", 5, 1), "j = %d, sum = %d\n", "最终sum2 = %d\n\n"),

			&oracle.Banner{Text: "===== while循环测试 =====\n"},
			oracle.NewWhile("sum3", oracle.Up("k", 1, 5), "k = %d, sum = %d\n", "最终sum3 = %d\n\n"),

			&oracle.Banner{Text: "===== do-while循环测试（简化模拟）=====\n"},
			oracle.NewEmulatedDoWhile("sum4", oracle.Up("m", 1, 5), "m = %d, sum = %d\n", "最终sum4 = %d\n\n"),

			&oracle.Banner{Text: "===== if-else条件语句测试 =====\n"},
			&oracle.IfChainStep{Name: "num", Value: 10, Branches: comparisons()},

			&oracle.Banner{Text: "\n===== 嵌套循环测试 =====\n"},
			&oracle.NestedStep{
				Name:   "triangle",
				Outer:  oracle.Up("x", 1, 3),
				Inner:  oracle.Counter{Var: "y", From: 1, Cmp: oracle.LessEq, By: 1},
				Token:  "* ",
				RowEnd: "\n",
			},

			&oracle.Banner{Text: "\n===== 测试完成！=====\n"},
		},
	}
}
