package fixtures

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/ctrace/internal/compiler"
	"github.com/kolkov/ctrace/internal/oracle"
	"github.com/kolkov/ctrace/internal/parser"
	"github.com/kolkov/ctrace/internal/semantic"
	"github.com/kolkov/ctrace/internal/vm"
)

const loopTestOutput = "for循环测试：\n" +
	"i = 1\ni = 2\ni = 3\ni = 4\ni = 5\n" +
	"sum = 15\n\n" +
	"while循环测试：\n" +
	"i = 1\ni = 2\ni = 3\ni = 4\ni = 5\n" +
	"sum = 15\n\n" +
	"if语句测试：\n" +
	"10 > 5\n10 == 10\n10 != 20\n"

const comprehensiveOutput = "===== 基本for循环测试 =====\n" +
	"i = 1, sum = 0\ni = 2, sum = 1\ni = 3, sum = 3\ni = 4, sum = 6\ni = 5, sum = 10\n" +
	"最终sum1 = 15\n\n" +
	"===== 递减for循环测试 =====\n" +
	"j = 5, sum = 0\nj = 4, sum = 5\nj = 3, sum = 9\nj = 2, sum = 12\nj = 1, sum = 14\n" +
	"最终sum2 = 15\n\n" +
	"===== while循环测试 =====\n" +
	"k = 1, sum = 0\nk = 2, sum = 1\nk = 3, sum = 3\nk = 4, sum = 6\nk = 5, sum = 10\n" +
	"最终sum3 = 15\n\n" +
	"===== do-while循环测试（简化模拟）=====\n" +
	"m = 1, sum = 0\nm = 2, sum = 1\nm = 3, sum = 3\nm = 4, sum = 6\nm = 5, sum = 10\n" +
	"最终sum4 = 15\n\n" +
	"===== if-else条件语句测试 =====\n" +
	"10 > 5\n10 == 10\n10 != 20\n" +
	"\n===== 嵌套循环测试 =====\n" +
	"* \n* * \n* * * \n" +
	"\n===== 测试完成！=====\n"

func TestOracleOutput(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"loop-test", loopTestOutput},
		{"comprehensive", comprehensiveOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := Lookup(tt.name)
			require.True(t, ok)
			got, err := f.Program.Output(oracle.Options{})
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestComprehensiveObservations(t *testing.T) {
	f, ok := Lookup("comprehensive")
	require.True(t, ok)
	tr, err := f.Program.Trace(oracle.Options{})
	require.NoError(t, err)

	want := map[string][]int64{
		"sum1":     {0, 1, 3, 6, 10},
		"sum2":     {0, 5, 9, 12, 14},
		"sum3":     {0, 1, 3, 6, 10},
		"sum4":     {0, 1, 3, 6, 10},
		"num":      {1, 1, 1},
		"triangle": {1, 2, 3},
	}
	got := make(map[string][]int64)
	for label := range want {
		got[label] = tr.Observations(label)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("observations mismatch (-want +got):\n%s", diff)
	}
	for _, label := range []string{"sum1", "sum2", "sum3", "sum4"} {
		final, ok := tr.Final(label)
		require.True(t, ok)
		require.Equal(t, int64(15), final, label)
	}

	var headers []string
	for _, line := range tr.Lines() {
		if line.Kind == oracle.Header {
			headers = append(headers, line.Text)
		}
	}
	require.Len(t, headers, 7)
	require.Equal(t, "===== 测试完成！=====", headers[len(headers)-1])
}

// interpret runs source through the interpreter pipeline.
func interpret(t *testing.T, f *Fixture, opts compiler.Options) string {
	t.Helper()

	prog, err := parser.ParseFile(f.Filename, []byte(f.Source))
	require.NoError(t, err)
	resolved, err := semantic.Resolve(prog)
	require.NoError(t, err)
	require.Empty(t, semantic.Check(prog, resolved))
	compiled, err := compiler.Compile(prog, resolved, opts)
	require.NoError(t, err)

	machine := vm.New(compiled)
	var out bytes.Buffer
	machine.SetOutput(&out)
	require.NoError(t, machine.Run())
	return out.String()
}

func TestInterpreterMatchesOracle(t *testing.T) {
	for _, f := range All() {
		want, err := f.Program.Output(oracle.Options{})
		require.NoError(t, err)

		for _, opts := range []compiler.Options{
			{},
			{SimplifiedDoWhile: true},
			{NoOptimize: true},
		} {
			got := interpret(t, f, opts)
			require.Equal(t, []byte(want), []byte(got), "%s %+v", f.Name, opts)
		}
	}
}

func TestRegistry(t *testing.T) {
	require.Equal(t, []string{"loop-test", "comprehensive"}, Names())

	_, ok := Lookup("missing")
	require.False(t, ok)

	for _, f := range All() {
		require.True(t, strings.HasPrefix(f.Source, "//") || strings.HasPrefix(f.Source, "#include"), f.Name)
		require.Contains(t, f.Source, "int main() {")
		require.True(t, strings.HasSuffix(f.Source, "return 0;\n}"), f.Name)
		require.NoError(t, f.Program.Validate(oracle.Options{}), f.Name)
	}

	all := All()
	all[0] = nil
	require.NotNil(t, All()[0])
}
