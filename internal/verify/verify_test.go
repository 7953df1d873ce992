package verify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kolkov/ctrace/internal/compiler"
	"github.com/kolkov/ctrace/internal/fixtures"
	"github.com/kolkov/ctrace/internal/parser"
	"github.com/kolkov/ctrace/internal/semantic"
	"github.com/kolkov/ctrace/internal/vm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// interpret is the real interpreter pipeline.
func interpret(ctx context.Context, f *fixtures.Fixture) (string, error) {
	prog, err := parser.ParseFile(f.Filename, []byte(f.Source))
	if err != nil {
		return "", err
	}
	resolved, err := semantic.Resolve(prog)
	if err != nil {
		return "", err
	}
	if errs := semantic.Check(prog, resolved); len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	compiled, err := compiler.Compile(prog, resolved, compiler.Options{})
	if err != nil {
		return "", err
	}
	machine := vm.New(compiled)
	var out bytes.Buffer
	machine.SetOutput(&out)
	err = machine.RunContext(ctx)
	return out.String(), err
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name      string
		want, got string
		equal     bool
		firstDiff int
		wantLine  string
		gotLine   string
	}{
		{"equal", "a\nb\n", "a\nb\n", true, 0, "", ""},
		{"changed line", "a\nb\n", "a\nc\n", false, 2, "b", "c"},
		{"extra line", "a\n", "a\nextra\n", false, 2, "", "extra"},
		{"missing newline", "a\nb\n", "a\nb", false, 3, "", ""},
		{"empty output", "sum = 15\n", "", false, 1, "sum = 15", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Compare(tt.want, tt.got)
			require.Equal(t, tt.equal, r.Equal)
			require.Equal(t, tt.firstDiff, r.FirstDiff)
			require.Equal(t, tt.wantLine, r.Want)
			require.Equal(t, tt.gotLine, r.Got)
			if tt.equal {
				require.Empty(t, r.Diff)
			} else {
				require.True(t, strings.HasPrefix(r.Diff, "--- oracle\n+++ interpreter\n"), r.Diff)
			}
		})
	}

	r := Compare("a\nb\n", "a\nc\n")
	require.Contains(t, r.Diff, "-b\n")
	require.Contains(t, r.Diff, "+c\n")
}

func TestRunFixtures(t *testing.T) {
	results, err := Run(context.Background(), fixtures.All(), interpret, Config{Workers: 2})
	require.NoError(t, err)
	require.Len(t, results, len(fixtures.All()))
	for i, r := range results {
		require.Equal(t, fixtures.All()[i].Name, r.Fixture)
		require.NoError(t, r.Err)
		require.True(t, r.Passed(), "%s:\n%s", r.Fixture, r.Report.Diff)
	}
}

func TestRunReportsFailures(t *testing.T) {
	boom := errors.New("boom")
	interp := func(ctx context.Context, f *fixtures.Fixture) (string, error) {
		switch f.Name {
		case "loop-test":
			return "for循环测试：\ni = 1\ni = 3\n", nil
		default:
			return "", boom
		}
	}

	core, logs := observer.New(zapcore.WarnLevel)
	results, err := Run(context.Background(), fixtures.All(), interp,
		Config{Workers: 1, Logger: zap.New(core)})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.False(t, results[0].Passed())
	require.NoError(t, results[0].Err)
	require.Equal(t, 3, results[0].Report.FirstDiff)
	require.Equal(t, "i = 2", results[0].Report.Want)
	require.Equal(t, "i = 3", results[0].Report.Got)

	require.False(t, results[1].Passed())
	require.ErrorIs(t, results[1].Err, boom)
	require.EqualError(t, results[1].Err, "interpreter: boom")

	require.Equal(t, 1, logs.FilterMessage("fixture output differs").Len())
	require.Equal(t, 1, logs.FilterMessage("fixture failed").Len())
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	interp := func(ctx context.Context, f *fixtures.Fixture) (string, error) {
		calls++
		return "", nil
	}
	_, err := Run(ctx, fixtures.All(), interp, Config{Workers: 1})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, calls)
}

func TestRunDefaultWorkers(t *testing.T) {
	results, err := Run(context.Background(), nil, interpret, Config{})
	require.NoError(t, err)
	require.Empty(t, results)
}
