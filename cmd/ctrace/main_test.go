package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kolkov/ctrace"
)

// execute runs the CLI with args and returns stdout, stderr and the error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.c")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

const doWhileSource = `#include <stdio.h>
int main() {
    int m = 10;
    do {
        printf("m = %d\n", m);
        m++;
    } while (m <= 5);
    return 0;
}
`

func TestRunCommand(t *testing.T) {
	path := writeSource(t, doWhileSource)

	out, _, err := execute(t, "run", path)
	require.NoError(t, err)
	require.Equal(t, "m = 10\n", out)

	out, _, err = execute(t, "run", "--simplified-do-while", path)
	require.NoError(t, err)
	require.Equal(t, "", out)

	_, stderr, err := execute(t, "run", "--stats", path)
	require.NoError(t, err)
	require.Contains(t, stderr, "do-while loop at line 4")
}

func TestRunCommandErrors(t *testing.T) {
	_, _, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.c"))
	require.Error(t, err)

	path := writeSource(t, "int main() {\n  while (1) { }\n}\n")
	_, _, err = execute(t, "run", "--max-loop", "3", path)
	require.ErrorIs(t, err, ctrace.ErrMalformedFixture)

	path = writeSource(t, "int main() { return 3; }\n")
	_, _, err = execute(t, "run", path)
	require.Equal(t, 3, exitCode(err, &bytes.Buffer{}))
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ctrace.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("lowering:\n  simplified_do_while: true\n"), 0644))
	src := writeSource(t, doWhileSource)

	cmd := newRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"--config", cfgPath, "run", src})
	require.NoError(t, cmd.Execute())
	require.Equal(t, "", stdout.String())

	// Flags override the file.
	cmd = newRootCmd()
	stdout.Reset()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"--config", cfgPath, "run", "--simplified-do-while=false", src})
	require.NoError(t, cmd.Execute())
	require.Equal(t, "m = 10\n", stdout.String())
}

func TestOracleCommand(t *testing.T) {
	out, _, err := execute(t, "oracle", "comprehensive")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "===== 基本for循环测试 =====\n"))
	require.True(t, strings.HasSuffix(out, "\n===== 测试完成！=====\n"))

	_, _, err = execute(t, "oracle", "comprehensive", "--max-loop", "2")
	require.ErrorIs(t, err, ctrace.ErrMalformedFixture)

	_, _, err = execute(t, "oracle", "missing")
	require.Error(t, err)
}

func TestVerifyCommand(t *testing.T) {
	out, _, err := execute(t, "verify", "-j", "2")
	require.NoError(t, err)
	require.Equal(t, "ok   loop-test\nok   comprehensive\n", out)

	out, _, err = execute(t, "verify", "loop-test")
	require.NoError(t, err)
	require.Equal(t, "ok   loop-test\n", out)

	_, _, err = execute(t, "verify", "nope")
	require.Error(t, err)
	require.False(t, errors.Is(err, errVerifyFailed))
}

func TestFixturesCommand(t *testing.T) {
	out, _, err := execute(t, "fixtures")
	require.NoError(t, err)
	require.Contains(t, out, "loop-test")
	require.Contains(t, out, "ComprehensiveLoopTest.c")

	out, _, err = execute(t, "fixtures", "--source", "loop-test")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "// 循环和选择语句测试\n"))
}

func TestDebugViews(t *testing.T) {
	path := writeSource(t, doWhileSource)

	out, _, err := execute(t, "disasm", path)
	require.NoError(t, err)
	require.Contains(t, out, "=== Loops ===")
	require.Contains(t, out, "do-while at line 4")

	out, _, err = execute(t, "disasm", "--simplified-do-while", path)
	require.NoError(t, err)
	require.Contains(t, out, "(lowered)")

	out, _, err = execute(t, "ast", path)
	require.NoError(t, err)
	require.Contains(t, out, "int main()")
	require.Contains(t, out, "while (m <= 5)")
}

func TestExitCode(t *testing.T) {
	var stderr bytes.Buffer
	require.Equal(t, 0, exitCode(nil, &stderr))
	require.Equal(t, 1, exitCode(errVerifyFailed, &stderr))
	require.Empty(t, stderr.String())
	require.Equal(t, 2, exitCode(errors.New("boom"), &stderr))
	require.Equal(t, "ctrace: boom\n", stderr.String())
}
