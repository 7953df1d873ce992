package parser_test

import (
	"testing"

	"github.com/kolkov/ctrace/internal/ast"
	"github.com/kolkov/ctrace/internal/parser"
)

// FuzzParser feeds random input to the parser to find crashes. A
// successful parse must also print without panicking.
func FuzzParser(f *testing.F) {
	seeds := []string{
		"",
		"int main() {}",
		"int main(void) { return 0; }",
		"#include <stdio.h>\nint main() { printf(\"%d\\n\", 1); return 0; }",
		"int main() { int i, sum = 0; for (i = 1; i <= 5; i++) sum += i; }",
		"int main() { for (int j = 5; j >= 1; j--) { } }",
		"int main() { int k = 1; while (k <= 5) { k++; } }",
		"int main() { int m = 1; do { m++; } while (m <= 5); }",
		"int main() { if (1) ; else if (2) ; else { } }",
		"int main() { for (;;) { break; continue; } }",
		"int main() { x = y = 3; -x; !x; --x; x--; }",
		"int main() {",
		"int main() }",
		"int main() { int x = 1 }",
		"int main() { else }",
		"int main( { }",
		"}}}{{{",
		"int main() { printf(\"unterminated); }",
		"int main() { putchar('\\n'); puts(\"ok\"); }",
	}

	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, src string) {
		prog, err := parser.Parse(src)
		if err != nil {
			return
		}
		_ = ast.String(prog)
	})
}
