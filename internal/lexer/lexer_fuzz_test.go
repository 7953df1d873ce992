package lexer

import (
	"testing"

	"github.com/kolkov/ctrace/internal/token"
)

// FuzzLexer checks that the lexer handles arbitrary input without panicking
// and always reaches EOF.
func FuzzLexer(f *testing.F) {
	seeds := []string{
		"#include <stdio.h>\nint main() { return 0; }",
		`for (int i = 1; i <= 5; i++) { sum1 += i; }`,
		`while (k <= 5) { k++; }`,
		`if (num > 5) printf("%d > 5\n", num); else printf("%d <= 5\n", num);`,
		`printf("===== 测试完成！=====\n");`,
		`"unterminated`,
		`'x`,
		"/* open comment",
		`0x 0xZZ 09 12abc`,
		`"\x" "\777" '\'`,
		``,
		"\xff\xfe",
	}

	for _, seed := range seeds {
		f.Add([]byte(seed))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		l := New(data)

		tokenCount := 0
		const maxTokens = 10000

		for tokenCount < maxTokens {
			tok := l.Scan()

			if tok.Pos.Line < 1 || tok.Pos.Column < 1 || tok.Pos.Offset < 0 || tok.Pos.Offset > len(data) {
				t.Errorf("invalid position: %v", tok.Pos)
			}
			if tok.Type == token.EOF {
				return
			}
			tokenCount++
		}

		// Every Scan consumes at least one byte, so this is unreachable
		// for inputs shorter than maxTokens.
		if len(data) < maxTokens {
			t.Errorf("lexer did not reach EOF after %d tokens", tokenCount)
		}
	})
}
