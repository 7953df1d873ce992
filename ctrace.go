package ctrace

import (
	"errors"
	"io"

	"github.com/kolkov/ctrace/internal/compiler"
	"github.com/kolkov/ctrace/internal/parser"
	"github.com/kolkov/ctrace/internal/semantic"
)

// Version is the ctrace version string.
const Version = "0.1.0"

// Run compiles and executes a C program and returns its output.
// For repeated execution of the same program, use Compile followed by
// Program.Run.
//
// Example:
//
//	output, err := ctrace.Run(`int main() { printf("%d\n", 6 * 7); }`, nil)
//	// output: "42\n"
func Run(source string, config *Config) (string, error) {
	prog, err := CompileFile("", source, config)
	if err != nil {
		return "", err
	}
	return prog.Run(config)
}

// Exec compiles source, runs it, and writes its output to output.
//
// Example:
//
//	err := ctrace.Exec(source, os.Stdout, &ctrace.Config{SimplifiedDoWhile: true})
func Exec(source string, output io.Writer, config *Config) error {
	c := withDefaults(config)
	c.Output = output
	_, err := Run(source, &c)
	return err
}

// Compile parses and compiles a C program with default options.
func Compile(source string) (*Program, error) {
	return CompileFile("", source, nil)
}

// CompileFile parses and compiles a C program. filename is used in
// diagnostics; config selects the do-while lowering and optimizer.
func CompileFile(filename, source string, config *Config) (*Program, error) {
	c := withDefaults(config)

	astProg, err := parser.ParseFile(filename, []byte(source))
	if err != nil {
		return nil, convertParseError(err)
	}

	resolved, err := semantic.Resolve(astProg)
	if err != nil {
		return nil, convertSemanticError(err)
	}
	if errs := semantic.Check(astProg, resolved); len(errs) > 0 {
		return nil, convertSemanticError(errs[0])
	}

	compiled, err := compiler.Compile(astProg, resolved, compiler.Options{
		SimplifiedDoWhile: c.SimplifiedDoWhile,
		NoOptimize:        c.NoOptimize,
	})
	if err != nil {
		return nil, &CompileError{Message: err.Error()}
	}

	return &Program{
		compiled: compiled,
		ast:      astProg,
		source:   source,
	}, nil
}

// MustCompile is like Compile but panics if the program cannot be compiled.
func MustCompile(source string) *Program {
	prog, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return prog
}

func convertParseError(err error) error {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Pos.Line, Column: pe.Pos.Column, Message: pe.Message}
	}
	var el parser.ErrorList
	if errors.As(err, &el) && len(el) > 0 {
		return &ParseError{Line: el[0].Pos.Line, Column: el[0].Pos.Column, Message: el[0].Message}
	}
	return &ParseError{Message: err.Error()}
}

func convertSemanticError(err error) error {
	var se *semantic.Error
	if errors.As(err, &se) {
		return &CompileError{Line: se.Pos.Line, Kind: se.Kind, Message: se.Message}
	}
	return &CompileError{Message: err.Error()}
}
