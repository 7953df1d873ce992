// Package ctrace reproduces the execution traces of small C loop and
// branch demonstration programs.
//
// It has two halves that must agree byte for byte:
//   - an oracle, which derives the expected output of each embedded
//     fixture program from a description of its loops and branches
//   - an interpreter for the C subset the fixtures are written in
//
// # Quick Start
//
// Run C source directly:
//
//	output, err := ctrace.Run(`int main() { printf("%d\n", 42); return 0; }`, nil)
//
// Print the expected trace of a fixture:
//
//	want, err := ctrace.Oracle("comprehensive", nil)
//
// Check every fixture against its oracle:
//
//	results, err := ctrace.Verify(ctx, nil, &ctrace.Config{Workers: 4})
//
// # Compiled Programs
//
// For repeated execution of the same program:
//
//	prog, err := ctrace.Compile(source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	output, stats, err := prog.RunContext(ctx, nil)
//
// # Configuration
//
// The [Config] type controls the do-while lowering, the loop and step
// budgets, the output writer and the logger.
//
// # Error Handling
//
// Errors are returned as specific types for detailed handling:
//   - [ParseError]: syntax errors in C source
//   - [CompileError]: semantic errors during compilation
//   - [RuntimeError]: faults during execution
//   - [ExitError]: main returned a non-zero status
//
// Faults of the fixtures themselves match [ErrMalformedFixture] or
// [ErrFormatOverflow] with errors.Is, whether they come from the
// interpreter or the oracle.
//
// # Thread Safety
//
// Compiled [Program] objects are safe for concurrent use.
// Each call to [Program.Run] creates an independent execution context.
package ctrace
