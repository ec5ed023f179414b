// Package errors implements the three error taxonomies of spec.md §7
// (LexicalError, ParseError, VerificationError) as concrete structs with
// a Kind enum field, plus a Reporter that formats a diagnostic against
// the offending source line.
//
// Grounded on the teacher's internal/errors package: a stable Code
// string, a Message, and a Position for diagnostics
// (internal/errors/codes.go, reporter.go), generalized from one flat
// CompilerError into three Kind-tagged taxonomies as spec.md names them.
package errors

import "fmt"

// Position locates a diagnostic in its source file. Carried into
// lexer/parser/verifier errors per SPEC_FULL.md's supplemented-feature
// note, mirroring the teacher's ast.Position shape.
type Position struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Range is a half-open [Start, End) source range.
type Range struct {
	Start, End Position
}
