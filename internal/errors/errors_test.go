package errors_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "tenir/internal/errors"
)

func TestPositionStringIncludesFileOnlyWhenSet(t *testing.T) {
	withFile := cerrors.Position{File: "t.ir", Line: 3, Column: 5}
	assert.Equal(t, "t.ir:3:5", withFile.String())

	noFile := cerrors.Position{Line: 3, Column: 5}
	assert.Equal(t, "3:5", noFile.String())
}

func TestLexicalErrorSatisfiesErrorAndCarriesKind(t *testing.T) {
	pos := cerrors.Position{File: "t.ir", Line: 1, Column: 1}
	err := cerrors.NewLexicalError(cerrors.LexIllegalNumber, pos, "bad digit %q", "x")
	var e error = err
	require.Error(t, e)
	assert.Equal(t, cerrors.LexIllegalNumber, err.Kind)
	assert.Contains(t, err.Error(), "L002")
	assert.Contains(t, err.Error(), `bad digit "x"`)
}

func TestParseErrorHelpersPopulateDetailFields(t *testing.T) {
	pos := cerrors.Position{File: "t.ir", Line: 2, Column: 4}

	unexpected := cerrors.UnexpectedToken(pos, "a type", "IDENT foo")
	assert.Equal(t, cerrors.ParseUnexpectedToken, unexpected.Kind)
	assert.Equal(t, "a type", unexpected.Expected)
	assert.Equal(t, "IDENT foo", unexpected.Token)

	eof := cerrors.UnexpectedEndOfInput(pos, "')'")
	assert.Equal(t, cerrors.ParseUnexpectedEndOfInput, eof.Kind)
	assert.Equal(t, "')'", eof.Expected)

	invalidOperands := cerrors.InvalidOperands(pos, "add", "%x")
	assert.Equal(t, cerrors.ParseInvalidOperands, invalidOperands.Kind)
	assert.Equal(t, "add", invalidOperands.Opcode)
	assert.Equal(t, "%x", invalidOperands.Token)
}

func TestParseErrorErrorStringIncludesPositionAndKind(t *testing.T) {
	pos := cerrors.Position{File: "t.ir", Line: 7, Column: 2}
	err := cerrors.NewParseError(cerrors.ParseUndefinedNominalType, pos, "undefined nominal type %q", "$Foo")
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, pos.String()))
	assert.Contains(t, msg, "P007")
	assert.Contains(t, msg, `$Foo`)
}

// stringerNode is a minimal fmt.Stringer standing in for an IR node in
// VerificationError tests, which deliberately keep internal/errors free
// of any internal/ir dependency.
type stringerNode string

func (s stringerNode) String() string { return string(s) }

func TestVerificationErrorIncludesNodeOnlyWhenSet(t *testing.T) {
	withNode := cerrors.NewVerificationError(cerrors.VerifyUseBeforeDef, stringerNode("%x"), "used before defined")
	assert.Contains(t, withNode.Error(), "V012")
	assert.Contains(t, withNode.Error(), "%x")

	withoutNode := cerrors.NewVerificationError(cerrors.VerifyMissingTerminator, nil, "block has no terminator")
	assert.NotContains(t, withoutNode.Error(), "(at ")
	assert.Contains(t, withoutNode.Error(), "V009")
}

func TestReporterFormatIncludesSourceLineAndCaretAtColumn(t *testing.T) {
	source := "module \"m\"\nstage raw\nfunc @f() -> void\n"
	r := cerrors.NewReporter("t.ir", source)

	d := cerrors.Diagnostic{
		Level:    cerrors.Error,
		Code:     "V009",
		Message:  "block has no terminator",
		Position: cerrors.Position{File: "t.ir", Line: 3, Column: 6},
	}
	out := r.Format(d)
	assert.Contains(t, out, "V009")
	assert.Contains(t, out, "block has no terminator")
	assert.Contains(t, out, "t.ir:3:6")
	assert.Contains(t, out, "func @f() -> void")
}

func TestReporterFormatWithoutCodeOmitsBrackets(t *testing.T) {
	r := cerrors.NewReporter("t.ir", "x\n")
	d := cerrors.Diagnostic{Level: cerrors.Warning, Message: "something", Position: cerrors.Position{Line: 1, Column: 1}}
	out := r.Format(d)
	assert.NotContains(t, out, "[]")
}

func TestReporterFormatOutOfRangeLineSkipsSourceSnippet(t *testing.T) {
	r := cerrors.NewReporter("t.ir", "one line\n")
	d := cerrors.Diagnostic{Level: cerrors.Note, Code: "X", Message: "m", Position: cerrors.Position{Line: 99, Column: 1}}
	out := r.Format(d)
	lines := strings.Split(out, "\n")
	assert.LessOrEqual(t, len(lines), 4, "no source-line/caret lines should be appended for an out-of-range position")
}
