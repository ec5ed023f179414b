// Package ir implements the in-memory IR data model of spec.md §3-§4:
// modules, functions, basic blocks, instructions, operands (uses) and
// literals, plus the ~55-kind instruction set and its type inference.
//
// Grounded on the teacher's internal/ir/{types,ir}.go arena-of-structs
// style (Program/Function/BasicBlock/Value as pointer-linked structs
// with explicit back-references) and internal/ir/builder.go's
// incremental-ID-allocator pattern (valueCounter/blockCounter), adapted
// from the teacher's EVM-oriented IR to the tensor-SSA IR of this spec.
// Per spec.md §9's "interned handles" note, nominal types (struct/enum/
// alias) are referenced by Handle into Module's tables rather than by
// value; argument/instruction/function objects are referenced directly
// by pointer (each carries its own parent back-reference and an
// index-in-parent field), which is the direct-pointer analogue of an
// arena-of-indices and matches the teacher's own *Value/*BasicBlock
// pointer style more closely than a raw index arena would.
package ir

import "tenir/internal/types"

// Definition is anything a Use can point at: an Argument, an
// Instruction, a Variable (global) or a Function (for recursive/
// first-class-function apply and adjoint primal references).
type Definition interface {
	Type() types.Type
	definitionMarker()
}

func (a *Argument) definitionMarker()    {}
func (i *Instruction) definitionMarker() {}
func (v *Variable) definitionMarker()    {}
func (f *Function) definitionMarker()    {}

// Use is a tagged variant over literal(Type, Literal) and
// definition(Definition), per spec.md §3.
type Use struct {
	isLiteral bool
	litType   types.Type
	lit       Literal
	def       Definition
}

// LiteralUse builds a literal-form Use.
func LiteralUse(t types.Type, l Literal) Use {
	return Use{isLiteral: true, litType: t, lit: l}
}

// DefUse builds a definition-form Use referencing d.
func DefUse(d Definition) Use {
	return Use{def: d}
}

// ZeroUse is the Use zero value: an invalid, unset use. Containers use
// it as a "no operand" sentinel (e.g. a `return` with no value).
var ZeroUse = Use{}

// IsZero reports whether u was never assigned (neither literal nor
// definition).
func (u Use) IsZero() bool { return !u.isLiteral && u.def == nil }

// IsLiteral reports whether u is a literal use.
func (u Use) IsLiteral() bool { return u.isLiteral }

// AsLiteral returns u's Literal and true if u is a literal use.
func (u Use) AsLiteral() (Literal, bool) {
	if !u.isLiteral {
		return Literal{}, false
	}
	return u.lit, true
}

// Definition returns u's Definition and true if u is a definition use.
func (u Use) Definition() (Definition, bool) {
	if u.isLiteral || u.def == nil {
		return nil, false
	}
	return u.def, true
}

// Type returns the Use's static type: the literal's annotated type, or
// the referenced definition's type.
func (u Use) Type() types.Type {
	if u.isLiteral {
		return u.litType
	}
	if u.def == nil {
		return types.InvalidType()
	}
	return u.def.Type()
}

// Equal is structural equality: same literal value+type, or same
// definition identity.
func (u Use) Equal(o Use) bool {
	if u.isLiteral != o.isLiteral {
		return false
	}
	if u.isLiteral {
		return types.Equal(u.litType, o.litType) && u.lit.Equal(o.lit)
	}
	return u.def == o.def
}

func (u Use) String() string {
	if u.isLiteral {
		return u.lit.String()
	}
	if u.def == nil {
		return "<unset-use>"
	}
	switch d := u.def.(type) {
	case *Argument:
		return d.refString()
	case *Instruction:
		return d.refString()
	case *Variable:
		return "@" + d.Name
	case *Function:
		return "@" + d.Name
	default:
		return "<use>"
	}
}
