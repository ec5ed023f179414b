package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// LiteralKind tags the Literal variant of spec.md §3.
type LiteralKind int

const (
	LitUndefined LiteralKind = iota
	LitZero
	LitNull
	LitBool
	LitScalar
	LitTensor
	LitTuple
	LitArray
	LitStruct
	LitEnumCase
)

// StructFieldLiteral is one (name, Use) pair of a struct literal.
type StructFieldLiteral struct {
	Name  string
	Value Use
}

// Literal is the tagged variant: undefined, zero, null, bool,
// scalar(numeric), tensor/tuple/array(list of Use), struct(ordered
// (name,Use) list), enumCase(name, list of Use). Aggregate literals may
// nest Uses, including nested literal Uses (spec.md §3).
type Literal struct {
	Kind LiteralKind

	BoolValue bool
	// NumValue holds a scalar's numeric value; integers are stored
	// exactly representable within float64's 53-bit mantissa, matching
	// the lexer's decimal-integer-or-float grammar (spec.md §4.5).
	NumValue float64
	IsFloat  bool

	Elements []Use // tensor, tuple, array
	Fields   []StructFieldLiteral
	CaseName string
	CaseArgs []Use
}

func UndefinedLiteral() Literal { return Literal{Kind: LitUndefined} }
func ZeroLiteral() Literal      { return Literal{Kind: LitZero} }
func NullLiteral() Literal      { return Literal{Kind: LitNull} }
func BoolLiteral(b bool) Literal {
	return Literal{Kind: LitBool, BoolValue: b}
}
func ScalarLiteral(v float64, isFloat bool) Literal {
	return Literal{Kind: LitScalar, NumValue: v, IsFloat: isFloat}
}
func TensorLiteral(elems ...Use) Literal {
	return Literal{Kind: LitTensor, Elements: elems}
}
func TupleLiteral(elems ...Use) Literal {
	return Literal{Kind: LitTuple, Elements: elems}
}
func ArrayLiteral(elems ...Use) Literal {
	return Literal{Kind: LitArray, Elements: elems}
}
func StructLiteral(fields ...StructFieldLiteral) Literal {
	return Literal{Kind: LitStruct, Fields: fields}
}
func EnumCaseLiteral(caseName string, args ...Use) Literal {
	return Literal{Kind: LitEnumCase, CaseName: caseName, CaseArgs: args}
}

// IsAggregate reports whether l nests further Uses (tensor, tuple,
// array, struct, enumCase). The verifier forbids nested aggregate
// literals outside of the owning `literal` instruction (spec.md §4.4).
func (l Literal) IsAggregate() bool {
	switch l.Kind {
	case LitTensor, LitTuple, LitArray, LitStruct, LitEnumCase:
		return true
	default:
		return false
	}
}

// Operands returns the nested Uses of an aggregate literal, in order.
func (l Literal) Operands() []Use {
	switch l.Kind {
	case LitTensor, LitTuple, LitArray:
		return l.Elements
	case LitStruct:
		out := make([]Use, len(l.Fields))
		for i, f := range l.Fields {
			out[i] = f.Value
		}
		return out
	case LitEnumCase:
		return l.CaseArgs
	default:
		return nil
	}
}

// substitute returns a copy of l with every operand use equal to old
// replaced by replacement, recursing into nested aggregate positions.
func (l Literal) substitute(replacement, old Use) Literal {
	sub := func(u Use) Use {
		return substituteUse(u, replacement, old)
	}
	out := l
	switch l.Kind {
	case LitTensor, LitTuple, LitArray:
		elems := make([]Use, len(l.Elements))
		for i, u := range l.Elements {
			elems[i] = sub(u)
		}
		out.Elements = elems
	case LitStruct:
		fields := make([]StructFieldLiteral, len(l.Fields))
		for i, f := range l.Fields {
			fields[i] = StructFieldLiteral{Name: f.Name, Value: sub(f.Value)}
		}
		out.Fields = fields
	case LitEnumCase:
		args := make([]Use, len(l.CaseArgs))
		for i, u := range l.CaseArgs {
			args[i] = sub(u)
		}
		out.CaseArgs = args
	}
	return out
}

// Equal is structural equality.
func (l Literal) Equal(o Literal) bool {
	if l.Kind != o.Kind {
		return false
	}
	switch l.Kind {
	case LitUndefined, LitZero, LitNull:
		return true
	case LitBool:
		return l.BoolValue == o.BoolValue
	case LitScalar:
		return l.NumValue == o.NumValue && l.IsFloat == o.IsFloat
	case LitTensor, LitTuple, LitArray:
		return equalUses(l.Elements, o.Elements)
	case LitStruct:
		if len(l.Fields) != len(o.Fields) {
			return false
		}
		for i, f := range l.Fields {
			if f.Name != o.Fields[i].Name || !f.Value.Equal(o.Fields[i].Value) {
				return false
			}
		}
		return true
	case LitEnumCase:
		return l.CaseName == o.CaseName && equalUses(l.CaseArgs, o.CaseArgs)
	default:
		return false
	}
}

func equalUses(a, b []Use) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (l Literal) String() string {
	switch l.Kind {
	case LitUndefined:
		return "undefined"
	case LitZero:
		return "zero"
	case LitNull:
		return "null"
	case LitBool:
		return strconv.FormatBool(l.BoolValue)
	case LitScalar:
		if l.IsFloat {
			return strconv.FormatFloat(l.NumValue, 'g', -1, 64)
		}
		return strconv.FormatInt(int64(l.NumValue), 10)
	case LitTensor:
		return "[" + joinUses(l.Elements) + "]"
	case LitTuple:
		return "(" + joinUses(l.Elements) + ")"
	case LitArray:
		return "[" + joinUses(l.Elements) + "]"
	case LitStruct:
		parts := make([]string, len(l.Fields))
		for i, f := range l.Fields {
			parts[i] = fmt.Sprintf("#%s: %s", f.Name, f.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case LitEnumCase:
		return "?" + l.CaseName + "(" + joinUses(l.CaseArgs) + ")"
	default:
		return "<invalid-literal>"
	}
}

func joinUses(us []Use) string {
	parts := make([]string, len(us))
	for i, u := range us {
		parts[i] = u.String()
	}
	return strings.Join(parts, ", ")
}
