// Package types implements the tagged Type variant of spec.md §3/§4.1:
// void, bool, tensor, tuple, function, array, pointer, box, nominal
// struct/enum, alias, stack, and invalid, plus canonicalisation,
// structural equality and conformance.
//
// Nominal types (struct/enum/alias) are referenced by a Handle into a
// module-owned table rather than by value, per the interning design note
// in spec.md §9 ("Model as interned handles into a module-owned table").
// The table itself is owned by internal/ir.Module; this package only
// needs the narrow Resolver contract to canonicalise and validate
// through it, keeping internal/types free of any dependency on
// internal/ir.
package types

import (
	"fmt"
	"strings"

	"tenir/internal/shape"
)

// Kind tags the Type variant.
type Kind int

const (
	Void Kind = iota
	Bool
	Tensor
	Tuple
	Function
	Array
	Pointer
	Box
	Struct
	Enum
	Alias
	Stack
	Invalid
)

// Handle is an interned index into a module's nominal-type table.
type Handle int

// NominalKind Handle into a specific nominal table depending on Kind.

// Type is the tagged variant. Only the fields relevant to Kind are
// meaningful; the zero Type is Void.
type Type struct {
	Kind Kind

	// Tensor
	Shape    shape.TensorShape
	DataType shape.DataType

	// Tuple, Function arguments
	Elements []Type

	// Function return type
	Return *Type

	// Array length, Array/Pointer/Box element type
	Length  int
	Element *Type

	// Struct/Enum/Alias
	Handle Handle
	Name   string // carried for diagnostics; canonical identity is Handle
}

func VoidType() Type { return Type{Kind: Void} }
func BoolType() Type { return Type{Kind: Bool} }
func InvalidType() Type { return Type{Kind: Invalid} }
func StackType() Type { return Type{Kind: Stack} }

func TensorType(s shape.TensorShape, dt shape.DataType) Type {
	return Type{Kind: Tensor, Shape: s, DataType: dt}
}

func TupleType(elems ...Type) Type { return Type{Kind: Tuple, Elements: elems} }

func FunctionType(args []Type, ret Type) Type {
	return Type{Kind: Function, Elements: args, Return: &ret}
}

func ArrayType(length int, elem Type) Type {
	return Type{Kind: Array, Length: length, Element: &elem}
}

func PointerType(elem Type) Type { return Type{Kind: Pointer, Element: &elem} }
func BoxType(elem Type) Type     { return Type{Kind: Box, Element: &elem} }

func StructType(name string, h Handle) Type { return Type{Kind: Struct, Name: name, Handle: h} }
func EnumType(name string, h Handle) Type   { return Type{Kind: Enum, Name: name, Handle: h} }
func AliasType(name string, h Handle) Type  { return Type{Kind: Alias, Name: name, Handle: h} }

// Resolver answers the questions about nominal handles that
// canonicalisation, validity and element lookup need. internal/ir.Module
// implements it.
type Resolver interface {
	// ResolveAlias returns the underlying type of the alias named by h and
	// true, or (_, false) if h names an opaque (declaration-only) alias.
	ResolveAlias(h Handle) (Type, bool)
	// StructField returns the type of field name in the struct named by h.
	StructField(h Handle, name string) (Type, bool)
	// EnumCaseTypes returns the associated-types list of enum case name in
	// the enum named by h.
	EnumCaseTypes(h Handle, name string) ([]Type, bool)
}

// Unaliased recursively replaces alias types with their underlying type.
// An opaque alias (ResolveAlias returns false) is returned unchanged.
func Unaliased(t Type, r Resolver) Type {
	switch t.Kind {
	case Alias:
		under, ok := r.ResolveAlias(t.Handle)
		if !ok {
			return t
		}
		return Unaliased(under, r)
	case Tensor, Void, Bool, Struct, Enum, Stack, Invalid:
		return t
	case Tuple:
		out := make([]Type, len(t.Elements))
		for i, e := range t.Elements {
			out[i] = Unaliased(e, r)
		}
		return Type{Kind: Tuple, Elements: out}
	case Function:
		args := make([]Type, len(t.Elements))
		for i, e := range t.Elements {
			args[i] = Unaliased(e, r)
		}
		ret := Unaliased(*t.Return, r)
		return Type{Kind: Function, Elements: args, Return: &ret}
	case Array:
		elem := Unaliased(*t.Element, r)
		return Type{Kind: Array, Length: t.Length, Element: &elem}
	case Pointer:
		elem := Unaliased(*t.Element, r)
		return Type{Kind: Pointer, Element: &elem}
	case Box:
		elem := Unaliased(*t.Element, r)
		return Type{Kind: Box, Element: &elem}
	default:
		return t
	}
}

// IsValid reports whether t and all of its component types are valid,
// with every alias resolving (opaque aliases are valid only when
// allowOpaque is true — i.e. inside a declaration, per spec.md §7).
func IsValid(t Type, r Resolver, allowOpaque bool) bool {
	switch t.Kind {
	case Invalid:
		return false
	case Void, Bool, Tensor, Stack:
		return true
	case Struct, Enum:
		return true
	case Alias:
		under, ok := r.ResolveAlias(t.Handle)
		if !ok {
			return allowOpaque
		}
		return IsValid(under, r, allowOpaque)
	case Tuple:
		for _, e := range t.Elements {
			if !IsValid(e, r, allowOpaque) {
				return false
			}
		}
		return true
	case Function:
		for _, e := range t.Elements {
			if !IsValid(e, r, allowOpaque) {
				return false
			}
		}
		return IsValid(*t.Return, r, allowOpaque)
	case Array:
		return t.Length >= 0 && IsValid(*t.Element, r, allowOpaque)
	case Pointer, Box:
		return IsValid(*t.Element, r, allowOpaque)
	default:
		return false
	}
}

// Equal is structural equality. Nominal types compare by Handle identity
// (not by structural expansion), matching "referenced by shared identity,
// not value" (spec.md §9); aliases are NOT unwrapped by Equal — callers
// that want alias-transparent comparison must Unaliased both sides first.
func Equal(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Void, Bool, Stack, Invalid:
		return true
	case Tensor:
		return a.Shape.Equal(b.Shape) && a.DataType.Equal(b.DataType)
	case Tuple:
		return equalSlice(a.Elements, b.Elements)
	case Function:
		return equalSlice(a.Elements, b.Elements) && Equal(*a.Return, *b.Return)
	case Array:
		return a.Length == b.Length && Equal(*a.Element, *b.Element)
	case Pointer, Box:
		return Equal(*a.Element, *b.Element)
	case Struct, Enum, Alias:
		return a.Handle == b.Handle
	default:
		return false
	}
}

func equalSlice(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Conforms reports whether a conforms to b: presently strict equality
// after canonicalisation, an explicit extension point for future
// subtyping per spec.md §4.1.
func Conforms(a, b Type, r Resolver) bool {
	return Equal(Unaliased(a, r), Unaliased(b, r))
}

// ElementKeyKind tags an ElementKey variant.
type ElementKeyKind int

const (
	KeyIndex ElementKeyKind = iota
	KeyName
	KeyValue
)

// ElementKey is one step of an element-type lookup path: index i | name s |
// value (an int-typed Use, represented here only by its static Type since
// internal/types has no dependency on internal/ir's Use).
type ElementKey struct {
	Kind      ElementKeyKind
	Index     int
	Name      string
	ValueType Type
}

func IndexKey(i int) ElementKey   { return ElementKey{Kind: KeyIndex, Index: i} }
func NameKey(s string) ElementKey { return ElementKey{Kind: KeyName, Name: s} }
func ValueKey(vt Type) ElementKey { return ElementKey{Kind: KeyValue, ValueType: vt} }

// ElementAt resolves an element-type lookup at a key path, per spec.md
// §4.1: index applies to tuple/tensor (dropping the leading dim)/array;
// name applies to struct; value (int-typed) applies to tensor/array.
// Returns (_, false) if the path is ill-formed at any step.
func ElementAt(t Type, path []ElementKey, r Resolver) (Type, bool) {
	cur := t
	for _, k := range path {
		cur = Unaliased(cur, r)
		switch k.Kind {
		case KeyIndex:
			switch cur.Kind {
			case Tuple:
				if k.Index < 0 || k.Index >= len(cur.Elements) {
					return Type{}, false
				}
				cur = cur.Elements[k.Index]
			case Tensor:
				if cur.Shape.Rank() == 0 {
					return Type{}, false
				}
				cur = TensorType(cur.Shape.DroppingDimension(0), cur.DataType)
			case Array:
				if k.Index < 0 || k.Index >= cur.Length {
					return Type{}, false
				}
				cur = *cur.Element
			default:
				return Type{}, false
			}
		case KeyName:
			if cur.Kind != Struct {
				return Type{}, false
			}
			ft, ok := r.StructField(cur.Handle, k.Name)
			if !ok {
				return Type{}, false
			}
			cur = ft
		case KeyValue:
			if !k.ValueType.IsNumeric() {
				return Type{}, false
			}
			switch cur.Kind {
			case Tensor:
				if cur.Shape.Rank() == 0 {
					return Type{}, false
				}
				cur = TensorType(cur.Shape.DroppingDimension(0), cur.DataType)
			case Array:
				cur = *cur.Element
			default:
				return Type{}, false
			}
		default:
			return Type{}, false
		}
	}
	return cur, true
}

// IsNumeric reports whether t is an integer-width tensor scalar usable as
// an ElementKey value index (spec.md §4.1 "value Use (with int type)").
// Non-tensor types are never numeric in this sense.
func (t Type) IsNumeric() bool {
	return t.Kind == Tensor && t.Shape.IsScalar() && t.DataType.IsNumeric() && !t.DataType.IsFloat()
}

// IsVoid reports t == void.
func (t Type) IsVoid() bool { return t.Kind == Void }

// IsScalar reports a tensor of rank 0.
func (t Type) IsScalar() bool { return t.Kind == Tensor && t.Shape.IsScalar() }

// TensorTypeOf extracts the (shape, dtype) pair of a tensor type.
func (t Type) TensorTypeOf() (shape.TensorShape, shape.DataType, bool) {
	if t.Kind != Tensor {
		return shape.TensorShape{}, shape.DataType{}, false
	}
	return t.Shape, t.DataType, true
}

func (t Type) String() string {
	switch t.Kind {
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Invalid:
		return "<invalid>"
	case Stack:
		return "stack"
	case Tensor:
		if t.Shape.IsScalar() {
			return fmt.Sprintf("tensor<%s>", t.DataType)
		}
		return fmt.Sprintf("tensor<%s x %s>", dimsString(t.Shape), t.DataType)
	case Tuple:
		return "(" + joinTypes(t.Elements) + ")"
	case Function:
		return fmt.Sprintf("(%s) -> %s", joinTypes(t.Elements), t.Return)
	case Array:
		return fmt.Sprintf("[%d x %s]", t.Length, t.Element)
	case Pointer:
		return fmt.Sprintf("ptr<%s>", t.Element)
	case Box:
		return fmt.Sprintf("box<%s>", t.Element)
	case Struct:
		return "$" + t.Name
	case Enum:
		return "$" + t.Name
	case Alias:
		return "$" + t.Name
	default:
		return "<unknown-type>"
	}
}

func dimsString(s shape.TensorShape) string {
	dims := s.Dims()
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return strings.Join(parts, "x")
}

func joinTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
