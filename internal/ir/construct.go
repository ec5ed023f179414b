package ir

import (
	"tenir/internal/shape"
	"tenir/internal/types"
)

// Constructors build an InstructionKind value for each opcode. These
// are the builder-facing API the parser (and transforms that synthesize
// new instructions, e.g. predecessor hoisting's `branch`) use instead
// of populating InstructionKind's fields by hand.

func Literal(t types.Type, l Literal) InstructionKind {
	return InstructionKind{Op: OpLiteral, LitType: t, Lit: l}
}

func NumericUnary(op NumericUnaryOp, v Use) InstructionKind {
	return InstructionKind{Op: OpNumericUnary, UnaryOp: op, Operand: v}
}

func Not(v Use) InstructionKind { return InstructionKind{Op: OpNot, Operand: v} }

func NumericBinary(op NumericBinaryOp, a, b Use) InstructionKind {
	return InstructionKind{Op: OpNumericBinary, NumBinOp: op, LHS: a, RHS: b}
}

func BooleanBinary(op BooleanBinaryOp, a, b Use) InstructionKind {
	return InstructionKind{Op: OpBooleanBinary, BoolOp: op, LHS: a, RHS: b}
}

func Compare(op CompareOp, a, b Use) InstructionKind {
	return InstructionKind{Op: OpCompare, CmpOp: op, LHS: a, RHS: b}
}

func Dot(a, b Use) InstructionKind { return InstructionKind{Op: OpDot, LHS: a, RHS: b} }

func Concatenate(axis int, vs ...Use) InstructionKind {
	return InstructionKind{Op: OpConcatenate, Operands: vs, Axis: axis}
}

func Transpose(v Use) InstructionKind { return InstructionKind{Op: OpTranspose, Operand: v} }

func Reverse(v Use, dims []int) InstructionKind {
	return InstructionKind{Op: OpReverse, Operand: v, Dims: dims}
}

func Slice(v Use, start, count int) InstructionKind {
	return InstructionKind{Op: OpSlice, Operand: v, Range: SliceRange{Start: start, Count: count}}
}

func Random(s shape.TensorShape, lo, hi Use) InstructionKind {
	return InstructionKind{Op: OpRandom, ResultShape: s, Lo: lo, Hi: hi}
}

func Select(l, r, by Use) InstructionKind {
	return InstructionKind{Op: OpSelect, LHS: l, RHS: r, By: by}
}

func Reduce(comb ReductionCombinator, v Use, initial *Use, dims []int) InstructionKind {
	k := InstructionKind{Op: OpReduce, Combinator: comb, Operand: v, Dims: dims}
	if initial != nil {
		k.Initial, k.HasInitial = *initial, true
	}
	return k
}

func Scan(comb ReductionCombinator, v Use, dims []int) InstructionKind {
	return InstructionKind{Op: OpScan, Combinator: comb, Operand: v, Dims: dims}
}

func ReduceWindow(comb ReductionCombinator, v Use, initial *Use, dims, strides []int, padding []shape.Padding) InstructionKind {
	k := InstructionKind{Op: OpReduceWindow, Combinator: comb, Operand: v, Dims: dims, Strides: strides, Padding: padding}
	if initial != nil {
		k.Initial, k.HasInitial = *initial, true
	}
	return k
}

func Convolve(lhs, kernel Use, strides []int, padding []shape.Padding, ld, rd []int, groups int, hasGroups bool) InstructionKind {
	return InstructionKind{
		Op: OpConvolve, LHS: lhs, RHS: kernel, Strides: strides, Padding: padding,
		LDilations: ld, RDilations: rd, Groups: groups, HasGroups: hasGroups,
	}
}

func Rank(v Use) InstructionKind      { return InstructionKind{Op: OpRank, Operand: v} }
func Shape(v Use) InstructionKind     { return InstructionKind{Op: OpShape, Operand: v} }
func UnitCount(v Use) InstructionKind { return InstructionKind{Op: OpUnitCount, Operand: v} }

func PadShape(v Use, at int) InstructionKind {
	return InstructionKind{Op: OpPadShape, Operand: v, At: at}
}

func SqueezeShape(v Use, at int) InstructionKind {
	return InstructionKind{Op: OpSqueezeShape, Operand: v, At: at}
}

func ShapeCast(v Use, s shape.TensorShape) InstructionKind {
	return InstructionKind{Op: OpShapeCast, Operand: v, CastShape: s}
}

func BitCast(v Use, t types.Type) InstructionKind {
	return InstructionKind{Op: OpBitCast, Operand: v, TargetType: t}
}

func DataTypeCast(v Use, dt shape.DataType) InstructionKind {
	return InstructionKind{Op: OpDataTypeCast, Operand: v, TargetDataType: dt}
}

func Extract(from Use, keys []types.ElementKey) InstructionKind {
	return InstructionKind{Op: OpExtract, Operand: from, Keys: keys}
}

func Insert(src, to Use, keys []types.ElementKey) InstructionKind {
	return InstructionKind{Op: OpInsert, Operand: src, Target: to, Keys: keys}
}

func Apply(f Use, args []Use) InstructionKind {
	return InstructionKind{Op: OpApply, Callee: f, Args: args}
}

func AllocateStack(t types.Type, n int) InstructionKind {
	return InstructionKind{Op: OpAllocateStack, TargetType: t, StaticN: n}
}

func AllocateHeap(t types.Type, count Use) InstructionKind {
	return InstructionKind{Op: OpAllocateHeap, TargetType: t, Count: count}
}

func AllocateBox(t types.Type) InstructionKind {
	return InstructionKind{Op: OpAllocateBox, TargetType: t}
}

func ProjectBox(v Use) InstructionKind { return InstructionKind{Op: OpProjectBox, Operand: v} }
func Load(p Use) InstructionKind       { return InstructionKind{Op: OpLoad, Operand: p} }

func Store(v, p Use) InstructionKind {
	return InstructionKind{Op: OpStore, Operand: v, Target: p}
}

func ElementPointer(p Use, keys []types.ElementKey) InstructionKind {
	return InstructionKind{Op: OpElementPointer, Operand: p, Keys: keys}
}

func Copy(from, to, count Use) InstructionKind {
	return InstructionKind{Op: OpCopy, Operand: from, Target: to, Count: count}
}

func CreateStack() InstructionKind { return InstructionKind{Op: OpCreateStack} }

func DestroyStack(s Use) InstructionKind { return InstructionKind{Op: OpDestroyStack, Operand: s} }

func Push(v, s Use) InstructionKind {
	return InstructionKind{Op: OpPush, Operand: v, Target: s}
}

func Pop(t types.Type, s Use) InstructionKind {
	return InstructionKind{Op: OpPop, TargetType: t, Operand: s}
}

func Retain(b Use) InstructionKind      { return InstructionKind{Op: OpRetain, Operand: b} }
func Release(b Use) InstructionKind     { return InstructionKind{Op: OpRelease, Operand: b} }
func Deallocate(p Use) InstructionKind  { return InstructionKind{Op: OpDeallocate, Operand: p} }

func Branch(b *BasicBlock, args []Use) InstructionKind {
	return InstructionKind{Op: OpBranch, DestBlock: b, BranchArgs: args}
}

func Conditional(c Use, bt *BasicBlock, at []Use, be *BasicBlock, ae []Use) InstructionKind {
	return InstructionKind{Op: OpConditional, Operand: c, TrueBlock: bt, TrueArgs: at, FalseBlock: be, FalseArgs: ae}
}

func BranchEnum(e Use, cases []BranchEnumCase) InstructionKind {
	return InstructionKind{Op: OpBranchEnum, Operand: e, Cases: cases}
}

func Return(v *Use) InstructionKind {
	if v == nil {
		return InstructionKind{Op: OpReturn}
	}
	return InstructionKind{Op: OpReturn, Operand: *v, HasReturnValue: true}
}

func Trap() InstructionKind { return InstructionKind{Op: OpTrap} }

func Builtin(intrinsic string, args []Use) InstructionKind {
	return InstructionKind{Op: OpBuiltin, Intrinsic: intrinsic, Args: args}
}
