package ir

import (
	"tenir/internal/shape"
	"tenir/internal/types"
)

// Equal is structural equality between two instruction kinds, used by
// CSE-adjacent passes. Per spec.md §9's open-question decision, a kind
// only ever compares against another of the *same* Op; the source's
// apparent "(.unitCount(of:), .rank(of:))" cross-kind pairing is not
// reproduced here.
func (k InstructionKind) Equal(o InstructionKind) bool {
	if k.Op != o.Op {
		return false
	}
	switch k.Op {
	case OpLiteral:
		return types.Equal(k.LitType, o.LitType) && k.Lit.Equal(o.Lit)
	case OpNumericUnary:
		return k.UnaryOp == o.UnaryOp && k.Operand.Equal(o.Operand)
	case OpNot, OpTranspose, OpRank, OpShape, OpUnitCount, OpProjectBox, OpLoad,
		OpDestroyStack, OpRetain, OpRelease, OpDeallocate:
		return k.Operand.Equal(o.Operand)
	case OpNumericBinary:
		return k.NumBinOp == o.NumBinOp && k.LHS.Equal(o.LHS) && k.RHS.Equal(o.RHS)
	case OpBooleanBinary:
		return k.BoolOp == o.BoolOp && k.LHS.Equal(o.LHS) && k.RHS.Equal(o.RHS)
	case OpCompare:
		return k.CmpOp == o.CmpOp && k.LHS.Equal(o.LHS) && k.RHS.Equal(o.RHS)
	case OpDot:
		return k.LHS.Equal(o.LHS) && k.RHS.Equal(o.RHS)
	case OpConcatenate:
		return k.Axis == o.Axis && equalUses(k.Operands, o.Operands)
	case OpReverse:
		return k.Operand.Equal(o.Operand) && equalInts(k.Dims, o.Dims)
	case OpSlice:
		return k.Operand.Equal(o.Operand) && k.Range == o.Range
	case OpRandom:
		return k.ResultShape.Equal(o.ResultShape) && k.Lo.Equal(o.Lo) && k.Hi.Equal(o.Hi)
	case OpSelect:
		return k.LHS.Equal(o.LHS) && k.RHS.Equal(o.RHS) && k.By.Equal(o.By)
	case OpReduce, OpReduceWindow:
		return k.Combinator.Equal(o.Combinator) && k.Operand.Equal(o.Operand) &&
			k.HasInitial == o.HasInitial && (!k.HasInitial || k.Initial.Equal(o.Initial)) &&
			equalInts(k.Dims, o.Dims) && equalInts(k.Strides, o.Strides) && equalPaddings(k.Padding, o.Padding)
	case OpScan:
		return k.Combinator.Equal(o.Combinator) && k.Operand.Equal(o.Operand) && equalInts(k.Dims, o.Dims)
	case OpConvolve:
		return k.LHS.Equal(o.LHS) && k.RHS.Equal(o.RHS) && equalInts(k.Strides, o.Strides) &&
			equalPaddings(k.Padding, o.Padding) && equalInts(k.LDilations, o.LDilations) &&
			equalInts(k.RDilations, o.RDilations) && k.HasGroups == o.HasGroups && k.Groups == o.Groups
	case OpPadShape, OpSqueezeShape:
		return k.Operand.Equal(o.Operand) && k.At == o.At
	case OpShapeCast:
		return k.Operand.Equal(o.Operand) && k.CastShape.Equal(o.CastShape)
	case OpBitCast:
		return k.Operand.Equal(o.Operand) && types.Equal(k.TargetType, o.TargetType)
	case OpDataTypeCast:
		return k.Operand.Equal(o.Operand) && k.TargetDataType.Equal(o.TargetDataType)
	case OpExtract, OpElementPointer:
		return k.Operand.Equal(o.Operand) && equalKeys(k.Keys, o.Keys)
	case OpInsert:
		return k.Operand.Equal(o.Operand) && k.Target.Equal(o.Target) && equalKeys(k.Keys, o.Keys)
	case OpApply:
		return k.Callee.Equal(o.Callee) && equalUses(k.Args, o.Args)
	case OpAllocateStack:
		return types.Equal(k.TargetType, o.TargetType) && k.StaticN == o.StaticN
	case OpAllocateHeap:
		return types.Equal(k.TargetType, o.TargetType) && k.Count.Equal(o.Count)
	case OpAllocateBox:
		return types.Equal(k.TargetType, o.TargetType)
	case OpStore:
		return k.Operand.Equal(o.Operand) && k.Target.Equal(o.Target)
	case OpCopy:
		return k.Operand.Equal(o.Operand) && k.Target.Equal(o.Target) && k.Count.Equal(o.Count)
	case OpCreateStack, OpTrap:
		return true
	case OpPush:
		return k.Operand.Equal(o.Operand) && k.Target.Equal(o.Target)
	case OpPop:
		return types.Equal(k.TargetType, o.TargetType) && k.Operand.Equal(o.Operand)
	case OpBranch:
		return k.DestBlock == o.DestBlock && equalUses(k.BranchArgs, o.BranchArgs)
	case OpConditional:
		return k.Operand.Equal(o.Operand) && k.TrueBlock == o.TrueBlock && k.FalseBlock == o.FalseBlock &&
			equalUses(k.TrueArgs, o.TrueArgs) && equalUses(k.FalseArgs, o.FalseArgs)
	case OpBranchEnum:
		if !k.Operand.Equal(o.Operand) || len(k.Cases) != len(o.Cases) {
			return false
		}
		for i, c := range k.Cases {
			if c.CaseName != o.Cases[i].CaseName || c.Block != o.Cases[i].Block {
				return false
			}
		}
		return true
	case OpReturn:
		return k.HasReturnValue == o.HasReturnValue && (!k.HasReturnValue || k.Operand.Equal(o.Operand))
	case OpBuiltin:
		return k.Intrinsic == o.Intrinsic && equalUses(k.Args, o.Args)
	default:
		return false
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalPaddings(a, b []shape.Padding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalKeys(a, b []types.ElementKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Index != b[i].Index || a[i].Name != b[i].Name ||
			!types.Equal(a[i].ValueType, b[i].ValueType) {
			return false
		}
	}
	return true
}
