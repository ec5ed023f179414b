package ir

import "tenir/internal/shape"
import "tenir/internal/types"

// Op tags the InstructionKind variant: one of the ~55 kinds of
// spec.md §4.2.
type Op int

const (
	OpLiteral Op = iota
	OpNumericUnary
	OpNumericBinary
	OpBooleanBinary
	OpCompare
	OpNot
	OpDot
	OpConcatenate
	OpTranspose
	OpReverse
	OpSlice
	OpRandom
	OpSelect
	OpReduce
	OpScan
	OpReduceWindow
	OpConvolve
	OpRank
	OpShape
	OpUnitCount
	OpPadShape
	OpSqueezeShape
	OpShapeCast
	OpBitCast
	OpDataTypeCast
	OpExtract
	OpInsert
	OpApply
	OpAllocateStack
	OpAllocateHeap
	OpAllocateBox
	OpProjectBox
	OpLoad
	OpStore
	OpElementPointer
	OpCopy
	OpCreateStack
	OpDestroyStack
	OpPush
	OpPop
	OpRetain
	OpRelease
	OpDeallocate
	OpBranch
	OpConditional
	OpBranchEnum
	OpReturn
	OpTrap
	OpBuiltin
)

var opNames = map[Op]string{
	OpLiteral: "literal", OpNumericUnary: "", OpNumericBinary: "", OpBooleanBinary: "",
	OpCompare: "", OpNot: "not", OpDot: "dot", OpConcatenate: "concatenate",
	OpTranspose: "transpose", OpReverse: "reverse", OpSlice: "slice", OpRandom: "random",
	OpSelect: "select", OpReduce: "reduce", OpScan: "scan", OpReduceWindow: "reduceWindow",
	OpConvolve: "convolve", OpRank: "rank", OpShape: "shape", OpUnitCount: "unitCount",
	OpPadShape: "padShape", OpSqueezeShape: "squeezeShape", OpShapeCast: "shapeCast",
	OpBitCast: "bitCast", OpDataTypeCast: "dataTypeCast", OpExtract: "extract",
	OpInsert: "insert", OpApply: "apply", OpAllocateStack: "allocateStack",
	OpAllocateHeap: "allocateHeap", OpAllocateBox: "allocateBox", OpProjectBox: "projectBox",
	OpLoad: "load", OpStore: "store", OpElementPointer: "elementPointer", OpCopy: "copy",
	OpCreateStack: "createStack", OpDestroyStack: "destroyStack", OpPush: "push", OpPop: "pop",
	OpRetain: "retain", OpRelease: "release", OpDeallocate: "deallocate",
	OpBranch: "branch", OpConditional: "conditional", OpBranchEnum: "branchEnum",
	OpReturn: "return", OpTrap: "trap", OpBuiltin: "builtin",
}

// Opcode returns the textual mnemonic for most kinds; numericUnary,
// numericBinary, booleanBinary and compare instead spell their
// sub-operator (add, eq, ...), since the grammar uses the operator
// itself as the opcode token (spec.md §4.5).
func (o Op) Opcode() string { return opNames[o] }

// InstructionKind is the tagged instruction variant. Only the fields
// relevant to Op are meaningful. Modelled as one flat struct (per
// spec.md §9's "generate from a single source of truth" note) rather
// than ~55 concrete Go types, so that Operands/Substitute/Equal are
// each one exhaustive switch instead of fifty-five tiny interface
// implementations.
type InstructionKind struct {
	Op Op

	// literal
	LitType types.Type
	Lit     Literal

	// numericUnary / not / transpose / rank / shape / unitCount /
	// projectBox / load / destroyStack / retain / release / deallocate
	UnaryOp NumericUnaryOp
	Operand Use

	// numericBinary / booleanBinary / compare / dot / select(l,r)
	NumBinOp  NumericBinaryOp
	BoolOp    BooleanBinaryOp
	CmpOp     CompareOp
	LHS, RHS  Use
	By        Use // select's mask operand

	// concatenate
	Operands []Use
	Axis     int

	// reverse
	Dims []int

	// slice
	Range SliceRange

	// random
	ResultShape shape.TensorShape
	Lo, Hi      Use

	// reduce / scan / reduceWindow
	Combinator ReductionCombinator
	Initial    Use
	HasInitial bool
	Strides    []int
	Padding    []shape.Padding
	LDilations []int
	RDilations []int
	Groups     int
	HasGroups  bool

	// padShape / squeezeShape
	At int

	// shapeCast
	CastShape shape.TensorShape

	// bitCast / allocateStack / allocateHeap / allocateBox / pop
	TargetType types.Type

	// dataTypeCast
	TargetDataType shape.DataType

	// extract / insert / elementPointer
	Keys []types.ElementKey
	// insert's destination aggregate / store's / push's / copy's target
	Target Use

	// apply
	Callee Use
	Args   []Use

	// allocateStack's static count / allocateHeap's dynamic count /
	// copy's count
	Count   Use
	StaticN int

	// control flow
	DestBlock             *BasicBlock
	BranchArgs            []Use
	TrueBlock, FalseBlock *BasicBlock
	TrueArgs, FalseArgs   []Use
	Cases                 []BranchEnumCase
	HasReturnValue        bool

	// builtin
	Intrinsic string
}

// IsTerminator reports whether this kind ends a basic block (spec.md
// §3's GLOSSARY: branch, conditional, branchEnum, return, trap).
func (k InstructionKind) IsTerminator() bool {
	switch k.Op {
	case OpBranch, OpConditional, OpBranchEnum, OpReturn, OpTrap:
		return true
	default:
		return false
	}
}

// MustWriteToMemory reports whether this kind writes through a pointer
// or box, for SideEffectAnalysis (spec.md §4.6).
func (k InstructionKind) MustWriteToMemory() bool {
	switch k.Op {
	case OpStore, OpCopy, OpPush, OpPop, OpRetain, OpRelease, OpDeallocate,
		OpCreateStack, OpDestroyStack, OpAllocateStack, OpAllocateHeap, OpAllocateBox:
		return true
	default:
		return false
	}
}

// Opcode returns the opcode token for k, resolving the sub-operator
// name for the four operator-keyed kinds.
func (k InstructionKind) Opcode() string {
	switch k.Op {
	case OpNumericUnary:
		return k.UnaryOp.String()
	case OpNumericBinary:
		return k.NumBinOp.String()
	case OpBooleanBinary:
		return k.BoolOp.String()
	case OpCompare:
		return k.CmpOp.String()
	default:
		return k.Op.Opcode()
	}
}
