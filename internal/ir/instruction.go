package ir

import (
	"fmt"

	"tenir/internal/registry"
	"tenir/internal/types"
)

// Instruction is name (optional) + InstructionKind + parent back-
// reference. If Kind infers void, Name must be absent (spec.md §3);
// callers that violate this produce IR the verifier rejects
// (VerifyVoidInstructionNamed).
type Instruction struct {
	Name  string
	Kind  InstructionKind
	Block *BasicBlock

	indexInBlock int
}

// NewInstruction builds an unattached instruction; AppendInstruction/
// InsertInstruction on the owning BasicBlock attaches it.
func NewInstruction(name string, kind InstructionKind) *Instruction {
	return &Instruction{Name: name, Kind: kind}
}

func (i *Instruction) IndexInBlock() int { return i.indexInBlock }

// Function returns the instruction's enclosing function, or nil if
// unattached.
func (i *Instruction) Function() *Function {
	if i.Block == nil {
		return nil
	}
	return i.Block.Function
}

// Type returns the instruction's inferred type, using its enclosing
// module as the types.Resolver and a nil registry (for instructions
// that don't reach `builtin`). Use TypeWith for a verifier-supplied
// registry.
func (i *Instruction) Type() types.Type {
	fn := i.Function()
	if fn == nil || fn.Module == nil {
		return types.InvalidType()
	}
	t, _ := Infer(i.Kind, fn.Module, nil)
	return t
}

// TypeWith infers the instruction's type against an explicit resolver
// and intrinsic registry, surfacing whether inference succeeded.
func (i *Instruction) TypeWith(r types.Resolver, reg *registry.Registry) (types.Type, bool) {
	return Infer(i.Kind, r, reg)
}

func (i *Instruction) refString() string {
	if i.Name != "" {
		return "%" + i.Name
	}
	bi := 0
	if i.Block != nil {
		bi = i.Block.indexInFunction
	}
	return fmt.Sprintf("%%%d.%d", bi, i.indexInBlock)
}

func (i *Instruction) String() string { return i.refString() }
