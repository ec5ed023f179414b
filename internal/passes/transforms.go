package passes

import (
	"fmt"

	"tenir/internal/ir"
	"tenir/internal/shape"
	"tenir/internal/types"
)

// DeadCodeElimination implements spec.md §4.7: remove any instruction
// with no users, a `none` side-effect summary, and that is not a
// terminator; re-enqueue its operand-producing instructions since
// removing a user can make them dead in turn. Reports whether anything
// changed.
func DeadCodeElimination(fn *ir.Function) bool {
	changed := false
	var worklist []*ir.Instruction
	queued := map[*ir.Instruction]bool{}
	enqueue := func(i *ir.Instruction) {
		if i != nil && i.Block != nil && !queued[i] {
			queued[i] = true
			worklist = append(worklist, i)
		}
	}
	for _, bb := range fn.Blocks() {
		for _, inst := range bb.Instructions() {
			enqueue(inst)
		}
	}

	for len(worklist) > 0 {
		inst := worklist[0]
		worklist = worklist[1:]
		queued[inst] = false
		if inst.Block == nil {
			continue // removed by an earlier iteration
		}
		if inst.Kind.IsTerminator() {
			continue
		}
		if DataFlowGraphAnalysis(fn).HasUsers(inst) {
			continue
		}
		if SideEffectAnalysis(fn.Module).Of(inst) != EffectNone {
			continue
		}
		operandDefs := operandInstructions(inst.Kind)
		inst.Block.RemoveInstruction(inst)
		changed = true
		for _, d := range operandDefs {
			enqueue(d)
		}
	}
	return changed
}

func operandInstructions(k ir.InstructionKind) []*ir.Instruction {
	var out []*ir.Instruction
	for _, u := range k.Operands() {
		if d, ok := u.Definition(); ok {
			if inst, ok := d.(*ir.Instruction); ok {
				out = append(out, inst)
			}
		}
	}
	return out
}

// broadcastable reports whether op is one of the three kinds
// LiteralBroadcastingPromotion applies to (spec.md §4.7).
func broadcastable(op ir.Op) bool {
	switch op {
	case ir.OpNumericBinary, ir.OpBooleanBinary, ir.OpCompare:
		return true
	default:
		return false
	}
}

// LiteralBroadcastingPromotion implements spec.md §4.7: for each
// broadcastable instruction in bb, replace any tensor-typed operand
// that is a scalar literal (inline, or the result of a `literal`
// instruction producing a scalar) with a scalar-typed literal use
// carrying the same value -- collapsing the indirection and dropping
// any pre-broadcast shape annotation, which both reduces later
// broadcasting work and lets identical scalar constants compare equal
// for CSE. Reports whether anything changed.
func LiteralBroadcastingPromotion(bb *ir.BasicBlock) bool {
	changed := false
	for _, inst := range append([]*ir.Instruction{}, bb.Instructions()...) {
		if !broadcastable(inst.Kind.Op) {
			continue
		}
		lhs, rhs := inst.Kind.LHS, inst.Kind.RHS
		newLHS, lhsChanged := promoteToScalarLiteral(lhs)
		newRHS, rhsChanged := promoteToScalarLiteral(rhs)
		if !lhsChanged && !rhsChanged {
			continue
		}
		k := inst.Kind
		k.LHS, k.RHS = newLHS, newRHS
		idx := inst.IndexInBlock()
		bb.RemoveInstruction(inst)
		inst.Kind = k
		bb.InsertInstruction(idx, inst)
		changed = true
	}
	return changed
}

// promoteToScalarLiteral finds the scalar Literal payload behind u (an
// inline scalar literal, or a reference to a `literal` instruction
// producing one) and returns an equivalent scalar-typed LiteralUse.
// Returns (u, false) unchanged when u isn't such a value.
func promoteToScalarLiteral(u ir.Use) (ir.Use, bool) {
	lit, dt, ok := scalarLiteralBehind(u)
	if !ok {
		return u, false
	}
	scalarType := types.TensorType(shape.New(), dt)
	promoted := ir.LiteralUse(scalarType, lit)
	if promoted.Equal(u) {
		return u, false
	}
	return promoted, true
}

func scalarLiteralBehind(u ir.Use) (ir.Literal, shape.DataType, bool) {
	if lit, ok := u.AsLiteral(); ok {
		if lit.Kind != ir.LitScalar {
			return ir.Literal{}, shape.DataType{}, false
		}
		_, dt, ok := u.Type().TensorTypeOf()
		return lit, dt, ok
	}
	d, ok := u.Definition()
	if !ok {
		return ir.Literal{}, shape.DataType{}, false
	}
	inst, ok := d.(*ir.Instruction)
	if !ok || inst.Kind.Op != ir.OpLiteral || inst.Kind.Lit.Kind != ir.LitScalar {
		return ir.Literal{}, shape.DataType{}, false
	}
	_, dt, ok := inst.Kind.LitType.TensorTypeOf()
	return inst.Kind.Lit, dt, ok
}

// Clone implements spec.md §4.7's function cloning: a deep structural
// copy of fn under a fresh name, with every operand use and branch
// destination rewired through old->new block/value mappings. A
// self-referential operand (an `apply` calling fn itself) is mapped to
// the clone, so recursive functions clone correctly.
func Clone(fn *ir.Function) *ir.Function {
	mod := fn.Module
	newName := freshGlobalName(mod, fn.Name+"_clone")

	argTypes := append([]types.Type{}, fn.ArgumentTypes...)
	fn2 := ir.NewFunction(newName, argTypes, fn.ReturnType)
	for attr := range fn.Attributes {
		fn2.Attributes[attr] = true
	}
	if fn.Declaration != nil {
		d := *fn.Declaration
		fn2.Declaration = &d
	}
	mod.AddFunction(fn2)

	valueMapping := map[ir.Definition]ir.Definition{fn: fn2}
	blockMapping := map[*ir.BasicBlock]*ir.BasicBlock{}

	for _, bb := range fn.Blocks() {
		nb := ir.NewBasicBlock(bb.Name)
		fn2.AddBlock(nb)
		blockMapping[bb] = nb
		for _, a := range bb.Arguments() {
			na := ir.NewArgument(a.Name, a.Type())
			nb.AddArgument(na)
			valueMapping[a] = na
		}
	}

	instMapping := map[*ir.Instruction]*ir.Instruction{}
	for _, bb := range fn.Blocks() {
		nb := blockMapping[bb]
		for _, inst := range bb.Instructions() {
			ni := ir.NewInstruction(inst.Name, inst.Kind)
			nb.AppendInstruction(ni)
			instMapping[inst] = ni
			valueMapping[inst] = ni
		}
	}

	for _, bb := range fn.Blocks() {
		for _, inst := range bb.Instructions() {
			ni := instMapping[inst]
			k := ni.Kind
			for old, nw := range valueMapping {
				k = k.Substitute(ir.DefUse(nw), ir.DefUse(old))
			}
			for oldB, nb := range blockMapping {
				k = k.SubstituteBranches(oldB, nb)
			}
			ni.Kind = k
		}
	}
	return fn2
}

func freshGlobalName(mod *ir.Module, base string) string {
	taken := func(n string) bool {
		if _, ok := mod.LookupFunction(n); ok {
			return true
		}
		_, ok := mod.LookupVariable(n)
		return ok
	}
	if !taken(base) {
		return base
	}
	for i := 0; ; i++ {
		cand := fmt.Sprintf("%s_%d", base, i)
		if !taken(cand) {
			return cand
		}
	}
}

// PredecessorHoisting implements spec.md §4.7: build a new block N with
// arguments mirroring target's, inserted at insertAt, emitting an
// unconditional `branch target(N.args...)`; then rewrite every block in
// preds to branch to N instead of target. Returns (N, changed); changed
// is false (and N nil) if preds is empty, since there is then nothing
// to rewire.
func PredecessorHoisting(fn *ir.Function, target *ir.BasicBlock, preds []*ir.BasicBlock, insertAt int) (*ir.BasicBlock, bool) {
	if len(preds) == 0 {
		return nil, false
	}

	taken := func(n string) bool {
		for _, bb := range fn.Blocks() {
			for _, a := range bb.Arguments() {
				if a.Name == n {
					return true
				}
			}
			for _, inst := range bb.Instructions() {
				if inst.Name == n {
					return true
				}
			}
		}
		return false
	}

	n := ir.NewBasicBlock(fn.FreshBlockName("hoist"))
	fn.InsertBlock(insertAt, n)

	var branchArgs []ir.Use
	for _, a := range target.Arguments() {
		name := fn.FreshValueName(a.Name, taken)
		na := ir.NewArgument(name, a.Type())
		n.AddArgument(na)
		branchArgs = append(branchArgs, ir.DefUse(na))
	}
	n.AppendInstruction(ir.NewInstruction("", ir.Branch(target, branchArgs)))

	for _, p := range preds {
		term := p.Terminator()
		if term == nil {
			continue
		}
		idx := term.IndexInBlock()
		newKind := term.Kind.SubstituteBranches(target, n)
		p.RemoveInstruction(term)
		term.Kind = newKind
		p.InsertInstruction(idx, term)
	}
	return n, true
}
