package ir

// Operands enumerates every Use an instruction kind reads, for
// DataFlowGraphAnalysis (spec.md §4.6) and verifier use-dominance
// checks. Uses nested inside an operand's own aggregate literal are
// included, since they are dataflow dependencies too.
func (k InstructionKind) Operands() []Use {
	var out []Use
	add := func(us ...Use) {
		for _, u := range us {
			out = append(out, u)
			out = append(out, nestedOperands(u)...)
		}
	}
	switch k.Op {
	case OpLiteral:
		add(k.Lit.Operands()...)
	case OpNumericUnary, OpNot, OpTranspose, OpRank, OpShape, OpUnitCount,
		OpPadShape, OpSqueezeShape, OpShapeCast, OpBitCast, OpDataTypeCast,
		OpExtract, OpProjectBox, OpLoad, OpDestroyStack, OpRetain, OpRelease,
		OpDeallocate, OpReverse, OpSlice:
		add(k.Operand)
	case OpNumericBinary, OpBooleanBinary, OpCompare, OpDot:
		add(k.LHS, k.RHS)
	case OpConcatenate:
		add(k.Operands...)
	case OpRandom:
		add(k.Lo, k.Hi)
	case OpSelect:
		add(k.LHS, k.RHS, k.By)
	case OpReduce, OpReduceWindow:
		add(k.Operand)
		if k.Combinator.Kind == CombFunction {
			add(k.Combinator.Func)
		}
		if k.HasInitial {
			add(k.Initial)
		}
	case OpScan:
		add(k.Operand)
		if k.Combinator.Kind == CombFunction {
			add(k.Combinator.Func)
		}
	case OpConvolve:
		add(k.LHS, k.RHS)
	case OpInsert:
		add(k.Operand, k.Target)
	case OpApply:
		add(k.Callee)
		add(k.Args...)
	case OpAllocateStack, OpAllocateBox:
		// no Use operands; TargetType/StaticN are not operands.
	case OpAllocateHeap:
		add(k.Count)
	case OpStore:
		add(k.Operand, k.Target)
	case OpElementPointer:
		add(k.Operand)
	case OpCopy:
		add(k.Operand, k.Target, k.Count)
	case OpCreateStack:
	case OpPush:
		add(k.Operand, k.Target)
	case OpPop:
		add(k.Operand)
	case OpBranch:
		add(k.BranchArgs...)
	case OpConditional:
		add(k.Operand)
		add(k.TrueArgs...)
		add(k.FalseArgs...)
	case OpBranchEnum:
		add(k.Operand)
	case OpReturn:
		if k.HasReturnValue {
			add(k.Operand)
		}
	case OpTrap:
	case OpBuiltin:
		add(k.Args...)
	}
	return out
}

func nestedOperands(u Use) []Use {
	lit, ok := u.AsLiteral()
	if !ok || !lit.IsAggregate() {
		return nil
	}
	var out []Use
	for _, nested := range lit.Operands() {
		out = append(out, nested)
		out = append(out, nestedOperands(nested)...)
	}
	return out
}

// Substitute returns a copy of k with every operand-position Use equal
// to old replaced by replacement, including positions nested inside an
// operand's own aggregate literal (spec.md §4.3). All non-matching
// positions are left bit-equal.
func (k InstructionKind) Substitute(replacement, old Use) InstructionKind {
	sub := func(u Use) Use { return substituteUse(u, replacement, old) }
	subAll := func(us []Use) []Use {
		if us == nil {
			return nil
		}
		out := make([]Use, len(us))
		for i, u := range us {
			out[i] = sub(u)
		}
		return out
	}

	out := k
	switch k.Op {
	case OpLiteral:
		out.Lit = k.Lit.substitute(replacement, old)
	case OpNumericUnary, OpNot, OpTranspose, OpRank, OpShape, OpUnitCount,
		OpPadShape, OpSqueezeShape, OpShapeCast, OpBitCast, OpDataTypeCast,
		OpExtract, OpProjectBox, OpLoad, OpDestroyStack, OpRetain, OpRelease,
		OpDeallocate, OpReverse, OpSlice:
		out.Operand = sub(k.Operand)
	case OpNumericBinary, OpBooleanBinary, OpCompare, OpDot, OpConvolve:
		out.LHS, out.RHS = sub(k.LHS), sub(k.RHS)
	case OpConcatenate:
		out.Operands = subAll(k.Operands)
	case OpRandom:
		out.Lo, out.Hi = sub(k.Lo), sub(k.Hi)
	case OpSelect:
		out.LHS, out.RHS, out.By = sub(k.LHS), sub(k.RHS), sub(k.By)
	case OpReduce, OpReduceWindow:
		out.Operand = sub(k.Operand)
		if k.Combinator.Kind == CombFunction {
			out.Combinator.Func = sub(k.Combinator.Func)
		}
		if k.HasInitial {
			out.Initial = sub(k.Initial)
		}
	case OpScan:
		out.Operand = sub(k.Operand)
		if k.Combinator.Kind == CombFunction {
			out.Combinator.Func = sub(k.Combinator.Func)
		}
	case OpInsert:
		out.Operand, out.Target = sub(k.Operand), sub(k.Target)
	case OpApply:
		out.Callee = sub(k.Callee)
		out.Args = subAll(k.Args)
	case OpAllocateHeap:
		out.Count = sub(k.Count)
	case OpStore:
		out.Operand, out.Target = sub(k.Operand), sub(k.Target)
	case OpElementPointer:
		out.Operand = sub(k.Operand)
	case OpCopy:
		out.Operand, out.Target, out.Count = sub(k.Operand), sub(k.Target), sub(k.Count)
	case OpPush:
		out.Operand, out.Target = sub(k.Operand), sub(k.Target)
	case OpPop:
		out.Operand = sub(k.Operand)
	case OpBranch:
		out.BranchArgs = subAll(k.BranchArgs)
	case OpConditional:
		out.Operand = sub(k.Operand)
		out.TrueArgs = subAll(k.TrueArgs)
		out.FalseArgs = subAll(k.FalseArgs)
	case OpBranchEnum:
		out.Operand = sub(k.Operand)
	case OpReturn:
		if k.HasReturnValue {
			out.Operand = sub(k.Operand)
		}
	case OpBuiltin:
		out.Args = subAll(k.Args)
	}
	return out
}

func substituteUse(u, replacement, old Use) Use {
	if u.Equal(old) {
		return replacement
	}
	if lit, ok := u.AsLiteral(); ok && lit.IsAggregate() {
		return LiteralUse(u.litType, lit.substitute(replacement, old))
	}
	return u
}

// SubstituteBranches returns a copy of k with every destination-block
// reference equal to old replaced by newBlock, within branch and both
// arms of conditional (spec.md §4.3). branchEnum's per-case
// destinations are rewritten too, since they are destination-block
// references of the same kind.
func (k InstructionKind) SubstituteBranches(old, newBlock *BasicBlock) InstructionKind {
	out := k
	switch k.Op {
	case OpBranch:
		if k.DestBlock == old {
			out.DestBlock = newBlock
		}
	case OpConditional:
		if k.TrueBlock == old {
			out.TrueBlock = newBlock
		}
		if k.FalseBlock == old {
			out.FalseBlock = newBlock
		}
	case OpBranchEnum:
		cases := make([]BranchEnumCase, len(k.Cases))
		for i, c := range k.Cases {
			if c.Block == old {
				c.Block = newBlock
			}
			cases[i] = c
		}
		out.Cases = cases
	}
	return out
}
