package printer

import (
	"fmt"
	"strconv"
	"strings"

	"tenir/internal/ir"
	"tenir/internal/types"
)

// printInstruction renders one instruction, mirroring
// parser.parseInstruction/parseOpBody's grammar exactly.
func (p *Printer) printInstruction(inst *ir.Instruction) {
	body := p.opBody(inst.Kind)
	if inst.Name != "" {
		p.writeLine("%%%s = %s", inst.Name, body)
		return
	}
	p.writeLine("%s", body)
}

func (p *Printer) opBody(k ir.InstructionKind) string {
	switch k.Op {
	case ir.OpLiteral:
		return fmt.Sprintf("literal %s : %s", p.literalPayload(k.Lit), k.LitType.String())
	case ir.OpNumericUnary:
		return fmt.Sprintf("%s %s", k.UnaryOp, p.use(k.Operand))
	case ir.OpNumericBinary:
		return fmt.Sprintf("%s %s, %s", k.NumBinOp, p.use(k.LHS), p.use(k.RHS))
	case ir.OpBooleanBinary:
		return fmt.Sprintf("%s %s, %s", k.BoolOp, p.use(k.LHS), p.use(k.RHS))
	case ir.OpCompare:
		return fmt.Sprintf("%s %s, %s", k.CmpOp, p.use(k.LHS), p.use(k.RHS))
	case ir.OpNot:
		return fmt.Sprintf("not %s", p.use(k.Operand))
	case ir.OpDot:
		return fmt.Sprintf("dot %s, %s", p.use(k.LHS), p.use(k.RHS))
	case ir.OpConcatenate:
		return fmt.Sprintf("concatenate %d, %s", k.Axis, p.useList(k.Operands))
	case ir.OpTranspose:
		return fmt.Sprintf("transpose %s", p.use(k.Operand))
	case ir.OpReverse:
		return fmt.Sprintf("reverse %s %s", p.use(k.Operand), intBracketList(k.Dims))
	case ir.OpSlice:
		return fmt.Sprintf("slice %s %s", p.use(k.Operand), intBracketList([]int{k.Range.Start, k.Range.Count}))
	case ir.OpRandom:
		return fmt.Sprintf("random %s %s, %s", shapeLiteral(k.ResultShape), p.use(k.Lo), p.use(k.Hi))
	case ir.OpSelect:
		return fmt.Sprintf("select %s, %s, %s", p.use(k.LHS), p.use(k.RHS), p.use(k.By))
	case ir.OpReduce:
		return fmt.Sprintf("reduce %s %s %s%s", p.combinator(k.Combinator), p.use(k.Operand), intBracketList(k.Dims), p.optionalInitial(k))
	case ir.OpScan:
		return fmt.Sprintf("scan %s %s %s", p.combinator(k.Combinator), p.use(k.Operand), intBracketList(k.Dims))
	case ir.OpReduceWindow:
		return fmt.Sprintf("reduceWindow %s %s %s %s %s%s", p.combinator(k.Combinator), p.use(k.Operand),
			intBracketList(k.Dims), intBracketList(k.Strides), paddingList(k.Padding), p.optionalInitial(k))
	case ir.OpConvolve:
		s := fmt.Sprintf("convolve %s, %s %s %s %s %s", p.use(k.LHS), p.use(k.RHS),
			intBracketList(k.Strides), paddingList(k.Padding), intBracketList(k.LDilations), intBracketList(k.RDilations))
		if k.HasGroups {
			s += fmt.Sprintf(" groups %d", k.Groups)
		}
		return s
	case ir.OpRank:
		return fmt.Sprintf("rank %s", p.use(k.Operand))
	case ir.OpShape:
		return fmt.Sprintf("shape %s", p.use(k.Operand))
	case ir.OpUnitCount:
		return fmt.Sprintf("unitCount %s", p.use(k.Operand))
	case ir.OpPadShape:
		return fmt.Sprintf("padShape %s %d", p.use(k.Operand), k.At)
	case ir.OpSqueezeShape:
		return fmt.Sprintf("squeezeShape %s %d", p.use(k.Operand), k.At)
	case ir.OpShapeCast:
		return fmt.Sprintf("shapeCast %s %s", p.use(k.Operand), shapeLiteral(k.CastShape))
	case ir.OpBitCast:
		return fmt.Sprintf("bitCast %s -> %s", p.use(k.Operand), k.TargetType.String())
	case ir.OpDataTypeCast:
		return fmt.Sprintf("dataTypeCast %s -> %s", p.use(k.Operand), k.TargetDataType.String())
	case ir.OpExtract:
		return fmt.Sprintf("extract %s%s", p.use(k.Operand), p.keyPath(k.Keys))
	case ir.OpInsert:
		return fmt.Sprintf("insert %s into %s%s", p.use(k.Operand), p.use(k.Target), p.keyPath(k.Keys))
	case ir.OpApply:
		return fmt.Sprintf("apply %s(%s)", p.use(k.Callee), p.useList(k.Args))
	case ir.OpAllocateStack:
		return fmt.Sprintf("allocateStack %s %d", k.TargetType.String(), k.StaticN)
	case ir.OpAllocateHeap:
		return fmt.Sprintf("allocateHeap %s %s", k.TargetType.String(), p.use(k.Count))
	case ir.OpAllocateBox:
		return fmt.Sprintf("allocateBox %s", k.TargetType.String())
	case ir.OpProjectBox:
		return fmt.Sprintf("projectBox %s", p.use(k.Operand))
	case ir.OpLoad:
		return fmt.Sprintf("load %s", p.use(k.Operand))
	case ir.OpStore:
		return fmt.Sprintf("store %s, %s", p.use(k.Operand), p.use(k.Target))
	case ir.OpElementPointer:
		return fmt.Sprintf("elementPointer %s%s", p.use(k.Operand), p.keyPath(k.Keys))
	case ir.OpCopy:
		return fmt.Sprintf("copy %s, %s, %s", p.use(k.Operand), p.use(k.Target), p.use(k.Count))
	case ir.OpCreateStack:
		return "createStack"
	case ir.OpDestroyStack:
		return fmt.Sprintf("destroyStack %s", p.use(k.Operand))
	case ir.OpPush:
		return fmt.Sprintf("push %s, %s", p.use(k.Operand), p.use(k.Target))
	case ir.OpPop:
		return fmt.Sprintf("pop %s %s", k.TargetType.String(), p.use(k.Operand))
	case ir.OpRetain:
		return fmt.Sprintf("retain %s", p.use(k.Operand))
	case ir.OpRelease:
		return fmt.Sprintf("release %s", p.use(k.Operand))
	case ir.OpDeallocate:
		return fmt.Sprintf("deallocate %s", p.use(k.Operand))
	case ir.OpBranch:
		return fmt.Sprintf("branch %s(%s)", blockRef(k.DestBlock), p.useList(k.BranchArgs))
	case ir.OpConditional:
		return fmt.Sprintf("conditional %s, %s(%s), %s(%s)", p.use(k.Operand),
			blockRef(k.TrueBlock), p.useList(k.TrueArgs), blockRef(k.FalseBlock), p.useList(k.FalseArgs))
	case ir.OpBranchEnum:
		return fmt.Sprintf("branchEnum %s {%s}", p.use(k.Operand), p.branchEnumCases(k.Cases))
	case ir.OpReturn:
		if !k.HasReturnValue {
			return "return"
		}
		return fmt.Sprintf("return %s", p.use(k.Operand))
	case ir.OpTrap:
		return "trap"
	case ir.OpBuiltin:
		return fmt.Sprintf("builtin %s(%s)", k.Intrinsic, p.useList(k.Args))
	default:
		return fmt.Sprintf("<unknown-op %d>", k.Op)
	}
}

func (p *Printer) optionalInitial(k ir.InstructionKind) string {
	if !k.HasInitial {
		return ""
	}
	return " initial " + p.use(k.Initial)
}

func (p *Printer) combinator(c ir.ReductionCombinator) string {
	switch c.Kind {
	case ir.CombFunction:
		return "fn " + p.use(c.Func)
	case ir.CombBoolean:
		return c.BoolOp.String()
	case ir.CombNumeric:
		return c.NumOp.String()
	case ir.CombNumericBuiltin:
		return "builtin " + c.Intrinsic
	default:
		return "<unknown-combinator>"
	}
}

func blockRef(bb *ir.BasicBlock) string {
	if bb.Name != "" {
		return "'" + bb.Name
	}
	return fmt.Sprintf("'%d", bb.IndexInFunction())
}

func (p *Printer) branchEnumCases(cases []ir.BranchEnumCase) string {
	parts := make([]string, len(cases))
	for i, c := range cases {
		parts[i] = fmt.Sprintf("?%s: %s", c.CaseName, blockRef(c.Block))
	}
	return strings.Join(parts, ", ")
}

// keyPath renders extract/insert/elementPointer's key-path suffix:
// ".0" (index), ".#field" (name), ".(type)" (value), chained.
func (p *Printer) keyPath(keys []types.ElementKey) string {
	var sb strings.Builder
	for _, k := range keys {
		switch k.Kind {
		case types.KeyIndex:
			fmt.Fprintf(&sb, ".%d", k.Index)
		case types.KeyName:
			fmt.Fprintf(&sb, ".#%s", k.Name)
		case types.KeyValue:
			fmt.Fprintf(&sb, ".(%s)", k.ValueType.String())
		}
	}
	return sb.String()
}

// --- uses and literal payloads -------------------------------------------

// use renders a Use as "VALUE : TYPE", the inverse of parser.parseUse.
func (p *Printer) use(u ir.Use) string {
	if lit, ok := u.AsLiteral(); ok {
		return p.literalPayload(lit) + " : " + u.Type().String()
	}
	d, ok := u.Definition()
	if !ok {
		return "<unset-use> : " + u.Type().String()
	}
	return p.defRef(d) + " : " + u.Type().String()
}

func (p *Printer) useList(us []ir.Use) string {
	parts := make([]string, len(us))
	for i, u := range us {
		parts[i] = p.use(u)
	}
	return strings.Join(parts, ", ")
}

// defRef renders the VALUE token referencing d: a local (argument or
// instruction) always in its unambiguous %B^I/%B.I index form (valid
// regardless of the printing context's current block, unlike the
// parser's additional %name/bare-%N shorthand forms), or a global in
// @name/@N form.
func (p *Printer) defRef(d ir.Definition) string {
	switch x := d.(type) {
	case *ir.Argument:
		return argToken(x)
	case *ir.Instruction:
		if x.Name != "" {
			return "%" + x.Name
		}
		return fmt.Sprintf("%%%d.%d", x.Block.IndexInFunction(), x.IndexInBlock())
	case *ir.Variable, *ir.Function:
		return p.globalNameToken(x)
	default:
		return "<unknown-def>"
	}
}

// literalPayload renders l in the parser's keyword-prefixed grammar
// (tensor[...]/array[...]/tuple(...)/struct{...}/?case(...)), NOT
// ir.Literal.String()'s bare-bracket debug form.
func (p *Printer) literalPayload(l ir.Literal) string {
	switch l.Kind {
	case ir.LitUndefined:
		return "undefined"
	case ir.LitZero:
		return "zero"
	case ir.LitNull:
		return "null"
	case ir.LitBool:
		if l.BoolValue {
			return "true"
		}
		return "false"
	case ir.LitScalar:
		return scalarText(l.NumValue, l.IsFloat)
	case ir.LitTensor:
		return "tensor[" + p.useList(l.Elements) + "]"
	case ir.LitArray:
		return "array[" + p.useList(l.Elements) + "]"
	case ir.LitTuple:
		return "tuple(" + p.useList(l.Elements) + ")"
	case ir.LitStruct:
		parts := make([]string, len(l.Fields))
		for i, f := range l.Fields {
			parts[i] = fmt.Sprintf("#%s: %s", f.Name, p.use(f.Value))
		}
		return "struct{" + strings.Join(parts, ", ") + "}"
	case ir.LitEnumCase:
		if len(l.CaseArgs) == 0 {
			return "?" + l.CaseName
		}
		return fmt.Sprintf("?%s(%s)", l.CaseName, p.useList(l.CaseArgs))
	default:
		return "<unknown-literal>"
	}
}

// scalarText renders a scalar literal's numeric payload in the lexer's
// INT/FLOAT grammar: a float always carries a decimal point (the lexer
// only recognizes FLOAT as digits '.' digits), and a negative value is
// spelled with a '-' directly before its digits, which the lexer reads
// as part of the same INT/FLOAT token.
func scalarText(v float64, isFloat bool) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	if !isFloat {
		return sign + strconv.FormatInt(int64(v), 10)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return sign + s
}
