package parser

import (
	"strconv"
	"strings"

	cerrors "tenir/internal/errors"
	"tenir/internal/ir"
	"tenir/internal/shape"
	"tenir/internal/types"
	"tenir/token"
)

// --- operator-name tables -----------------------------------------------

var numUnaryByName = map[string]ir.NumericUnaryOp{
	"neg": ir.OpNeg, "exp": ir.OpExp, "log": ir.OpLog, "sqrt": ir.OpSqrt,
	"sin": ir.OpSin, "cos": ir.OpCos, "tanh": ir.OpTanh,
}
var numBinByName = map[string]ir.NumericBinaryOp{
	"add": ir.OpAdd, "sub": ir.OpSub, "mul": ir.OpMul, "div": ir.OpDiv, "mod": ir.OpMod,
}
var boolBinByName = map[string]ir.BooleanBinaryOp{"and": ir.OpAnd, "or": ir.OpOr, "xor": ir.OpXor}
var cmpByName = map[string]ir.CompareOp{
	"eq": ir.OpEq, "ne": ir.OpNe, "lt": ir.OpLt, "le": ir.OpLe, "gt": ir.OpGt, "ge": ir.OpGe,
}

// --- function body (step 3 of parser.go's doc comment) -------------------

func (p *Parser) parseFunctionBody(fn *ir.Function) {
	p.scope = &funcScope{fn: fn, names: map[string]ir.Definition{}}
	for _, bb := range fn.Blocks() {
		for _, a := range bb.Arguments() {
			if a.Name != "" {
				p.scope.names[a.Name] = a
			}
		}
	}
	p.skipNewlines()
	idx := 0
	for p.at(token.BLOCK) {
		p.parseBlockHeaderTokens() // re-consume; the block itself was already shelled
		bb := fn.Blocks()[idx]
		idx++
		p.expect(token.COLON, "':'")
		p.skipNewlines()
		p.scope.curBlock = bb
		for !p.at(token.BLOCK) && !p.atTopLevelBoundary() {
			p.parseInstruction(bb)
			p.skipNewlines()
		}
	}
}

func (p *Parser) parseInstruction(bb *ir.BasicBlock) {
	destName, hasDest := "", false
	if p.at(token.TEMP) && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.EQUAL {
		destName = bareName(p.advance())
		p.advance() // '='
		hasDest = true
	}
	opTok := p.expect(token.IDENT, "an opcode")
	if !token.Opcodes[opTok.Lexeme] {
		p.failf(cerrors.ParseUnexpectedIdentifierKind, "%q is not a valid opcode", opTok.Lexeme)
	}
	kind := p.parseOpBody(opTok.Lexeme)
	if hasDest && kind.IsTerminator() {
		p.failf(cerrors.ParseCannotNameVoidValue, "a terminator instruction cannot be named")
	}
	inst := ir.NewInstruction(destName, kind)
	bb.AppendInstruction(inst)
	if hasDest {
		p.scope.names[destName] = inst
	}
}

// parseOpBody parses the operand syntax following an opcode keyword
// and builds the matching InstructionKind via internal/ir/construct.go.
func (p *Parser) parseOpBody(opcode string) ir.InstructionKind {
	if op, ok := numUnaryByName[opcode]; ok {
		return ir.NumericUnary(op, p.parseUse())
	}
	if op, ok := numBinByName[opcode]; ok {
		a := p.parseUse()
		p.expect(token.COMMA, "','")
		b := p.parseUse()
		return ir.NumericBinary(op, a, b)
	}
	if op, ok := boolBinByName[opcode]; ok {
		a := p.parseUse()
		p.expect(token.COMMA, "','")
		b := p.parseUse()
		return ir.BooleanBinary(op, a, b)
	}
	if op, ok := cmpByName[opcode]; ok {
		a := p.parseUse()
		p.expect(token.COMMA, "','")
		b := p.parseUse()
		return ir.Compare(op, a, b)
	}

	switch opcode {
	case "literal":
		lit := p.parseLiteralPayload()
		p.expect(token.COLON, "':'")
		t := p.parseType()
		return ir.Literal(t, lit)
	case "not":
		return ir.Not(p.parseUse())
	case "dot":
		a := p.parseUse()
		p.expect(token.COMMA, "','")
		b := p.parseUse()
		return ir.Dot(a, b)
	case "concatenate":
		axis := p.parseIntLiteral()
		p.expect(token.COMMA, "','")
		vs := []ir.Use{p.parseUse()}
		for p.match(token.COMMA) {
			vs = append(vs, p.parseUse())
		}
		return ir.Concatenate(axis, vs...)
	case "transpose":
		return ir.Transpose(p.parseUse())
	case "reverse":
		v := p.parseUse()
		return ir.Reverse(v, p.parseIntBracketList())
	case "slice":
		v := p.parseUse()
		r := p.parseIntBracketList()
		if len(r) != 2 {
			p.failf(cerrors.ParseInvalidOperands, "slice expects [start, count]")
		}
		return ir.Slice(v, r[0], r[1])
	case "random":
		s := p.parseShapeLiteral()
		lo := p.parseUse()
		p.expect(token.COMMA, "','")
		hi := p.parseUse()
		return ir.Random(s, lo, hi)
	case "select":
		a := p.parseUse()
		p.expect(token.COMMA, "','")
		b := p.parseUse()
		p.expect(token.COMMA, "','")
		by := p.parseUse()
		return ir.Select(a, b, by)
	case "reduce":
		comb := p.parseCombinator()
		v := p.parseUse()
		dims := p.parseIntBracketList()
		return ir.Reduce(comb, v, p.parseOptionalInitial(), dims)
	case "scan":
		comb := p.parseCombinator()
		v := p.parseUse()
		return ir.Scan(comb, v, p.parseIntBracketList())
	case "reduceWindow":
		comb := p.parseCombinator()
		v := p.parseUse()
		dims := p.parseIntBracketList()
		strides := p.parseIntBracketList()
		padding := p.parsePaddingList()
		return ir.ReduceWindow(comb, v, p.parseOptionalInitial(), dims, strides, padding)
	case "convolve":
		a := p.parseUse()
		p.expect(token.COMMA, "','")
		b := p.parseUse()
		strides := p.parseIntBracketList()
		padding := p.parsePaddingList()
		ld := p.parseIntBracketList()
		rd := p.parseIntBracketList()
		groups, hasGroups := 0, false
		if p.matchIdent("groups") {
			groups, hasGroups = p.parseIntLiteral(), true
		}
		return ir.Convolve(a, b, strides, padding, ld, rd, groups, hasGroups)
	case "rank":
		return ir.Rank(p.parseUse())
	case "shape":
		return ir.Shape(p.parseUse())
	case "unitCount":
		return ir.UnitCount(p.parseUse())
	case "padShape":
		v := p.parseUse()
		return ir.PadShape(v, p.parseIntLiteral())
	case "squeezeShape":
		v := p.parseUse()
		return ir.SqueezeShape(v, p.parseIntLiteral())
	case "shapeCast":
		v := p.parseUse()
		return ir.ShapeCast(v, p.parseShapeLiteral())
	case "bitCast":
		v := p.parseUse()
		p.expect(token.ARROW, "'->'")
		return ir.BitCast(v, p.parseType())
	case "dataTypeCast":
		v := p.parseUse()
		p.expect(token.ARROW, "'->'")
		return ir.DataTypeCast(v, p.parseDataType())
	case "extract":
		v := p.parseUse()
		return ir.Extract(v, p.parseKeyPath())
	case "insert":
		src := p.parseUse()
		p.expectIdent("into")
		dst := p.parseUse()
		return ir.Insert(src, dst, p.parseKeyPath())
	case "apply":
		f := p.parseUse()
		return ir.Apply(f, p.parseUseList(token.LPAREN, token.RPAREN))
	case "allocateStack":
		t := p.parseType()
		return ir.AllocateStack(t, p.parseIntLiteral())
	case "allocateHeap":
		t := p.parseType()
		return ir.AllocateHeap(t, p.parseUse())
	case "allocateBox":
		return ir.AllocateBox(p.parseType())
	case "projectBox":
		return ir.ProjectBox(p.parseUse())
	case "load":
		return ir.Load(p.parseUse())
	case "store":
		v := p.parseUse()
		p.expect(token.COMMA, "','")
		return ir.Store(v, p.parseUse())
	case "elementPointer":
		v := p.parseUse()
		return ir.ElementPointer(v, p.parseKeyPath())
	case "copy":
		from := p.parseUse()
		p.expect(token.COMMA, "','")
		to := p.parseUse()
		p.expect(token.COMMA, "','")
		cnt := p.parseUse()
		return ir.Copy(from, to, cnt)
	case "createStack":
		return ir.CreateStack()
	case "destroyStack":
		return ir.DestroyStack(p.parseUse())
	case "push":
		v := p.parseUse()
		p.expect(token.COMMA, "','")
		return ir.Push(v, p.parseUse())
	case "pop":
		t := p.parseType()
		return ir.Pop(t, p.parseUse())
	case "retain":
		return ir.Retain(p.parseUse())
	case "release":
		return ir.Release(p.parseUse())
	case "deallocate":
		return ir.Deallocate(p.parseUse())
	case "branch":
		bb := p.parseBlockRef()
		return ir.Branch(bb, p.parseUseList(token.LPAREN, token.RPAREN))
	case "conditional":
		c := p.parseUse()
		p.expect(token.COMMA, "','")
		bt := p.parseBlockRef()
		at := p.parseUseList(token.LPAREN, token.RPAREN)
		p.expect(token.COMMA, "','")
		be := p.parseBlockRef()
		ae := p.parseUseList(token.LPAREN, token.RPAREN)
		return ir.Conditional(c, bt, at, be, ae)
	case "branchEnum":
		e := p.parseUse()
		p.expect(token.LBRACE, "'{'")
		var cases []ir.BranchEnumCase
		if !p.at(token.RBRACE) {
			cases = append(cases, p.parseBranchEnumCase())
			for p.match(token.COMMA) {
				cases = append(cases, p.parseBranchEnumCase())
			}
		}
		p.expect(token.RBRACE, "'}'")
		return ir.BranchEnum(e, cases)
	case "return":
		if p.at(token.NEWLINE) || p.atTopLevelBoundary() {
			return ir.Return(nil)
		}
		u := p.parseUse()
		return ir.Return(&u)
	case "trap":
		return ir.Trap()
	case "builtin":
		name := p.expect(token.IDENT, "an intrinsic name").Lexeme
		return ir.Builtin(name, p.parseUseList(token.LPAREN, token.RPAREN))
	default:
		p.failf(cerrors.ParseUnexpectedIdentifierKind, "unknown opcode %q", opcode)
		return ir.InstructionKind{}
	}
}

func (p *Parser) parseOptionalInitial() *ir.Use {
	if p.matchIdent("initial") {
		u := p.parseUse()
		return &u
	}
	return nil
}

func (p *Parser) parseCombinator() ir.ReductionCombinator {
	switch {
	case p.matchIdent("fn"):
		return ir.FunctionCombinator(p.parseUse())
	case p.matchIdent("builtin"):
		name := p.expect(token.IDENT, "an intrinsic name").Lexeme
		return ir.BuiltinCombinator(name)
	case p.at(token.IDENT):
		name := p.cur().Lexeme
		if op, ok := boolBinByName[name]; ok {
			p.advance()
			return ir.BooleanCombinator(op)
		}
		if op, ok := numBinByName[name]; ok {
			p.advance()
			return ir.NumericCombinator(op)
		}
		p.failf(cerrors.ParseInvalidReductionCombinator, "invalid reduction combinator %q", name)
	default:
		p.failf(cerrors.ParseInvalidReductionCombinator, "expected a reduction combinator")
	}
	return ir.ReductionCombinator{}
}

func (p *Parser) parseShapeLiteral() shape.TensorShape {
	p.expect(token.LBRACKET, "'['")
	var dims []int
	if !p.at(token.RBRACKET) {
		dims = append(dims, p.parseIntLiteral())
		for p.atIdent("x") {
			p.advance()
			dims = append(dims, p.parseIntLiteral())
		}
	}
	p.expect(token.RBRACKET, "']'")
	return shape.New(dims...)
}

func (p *Parser) parsePaddingList() []shape.Padding {
	p.expect(token.LBRACKET, "'['")
	var out []shape.Padding
	if !p.at(token.RBRACKET) {
		out = append(out, p.parsePaddingPair())
		for p.match(token.COMMA) {
			out = append(out, p.parsePaddingPair())
		}
	}
	p.expect(token.RBRACKET, "']'")
	return out
}

func (p *Parser) parsePaddingPair() shape.Padding {
	p.expect(token.LPAREN, "'('")
	lo := p.parseIntLiteral()
	p.expect(token.COMMA, "','")
	hi := p.parseIntLiteral()
	p.expect(token.RPAREN, "')'")
	return shape.Padding{Low: lo, High: hi}
}

func (p *Parser) parseBlockRef() *ir.BasicBlock {
	t := p.expect(token.BLOCK, "a basic block reference")
	bare := bareName(t)
	if isAllDigits(bare) {
		n, _ := strconv.Atoi(bare)
		bb, ok := p.blocksByIdx[p.scope.fn][n]
		if !ok {
			p.failf(cerrors.ParseInvalidBasicBlockIndex, "undefined anonymous block '%d", n)
		}
		return bb
	}
	bb, ok := p.blocksByName[p.scope.fn][bare]
	if !ok {
		p.failf(cerrors.ParseUndefinedIdentifier, "undefined block '%s", bare)
	}
	return bb
}

func (p *Parser) parseBranchEnumCase() ir.BranchEnumCase {
	name := bareName(p.expect(token.CASE, "an enum case name"))
	p.expect(token.COLON, "':'")
	return ir.BranchEnumCase{CaseName: name, Block: p.parseBlockRef()}
}

// --- key paths (extract / insert / elementPointer) ----------------------

func (p *Parser) parseKeyPath() []types.ElementKey {
	var keys []types.ElementKey
	for p.match(token.DOT) {
		switch {
		case p.at(token.INT):
			keys = append(keys, types.IndexKey(p.parseIntLiteral()))
		case p.at(token.FIELD):
			keys = append(keys, types.NameKey(bareName(p.advance())))
		case p.match(token.LPAREN):
			t := p.parseType()
			p.expect(token.RPAREN, "')'")
			keys = append(keys, types.ValueKey(t))
		default:
			p.failf(cerrors.ParseUnexpectedToken, "expected a key path element, found %q", p.cur().Lexeme)
		}
	}
	if len(keys) == 0 {
		p.failf(cerrors.ParseUnexpectedToken, "expected at least one key path element")
	}
	return keys
}

// --- uses and literal payloads -------------------------------------------

// parseUse parses "VALUE : TYPE": every operand position spells its
// own type explicitly, whether VALUE is a reference to an existing
// definition or an inline literal payload (spec.md §4.5's "a fully-
// typed module" requirement applied uniformly to operand syntax).
func (p *Parser) parseUse() ir.Use {
	switch {
	case p.at(token.TEMP):
		d := p.resolveTemp(p.advance())
		p.expect(token.COLON, "':'")
		p.parseType()
		return ir.DefUse(d)
	case p.at(token.GLOBAL):
		d := p.resolveGlobal(p.advance())
		p.expect(token.COLON, "':'")
		p.parseType()
		return ir.DefUse(d)
	default:
		lit := p.parseLiteralPayload()
		p.expect(token.COLON, "':'")
		t := p.parseType()
		return ir.LiteralUse(t, lit)
	}
}

func (p *Parser) parseUseList(open, close token.Kind) []ir.Use {
	p.expect(open, string(open))
	var out []ir.Use
	if !p.at(close) {
		out = append(out, p.parseUse())
		for p.match(token.COMMA) {
			out = append(out, p.parseUse())
		}
	}
	p.expect(close, string(close))
	return out
}

// resolveTemp resolves a TEMP token to its Definition: a named local
// (%name), the current block's Nth instruction (%N, this parser's
// shorthand extension beyond spec.md §4.5's listed forms), or the
// fully-qualified cross-block forms %B.I (instruction I of block B)
// and %B^I (argument I of block B).
func (p *Parser) resolveTemp(t token.Token) ir.Definition {
	bare := bareName(t)
	if i := strings.IndexByte(bare, '.'); i >= 0 {
		b, _ := strconv.Atoi(bare[:i])
		idx, _ := strconv.Atoi(bare[i+1:])
		bb := p.blockByIdxChecked(b)
		if idx < 0 || idx >= len(bb.Instructions()) {
			p.failf(cerrors.ParseInvalidInstructionIndex, "instruction index %d out of range in block %d", idx, b)
		}
		return bb.Instructions()[idx]
	}
	if i := strings.IndexByte(bare, '^'); i >= 0 {
		b, _ := strconv.Atoi(bare[:i])
		idx, _ := strconv.Atoi(bare[i+1:])
		bb := p.blockByIdxChecked(b)
		if idx < 0 || idx >= len(bb.Arguments()) {
			p.failf(cerrors.ParseInvalidArgumentIndex, "argument index %d out of range in block %d", idx, b)
		}
		return bb.Arguments()[idx]
	}
	if isAllDigits(bare) {
		n, _ := strconv.Atoi(bare)
		cur := p.scope.curBlock
		if n < 0 || n >= len(cur.Instructions()) {
			p.failf(cerrors.ParseInvalidInstructionIndex, "instruction index %d out of range in current block", n)
		}
		return cur.Instructions()[n]
	}
	d, ok := p.scope.names[bare]
	if !ok {
		p.failf(cerrors.ParseUndefinedIdentifier, "undefined value %%%s", bare)
	}
	return d
}

func (p *Parser) blockByIdxChecked(b int) *ir.BasicBlock {
	if p.scope.curBlock != nil && b > p.scope.curBlock.IndexInFunction() {
		p.failf(cerrors.ParseInvalidBasicBlockIndex, "forward block reference %d is not allowed (current block is %d)", b, p.scope.curBlock.IndexInFunction())
	}
	bb, ok := p.blocksByIdx[p.scope.fn][b]
	if !ok {
		p.failf(cerrors.ParseInvalidBasicBlockIndex, "undefined block index %d", b)
	}
	return bb
}

func (p *Parser) resolveGlobal(t token.Token) ir.Definition {
	bare := bareName(t)
	if isAllDigits(bare) {
		n, _ := strconv.Atoi(bare)
		d, ok := p.globalsByIdx[n]
		if !ok {
			p.failf(cerrors.ParseInvalidVariableIndex, "undefined anonymous global @%d", n)
		}
		return d
	}
	if f, ok := p.mod.LookupFunction(bare); ok {
		return f
	}
	if v, ok := p.mod.LookupVariable(bare); ok {
		return v
	}
	p.failf(cerrors.ParseUndefinedIdentifier, "undefined global %q", bare)
	return nil
}

func (p *Parser) parseLiteralPayload() ir.Literal {
	switch {
	case p.matchIdent("undefined"):
		return ir.UndefinedLiteral()
	case p.matchIdent("zero"):
		return ir.ZeroLiteral()
	case p.matchIdent("null"):
		return ir.NullLiteral()
	case p.matchIdent("true"):
		return ir.BoolLiteral(true)
	case p.matchIdent("false"):
		return ir.BoolLiteral(false)
	case p.at(token.INT):
		n, _ := strconv.ParseFloat(p.advance().Lexeme, 64)
		return ir.ScalarLiteral(n, false)
	case p.at(token.FLOAT):
		n, _ := strconv.ParseFloat(p.advance().Lexeme, 64)
		return ir.ScalarLiteral(n, true)
	case p.at(token.MINUS):
		p.advance()
		isFloat := p.at(token.FLOAT)
		if !isFloat {
			p.expect(token.INT, "a numeric literal")
		} else {
			p.advance()
		}
		lexeme := p.toks[p.pos-1].Lexeme
		n, _ := strconv.ParseFloat(lexeme, 64)
		return ir.ScalarLiteral(-n, isFloat)
	case p.matchIdent("tensor"):
		return ir.TensorLiteral(p.parseUseList(token.LBRACKET, token.RBRACKET)...)
	case p.matchIdent("array"):
		return ir.ArrayLiteral(p.parseUseList(token.LBRACKET, token.RBRACKET)...)
	case p.matchIdent("tuple"):
		return ir.TupleLiteral(p.parseUseList(token.LPAREN, token.RPAREN)...)
	case p.matchIdent(token.KwStruct):
		return p.parseStructLiteral()
	case p.at(token.CASE):
		name := bareName(p.advance())
		var args []ir.Use
		if p.match(token.LPAREN) {
			if !p.at(token.RPAREN) {
				args = append(args, p.parseUse())
				for p.match(token.COMMA) {
					args = append(args, p.parseUse())
				}
			}
			p.expect(token.RPAREN, "')'")
		}
		return ir.EnumCaseLiteral(name, args...)
	default:
		p.failf(cerrors.ParseUnexpectedToken, "expected a literal value, found %q", p.cur().Lexeme)
		return ir.Literal{}
	}
}

func (p *Parser) parseStructLiteral() ir.Literal {
	p.expect(token.LBRACE, "'{'")
	var fields []ir.StructFieldLiteral
	if !p.at(token.RBRACE) {
		fields = append(fields, p.parseStructFieldLit())
		for p.match(token.COMMA) {
			fields = append(fields, p.parseStructFieldLit())
		}
	}
	p.expect(token.RBRACE, "'}'")
	return ir.StructLiteral(fields...)
}

func (p *Parser) parseStructFieldLit() ir.StructFieldLiteral {
	name := bareName(p.expect(token.FIELD, "a struct field name"))
	p.expect(token.COLON, "':'")
	return ir.StructFieldLiteral{Name: name, Value: p.parseUse()}
}
