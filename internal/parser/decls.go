package parser

import (
	"strconv"

	cerrors "tenir/internal/errors"
	"tenir/internal/ir"
	"tenir/internal/types"
	"tenir/token"
)

// bareName strips the single-rune sigil prefix ('@','%','\'','$','#',
// '?','!') every identifier-form token's Lexeme carries (the lexer
// includes the sigil rune in the token's source span).
func bareName(t token.Token) string { return t.Lexeme[1:] }

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// --- alias / struct / enum ---------------------------------------------

func (p *Parser) parseAlias() {
	p.expectIdent(token.KwAlias)
	name := bareName(p.expect(token.TYPE, "a type name"))
	p.expect(token.EQUAL, "'='")
	underlying := p.parseType()
	h, _ := p.mod.LookupType(name)
	a, ok := p.mod.AliasByHandle(h)
	if !ok {
		p.failf(cerrors.ParseUndefinedNominalType, "alias %q was not pre-registered", name)
	}
	a.Underlying = &underlying
}

func (p *Parser) parseStruct() {
	p.expectIdent(token.KwStruct)
	name := bareName(p.expect(token.TYPE, "a type name"))
	h, _ := p.mod.LookupType(name)
	s, ok := p.mod.StructByHandle(h)
	if !ok {
		p.failf(cerrors.ParseUndefinedNominalType, "struct %q was not pre-registered", name)
	}
	p.expect(token.LBRACE, "'{'")
	if !p.at(token.RBRACE) {
		s.Fields = append(s.Fields, p.parseStructFieldDecl())
		for p.match(token.COMMA) {
			s.Fields = append(s.Fields, p.parseStructFieldDecl())
		}
	}
	p.expect(token.RBRACE, "'}'")
}

func (p *Parser) parseStructFieldDecl() ir.StructFieldDecl {
	name := bareName(p.expect(token.FIELD, "a struct field name"))
	p.expect(token.COLON, "':'")
	return ir.StructFieldDecl{Name: name, Type: p.parseType()}
}

func (p *Parser) parseEnum() {
	p.expectIdent(token.KwEnum)
	name := bareName(p.expect(token.TYPE, "a type name"))
	h, _ := p.mod.LookupType(name)
	e, ok := p.mod.EnumByHandle(h)
	if !ok {
		p.failf(cerrors.ParseUndefinedNominalType, "enum %q was not pre-registered", name)
	}
	p.expect(token.LBRACE, "'{'")
	if !p.at(token.RBRACE) {
		e.Cases = append(e.Cases, p.parseEnumCaseDecl())
		for p.match(token.COMMA) {
			e.Cases = append(e.Cases, p.parseEnumCaseDecl())
		}
	}
	p.expect(token.RBRACE, "'}'")
}

func (p *Parser) parseEnumCaseDecl() ir.EnumCaseDecl {
	name := bareName(p.expect(token.CASE, "an enum case name"))
	var assoc []types.Type
	if p.match(token.LPAREN) {
		if !p.at(token.RPAREN) {
			assoc = append(assoc, p.parseType())
			for p.match(token.COMMA) {
				assoc = append(assoc, p.parseType())
			}
		}
		p.expect(token.RPAREN, "')'")
	}
	return ir.EnumCaseDecl{Name: name, AssociatedTypes: assoc}
}

// --- global variable ----------------------------------------------------

func (p *Parser) parseVar() {
	p.expectIdent(token.KwVar)
	name, isAnon, idx := p.parseGlobalNameToken()
	p.expect(token.COLON, "':'")
	typ := p.parseType()

	v := &ir.Variable{Name: name, Type_: typ}
	p.mod.AddVariable(v)
	globalIdx := p.nextGlobalIndex(idx, isAnon)
	p.globalsByIdx[globalIdx] = v
}

// parseGlobalNameToken consumes a GLOBAL token and reports its bare
// name, or (for an anonymous @N form) the digit index it carries.
func (p *Parser) parseGlobalNameToken() (name string, isAnon bool, idx int) {
	t := p.expect(token.GLOBAL, "a global name")
	bare := bareName(t)
	if isAllDigits(bare) {
		n, _ := strconv.Atoi(bare)
		return "", true, n
	}
	return bare, false, 0
}

// --- function -------------------------------------------------------------

func (p *Parser) parseFuncHeaderAndShell() {
	attrs := map[string]bool{}
	for p.at(token.ATTR) {
		attrs[bareName(p.advance())] = true
	}
	isExtern := p.matchIdent(token.KwExtern)
	p.expectIdent(token.KwFunc)
	name, isAnon, idx := p.parseGlobalNameToken()

	p.expect(token.LPAREN, "'('")
	var argTypes []types.Type
	if !p.at(token.RPAREN) {
		argTypes = append(argTypes, p.parseType())
		for p.match(token.COMMA) {
			argTypes = append(argTypes, p.parseType())
		}
	}
	p.expect(token.RPAREN, "')'")
	p.expect(token.ARROW, "'->'")
	ret := p.parseType()

	fn := ir.NewFunction(name, argTypes, ret)
	fn.Attributes = attrs

	if p.matchIdent("adjoint") {
		primalTok := p.expect(token.GLOBAL, "a primal function reference")
		primalName := bareName(primalTok)
		primal, ok := p.mod.LookupFunction(primalName)
		if !ok {
			p.failf(cerrors.ParseUndefinedIdentifier, "undefined function %q", primalName)
		}
		p.expectIdent("output")
		srcIdx := p.parseIntLiteral()
		p.expectIdent("wrt")
		wrt := p.parseIntBracketList()
		p.expectIdent("keep")
		keep := p.parseIntBracketList()
		seedable := p.matchIdent("seedable")
		fn.Declaration = &ir.DeclarationKind{
			IsAdjoint: true, Primal: primal, SourceIndex: srcIdx,
			ArgumentIndices: wrt, KeptIndices: keep, IsSeedable: seedable,
		}
	} else if isExtern {
		fn.Declaration = &ir.DeclarationKind{IsExternal: true}
	}

	p.mod.AddFunction(fn)
	globalIdx := p.nextGlobalIndex(idx, isAnon)
	p.globalsByIdx[globalIdx] = fn

	p.skipNewlines()
	hasBody := p.at(token.BLOCK)
	if fn.Declaration != nil {
		if hasBody {
			p.failf(cerrors.ParseDeclarationCannotHaveBody, "declaration %q cannot have a body", name)
		}
		return
	}

	// Definition: shell this function's basic blocks now (recording
	// names/arguments/anonymous indices), deferring instruction bodies
	// to the final pass (step 3 of the file doc comment).
	p.blocksByName[fn] = map[string]*ir.BasicBlock{}
	p.blocksByIdx[fn] = map[int]*ir.BasicBlock{}
	bodyStart := p.pos
	for p.at(token.BLOCK) {
		h := p.parseBlockHeaderTokens()
		bb := ir.NewBasicBlock(h.name)
		for _, a := range h.args {
			bb.AddArgument(ir.NewArgument(a.name, a.typ))
		}
		if h.isAnon && h.idx != len(fn.Blocks()) {
			p.failf(cerrors.ParseInvalidBasicBlockIndex, "anonymous block index %d does not match expected %d", h.idx, len(fn.Blocks()))
		}
		fn.AddBlock(bb)
		if h.name != "" {
			p.blocksByName[fn][h.name] = bb
		}
		p.blocksByIdx[fn][len(fn.Blocks())-1] = bb
		p.expect(token.COLON, "':'")
		p.skipNewlines()
		for !p.at(token.BLOCK) && !p.atTopLevelBoundary() {
			p.skipLine()
		}
	}
	p.pending = append(p.pending, pendingBody{fn: fn, bodyStart: bodyStart})
}

func (p *Parser) skipLine() {
	for !p.at(token.NEWLINE) && !p.at(token.EOF) {
		p.advance()
	}
	p.skipNewlines()
}

type blockArgSpec struct {
	name string
	typ  types.Type
}

type blockHeader struct {
	name   string
	isAnon bool
	idx    int
	args   []blockArgSpec
}

func (p *Parser) parseBlockHeaderTokens() blockHeader {
	t := p.expect(token.BLOCK, "a basic block label")
	bare := bareName(t)
	h := blockHeader{}
	if isAllDigits(bare) {
		h.isAnon = true
		h.idx, _ = strconv.Atoi(bare)
	} else {
		h.name = bare
	}
	if p.match(token.LPAREN) {
		if !p.at(token.RPAREN) {
			h.args = append(h.args, p.parseBlockArgDecl())
			for p.match(token.COMMA) {
				h.args = append(h.args, p.parseBlockArgDecl())
			}
		}
		p.expect(token.RPAREN, "')'")
	}
	return h
}

func (p *Parser) parseBlockArgDecl() blockArgSpec {
	t := p.expect(token.TEMP, "a block argument name")
	p.expect(token.COLON, "':'")
	return blockArgSpec{name: bareName(t), typ: p.parseType()}
}
