package parser

import (
	"strconv"

	cerrors "tenir/internal/errors"
	"tenir/internal/shape"
	"tenir/internal/types"
	"tenir/token"
)

// parseType parses a type expression, mirroring types.Type.String()'s
// own rendering exactly so that print(parse(s)) == s (spec.md §8's
// round-trip property).
func (p *Parser) parseType() types.Type {
	switch {
	case p.matchIdent(token.KwVoid):
		return types.VoidType()
	case p.at(token.DATATYPE) && p.cur().Lexeme == token.KwBool:
		p.advance()
		return types.BoolType()
	case p.matchIdent("stack"):
		return types.StackType()
	case p.matchIdent("tensor"):
		return p.parseTensorType()
	case p.matchIdent("ptr"):
		p.expect(token.LANGLE, "'<'")
		elem := p.parseType()
		p.expect(token.RANGLE, "'>'")
		return types.PointerType(elem)
	case p.matchIdent("box"):
		p.expect(token.LANGLE, "'<'")
		elem := p.parseType()
		p.expect(token.RANGLE, "'>'")
		return types.BoxType(elem)
	case p.at(token.LBRACKET):
		return p.parseArrayType()
	case p.at(token.LPAREN):
		return p.parseTupleOrFunctionType()
	case p.at(token.TYPE):
		return p.parseNominalType()
	default:
		p.failf(cerrors.ParseUnexpectedToken, "expected a type, found %q", p.cur().Lexeme)
		return types.InvalidType()
	}
}

// parseTensorType parses "tensor<DT>" (scalar) or
// "tensor<D1xD2x...xDn x DT>" (rank > 0), the exact inverse of
// Type.String()'s tensor case.
func (p *Parser) parseTensorType() types.Type {
	p.expect(token.LANGLE, "'<'")
	var dims []int
	for p.at(token.INT) {
		dims = append(dims, p.parseIntLiteral())
		if p.atIdent("x") && p.peekIsInt() {
			p.advance()
			continue
		}
		break
	}
	if len(dims) > 0 {
		p.expectIdent("x")
	}
	dt := p.parseDataType()
	p.expect(token.RANGLE, "'>'")
	return types.TensorType(shape.New(dims...), dt)
}

func (p *Parser) peekIsInt() bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	return p.toks[p.pos+1].Kind == token.INT
}

func (p *Parser) parseDataType() shape.DataType {
	t := p.expect(token.DATATYPE, "a data type")
	return parseDataTypeLexeme(t.Lexeme)
}

func parseDataTypeLexeme(s string) shape.DataType {
	switch s {
	case "bool":
		return shape.Bool()
	case "f16":
		return shape.Half()
	case "f32":
		return shape.Single()
	case "f64":
		return shape.Double()
	}
	if len(s) >= 2 && s[0] == 'i' {
		if w, err := strconv.Atoi(s[1:]); err == nil {
			return shape.Int(w)
		}
	}
	return shape.Bool()
}

// parseArrayType parses "[N x T]", matching Type.String()'s Array
// case.
func (p *Parser) parseArrayType() types.Type {
	p.expect(token.LBRACKET, "'['")
	n := p.parseIntLiteral()
	p.expectIdent("x")
	elem := p.parseType()
	p.expect(token.RBRACKET, "']'")
	return types.ArrayType(n, elem)
}

// parseTupleOrFunctionType parses "(T1, T2, ...)" as a tuple, or the
// same element list followed by "-> T" as a function type.
func (p *Parser) parseTupleOrFunctionType() types.Type {
	p.expect(token.LPAREN, "'('")
	var elems []types.Type
	if !p.at(token.RPAREN) {
		elems = append(elems, p.parseType())
		for p.match(token.COMMA) {
			elems = append(elems, p.parseType())
		}
	}
	p.expect(token.RPAREN, "')'")
	if p.match(token.ARROW) {
		ret := p.parseType()
		return types.FunctionType(elems, ret)
	}
	return types.TupleType(elems...)
}

func (p *Parser) parseNominalType() types.Type {
	name := bareName(p.expect(token.TYPE, "a nominal type name"))
	h, ok := p.mod.LookupType(name)
	if !ok {
		p.failf(cerrors.ParseUndefinedNominalType, "undefined nominal type %q", name)
	}
	if _, ok := p.mod.StructByHandle(h); ok {
		return types.StructType(name, h)
	}
	if _, ok := p.mod.EnumByHandle(h); ok {
		return types.EnumType(name, h)
	}
	return types.AliasType(name, h)
}

func (p *Parser) parseIntLiteral() int {
	t := p.expect(token.INT, "an integer literal")
	n, err := strconv.Atoi(t.Lexeme)
	if err != nil {
		p.failf(cerrors.ParseUnexpectedToken, "invalid integer literal %q", t.Lexeme)
	}
	return n
}

// parseIntBracketList parses "[n1, n2, ...]", used for dims/strides
// operand lists (an empty list is "[]").
func (p *Parser) parseIntBracketList() []int {
	p.expect(token.LBRACKET, "'['")
	var out []int
	if !p.at(token.RBRACKET) {
		out = append(out, p.parseIntLiteral())
		for p.match(token.COMMA) {
			out = append(out, p.parseIntLiteral())
		}
	}
	p.expect(token.RBRACKET, "']'")
	return out
}
