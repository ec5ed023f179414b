// Package token defines the lexical vocabulary of the textual IR surface
// syntax: token kinds, the identifier-prefix scheme, and the keyword and
// opcode tables the lexer and parser share.
package token

// Kind identifies the lexical category of a Token.
type Kind string

const (
	ILLEGAL Kind = "ILLEGAL"
	EOF     Kind = "EOF"
	NEWLINE Kind = "NEWLINE"

	// Identifier forms, distinguished by the sigil the lexer consumed.
	GLOBAL  Kind = "GLOBAL"  // @name, @N
	TEMP    Kind = "TEMP"   // %name, %B.I, %B^I
	BLOCK   Kind = "BLOCK"  // 'name, 'N
	TYPE    Kind = "TYPE"   // $name
	FIELD   Kind = "FIELD"  // #name
	CASE    Kind = "CASE"   // ?name
	ATTR    Kind = "ATTR"   // !name
	IDENT   Kind = "IDENT"  // bare identifier (keywords, opcodes, data types)
	INT     Kind = "INT"
	FLOAT   Kind = "FLOAT"
	STRING  Kind = "STRING"
	DATATYPE Kind = "DATATYPE" // bool, iN, f16|f32|f64

	// Punctuation.
	LPAREN   Kind = "("
	RPAREN   Kind = ")"
	LBRACE   Kind = "{"
	RBRACE   Kind = "}"
	LBRACKET Kind = "["
	RBRACKET Kind = "]"
	LANGLE   Kind = "<"
	RANGLE   Kind = ">"
	COMMA    Kind = ","
	COLON    Kind = ":"
	ARROW    Kind = "->"
	EQUAL    Kind = "="
	STAR     Kind = "*"
	SLASH    Kind = "/"
	MINUS    Kind = "-"
	DOT      Kind = "."
)

// Position locates a token in its source file.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token is a single lexical unit with its source text and location.
type Token struct {
	Kind     Kind
	Lexeme   string
	Position Position
}

// Keywords are the reserved, non-opcode words of the grammar.
const (
	KwModule = "module"
	KwStage  = "stage"
	KwRaw    = "raw"
	KwOptim  = "optimizable"
	KwFunc   = "func"
	KwExtern = "extern"
	KwStruct = "struct"
	KwEnum   = "enum"
	KwAlias  = "alias"
	KwVar    = "var"
	KwVoid   = "void"
	KwBool   = "bool"
)

var keywords = map[string]bool{
	KwModule: true, KwStage: true, KwRaw: true, KwOptim: true,
	KwFunc: true, KwExtern: true, KwStruct: true, KwEnum: true,
	KwAlias: true, KwVar: true, KwVoid: true, KwBool: true,
}

// IsKeyword reports whether ident names a reserved keyword.
func IsKeyword(ident string) bool { return keywords[ident] }

// Opcodes are the reserved instruction mnemonics of InstructionKind (§4.2).
var Opcodes = map[string]bool{
	"literal": true, "add": true, "sub": true, "mul": true, "div": true, "mod": true,
	"neg": true, "exp": true, "log": true, "sqrt": true, "sin": true, "cos": true, "tanh": true,
	"and": true, "or": true, "xor": true, "not": true,
	"eq": true, "ne": true, "lt": true, "le": true, "gt": true, "ge": true,
	"dot": true, "concatenate": true, "transpose": true, "reverse": true, "slice": true,
	"random": true, "select": true, "reduce": true, "scan": true, "reduceWindow": true,
	"convolve": true, "rank": true, "shape": true, "unitCount": true,
	"padShape": true, "squeezeShape": true, "shapeCast": true, "bitCast": true, "dataTypeCast": true,
	"extract": true, "insert": true, "apply": true,
	"allocateStack": true, "allocateHeap": true, "allocateBox": true, "projectBox": true,
	"load": true, "store": true, "elementPointer": true, "copy": true,
	"createStack": true, "destroyStack": true, "push": true, "pop": true,
	"retain": true, "release": true, "deallocate": true,
	"branch": true, "conditional": true, "branchEnum": true, "return": true, "trap": true,
	"builtin": true,
}
