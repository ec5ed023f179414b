package ir

import (
	"fmt"

	"tenir/internal/types"
)

// Stage is a module's optimizability flag (spec.md §3).
type Stage int

const (
	StageRaw Stage = iota
	StageOptimizable
)

func (s Stage) String() string {
	if s == StageOptimizable {
		return "optimizable"
	}
	return "raw"
}

// Module is the top-level ordered container: functions, globals, and the
// nominal-type tables (alias/struct/enum), each a module-owned interned
// table keyed by types.Handle (spec.md §9).
type Module struct {
	Name  string
	Stage Stage

	functions []*Function
	variables []*Variable
	aliases   []*TypeAlias
	structs   []*StructType
	enums     []*EnumType

	byHandle map[types.Handle]interface{}
	nextH    types.Handle

	nameToFunc map[string]*Function
	nameToVar  map[string]*Variable
	nameToType map[string]types.Handle

	version uint64

	// PassCache is this module's PassManager (spec.md §4.6), stored
	// opaquely to avoid internal/ir depending on internal/passes;
	// internal/passes type-asserts it on first use.
	PassCache interface{}
}

// NewModule builds an empty module.
func NewModule(name string, stage Stage) *Module {
	return &Module{
		Name:       name,
		Stage:      stage,
		byHandle:   make(map[types.Handle]interface{}),
		nameToFunc: make(map[string]*Function),
		nameToVar:  make(map[string]*Variable),
		nameToType: make(map[string]types.Handle),
	}
}

// Version is a monotonic counter bumped on every structural mutation,
// per spec.md §9's pass-cache-invalidation design note: analysis
// entries are stamped with the version at which they were produced and
// invalidated on mismatch, rather than requiring every transform to
// explicitly re-run analyses after a mutation.
func (m *Module) Version() uint64 { return m.version }

func (m *Module) touch() { m.version++ }

// Functions returns the ordered function list (read-only view).
func (m *Module) Functions() []*Function { return m.functions }

// Variables returns the ordered global-variable list.
func (m *Module) Variables() []*Variable { return m.variables }

// Aliases, Structs, Enums return the ordered nominal-type lists.
func (m *Module) Aliases() []*TypeAlias { return m.aliases }
func (m *Module) Structs() []*StructType { return m.structs }
func (m *Module) Enums() []*EnumType     { return m.enums }

// AddFunction appends f, assigning it an index-in-parent and module
// back-reference. Per spec.md §3, variables must precede functions in
// source order; neither AddFunction nor the verifier checks this -- the
// parser enforces the ordering at parse time (see internal/parser).
func (m *Module) AddFunction(f *Function) {
	f.Module = m
	f.indexInModule = len(m.functions)
	m.functions = append(m.functions, f)
	if f.Name != "" {
		m.nameToFunc[f.Name] = f
	}
	m.touch()
}

// AddVariable appends v.
func (m *Module) AddVariable(v *Variable) {
	v.Module = m
	v.indexInModule = len(m.variables)
	m.variables = append(m.variables, v)
	if v.Name != "" {
		m.nameToVar[v.Name] = v
	}
	m.touch()
}

// DeclareAlias interns a new, initially-opaque alias slot and returns
// its handle; SetAliasUnderlying completes it once the underlying type
// is known (phase-1/phase-2 parser split, spec.md §4.5).
func (m *Module) DeclareAlias(name string) *TypeAlias {
	h := m.nextHandle()
	a := &TypeAlias{Name: name, Handle: h}
	m.aliases = append(m.aliases, a)
	m.byHandle[h] = a
	m.nameToType[name] = h
	m.touch()
	return a
}

func (m *Module) DeclareStruct(name string) *StructType {
	h := m.nextHandle()
	s := &StructType{Name: name, Handle: h}
	m.structs = append(m.structs, s)
	m.byHandle[h] = s
	m.nameToType[name] = h
	m.touch()
	return s
}

func (m *Module) DeclareEnum(name string) *EnumType {
	h := m.nextHandle()
	e := &EnumType{Name: name, Handle: h}
	m.enums = append(m.enums, e)
	m.byHandle[h] = e
	m.nameToType[name] = h
	m.touch()
	return e
}

func (m *Module) nextHandle() types.Handle {
	h := m.nextH
	m.nextH++
	return h
}

// LookupFunction, LookupVariable, LookupType resolve a top-level name.
func (m *Module) LookupFunction(name string) (*Function, bool) { f, ok := m.nameToFunc[name]; return f, ok }
func (m *Module) LookupVariable(name string) (*Variable, bool) { v, ok := m.nameToVar[name]; return v, ok }
func (m *Module) LookupType(name string) (types.Handle, bool)  { h, ok := m.nameToType[name]; return h, ok }

// ResolveAlias, StructField, EnumCaseTypes implement types.Resolver so
// that internal/types can canonicalise and validate through handles
// without depending on internal/ir (spec.md §9).
func (m *Module) ResolveAlias(h types.Handle) (types.Type, bool) {
	a, ok := m.byHandle[h].(*TypeAlias)
	if !ok || a.Underlying == nil {
		return types.Type{}, false
	}
	return *a.Underlying, true
}

func (m *Module) StructField(h types.Handle, name string) (types.Type, bool) {
	s, ok := m.byHandle[h].(*StructType)
	if !ok {
		return types.Type{}, false
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return types.Type{}, false
}

func (m *Module) EnumCaseTypes(h types.Handle, name string) ([]types.Type, bool) {
	e, ok := m.byHandle[h].(*EnumType)
	if !ok {
		return nil, false
	}
	for _, c := range e.Cases {
		if c.Name == name {
			return c.AssociatedTypes, true
		}
	}
	return nil, false
}

// StructByHandle, EnumByHandle, AliasByHandle give the verifier/printer
// node access by handle without a linear scan.
func (m *Module) StructByHandle(h types.Handle) (*StructType, bool) {
	s, ok := m.byHandle[h].(*StructType)
	return s, ok
}
func (m *Module) EnumByHandle(h types.Handle) (*EnumType, bool) {
	e, ok := m.byHandle[h].(*EnumType)
	return e, ok
}
func (m *Module) AliasByHandle(h types.Handle) (*TypeAlias, bool) {
	a, ok := m.byHandle[h].(*TypeAlias)
	return a, ok
}

// TypeAlias is a name + optional underlying type; nil Underlying means
// opaque (spec.md §3).
type TypeAlias struct {
	Name       string
	Handle     types.Handle
	Underlying *types.Type
}

// StructFieldDecl is one (field-name, Type) pair.
type StructFieldDecl struct {
	Name string
	Type types.Type
}

// StructType is a name + ordered field list; field names unique.
type StructType struct {
	Name   string
	Handle types.Handle
	Fields []StructFieldDecl
}

// EnumCaseDecl is one (case-name, associated-types) pair.
type EnumCaseDecl struct {
	Name            string
	AssociatedTypes []types.Type
}

// EnumType is a name + ordered case list; case names unique.
type EnumType struct {
	Name   string
	Handle types.Handle
	Cases  []EnumCaseDecl
}

// Variable is a module-level global.
type Variable struct {
	Name   string
	Type_  types.Type
	Module *Module

	indexInModule int
}

func (v *Variable) Type() types.Type { return v.Type_ }
func (v *Variable) IndexInModule() int { return v.indexInModule }
func (v *Variable) String() string     { return "@" + v.Name }

// DeclarationKind tags a function declaration's external/adjoint
// variant (spec.md §3).
type DeclarationKind struct {
	IsExternal bool

	IsAdjoint       bool
	Primal          *Function
	SourceIndex     int
	ArgumentIndices []int
	KeptIndices     []int
	IsSeedable      bool
}

// Function is name (optional) + argument types + return type +
// attributes + optional DeclarationKind + ordered block sequence.
type Function struct {
	Name           string
	ArgumentTypes  []types.Type
	ReturnType     types.Type
	Attributes     map[string]bool
	Declaration    *DeclarationKind // nil => definition
	Module         *Module

	blocks []*BasicBlock

	indexInModule int
	blockCounter  int
	valueCounter  int
	version       uint64

	// PassCache is this function's PassManager (spec.md §4.6), stored
	// opaquely for the same reason as Module.PassCache.
	PassCache interface{}
}

// NewFunction builds a function shell; blocks are appended with
// AddBlock to turn it into a definition.
func NewFunction(name string, argTypes []types.Type, ret types.Type) *Function {
	return &Function{Name: name, ArgumentTypes: argTypes, ReturnType: ret, Attributes: map[string]bool{}}
}

// Type is the function's own static type, function(argTypes, ret),
// usable wherever a first-class function Use is needed (apply's callee,
// adjoint's primal reference).
func (f *Function) Type() types.Type {
	return types.FunctionType(append([]types.Type{}, f.ArgumentTypes...), f.ReturnType)
}

func (f *Function) IndexInModule() int { return f.indexInModule }

// IsDeclaration reports whether f has no body (spec.md §3).
func (f *Function) IsDeclaration() bool { return len(f.blocks) == 0 && f.Declaration != nil }

// Blocks returns the ordered block list.
func (f *Function) Blocks() []*BasicBlock { return f.blocks }

// Entry returns the function's entry block (the first), or nil for a
// declaration.
func (f *Function) Entry() *BasicBlock {
	if len(f.blocks) == 0 {
		return nil
	}
	return f.blocks[0]
}

// Version is this function's own monotonic mutation counter, bumped on
// every block/instruction insert-remove-move and propagated to the
// owning module's counter (spec.md §9).
func (f *Function) Version() uint64 { return f.version }

func (f *Function) touch() {
	f.version++
	if f.Module != nil {
		f.Module.touch()
	}
}

// AddBlock appends bb at the end of the block list.
func (f *Function) AddBlock(bb *BasicBlock) {
	bb.Function = f
	bb.indexInFunction = len(f.blocks)
	f.blocks = append(f.blocks, bb)
	f.touch()
}

// InsertBlock inserts bb at position i, shifting later blocks and
// their cached index-in-parent fields.
func (f *Function) InsertBlock(i int, bb *BasicBlock) {
	bb.Function = f
	f.blocks = append(f.blocks, nil)
	copy(f.blocks[i+1:], f.blocks[i:])
	f.blocks[i] = bb
	f.reindexBlocks()
	f.touch()
}

// RemoveBlock deletes bb from the block list.
func (f *Function) RemoveBlock(bb *BasicBlock) {
	for i, b := range f.blocks {
		if b == bb {
			f.blocks = append(f.blocks[:i], f.blocks[i+1:]...)
			f.reindexBlocks()
			f.touch()
			return
		}
	}
}

func (f *Function) reindexBlocks() {
	for i, b := range f.blocks {
		b.indexInFunction = i
	}
}

// FreshValueName allocates an unused value name (taken reports which
// names are in use): base, then base_0, base_1, ... per spec.md §4.7's
// fresh-name-allocation rule. FreshBlockName does the same over the
// function's block names. The two namespaces (values, blocks) are
// tracked separately since a value name and a block name never collide
// lexically (different sigils), but the counter-probing algorithm is
// identical.
func (f *Function) FreshValueName(base string, taken func(string) bool) string {
	return freshName(base, taken)
}

func (f *Function) FreshBlockName(base string) string {
	taken := func(n string) bool {
		for _, b := range f.blocks {
			if b.Name == n {
				return true
			}
		}
		return false
	}
	return freshName(base, taken)
}

func freshName(base string, taken func(string) bool) string {
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

// BasicBlock is name (optional) + ordered arguments + ordered
// instructions + parent back-reference.
type BasicBlock struct {
	Name         string
	Function     *Function
	arguments    []*Argument
	instructions []*Instruction

	indexInFunction int
}

// NewBasicBlock builds an unattached block; AddBlock/InsertBlock on the
// owning Function attaches it.
func NewBasicBlock(name string) *BasicBlock {
	return &BasicBlock{Name: name}
}

func (b *BasicBlock) IndexInFunction() int { return b.indexInFunction }
func (b *BasicBlock) Arguments() []*Argument { return b.arguments }
func (b *BasicBlock) Instructions() []*Instruction { return b.instructions }
func (b *BasicBlock) Module() *Module {
	if b.Function == nil {
		return nil
	}
	return b.Function.Module
}

// Terminator returns the block's last instruction if it is a
// terminator-kind instruction, else nil.
func (b *BasicBlock) Terminator() *Instruction {
	if len(b.instructions) == 0 {
		return nil
	}
	last := b.instructions[len(b.instructions)-1]
	if last.Kind.IsTerminator() {
		return last
	}
	return nil
}

// AddArgument appends arg to the block's argument list.
func (b *BasicBlock) AddArgument(arg *Argument) {
	arg.Block = b
	arg.indexInBlock = len(b.arguments)
	b.arguments = append(b.arguments, arg)
	b.touch()
}

// AppendInstruction appends inst at the end of the instruction list.
func (b *BasicBlock) AppendInstruction(inst *Instruction) {
	inst.Block = b
	inst.indexInBlock = len(b.instructions)
	b.instructions = append(b.instructions, inst)
	b.touch()
}

// InsertInstruction inserts inst at position i.
func (b *BasicBlock) InsertInstruction(i int, inst *Instruction) {
	inst.Block = b
	b.instructions = append(b.instructions, nil)
	copy(b.instructions[i+1:], b.instructions[i:])
	b.instructions[i] = inst
	b.reindex()
	b.touch()
}

// RemoveInstruction deletes inst from the instruction list. Per
// spec.md §3's lifecycle note, this invalidates every cached analysis
// of the enclosing function; callers must not retain inst as a use
// target afterward.
func (b *BasicBlock) RemoveInstruction(inst *Instruction) {
	for i, ins := range b.instructions {
		if ins == inst {
			b.instructions = append(b.instructions[:i], b.instructions[i+1:]...)
			b.reindex()
			b.touch()
			return
		}
	}
}

func (b *BasicBlock) reindex() {
	for i, ins := range b.instructions {
		ins.indexInBlock = i
	}
}

func (b *BasicBlock) touch() {
	if b.Function != nil {
		b.Function.touch()
	}
}

func (b *BasicBlock) refString() string {
	if b.Name != "" {
		return "'" + b.Name
	}
	return fmt.Sprintf("'%d", b.indexInFunction)
}

func (b *BasicBlock) String() string { return b.refString() }

// Argument is a block-local parameter (spec.md §3's basic-block
// argument, equivalent to an SSA phi). Owned by its block; its Use
// form is definition(argument(self)).
type Argument struct {
	Name  string
	Type_ types.Type
	Block *BasicBlock

	indexInBlock int
}

func NewArgument(name string, t types.Type) *Argument { return &Argument{Name: name, Type_: t} }

func (a *Argument) Type() types.Type   { return a.Type_ }
func (a *Argument) IndexInBlock() int  { return a.indexInBlock }

func (a *Argument) refString() string {
	if a.Name != "" {
		return "%" + a.Name
	}
	bi := 0
	if a.Block != nil {
		bi = a.Block.indexInFunction
	}
	return fmt.Sprintf("%%%d^%d", bi, a.indexInBlock)
}

func (a *Argument) String() string { return a.refString() }
