package passes

import (
	"tenir/internal/ir"
	"tenir/internal/verify"
)

// DataFlowGraph is DataFlowGraphAnalysis's result: per-definition
// successor set (its users), spec.md §4.6.
type DataFlowGraph struct {
	users map[ir.Definition][]*ir.Instruction
}

// Users returns the instructions that use d as an operand, in
// instruction-encounter order.
func (g *DataFlowGraph) Users(d ir.Definition) []*ir.Instruction { return g.users[d] }

// HasUsers reports whether d has at least one user.
func (g *DataFlowGraph) HasUsers(d ir.Definition) bool { return len(g.users[d]) > 0 }

const dataFlowGraphPass = "dataFlowGraph"

// DataFlowGraphAnalysis builds fn's per-value user set with a single
// sweep over instructions, enumerating operands from each kind's
// Operands() list (spec.md §4.6). Cached per fn.Version().
func DataFlowGraphAnalysis(fn *ir.Function) *DataFlowGraph {
	return ForFunction(fn).Get(dataFlowGraphPass, func() interface{} {
		g := &DataFlowGraph{users: map[ir.Definition][]*ir.Instruction{}}
		for _, bb := range fn.Blocks() {
			for _, inst := range bb.Instructions() {
				for _, u := range inst.Kind.Operands() {
					if d, ok := u.Definition(); ok {
						// An instruction that uses d more than once is one user.
						if us := g.users[d]; len(us) == 0 || us[len(us)-1] != inst {
							g.users[d] = append(us, inst)
						}
					}
				}
			}
		}
		return g
	}).(*DataFlowGraph)
}

// Effect is an instruction's side-effect summary (spec.md §4.6): none,
// or any effect, distinguishing only those two per the spec's stated
// minimum.
type Effect int

const (
	EffectNone Effect = iota
	EffectSome
)

// SideEffects is SideEffectAnalysis's result: instruction -> Effect.
type SideEffects struct {
	effect map[*ir.Instruction]Effect
}

// Of returns inst's effect summary.
func (s *SideEffects) Of(inst *ir.Instruction) Effect { return s.effect[inst] }

const sideEffectPass = "sideEffects"

// sideEffectFunctions records which functions invoke functions with
// side effects, resolved as a fixed point over the module's call graph
// (an `apply` of a function whose body contains any effectful
// instruction is itself effectful, transitively).
func sideEffectFunctions(mod *ir.Module) map[*ir.Function]bool {
	hasEffect := map[*ir.Function]bool{}
	for {
		changed := false
		for _, fn := range mod.Functions() {
			if hasEffect[fn] {
				continue
			}
			if functionHasDirectEffect(fn, hasEffect) {
				hasEffect[fn] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return hasEffect
}

func functionHasDirectEffect(fn *ir.Function, hasEffect map[*ir.Function]bool) bool {
	for _, bb := range fn.Blocks() {
		for _, inst := range bb.Instructions() {
			if inst.Kind.MustWriteToMemory() || inst.Kind.IsTerminator() {
				return true
			}
			if inst.Kind.Op == ir.OpApply {
				if callee, ok := inst.Kind.Callee.Definition(); ok {
					if calleeFn, ok := callee.(*ir.Function); ok && hasEffect[calleeFn] {
						return true
					}
				}
			}
		}
	}
	return false
}

// SideEffectAnalysis classifies every instruction in mod per spec.md
// §4.6: `none` iff the kind doesn't write memory, isn't a terminator,
// and doesn't invoke a function with side effects. Cached per
// mod.Version().
func SideEffectAnalysis(mod *ir.Module) *SideEffects {
	return ForModule(mod).Get(sideEffectPass, func() interface{} {
		effectful := sideEffectFunctions(mod)
		s := &SideEffects{effect: map[*ir.Instruction]Effect{}}
		for _, fn := range mod.Functions() {
			for _, bb := range fn.Blocks() {
				for _, inst := range bb.Instructions() {
					e := EffectNone
					switch {
					case inst.Kind.MustWriteToMemory(), inst.Kind.IsTerminator():
						e = EffectSome
					case inst.Kind.Op == ir.OpApply:
						if callee, ok := inst.Kind.Callee.Definition(); ok {
							if calleeFn, ok := callee.(*ir.Function); ok && effectful[calleeFn] {
								e = EffectSome
							}
						} else {
							e = EffectSome // indirect call through a pointer: assume effectful
						}
					}
					s.effect[inst] = e
				}
			}
		}
		return s
	}).(*SideEffects)
}

const dominancePass = "dominance"

// DominanceAnalysis returns fn's dominator tree, supporting
// `contains(block)` (reachability from entry, via ImmediateDominator !=
// -1 for non-entry blocks) and `properlyDominates(use, user)` (spec.md
// §4.6). Delegates to internal/verify's tree, the same algorithm the
// verifier itself runs for use-before-def -- one implementation shared
// by both consumers.
func DominanceAnalysis(fn *ir.Function) *verify.DominatorTree {
	return ForFunction(fn).Get(dominancePass, func() interface{} {
		return verify.Dominators(fn)
	}).(*verify.DominatorTree)
}

// Contains reports whether block b (by function-index) is reachable
// from fn's entry.
func Contains(dt *verify.DominatorTree, fn *ir.Function, blockIndex int) bool {
	if blockIndex == 0 {
		return len(fn.Blocks()) > 0
	}
	return dt.ImmediateDominator(blockIndex) != -1
}

// ProperlyDominates reports whether the block producing use strictly
// dominates the block containing user (spec.md §4.6's
// properlyDominates(use, user); same-block ordering is not this
// analysis's concern, matching the verifier's own split between
// same-block instruction order and cross-block dominance).
func ProperlyDominates(dt *verify.DominatorTree, defBlockIndex, userBlockIndex int) bool {
	return dt.StrictlyDominates(defBlockIndex, userBlockIndex)
}
