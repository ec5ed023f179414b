package verify

import "tenir/internal/ir"

// DominatorTree is the per-function dominance relation required by
// spec.md §4.4's use-before-def check and exposed to internal/passes'
// DominanceAnalysis for predecessor-hoisting and other transforms
// (spec.md §4.7). Indices are block indices within the owning
// function (BasicBlock.IndexInFunction()).
//
// Grounded on the classic iterative Cooper/Harvey/Kennedy algorithm
// (simpler to implement correctly than the Lengauer-Tarjan tree the
// teacher's own CFG package favors for its larger bytecode graphs;
// this spec's basic blocks are few enough per function that the O(n^2)
// worst case is immaterial).
type DominatorTree struct {
	idom []int // idom[i] = immediate dominator's index, or -1 for entry
}

// Dominators computes fn's dominator tree via reverse postorder
// iteration to a fixed point. fn must have at least one block (its
// entry); unreachable blocks (no predecessor path from entry) are left
// with idom == -1 and never strictly dominate or get dominated.
func Dominators(fn *ir.Function) *DominatorTree {
	blocks := fn.Blocks()
	n := len(blocks)
	dt := &DominatorTree{idom: make([]int, n)}
	for i := range dt.idom {
		dt.idom[i] = -2 // unvisited
	}
	if n == 0 {
		return dt
	}

	preds := predecessors(fn)
	order, postIndex := reversePostorder(fn)

	dt.idom[0] = 0 // entry dominates itself
	changed := true
	for changed {
		changed = false
		for _, b := range order {
			if b == 0 {
				continue
			}
			newIdom := -1
			for _, p := range preds[b] {
				if dt.idom[p] == -2 {
					continue
				}
				if newIdom == -1 {
					newIdom = p
					continue
				}
				newIdom = intersect(dt.idom, postIndex, newIdom, p)
			}
			if newIdom != -1 && dt.idom[b] != newIdom {
				dt.idom[b] = newIdom
				changed = true
			}
		}
	}
	for i, d := range dt.idom {
		if d == -2 {
			dt.idom[i] = -1 // unreachable
		}
	}
	return dt
}

func intersect(idom []int, postIndex map[int]int, a, b int) int {
	for a != b {
		for postIndex[a] < postIndex[b] {
			a = idom[a]
		}
		for postIndex[b] < postIndex[a] {
			b = idom[b]
		}
	}
	return a
}

// Dominates reports whether a dominates b (a == b counts as dominating).
func (dt *DominatorTree) Dominates(a, b int) bool {
	if a == b {
		return true
	}
	return dt.StrictlyDominates(a, b)
}

// StrictlyDominates reports whether a strictly dominates b. Nothing
// strictly dominates the entry block (index 0).
func (dt *DominatorTree) StrictlyDominates(a, b int) bool {
	if b <= 0 || b >= len(dt.idom) || dt.idom[b] == -1 {
		return false
	}
	cur := dt.idom[b]
	for {
		if cur == a {
			return true
		}
		if cur == 0 {
			return false
		}
		cur = dt.idom[cur]
	}
}

// ImmediateDominator returns b's immediate dominator index, or -1 if b
// is the entry or unreachable.
func (dt *DominatorTree) ImmediateDominator(b int) int {
	if b <= 0 || b >= len(dt.idom) {
		return -1
	}
	return dt.idom[b]
}

// predecessors maps each block's index to the indices of blocks with a
// branch/conditional/branchEnum terminator targeting it.
func predecessors(fn *ir.Function) map[int][]int {
	out := make(map[int][]int, len(fn.Blocks()))
	for _, bb := range fn.Blocks() {
		term := bb.Terminator()
		if term == nil {
			continue
		}
		for _, target := range successorBlocks(term.Kind) {
			out[target.IndexInFunction()] = append(out[target.IndexInFunction()], bb.IndexInFunction())
		}
	}
	return out
}

func successorBlocks(k ir.InstructionKind) []*ir.BasicBlock {
	switch k.Op {
	case ir.OpBranch:
		return []*ir.BasicBlock{k.DestBlock}
	case ir.OpConditional:
		return []*ir.BasicBlock{k.TrueBlock, k.FalseBlock}
	case ir.OpBranchEnum:
		out := make([]*ir.BasicBlock, 0, len(k.Cases))
		for _, c := range k.Cases {
			out = append(out, c.Block)
		}
		return out
	default:
		return nil
	}
}

// reversePostorder walks fn's CFG from its entry and returns block
// indices in reverse-postorder, plus a map from index to its rank in
// that order (used by the dominator intersection routine).
func reversePostorder(fn *ir.Function) ([]int, map[int]int) {
	blocks := fn.Blocks()
	visited := make([]bool, len(blocks))
	var post []int

	var visit func(i int)
	visit = func(i int) {
		if visited[i] {
			return
		}
		visited[i] = true
		term := blocks[i].Terminator()
		if term != nil {
			for _, s := range successorBlocks(term.Kind) {
				if s != nil {
					visit(s.IndexInFunction())
				}
			}
		}
		post = append(post, i)
	}
	visit(0)

	order := make([]int, len(post))
	postIndex := make(map[int]int, len(post))
	for i, b := range post {
		order[len(post)-1-i] = b
		postIndex[b] = i
	}
	return order, postIndex
}
