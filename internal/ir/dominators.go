package ir

// DominatorTree implements the Cooper-Harvey-Kennedy iterative dominator
// algorithm over a reverse-postorder numbering, per spec.md §4.4. This
// deliberately diverges from vyper's own dominators.py (a naive O(n^2)
// fixed-point over explicit dominator sets) since spec.md explicitly
// mandates CHK; the field/method shape (Idom, Dominates, DominanceFrontier,
// ImmediateDominator) is kept parallel to dominators.py's DominatorTree for
// familiarity.
type DominatorTree struct {
	fn          *Function
	rpoOrder    []*BasicBlock
	rpoNumber   map[string]int
	idom        map[string]*BasicBlock
	frontier    map[string]map[string]*BasicBlock
	dominated   map[string][]*BasicBlock
}

func (*DominatorTree) Compute(fn *Function) Analysis {
	return computeDominatorTree(fn)
}

func computeDominatorTree(fn *Function) *DominatorTree {
	dt := &DominatorTree{
		fn:        fn,
		rpoNumber: map[string]int{},
		idom:      map[string]*BasicBlock{},
		frontier:  map[string]map[string]*BasicBlock{},
		dominated: map[string][]*BasicBlock{},
	}
	entry := fn.EntryBlock()
	if entry == nil {
		return dt
	}
	dt.rpoOrder = reversePostOrder(entry)
	for i, bb := range dt.rpoOrder {
		dt.rpoNumber[bb.Label.Name] = i
	}
	dt.idom[entry.Label.Name] = entry

	changed := true
	for changed {
		changed = false
		for _, b := range dt.rpoOrder {
			if b == entry {
				continue
			}
			var newIdom *BasicBlock
			for _, p := range b.CFGIn() {
				if _, ok := dt.idom[p.Label.Name]; !ok {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = dt.intersect(newIdom, p)
			}
			if newIdom == nil {
				continue
			}
			if cur, ok := dt.idom[b.Label.Name]; !ok || cur != newIdom {
				dt.idom[b.Label.Name] = newIdom
				changed = true
			}
		}
	}

	for _, b := range dt.rpoOrder {
		idom, ok := dt.idom[b.Label.Name]
		if !ok || idom == b {
			continue
		}
		dt.dominated[idom.Label.Name] = append(dt.dominated[idom.Label.Name], b)
	}

	for _, b := range dt.rpoOrder {
		preds := b.CFGIn()
		if len(preds) < 2 {
			continue
		}
		idomB := dt.idom[b.Label.Name]
		for _, p := range preds {
			if _, ok := dt.idom[p.Label.Name]; !ok {
				continue
			}
			runner := p
			for runner != idomB {
				if dt.frontier[runner.Label.Name] == nil {
					dt.frontier[runner.Label.Name] = map[string]*BasicBlock{}
				}
				dt.frontier[runner.Label.Name][b.Label.Name] = b
				next, ok := dt.idom[runner.Label.Name]
				if !ok || next == runner {
					break
				}
				runner = next
			}
		}
	}

	return dt
}

func (dt *DominatorTree) intersect(a, b *BasicBlock) *BasicBlock {
	for a != b {
		for dt.rpoNumber[a.Label.Name] > dt.rpoNumber[b.Label.Name] {
			a = dt.idom[a.Label.Name]
		}
		for dt.rpoNumber[b.Label.Name] > dt.rpoNumber[a.Label.Name] {
			b = dt.idom[b.Label.Name]
		}
	}
	return a
}

// ImmediateDominator returns bb's idom, or nil if unreachable/entry.
func (dt *DominatorTree) ImmediateDominator(bb *BasicBlock) *BasicBlock {
	idom, ok := dt.idom[bb.Label.Name]
	if !ok || idom == bb {
		return nil
	}
	return idom
}

// Dominates reports whether a dominates b (reflexively: a dominates a).
func (dt *DominatorTree) Dominates(a, b *BasicBlock) bool {
	if a == b {
		return true
	}
	cur := b
	for {
		idom, ok := dt.idom[cur.Label.Name]
		if !ok {
			return false
		}
		if idom == cur {
			return false
		}
		if idom == a {
			return true
		}
		cur = idom
	}
}

// Dominated returns the blocks whose immediate dominator is bb (children of
// bb in the dominator tree).
func (dt *DominatorTree) Dominated(bb *BasicBlock) []*BasicBlock {
	return dt.dominated[bb.Label.Name]
}

// DominanceFrontier returns bb's dominance frontier set.
func (dt *DominatorTree) DominanceFrontier(bb *BasicBlock) []*BasicBlock {
	m := dt.frontier[bb.Label.Name]
	out := make([]*BasicBlock, 0, len(m))
	for _, x := range m {
		out = append(out, x)
	}
	return out
}

// RPOOrder returns blocks in reverse-postorder, used directly by the DFT
// scheduler and by the venom-to-assembly emission walk (spec.md §4.12).
func (dt *DominatorTree) RPOOrder() []*BasicBlock { return dt.rpoOrder }

func reversePostOrder(entry *BasicBlock) []*BasicBlock {
	var post []*BasicBlock
	visited := map[string]bool{}
	var visit func(bb *BasicBlock)
	visit = func(bb *BasicBlock) {
		if visited[bb.Label.Name] {
			return
		}
		visited[bb.Label.Name] = true
		for _, succ := range bb.CFGOut() {
			visit(succ)
		}
		post = append(post, bb)
	}
	visit(entry)
	// reverse post to get RPO
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// RequestDominatorTree is sugar over fn.Cache().Request for callers that
// don't want to construct a zero value themselves.
func RequestDominatorTree(fn *Function) *DominatorTree {
	return fn.Cache().Request(&DominatorTree{}).(*DominatorTree)
}
