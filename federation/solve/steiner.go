package solve

import (
	"container/heap"
	"sort"
)

const infinity = int(^uint(0) >> 1)

// Tree is a solved solution subtree: every node reachable is marked
// Included, and Chosen records, for each terminal group (keyed by its
// QueryFieldNode), which single alternative was selected to satisfy it.
type Tree struct {
	Included map[NodeID]bool
	Chosen   map[NodeID]NodeID
	Cost     int
}

// pqItem is a priority-queue entry for the Dijkstra core below, mirroring
// the teacher's weighted_graph.go dijkstraItem/dijkstraPQ shape.
type pqItem struct {
	node  NodeID
	cost  int
	index int
}

type nodePQ []*pqItem

func (pq nodePQ) Len() int           { return len(pq) }
func (pq nodePQ) Less(i, j int) bool { return pq[i].cost < pq[j].cost }
func (pq nodePQ) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}
func (pq *nodePQ) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *nodePQ) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// dijkstraFromTree computes shortest-path distances from every node
// currently in the tree (treated as a multi-source frontier at cost 0) to
// every other node in space, recomputed fresh each call. This realizes the
// spec's "recompute shortest paths given the current tree" step without
// the incremental-update optimization: each round is a full Dijkstra run
// rather than a partial recomputation limited to descendants of nodes
// whose distance decreased.
func dijkstraFromTree(space *Space, inTree map[NodeID]bool) (dist map[NodeID]int, prev map[NodeID]NodeID) {
	dist = make(map[NodeID]int, len(space.Nodes))
	prev = make(map[NodeID]NodeID, len(space.Nodes))
	for i := range space.Nodes {
		dist[NodeID(i)] = infinity
	}

	pq := &nodePQ{}
	heap.Init(pq)
	for id, in := range inTree {
		if in {
			dist[id] = 0
			heap.Push(pq, &pqItem{node: id, cost: 0})
		}
	}

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		if item.cost > dist[item.node] {
			continue
		}
		for _, e := range space.Out[item.node] {
			next := dist[item.node] + e.Cost
			if next < dist[e.To] {
				dist[e.To] = next
				prev[e.To] = item.node
				heap.Push(pq, &pqItem{node: e.To, cost: next})
			}
		}
	}
	return dist, prev
}

func edgeCost(space *Space, from, to NodeID) int {
	for _, e := range space.Out[from] {
		if e.To == to {
			return e.Cost
		}
	}
	return 0
}

// splicePath walks back from node to the nearest ancestor already in
// inTree, marking every node on the way as included, and returns the total
// edge cost added.
func splicePath(space *Space, prev map[NodeID]NodeID, node NodeID, inTree map[NodeID]bool) int {
	added := 0
	for cur := node; !inTree[cur]; {
		inTree[cur] = true
		p, ok := prev[cur]
		if !ok {
			break
		}
		added += edgeCost(space, p, cur)
		cur = p
	}
	return added
}

// Solve runs the incremental shortest-path Steiner-tree construction of
// spec §4.4: repeatedly recompute distances from the current tree, pick
// the unsatisfied terminal group whose cheapest member is closest, splice
// its path in, and repeat until every group has exactly one member
// included. Every query field built by Build() has a non-empty terminal
// group (Build already ran the 4.3 recovery cascade for any field that had
// none), so failure here can only mean a group's every member turned out
// unreachable from the root despite the space builder admitting it, which
// cannot happen for a space produced by Build — Solve returns an error in
// that case rather than panicking, so a future bug surfaces as a normal
// error instead of a crash.
func Solve(space *Space) (*Tree, error) {
	inTree := map[NodeID]bool{space.Root: true}
	chosen := make(map[NodeID]NodeID, len(space.Terminals))
	satisfied := make(map[NodeID]bool, len(space.Terminals))

	groups := make([]NodeID, 0, len(space.Terminals))
	for g := range space.Terminals {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })

	totalCost := 0
	remaining := len(groups)

	for remaining > 0 {
		dist, prev := dijkstraFromTree(space, inTree)

		bestGroup := NoNode
		bestNode := NoNode
		bestCost := infinity

		for _, g := range groups {
			if satisfied[g] {
				continue
			}
			alts := append([]NodeID(nil), space.Terminals[g]...)
			sort.Slice(alts, func(i, j int) bool { return alts[i] < alts[j] })
			for _, alt := range alts {
				c := dist[alt]
				if c < bestCost {
					bestCost = c
					bestGroup = g
					bestNode = alt
				}
			}
		}

		if bestGroup == NoNode {
			return nil, &BuildError{Message: "Steiner solve: remaining terminal groups are unreachable from root"}
		}

		totalCost += splicePath(space, prev, bestNode, inTree)
		chosen[bestGroup] = bestNode
		satisfied[bestGroup] = true
		remaining--
	}

	return &Tree{Included: inTree, Chosen: chosen, Cost: totalCost}, nil
}

// ExtraEdge is a speculative zero-cost edge considered by EstimateExtraCost
// without being permanently added to the space.
type ExtraEdge struct {
	From NodeID
	To   NodeID
}

// EstimateExtraCost clones tree's inclusion state, applies zeroCostEdges
// and grows the clone to cover extraTerminals, and returns the added cost.
// It never mutates space or tree: any edges appended to space.Out during
// the estimate are truncated back off before returning, so the real
// solver state is byte-identical to before the call.
func EstimateExtraCost(space *Space, tree *Tree, zeroCostEdges []ExtraEdge, extraTerminals []NodeID) (int, error) {
	originalLens := make([]int, len(space.Out))
	for i := range space.Out {
		originalLens[i] = len(space.Out[i])
	}
	defer func() {
		for i := range space.Out {
			space.Out[i] = space.Out[i][:originalLens[i]]
		}
	}()

	for _, e := range zeroCostEdges {
		space.addEdge(e.From, Edge{To: e.To, Kind: AlternativeEdge, Cost: 0})
	}

	included := make(map[NodeID]bool, len(tree.Included))
	for k, v := range tree.Included {
		included[k] = v
	}

	added := 0
	for _, term := range extraTerminals {
		if included[term] {
			continue
		}
		dist, prev := dijkstraFromTree(space, included)
		if dist[term] >= infinity {
			return 0, &BuildError{Message: "estimate_extra_cost: a requested terminal is unreachable"}
		}
		added += splicePath(space, prev, term, included)
	}
	return added, nil
}
