package nodegraph

import (
	"fmt"
	"sort"
	"strings"
)

// Order selects how nodes are scheduled within one evaluation.
type Order string

const (
	// OrderDependency evaluates producers before consumers, using
	// declaration order to break ties. Cycles are reported as ErrCycle.
	OrderDependency Order = "dependency"

	// OrderPhased runs all input nodes, then all logic nodes, then all
	// output nodes, each pass in declaration order. A logic node wired
	// to a logic node declared after it reads no value.
	OrderPhased Order = "phased"
)

// ParseOrder maps a user-supplied name to an Order.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case OrderDependency, "":
		return OrderDependency, nil
	case OrderPhased:
		return OrderPhased, nil
	default:
		return "", fmt.Errorf("unknown evaluation order %q (want dependency or phased)", s)
	}
}

// phasedOrder lists node positions input-first, then logic, then output.
// Unknown node types are left out.
func phasedOrder(g *Graph) []int {
	order := make([]int, 0, len(g.Nodes))
	for _, c := range []Category{CategoryInput, CategoryLogic, CategoryOutput} {
		for i, n := range g.Nodes {
			if n.Type.Category() == c {
				order = append(order, i)
			}
		}
	}
	return order
}

// dependencyOrder topologically sorts node positions along edges. Among
// nodes that are ready at the same time the earliest declared goes first,
// so graphs without edges keep declaration order.
//
// Only edges that can carry a value count: the winning inbound edge of a
// handle the target reads, from a handle the source writes. Dangling
// edges never create a dependency, so they cannot form a cycle.
func dependencyOrder(g *Graph, idx *index) ([]int, error) {
	n := len(g.Nodes)
	indegree := make([]int, n)
	next := make([][]int, n)
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.SourceHandle == "" || idx.inbound[handleKey{e.Target, e.TargetHandle}] != e {
			continue
		}
		for _, from := range idx.positions[e.Source] {
			if !g.Nodes[from].Type.Writes(e.SourceHandle) {
				continue
			}
			for _, to := range idx.positions[e.Target] {
				if !g.Nodes[to].Type.Reads(e.TargetHandle) {
					continue
				}
				next[from] = append(next[from], to)
				indegree[to]++
			}
		}
	}

	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)
	for len(ready) > 0 {
		cur := ready[0]
		ready = ready[1:]
		order = append(order, cur)
		for _, to := range next[cur] {
			indegree[to]--
			if indegree[to] == 0 {
				pos := sort.SearchInts(ready, to)
				ready = append(ready, 0)
				copy(ready[pos+1:], ready[pos:])
				ready[pos] = to
			}
		}
	}

	if len(order) < n {
		var stuck []string
		for i := 0; i < n; i++ {
			if indegree[i] > 0 {
				stuck = append(stuck, g.Nodes[i].ID)
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(stuck, ", "))
	}
	return order, nil
}

// Plan returns the node ids in the order an evaluator with the given
// Order would visit them. Useful for tooling and for checking a graph for
// cycles before it is deployed.
func Plan(g *Graph, o Order) ([]string, error) {
	if g == nil {
		return nil, ErrInvalidGraph
	}
	var positions []int
	if o == OrderPhased {
		positions = phasedOrder(g)
	} else {
		var err error
		positions, err = dependencyOrder(g, newIndex(g))
		if err != nil {
			return nil, err
		}
	}
	ids := make([]string, len(positions))
	for i, p := range positions {
		ids[i] = g.Nodes[p].ID
	}
	return ids, nil
}
