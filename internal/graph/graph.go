// Package graph implements the combined dependency/data-reference graph
// shared by static analysis (cycle detection, spec §4.D.6) and execution
// (linearization, spec §4.E): a directed graph over step names with
// deterministic topological ordering, tie-broken by first appearance in
// the description.
package graph

// Graph is a directed graph of step names. Edges point from a dependent
// step to the step it depends on.
type Graph struct {
	nodes []string
	index map[string]int
	deps  map[string]map[string]bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{index: map[string]int{}, deps: map[string]map[string]bool{}}
}

// AddNode registers name if not already present, preserving first-call
// order for the eventual tie-break.
func (g *Graph) AddNode(name string) {
	if _, ok := g.index[name]; ok {
		return
	}
	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, name)
	g.deps[name] = map[string]bool{}
}

// AddEdge records that dependent depends on dependency: dependency must
// be scheduled before dependent.
func (g *Graph) AddEdge(dependent, dependency string) {
	g.AddNode(dependent)
	g.AddNode(dependency)
	if dependent == dependency {
		return
	}
	g.deps[dependent][dependency] = true
}

// Nodes returns every registered node, in first-appearance order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Dependencies returns the direct dependencies of name.
func (g *Graph) Dependencies(name string) []string {
	deps := g.deps[name]
	out := make([]string, 0, len(deps))
	for _, n := range g.nodes {
		if deps[n] {
			out = append(out, n)
		}
	}
	return out
}

// TopoSort computes a topological order over the graph, breaking ties
// between simultaneously-ready nodes by first appearance. If the graph
// contains a cycle, ok is false and remaining holds the nodes that could
// not be ordered (the cyclic component plus anything depending on it).
func (g *Graph) TopoSort() (order []string, remaining []string, ok bool) {
	done := make(map[string]bool, len(g.nodes))
	order = make([]string, 0, len(g.nodes))

	for len(order) < len(g.nodes) {
		progressed := false
		for _, name := range g.nodes {
			if done[name] {
				continue
			}
			if g.isReady(name, done) {
				done[name] = true
				order = append(order, name)
				progressed = true
				break
			}
		}
		if !progressed {
			for _, name := range g.nodes {
				if !done[name] {
					remaining = append(remaining, name)
				}
			}
			return order, remaining, false
		}
	}
	return order, nil, true
}

func (g *Graph) isReady(name string, done map[string]bool) bool {
	for dep := range g.deps[name] {
		if !done[dep] {
			return false
		}
	}
	return true
}
