package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/conventions/internal/ir"
)

// CycleWarning reports a cycle of required relationships.
//
// Such cycles are warnings, not errors: the model builds, but no row of
// any entity on the cycle can be inserted before another one exists.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["Order", "Invoice", "Order"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning"
}

// AnalyzeCycles finds cycles of required or owned relationships.
//
// The algorithm:
//  1. Build dependent → principal edges from required relationships
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// Nodes are visited in name order so the warnings are deterministic.
func AnalyzeCycles(spec *ir.ModelSpec) []CycleWarning {
	graph := make(dependencyGraph)
	for _, es := range spec.Entities {
		if graph[es.Name] == nil {
			graph[es.Name] = []string{}
		}
		for _, rs := range es.Relationships {
			if rs.Required || rs.Owned {
				graph[es.Name] = append(graph[es.Name], rs.Target)
			}
		}
	}

	warnings := []CycleWarning{}
	for _, scc := range graph.cycles() {
		path := reconstructCyclePath(scc, graph)
		warnings = append(warnings, CycleWarning{
			Path:    path,
			Message: fmt.Sprintf("required relationships form a cycle: %s", strings.Join(path, " → ")),
			Level:   "warning",
		})
	}
	return warnings
}

// inheritanceCycles returns every cycle of base types as a closed path.
func inheritanceCycles(spec *ir.ModelSpec) [][]string {
	graph := make(dependencyGraph)
	for _, es := range spec.Entities {
		graph[es.Name] = []string{}
		if es.Base != "" {
			graph[es.Name] = append(graph[es.Name], es.Base)
		}
	}

	var out [][]string
	for _, scc := range graph.cycles() {
		out = append(out, reconstructCyclePath(scc, graph))
	}
	return out
}

// dependencyGraph maps an entity to the entities it depends on.
type dependencyGraph map[string][]string

// cycles returns the SCCs that are cycles: more than one node, or one node
// with a self-loop. Each SCC starts at its smallest name.
func (g dependencyGraph) cycles() [][]string {
	var out [][]string
	for _, scc := range tarjanSCC(g) {
		if len(scc) > 1 || g.hasSelfLoop(scc[0]) {
			slices.Sort(scc)
			out = append(out, scc)
		}
	}
	slices.SortFunc(out, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	return out
}

func (g dependencyGraph) hasSelfLoop(node string) bool {
	return slices.Contains(g[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// reconstructCyclePath walks edges inside the SCC from its first node until
// it returns there. A self-loop yields [node, node].
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
