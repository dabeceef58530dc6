// Package graph maintains the dependency relationships between installed
// services. It provides cycle detection and topological ordering over
// name-keyed nodes.
package graph

import (
	"fmt"
	"sync"
)

// Graph manages dependency edges between named services. Nodes are keyed by
// their canonical service name; edges point from a dependant to each of its
// dependencies. All operations are safe for concurrent use.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	edges map[string][]string

	// Cached topological order, invalidated on mutation.
	sorted      []string
	sortedDirty bool
}

// Node represents one service in the dependency graph.
type Node struct {
	Name string

	// InDegree counts dependants; OutDegree counts dependencies.
	InDegree  int
	OutDegree int

	Dependencies []string
	Dependents   []string
}

// New creates an empty dependency graph.
func New() *Graph {
	return &Graph{
		nodes:       make(map[string]*Node),
		edges:       make(map[string][]string),
		sortedDirty: true,
	}
}

// Add inserts a node with the given dependencies, creating placeholder
// nodes for dependencies that have not been added themselves yet. If the
// new edges introduce a cycle, the node is rolled back and a
// *CircularDependencyError is returned.
func (g *Graph) Add(name string, dependencies []string) error {
	if name == "" {
		return fmt.Errorf("graph: node name cannot be empty")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	node, exists := g.nodes[name]
	if !exists {
		node = &Node{Name: name}
		g.nodes[name] = node
	}

	previous, hadEdges := g.edges[name]

	deps := make([]string, 0, len(dependencies))
	for _, dep := range dependencies {
		deps = append(deps, dep)
		if _, ok := g.nodes[dep]; !ok {
			g.nodes[dep] = &Node{Name: dep}
		}
	}
	g.edges[name] = deps
	g.updateDegrees()
	g.sortedDirty = true

	if cycle := g.findCycleFrom(name); cycle != nil {
		// Roll back to the previous edge set and drop any placeholder the
		// failed add introduced.
		if hadEdges {
			g.edges[name] = previous
		} else {
			delete(g.edges, name)
		}
		g.updateDegrees()
		g.prunePlaceholders()
		return &CircularDependencyError{Node: name, Path: cycle}
	}

	return nil
}

// Remove deletes a node's declared dependencies. A node that other nodes
// still depend on is demoted to a placeholder, keeping its inbound edges, so
// a later re-add of the same name cannot slip a cycle past detection. Nodes
// nothing references anymore are pruned.
func (g *Graph) Remove(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[name]; !exists {
		return
	}

	delete(g.edges, name)
	g.updateDegrees()
	g.prunePlaceholders()
	g.sortedDirty = true
}

// prunePlaceholders drops placeholder nodes that no remaining edge points
// at. A placeholder is a node that never declared edges of its own; a real
// node with no dependencies keeps an empty edge entry. Callers hold the
// write lock and have already refreshed degrees.
func (g *Graph) prunePlaceholders() {
	for name, node := range g.nodes {
		if node.InDegree != 0 {
			continue
		}
		if _, declared := g.edges[name]; !declared {
			delete(g.nodes, name)
		}
	}
}

// Contains reports whether a node with the given name exists.
func (g *Graph) Contains(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[name]
	return ok
}

// Size returns the number of nodes, including placeholder dependency nodes.
func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Dependents returns the names of nodes that depend on the given node.
func (g *Graph) Dependents(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[name]
	if !ok {
		return nil
	}
	out := make([]string, len(node.Dependents))
	copy(out, node.Dependents)
	return out
}

// Roots returns nodes no other node depends on.
func (g *Graph) Roots() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var roots []string
	for name, node := range g.nodes {
		if node.InDegree == 0 {
			roots = append(roots, name)
		}
	}
	return roots
}

// Leaves returns nodes that depend on nothing.
func (g *Graph) Leaves() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var leaves []string
	for name, node := range g.nodes {
		if node.OutDegree == 0 {
			leaves = append(leaves, name)
		}
	}
	return leaves
}

// IsAcyclic reports whether the graph contains no cycles.
func (g *Graph) IsAcyclic() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for name := range g.nodes {
		if g.findCycleFrom(name) != nil {
			return false
		}
	}
	return true
}

// TopologicalSort returns node names ordered so that every node appears
// after all of its dependencies (dependencies first). The result is cached
// until the graph changes.
func (g *Graph) TopologicalSort() ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.sortedDirty && g.sorted != nil {
		out := make([]string, len(g.sorted))
		copy(out, g.sorted)
		return out, nil
	}

	// Kahn's algorithm over the reversed edges: nodes with no dependencies
	// come first.
	outDegrees := make(map[string]int, len(g.nodes))
	for name, node := range g.nodes {
		outDegrees[name] = node.OutDegree
	}

	queue := make([]string, 0, len(g.nodes))
	for name, degree := range outDegrees {
		if degree == 0 {
			queue = append(queue, name)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)

		for _, dependent := range g.nodes[current].Dependents {
			outDegrees[dependent]--
			if outDegrees[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, fmt.Errorf("graph: circular dependency: %d of %d nodes unsortable",
			len(g.nodes)-len(result), len(g.nodes))
	}

	g.sorted = result
	g.sortedDirty = false

	out := make([]string, len(result))
	copy(out, result)
	return out, nil
}

// updateDegrees recalculates degrees and dependent lists. Callers hold the
// write lock.
func (g *Graph) updateDegrees() {
	for _, node := range g.nodes {
		node.InDegree = 0
		node.OutDegree = 0
		node.Dependencies = nil
		node.Dependents = nil
	}

	for from, tos := range g.edges {
		fromNode, ok := g.nodes[from]
		if !ok {
			continue
		}
		fromNode.OutDegree = len(tos)
		fromNode.Dependencies = append(fromNode.Dependencies, tos...)

		for _, to := range tos {
			if toNode, ok := g.nodes[to]; ok {
				toNode.InDegree++
				toNode.Dependents = append(toNode.Dependents, from)
			}
		}
	}
}

// findCycleFrom runs an iterative DFS from start and returns the cycle path
// if one is reachable, or nil. Callers hold at least the read lock.
func (g *Graph) findCycleFrom(start string) []string {
	type frame struct {
		name     string
		entering bool
	}

	stack := []frame{{name: start, entering: true}}
	visiting := make(map[string]bool)
	visited := make(map[string]bool)
	path := make([]string, 0, 8)

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if !top.entering {
			// Backtracking.
			stack = stack[:len(stack)-1]
			delete(visiting, top.name)
			if len(path) > 0 && path[len(path)-1] == top.name {
				path = path[:len(path)-1]
			}
			visited[top.name] = true
			continue
		}

		if visiting[top.name] {
			// Found a cycle; trim the path to its start.
			for i, n := range path {
				if n == top.name {
					cycle := make([]string, len(path)-i)
					copy(cycle, path[i:])
					return cycle
				}
			}
			return append([]string(nil), top.name)
		}

		if visited[top.name] {
			stack = stack[:len(stack)-1]
			continue
		}

		visiting[top.name] = true
		path = append(path, top.name)
		stack[len(stack)-1].entering = false

		for _, dep := range g.edges[top.name] {
			if !visited[dep] {
				stack = append(stack, frame{name: dep, entering: true})
			}
		}
	}

	return nil
}
