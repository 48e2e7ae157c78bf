package network

import (
	"sort"

	"github.com/google/uuid"
)

// OrgNode is one node of the organization forest.
type OrgNode struct {
	Entity   Entity     `json:"entity"`
	Depth    int        `json:"depth"`
	Children []*OrgNode `json:"children"`
}

// CountNodes returns the number of nodes in the subtree rooted at n.
func (n *OrgNode) CountNodes() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.CountNodes()
	}
	return total
}

// Edge is a parent -> child pair taken from an active relationship.
type Edge struct {
	ParentID uuid.UUID
	ChildID  uuid.UUID
}

// ForestResult carries the forest and whether a guard cut traversal short.
type ForestResult struct {
	Roots     []*OrgNode `json:"roots"`
	Truncated bool       `json:"truncated"`
}

// BuildForest assembles the organization forest from entities and active edges.
// Roots are entities that no edge points at. Every descent is bounded by
// maxDepth and a visited set, so corrupted (cyclic) edge sets still terminate;
// entities only reachable through a cycle are left out of the forest.
func BuildForest(entities []Entity, edges []Edge, maxDepth int) ForestResult {
	byID := make(map[uuid.UUID]Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}

	children := make(map[uuid.UUID][]uuid.UUID)
	hasParent := make(map[uuid.UUID]bool)
	for _, e := range edges {
		// an edge to a parent outside the store leaves the child a root
		if _, ok := byID[e.ParentID]; !ok {
			continue
		}
		children[e.ParentID] = append(children[e.ParentID], e.ChildID)
		hasParent[e.ChildID] = true
	}
	for id := range children {
		sort.Slice(children[id], func(i, j int) bool {
			return byID[children[id][i]].Name < byID[children[id][j]].Name
		})
	}

	result := ForestResult{}
	visited := make(map[uuid.UUID]bool, len(entities))

	var descend func(id uuid.UUID, depth int) *OrgNode
	descend = func(id uuid.UUID, depth int) *OrgNode {
		visited[id] = true
		node := &OrgNode{Entity: byID[id], Depth: depth, Children: []*OrgNode{}}
		if depth >= maxDepth {
			if len(children[id]) > 0 {
				result.Truncated = true
			}
			return node
		}
		for _, childID := range children[id] {
			if visited[childID] {
				result.Truncated = true
				continue
			}
			if _, ok := byID[childID]; !ok {
				continue
			}
			node.Children = append(node.Children, descend(childID, depth+1))
		}
		return node
	}

	for _, e := range entities {
		if hasParent[e.ID] || visited[e.ID] {
			continue
		}
		result.Roots = append(result.Roots, descend(e.ID, 0))
	}
	if len(visited) < len(byID) {
		result.Truncated = true
	}
	if result.Roots == nil {
		result.Roots = []*OrgNode{}
	}
	return result
}
