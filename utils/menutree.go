package utils

import (
	"sort"

	"github.com/princinho/sahohr/models"
)

// BuildMenuTree assembles a flat, possibly duplicated menu list into a
// parent→children tree. Input order does not matter: nodes are deduplicated
// by id and siblings are sorted by order index (key as tie-break). A menu
// whose parent is not in the visible set is promoted to a root rather than
// dropped, so a grant on a child without its parent still renders.
func BuildMenuTree(menus []models.Menu) []*models.MenuNode {
	byID := make(map[string]*models.MenuNode, len(menus))
	order := make([]string, 0, len(menus))
	for _, m := range menus {
		id := m.ID.Hex()
		if _, seen := byID[id]; seen {
			continue
		}
		byID[id] = &models.MenuNode{Menu: m, Children: []*models.MenuNode{}}
		order = append(order, id)
	}

	roots := make([]*models.MenuNode, 0, len(order))
	for _, id := range order {
		node := byID[id]
		if node.ParentID != nil {
			if parent, ok := byID[node.ParentID.Hex()]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	var sortSiblings func(nodes []*models.MenuNode)
	sortSiblings = func(nodes []*models.MenuNode) {
		sort.SliceStable(nodes, func(i, j int) bool {
			if nodes[i].OrderIndex != nodes[j].OrderIndex {
				return nodes[i].OrderIndex < nodes[j].OrderIndex
			}
			return nodes[i].Key < nodes[j].Key
		})
		for _, n := range nodes {
			sortSiblings(n.Children)
		}
	}
	sortSiblings(roots)
	return roots
}
