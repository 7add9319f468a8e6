// Package tree arma la jerarquía de categorías a partir de una lista plana.
package tree

import (
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"jewelry-catalog/internal/models"
)

// BuildTree convierte una lista plana en un árbol usando parent_id.
// Las raíces son las categorías sin padre; los nodos cuyo padre no está en la
// lista quedan fuera.
func BuildTree(categories []models.Category) []*models.CategoryNode {
	byParent := make(map[primitive.ObjectID][]*models.CategoryNode)
	roots := make([]*models.CategoryNode, 0)

	for _, c := range categories {
		node := &models.CategoryNode{Category: c, Children: []*models.CategoryNode{}}
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		byParent[*c.ParentID] = append(byParent[*c.ParentID], node)
	}

	attach(roots, byParent)
	return roots
}

func attach(level []*models.CategoryNode, byParent map[primitive.ObjectID][]*models.CategoryNode) {
	sortByName(level)
	for _, node := range level {
		children, ok := byParent[node.ID]
		if !ok {
			continue
		}
		// cada id se consume una vez: ids duplicados no pueden colgar el mismo subárbol dos veces
		delete(byParent, node.ID)
		node.Children = children
		attach(children, byParent)
	}
}

func sortByName(nodes []*models.CategoryNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := strings.ToLower(nodes[i].Name), strings.ToLower(nodes[j].Name)
		if a != b {
			return a < b
		}
		return nodes[i].Slug < nodes[j].Slug
	})
}

// Count devuelve el número total de nodos del árbol
func Count(nodes []*models.CategoryNode) int {
	n := 0
	for _, node := range nodes {
		n += 1 + Count(node.Children)
	}
	return n
}
