package utils

import (
	"encoding/json"
	"math/rand"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/princinho/sahohr/models"
)

func menu(id bson.ObjectID, key string, parent *bson.ObjectID, order int) models.Menu {
	return models.Menu{
		ID:         id,
		Key:        key,
		Name:       key,
		Route:      "/" + key,
		ParentID:   parent,
		OrderIndex: order,
		IsActive:   true,
	}
}

func sampleMenus() []models.Menu {
	root1 := bson.NewObjectID()
	root2 := bson.NewObjectID()
	child1 := bson.NewObjectID()
	child2 := bson.NewObjectID()
	grandchild := bson.NewObjectID()

	return []models.Menu{
		menu(root1, "dashboard", nil, 0),
		menu(root2, "settings", nil, 1),
		menu(child1, "roles", &root2, 0),
		menu(child2, "menus", &root2, 1),
		menu(grandchild, "grants", &child1, 0),
	}
}

func treeKeys(nodes []*models.MenuNode) []string {
	keys := make([]string, 0, len(nodes))
	for _, n := range nodes {
		keys = append(keys, n.Key)
	}
	return keys
}

func TestBuildMenuTreeNesting(t *testing.T) {
	tree := BuildMenuTree(sampleMenus())

	if got := treeKeys(tree); len(got) != 2 || got[0] != "dashboard" || got[1] != "settings" {
		t.Fatalf("roots = %v, want [dashboard settings]", got)
	}
	settings := tree[1]
	if got := treeKeys(settings.Children); len(got) != 2 || got[0] != "roles" || got[1] != "menus" {
		t.Fatalf("settings children = %v, want [roles menus]", got)
	}
	roles := settings.Children[0]
	if got := treeKeys(roles.Children); len(got) != 1 || got[0] != "grants" {
		t.Fatalf("roles children = %v, want [grants]", got)
	}
}

func TestBuildMenuTreeOrderInvariant(t *testing.T) {
	menus := sampleMenus()

	want, err := json.Marshal(BuildMenuTree(menus))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]models.Menu, len(menus))
		copy(shuffled, menus)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got, err := json.Marshal(BuildMenuTree(shuffled))
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(got) != string(want) {
			t.Fatalf("permutation %d produced a different tree", i)
		}
	}
}

func TestBuildMenuTreeDeduplicates(t *testing.T) {
	menus := sampleMenus()
	// A menu granted through two different role rows shows up twice.
	doubled := append(append([]models.Menu{}, menus...), menus[0], menus[2])

	tree := BuildMenuTree(doubled)
	if len(tree) != 2 {
		t.Fatalf("roots = %d, want 2", len(tree))
	}
	if len(tree[1].Children) != 2 {
		t.Fatalf("settings children = %d, want 2", len(tree[1].Children))
	}
}

func TestBuildMenuTreePromotesOrphans(t *testing.T) {
	missingParent := bson.NewObjectID()
	orphan := menu(bson.NewObjectID(), "payroll", &missingParent, 0)

	tree := BuildMenuTree([]models.Menu{orphan})
	if len(tree) != 1 || tree[0].Key != "payroll" {
		t.Fatalf("orphan not promoted to root: %v", treeKeys(tree))
	}
}

func TestBuildMenuTreeEmpty(t *testing.T) {
	if tree := BuildMenuTree(nil); len(tree) != 0 {
		t.Fatalf("empty input produced %d roots", len(tree))
	}
}
