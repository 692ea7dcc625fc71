package tree

import (
	"testing"

	"golang.org/x/exp/slices"
)

func TestTreeAddChild(t *testing.T) {
	root := New("root")
	root.AddChild("a")
	b := root.AddChild("b")
	leaf := b.AddChild("b1")

	if !root.IsRoot() {
		t.Fatalf("Tree should be root node")
	}
	if root.Len() != 4 {
		t.Fatalf("Added four elements to the tree. Has length: %v", root.Len())
	}
	if len(root.Children()) != 2 {
		t.Fatalf("Added two children to the tree. Got: %v", len(root.Children()))
	}
	if b.IsRoot() || b.IsLeaf() {
		t.Fatalf("b is an inner node")
	}
	if leaf.Depth() != 2 {
		t.Fatalf("Expected depth 2, got %v", leaf.Depth())
	}
	if !root.DepthFirstSearch(func(s string) bool { return s == "b1" }) {
		t.Fatalf("b1 should be found by a depth first search")
	}
	if root.FindChild(func(s string) bool { return s == "b" }) != b {
		t.Fatalf("FindChild should return the node holding b")
	}
	if root.FindChild(func(s string) bool { return s == "b1" }) != nil {
		t.Fatalf("b1 is not a direct child of the root")
	}
}

func TestPath(t *testing.T) {
	root := New(0)
	node := root.AddChild(1).AddChild(2).AddChild(3)
	if got := node.Path(); !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("Expected path [0 1 2 3], got %v", got)
	}
	if got := root.Path(); !slices.Equal(got, []int{0}) {
		t.Errorf("Expected path [0], got %v", got)
	}
}

func TestNewick(t *testing.T) {
	root := New("r")
	root.AddChild("a")
	b := root.AddChild("it's")
	b.AddChild("c")
	tests := []struct {
		tree *Tree[string]
		want string
	}{
		{root, "('a',('c')'it''s')'r';"},
		{b, "('c')'it''s';"},
		{New("x"), "'x';"},
	}
	for _, test := range tests {
		if got := test.tree.Newick(func(s string) string { return s }); got != test.want {
			t.Errorf("Expected %q, got %q", test.want, got)
		}
	}
}

func TestString(t *testing.T) {
	root := New("r")
	root.AddChild("a").AddChild("b")
	if got := root.String(); got != "r\n-a\n--b\n" {
		t.Errorf("Unexpected rendering %q", got)
	}
}
