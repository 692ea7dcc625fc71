// Package tree records the search tree explored by the reachability engine.
package tree

import (
	"fmt"
	"strings"
)

type Tree[T any] struct {
	payload  T
	parent   *Tree[T]
	children []*Tree[T]
	depth    int
}

func New[T any](payload T) *Tree[T] {
	return &Tree[T]{payload: payload}
}

// Number of nodes in the subtree rooted at t
func (t *Tree[T]) Len() int {
	n := 1
	for _, child := range t.children {
		n += child.Len()
	}
	return n
}

// Adds a child holding payload and returns it
func (t *Tree[T]) AddChild(payload T) *Tree[T] {
	child := &Tree[T]{
		payload: payload,
		parent:  t,
		depth:   t.depth + 1,
	}
	t.children = append(t.children, child)
	return child
}

// Returns the first child whose payload satisfies match, or nil
func (t *Tree[T]) FindChild(match func(T) bool) *Tree[T] {
	for _, child := range t.children {
		if match(child.payload) {
			return child
		}
	}
	return nil
}

// Path returns the payloads from the root down to t
func (t *Tree[T]) Path() []T {
	path := make([]T, t.depth+1)
	for node := t; node != nil; node = node.parent {
		path[node.depth] = node.payload
	}
	return path
}

func (t *Tree[T]) Payload() T           { return t.payload }
func (t *Tree[T]) Parent() *Tree[T]     { return t.parent }
func (t *Tree[T]) Children() []*Tree[T] { return t.children }
func (t *Tree[T]) Depth() int           { return t.depth }
func (t *Tree[T]) IsRoot() bool         { return t.parent == nil }
func (t *Tree[T]) IsLeaf() bool         { return len(t.children) == 0 }

// Returns true if search holds for the payload of some node. Nodes are visited depth first.
func (t *Tree[T]) DepthFirstSearch(search func(T) bool) bool {
	if search(t.payload) {
		return true
	}
	for _, child := range t.children {
		if child.DepthFirstSearch(search) {
			return true
		}
	}
	return false
}

func (t *Tree[T]) String() string {
	out := strings.Builder{}
	out.WriteString(strings.Repeat("-", t.depth))
	fmt.Fprintf(&out, "%v\n", t.payload)
	for _, child := range t.children {
		out.WriteString(child.String())
	}
	return out.String()
}

// Newick writes the subtree in Newick format, naming every node with label.
// Quotes inside labels are doubled.
func (t *Tree[T]) Newick(label func(T) string) string {
	out := strings.Builder{}
	t.newick(&out, label)
	out.WriteString(";")
	return out.String()
}

func (t *Tree[T]) newick(out *strings.Builder, label func(T) string) {
	if len(t.children) > 0 {
		out.WriteString("(")
		for i, child := range t.children {
			if i > 0 {
				out.WriteString(",")
			}
			child.newick(out, label)
		}
		out.WriteString(")")
	}
	fmt.Fprintf(out, "'%s'", strings.ReplaceAll(label(t.payload), "'", "''"))
}
