package reachability

import (
	"context"
	"fmt"
	"strconv"

	"nsserial/config"
	"nsserial/petri"
	"nsserial/semilinear"
	"nsserial/tree"
)

// node of the search tree. The root has firing -1.
type node struct {
	marking petri.Marking[string]
	firing  int
	// Number of firings without input places along the path, that is admitted requests
	admitted int
}

type search[T any] struct {
	problem Problem[T]
	limits  config.Engine
	places  []string
	root    *tree.Tree[node]
	// True if some successor was skipped because of a limit
	pruned bool
}

func newSearch[T any](p Problem[T], limits config.Engine) *search[T] {
	return &search[T]{
		problem: p,
		limits:  limits,
		places:  p.Net.Places(),
		root:    tree.New(node{marking: p.Net.InitialMarking(), firing: -1}),
	}
}

func (s *search[T]) quiescent(m petri.Marking[string]) bool {
	for _, z := range s.problem.Zero {
		if m[z] != 0 {
			return false
		}
	}
	return true
}

func (s *search[T]) observed(m petri.Marking[string]) semilinear.Vector {
	v := semilinear.Vector{}
	for _, o := range s.problem.Observable {
		if c := m[o]; c != 0 {
			v[o] = c
		}
	}
	return v
}

// run explores the markings breadth first, so the returned counterexample is a shortest one.
// Returns nil firings if no counterexample exists within the limits.
func (s *search[T]) run(ctx context.Context) ([]T, error) {
	transitions := s.problem.Net.Transitions()
	seen := map[string]bool{s.key(s.root.Payload()): true}
	queue := []*tree.Tree[node]{s.root}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := queue[0]
		queue = queue[1:]
		n := cur.Payload()
		if s.quiescent(n.marking) && !s.problem.Target.Contains(s.observed(n.marking)) {
			var firings []T
			for _, step := range cur.Path()[1:] {
				firings = append(firings, transitions[step.firing].Tag)
			}
			return firings, nil
		}
		if s.limits.MaxDepth > 0 && cur.Depth() >= s.limits.MaxDepth {
			s.pruned = true
			continue
		}
		for i, t := range transitions {
			if !t.EnabledIn(n.marking) {
				continue
			}
			next := node{marking: t.FireIn(n.marking), firing: i, admitted: n.admitted}
			if len(t.Input) == 0 {
				next.admitted++
				if next.admitted > s.limits.MaxRequests {
					s.pruned = true
					continue
				}
			}
			k := s.key(next)
			if seen[k] {
				continue
			}
			seen[k] = true
			queue = append(queue, cur.AddChild(next))
		}
	}
	return nil, nil
}

func (s *search[T]) key(n node) string {
	return n.marking.Key(s.places) + "/" + strconv.Itoa(n.admitted)
}

func (s *search[T]) newick() string {
	transitions := s.problem.Net.Transitions()
	return s.root.Newick(func(n node) string {
		if n.firing < 0 {
			return "initial " + n.marking.String()
		}
		return fmt.Sprintf("%v %v", transitions[n.firing].Tag, n.marking)
	})
}
