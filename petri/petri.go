// Package petri implements place/transition nets with multiset arcs.
package petri

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/exp/slices"
)

// Transition consumes Input and produces Output. Both are multisets given as lists.
// Tag records what the transition stands for.
type Transition[P comparable, T any] struct {
	Input  []P
	Output []P
	Tag    T
}

// Delta returns the change in token count caused by firing t. Places left unchanged are omitted.
func (t Transition[P, T]) Delta() map[P]int64 {
	delta := make(map[P]int64)
	for _, p := range t.Input {
		delta[p]--
	}
	for _, p := range t.Output {
		delta[p]++
	}
	for p, d := range delta {
		if d == 0 {
			delete(delta, p)
		}
	}
	return delta
}

// Pre returns the number of tokens t needs in each of its input places
func (t Transition[P, T]) Pre() map[P]int64 {
	pre := make(map[P]int64)
	for _, p := range t.Input {
		pre[p]++
	}
	return pre
}

func (t Transition[P, T]) String() string {
	return fmt.Sprintf("%v: %v -> %v", t.Tag, t.Input, t.Output)
}

type Net[P comparable, T any] struct {
	initial     []P
	transitions []Transition[P, T]
}

// Create a net whose initial marking holds one token per occurrence of a place in initial
func New[P comparable, T any](initial ...P) *Net[P, T] {
	return &Net[P, T]{initial: slices.Clone(initial)}
}

func (n *Net[P, T]) AddTransition(input, output []P, tag T) {
	n.transitions = append(n.transitions, Transition[P, T]{
		Input:  slices.Clone(input),
		Output: slices.Clone(output),
		Tag:    tag,
	})
}

func (n *Net[P, T]) Transitions() []Transition[P, T] {
	return n.transitions
}

func (n *Net[P, T]) InitialMarking() Marking[P] {
	m := Marking[P]{}
	for _, p := range n.initial {
		m[p]++
	}
	return m
}

// Places returns every place of the net in order of first appearance:
// the initial marking first, then the arcs of each transition.
func (n *Net[P, T]) Places() []P {
	var places []P
	add := func(ps []P) {
		for _, p := range ps {
			if !slices.Contains(places, p) {
				places = append(places, p)
			}
		}
	}
	add(n.initial)
	for _, t := range n.transitions {
		add(t.Input)
		add(t.Output)
	}
	return places
}

// Rename maps every place of n through f
func Rename[P, Q comparable, T any](n *Net[P, T], f func(P) Q) *Net[Q, T] {
	mapAll := func(ps []P) []Q {
		out := make([]Q, len(ps))
		for i, p := range ps {
			out[i] = f(p)
		}
		return out
	}
	renamed := New[Q, T](mapAll(n.initial)...)
	for _, t := range n.transitions {
		renamed.AddTransition(mapAll(t.Input), mapAll(t.Output), t.Tag)
	}
	return renamed
}

// LivePlaces over-approximates the places that can ever hold a token.
// A place outside the result is empty in every reachable marking.
func (n *Net[P, T]) LivePlaces() mapset.Set[P] {
	live := mapset.NewThreadUnsafeSet(n.initial...)
	for changed := true; changed; {
		changed = false
		for _, t := range n.transitions {
			if !live.Contains(t.Input...) {
				continue
			}
			for _, p := range t.Output {
				if live.Add(p) {
					changed = true
				}
			}
		}
	}
	return live
}

// Marking maps places to token counts. Missing places hold no tokens.
type Marking[P comparable] map[P]int64

func (m Marking[P]) Clone() Marking[P] {
	out := make(Marking[P], len(m))
	for p, c := range m {
		out[p] = c
	}
	return out
}

func enabled[P comparable](m Marking[P], input []P) bool {
	need := make(map[P]int64)
	for _, p := range input {
		need[p]++
		if m[p] < need[p] {
			return false
		}
	}
	return true
}

// EnabledIn reports whether t can fire in m
func (t Transition[P, T]) EnabledIn(m Marking[P]) bool {
	return enabled(m, t.Input)
}

// FireIn returns the marking reached by firing t in m. The caller checks EnabledIn first.
func (t Transition[P, T]) FireIn(m Marking[P]) Marking[P] {
	out := m.Clone()
	for _, p := range t.Input {
		out[p]--
		if out[p] == 0 {
			delete(out, p)
		}
	}
	for _, p := range t.Output {
		out[p]++
	}
	return out
}

// Vector lists the token counts of places in order
func (m Marking[P]) Vector(places []P) []int64 {
	out := make([]int64, len(places))
	for i, p := range places {
		out[i] = m[p]
	}
	return out
}

// Key is a canonical encoding of m relative to the ordered places
func (m Marking[P]) Key(places []P) string {
	out := strings.Builder{}
	for i, c := range m.Vector(places) {
		if i > 0 {
			out.WriteByte(',')
		}
		fmt.Fprint(&out, c)
	}
	return out.String()
}

func (m Marking[P]) String() string {
	parts := make([]string, 0, len(m))
	for p, c := range m {
		parts = append(parts, fmt.Sprintf("%v: %d", p, c))
	}
	slices.Sort(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}
