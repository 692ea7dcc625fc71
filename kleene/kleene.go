// Package kleene converts labelled graphs into closed form expressions of a Kleene algebra.
package kleene

// Algebra is a Kleene algebra over the values of K
type Algebra[K any] interface {
	Zero() K
	One() K
	Plus(a, b K) K
	Times(a, b K) K
	Star(a K) K
	IsZero(a K) bool
}

// Edge is a transition of a non deterministic automaton labelled with an algebra value
type Edge[S comparable, K any] struct {
	From  S
	Label K
	To    S
}

// FromNFA returns the sum over all paths leaving start of the product of their labels.
// Every state is accepting, so the empty path contributes One.
//
// States are eliminated one at a time using Arden's rule, starting with the
// state seen last. The result does not depend on the order of edges up to the
// laws of the algebra.
func FromNFA[S comparable, K any](alg Algebra[K], edges []Edge[S, K], start S) K {
	index := map[S]int{start: 0}
	states := []S{start}
	for _, e := range edges {
		for _, s := range []S{e.From, e.To} {
			if _, ok := index[s]; !ok {
				index[s] = len(states)
				states = append(states, s)
			}
		}
	}

	n := len(states)
	// a[i][j] labels the edges from i to j, b[i] is the language accepted from i
	a := make([][]K, n)
	b := make([]K, n)
	for i := range a {
		a[i] = make([]K, n)
		for j := range a[i] {
			a[i][j] = alg.Zero()
		}
		b[i] = alg.One()
	}
	for _, e := range edges {
		i, j := index[e.From], index[e.To]
		a[i][j] = alg.Plus(a[i][j], e.Label)
	}

	for k := n - 1; k > 0; k-- {
		loop := alg.Star(a[k][k])
		for j := 0; j < k; j++ {
			a[k][j] = alg.Times(loop, a[k][j])
		}
		b[k] = alg.Times(loop, b[k])
		a[k][k] = alg.Zero()
		for i := 0; i < k; i++ {
			if alg.IsZero(a[i][k]) {
				continue
			}
			for j := 0; j < k; j++ {
				a[i][j] = alg.Plus(a[i][j], alg.Times(a[i][k], a[k][j]))
			}
			b[i] = alg.Plus(b[i], alg.Times(a[i][k], b[k]))
			a[i][k] = alg.Zero()
		}
	}
	return alg.Times(alg.Star(a[0][0]), b[0])
}
