package kleene

import "fmt"

// Regex is a regular expression over string atoms
type Regex interface {
	fmt.Stringer
	precedence() int
}

type (
	empty   struct{}
	epsilon struct{}
	// Atom matches its label
	Atom   string
	alt    struct{ left, right Regex }
	concat struct{ left, right Regex }
	star   struct{ inner Regex }
)

var (
	// Empty matches nothing
	Empty Regex = empty{}
	// Epsilon matches the empty word
	Epsilon Regex = epsilon{}
)

func (empty) String() string   { return "∅" }
func (epsilon) String() string { return "ε" }
func (a Atom) String() string  { return string(a) }
func (r alt) String() string   { return wrap(r.left, 1) + " | " + wrap(r.right, 1) }
func (r concat) String() string {
	return wrap(r.left, 2) + " " + wrap(r.right, 2)
}
func (r star) String() string { return wrap(r.inner, 3) + "*" }

func (empty) precedence() int   { return 4 }
func (epsilon) precedence() int { return 4 }
func (Atom) precedence() int    { return 4 }
func (alt) precedence() int     { return 1 }
func (concat) precedence() int  { return 2 }
func (star) precedence() int    { return 3 }

func wrap(r Regex, min int) string {
	if r.precedence() < min {
		return "(" + r.String() + ")"
	}
	return r.String()
}

// RegexAlgebra builds regular expressions with light simplification
type RegexAlgebra struct{}

func (RegexAlgebra) Zero() Regex { return Empty }
func (RegexAlgebra) One() Regex  { return Epsilon }

func (RegexAlgebra) IsZero(r Regex) bool {
	_, ok := r.(empty)
	return ok
}

func (alg RegexAlgebra) Plus(a, b Regex) Regex {
	switch {
	case alg.IsZero(a):
		return b
	case alg.IsZero(b):
		return a
	case a.String() == b.String():
		return a
	}
	return alt{a, b}
}

func (alg RegexAlgebra) Times(a, b Regex) Regex {
	switch {
	case alg.IsZero(a) || alg.IsZero(b):
		return Empty
	case a == Epsilon:
		return b
	case b == Epsilon:
		return a
	}
	return concat{a, b}
}

func (alg RegexAlgebra) Star(a Regex) Regex {
	switch a.(type) {
	case empty, epsilon:
		return Epsilon
	case star:
		return a
	}
	return star{a}
}
