// Package semilinear implements semilinear sets of non negative integer
// vectors over named dimensions, and the Kleene algebra they form under
// union and Minkowski sum.
package semilinear

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"nsserial/proof"
)

var ErrUnknownDimension = errors.New("semilinear: dimension is not in the variable list")

// Vector is a sparse vector. Missing dimensions are zero.
type Vector map[string]int64

// Unit returns the vector that is one in dim and zero elsewhere
func Unit(dim string) Vector {
	return Vector{dim: 1}
}

func (v Vector) Add(o Vector) Vector {
	out := make(Vector, len(v)+len(o))
	for d, c := range v {
		out[d] += c
	}
	for d, c := range o {
		out[d] += c
	}
	return out.compact()
}

func (v Vector) Sub(o Vector) Vector {
	out := maps.Clone(v)
	if out == nil {
		out = Vector{}
	}
	for d, c := range o {
		out[d] -= c
	}
	return out.compact()
}

func (v Vector) compact() Vector {
	for d, c := range v {
		if c == 0 {
			delete(v, d)
		}
	}
	return v
}

func (v Vector) IsZero() bool {
	for _, c := range v {
		if c != 0 {
			return false
		}
	}
	return true
}

func (v Vector) nonNegative() bool {
	for _, c := range v {
		if c < 0 {
			return false
		}
	}
	return true
}

func (v Vector) dims() []string {
	dims := maps.Keys(v)
	slices.Sort(dims)
	return dims
}

func (v Vector) String() string {
	parts := []string{}
	for _, d := range v.dims() {
		if v[d] != 0 {
			parts = append(parts, fmt.Sprintf("%v: %d", d, v[d]))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Linear is the set { Base + Σ n_i·Periods[i] | n_i >= 0 }
type Linear struct {
	Base    Vector
	Periods []Vector
}

func (l Linear) normalize() Linear {
	out := Linear{Base: maps.Clone(l.Base)}
	if out.Base == nil {
		out.Base = Vector{}
	}
	out.Base.compact()
	seen := map[string]bool{}
	for _, p := range l.Periods {
		p = maps.Clone(p).compact()
		if p.IsZero() || seen[p.String()] {
			continue
		}
		seen[p.String()] = true
		out.Periods = append(out.Periods, p)
	}
	slices.SortFunc(out.Periods, func(a, b Vector) int { return strings.Compare(a.String(), b.String()) })
	return out
}

func (l Linear) String() string {
	if len(l.Periods) == 0 {
		return l.Base.String()
	}
	periods := make([]string, len(l.Periods))
	for i, p := range l.Periods {
		periods[i] = p.String()
	}
	return fmt.Sprintf("%v + <%v>", l.Base, strings.Join(periods, ", "))
}

// Contains reports whether v is in the linear set. Periods are assumed non negative.
func (l Linear) Contains(v Vector) bool {
	rest := v.Sub(l.Base)
	if !rest.nonNegative() {
		return false
	}
	return combination(rest, l.Periods)
}

func combination(rest Vector, periods []Vector) bool {
	if rest.IsZero() {
		return true
	}
	if len(periods) == 0 {
		return false
	}
	p := periods[0]
	for rest.nonNegative() {
		if combination(rest, periods[1:]) {
			return true
		}
		if p.IsZero() {
			return false
		}
		rest = rest.Sub(p)
	}
	return false
}

// Set is a finite union of linear sets
type Set struct {
	Components []Linear
}

// Empty returns the set with no vectors
func Empty() Set {
	return Set{}
}

// Zero returns the set containing only the zero vector
func Zero() Set {
	return Singleton(Vector{})
}

func Singleton(v Vector) Set {
	return Set{Components: []Linear{{Base: v}}}.normalize()
}

// Atom returns the set containing the unit vector of dim
func Atom(dim string) Set {
	return Singleton(Unit(dim))
}

func (s Set) normalize() Set {
	out := Set{}
	seen := map[string]bool{}
	for _, c := range s.Components {
		c = c.normalize()
		if seen[c.String()] {
			continue
		}
		seen[c.String()] = true
		out.Components = append(out.Components, c)
	}
	slices.SortFunc(out.Components, func(a, b Linear) int { return strings.Compare(a.String(), b.String()) })
	return out
}

func (s Set) IsEmpty() bool {
	return len(s.Components) == 0
}

func (s Set) Union(o Set) Set {
	return Set{Components: append(slices.Clone(s.Components), o.Components...)}.normalize()
}

// Sum returns the Minkowski sum { a + b | a in s, b in o }
func (s Set) Sum(o Set) Set {
	out := Set{}
	for _, a := range s.Components {
		for _, b := range o.Components {
			out.Components = append(out.Components, Linear{
				Base:    a.Base.Add(b.Base),
				Periods: append(slices.Clone(a.Periods), b.Periods...),
			})
		}
	}
	return out.normalize()
}

// Star returns the sums of any number of elements of s
func (s Set) Star() Set {
	out := Zero()
	for _, c := range s.Components {
		var star Set
		if c.Base.IsZero() {
			star = Set{Components: []Linear{c}}
		} else {
			star = Set{Components: []Linear{
				{Base: Vector{}},
				{Base: c.Base, Periods: append(slices.Clone(c.Periods), c.Base)},
			}}
		}
		out = out.Sum(star)
	}
	return out.normalize()
}

func (s Set) Contains(v Vector) bool {
	for _, c := range s.Components {
		if c.Contains(v) {
			return true
		}
	}
	return false
}

// Dims returns the sorted dimensions mentioned by the set
func (s Set) Dims() []string {
	seen := map[string]bool{}
	for _, c := range s.Components {
		for d := range c.Base {
			seen[d] = true
		}
		for _, p := range c.Periods {
			for d := range p {
				seen[d] = true
			}
		}
	}
	dims := maps.Keys(seen)
	slices.Sort(dims)
	return dims
}

func (s Set) String() string {
	if s.IsEmpty() {
		return "∅"
	}
	parts := make([]string, len(s.Components))
	for i, c := range s.Components {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ∪ ")
}

// Formula describes the set over vars. Dimensions in vars not mentioned by the
// set are required to be zero.
//
// Returns ErrUnknownDimension if the set mentions a dimension outside vars.
func (s Set) Formula(vars []string) (proof.Formula[string], error) {
	for _, d := range s.Dims() {
		if !slices.Contains(vars, d) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, d)
		}
	}
	var components []proof.Formula[string]
	for _, c := range s.Components {
		var args []proof.Formula[string]
		for i := range c.Periods {
			args = append(args, proof.NewAtom(proof.BoundVariable[string](i), proof.Geq))
		}
		for _, v := range vars {
			expr := proof.Variable(v).Add(proof.Const[string](-c.Base[v]))
			for i, p := range c.Periods {
				expr = expr.Sub(proof.BoundVariable[string](i).Scale(p[v]))
			}
			args = append(args, proof.NewAtom(expr, proof.Eq))
		}
		var f proof.Formula[string] = proof.And[string]{Args: args}
		for i := len(c.Periods) - 1; i >= 0; i-- {
			f = proof.Exists[string]{Index: i, Body: f}
		}
		components = append(components, f)
	}
	return proof.Or[string]{Args: components}, nil
}

// Algebra is the Kleene algebra of semilinear sets
type Algebra struct{}

func (Algebra) Zero() Set          { return Empty() }
func (Algebra) One() Set           { return Zero() }
func (Algebra) Plus(a, b Set) Set  { return a.Union(b) }
func (Algebra) Times(a, b Set) Set { return a.Sum(b) }
func (Algebra) Star(a Set) Set     { return a.Star() }
func (Algebra) IsZero(a Set) bool  { return a.IsEmpty() }
