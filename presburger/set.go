// Package presburger implements integer sets described by linear arithmetic.
//
// A Set is a finite union of basic sets over an ordered list of named
// dimensions. A basic set is a conjunction of affine equalities and
// non-negativity constraints over the dimensions and a number of
// existentially quantified local variables.
package presburger

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

var (
	// ErrInexact is returned when an operation would need to complement a set
	// whose existential variables cannot be eliminated exactly.
	ErrInexact = errors.New("presburger: set has existential variables that cannot be eliminated exactly")
	// ErrUnknownVariable is returned when a constraint mentions a name that is not a dimension of the set.
	ErrUnknownVariable = errors.New("presburger: unknown variable")
)

// Op is the comparison of a constraint against zero
type Op int

const (
	Eq  Op = iota // expression = 0
	Geq           // expression >= 0
)

func (op Op) String() string {
	if op == Eq {
		return "="
	}
	return ">="
}

// Constraint is Σ Coeffs[name]·name + Const (Op) 0
type Constraint struct {
	Coeffs map[string]int64
	Const  int64
	Op     Op
}

type basic struct {
	locals int
	rows   []row
}

func (b basic) clone() basic {
	return basic{locals: b.locals, rows: cloneRows(b.rows)}
}

type Set struct {
	vars   []string
	basics []basic
}

// Create the set of all integer points over vars
func Universe(vars []string) *Set {
	return &Set{vars: slices.Clone(vars), basics: []basic{{}}}
}

// Create the empty set over vars
func Empty(vars []string) *Set {
	return &Set{vars: slices.Clone(vars)}
}

// Create the set of points over vars satisfying c.
//
// Returns ErrUnknownVariable if c has a non zero coefficient for a name outside vars.
func FromConstraint(vars []string, c Constraint) (*Set, error) {
	r := row{coef: make([]int64, len(vars)), c: c.Const, eq: c.Op == Eq}
	for name, a := range c.Coeffs {
		if a == 0 {
			continue
		}
		i := slices.Index(vars, name)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
		}
		r.coef[i] += a
	}
	return &Set{vars: slices.Clone(vars), basics: []basic{{rows: []row{r}}}}, nil
}

// Vars returns the dimension names of the set in order
func (s *Set) Vars() []string {
	return slices.Clone(s.vars)
}

func (s *Set) mustMatch(o *Set) {
	if !slices.Equal(s.vars, o.vars) {
		panic(fmt.Sprintf("presburger: variable lists differ: %v and %v", s.vars, o.vars))
	}
}

// widen places the locals of r after `before` new zero locals and before `after` new zero locals.
func widen(r row, dims, before, after int) row {
	out := row{coef: make([]int64, 0, len(r.coef)+before+after), c: r.c, eq: r.eq}
	out.coef = append(out.coef, r.coef[:dims]...)
	out.coef = append(out.coef, make([]int64, before)...)
	out.coef = append(out.coef, r.coef[dims:]...)
	out.coef = append(out.coef, make([]int64, after)...)
	return out
}

// Intersect returns the points contained in both sets. Empty pieces are pruned.
func (s *Set) Intersect(o *Set) *Set {
	s.mustMatch(o)
	n := len(s.vars)
	out := Empty(s.vars)
	for _, a := range s.basics {
		for _, b := range o.basics {
			c := basic{locals: a.locals + b.locals}
			for _, r := range a.rows {
				c.rows = append(c.rows, widen(r, n, 0, b.locals))
			}
			for _, r := range b.rows {
				c.rows = append(c.rows, widen(r, n, a.locals, 0))
			}
			if feasible(c.rows) {
				out.basics = append(out.basics, c)
			}
		}
	}
	return out
}

// Union returns the points contained in either set
func (s *Set) Union(o *Set) *Set {
	s.mustMatch(o)
	out := Empty(s.vars)
	for _, b := range s.basics {
		out.basics = append(out.basics, b.clone())
	}
	for _, b := range o.basics {
		out.basics = append(out.basics, b.clone())
	}
	return out
}

// ProjectOut existentially quantifies the named dimension and removes it from the set.
//
// Panics if name is not a dimension of the set.
func (s *Set) ProjectOut(name string) *Set {
	idx := slices.Index(s.vars, name)
	if idx < 0 {
		panic(fmt.Sprintf("presburger: cannot project out %q, not a dimension of %v", name, s.vars))
	}
	n := len(s.vars)
	out := Empty(slices.Delete(slices.Clone(s.vars), idx, idx+1))
	for _, b := range s.basics {
		moved := basic{locals: b.locals + 1}
		for _, r := range b.rows {
			m := row{coef: make([]int64, 0, len(r.coef)), c: r.c, eq: r.eq}
			m.coef = append(m.coef, r.coef[:idx]...)
			m.coef = append(m.coef, r.coef[idx+1:n]...)
			m.coef = append(m.coef, r.coef[idx])
			m.coef = append(m.coef, r.coef[n:]...)
			moved.rows = append(moved.rows, m)
		}
		e, empty, ok := eliminateLocals(moved, n-1)
		switch {
		case ok && empty:
		case ok:
			out.basics = append(out.basics, e)
		default:
			out.basics = append(out.basics, moved)
		}
	}
	return out
}

// IsEmpty reports whether the set has no integer points
func (s *Set) IsEmpty() bool {
	for _, b := range s.basics {
		if feasible(b.rows) {
			return false
		}
	}
	return true
}

// Contains reports whether the point, given in the order of Vars, is in the set
func (s *Set) Contains(point []int64) bool {
	if len(point) != len(s.vars) {
		panic(fmt.Sprintf("presburger: point %v does not match variables %v", point, s.vars))
	}
	n := len(s.vars)
	for _, b := range s.basics {
		rows := make([]row, 0, len(b.rows))
		for _, r := range b.rows {
			fixed := row{coef: slices.Clone(r.coef[n:]), c: r.c, eq: r.eq}
			for i, v := range point {
				fixed.c += r.coef[i] * v
			}
			rows = append(rows, fixed)
		}
		if feasible(rows) {
			return true
		}
	}
	return false
}

// ContainsMap is Contains with the point given by name. Missing names are zero.
func (s *Set) ContainsMap(point map[string]int64) bool {
	p := make([]int64, len(s.vars))
	for i, v := range s.vars {
		p[i] = point[v]
	}
	return s.Contains(p)
}

// Shift returns the preimage of s under the translation x ↦ x + delta,
// that is the points x such that x + delta is in s.
func (s *Set) Shift(delta map[string]int64) *Set {
	for name := range delta {
		if !slices.Contains(s.vars, name) {
			panic(fmt.Sprintf("presburger: cannot shift unknown variable %q", name))
		}
	}
	out := Empty(s.vars)
	for _, b := range s.basics {
		c := b.clone()
		for i := range c.rows {
			for j, v := range s.vars {
				c.rows[i].c += c.rows[i].coef[j] * delta[v]
			}
		}
		out.basics = append(out.basics, c)
	}
	return out
}

// Align embeds the set into a larger, possibly reordered, list of dimensions.
// Dimensions that are new to the set are unconstrained.
//
// Panics if vars does not contain every dimension of s.
func (s *Set) Align(vars []string) *Set {
	pos := make([]int, len(s.vars))
	for i, v := range s.vars {
		pos[i] = slices.Index(vars, v)
		if pos[i] < 0 {
			panic(fmt.Sprintf("presburger: cannot align %v to %v", s.vars, vars))
		}
	}
	n, m := len(s.vars), len(vars)
	out := Empty(vars)
	for _, b := range s.basics {
		c := basic{locals: b.locals}
		for _, r := range b.rows {
			a := row{coef: make([]int64, m+b.locals), c: r.c, eq: r.eq}
			for i := 0; i < n; i++ {
				a.coef[pos[i]] = r.coef[i]
			}
			copy(a.coef[m:], r.coef[n:])
			c.rows = append(c.rows, a)
		}
		out.basics = append(out.basics, c)
	}
	return out
}

// negateRow returns the alternatives of the negation of r, pairwise disjoint
func negateRow(r row) []row {
	if r.eq {
		up := r.clone()
		up.eq = false
		up.c--
		down := r.negated()
		down.eq = false
		down.c--
		return []row{up, down}
	}
	neg := r.negated()
	neg.c--
	return []row{neg}
}

// Subtract returns the points of s that are not in o.
//
// Returns ErrInexact if o has existential variables that cannot be eliminated.
func (s *Set) Subtract(o *Set) (*Set, error) {
	s.mustMatch(o)
	n := len(s.vars)
	var removed []basic
	for _, b := range o.basics {
		e, empty, ok := eliminateLocals(b, n)
		if !ok {
			return nil, ErrInexact
		}
		if empty {
			continue
		}
		removed = append(removed, e)
	}
	out := Empty(s.vars)
	for _, a := range s.basics {
		pieces := []basic{a}
		for _, e := range removed {
			var next []basic
			for _, p := range pieces {
				// A piece disjoint from e is kept whole
				meet := p.clone()
				for _, r := range e.rows {
					meet.rows = append(meet.rows, widen(r, n, 0, p.locals))
				}
				if !feasible(meet.rows) {
					next = append(next, p)
					continue
				}
				// Split p into disjoint parts, the k-th satisfying the first k-1 rows of e and violating row k
				prefix := p.clone()
				for _, r := range e.rows {
					for _, alt := range negateRow(r) {
						q := prefix.clone()
						q.rows = append(q.rows, widen(alt, n, 0, p.locals))
						if feasible(q.rows) {
							next = append(next, q)
						}
					}
					prefix.rows = append(prefix.rows, widen(r, n, 0, p.locals))
				}
			}
			pieces = next
			if len(pieces) == 0 {
				break
			}
		}
		out.basics = append(out.basics, pieces...)
	}
	return out, nil
}

// SubsetOf reports whether every point of s is in o
func (s *Set) SubsetOf(o *Set) (bool, error) {
	d, err := s.Subtract(o)
	if err != nil {
		return false, err
	}
	return d.IsEmpty(), nil
}

// Equal reports whether both sets contain the same points
func (s *Set) Equal(o *Set) (bool, error) {
	if ok, err := s.SubsetOf(o); err != nil || !ok {
		return false, err
	}
	return o.SubsetOf(s)
}

func (s *Set) String() string {
	if len(s.basics) == 0 {
		return fmt.Sprintf("{ [%v] : false }", strings.Join(s.vars, ", "))
	}
	parts := make([]string, len(s.basics))
	for i, b := range s.basics {
		parts[i] = s.basicString(b)
	}
	return strings.Join(parts, " ∪ ")
}

func (s *Set) basicString(b basic) string {
	names := slices.Clone(s.vars)
	var locals []string
	for i := 0; i < b.locals; i++ {
		locals = append(locals, fmt.Sprintf("e%d", i))
	}
	names = append(names, locals...)
	out := strings.Builder{}
	fmt.Fprintf(&out, "{ [%v] : ", strings.Join(s.vars, ", "))
	if len(locals) > 0 {
		fmt.Fprintf(&out, "exists %v: ", strings.Join(locals, ", "))
	}
	if len(b.rows) == 0 {
		out.WriteString("true")
	}
	for i, r := range b.rows {
		if i > 0 {
			out.WriteString(" and ")
		}
		out.WriteString(rowString(r, names))
	}
	out.WriteString(" }")
	return out.String()
}

func rowString(r row, names []string) string {
	out := strings.Builder{}
	for i, a := range r.coef {
		if a == 0 {
			continue
		}
		switch {
		case out.Len() == 0 && a == -1:
			out.WriteString("-")
		case out.Len() == 0:
			if a != 1 {
				fmt.Fprintf(&out, "%d", a)
			}
		case a < 0:
			out.WriteString(" - ")
			if a != -1 {
				fmt.Fprintf(&out, "%d", -a)
			}
		default:
			out.WriteString(" + ")
			if a != 1 {
				fmt.Fprintf(&out, "%d", a)
			}
		}
		out.WriteString(names[i])
	}
	switch {
	case out.Len() == 0:
		fmt.Fprintf(&out, "%d", r.c)
	case r.c > 0:
		fmt.Fprintf(&out, " + %d", r.c)
	case r.c < 0:
		fmt.Fprintf(&out, " - %d", -r.c)
	}
	if r.eq {
		out.WriteString(" = 0")
	} else {
		out.WriteString(" >= 0")
	}
	return out.String()
}
