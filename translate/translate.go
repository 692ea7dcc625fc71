// Package translate compiles proof formulas into Presburger sets.
//
// A Translator memoizes every sub-formula it compiles, keyed by the canonical
// structure of the formula and the ordered variable mapping. A Translator is not
// safe for concurrent use; concurrent workers each own one.
package translate

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"nsserial/presburger"
	"nsserial/proof"
)

// ErrUnboundVariable is returned when a quantified variable occurs outside of its quantifier
var ErrUnboundVariable = errors.New("translate: quantified variable outside of its quantifier")

type Translator struct {
	cache map[string]*presburger.Set
}

func New() *Translator {
	return &Translator{cache: make(map[string]*presburger.Set)}
}

// Remove all memoized results
func (t *Translator) ClearCache() {
	t.cache = make(map[string]*presburger.Set)
}

// CacheSize returns the number of memoized results
func (t *Translator) CacheSize() int {
	return len(t.cache)
}

// Invariant compiles the formula of inv over its own variables
func (t *Translator) Invariant(inv proof.ProofInvariant[string]) (*presburger.Set, error) {
	return t.Formula(inv.Formula, inv.Variables)
}

// Formula compiles f to the set of integer vectors over mapping that satisfy it.
//
// Panics if f contains a Forall.
func (t *Translator) Formula(f proof.Formula[string], mapping []string) (*presburger.Set, error) {
	key := proof.KeyWithVars[string](f, mapping)
	if s, ok := t.cache[key]; ok {
		return s, nil
	}
	s, err := t.translate(f, mapping)
	if err != nil {
		return nil, err
	}
	t.cache[key] = s
	return s, nil
}

func (t *Translator) translate(f proof.Formula[string], mapping []string) (*presburger.Set, error) {
	switch f := f.(type) {
	case proof.Atom[string]:
		return FromConstraint(f.Constraint, mapping)
	case proof.And[string]:
		acc := presburger.Universe(mapping)
		for _, arg := range f.Args {
			s, err := t.Formula(arg, mapping)
			if err != nil {
				return nil, err
			}
			acc = acc.Intersect(s)
		}
		return acc, nil
	case proof.Or[string]:
		acc := presburger.Empty(mapping)
		for _, arg := range f.Args {
			s, err := t.Formula(arg, mapping)
			if err != nil {
				return nil, err
			}
			acc = acc.Union(s)
		}
		return acc, nil
	case proof.Exists[string]:
		name := fmt.Sprintf("tmp%d", f.Index)
		for slices.Contains(mapping, name) {
			name += "_fresh"
		}
		extended := append(slices.Clone(mapping), name)
		s, err := t.Formula(proof.Instantiate[string](f.Body, f.Index, name), extended)
		if err != nil {
			return nil, err
		}
		return s.ProjectOut(name), nil
	case proof.Forall[string]:
		panic("translate: universal quantification cannot be converted to a Presburger set")
	}
	return nil, fmt.Errorf("translate: unknown formula %T", f)
}

// FromConstraint compiles a single constraint over mapping
func FromConstraint(c proof.Constraint[string], mapping []string) (*presburger.Set, error) {
	pc := presburger.Constraint{Coeffs: make(map[string]int64, len(c.Expr.Terms)), Const: c.Expr.Constant, Op: presburger.Geq}
	if c.Op == proof.Eq {
		pc.Op = presburger.Eq
	}
	for _, term := range c.Expr.Terms {
		if term.Var.Bound {
			return nil, fmt.Errorf("%w: %v in %v", ErrUnboundVariable, term.Var, c)
		}
		pc.Coeffs[term.Var.Name] += term.Coef
	}
	return presburger.FromConstraint(mapping, pc)
}
