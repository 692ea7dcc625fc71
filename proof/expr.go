// Package proof holds the logical proof objects produced by the reachability
// engine: affine constraints over named variables, formulas built from them
// and inductive invariants over an ordered list of variables.
package proof

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Var is either a named variable or a variable bound by the Exists or Forall with the same index.
type Var[T cmp.Ordered] struct {
	Name  T
	Index int
	Bound bool
}

func Named[T cmp.Ordered](name T) Var[T] {
	return Var[T]{Name: name}
}

func Quantified[T cmp.Ordered](index int) Var[T] {
	return Var[T]{Index: index, Bound: true}
}

func (v Var[T]) String() string {
	if v.Bound {
		return fmt.Sprintf("e%d", v.Index)
	}
	return fmt.Sprint(v.Name)
}

// Bound variables sort before named ones
func compareVars[T cmp.Ordered](a, b Var[T]) int {
	if a.Bound != b.Bound {
		if a.Bound {
			return -1
		}
		return 1
	}
	if a.Bound {
		return cmp.Compare(a.Index, b.Index)
	}
	return cmp.Compare(a.Name, b.Name)
}

type varJSON[T cmp.Ordered] struct {
	Name  *T   `json:"name,omitempty"`
	Bound *int `json:"bound,omitempty"`
}

func (v Var[T]) MarshalJSON() ([]byte, error) {
	if v.Bound {
		i := v.Index
		return json.Marshal(varJSON[T]{Bound: &i})
	}
	n := v.Name
	return json.Marshal(varJSON[T]{Name: &n})
}

func (v *Var[T]) UnmarshalJSON(data []byte) error {
	var raw varJSON[T]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Bound != nil:
		*v = Quantified[T](*raw.Bound)
	case raw.Name != nil:
		*v = Named(*raw.Name)
	default:
		return errors.New("proof: variable needs a name or a bound index")
	}
	return nil
}

type Term[T cmp.Ordered] struct {
	Var  Var[T] `json:"var"`
	Coef int64  `json:"coef"`
}

// AffineExpr is Σ Coef·Var + Constant.
//
// Terms are kept sorted by variable with no duplicates and no zero coefficients,
// so two equal expressions have equal representations.
type AffineExpr[T cmp.Ordered] struct {
	Terms    []Term[T] `json:"terms"`
	Constant int64     `json:"constant"`
}

func canonical[T cmp.Ordered](terms []Term[T]) []Term[T] {
	sorted := slices.Clone(terms)
	slices.SortStableFunc(sorted, func(a, b Term[T]) int { return compareVars(a.Var, b.Var) })
	var out []Term[T]
	for _, t := range sorted {
		if n := len(out); n > 0 && out[n-1].Var == t.Var {
			out[n-1].Coef += t.Coef
			if out[n-1].Coef == 0 {
				out = out[:n-1]
			}
			continue
		}
		if t.Coef != 0 {
			out = append(out, t)
		}
	}
	return out
}

// Create an expression from terms and a constant
func Expr[T cmp.Ordered](constant int64, terms ...Term[T]) AffineExpr[T] {
	return AffineExpr[T]{Terms: canonical(terms), Constant: constant}
}

func Const[T cmp.Ordered](c int64) AffineExpr[T] {
	return AffineExpr[T]{Constant: c}
}

// Variable returns the expression 1·name
func Variable[T cmp.Ordered](name T) AffineExpr[T] {
	return AffineExpr[T]{Terms: []Term[T]{{Var: Named(name), Coef: 1}}}
}

// BoundVariable returns the expression 1·e_index
func BoundVariable[T cmp.Ordered](index int) AffineExpr[T] {
	return AffineExpr[T]{Terms: []Term[T]{{Var: Quantified[T](index), Coef: 1}}}
}

func (e AffineExpr[T]) Add(o AffineExpr[T]) AffineExpr[T] {
	return AffineExpr[T]{
		Terms:    canonical(append(slices.Clone(e.Terms), o.Terms...)),
		Constant: e.Constant + o.Constant,
	}
}

func (e AffineExpr[T]) Sub(o AffineExpr[T]) AffineExpr[T] {
	return e.Add(o.Scale(-1))
}

func (e AffineExpr[T]) Scale(k int64) AffineExpr[T] {
	terms := make([]Term[T], len(e.Terms))
	for i, t := range e.Terms {
		terms[i] = Term[T]{Var: t.Var, Coef: k * t.Coef}
	}
	return AffineExpr[T]{Terms: canonical(terms), Constant: k * e.Constant}
}

// Coef returns the coefficient of v, zero if v does not occur
func (e AffineExpr[T]) Coef(v Var[T]) int64 {
	for _, t := range e.Terms {
		if t.Var == v {
			return t.Coef
		}
	}
	return 0
}

// Rename applies fn to every variable of the expression
func (e AffineExpr[T]) Rename(fn func(Var[T]) Var[T]) AffineExpr[T] {
	terms := make([]Term[T], len(e.Terms))
	for i, t := range e.Terms {
		terms[i] = Term[T]{Var: fn(t.Var), Coef: t.Coef}
	}
	return AffineExpr[T]{Terms: canonical(terms), Constant: e.Constant}
}

func (e AffineExpr[T]) String() string {
	out := strings.Builder{}
	for _, t := range e.Terms {
		c := t.Coef
		switch {
		case out.Len() == 0 && c < 0:
			out.WriteString("-")
			c = -c
		case c < 0:
			out.WriteString(" - ")
			c = -c
		case out.Len() > 0:
			out.WriteString(" + ")
		}
		if c != 1 {
			fmt.Fprintf(&out, "%d", c)
		}
		out.WriteString(t.Var.String())
	}
	switch {
	case out.Len() == 0:
		fmt.Fprintf(&out, "%d", e.Constant)
	case e.Constant > 0:
		fmt.Fprintf(&out, " + %d", e.Constant)
	case e.Constant < 0:
		fmt.Fprintf(&out, " - %d", -e.Constant)
	}
	return out.String()
}

type CompOp int

const (
	Eq  CompOp = iota // expression = 0
	Geq               // expression >= 0
)

func (op CompOp) String() string {
	switch op {
	case Eq:
		return "="
	case Geq:
		return ">="
	}
	return fmt.Sprintf("CompOp(%d)", int(op))
}

func (op CompOp) MarshalText() ([]byte, error) {
	switch op {
	case Eq:
		return []byte("eq"), nil
	case Geq:
		return []byte("geq"), nil
	}
	return nil, fmt.Errorf("proof: unknown comparison %d", int(op))
}

func (op *CompOp) UnmarshalText(text []byte) error {
	switch string(text) {
	case "eq":
		*op = Eq
	case "geq":
		*op = Geq
	default:
		return fmt.Errorf("proof: unknown comparison %q", string(text))
	}
	return nil
}

// Constraint is Expr (Op) 0
type Constraint[T cmp.Ordered] struct {
	Expr AffineExpr[T] `json:"expr"`
	Op   CompOp        `json:"op"`
}

func (c Constraint[T]) String() string {
	return fmt.Sprintf("%v %v 0", c.Expr, c.Op)
}
