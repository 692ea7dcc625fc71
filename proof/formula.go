package proof

import (
	"cmp"
	"fmt"
	"strings"
)

// Formula is one of Atom, And, Or, Exists or Forall
type Formula[T cmp.Ordered] interface {
	fmt.Stringer
	// sealed, the parameter pins T to the concrete formula type
	isFormula(T)
}

type Atom[T cmp.Ordered] struct {
	Constraint Constraint[T]
}

// And is the conjunction of its arguments. An empty And is true.
type And[T cmp.Ordered] struct {
	Args []Formula[T]
}

// Or is the disjunction of its arguments. An empty Or is false.
type Or[T cmp.Ordered] struct {
	Args []Formula[T]
}

// Exists binds the variable Quantified(Index) in Body
type Exists[T cmp.Ordered] struct {
	Index int
	Body  Formula[T]
}

// Forall binds the variable Quantified(Index) in Body.
// It can be represented and stored but not compiled to a set.
type Forall[T cmp.Ordered] struct {
	Index int
	Body  Formula[T]
}

func (Atom[T]) isFormula(T)   {}
func (And[T]) isFormula(T)    {}
func (Or[T]) isFormula(T)     {}
func (Exists[T]) isFormula(T) {}
func (Forall[T]) isFormula(T) {}

// NewAtom returns the formula expr (op) 0
func NewAtom[T cmp.Ordered](expr AffineExpr[T], op CompOp) Formula[T] {
	return Atom[T]{Constraint: Constraint[T]{Expr: expr, Op: op}}
}

func Conj[T cmp.Ordered](args ...Formula[T]) Formula[T] {
	return And[T]{Args: args}
}

func Disj[T cmp.Ordered](args ...Formula[T]) Formula[T] {
	return Or[T]{Args: args}
}

func (a Atom[T]) String() string {
	return a.Constraint.String()
}

func (a And[T]) String() string {
	if len(a.Args) == 0 {
		return "true"
	}
	return joinArgs[T](a.Args, " ∧ ")
}

func (o Or[T]) String() string {
	if len(o.Args) == 0 {
		return "false"
	}
	return joinArgs[T](o.Args, " ∨ ")
}

func (e Exists[T]) String() string {
	return fmt.Sprintf("∃e%d. %v", e.Index, e.Body)
}

func (f Forall[T]) String() string {
	return fmt.Sprintf("∀e%d. %v", f.Index, f.Body)
}

func joinArgs[T cmp.Ordered](args []Formula[T], sep string) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// mapFormula rebuilds f bottom up, transforming every constraint with fn
func mapFormula[T, U cmp.Ordered](f Formula[T], fn func(Constraint[T]) Constraint[U]) Formula[U] {
	switch f := f.(type) {
	case Atom[T]:
		return Atom[U]{Constraint: fn(f.Constraint)}
	case And[T]:
		return And[U]{Args: mapArgs[T, U](f.Args, fn)}
	case Or[T]:
		return Or[U]{Args: mapArgs[T, U](f.Args, fn)}
	case Exists[T]:
		return Exists[U]{Index: f.Index, Body: mapFormula[T, U](f.Body, fn)}
	case Forall[T]:
		return Forall[U]{Index: f.Index, Body: mapFormula[T, U](f.Body, fn)}
	}
	panic(fmt.Sprintf("proof: unknown formula %T", f))
}

func mapArgs[T, U cmp.Ordered](args []Formula[T], fn func(Constraint[T]) Constraint[U]) []Formula[U] {
	if args == nil {
		return nil
	}
	out := make([]Formula[U], len(args))
	for i, arg := range args {
		out[i] = mapFormula[T, U](arg, fn)
	}
	return out
}

// RenameVars applies fn to every variable occurring in f, bound or not.
func RenameVars[T cmp.Ordered](f Formula[T], fn func(Var[T]) Var[T]) Formula[T] {
	return mapFormula[T, T](f, func(c Constraint[T]) Constraint[T] {
		return Constraint[T]{Expr: c.Expr.Rename(fn), Op: c.Op}
	})
}

// MapNames changes the type of the named variables of f. Bound variables keep their index.
func MapNames[T, U cmp.Ordered](f Formula[T], fn func(T) U) Formula[U] {
	return mapFormula[T, U](f, func(c Constraint[T]) Constraint[U] {
		terms := make([]Term[U], len(c.Expr.Terms))
		for i, t := range c.Expr.Terms {
			v := Quantified[U](t.Var.Index)
			if !t.Var.Bound {
				v = Named(fn(t.Var.Name))
			}
			terms[i] = Term[U]{Var: v, Coef: t.Coef}
		}
		return Constraint[U]{Expr: Expr(c.Expr.Constant, terms...), Op: c.Op}
	})
}

// Instantiate replaces the free occurrences of the bound variable index by the named variable name.
// Occurrences under an inner quantifier with the same index are left untouched.
func Instantiate[T cmp.Ordered](f Formula[T], index int, name T) Formula[T] {
	bound := Quantified[T](index)
	switch f := f.(type) {
	case Atom[T]:
		return Atom[T]{Constraint: Constraint[T]{
			Expr: f.Constraint.Expr.Rename(func(v Var[T]) Var[T] {
				if v == bound {
					return Named(name)
				}
				return v
			}),
			Op: f.Constraint.Op,
		}}
	case And[T]:
		return And[T]{Args: instantiateArgs[T](f.Args, index, name)}
	case Or[T]:
		return Or[T]{Args: instantiateArgs[T](f.Args, index, name)}
	case Exists[T]:
		if f.Index == index {
			return f
		}
		return Exists[T]{Index: f.Index, Body: Instantiate[T](f.Body, index, name)}
	case Forall[T]:
		if f.Index == index {
			return f
		}
		return Forall[T]{Index: f.Index, Body: Instantiate[T](f.Body, index, name)}
	}
	panic(fmt.Sprintf("proof: unknown formula %T", f))
}

func instantiateArgs[T cmp.Ordered](args []Formula[T], index int, name T) []Formula[T] {
	if args == nil {
		return nil
	}
	out := make([]Formula[T], len(args))
	for i, arg := range args {
		out[i] = Instantiate[T](arg, index, name)
	}
	return out
}

// HasForall reports whether f contains a universal quantifier
func HasForall[T cmp.Ordered](f Formula[T]) bool {
	switch f := f.(type) {
	case And[T]:
		return anyForall[T](f.Args)
	case Or[T]:
		return anyForall[T](f.Args)
	case Exists[T]:
		return HasForall[T](f.Body)
	case Forall[T]:
		return true
	}
	return false
}

func anyForall[T cmp.Ordered](args []Formula[T]) bool {
	for _, arg := range args {
		if HasForall[T](arg) {
			return true
		}
	}
	return false
}

// FreeNames returns the named variables of f in order of first occurrence
func FreeNames[T cmp.Ordered](f Formula[T]) []T {
	var out []T
	seen := map[T]bool{}
	var walk func(Formula[T])
	walk = func(f Formula[T]) {
		switch f := f.(type) {
		case Atom[T]:
			for _, t := range f.Constraint.Expr.Terms {
				if !t.Var.Bound && !seen[t.Var.Name] {
					seen[t.Var.Name] = true
					out = append(out, t.Var.Name)
				}
			}
		case And[T]:
			for _, arg := range f.Args {
				walk(arg)
			}
		case Or[T]:
			for _, arg := range f.Args {
				walk(arg)
			}
		case Exists[T]:
			walk(f.Body)
		case Forall[T]:
			walk(f.Body)
		}
	}
	walk(f)
	return out
}

// Key returns a canonical encoding of f. Two formulas have the same key
// exactly when they are structurally identical.
func Key[T cmp.Ordered](f Formula[T]) string {
	b := strings.Builder{}
	writeKey[T](&b, f)
	return b.String()
}

func writeLabel(b *strings.Builder, s string) {
	fmt.Fprintf(b, "%d:%s", len(s), s)
}

func writeKey[T cmp.Ordered](b *strings.Builder, f Formula[T]) {
	switch f := f.(type) {
	case Atom[T]:
		fmt.Fprintf(b, "C%d;%d;", f.Constraint.Op, f.Constraint.Expr.Constant)
		for _, t := range f.Constraint.Expr.Terms {
			if t.Var.Bound {
				fmt.Fprintf(b, "b%d*%d;", t.Var.Index, t.Coef)
				continue
			}
			b.WriteString("n")
			writeLabel(b, fmt.Sprint(t.Var.Name))
			fmt.Fprintf(b, "*%d;", t.Coef)
		}
		b.WriteString(".")
	case And[T]:
		fmt.Fprintf(b, "A%d[", len(f.Args))
		for _, arg := range f.Args {
			writeKey[T](b, arg)
		}
		b.WriteString("]")
	case Or[T]:
		fmt.Fprintf(b, "O%d[", len(f.Args))
		for _, arg := range f.Args {
			writeKey[T](b, arg)
		}
		b.WriteString("]")
	case Exists[T]:
		fmt.Fprintf(b, "E%d(", f.Index)
		writeKey[T](b, f.Body)
		b.WriteString(")")
	case Forall[T]:
		fmt.Fprintf(b, "F%d(", f.Index)
		writeKey[T](b, f.Body)
		b.WriteString(")")
	default:
		panic(fmt.Sprintf("proof: unknown formula %T", f))
	}
}

// KeyWithVars extends Key with an ordered variable list
func KeyWithVars[T cmp.Ordered](f Formula[T], vars []T) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "V%d[", len(vars))
	for _, v := range vars {
		writeLabel(&b, fmt.Sprint(v))
	}
	b.WriteString("]")
	writeKey[T](&b, f)
	return b.String()
}
