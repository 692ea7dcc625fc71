package proof

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffineExprCanonical(t *testing.T) {
	a := Expr(3, Term[string]{Var: Named("y"), Coef: 2}, Term[string]{Var: Named("x"), Coef: 1}, Term[string]{Var: Named("y"), Coef: -2})
	b := Variable("x").Add(Const[string](3))
	if diff := cmp.Diff(b, a); diff != "" {
		t.Errorf("Expressions should be equal after merging terms (-want +got):\n%s", diff)
	}
	assert.Equal(t, "x + 3", a.String())
	assert.Equal(t, int64(0), a.Coef(Named("y")))

	c := Variable("x").Scale(2).Sub(BoundVariable[string](0)).Add(Const[string](-1))
	assert.Equal(t, "-e0 + 2x - 1", c.String())
}

func TestEliminateForward(t *testing.T) {
	inv := Universe([]string{"a"})
	out := EliminateForward(inv, []string{"b", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, out.Variables)
	and, ok := out.Formula.(And[string])
	require.True(t, ok, "Expected a conjunction, got %T", out.Formula)
	require.Len(t, and.Args, 3)
	assert.Equal(t, "b = 0", and.Args[1].String())
	assert.Equal(t, []string{"a"}, inv.Variables, "The original invariant should not change")

	none := EliminateForward(inv, nil)
	and, ok = none.Formula.(And[string])
	require.True(t, ok)
	assert.Len(t, and.Args, 1)
}

func TestEliminateBackward(t *testing.T) {
	inv := ProofInvariant[string]{Variables: []string{"a"}, Formula: NewAtom(Variable("a"), Eq)}
	out := EliminateBackward(inv, []string{"b"})
	assert.Equal(t, []string{"a", "b"}, out.Variables)
	assert.Equal(t, "(a = 0 ∨ (b - 1 >= 0))", out.Formula.String())

	none := EliminateBackward(inv, nil)
	or := none.Formula.(Or[string])
	require.Len(t, or.Args, 2)
	assert.Equal(t, "false", or.Args[1].String())
}

func TestEliminatePanicsOnExistingVariable(t *testing.T) {
	inv := Universe([]string{"a", "b"})
	assert.PanicsWithValue(t, "Place b is already in the variable list", func() {
		EliminateForward(inv, []string{"b"})
	})
	assert.PanicsWithValue(t, "Place a is already in the variable list", func() {
		EliminateBackward(inv, []string{"c", "a"})
	})
	assert.Panics(t, func() {
		EliminateForward(inv, []string{"c", "c"})
	})
}

func TestInstantiateRespectsShadowing(t *testing.T) {
	f := Conj[string](
		NewAtom(BoundVariable[string](0).Sub(Variable("x")), Eq),
		Exists[string]{Index: 0, Body: NewAtom(BoundVariable[string](0), Geq)},
		Exists[string]{Index: 1, Body: NewAtom(BoundVariable[string](0).Add(BoundVariable[string](1)), Geq)},
	)
	got := Instantiate[string](f, 0, "tmp0")
	assert.Equal(t, "(tmp0 - x = 0 ∧ ∃e0. e0 >= 0 ∧ ∃e1. e1 + tmp0 >= 0)", got.String())
}

func TestHasForall(t *testing.T) {
	tests := []struct {
		f    Formula[string]
		want bool
	}{
		{Conj[string](), false},
		{Disj[string](NewAtom(Variable("x"), Geq), Forall[string]{Index: 0, Body: Conj[string]()}), true},
		{Exists[string]{Index: 0, Body: Forall[string]{Index: 1, Body: Disj[string]()}}, true},
		{Exists[string]{Index: 0, Body: NewAtom(BoundVariable[string](0), Eq)}, false},
	}
	for i, test := range tests {
		if got := HasForall[string](test.f); got != test.want {
			t.Errorf("Test %v: HasForall(%v) = %v, want %v", i, test.f, got, test.want)
		}
	}
}

func TestKeyDistinguishesStructure(t *testing.T) {
	x := NewAtom(Variable("x"), Geq)
	y := NewAtom(Variable("y"), Geq)
	formulas := []Formula[string]{
		Conj[string](x, y),
		Conj[string](Conj[string](x), y),
		Conj[string](Conj[string](x, y)),
		Disj[string](x, y),
		Conj[string](y, x),
		Exists[string]{Index: 0, Body: Conj[string](x, y)},
		Forall[string]{Index: 0, Body: Conj[string](x, y)},
		NewAtom(Variable("x y"), Geq),
		Conj[string](NewAtom(Variable("x"), Geq), NewAtom(Variable(" y"), Geq)),
	}
	seen := map[string]int{}
	for i, f := range formulas {
		k := Key[string](f)
		if j, ok := seen[k]; ok {
			t.Errorf("Formula %v and %v share the key %q", j, i, k)
		}
		seen[k] = i
	}
	assert.Equal(t, Key[string](Conj[string](x, y)), Key[string](Conj[string](NewAtom(Variable("x"), Geq), NewAtom(Variable("y"), Geq))))
	assert.NotEqual(t, KeyWithVars[string](x, []string{"x", "y"}), KeyWithVars[string](x, []string{"y", "x"}))
}

func TestInvariantJSONRoundTrip(t *testing.T) {
	inv := ProofInvariant[string]{
		Variables: []string{"G[0]", "Q[inc]", "inc/0"},
		Formula: Conj[string](
			NewAtom(Variable("G[0]").Add(Const[string](-1)), Eq),
			Disj[string](),
			Exists[string]{Index: 0, Body: NewAtom(Variable("inc/0").Sub(BoundVariable[string](0)), Geq)},
			Forall[string]{Index: 2, Body: Conj[string]()},
		),
	}
	data, err := json.Marshal(inv)
	require.NoError(t, err)
	var back ProofInvariant[string]
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(inv, back); diff != "" {
		t.Errorf("Invariant changed by a JSON round trip (-want +got):\n%s", diff)
	}
}

func TestMapInvariant(t *testing.T) {
	inv := ProofInvariant[int]{
		Variables: []int{2, 1},
		Formula:   Exists[int]{Index: 0, Body: NewAtom(Variable(2).Sub(Variable(1)).Add(BoundVariable[int](0)), Eq)},
	}
	names := []string{"zero", "one", "two"}
	out := MapInvariant(inv, func(i int) string { return names[i] })
	assert.Equal(t, []string{"two", "one"}, out.Variables)
	assert.Equal(t, "∃e0. e0 - one + two = 0", out.Formula.String())
	assert.Equal(t, []string{"one", "two"}, FreeNames[string](out.Formula))
}
