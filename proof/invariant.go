package proof

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// ProofInvariant is a set of integer vectors indexed by Variables, described by Formula.
type ProofInvariant[T cmp.Ordered] struct {
	Variables []T
	Formula   Formula[T]
}

// Universe returns the invariant satisfied by every vector over vars
func Universe[T cmp.Ordered](vars []T) ProofInvariant[T] {
	return ProofInvariant[T]{Variables: slices.Clone(vars), Formula: And[T]{}}
}

func (inv ProofInvariant[T]) String() string {
	names := make([]string, len(inv.Variables))
	for i, v := range inv.Variables {
		names[i] = fmt.Sprint(v)
	}
	return fmt.Sprintf("[%v] : %v", strings.Join(names, ", "), inv.Formula)
}

func extendVariables[T cmp.Ordered](inv ProofInvariant[T], places []T) []T {
	vars := slices.Clone(inv.Variables)
	for _, p := range places {
		if slices.Contains(vars, p) {
			panic(fmt.Sprintf("Place %v is already in the variable list", p))
		}
		vars = append(vars, p)
	}
	return vars
}

// EliminateForward adds places to the variables of inv and requires each of them to be zero.
//
// Panics if some place is already a variable of inv.
func EliminateForward[T cmp.Ordered](inv ProofInvariant[T], places []T) ProofInvariant[T] {
	vars := extendVariables[T](inv, places)
	args := []Formula[T]{inv.Formula}
	for _, p := range places {
		args = append(args, NewAtom(Variable(p), Eq))
	}
	return ProofInvariant[T]{Variables: vars, Formula: And[T]{Args: args}}
}

// EliminateBackward adds places to the variables of inv and accepts every vector
// satisfying the original formula or having a token in one of the new places.
//
// Panics if some place is already a variable of inv.
func EliminateBackward[T cmp.Ordered](inv ProofInvariant[T], places []T) ProofInvariant[T] {
	vars := extendVariables[T](inv, places)
	var nonZero []Formula[T]
	for _, p := range places {
		nonZero = append(nonZero, NewAtom(Variable(p).Add(Const[T](-1)), Geq))
	}
	return ProofInvariant[T]{
		Variables: vars,
		Formula:   Or[T]{Args: []Formula[T]{inv.Formula, Or[T]{Args: nonZero}}},
	}
}

// MapInvariant changes the type of the variables of inv
func MapInvariant[T, U cmp.Ordered](inv ProofInvariant[T], fn func(T) U) ProofInvariant[U] {
	var vars []U
	if inv.Variables != nil {
		vars = make([]U, len(inv.Variables))
		for i, v := range inv.Variables {
			vars[i] = fn(v)
		}
	}
	return ProofInvariant[U]{Variables: vars, Formula: MapNames[T, U](inv.Formula, fn)}
}

type formulaJSON[T cmp.Ordered] struct {
	Op         string           `json:"op"`
	Constraint *Constraint[T]   `json:"constraint,omitempty"`
	Args       []formulaJSON[T] `json:"args,omitempty"`
	Index      *int             `json:"index,omitempty"`
	Body       *formulaJSON[T]  `json:"body,omitempty"`
}

func encodeFormula[T cmp.Ordered](f Formula[T]) (formulaJSON[T], error) {
	switch f := f.(type) {
	case Atom[T]:
		c := f.Constraint
		return formulaJSON[T]{Op: "constraint", Constraint: &c}, nil
	case And[T]:
		args, err := encodeArgs[T](f.Args)
		return formulaJSON[T]{Op: "and", Args: args}, err
	case Or[T]:
		args, err := encodeArgs[T](f.Args)
		return formulaJSON[T]{Op: "or", Args: args}, err
	case Exists[T]:
		body, err := encodeFormula[T](f.Body)
		i := f.Index
		return formulaJSON[T]{Op: "exists", Index: &i, Body: &body}, err
	case Forall[T]:
		body, err := encodeFormula[T](f.Body)
		i := f.Index
		return formulaJSON[T]{Op: "forall", Index: &i, Body: &body}, err
	}
	return formulaJSON[T]{}, fmt.Errorf("proof: cannot encode formula %T", f)
}

func encodeArgs[T cmp.Ordered](args []Formula[T]) ([]formulaJSON[T], error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]formulaJSON[T], len(args))
	for i, arg := range args {
		var err error
		if out[i], err = encodeFormula[T](arg); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeFormula[T cmp.Ordered](j formulaJSON[T]) (Formula[T], error) {
	switch j.Op {
	case "constraint":
		if j.Constraint == nil {
			return nil, errors.New("proof: constraint formula without a constraint")
		}
		c := *j.Constraint
		c.Expr.Terms = canonical(c.Expr.Terms)
		return Atom[T]{Constraint: c}, nil
	case "and":
		args, err := decodeArgs[T](j.Args)
		return And[T]{Args: args}, err
	case "or":
		args, err := decodeArgs[T](j.Args)
		return Or[T]{Args: args}, err
	case "exists", "forall":
		if j.Body == nil || j.Index == nil {
			return nil, fmt.Errorf("proof: %v formula needs an index and a body", j.Op)
		}
		body, err := decodeFormula[T](*j.Body)
		if err != nil {
			return nil, err
		}
		if j.Op == "exists" {
			return Exists[T]{Index: *j.Index, Body: body}, nil
		}
		return Forall[T]{Index: *j.Index, Body: body}, nil
	}
	return nil, fmt.Errorf("proof: unknown formula kind %q", j.Op)
}

func decodeArgs[T cmp.Ordered](args []formulaJSON[T]) ([]Formula[T], error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]Formula[T], len(args))
	for i, arg := range args {
		var err error
		if out[i], err = decodeFormula[T](arg); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MarshalFormula encodes a formula as JSON
func MarshalFormula[T cmp.Ordered](f Formula[T]) ([]byte, error) {
	j, err := encodeFormula[T](f)
	if err != nil {
		return nil, err
	}
	return json.Marshal(j)
}

// UnmarshalFormula decodes a formula encoded by MarshalFormula
func UnmarshalFormula[T cmp.Ordered](data []byte) (Formula[T], error) {
	var j formulaJSON[T]
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return decodeFormula[T](j)
}

type invariantJSON[T cmp.Ordered] struct {
	Variables []T            `json:"variables"`
	Formula   formulaJSON[T] `json:"formula"`
}

func (inv ProofInvariant[T]) MarshalJSON() ([]byte, error) {
	f, err := encodeFormula[T](inv.Formula)
	if err != nil {
		return nil, err
	}
	return json.Marshal(invariantJSON[T]{Variables: inv.Variables, Formula: f})
}

func (inv *ProofInvariant[T]) UnmarshalJSON(data []byte) error {
	var j invariantJSON[T]
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	f, err := decodeFormula[T](j.Formula)
	if err != nil {
		return err
	}
	*inv = ProofInvariant[T]{Variables: j.Variables, Formula: f}
	return nil
}
