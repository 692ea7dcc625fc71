package checking

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"nsserial/petri"
	"nsserial/presburger"
	"nsserial/proof"
	"nsserial/translate"
)

// CheckProof verifies that inv proves that every reachable marking of net
// with the zero places empty satisfies target.
//
// The variables of inv must be exactly the places of net. Three conditions are checked:
// the initial marking is in inv, every transition enabled inside inv leads back into inv,
// and every marking of inv with the zero places empty satisfies target.
// Transitions are checked concurrently by workers, each with its own Translator.
// A non positive workers uses one worker per CPU.
func CheckProof[T any](ctx context.Context, net *petri.Net[string, T], inv proof.ProofInvariant[string], zero []string, target proof.Formula[string], workers int) CheckerResponse {
	return proofResponse{err: checkProof(ctx, net, inv, zero, target, workers)}
}

func sameElements(a, b []string) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b) && len(slices.Compact(a)) == len(b)
}

func checkProof[T any](ctx context.Context, net *petri.Net[string, T], inv proof.ProofInvariant[string], zero []string, target proof.Formula[string], workers int) error {
	if !sameElements(inv.Variables, net.Places()) {
		return fmt.Errorf("%w: %v and %v", ErrVariables, inv.Variables, net.Places())
	}
	for _, z := range zero {
		if !slices.Contains(inv.Variables, z) {
			return fmt.Errorf("%w: zero place %v", ErrVariables, z)
		}
	}

	tr := translate.New()
	set, err := tr.Invariant(inv)
	if err != nil {
		return err
	}
	if !set.ContainsMap(net.InitialMarking()) {
		return fmt.Errorf("%w: %v", ErrNotInitial, net.InitialMarking())
	}

	if err := checkTransitions(ctx, net, inv, workers); err != nil {
		return err
	}

	quiescent := set
	for _, z := range zero {
		s, err := translate.FromConstraint(proof.Constraint[string]{Expr: proof.Variable(z), Op: proof.Eq}, inv.Variables)
		if err != nil {
			return err
		}
		quiescent = quiescent.Intersect(s)
	}
	want, err := tr.Formula(target, inv.Variables)
	if err != nil {
		return err
	}
	ok, err := quiescent.SubsetOf(want)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTargetNotImplied, err)
	}
	if !ok {
		return ErrTargetNotImplied
	}
	return nil
}

func checkTransitions[T any](ctx context.Context, net *petri.Net[string, T], inv proof.ProofInvariant[string], workers int) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	transitions := net.Transitions()
	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan int)
	g.Go(func() error {
		defer close(jobs)
		for i := range transitions {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			tr := translate.New()
			set, err := tr.Invariant(inv)
			if err != nil {
				return err
			}
			for i := range jobs {
				if err := preserves(set, transitions[i], inv.Variables); err != nil {
					return &TransitionError{Index: i, Transition: fmt.Sprint(transitions[i].Tag), Err: err}
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// preserves checks that firing t from a marking of set in which t is enabled stays in set
func preserves[T any](set *presburger.Set, t petri.Transition[string, T], vars []string) error {
	enabled := set
	for p, k := range t.Pre() {
		s, err := translate.FromConstraint(proof.Constraint[string]{Expr: proof.Variable(p).Add(proof.Const[string](-k)), Op: proof.Geq}, vars)
		if err != nil {
			return err
		}
		enabled = enabled.Intersect(s)
	}
	ok, err := enabled.SubsetOf(set.Shift(t.Delta()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotInductive, err)
	}
	if !ok {
		return ErrNotInductive
	}
	return nil
}
