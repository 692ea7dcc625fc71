// Package reachability decides whether every quiescent reachable marking of a
// Petri net lies in a semilinear set, producing a checkable certificate.
//
// The engine first explores the markings reachable with a bounded number of
// admitted requests, looking for a counterexample. It then tries a short list of
// invariant candidates built from P-semiflows and the target set, and accepts
// the first one that checking.CheckProof verifies.
package reachability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"nsserial/checking"
	"nsserial/config"
	"nsserial/petri"
	"nsserial/proof"
	"nsserial/semilinear"
)

type Outcome int

const (
	// The invariant proves the property
	Proof Outcome = iota
	// The firing sequence reaches a quiescent marking outside the target
	Counterexample
	// No decision was reached
	Timeout
)

func (o Outcome) String() string {
	switch o {
	case Proof:
		return "Proof"
	case Counterexample:
		return "Counterexample"
	case Timeout:
		return "Timeout"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Decision is the certificate produced by the engine. T is the tag type of the net's transitions.
type Decision[T any] struct {
	Outcome Outcome
	// Set when Outcome is Proof. Its variables are the places of the net.
	Invariant proof.ProofInvariant[string]
	// Set when Outcome is Counterexample
	Firings []T
	// Set when Outcome is Timeout
	Message string
}

type Options struct {
	config.Engine
	// Directory receiving search-tree.nwk. Nothing is written when empty.
	Workdir string
	Logger  *zap.Logger
}

// Name of the file receiving the explored search tree
const SearchTreeFile = "search-tree.nwk"

// Problem is one reachability question
type Problem[T any] struct {
	Net *petri.Net[string, T]
	// Places that are empty when no request is in flight
	Zero []string
	// Places whose token counts are compared against Target
	Observable []string
	Target     semilinear.Set
}

// IsReachabilitySetSubsetOfSemilinear decides whether every reachable marking
// of the net with the zero places empty, projected to the observable places,
// belongs to the target set.
func IsReachabilitySetSubsetOfSemilinear[T any](ctx context.Context, p Problem[T], opts Options) Decision[T] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout, err := opts.TimeoutDuration()
	if err != nil {
		return Decision[T]{Outcome: Timeout, Message: err.Error()}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()

	search := newSearch(p, opts.Engine)
	firings, err := search.run(ctx)
	if opts.Workdir != "" {
		path := filepath.Join(opts.Workdir, SearchTreeFile)
		if werr := os.WriteFile(path, []byte(search.newick()), 0o644); werr != nil {
			logger.Warn("Unable to write search tree", zap.String("path", path), zap.Error(werr))
		}
	}
	logger.Debug("Bounded search finished",
		zap.Int("markings", search.root.Len()),
		zap.Bool("pruned", search.pruned),
		zap.Duration("elapsed", time.Since(start)))
	switch {
	case err != nil:
		return Decision[T]{Outcome: Timeout, Message: fmt.Sprintf("bounded search interrupted: %v", err)}
	case firings != nil:
		logger.Info("Counterexample found", zap.Int("firings", len(firings)))
		return Decision[T]{Outcome: Counterexample, Firings: firings}
	}

	candidates, err := Candidates(p)
	if err != nil {
		return Decision[T]{Outcome: Timeout, Message: fmt.Sprintf("unable to build invariant candidates: %v", err)}
	}
	targetFormula, err := p.Target.Formula(p.Observable)
	if err != nil {
		return Decision[T]{Outcome: Timeout, Message: err.Error()}
	}
	for i, inv := range candidates {
		resp := checking.CheckProof(ctx, p.Net, inv, p.Zero, targetFormula, opts.Workers)
		ok, desc := resp.Response()
		if ok {
			logger.Info("Invariant found", zap.Int("candidate", i), zap.Duration("elapsed", time.Since(start)))
			return Decision[T]{Outcome: Proof, Invariant: inv}
		}
		logger.Debug("Candidate rejected", zap.Int("candidate", i), zap.String("reason", desc))
		if ctx.Err() != nil {
			return Decision[T]{Outcome: Timeout, Message: fmt.Sprintf("time limit reached after %v", time.Since(start).Round(time.Millisecond))}
		}
	}
	return Decision[T]{Outcome: Timeout, Message: fmt.Sprintf(
		"no counterexample with at most %d requests and no inductive invariant among %d candidates",
		opts.MaxRequests, len(candidates))}
}

// Candidates lists the invariants tried by the engine, strongest first.
//
// Each candidate bounds the live places with non negativity and the P-semiflows
// of the net. The first one also states that the observable places are in the
// target unless a zero place holds a token. Places that can never be marked are
// pinned to zero. The variables of every candidate are the places of the net.
func Candidates[T any](p Problem[T]) ([]proof.ProofInvariant[string], error) {
	places := p.Net.Places()
	live := p.Net.LivePlaces()
	zero := mapset.NewThreadUnsafeSet(p.Zero...)
	observable := mapset.NewThreadUnsafeSet(p.Observable...)
	for _, o := range p.Observable {
		if !slices.Contains(places, o) {
			return nil, fmt.Errorf("observable place %v is not a place of the net", o)
		}
	}

	var liveZero, liveOther, livePlaces []string
	for _, pl := range places {
		if !live.Contains(pl) {
			continue
		}
		livePlaces = append(livePlaces, pl)
		switch {
		case zero.Contains(pl):
			liveZero = append(liveZero, pl)
		case !observable.Contains(pl):
			liveOther = append(liveOther, pl)
		}
	}

	var bounds []proof.Formula[string]
	for _, pl := range livePlaces {
		bounds = append(bounds, proof.NewAtom(proof.Variable(pl), proof.Geq))
	}
	for _, o := range p.Observable {
		if !live.Contains(o) {
			bounds = append(bounds, proof.NewAtom(proof.Variable(o), proof.Eq))
		}
	}
	initial := p.Net.InitialMarking()
	for _, y := range p.Net.Semiflows(livePlaces) {
		expr := proof.Const[string](0)
		for _, pl := range livePlaces {
			if c := y[pl]; c != 0 {
				expr = expr.Add(proof.Variable(pl).Scale(c)).Add(proof.Const[string](-c * initial[pl]))
			}
		}
		bounds = append(bounds, proof.NewAtom(expr, proof.Eq))
	}

	targetFormula, err := p.Target.Formula(p.Observable)
	if err != nil {
		return nil, err
	}
	widened := proof.EliminateBackward(proof.ProofInvariant[string]{Variables: p.Observable, Formula: targetFormula}, liveZero)

	complete := func(vars []string, args []proof.Formula[string]) proof.ProofInvariant[string] {
		vars = append(slices.Clone(vars), liveOther...)
		var dead []string
		for _, pl := range places {
			if !slices.Contains(vars, pl) {
				dead = append(dead, pl)
			}
		}
		return proof.EliminateForward(proof.ProofInvariant[string]{Variables: vars, Formula: proof.Conj[string](args...)}, dead)
	}

	withTarget := complete(widened.Variables, append([]proof.Formula[string]{widened.Formula}, bounds...))
	structural := complete(append(slices.Clone(p.Observable), liveZero...), bounds)
	return []proof.ProofInvariant[string]{withTarget, structural}, nil
}
