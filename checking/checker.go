// Package checking verifies that a proof invariant shows a property of every reachable marking of a Petri net.
package checking

import (
	"errors"
	"fmt"
)

var (
	// The invariant does not contain the initial marking
	ErrNotInitial = errors.New("invariant does not hold in the initial marking")
	// Some transition can leave the invariant
	ErrNotInductive = errors.New("invariant is not preserved by a transition")
	// Some marking of the invariant with the zero places empty is outside the target
	ErrTargetNotImplied = errors.New("invariant does not imply the target")
	// The variables of the invariant are not the places of the net
	ErrVariables = errors.New("invariant variables do not match the places of the net")
)

// CheckerResponse is the outcome of checking a proof
type CheckerResponse interface {
	// Returns true if the proof holds, and a description of the result.
	// If the proof is rejected the description names the violated condition.
	Response() (bool, string)

	// Returns nil if the proof holds and otherwise an error matching one of the package sentinels
	Err() error
}

type proofResponse struct {
	err error
}

func (pr proofResponse) Response() (bool, string) {
	if pr.err == nil {
		return true, "Proof holds: the invariant contains the initial marking, is preserved by every transition and implies the target"
	}
	return false, fmt.Sprintf("Proof rejected: %v", pr.err)
}

func (pr proofResponse) Err() error {
	return pr.err
}

// TransitionError names the transition that breaks the invariant
type TransitionError struct {
	Index      int
	Transition string
	Err        error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %d (%s): %v", e.Index, e.Transition, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}
