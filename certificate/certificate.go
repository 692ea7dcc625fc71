// Package certificate produces, persists and re-verifies the evidence that a
// Network System is serializable or not.
//
// A Decision is never trusted by itself. IsSerializable writes it to disk, reads
// it back and derives the verdict from the reloaded copy.
package certificate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"nsserial/ns"
	"nsserial/proof"
)

var (
	// ErrUnknownKind is returned when decoding a certificate of an unknown kind
	ErrUnknownKind = errors.New("certificate: unknown decision kind")
	// ErrMissingEvidence is returned when decoding a certificate without the field its kind requires
	ErrMissingEvidence = errors.New("certificate: decision lacks its evidence")
)

// Name of the certificate written to the work directory
const File = "certificate.json"

// Prefix of the temporary work directories used when no workdir is given
const TempPrefix = "nsserial-"

type Kind int

const (
	// The decision carries an inductive invariant
	InvariantKind Kind = iota
	// The decision carries a counterexample trace
	TraceKind
	// The engine made no determination
	TimeoutKind
)

var kindNames = map[Kind]string{
	InvariantKind: "serializable",
	TraceKind:     "not_serializable",
	TimeoutKind:   "timeout",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(name), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, text)
}

// Decision is the certificate: either an invariant proving serializability, a
// trace disproving it, or a message explaining why no determination was made.
// Only the field selected by Kind is meaningful.
type Decision[G, L, Req, Resp comparable] struct {
	Kind      Kind                          `json:"kind"`
	Invariant *proof.ProofInvariant[string] `json:"invariant,omitempty"`
	Trace     *ns.Trace[G, L, Req, Resp]    `json:"trace,omitempty"`
	Message   string                        `json:"message,omitempty"`
}

func WithInvariant[G, L, Req, Resp comparable](inv proof.ProofInvariant[string]) Decision[G, L, Req, Resp] {
	return Decision[G, L, Req, Resp]{Kind: InvariantKind, Invariant: &inv}
}

func WithTrace[G, L, Req, Resp comparable](trace ns.Trace[G, L, Req, Resp]) Decision[G, L, Req, Resp] {
	return Decision[G, L, Req, Resp]{Kind: TraceKind, Trace: &trace}
}

func WithTimeout[G, L, Req, Resp comparable](message string) Decision[G, L, Req, Resp] {
	return Decision[G, L, Req, Resp]{Kind: TimeoutKind, Message: message}
}

func (d Decision[G, L, Req, Resp]) String() string {
	switch d.Kind {
	case InvariantKind:
		return fmt.Sprintf("Serializable with invariant %v", d.Invariant)
	case TraceKind:
		return fmt.Sprintf("Not serializable, counterexample:\n%v", d.Trace)
	case TimeoutKind:
		return fmt.Sprintf("Timeout: %v", d.Message)
	}
	return d.Kind.String()
}

func (d Decision[G, L, Req, Resp]) validate() error {
	switch d.Kind {
	case InvariantKind:
		if d.Invariant == nil || d.Invariant.Formula == nil {
			return fmt.Errorf("%w: %v without an invariant", ErrMissingEvidence, d.Kind)
		}
	case TraceKind:
		if d.Trace == nil {
			return fmt.Errorf("%w: %v without a trace", ErrMissingEvidence, d.Kind)
		}
	case TimeoutKind:
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(d.Kind))
	}
	return nil
}

// Marshal encodes d as indented JSON
func Marshal[G, L, Req, Resp comparable](d Decision[G, L, Req, Resp]) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Unmarshal decodes a certificate and checks that it carries the evidence its kind requires
func Unmarshal[G, L, Req, Resp comparable](data []byte) (Decision[G, L, Req, Resp], error) {
	var d Decision[G, L, Req, Resp]
	if err := json.Unmarshal(data, &d); err != nil {
		return Decision[G, L, Req, Resp]{}, fmt.Errorf("certificate: decoding json: %w", err)
	}
	if err := d.validate(); err != nil {
		return Decision[G, L, Req, Resp]{}, err
	}
	return d, nil
}

// Save writes d to path
func Save[G, L, Req, Resp comparable](path string, d Decision[G, L, Req, Resp]) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a certificate written by Save
func Load[G, L, Req, Resp comparable](path string) (Decision[G, L, Req, Resp], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Decision[G, L, Req, Resp]{}, err
	}
	return Unmarshal[G, L, Req, Resp](data)
}
