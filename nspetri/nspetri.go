// Package nspetri encodes a Network System as a Petri net whose markings count in-flight and completed requests.
package nspetri

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/exp/slices"

	"nsserial/ns"
	"nsserial/petri"
)

type Kind int

const (
	// Holds the single token marking the current global state
	GlobalPlace Kind = iota
	// Counts the in-flight requests of one kind
	AdmissionPlace
	// Counts the requests of one kind sitting in one local state
	LocalPlace
	// Counts the completions of one request kind with one response
	ResponsePlace
)

// Place of the encoding. Only the fields relevant to Kind are set.
type Place[G, L, Req, Resp comparable] struct {
	Kind     Kind
	Global   G
	Local    L
	Request  Req
	Response Resp
}

func (p Place[G, L, Req, Resp]) String() string {
	switch p.Kind {
	case GlobalPlace:
		return "G[" + ns.EscapeLabel(p.Global) + "]"
	case AdmissionPlace:
		return "Q[" + ns.EscapeLabel(p.Request) + "]"
	case LocalPlace:
		return "L[" + ns.EscapeLabel(p.Request) + "," + ns.EscapeLabel(p.Local) + "]"
	case ResponsePlace:
		return ns.ResponseLabel(p.Request, p.Response)
	}
	return fmt.Sprintf("Place(%d)", int(p.Kind))
}

// Encode builds the Petri net of n.
//
// Every transition is tagged with the ns.Step it performs, so a firing sequence
// reads back as a trace. Internal and completion transitions are created for
// every request kind.
func Encode[G, L, Req, Resp comparable](n *ns.NS[G, L, Req, Resp]) *petri.Net[Place[G, L, Req, Resp], ns.Step[G, L, Req, Resp]] {
	global := func(g G) Place[G, L, Req, Resp] { return Place[G, L, Req, Resp]{Kind: GlobalPlace, Global: g} }
	admission := func(r Req) Place[G, L, Req, Resp] { return Place[G, L, Req, Resp]{Kind: AdmissionPlace, Request: r} }
	local := func(r Req, l L) Place[G, L, Req, Resp] { return Place[G, L, Req, Resp]{Kind: LocalPlace, Request: r, Local: l} }

	net := petri.New[Place[G, L, Req, Resp], ns.Step[G, L, Req, Resp]](global(n.InitialGlobal))
	for _, r := range n.Requests {
		net.AddTransition(nil, []Place[G, L, Req, Resp]{admission(r.Request), local(r.Request, r.Local)},
			ns.Start[G, L, Req, Resp](r.Request, r.Local))
	}
	for _, req := range n.RequestKinds() {
		for _, t := range n.Transitions {
			net.AddTransition(
				[]Place[G, L, Req, Resp]{local(req, t.FromLocal), global(t.FromGlobal)},
				[]Place[G, L, Req, Resp]{local(req, t.ToLocal), global(t.ToGlobal)},
				ns.Internal[G, L, Req, Resp](req, t.FromLocal, t.FromGlobal, t.ToLocal, t.ToGlobal))
		}
		for _, resp := range n.Responses {
			net.AddTransition(
				[]Place[G, L, Req, Resp]{admission(req), local(req, resp.Local)},
				[]Place[G, L, Req, Resp]{{Kind: ResponsePlace, Request: req, Response: resp.Response}},
				ns.Complete[G, L, Req, Resp](req, resp.Local, resp.Response))
		}
	}
	return net
}

// Partition splits the named places of an encoding.
// Global places belong to neither set.
type Partition struct {
	// Places compared against the serialized behaviour
	Observable mapset.Set[string]
	// Places that are empty once no request is in flight
	MustBeZero mapset.Set[string]
}

func sorted(s mapset.Set[string]) []string {
	out := s.ToSlice()
	slices.Sort(out)
	return out
}

func (p Partition) ObservableList() []string { return sorted(p.Observable) }
func (p Partition) MustBeZeroList() []string { return sorted(p.MustBeZero) }

// EncodeNamed encodes n and renames its places to strings, filling the partition in the same pass
func EncodeNamed[G, L, Req, Resp comparable](n *ns.NS[G, L, Req, Resp]) (*petri.Net[string, ns.Step[G, L, Req, Resp]], Partition) {
	part := Partition{
		Observable: mapset.NewThreadUnsafeSet[string](),
		MustBeZero: mapset.NewThreadUnsafeSet[string](),
	}
	named := petri.Rename(Encode(n), func(p Place[G, L, Req, Resp]) string {
		name := p.String()
		switch p.Kind {
		case ResponsePlace:
			part.Observable.Add(name)
		case AdmissionPlace, LocalPlace:
			part.MustBeZero.Add(name)
		}
		return name
	})
	return named, part
}

// Trace reads a firing sequence of an encoding back as a Network System trace
func Trace[G, L, Req, Resp comparable](firings []ns.Step[G, L, Req, Resp]) ns.Trace[G, L, Req, Resp] {
	return ns.Trace[G, L, Req, Resp]{Steps: slices.Clone(firings)}
}
