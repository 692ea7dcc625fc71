// Package ns models a Network System: client requests admitted into local
// states, internal transitions over (local, global) state pairs and responses
// leaving local states.
package ns

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Request admits a client request of kind Request into local state Local
type Request[Req, L comparable] struct {
	Request Req
	Local   L
}

// Response lets a client in local state Local complete with Response
type Response[L, Resp comparable] struct {
	Local    L
	Response Resp
}

// Transition moves any in-flight request at FromLocal to ToLocal while the global state moves from FromGlobal to ToGlobal
type Transition[G, L comparable] struct {
	FromLocal  L
	FromGlobal G
	ToLocal    L
	ToGlobal   G
}

func (r Request[Req, L]) String() string {
	return fmt.Sprintf("(%v, %v)", r.Request, r.Local)
}

func (r Response[L, Resp]) String() string {
	return fmt.Sprintf("(%v, %v)", r.Local, r.Response)
}

func (t Transition[G, L]) String() string {
	return fmt.Sprintf("(%v, %v, %v, %v)", t.FromLocal, t.FromGlobal, t.ToLocal, t.ToGlobal)
}

// NS is a Network System over global states G, local states L, requests Req and responses Resp.
//
// Requests, Responses and Transitions never contain duplicates and keep the order of insertion.
// Use the Add methods to keep that property.
type NS[G, L, Req, Resp comparable] struct {
	InitialGlobal G                   `json:"initial_global" yaml:"initial_global"`
	Requests      []Request[Req, L]   `json:"requests" yaml:"requests"`
	Responses     []Response[L, Resp] `json:"responses" yaml:"responses"`
	Transitions   []Transition[G, L]  `json:"transitions" yaml:"transitions"`
}

// Create a new Network System starting in the global state initial
func New[G, L, Req, Resp comparable](initial G) *NS[G, L, Req, Resp] {
	return &NS[G, L, Req, Resp]{InitialGlobal: initial}
}

func (n *NS[G, L, Req, Resp]) SetInitialGlobal(initial G) {
	n.InitialGlobal = initial
}

// Adding a request that is already present has no effect
func (n *NS[G, L, Req, Resp]) AddRequest(req Req, local L) {
	r := Request[Req, L]{Request: req, Local: local}
	if !slices.Contains(n.Requests, r) {
		n.Requests = append(n.Requests, r)
	}
}

// Adding a response that is already present has no effect
func (n *NS[G, L, Req, Resp]) AddResponse(local L, resp Resp) {
	r := Response[L, Resp]{Local: local, Response: resp}
	if !slices.Contains(n.Responses, r) {
		n.Responses = append(n.Responses, r)
	}
}

// Adding a transition that is already present has no effect
func (n *NS[G, L, Req, Resp]) AddTransition(fromLocal L, fromGlobal G, toLocal L, toGlobal G) {
	t := Transition[G, L]{FromLocal: fromLocal, FromGlobal: fromGlobal, ToLocal: toLocal, ToGlobal: toGlobal}
	if !slices.Contains(n.Transitions, t) {
		n.Transitions = append(n.Transitions, t)
	}
}

// MergeRequests adds the requests, transitions and responses of other to n.
// The initial global state of n is kept.
func (n *NS[G, L, Req, Resp]) MergeRequests(other *NS[G, L, Req, Resp]) {
	for _, r := range other.Requests {
		n.AddRequest(r.Request, r.Local)
	}
	for _, t := range other.Transitions {
		n.AddTransition(t.FromLocal, t.FromGlobal, t.ToLocal, t.ToGlobal)
	}
	for _, r := range other.Responses {
		n.AddResponse(r.Local, r.Response)
	}
}

func appendUnique[T comparable](s []T, vals ...T) []T {
	for _, v := range vals {
		if !slices.Contains(s, v) {
			s = append(s, v)
		}
	}
	return s
}

// LocalStates returns every local state mentioned by a request, response or transition
func (n *NS[G, L, Req, Resp]) LocalStates() []L {
	var out []L
	for _, r := range n.Requests {
		out = appendUnique(out, r.Local)
	}
	for _, r := range n.Responses {
		out = appendUnique(out, r.Local)
	}
	for _, t := range n.Transitions {
		out = appendUnique(out, t.FromLocal, t.ToLocal)
	}
	return out
}

// GlobalStates returns the initial global state followed by every global state mentioned by a transition
func (n *NS[G, L, Req, Resp]) GlobalStates() []G {
	out := []G{n.InitialGlobal}
	for _, t := range n.Transitions {
		out = appendUnique(out, t.FromGlobal, t.ToGlobal)
	}
	return out
}

// RequestKinds returns the distinct request values
func (n *NS[G, L, Req, Resp]) RequestKinds() []Req {
	var out []Req
	for _, r := range n.Requests {
		out = appendUnique(out, r.Request)
	}
	return out
}

// ResponseKinds returns the distinct response values
func (n *NS[G, L, Req, Resp]) ResponseKinds() []Resp {
	var out []Resp
	for _, r := range n.Responses {
		out = appendUnique(out, r.Response)
	}
	return out
}

func (n *NS[G, L, Req, Resp]) hasRequest(r Request[Req, L]) bool {
	return slices.Contains(n.Requests, r)
}

func (n *NS[G, L, Req, Resp]) hasResponse(r Response[L, Resp]) bool {
	return slices.Contains(n.Responses, r)
}

func (n *NS[G, L, Req, Resp]) hasTransition(t Transition[G, L]) bool {
	return slices.Contains(n.Transitions, t)
}

func (n *NS[G, L, Req, Resp]) String() string {
	return fmt.Sprintf("NS{initial: %v, requests: %v, responses: %v, transitions: %v}",
		n.InitialGlobal, n.Requests, n.Responses, n.Transitions)
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `/`, `\/`, `,`, `\,`, `[`, `\[`, `]`, `\]`)

// EscapeLabel renders v for use inside a place or dimension name. The
// separators "/", "," and brackets are escaped with a backslash, so names
// built from escaped components split back in exactly one way.
func EscapeLabel(v any) string {
	return labelEscaper.Replace(fmt.Sprint(v))
}

// ResponseLabel names the completion of req with resp
func ResponseLabel[Req, Resp comparable](req Req, resp Resp) string {
	return EscapeLabel(req) + "/" + EscapeLabel(resp)
}
