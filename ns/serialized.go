package ns

import (
	"fmt"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"

	"nsserial/kleene"
	"nsserial/semilinear"
)

// SerializedStep records that from global state From, admitting Request and
// running it alone until it completes with Response can leave the global state in To.
type SerializedStep[G, Req, Resp comparable] struct {
	From     G
	Request  Req
	Response Resp
	To       G
}

func (s SerializedStep[G, Req, Resp]) String() string {
	return fmt.Sprintf("%v --%v/%v--> %v", s.From, s.Request, s.Response, s.To)
}

type localGlobal[G, L comparable] struct {
	local  L
	global G
}

type outcome[G, Resp comparable] struct {
	response Resp
	global   G
}

// SerializedAutomaton returns the executions of single requests run without interleaving.
//
// For every global state and every request, the (local, global) pairs reachable
// through transitions are explored, and every response available at a reached
// local state gives one step. The result contains no duplicates.
func (n *NS[G, L, Req, Resp]) SerializedAutomaton() []SerializedStep[G, Req, Resp] {
	var out []SerializedStep[G, Req, Resp]
	for _, g := range n.GlobalStates() {
		for _, r := range n.Requests {
			start := localGlobal[G, L]{local: r.Local, global: g}
			reached := mapset.NewThreadUnsafeSet(start)
			worklist := []localGlobal[G, L]{start}
			order := []localGlobal[G, L]{start}
			for len(worklist) > 0 {
				cur := worklist[len(worklist)-1]
				worklist = worklist[:len(worklist)-1]
				for _, t := range n.Transitions {
					if t.FromLocal != cur.local || t.FromGlobal != cur.global {
						continue
					}
					next := localGlobal[G, L]{local: t.ToLocal, global: t.ToGlobal}
					if reached.Add(next) {
						worklist = append(worklist, next)
						order = append(order, next)
					}
				}
			}

			found := mapset.NewThreadUnsafeSet[outcome[G, Resp]]()
			for _, lg := range order {
				for _, resp := range n.Responses {
					if resp.Local != lg.local {
						continue
					}
					if found.Add(outcome[G, Resp]{response: resp.Response, global: lg.global}) {
						out = append(out, SerializedStep[G, Req, Resp]{From: g, Request: r.Request, Response: resp.Response, To: lg.global})
					}
				}
			}
		}
	}
	return out
}

// SerializedKleene folds the serialized automaton into a value of a Kleene algebra.
// Each step is labelled with atom(request, response) and paths start in the initial global state.
func SerializedKleene[G, L, Req, Resp comparable, K any](n *NS[G, L, Req, Resp], alg kleene.Algebra[K], atom func(Req, Resp) K) K {
	var edges []kleene.Edge[G, K]
	for _, s := range n.SerializedAutomaton() {
		edges = append(edges, kleene.Edge[G, K]{From: s.From, Label: atom(s.Request, s.Response), To: s.To})
	}
	return kleene.FromNFA(alg, edges, n.InitialGlobal)
}

// SerializedRegex is the language of serial executions with atoms "request/response"
func (n *NS[G, L, Req, Resp]) SerializedRegex() kleene.Regex {
	return SerializedKleene[G, L, Req, Resp, kleene.Regex](n, kleene.RegexAlgebra{}, func(req Req, resp Resp) kleene.Regex {
		return kleene.Atom(ResponseLabel(req, resp))
	})
}

// SerializedSemilinear counts the completions of serial executions, one dimension per "request/response" label
func (n *NS[G, L, Req, Resp]) SerializedSemilinear() semilinear.Set {
	return SerializedKleene[G, L, Req, Resp, semilinear.Set](n, semilinear.Algebra{}, func(req Req, resp Resp) semilinear.Set {
		return semilinear.Atom(ResponseLabel(req, resp))
	})
}

// IsSerialOutcome reports whether some serial execution completes exactly the
// requests counted in completed. Dimensions are assigned per Completion, never
// through a rendered label.
func (n *NS[G, L, Req, Resp]) IsSerialOutcome(completed map[Completion[Req, Resp]]int) bool {
	dims := map[Completion[Req, Resp]]string{}
	dim := func(c Completion[Req, Resp]) string {
		d, ok := dims[c]
		if !ok {
			d = strconv.Itoa(len(dims))
			dims[c] = d
		}
		return d
	}
	serial := SerializedKleene[G, L, Req, Resp, semilinear.Set](n, semilinear.Algebra{}, func(req Req, resp Resp) semilinear.Set {
		return semilinear.Atom(dim(Completion[Req, Resp]{Request: req, Response: resp}))
	})
	observed := semilinear.Vector{}
	for c, count := range completed {
		if count != 0 {
			observed[dim(c)] = int64(count)
		}
	}
	return serial.Contains(observed)
}
