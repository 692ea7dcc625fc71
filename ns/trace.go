package ns

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

type StepKind int

const (
	RequestStart StepKind = iota
	InternalStep
	RequestComplete
)

func (k StepKind) String() string {
	switch k {
	case RequestStart:
		return "RequestStart"
	case InternalStep:
		return "InternalStep"
	case RequestComplete:
		return "RequestComplete"
	}
	return fmt.Sprintf("StepKind(%d)", int(k))
}

// Step is one event of an interleaved execution.
//
// A RequestStart admits Request into Local.
// An InternalStep moves Request from (FromLocal, FromGlobal) to (ToLocal, ToGlobal).
// A RequestComplete lets Request leave Local with Response.
type Step[G, L, Req, Resp comparable] struct {
	Kind       StepKind
	Request    Req
	Local      L
	FromLocal  L
	FromGlobal G
	ToLocal    L
	ToGlobal   G
	Response   Resp
}

func Start[G, L, Req, Resp comparable](req Req, local L) Step[G, L, Req, Resp] {
	return Step[G, L, Req, Resp]{Kind: RequestStart, Request: req, Local: local}
}

func Internal[G, L, Req, Resp comparable](req Req, fromLocal L, fromGlobal G, toLocal L, toGlobal G) Step[G, L, Req, Resp] {
	return Step[G, L, Req, Resp]{Kind: InternalStep, Request: req, FromLocal: fromLocal, FromGlobal: fromGlobal, ToLocal: toLocal, ToGlobal: toGlobal}
}

func Complete[G, L, Req, Resp comparable](req Req, local L, resp Resp) Step[G, L, Req, Resp] {
	return Step[G, L, Req, Resp]{Kind: RequestComplete, Request: req, Local: local, Response: resp}
}

func (s Step[G, L, Req, Resp]) String() string {
	switch s.Kind {
	case RequestStart:
		return fmt.Sprintf("start %v at %v", s.Request, s.Local)
	case InternalStep:
		return fmt.Sprintf("%v: (%v, %v) -> (%v, %v)", s.Request, s.FromLocal, s.FromGlobal, s.ToLocal, s.ToGlobal)
	case RequestComplete:
		return fmt.Sprintf("complete %v at %v with %v", s.Request, s.Local, s.Response)
	}
	return s.Kind.String()
}

type startJSON[L, Req comparable] struct {
	Request      Req `json:"request"`
	InitialLocal L   `json:"initial_local"`
}

type internalJSON[G, L, Req comparable] struct {
	Request    Req `json:"request"`
	FromLocal  L   `json:"from_local"`
	FromGlobal G   `json:"from_global"`
	ToLocal    L   `json:"to_local"`
	ToGlobal   G   `json:"to_global"`
}

type completeJSON[L, Req, Resp comparable] struct {
	Request    Req  `json:"request"`
	FinalLocal L    `json:"final_local"`
	Response   Resp `json:"response"`
}

// A step is encoded as an object with a single key naming its kind
func (s Step[G, L, Req, Resp]) MarshalJSON() ([]byte, error) {
	var body any
	switch s.Kind {
	case RequestStart:
		body = startJSON[L, Req]{Request: s.Request, InitialLocal: s.Local}
	case InternalStep:
		body = internalJSON[G, L, Req]{Request: s.Request, FromLocal: s.FromLocal, FromGlobal: s.FromGlobal, ToLocal: s.ToLocal, ToGlobal: s.ToGlobal}
	case RequestComplete:
		body = completeJSON[L, Req, Resp]{Request: s.Request, FinalLocal: s.Local, Response: s.Response}
	default:
		return nil, fmt.Errorf("ns: unknown step kind %d", int(s.Kind))
	}
	return json.Marshal(map[string]any{s.Kind.String(): body})
}

func (s *Step[G, L, Req, Resp]) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("ns: a step needs exactly one kind, got %d", len(raw))
	}
	for kind, body := range raw {
		switch kind {
		case "RequestStart":
			var b startJSON[L, Req]
			if err := json.Unmarshal(body, &b); err != nil {
				return err
			}
			*s = Start[G, L, Req, Resp](b.Request, b.InitialLocal)
		case "InternalStep":
			var b internalJSON[G, L, Req]
			if err := json.Unmarshal(body, &b); err != nil {
				return err
			}
			*s = Internal[G, L, Req, Resp](b.Request, b.FromLocal, b.FromGlobal, b.ToLocal, b.ToGlobal)
		case "RequestComplete":
			var b completeJSON[L, Req, Resp]
			if err := json.Unmarshal(body, &b); err != nil {
				return err
			}
			*s = Complete[G, L, Req, Resp](b.Request, b.FinalLocal, b.Response)
		default:
			return fmt.Errorf("ns: unknown step kind %q", kind)
		}
	}
	return nil
}

// Trace is an interleaved execution of a Network System
type Trace[G, L, Req, Resp comparable] struct {
	Steps []Step[G, L, Req, Resp] `json:"steps"`
}

func (t Trace[G, L, Req, Resp]) String() string {
	out := strings.Builder{}
	for i, s := range t.Steps {
		fmt.Fprintf(&out, "%3d: %v\n", i, s)
	}
	return out.String()
}

// ErrInFlight is matched by the error returned when a trace ends with open requests
var ErrInFlight = errors.New("requests still in flight at end of trace")

// TraceError describes the first step of a trace that the Network System cannot perform
type TraceError struct {
	Step int
	Msg  string
}

func (e *TraceError) Error() string {
	return fmt.Sprintf("Step %d: %s", e.Step, e.Msg)
}

// InFlightError lists the requests that never completed
type InFlightError[Req, L comparable] struct {
	Open []Request[Req, L]
}

func (e *InFlightError[Req, L]) Error() string {
	open := make([]string, len(e.Open))
	for i, r := range e.Open {
		open[i] = r.String()
	}
	return fmt.Sprintf("Requests still in flight at end of trace: [%v]", strings.Join(open, ", "))
}

func (e *InFlightError[Req, L]) Is(target error) bool {
	return target == ErrInFlight
}

// Completion is a request that finished with a response
type Completion[Req, Resp comparable] struct {
	Request  Req
	Response Resp
}

// CheckTrace replays trace against the Network System.
//
// Returns the multiset of completed requests if every step is allowed and no
// request is left in flight. Otherwise returns a *TraceError naming the first
// offending step, or an *InFlightError.
func (n *NS[G, L, Req, Resp]) CheckTrace(trace Trace[G, L, Req, Resp]) (map[Completion[Req, Resp]]int, error) {
	global := n.InitialGlobal
	var inFlight []Request[Req, L]
	completed := make(map[Completion[Req, Resp]]int)

	take := func(r Request[Req, L]) bool {
		i := slices.Index(inFlight, r)
		if i < 0 {
			return false
		}
		inFlight = slices.Delete(inFlight, i, i+1)
		return true
	}

	for i, s := range trace.Steps {
		switch s.Kind {
		case RequestStart:
			r := Request[Req, L]{Request: s.Request, Local: s.Local}
			if !n.hasRequest(r) {
				return nil, &TraceError{Step: i, Msg: fmt.Sprintf("Unknown request type or wrong initial state: %v", r)}
			}
			inFlight = append(inFlight, r)
		case InternalStep:
			if s.FromGlobal != global {
				return nil, &TraceError{Step: i, Msg: fmt.Sprintf("Global state mismatch: expected %v, found %v", global, s.FromGlobal)}
			}
			t := Transition[G, L]{FromLocal: s.FromLocal, FromGlobal: s.FromGlobal, ToLocal: s.ToLocal, ToGlobal: s.ToGlobal}
			if !n.hasTransition(t) {
				return nil, &TraceError{Step: i, Msg: fmt.Sprintf("Transition not found in NS: %v", t)}
			}
			from := Request[Req, L]{Request: s.Request, Local: s.FromLocal}
			if !take(from) {
				return nil, &TraceError{Step: i, Msg: fmt.Sprintf("No active request found matching: %v", from)}
			}
			inFlight = append(inFlight, Request[Req, L]{Request: s.Request, Local: s.ToLocal})
			global = s.ToGlobal
		case RequestComplete:
			resp := Response[L, Resp]{Local: s.Local, Response: s.Response}
			if !n.hasResponse(resp) {
				return nil, &TraceError{Step: i, Msg: fmt.Sprintf("Response not found in NS: %v", resp)}
			}
			r := Request[Req, L]{Request: s.Request, Local: s.Local}
			if !take(r) {
				return nil, &TraceError{Step: i, Msg: fmt.Sprintf("No active request found matching: %v", r)}
			}
			completed[Completion[Req, Resp]{Request: s.Request, Response: s.Response}]++
		default:
			return nil, &TraceError{Step: i, Msg: fmt.Sprintf("Unknown step kind %v", s.Kind)}
		}
	}
	if len(inFlight) > 0 {
		return nil, &InFlightError[Req, L]{Open: inFlight}
	}
	return completed, nil
}
