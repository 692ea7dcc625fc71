package ns

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringNS = NS[string, string, string, string]
type stringStep = Step[string, string, string, string]
type stringSerialized = SerializedStep[string, string, string]

func noTransitionNS() *stringNS {
	n := New[string, string, string, string]("G0")
	n.AddRequest("Req1", "L0")
	n.AddResponse("L0", "RespA")
	return n
}

func chainNS() *stringNS {
	n := New[string, string, string, string]("G0")
	n.AddRequest("Req1", "L0")
	n.AddTransition("L0", "G0", "L1", "G1")
	n.AddTransition("L1", "G1", "L2", "G2")
	n.AddResponse("L2", "Done")
	return n
}

func branchingNS() *stringNS {
	n := New[string, string, string, string]("G0")
	n.AddRequest("Read", "L0")
	n.AddRequest("Write", "L0")
	n.AddTransition("L0", "G0", "L1", "G0")
	n.AddTransition("L0", "G0", "L2", "G1")
	n.AddResponse("L1", "Left")
	n.AddResponse("L2", "Right")
	return n
}

func cycleNS() *stringNS {
	n := New[string, string, string, string]("G0")
	n.AddRequest("Req1", "L0")
	n.AddTransition("L0", "G0", "L0", "G0")
	n.AddResponse("L0", "RespA")
	return n
}

// Two increments racing on a counter: each reads the counter and writes back read+1.
func counterNS() *NS[int, string, string, string] {
	n := New[int, string, string, string](0)
	n.AddRequest("inc", "start")
	n.AddTransition("start", 0, "read0", 0)
	n.AddTransition("start", 1, "read1", 1)
	for _, g := range []int{0, 1} {
		n.AddTransition("read0", g, "done0", 1)
		n.AddTransition("read1", g, "done1", 1)
	}
	n.AddResponse("done0", "0")
	n.AddResponse("done1", "1")
	return n
}

func TestIdempotentInsert(t *testing.T) {
	n := chainNS()
	n.AddRequest("Req1", "L0")
	n.AddResponse("L2", "Done")
	n.AddTransition("L0", "G0", "L1", "G1")
	if len(n.Requests) != 1 || len(n.Responses) != 1 || len(n.Transitions) != 2 {
		t.Errorf("Expected 1 request, 1 response and 2 transitions, got %v", n)
	}
}

func TestEnumeration(t *testing.T) {
	n := branchingNS()
	assert.Equal(t, []string{"L0", "L1", "L2"}, n.LocalStates())
	assert.Equal(t, []string{"G0", "G1"}, n.GlobalStates())
	assert.Equal(t, []string{"Read", "Write"}, n.RequestKinds())
	assert.Equal(t, []string{"Left", "Right"}, n.ResponseKinds())

	lonely := New[string, string, string, string]("Init")
	assert.Equal(t, []string{"Init"}, lonely.GlobalStates())
}

func TestMergeRequests(t *testing.T) {
	n := noTransitionNS()
	other := New[string, string, string, string]("Other")
	other.AddRequest("Req1", "L0")
	other.AddRequest("Req2", "M0")
	other.AddTransition("M0", "G0", "M1", "G1")
	other.AddResponse("M1", "RespB")
	n.MergeRequests(other)

	assert.Equal(t, "G0", n.InitialGlobal)
	assert.Equal(t, []Request[string, string]{{"Req1", "L0"}, {"Req2", "M0"}}, n.Requests)
	assert.Len(t, n.Transitions, 1)
	assert.Equal(t, []Response[string, string]{{"L0", "RespA"}, {"M1", "RespB"}}, n.Responses)
}

func TestJSONFormat(t *testing.T) {
	n := New[string, string, string, string]("G0")
	n.AddRequest("Req1", "L0")
	n.AddResponse("L0", "RespA")
	n.AddTransition("L0", "G0", "L1", "G1")
	data, err := n.ToJSON()
	require.NoError(t, err)
	compact := strings.Join(strings.Fields(string(data)), "")
	assert.Equal(t, `{"initial_global":"G0","requests":[["Req1","L0"]],"responses":[["L0","RespA"]],"transitions":[["L0","G0","L1","G1"]]}`, compact)
}

func TestRoundTrip(t *testing.T) {
	systems := map[string]*stringNS{
		"empty":         New[string, string, string, string]("G0"),
		"no transition": noTransitionNS(),
		"chain":         chainNS(),
		"branching":     branchingNS(),
		"cycle":         cycleNS(),
	}
	for name, n := range systems {
		data, err := n.ToJSON()
		require.NoError(t, err, name)
		fromJSON, err := FromJSON[string, string, string, string](data)
		require.NoError(t, err, name)
		if diff := cmp.Diff(n, fromJSON, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%v: json round trip mismatch (-want +got):\n%s", name, diff)
		}

		data, err = n.ToYAML()
		require.NoError(t, err, name)
		fromYAML, err := FromYAML[string, string, string, string](data)
		require.NoError(t, err, name)
		if diff := cmp.Diff(n, fromYAML, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%v: yaml round trip mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestRoundTripIntStates(t *testing.T) {
	n := counterNS()
	data, err := n.ToJSON()
	require.NoError(t, err)
	got, err := FromJSON[int, string, string, string](data)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	n := branchingNS()
	for _, name := range []string{"ns.json", "ns.yaml", "ns.yml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, n.Save(path))
		got, err := Load[string, string, string, string](path)
		require.NoError(t, err)
		assert.Equal(t, n, got, name)
	}
	_, err := Load[string, string, string, string](filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestMalformedTuple(t *testing.T) {
	_, err := FromJSON[string, string, string, string]([]byte(`{"initial_global":"G0","requests":[["Req1"]]}`))
	assert.Error(t, err)
	_, err = FromYAML[string, string, string, string]([]byte("initial_global: G0\ntransitions:\n  - [L0, G0, L1]\n"))
	assert.Error(t, err)
}

func TestSerializedAutomaton(t *testing.T) {
	tests := []struct {
		name string
		ns   *stringNS
		want []stringSerialized
	}{
		{"no transition", noTransitionNS(), []stringSerialized{{"G0", "Req1", "RespA", "G0"}}},
		{"chain", chainNS(), []stringSerialized{{"G0", "Req1", "Done", "G2"}}},
		{"branching", branchingNS(), []stringSerialized{
			{"G0", "Read", "Left", "G0"},
			{"G0", "Read", "Right", "G1"},
			{"G0", "Write", "Left", "G0"},
			{"G0", "Write", "Right", "G1"},
		}},
		{"cycle", cycleNS(), []stringSerialized{{"G0", "Req1", "RespA", "G0"}}},
	}
	for _, test := range tests {
		got := test.ns.SerializedAutomaton()
		assert.ElementsMatch(t, test.want, got, test.name)
	}
}

func TestSerializedAutomatonFromEveryGlobal(t *testing.T) {
	got := counterNS().SerializedAutomaton()
	want := []SerializedStep[int, string, string]{
		{0, "inc", "0", 1},
		{1, "inc", "1", 1},
	}
	assert.ElementsMatch(t, want, got)
}

func TestSerializedRegex(t *testing.T) {
	assert.Equal(t, "Req1/RespA*", noTransitionNS().SerializedRegex().String())
	assert.Equal(t, "ε | Req1/Done", chainNS().SerializedRegex().String())
}

func TestSerializedSemilinear(t *testing.T) {
	s := counterNS().SerializedSemilinear()
	assert.True(t, s.Contains(map[string]int64{}))
	assert.True(t, s.Contains(map[string]int64{"inc/0": 1, "inc/1": 3}))
	assert.False(t, s.Contains(map[string]int64{"inc/0": 2}))
}

// Renders ("x", "y/k") and ("x/y", "k") the same way without escaping
func collidingNS() *NS[int, string, string, string] {
	n := New[int, string, string, string](0)
	n.AddRequest("x", "start")
	n.AddRequest("x/y", "bstart")
	n.AddTransition("start", 0, "read0", 0)
	n.AddTransition("start", 1, "read1", 1)
	for _, g := range []int{0, 1} {
		n.AddTransition("read0", g, "done0", 1)
		n.AddTransition("read1", g, "done1", 1)
		n.AddTransition("bstart", g, "done1", g)
	}
	n.AddResponse("done0", "y/k")
	n.AddResponse("done1", "k")
	return n
}

func TestResponseLabel(t *testing.T) {
	assert.Equal(t, "Req1/RespA", ResponseLabel("Req1", "RespA"))
	assert.Equal(t, "inc/0", ResponseLabel("inc", 0))
	assert.NotEqual(t, ResponseLabel("x", "y/k"), ResponseLabel("x/y", "k"))
	assert.NotEqual(t, ResponseLabel(`x\`, "k"), ResponseLabel("x", `\k`))
}

func TestIsSerialOutcome(t *testing.T) {
	type completion = Completion[string, string]
	var (
		xyk = completion{Request: "x", Response: "y/k"}
		xk  = completion{Request: "x", Response: "k"}
		xyK = completion{Request: "x/y", Response: "k"}
	)
	tests := []struct {
		completed map[completion]int
		want      bool
	}{
		{map[completion]int{}, true},
		{map[completion]int{xyk: 1, xyK: 3}, true},
		{map[completion]int{xyk: 1, xk: 2}, true},
		{map[completion]int{xyk: 2}, false},
		{map[completion]int{xk: 1}, false},
		{map[completion]int{xyk: 1, {Request: "x", Response: "z"}: 0}, true},
		{map[completion]int{{Request: "x", Response: "z"}: 1}, false},
	}
	n := collidingNS()
	for i, test := range tests {
		if got := n.IsSerialOutcome(test.completed); got != test.want {
			t.Errorf("Test %v: IsSerialOutcome(%v) = %v, want %v", i, test.completed, got, test.want)
		}
	}
}

// serialTrace finds a run of a single request that realises step
func serialTrace(n *stringNS, step stringSerialized) (Trace[string, string, string, string], bool) {
	type node struct{ local, global string }
	for _, r := range n.Requests {
		if r.Request != step.Request {
			continue
		}
		start := node{r.Local, step.From}
		parent := map[node]Transition[string, string]{}
		seen := map[node]bool{start: true}
		queue := []node{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if cur.global == step.To && n.hasResponse(Response[string, string]{cur.local, step.Response}) {
				var internal []stringStep
				for at := cur; at != start; {
					tr := parent[at]
					internal = append([]stringStep{Internal[string, string, string, string](step.Request, tr.FromLocal, tr.FromGlobal, tr.ToLocal, tr.ToGlobal)}, internal...)
					at = node{tr.FromLocal, tr.FromGlobal}
				}
				steps := []stringStep{Start[string, string, string, string](step.Request, r.Local)}
				steps = append(steps, internal...)
				steps = append(steps, Complete[string, string, string, string](step.Request, cur.local, step.Response))
				return Trace[string, string, string, string]{Steps: steps}, true
			}
			for _, tr := range n.Transitions {
				next := node{tr.ToLocal, tr.ToGlobal}
				if tr.FromLocal == cur.local && tr.FromGlobal == cur.global && !seen[next] {
					seen[next] = true
					parent[next] = tr
					queue = append(queue, next)
				}
			}
		}
	}
	return Trace[string, string, string, string]{}, false
}

func TestTraceAgreesWithAutomaton(t *testing.T) {
	for _, n := range []*stringNS{noTransitionNS(), chainNS(), branchingNS(), cycleNS()} {
		for _, step := range n.SerializedAutomaton() {
			trace, ok := serialTrace(n, step)
			if !ok {
				t.Errorf("No serial run found for %v", step)
				continue
			}
			from := *n
			from.SetInitialGlobal(step.From)
			completed, err := from.CheckTrace(trace)
			if err != nil {
				t.Errorf("Serial run for %v rejected: %v", step, err)
				continue
			}
			want := map[Completion[string, string]]int{{step.Request, step.Response}: 1}
			assert.Equal(t, want, completed)
		}
	}
}

func TestCheckTraceInterleaved(t *testing.T) {
	n := counterNS()
	type step = Step[int, string, string, string]
	trace := Trace[int, string, string, string]{Steps: []step{
		Start[int, string, string, string]("inc", "start"),
		Start[int, string, string, string]("inc", "start"),
		Internal[int, string, string, string]("inc", "start", 0, "read0", 0),
		Internal[int, string, string, string]("inc", "start", 0, "read0", 0),
		Internal[int, string, string, string]("inc", "read0", 0, "done0", 1),
		Internal[int, string, string, string]("inc", "read0", 1, "done0", 1),
		Complete[int, string, string, string]("inc", "done0", "0"),
		Complete[int, string, string, string]("inc", "done0", "0"),
	}}
	completed, err := n.CheckTrace(trace)
	require.NoError(t, err)
	assert.Equal(t, map[Completion[string, string]]int{{"inc", "0"}: 2}, completed)
}

func TestCheckTraceInFlight(t *testing.T) {
	n := chainNS()
	trace := Trace[string, string, string, string]{Steps: []stringStep{
		Start[string, string, string, string]("Req1", "L0"),
		Start[string, string, string, string]("Req1", "L0"),
		Internal[string, string, string, string]("Req1", "L0", "G0", "L1", "G1"),
	}}
	_, err := n.CheckTrace(trace)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInFlight))

	var inFlight *InFlightError[string, string]
	require.True(t, errors.As(err, &inFlight))
	assert.Equal(t, []Request[string, string]{{"Req1", "L0"}, {"Req1", "L1"}}, inFlight.Open)
	assert.Equal(t, "Requests still in flight at end of trace: [(Req1, L0), (Req1, L1)]", err.Error())
}

func TestCheckTraceErrors(t *testing.T) {
	n := chainNS()
	start := Start[string, string, string, string]("Req1", "L0")
	tests := []struct {
		name  string
		steps []stringStep
		want  string
	}{
		{
			"unknown request",
			[]stringStep{Start[string, string, string, string]("Req2", "L0")},
			"Step 0: Unknown request type or wrong initial state: (Req2, L0)",
		},
		{
			"global mismatch",
			[]stringStep{start, Internal[string, string, string, string]("Req1", "L1", "G1", "L2", "G2")},
			"Step 1: Global state mismatch: expected G0, found G1",
		},
		{
			"unknown transition",
			[]stringStep{start, Internal[string, string, string, string]("Req1", "L0", "G0", "L2", "G2")},
			"Step 1: Transition not found in NS: (L0, G0, L2, G2)",
		},
		{
			"no matching request",
			[]stringStep{Internal[string, string, string, string]("Req1", "L0", "G0", "L1", "G1")},
			"Step 0: No active request found matching: (Req1, L0)",
		},
		{
			"unknown response",
			[]stringStep{start, Complete[string, string, string, string]("Req1", "L0", "Done")},
			"Step 1: Response not found in NS: (L0, Done)",
		},
		{
			"completing an idle request",
			[]stringStep{Complete[string, string, string, string]("Req1", "L2", "Done")},
			"Step 0: No active request found matching: (Req1, L2)",
		},
	}
	for _, test := range tests {
		_, err := n.CheckTrace(Trace[string, string, string, string]{Steps: test.steps})
		var traceErr *TraceError
		if !errors.As(err, &traceErr) {
			t.Errorf("%v: expected a trace error, got %v", test.name, err)
			continue
		}
		assert.Equal(t, test.want, err.Error(), test.name)
	}
}

func TestTraceJSON(t *testing.T) {
	trace := Trace[string, string, string, string]{Steps: []stringStep{
		Start[string, string, string, string]("Req1", "L0"),
		Internal[string, string, string, string]("Req1", "L0", "G0", "L1", "G1"),
		Complete[string, string, string, string]("Req1", "L1", "RespA"),
	}}
	data, err := json.Marshal(trace)
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"RequestStart":{"request":"Req1","initial_local":"L0"}}`)
	assert.Contains(t, string(data), `{"RequestComplete":{"request":"Req1","final_local":"L1","response":"RespA"}}`)

	var got Trace[string, string, string, string]
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, trace, got)

	var bad stringStep
	assert.Error(t, json.Unmarshal([]byte(`{"Teleport":{}}`), &bad))
}

func TestGraphviz(t *testing.T) {
	n := chainNS()
	n.AddRequest("Log in", "L0")
	dot := n.ToGraphviz()
	for _, want := range []string{
		"digraph NetworkSystem {\n",
		"REQ_Log_in [label=\"Log in\"];",
		"L_L0 -> L_L1 [label=\"G0 → G1\", color=blue, penwidth=1.5];",
		"subgraph cluster_serialized {",
		"G_G0 [label=\"G0 (initial)\", penwidth=3, color=darkgreen];",
		"G_G0 -> G_G2 [label=\"Req1 / Done\"];",
	} {
		assert.Contains(t, dot, want)
	}
	assert.True(t, strings.HasSuffix(dot, "  }\n}\n"))
}
