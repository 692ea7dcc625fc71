package reachability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"nsserial/checking"
	"nsserial/config"
	"nsserial/ns"
	"nsserial/nspetri"
)

func problemOf[G comparable](n *ns.NS[G, string, string, string]) Problem[ns.Step[G, string, string, string]] {
	net, part := nspetri.EncodeNamed(n)
	return Problem[ns.Step[G, string, string, string]]{
		Net:        net,
		Zero:       part.MustBeZeroList(),
		Observable: part.ObservableList(),
		Target:     n.SerializedSemilinear(),
	}
}

func trivial() *ns.NS[string, string, string, string] {
	n := ns.New[string, string, string, string]("G0")
	n.AddRequest("Req1", "L0")
	n.AddResponse("L0", "RespA")
	return n
}

func counterRace() *ns.NS[int, string, string, string] {
	n := ns.New[int, string, string, string](0)
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

func options(t *testing.T) Options {
	return Options{Engine: config.Default(), Workdir: t.TempDir(), Logger: zaptest.NewLogger(t)}
}

func TestTrivialSystemHasProof(t *testing.T) {
	p := problemOf(trivial())
	opts := options(t)
	d := IsReachabilitySetSubsetOfSemilinear(context.Background(), p, opts)
	require.Equal(t, Proof, d.Outcome, d.Message)
	assert.ElementsMatch(t, p.Net.Places(), d.Invariant.Variables)

	target, err := p.Target.Formula(p.Observable)
	require.NoError(t, err)
	ok, desc := checking.CheckProof(context.Background(), p.Net, d.Invariant, p.Zero, target, 1).Response()
	assert.True(t, ok, desc)

	nwk, err := os.ReadFile(filepath.Join(opts.Workdir, SearchTreeFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(nwk), "("))
	assert.True(t, strings.HasSuffix(string(nwk), ";"))
}

func TestCounterRaceHasCounterexample(t *testing.T) {
	n := counterRace()
	d := IsReachabilitySetSubsetOfSemilinear(context.Background(), problemOf(n), options(t))
	require.Equal(t, Counterexample, d.Outcome, d.Message)
	assert.Len(t, d.Firings, 8)

	completed, err := n.CheckTrace(nspetri.Trace(d.Firings))
	require.NoError(t, err)
	assert.Equal(t, map[ns.Completion[string, string]]int{{Request: "inc", Response: "0"}: 2}, completed)
}

func TestCancelledSearchTimesOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := options(t)
	opts.Workdir = ""
	d := IsReachabilitySetSubsetOfSemilinear(ctx, problemOf(counterRace()), opts)
	assert.Equal(t, Timeout, d.Outcome)
	assert.Contains(t, d.Message, "interrupted")
}

func TestInvalidTimeout(t *testing.T) {
	opts := options(t)
	opts.Timeout = "soon"
	d := IsReachabilitySetSubsetOfSemilinear(context.Background(), problemOf(trivial()), opts)
	assert.Equal(t, Timeout, d.Outcome)
	assert.Contains(t, d.Message, "invalid timeout")
}

func TestCandidatesCoverAllPlaces(t *testing.T) {
	n := trivial()
	n.AddRequest("Req2", "L9")
	p := problemOf(n)
	candidates, err := Candidates(p)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	for _, c := range candidates {
		assert.ElementsMatch(t, p.Net.Places(), c.Variables)
	}
}

func TestObservableOutsideNet(t *testing.T) {
	p := problemOf(trivial())
	p.Observable = append(p.Observable, "nowhere")
	_, err := Candidates(p)
	assert.Error(t, err)
}
