package nspetri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsserial/ns"
)

func trivial() *ns.NS[string, string, string, string] {
	n := ns.New[string, string, string, string]("G0")
	n.AddRequest("Req1", "L0")
	n.AddResponse("L0", "RespA")
	return n
}

func TestPlaceNames(t *testing.T) {
	type place = Place[string, string, string, string]
	tests := []struct {
		place place
		want  string
	}{
		{place{Kind: GlobalPlace, Global: "G0"}, "G[G0]"},
		{place{Kind: AdmissionPlace, Request: "Req1"}, "Q[Req1]"},
		{place{Kind: LocalPlace, Request: "Req1", Local: "L0"}, "L[Req1,L0]"},
		{place{Kind: ResponsePlace, Request: "Req1", Response: "RespA"}, "Req1/RespA"},
		{place{Kind: LocalPlace, Request: "a,b", Local: "[c]"}, `L[a\,b,\[c\]]`},
		{place{Kind: ResponsePlace, Request: "x", Response: `y/k\`}, `x/y\/k\\`},
	}
	for _, test := range tests {
		if got := test.place.String(); got != test.want {
			t.Errorf("Expected %q, got %q", test.want, got)
		}
	}
}

func TestPlaceNamesAreInjective(t *testing.T) {
	type place = Place[string, string, string, string]
	places := []place{
		{Kind: ResponsePlace, Request: "x", Response: "y/k"},
		{Kind: ResponsePlace, Request: "x/y", Response: "k"},
		{Kind: LocalPlace, Request: "a,b", Local: "c"},
		{Kind: LocalPlace, Request: "a", Local: "b,c"},
		{Kind: GlobalPlace, Global: "0]/[1"},
		{Kind: ResponsePlace, Request: "G[0", Response: "[1]"},
		{Kind: AdmissionPlace, Request: `r\`},
		{Kind: AdmissionPlace, Request: `r\\`},
	}
	seen := map[string]place{}
	for _, p := range places {
		name := p.String()
		if other, ok := seen[name]; ok {
			t.Errorf("Places %+v and %+v are both named %q", other, p, name)
		}
		seen[name] = p
	}
}

func TestEncodeTrivial(t *testing.T) {
	net, part := EncodeNamed(trivial())
	assert.Equal(t, []string{"G[G0]", "Q[Req1]", "L[Req1,L0]", "Req1/RespA"}, net.Places())
	assert.Equal(t, []string{"Req1/RespA"}, part.ObservableList())
	assert.Equal(t, []string{"L[Req1,L0]", "Q[Req1]"}, part.MustBeZeroList())
	assert.False(t, part.MustBeZero.Contains("G[G0]"))
	assert.False(t, part.Observable.Contains("G[G0]"))

	require.Len(t, net.Transitions(), 2)
	start, complete := net.Transitions()[0], net.Transitions()[1]
	assert.Equal(t, ns.RequestStart, start.Tag.Kind)
	assert.Equal(t, ns.RequestComplete, complete.Tag.Kind)
	assert.Equal(t, map[string]int64{"Q[Req1]": -1, "L[Req1,L0]": -1, "Req1/RespA": 1}, complete.Delta())
}

func TestFiringSequenceIsATrace(t *testing.T) {
	n := ns.New[int, string, string, string](0)
	n.AddRequest("inc", "start")
	n.AddTransition("start", 0, "read0", 0)
	n.AddTransition("read0", 0, "done0", 1)
	n.AddResponse("done0", "0")
	net := Encode(n)

	m := net.InitialMarking()
	var fired []ns.Step[int, string, string, string]
	for progress := true; progress; {
		progress = false
		for _, tr := range net.Transitions() {
			// Admit a single request
			if tr.Tag.Kind == ns.RequestStart && len(fired) > 0 {
				continue
			}
			if tr.EnabledIn(m) {
				m = tr.FireIn(m)
				fired = append(fired, tr.Tag)
				progress = true
			}
		}
	}
	require.Len(t, fired, 4)
	completed, err := n.CheckTrace(Trace(fired))
	require.NoError(t, err)
	assert.Equal(t, map[ns.Completion[string, string]]int{{Request: "inc", Response: "0"}: 1}, completed)

	done := Place[int, string, string, string]{Kind: ResponsePlace, Request: "inc", Response: "0"}
	assert.Equal(t, int64(1), m[done])
}

func TestLivePlacesOfEncoding(t *testing.T) {
	n := trivial()
	n.AddRequest("Req2", "L9")
	n.AddTransition("L1", "G7", "L0", "G0")
	net, _ := EncodeNamed(n)
	live := net.LivePlaces()
	assert.True(t, live.Contains("G[G0]", "Q[Req1]", "L[Req1,L0]", "Req1/RespA", "Q[Req2]", "L[Req2,L9]"))
	assert.False(t, live.Contains("G[G7]"))
	assert.False(t, live.Contains("L[Req1,L1]"))
	assert.False(t, live.Contains("Req2/RespA"))
}
