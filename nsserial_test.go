package nsserial

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"nsserial/archive"
	"nsserial/certificate"
	"nsserial/config"
	"nsserial/ns"
)

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

func TestCheck(t *testing.T) {
	workdir := t.TempDir()
	res := Check(context.Background(), trivial(),
		WithWorkdir(workdir),
		WithLogger(zaptest.NewLogger(t)),
		Workers(2),
	)
	require.Equal(t, certificate.Serializable, res.Verdict, res.Certificate.String())
	assert.Empty(t, res.RunID)
	assert.FileExists(t, filepath.Join(workdir, certificate.File))

	assert.Equal(t, certificate.Serializable, Verify(context.Background(), trivial(), res.Certificate, Workers(1)))
}

func TestCheckCounterRace(t *testing.T) {
	res := Check(context.Background(), counterRace(),
		WithConfig(config.Engine{MaxRequests: 2, MaxDepth: 20, Timeout: "1m"}),
		WithWorkdir(t.TempDir()),
	)
	assert.Equal(t, certificate.NotSerializable, res.Verdict)
	assert.False(t, res.Verdict.Serializable())
}

func TestCheckArchives(t *testing.T) {
	a, err := archive.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer a.Close()

	res := Check(context.Background(), trivial(), WithWorkdir(t.TempDir()), WithArchive(a), Named("trivial"), Timeout(time.Minute))
	require.NotEmpty(t, res.RunID)

	runs, err := a.Recent(context.Background(), "trivial", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, certificate.Serializable.String(), runs[0].Verdict)
}

func TestCheckWithoutRequestsAdmitted(t *testing.T) {
	// No execution is explored, so the verdict rests on the invariant alone
	res := Check(context.Background(), trivial(), MaxRequests(0), MaxDepth(1), WithWorkdir(t.TempDir()))
	assert.Equal(t, certificate.Serializable, res.Verdict)
}
