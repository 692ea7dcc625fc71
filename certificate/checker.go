package certificate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nsserial/checking"
	"nsserial/config"
	"nsserial/ns"
	"nsserial/nspetri"
	"nsserial/reachability"
)

// Verdict is the outcome of verifying a certificate
type Verdict int

const (
	// The certificate proves that the system is serializable
	Serializable Verdict = iota
	// The certificate proves that the system is not serializable
	NotSerializable
	// The certificate proves nothing
	Unknown
)

func (v Verdict) String() string {
	switch v {
	case Serializable:
		return "serializable"
	case NotSerializable:
		return "not serializable"
	case Unknown:
		return "unknown"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// Serializable reports whether the verdict proves serializability.
// Unknown is conservatively treated as not serializable.
func (v Verdict) Serializable() bool {
	return v == Serializable
}

// Checker creates and verifies certificates for Network Systems over the given types
type Checker[G, L, Req, Resp comparable] struct {
	engine config.Engine
	logger *zap.Logger
}

func NewChecker[G, L, Req, Resp comparable](engine config.Engine, logger *zap.Logger) *Checker[G, L, Req, Resp] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker[G, L, Req, Resp]{engine: engine, logger: logger}
}

// CreateCertificate runs the reachability engine on the Petri encoding of n and
// converts its answer into a Decision. The engine writes its scratch files to workdir.
func (c *Checker[G, L, Req, Resp]) CreateCertificate(ctx context.Context, n *ns.NS[G, L, Req, Resp], workdir string) Decision[G, L, Req, Resp] {
	net, part := nspetri.EncodeNamed(n)
	problem := reachability.Problem[ns.Step[G, L, Req, Resp]]{
		Net:        net,
		Zero:       part.MustBeZeroList(),
		Observable: part.ObservableList(),
		Target:     n.SerializedSemilinear(),
	}
	c.logger.Debug("Encoded network system",
		zap.Int("places", len(net.Places())),
		zap.Int("transitions", len(net.Transitions())),
		zap.Stringer("target", problem.Target))

	d := reachability.IsReachabilitySetSubsetOfSemilinear(ctx, problem, reachability.Options{
		Engine:  c.engine,
		Workdir: workdir,
		Logger:  c.logger,
	})
	switch d.Outcome {
	case reachability.Proof:
		return WithInvariant[G, L, Req, Resp](d.Invariant)
	case reachability.Counterexample:
		return WithTrace(nspetri.Trace(d.Firings))
	}
	return WithTimeout[G, L, Req, Resp](d.Message)
}

// Verify derives the verdict from d without trusting how it was produced.
//
// An invariant is checked against the Petri encoding of n. A trace must replay
// against n and complete a multiset of requests that no serial execution
// completes. Anything else gives Unknown and a warning.
func (c *Checker[G, L, Req, Resp]) Verify(ctx context.Context, n *ns.NS[G, L, Req, Resp], d Decision[G, L, Req, Resp]) Verdict {
	if err := d.validate(); err != nil {
		c.logger.Warn("Malformed certificate", zap.Error(err))
		return Unknown
	}
	switch d.Kind {
	case InvariantKind:
		return c.verifyInvariant(ctx, n, d)
	case TraceKind:
		return c.verifyTrace(n, d)
	}
	c.logger.Warn("The analysis made no determination", zap.String("message", d.Message))
	return Unknown
}

func (c *Checker[G, L, Req, Resp]) verifyInvariant(ctx context.Context, n *ns.NS[G, L, Req, Resp], d Decision[G, L, Req, Resp]) Verdict {
	net, part := nspetri.EncodeNamed(n)
	target, err := n.SerializedSemilinear().Formula(part.ObservableList())
	if err != nil {
		c.logger.Warn("Unable to build the target formula", zap.Error(err))
		return Unknown
	}
	resp := checking.CheckProof(ctx, net, *d.Invariant, part.MustBeZeroList(), target, c.engine.Workers)
	ok, desc := resp.Response()
	if !ok {
		c.logger.Warn("Invariant rejected", zap.String("reason", desc))
		return Unknown
	}
	c.logger.Debug(desc)
	return Serializable
}

func (c *Checker[G, L, Req, Resp]) verifyTrace(n *ns.NS[G, L, Req, Resp], d Decision[G, L, Req, Resp]) Verdict {
	completed, err := n.CheckTrace(*d.Trace)
	if err != nil {
		c.logger.Warn("Counterexample does not replay", zap.Error(err))
		return Unknown
	}
	if n.IsSerialOutcome(completed) {
		c.logger.Warn("Counterexample completes requests like a serial execution", zap.String("completed", fmt.Sprint(completed)))
		return Unknown
	}
	return NotSerializable
}

// IsSerializable creates a certificate, writes it to workdir, reads it back and
// verifies the reloaded copy. If the certificate cannot be written or read the
// in-memory copy is verified instead. An empty workdir uses a fresh directory
// under the system temporary directory, removed again before returning.
//
// Returns the verdict together with the verified certificate.
func (c *Checker[G, L, Req, Resp]) IsSerializable(ctx context.Context, n *ns.NS[G, L, Req, Resp], workdir string) (Verdict, Decision[G, L, Req, Resp]) {
	run := uuid.NewString()
	logger := c.logger.With(zap.String("run", run))
	if workdir == "" {
		workdir = filepath.Join(os.TempDir(), TempPrefix+run)
		defer func() {
			if err := os.RemoveAll(workdir); err != nil {
				logger.Warn("Unable to remove work directory", zap.String("path", workdir), zap.Error(err))
			}
		}()
	}
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		logger.Warn("Unable to create work directory", zap.String("path", workdir), zap.Error(err))
	}

	scoped := &Checker[G, L, Req, Resp]{engine: c.engine, logger: logger}
	d := scoped.CreateCertificate(ctx, n, workdir)
	logger.Info("Certificate created", zap.Stringer("kind", d.Kind))

	path := filepath.Join(workdir, File)
	if err := Save(path, d); err != nil {
		logger.Warn("Unable to persist certificate, verifying it in memory", zap.String("path", path), zap.Error(err))
		return scoped.Verify(ctx, n, d), d
	}
	reloaded, err := Load[G, L, Req, Resp](path)
	if err != nil {
		logger.Warn("Unable to reload certificate, verifying it in memory", zap.String("path", path), zap.Error(err))
		return scoped.Verify(ctx, n, d), d
	}
	v := scoped.Verify(ctx, n, reloaded)
	logger.Info("Certificate verified", zap.String("path", path), zap.Stringer("verdict", v))
	return v, reloaded
}

// ParseVerdict is the inverse of Verdict.String
func ParseVerdict(s string) (Verdict, error) {
	for _, v := range []Verdict{Serializable, NotSerializable, Unknown} {
		if v.String() == s {
			return v, nil
		}
	}
	return Unknown, fmt.Errorf("certificate: unknown verdict %q", s)
}
