// Package nsserial decides whether a Network System is serializable, that is
// whether every interleaved execution of its requests completes the same
// requests with the same responses as some serial execution.
//
// Check produces a certificate and derives the verdict from it after a round
// trip through the file system. Verify re-derives the verdict of an existing
// certificate.
package nsserial

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nsserial/archive"
	"nsserial/certificate"
	"nsserial/config"
	"nsserial/ns"
)

// Result of an analysis
type Result[G, L, Req, Resp comparable] struct {
	Verdict     certificate.Verdict
	Certificate certificate.Decision[G, L, Req, Resp]
	// Identifier of the archived run. Empty when no archive is configured.
	RunID    string
	Duration time.Duration
}

// Check decides whether n is serializable.
//
// See the CheckOptions for a full overview of possible options.
// Default values will be used if no value is provided.
// A failure to archive the result is logged and does not fail the analysis.
func Check[G, L, Req, Resp comparable](ctx context.Context, n *ns.NS[G, L, Req, Resp], opts ...CheckOption) Result[G, L, Req, Resp] {
	var (
		engine  = config.Default()
		workdir = ""
		name    = "unnamed"
		logger  = zap.NewNop()

		arch *archive.Archive
	)
	for _, opt := range opts {
		switch t := opt.(type) {
		case config.EngineOption:
			engine = t.Engine
		case config.MaxRequestsOption:
			engine.MaxRequests = t.MaxRequests
		case config.MaxDepthOption:
			engine.MaxDepth = t.MaxDepth
		case config.TimeoutOption:
			engine.Timeout = ""
			if t.Timeout > 0 {
				engine.Timeout = t.Timeout.String()
			}
		case config.WorkersOption:
			engine.Workers = t.N
		case config.LoggerOption:
			logger = t.Logger
		case config.WorkdirOption:
			workdir = t.Dir
		case config.ArchiveOption:
			arch = t.Archive
		case config.NameOption:
			name = t.Name
		}
	}

	start := time.Now()
	checker := certificate.NewChecker[G, L, Req, Resp](engine, logger)
	v, d := checker.IsSerializable(ctx, n, workdir)
	res := Result[G, L, Req, Resp]{Verdict: v, Certificate: d, Duration: time.Since(start)}

	if arch != nil {
		id, err := arch.Record(ctx, archive.Run{
			System:   name,
			Kind:     d.Kind.String(),
			Verdict:  v.String(),
			Message:  d.Message,
			Started:  start,
			Duration: res.Duration,
		})
		if err != nil {
			logger.Warn("Unable to archive run", zap.String("archive", arch.Path()), zap.Error(err))
		}
		res.RunID = id
	}
	return res
}

// Verify derives the verdict of certificate d for n without trusting how d was produced.
func Verify[G, L, Req, Resp comparable](ctx context.Context, n *ns.NS[G, L, Req, Resp], d certificate.Decision[G, L, Req, Resp], opts ...VerifyOption) certificate.Verdict {
	var (
		engine = config.Default()
		logger = zap.NewNop()
	)
	for _, opt := range opts {
		switch t := opt.(type) {
		case config.WorkersOption:
			engine.Workers = t.N
		case config.LoggerOption:
			logger = t.Logger
		}
	}
	return certificate.NewChecker[G, L, Req, Resp](engine, logger).Verify(ctx, n, d)
}
