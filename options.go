package nsserial

import (
	"time"

	"go.uber.org/zap"

	"nsserial/archive"
	"nsserial/config"
)

// An option used to configure Check
type CheckOption interface {
	// noop method
	CheckOpt()
}

// An option used to configure Verify
type VerifyOption interface {
	// noop method
	VerifyOpt()
}

// An option accepted by both Check and Verify
type SharedOption interface {
	CheckOption
	VerifyOption
}

// Configure the maximum number of requests admitted along one explored execution.
//
// Default value is 3.
//
// The bound only limits the counterexample search. Invariants found afterwards hold for any number of requests.
func MaxRequests(n int) CheckOption {
	return config.MaxRequestsOption{MaxRequests: n}
}

// Configure the maximum number of firings along one explored execution.
//
// Default value is 64.
func MaxDepth(maxDepth int) CheckOption {
	return config.MaxDepthOption{MaxDepth: maxDepth}
}

// Configure the time limit of the analysis. Zero means no limit.
//
// Default value is one minute.
// When the limit is reached the certificate is a timeout and the verdict is Unknown.
func Timeout(d time.Duration) CheckOption {
	return config.TimeoutOption{Timeout: d}
}

// Use the engine limits of cfg, typically read with config.Load.
// Options given after WithConfig override its fields.
func WithConfig(cfg config.Engine) CheckOption {
	return config.EngineOption{Engine: cfg}
}

// Write the certificate and the search tree to dir.
//
// Default value is a fresh directory under the system temporary directory, removed once the certificate is verified.
func WithWorkdir(dir string) CheckOption {
	return config.WorkdirOption{Dir: dir}
}

// Record the outcome of the analysis in a.
func WithArchive(a *archive.Archive) CheckOption {
	return config.ArchiveOption{Archive: a}
}

// Name the analysed system in the archive.
func Named(name string) CheckOption {
	return config.NameOption{Name: name}
}

// Configure the number of goroutines checking the transitions of a proof.
//
// Default value is the number of CPUs
func Workers(n int) SharedOption {
	return config.WorkersOption{N: n}
}

// Send progress and warnings to logger.
//
// Default value is a no-op logger
func WithLogger(logger *zap.Logger) SharedOption {
	return config.LoggerOption{Logger: logger}
}
