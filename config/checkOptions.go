package config

import (
	"time"

	"nsserial/archive"
)

// Configures how many requests may be admitted along one explored execution

// Default value is 3
type MaxRequestsOption struct{ MaxRequests int }

func (mro MaxRequestsOption) CheckOpt() {}

// Configures how many firings one explored execution may contain

// Default value is 64
type MaxDepthOption struct{ MaxDepth int }

func (mdo MaxDepthOption) CheckOpt() {}

// Configures the time limit of one analysis. Zero means no limit.

// Default value is one minute
type TimeoutOption struct{ Timeout time.Duration }

func (to TimeoutOption) CheckOpt() {}

// Replaces every engine limit at once, typically with a configuration read by Load.
// Options given after it still apply.
type EngineOption struct{ Engine Engine }

func (eo EngineOption) CheckOpt() {}

// Configures the directory receiving the certificate and the search tree

// Default value is a fresh directory under the system temporary directory
type WorkdirOption struct{ Dir string }

func (wo WorkdirOption) CheckOpt() {}

// Configures an archive recording the outcome of every analysis

// Default value is no archive
type ArchiveOption struct{ Archive *archive.Archive }

func (ao ArchiveOption) CheckOpt() {}

// Configures the name under which the analysis is archived

// Default value is "unnamed"
type NameOption struct{ Name string }

func (no NameOption) CheckOpt() {}
