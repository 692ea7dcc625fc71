// Command nsserial checks Network Systems for serializability.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"nsserial/ns"
)

type stringNS = ns.NS[string, string, string, string]

var (
	// Global flags
	verbose bool
	timeout time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "nsserial",
	Short: "Decide whether a Network System is serializable",
	Long: `nsserial reads a Network System (requests, responses and transitions over
local and global states) from a JSON or YAML file and decides whether every
interleaved execution completes the same requests with the same responses as
some serial execution.

Every verdict is backed by a certificate written to disk: an inductive
invariant, a counterexample trace, or the reason no determination was made.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Time limit of one analysis (0 for none)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(automatonCmd)
	rootCmd.AddCommand(dotCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
}

func loadSystem(path string) (*stringNS, error) {
	n, err := ns.Load[string, string, string, string](path)
	if err != nil {
		return nil, fmt.Errorf("failed to load network system: %w", err)
	}
	logger.Debug("Loaded network system",
		zap.String("path", path),
		zap.Int("requests", len(n.Requests)),
		zap.Int("responses", len(n.Responses)),
		zap.Int("transitions", len(n.Transitions)))
	return n, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	// Leave the engine room to report its own timeout before the command gives up
	return context.WithTimeout(context.Background(), 2*timeout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
