package main

import (
	"fmt"
	"path/filepath"

	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nsserial"
	"nsserial/archive"
	"nsserial/certificate"
	"nsserial/config"
)

var (
	configPath  string
	workdir     string
	archivePath string
	maxRequests int
	maxDepth    int
	workers     int
	dump        bool
)

var checkCmd = &cobra.Command{
	Use:   "check <system>",
	Short: "Decide serializability and write a certificate",
	Long: `Decide whether the network system is serializable.

The certificate is written to <workdir>/certificate.json, read back and verified
before the verdict is printed. The explored search tree is written next to it
in Newick format. Without --workdir both files go to a temporary directory that
is removed afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <system> <certificate>",
	Short: "Verify an existing certificate",
	Args:  cobra.ExactArgs(2),
	RunE:  runVerify,
}

func init() {
	checkCmd.Flags().StringVarP(&configPath, "config", "c", "", "Engine configuration (YAML)")
	checkCmd.Flags().StringVarP(&workdir, "workdir", "w", "", "Directory receiving the certificate (default: a temporary directory, removed afterwards)")
	checkCmd.Flags().StringVar(&archivePath, "archive", "", "SQLite database recording the run")
	checkCmd.Flags().IntVar(&maxRequests, "max-requests", 0, "Requests admitted along one explored execution (default from config)")
	checkCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Firings along one explored execution (default from config)")
	checkCmd.Flags().BoolVar(&dump, "dump", false, "Dump the certificate structure")
	for _, c := range []*cobra.Command{checkCmd, verifyCmd} {
		c.Flags().IntVar(&workers, "workers", 0, "Goroutines checking a proof (default: one per CPU)")
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	n, err := loadSystem(args[0])
	if err != nil {
		return err
	}
	cfg := config.Default()
	if configPath != "" {
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	opts := []nsserial.CheckOption{
		nsserial.WithConfig(cfg),
		nsserial.WithLogger(logger),
		nsserial.WithWorkdir(workdir),
		nsserial.Named(filepath.Base(args[0])),
	}
	if cmd.Flags().Changed("timeout") || configPath == "" {
		opts = append(opts, nsserial.Timeout(timeout))
	}
	if maxRequests > 0 {
		opts = append(opts, nsserial.MaxRequests(maxRequests))
	}
	if maxDepth > 0 {
		opts = append(opts, nsserial.MaxDepth(maxDepth))
	}
	if workers > 0 {
		opts = append(opts, nsserial.Workers(workers))
	}
	if archivePath != "" {
		a, err := archive.Open(archivePath)
		if err != nil {
			return err
		}
		defer a.Close()
		opts = append(opts, nsserial.WithArchive(a))
	}

	ctx, cancel := commandContext()
	defer cancel()
	res := nsserial.Check(ctx, n, opts...)
	logger.Info("Analysis finished", zap.Stringer("verdict", res.Verdict), zap.Duration("elapsed", res.Duration))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Verdict: %v\n", res.Verdict)
	if dump {
		fmt.Fprintln(out, litter.Sdump(res.Certificate))
	} else {
		fmt.Fprintln(out, res.Certificate)
	}
	if res.RunID != "" {
		fmt.Fprintf(out, "Run: %v\n", res.RunID)
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	n, err := loadSystem(args[0])
	if err != nil {
		return err
	}
	d, err := certificate.Load[string, string, string, string](args[1])
	if err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}
	opts := []nsserial.VerifyOption{nsserial.WithLogger(logger)}
	if workers > 0 {
		opts = append(opts, nsserial.Workers(workers))
	}
	ctx, cancel := commandContext()
	defer cancel()
	v := nsserial.Verify(ctx, n, d, opts...)
	fmt.Fprintf(cmd.OutOrStdout(), "Verdict: %v\n", v)
	return nil
}
