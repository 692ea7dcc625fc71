package main

import (
	"net"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nsserial/certificate"
	"nsserial/config"
	"nsserial/nsGrpc"
)

var (
	endpoint   string
	serveDir   string
	serveLimit string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve certificate checks and verifications over gRPC",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if serveLimit != "" {
			var err error
			if cfg, err = config.Load(serveLimit); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("timeout") {
			cfg.Timeout = timeout.String()
		}
		lis, err := net.Listen("tcp", endpoint)
		if err != nil {
			return err
		}
		checker := certificate.NewChecker[string, string, string, string](cfg, logger)
		srv := nsGrpc.NewServer(checker, serveDir, logger)

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt)
		go func() {
			<-stop
			logger.Info("Shutting down")
			srv.Stop()
		}()
		if err := srv.Serve(lis); err != nil {
			logger.Error("Server stopped", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&endpoint, "endpoint", "localhost:12111", "Endpoint on which the server listens")
	serveCmd.Flags().StringVarP(&serveDir, "workdir", "w", "", "Parent directory of the certificates (default: temporary directories, removed after each check)")
	serveCmd.Flags().StringVarP(&serveLimit, "config", "c", "", "Engine configuration (YAML)")
}
