package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/discountclaim/internal/pipeline"
	"github.com/ppiankov/discountclaim/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the claim endpoint over HTTP",
	Long: `Serve starts the HTTP service:

  GET /api/proofs/cb1?address=0x...   claim a discount authorization
  GET /healthz                        liveness

The process refuses to start when the signer key or schema identifiers are
missing or malformed.

Example:
  DISCOUNTCLAIM_SIGNER_PRIVATE_KEY=... discountclaim serve --addr :8080
  discountclaim serve --network base-sepolia --log-format console`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	p := pipeline.NewFromConfig(cfg, log)
	if err := p.ConfigErr(); err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Warn().Err(err).Msg("close pipeline")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("network", cfg.Network).
		Str("cache", cfg.Cache.Backend).
		Str("identity", cfg.Identity.Provider).
		Msg("starting discountclaim")

	if err := server.New(p, cfg.Server, log).Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
