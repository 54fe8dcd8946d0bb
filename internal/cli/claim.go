package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/discountclaim/internal/model"
	"github.com/ppiankov/discountclaim/internal/pipeline"
)

var claimTimeout time.Duration

var claimCmd = &cobra.Command{
	Use:   "claim <address>",
	Short: "Run one claim and print the response",
	Long: `Claim runs the same flow as the HTTP endpoint for a single address and
prints the JSON response. The claim is recorded in the configured store.

Example:
  discountclaim claim 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266`,
	Args: cobra.ExactArgs(1),
	RunE: runClaim,
}

func init() {
	rootCmd.AddCommand(claimCmd)

	claimCmd.Flags().DurationVar(&claimTimeout, "timeout", 30*time.Second, "overall claim timeout")
}

func runClaim(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), claimTimeout)
	defer cancel()

	p, closeFn, err := buildPipeline()
	if err != nil {
		return err
	}
	defer closeFn()

	resp, err := p.Claim(ctx, args[0])
	if err != nil {
		return fmt.Errorf("claim failed (%d): %w", model.StatusCode(err), err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// buildPipeline loads configuration and wires a pipeline, failing on
// configuration errors.
func buildPipeline() (*pipeline.Pipeline, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	p := pipeline.NewFromConfig(cfg, log)
	if err := p.ConfigErr(); err != nil {
		return nil, nil, err
	}
	return p, func() {
		if err := p.Close(); err != nil {
			log.Warn().Err(err).Msg("close pipeline")
		}
	}, nil
}
