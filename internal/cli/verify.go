package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/ppiankov/discountclaim/internal/model"
	"github.com/ppiankov/discountclaim/internal/signer"
)

var verifySigner string

var verifyCmd = &cobra.Command{
	Use:   "verify <address> <signedMessage>",
	Short: "Check that a signed message authorizes an address",
	Long: `Verify decodes an issued authorization, checks it was issued to <address>
and that its signature recovers to the signer address (from --signer, or
signer.address / signer.private_key in the configuration).

Example:
  discountclaim verify 0x70997970C51812dc3A010C7d01b50e0d17dc79C8 0x0000...`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifySigner, "signer", "", "expected signer address")
}

func runVerify(cmd *cobra.Command, args []string) error {
	claimer, err := model.ParseAddress(args[0])
	if err != nil {
		return err
	}

	expected, err := expectedSigner()
	if err != nil {
		return err
	}

	auth, err := signer.Decode(args[1])
	if err != nil {
		return fmt.Errorf("decode signed message: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "claimer:   %s\n", auth.Claimer.Hex())
	fmt.Fprintf(out, "expiry:    %d\n", auth.Expiry)

	recovered, err := signer.Recover(auth, expected)
	if err != nil {
		return fmt.Errorf("recover signer: %w", err)
	}
	fmt.Fprintf(out, "recovered: %s\n", recovered.Hex())

	if auth.Claimer != claimer {
		return fmt.Errorf("authorization was issued to %s, not %s", auth.Claimer.Hex(), claimer.Hex())
	}
	if recovered != expected {
		return fmt.Errorf("signature was not produced by %s", expected.Hex())
	}

	fmt.Fprintln(out, "✓ valid")
	return nil
}

func expectedSigner() (common.Address, error) {
	if verifySigner != "" {
		return model.ParseAddress(verifySigner)
	}

	cfg, err := loadConfig()
	if err != nil {
		return common.Address{}, err
	}
	if cfg.Signer.Address != "" {
		return model.ParseAddress(cfg.Signer.Address)
	}
	if cfg.Signer.PrivateKey != "" {
		s, err := signer.New(cfg.Signer.PrivateKey, "", cfg.Claim.ExpirySeconds)
		if err != nil {
			return common.Address{}, err
		}
		return s.Address(), nil
	}
	return common.Address{}, model.NewConfigError("no signer address: pass --signer or set signer.address", nil)
}
