package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"solana-cert-mint/internal/mint"
	"solana-cert-mint/internal/solana"
)

func newDeriveCmd() *cobra.Command {
	var mintAddr, owner string

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive the token and metadata accounts of a mint (offline)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mintKey, err := solana.PublicKeyFromBase58(mintAddr)
			if err != nil {
				return fmt.Errorf("--mint: %w", err)
			}
			ownerKey, err := solana.PublicKeyFromBase58(owner)
			if err != nil {
				return fmt.Errorf("--owner: %w", err)
			}

			keys, err := mint.DeriveKeys(mintKey, ownerKey)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "mint:             %s\n", keys.Mint)
			fmt.Fprintf(w, "token account:    %s\n", keys.TokenAccount)
			fmt.Fprintf(w, "metadata account: %s\n", keys.MetadataAccount)
			return nil
		},
	}

	cmd.Flags().StringVar(&mintAddr, "mint", "", "mint address (base58)")
	cmd.Flags().StringVar(&owner, "owner", "", "token owner wallet (base58)")
	_ = cmd.MarkFlagRequired("mint")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
