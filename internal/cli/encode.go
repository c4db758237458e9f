package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/metaplex"
	"solana-cert-mint/internal/solana"
)

func newEncodeCmd() *cobra.Command {
	var name, uri, creator string
	var raw bool

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Hex-dump the create-metadata-v3 instruction data (offline)",
		Long: `Encode prints the instruction data the mint pipeline would submit for
the given recipient name and metadata URI. The certificate prefix is added
to the name unless --raw is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creatorKey, err := solana.PublicKeyFromBase58(creator)
			if err != nil {
				return fmt.Errorf("--creator: %w", err)
			}
			if !raw {
				name = domain.PrefixedName(name)
			}

			data, err := metaplex.EncodeCreateMetadataV3(name, domain.CertificateSymbol, uri, creatorKey)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "name:   %s\n", name)
			fmt.Fprintf(w, "length: %d\n", len(data))
			fmt.Fprintf(w, "data:   %s\n", hex.EncodeToString(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "recipient name")
	cmd.Flags().StringVar(&uri, "uri", "", "metadata URI")
	cmd.Flags().StringVar(&creator, "creator", "", "creator address (base58)")
	cmd.Flags().BoolVar(&raw, "raw", false, "encode --name as given, without the certificate prefix")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("uri")
	_ = cmd.MarkFlagRequired("creator")
	return cmd
}
