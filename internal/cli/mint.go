package cli

import (
	"context"

	"github.com/spf13/cobra"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/orchestrator"
)

type mintOptions struct {
	issueOptions
	uri string
}

func newMintCmd(root *rootOptions) *cobra.Command {
	opts := &mintOptions{}

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a certificate against an uploaded metadata document",
		Long: `Mint skips rendering and uploads and runs only the on-chain protocol
against --uri, which must be an ipfs:// or ar:// locator. The certificate
fields are still required: they name the token and key the stored record.

Example:
  certmint mint --uri ipfs://QmMetadata --name "Test User" --activity "Test Event" \
    --date 2024-06-01 --recipient 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, root, func(ctx context.Context, o *orchestrator.Orchestrator) (domain.IssuedCertificate, error) {
				return o.MintExisting(ctx, orchestrator.MintRequest{
					Fact: domain.CertificateFact{
						Name:     opts.name,
						Activity: opts.activity,
						Date:     opts.date,
						ID:       opts.id,
					},
					MetadataURI:      domain.ContentLocator(opts.uri),
					RecipientAddress: opts.recipient,
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.uri, "uri", "", "metadata locator (ipfs://... or ar://...)")
	cmd.Flags().StringVar(&opts.name, "name", "", "recipient name")
	cmd.Flags().StringVar(&opts.activity, "activity", "", "activity or event label")
	cmd.Flags().StringVar(&opts.date, "date", "", "issuance date as printed")
	cmd.Flags().StringVar(&opts.recipient, "recipient", "", "recipient wallet (base58)")
	cmd.Flags().StringVar(&opts.id, "id", "", "certificate ID (default: generated UUID)")
	for _, f := range []string{"uri", "name", "activity", "date", "recipient"} {
		_ = cmd.MarkFlagRequired(f)
	}
	addRunFlags(cmd, root)

	return cmd
}
