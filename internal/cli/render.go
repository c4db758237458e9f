package cli

import (
	"context"

	"github.com/spf13/cobra"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/orchestrator"
)

func newRenderCmd(root *rootOptions) *cobra.Command {
	opts := &issueOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a certificate and upload its image without minting",
		Long: `Render draws the certificate, uploads the PNG to the content store and
prints the certificate ID and image locator. Nothing is minted and no
issuance record is stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, root, func(ctx context.Context, o *orchestrator.Orchestrator) (domain.IssuedCertificate, error) {
				return o.Render(ctx, domain.CertificateFact{
					Name:     opts.name,
					Activity: opts.activity,
					Date:     opts.date,
					ID:       opts.id,
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "recipient name")
	cmd.Flags().StringVar(&opts.activity, "activity", "", "activity or event label")
	cmd.Flags().StringVar(&opts.date, "date", "", "issuance date as printed")
	cmd.Flags().StringVar(&opts.id, "id", "", "certificate ID (default: generated UUID)")
	for _, f := range []string{"name", "activity", "date"} {
		_ = cmd.MarkFlagRequired(f)
	}
	addRunFlags(cmd, root)

	return cmd
}
