package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"solana-cert-mint/internal/app"
	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/orchestrator"
)

type issueOptions struct {
	name      string
	activity  string
	date      string
	recipient string
	id        string
}

func newIssueCmd(root *rootOptions) *cobra.Command {
	opts := &issueOptions{}

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Render, upload and mint one certificate",
		Long: `Issue runs the whole pipeline for one certificate and prints the result
as JSON. On a partial failure the addresses and signatures committed
before the failing stage are printed as well.

Example:
  certmint issue --name "Test User" --activity "Test Event" --date 2024-06-01 \
    --recipient 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIssue(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "recipient name")
	cmd.Flags().StringVar(&opts.activity, "activity", "", "activity or event label")
	cmd.Flags().StringVar(&opts.date, "date", "", "issuance date as printed")
	cmd.Flags().StringVar(&opts.recipient, "recipient", "", "recipient wallet (base58)")
	cmd.Flags().StringVar(&opts.id, "id", "", "certificate ID (default: generated UUID)")
	for _, f := range []string{"name", "activity", "date", "recipient"} {
		_ = cmd.MarkFlagRequired(f)
	}

	addRunFlags(cmd, root)

	return cmd
}

// addRunFlags adds the flags of commands that build the pipeline. They are
// bound into viper when the command runs, so sibling commands do not
// overwrite each other's bindings.
func addRunFlags(cmd *cobra.Command, root *rootOptions) {
	cmd.Flags().String("rpc-endpoint", "", "Solana RPC HTTP endpoint")
	cmd.Flags().Bool("use-memory", false, "use in-memory storage instead of PostgreSQL/ClickHouse")
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		if err := root.v.BindPFlag("rpc_endpoint", cmd.Flags().Lookup("rpc-endpoint")); err != nil {
			return err
		}
		return root.v.BindPFlag("use_memory", cmd.Flags().Lookup("use-memory"))
	}
}

// issueOutput is printed for complete and partial runs.
type issueOutput struct {
	CertificateID string             `json:"certificateId"`
	ImageURI      string             `json:"imageUri,omitempty"`
	MetadataURI   string             `json:"metadataUri,omitempty"`
	Mint          *domain.MintResult `json:"mint,omitempty"`
	Error         string             `json:"error,omitempty"`
}

func runIssue(cmd *cobra.Command, root *rootOptions, opts *issueOptions) error {
	return runPipeline(cmd, root, func(ctx context.Context, o *orchestrator.Orchestrator) (domain.IssuedCertificate, error) {
		return o.Issue(ctx, orchestrator.Request{
			Fact: domain.CertificateFact{
				Name:     opts.name,
				Activity: opts.activity,
				Date:     opts.date,
				ID:       opts.id,
			},
			RecipientAddress: opts.recipient,
		})
	})
}

// runPipeline builds the app from config, runs fn and prints its result as
// JSON, including partial results of failed runs.
func runPipeline(cmd *cobra.Command, root *rootOptions, fn func(context.Context, *orchestrator.Orchestrator) (domain.IssuedCertificate, error)) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	logger := root.logger(cmd.ErrOrStderr(), cfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.Build(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	cert, runErr := fn(ctx, a.Orchestrator)

	out := issueOutput{
		CertificateID: cert.CertificateID,
		ImageURI:      cert.ImageURI.String(),
		MetadataURI:   cert.MetadataURI.String(),
		Mint:          cert.Mint,
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return runErr
}
