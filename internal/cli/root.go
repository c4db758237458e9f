// Package cli implements the certmint command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"solana-cert-mint/internal/config"
)

// Version is overridden at build time with -ldflags "-X solana-cert-mint/internal/cli.Version=...".
var Version = "dev"

// rootOptions holds global flags shared by subcommands.
type rootOptions struct {
	cfgFile string
	verbose bool
	v       *viper.Viper
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{v: config.New()}

	root := &cobra.Command{
		Use:   "certmint",
		Short: "certmint - issue certificates as Solana NFTs",
		Long: `certmint renders a certificate image, pins it and its metadata to a
content-addressed store, and mints a single-unit token carrying the
metadata on Solana.

render stops after the image upload; mint runs only the on-chain part
against an already uploaded metadata document.

Offline helpers derive the token and metadata accounts of a mint and dump
the encoded metadata instruction.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (yaml, json, toml or env)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newIssueCmd(opts),
		newMintCmd(opts),
		newRenderCmd(opts),
		newDeriveCmd(),
		newEncodeCmd(),
		newVersionCmd(),
	)
	return root
}

// load reads the config file and environment into a Config.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.v, o.cfgFile)
	if err != nil {
		return nil, err
	}
	if o.verbose && o.cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", o.cfgFile)
	}
	return cfg, nil
}

// logger writes text logs to w, at debug level when verbose.
func (o *rootOptions) logger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := cfg.SlogLevel()
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "certmint %s\n", Version)
		},
	}
}
