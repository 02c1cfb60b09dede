// Package cli implements the hookrelay command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/hookrelay/internal/config"
)

// Version is overridden at build time with -ldflags.
var Version = "0.1.0"

type rootOptions struct {
	configPath string
	output     string
	cfg        *config.Config
}

// NewRootCmd builds the command tree. Each call returns an independent
// tree so tests can run commands in isolation.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "hookrelay",
		Short: "Webhook transformation relay",
		Long: `hookrelay receives webhooks from providers such as GitHub, Stripe and
Shopify, normalizes them, and re-renders them for Discord, Slack,
Microsoft Teams or email.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case outputJSON, outputYAML:
			default:
				return fmt.Errorf("unsupported output %q: use json or yaml", opts.output)
			}
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./config.yaml or /etc/hookrelay/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputJSON, "output format: json, yaml")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newTransformCmd(opts),
		newSeedCmd(opts),
		newTokenCmd(opts),
	)
	return rootCmd
}

// Execute runs the CLI against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}
