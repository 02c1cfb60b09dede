package cli

import (
	"github.com/spf13/cobra"
	"github.com/telhawk-systems/hookrelay/internal/logging"
	"github.com/telhawk-systems/hookrelay/internal/models"
	"github.com/telhawk-systems/hookrelay/internal/seeder"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var (
		cfg    seeder.Config
		source string
		format string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Send generated provider webhooks to a running service",
		Long: `Generates realistic webhook payloads for each supported source and
posts them to the /webhook endpoint. Without --source every source is
used in turn.`,
		Example: `  hookrelay seed --count 20
  hookrelay seed --source stripe --format msteams --interval 500ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Source = models.SourceName(source)
			cfg.Format = models.FormatName(format)

			logger := logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(opts.cfg.Logging.Level), "text")
			res, err := seeder.NewRunner(cfg, logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, res)
		},
	}

	cmd.Flags().StringVar(&cfg.URL, "url", seeder.DefaultURL, "webhook endpoint")
	cmd.Flags().StringVar(&source, "source", "", "webhook source (default: all sources in turn)")
	cmd.Flags().StringVar(&format, "format", string(models.FormatDefault), "output format requested from the relay")
	cmd.Flags().IntVarP(&cfg.Count, "count", "n", 10, "number of webhooks to send")
	cmd.Flags().DurationVar(&cfg.Interval, "interval", 0, "delay between webhooks")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 0, "random seed (0 uses the clock)")
	return cmd
}
