package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/hookrelay/internal/models"
	"github.com/telhawk-systems/hookrelay/internal/pipeline"
)

func newTransformCmd(opts *rootOptions) *cobra.Command {
	var (
		source string
		format string
		file   string
	)

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Transform a webhook payload offline",
		Long: `Runs a JSON payload through the same parse and format steps the
/webhook endpoint uses and prints the result. Nothing is delivered.`,
		Example: `  hookrelay transform --source github --format discord --file push.json
  cat charge.json | hookrelay transform --source stripe --format msteams -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open payload: %w", err)
				}
				defer f.Close()
				in = f
			}

			raw, err := readRawPayload(in)
			if err != nil {
				return err
			}

			p := pipeline.NewDefault(nil, nil)
			payload, err := p.Transform(cmd.Context(), models.SourceName(source), models.FormatName(format), raw)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, payload)
		},
	}

	cmd.Flags().StringVar(&source, "source", string(models.SourceDefault), "webhook source")
	cmd.Flags().StringVar(&format, "format", string(models.FormatDefault), "output format")
	cmd.Flags().StringVarP(&file, "file", "f", "-", `payload file, "-" reads stdin`)
	return cmd
}

func readRawPayload(r io.Reader) (models.RawPayload, error) {
	raw, err := models.DecodeRawPayload(r)
	if err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return raw, nil
}
