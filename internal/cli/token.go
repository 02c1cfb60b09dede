package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/hookrelay/internal/tokens"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Bearer token management",
	}

	var identity string
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an access and refresh token pair",
		Long: `Signs a token pair with the configured auth.jwt_secret. The access
token is marked fresh.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if identity == "" {
				return errors.New("--identity is required")
			}
			auth := opts.cfg.Auth
			if auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured")
			}

			pair, err := tokens.NewManager(auth.JWTSecret, auth.AccessTTL, auth.RefreshTTL).IssuePair(identity)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, pair)
		},
	}
	issueCmd.Flags().StringVar(&identity, "identity", "", "identity the tokens are issued for")

	tokenCmd.AddCommand(issueCmd)
	return tokenCmd
}
