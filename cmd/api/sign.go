package main

import (
	"fmt"
	"io"
	"os"

	"payhook/internal/config"
	"payhook/internal/provider/chapa"

	"github.com/spf13/cobra"
)

func signCmd() *cobra.Command {
	var (
		secret    string
		algorithm string
	)
	cmd := &cobra.Command{
		Use:   "sign <file|->",
		Short: "Print the webhook signature header for a payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				body []byte
				err  error
			)
			if args[0] == "-" {
				body, err = io.ReadAll(cmd.InOrStdin())
			} else {
				body, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			if secret == "" {
				signing := config.LoadSigning()
				secret = signing.WebhookSecret
				if algorithm == "" {
					algorithm = signing.SignatureAlgorithm
				}
			}
			v, err := chapa.NewVerifier(secret, algorithm)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", chapa.SignatureHeader, v.Sign(body))
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "webhook secret (defaults to CHAPA_WEBHOOK_SECRET)")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "hmac-sha256 or hmac-sha512")
	return cmd
}
