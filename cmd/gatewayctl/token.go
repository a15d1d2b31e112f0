package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pageza/alchemorsel-v2/gateway/internal/service"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var (
		secret   string
		clientID string
		scopes   []string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an API client",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("a signing secret is required (--secret or JWT_SECRET)")
			}
			if clientID == "" {
				return errors.New("--client is required")
			}

			token, err := service.NewTokenService(secret).GenerateToken(clientID, scopes, ttl)
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				return writeJSON(cmd, map[string]any{
					"client_id":  clientID,
					"scopes":     scopes,
					"expires_at": time.Now().Add(ttl).UTC().Format(time.RFC3339),
					"token":      token,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", envDefault("JWT_SECRET", ""), "HMAC signing secret")
	cmd.Flags().StringVar(&clientID, "client", "", "Client identifier stored in the token")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{"chat"}, "Scopes granted to the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "Token lifetime")
	return cmd
}
