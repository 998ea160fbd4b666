package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwtmw "logodetect_backend/internal/platform/jwt"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var ttl time.Duration
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token for the configuration endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.AdminJWTSecret == "" {
				return errors.New("ADMIN_JWT_SECRET is not set")
			}
			tok, err := jwtmw.NewGenerator(cfg.AdminJWTSecret, ttl).GenerateToken(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().StringVar(&subject, "subject", "operator", "Token subject")
	return cmd
}
