package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-electrolux/internal/auth"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/config"
)

func newTokenCmd(configPath func() string) *cobra.Command {
	var (
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint an API access token signed with the configured secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			r := auth.Role(role)
			if !auth.IsValidRole(r) {
				return fmt.Errorf("%w: %q", auth.ErrInvalidRole, role)
			}
			if ttl <= 0 {
				ttl = cfg.AccessTokenTTL()
			}
			token, err := auth.GenerateAccessToken(args[0], r, cfg.Security.JWT.Secret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(auth.RoleViewer), "Role: viewer, operator, admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: security.jwt.access_token_ttl)")
	return cmd
}

func newHashKeyCmd() *cobra.Command {
	var (
		name string
		role string
	)
	cmd := &cobra.Command{
		Use:   "hash-key",
		Short: "Generate an API key and the config entry that accepts it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !auth.IsValidRole(auth.Role(role)) {
				return fmt.Errorf("%w: %q", auth.ErrInvalidRole, role)
			}
			key, err := auth.GenerateAPIKey()
			if err != nil {
				return err
			}
			hash, err := auth.HashSecret(key)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "API key (shown once): %s\n\n", key)
			fmt.Fprintf(out, "security:\n  api_keys:\n    - name: %q\n      role: %q\n      hash: %q\n", name, role, hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "automation", "Key name, logged as the caller")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleViewer), "Role: viewer, operator, admin")
	return cmd
}
