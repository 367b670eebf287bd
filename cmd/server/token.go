package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dashboard_backend/pkg/utils"

	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a signed bearer token for jwt auth mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := strings.TrimSpace(args[0])
		if userID == "" {
			return errors.New("user id must not be blank")
		}
		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret (JWT_SECRET) is not set")
		}

		ttl := cfg.Auth.JWTTTL
		if tokenTTL > 0 {
			ttl = tokenTTL
		}

		token, err := utils.GenerateAccessToken(userID, cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, ttl)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default auth.jwt_ttl)")
}
