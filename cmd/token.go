package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"helpdesk/internal/pkg/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an agent access token",
	Long:  `Sign a JWT for a support agent with auth.jwt_secret and print it.`,
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("agent", "", "agent id (required)")
	_ = tokenCmd.MarkFlagRequired("agent")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not configured (set HELPDESK_AUTH_JWT_SECRET)")
	}

	agentID, err := cmd.Flags().GetString("agent")
	if err != nil {
		return err
	}

	expiry := cfg.Auth.TokenExpiry
	if expiry <= 0 {
		expiry = 12 * time.Hour
	}
	j := jwt.NewJWT(cfg.Auth.JWTSecret, expiry)
	token, err := j.GenerateToken(agentID)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
