package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"workforce-tracker.com/workforce-tracker/internal/constants"
	middleware "workforce-tracker.com/workforce-tracker/internal/http/middlewares"
)

var (
	tokenUser string
	tokenRole string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			return fmt.Errorf("token: JWT_SECRET must be set")
		}

		role := constants.Role(tokenRole)
		if !role.Valid() {
			return fmt.Errorf("token: unknown role %q", tokenRole)
		}
		if tokenUser == "" {
			return fmt.Errorf("token: --user is required")
		}

		signed, err := middleware.SignToken(secret, tokenUser, role, tokenTTL)
		if err != nil {
			return fmt.Errorf("token: sign: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id placed in the sub claim")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(constants.RoleEmployee), "admin or employee")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
