package system

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Alijeyrad/physio_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/physio_backend/pkg/paseto"
)

func NewTokenCommand() *cobra.Command {
	var (
		userID string
		role   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			uid, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			r, err := authorize.ParseRole(role)
			if err != nil {
				return err
			}

			mgr, err := pasetotoken.NewPasetoManager(cfg)
			if err != nil {
				return err
			}
			tok, err := mgr.IssueAccess(uid, string(r), nil)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}

			fmt.Println(tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID (therapist, patient or admin)")
	cmd.Flags().StringVar(&role, "role", "", "Role: patient, therapist or admin")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}
