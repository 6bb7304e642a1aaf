package system

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/physio_backend/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			if timeout <= 0 {
				timeout = time.Minute
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			m := database.NewMigrator(db)
			if status {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to read migration status: %w", err)
				}
				for _, st := range statuses {
					state := "pending"
					if st.Applied {
						state = "applied " + st.AppliedAt.Format(time.RFC3339)
					}
					fmt.Printf("%04d  %-40s %s\n", st.Version, st.Name, state)
				}
				return nil
			}

			fmt.Println("Running migrations...")
			n, err := m.Up(ctx)
			if err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			fmt.Printf("Migrations executed successfully (%d applied).\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "List migrations and their state instead of applying them")

	return cmd
}
