package system

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Alijeyrad/physio_backend/internal/app"
	"github.com/Alijeyrad/physio_backend/internal/service/appointment"
)

func NewSweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one maintenance pass: complete ended appointments, send due reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			var (
				svc appointment.Service
				rdb *redis.Client
			)
			fxApp := fx.New(
				fx.Supply(cfg),
				app.InfraModule,
				app.ServiceModule,
				fx.Populate(&svc, &rdb),
				fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
			)

			ctx := context.Background()
			if err := fxApp.Start(ctx); err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer fxApp.Stop(ctx)

			res, ran, err := app.SweepOnce(ctx, cfg, svc, rdb)
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}
			if !ran {
				fmt.Println("Another instance holds the sweep lock; nothing done.")
				return nil
			}

			fmt.Printf("Sweep finished: %d appointments updated, %d notifications sent.\n",
				len(res.Updated), len(res.Notifications))
			return nil
		},
	}

	return cmd
}
