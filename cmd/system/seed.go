package system

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/physio_backend/internal/repo"
	"github.com/Alijeyrad/physio_backend/pkg/database"
)

// weekdayHours opens Monday to Friday, 09:00 to 17:00.
func weekdayHours() repo.WeeklyAvailability {
	var w repo.WeeklyAvailability
	for day := time.Monday; day <= time.Friday; day++ {
		w = append(w, repo.DayAvailability{
			Day:   int(day),
			Slots: []repo.TimeWindow{{Start: "09:00", End: "17:00"}},
		})
	}
	return w
}

func NewSeedCommand() *cobra.Command {
	var (
		therapistName string
		patientName   string
		adminName     string
		email         string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo therapist, patient and admin",
		Long: `Create a demo therapist with weekday hours, one of their patients and an
admin. Pair the printed IDs with "system token" to call the API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			client := repo.NewClient(db)
			defer client.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			t := &repo.Therapist{Name: therapistName, Email: email, Availability: weekdayHours()}
			if err := client.CreateTherapist(ctx, t); err != nil {
				return err
			}
			p := &repo.Patient{Name: patientName, TherapistID: &t.ID}
			if err := client.CreatePatient(ctx, p); err != nil {
				return err
			}
			a := &repo.Admin{Name: adminName}
			if err := client.CreateAdmin(ctx, a); err != nil {
				return err
			}

			fmt.Printf("therapist  %s  %s\n", t.ID, t.Name)
			fmt.Printf("patient    %s  %s\n", p.ID, p.Name)
			fmt.Printf("admin      %s  %s\n", a.ID, a.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&therapistName, "therapist", "Dr. Demo", "Therapist display name")
	cmd.Flags().StringVar(&patientName, "patient", "Demo Patient", "Patient display name")
	cmd.Flags().StringVar(&adminName, "admin", "Clinic Admin", "Admin display name")
	cmd.Flags().StringVar(&email, "therapist-email", "", "Therapist email for notice delivery")

	return cmd
}
