package app

import (
	"go.uber.org/fx"

	"github.com/Alijeyrad/physio_backend/config"
	"github.com/Alijeyrad/physio_backend/internal/events"
	"github.com/Alijeyrad/physio_backend/internal/repo"
	"github.com/Alijeyrad/physio_backend/internal/service/appointment"
	"github.com/Alijeyrad/physio_backend/internal/service/notification"
	"github.com/Alijeyrad/physio_backend/internal/service/scheduling"
	pasetotoken "github.com/Alijeyrad/physio_backend/pkg/paseto"
	redispkg "github.com/Alijeyrad/physio_backend/pkg/redis"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideSchedulingService,
		ProvideNotificationService,
		ProvideAppointmentService,
		ProvidePasetoManager,
	),
)

func ProvideSchedulingService(db *repo.Client, cache *redispkg.Cache, cfg *config.Config) (scheduling.Service, error) {
	loc, err := cfg.Scheduling.Location()
	if err != nil {
		return nil, err
	}
	return scheduling.New(db, cache, scheduling.Options{
		Granularity: cfg.Scheduling.SlotDuration(),
		Location:    loc,
		CacheTTL:    cfg.Scheduling.SlotCacheTTL(),
	}), nil
}

func ProvideNotificationService(db *repo.Client, pub events.Publisher) notification.Service {
	return notification.New(db, pub)
}

func ProvideAppointmentService(
	db *repo.Client,
	notifSvc notification.Service,
	pub events.Publisher,
	cfg *config.Config,
) (appointment.Service, error) {
	loc, err := cfg.Scheduling.Location()
	if err != nil {
		return nil, err
	}
	return appointment.New(db, notifSvc, pub, appointment.Options{
		Granularity:  cfg.Scheduling.SlotDuration(),
		Location:     loc,
		ReminderLead: cfg.Scheduling.ReminderLead(),
	}), nil
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}
