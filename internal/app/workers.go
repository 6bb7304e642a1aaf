package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/physio_backend/config"
	"github.com/Alijeyrad/physio_backend/internal/events"
	"github.com/Alijeyrad/physio_backend/internal/repo"
	"github.com/Alijeyrad/physio_backend/internal/service/appointment"
	"github.com/Alijeyrad/physio_backend/internal/service/notification"
	"github.com/Alijeyrad/physio_backend/internal/service/scheduling"
	"github.com/Alijeyrad/physio_backend/pkg/email"
	redispkg "github.com/Alijeyrad/physio_backend/pkg/redis"
	"github.com/Alijeyrad/physio_backend/pkg/reqctx"
	svcsms "github.com/Alijeyrad/physio_backend/pkg/sms"
)

// WorkerModule registers the NATS event workers and the maintenance sweep.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

const (
	sweepLockKey = "physio:lock:sweep"
	workerQueue  = "physio-workers"
)

type WorkerParams struct {
	fx.In

	Lc       fx.Lifecycle
	Cfg      *config.Config
	NC       *nats.Conn
	DB       *repo.Client
	RDB      *redis.Client
	Cache    *redispkg.Cache
	NotifSvc notification.Service
	ApptSvc  appointment.Service
	SMS      *svcsms.Client
	Email    *email.Client
}

func RegisterWorkers(p WorkerParams) error {
	loc, err := p.Cfg.Scheduling.Location()
	if err != nil {
		return err
	}

	sw := newSweeper(p.Cfg, p.ApptSvc, p.RDB)
	stop := make(chan struct{})
	done := make(chan struct{})

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if p.NC != nil {
				d := &deliverer{src: p.DB, prefs: p.NotifSvc, sms: p.SMS, mail: p.Email}
				startDeliveryWorker(p.NC, d)
				startSlotCacheWorker(p.NC, &slotInvalidator{cache: p.Cache, loc: loc})
			}
			if p.Cfg.Scheduling.SweepEnabled {
				go sw.loop(stop, done)
			} else {
				close(done)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// subscriptions drain with the NATS connection
			close(stop)
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})
	return nil
}

// ---------------------------------------------------------------------------
// delivery_worker
// ---------------------------------------------------------------------------

type noticeSource interface {
	GetNotification(ctx context.Context, id uuid.UUID) (*repo.Notification, error)
	GetContact(ctx context.Context, id uuid.UUID) (*repo.Contact, error)
}

type prefsReader interface {
	GetPrefs(ctx context.Context, userID uuid.UUID) (*repo.NotificationPref, error)
}

type smsSender interface {
	IsEnabled() bool
	SendNotice(ctx context.Context, phone, text string) error
}

type mailSender interface {
	Enabled() bool
	AppName() string
	Send(ctx context.Context, m email.Message) error
}

// deliverer pushes a stored notification out over SMS and email according
// to the recipient's preferences.
type deliverer struct {
	src   noticeSource
	prefs prefsReader
	sms   smsSender
	mail  mailSender
}

func (d *deliverer) handle(ctx context.Context, evt events.NotificationEvent) error {
	n, err := d.src.GetNotification(ctx, evt.NotificationID)
	if err != nil {
		return fmt.Errorf("load notification: %w", err)
	}
	contact, err := d.src.GetContact(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("load contact: %w", err)
	}
	pref, err := d.prefs.GetPrefs(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}

	text := n.Title
	if n.Body != nil {
		text = *n.Body
	}

	var errs []error
	if pref.AppointmentSMS && contact.Phone != "" && d.sms.IsEnabled() {
		if err := d.sms.SendNotice(ctx, contact.Phone, text); err != nil {
			errs = append(errs, fmt.Errorf("sms: %w", err))
		}
	}
	if pref.AppointmentEmail && contact.Email != "" && d.mail.Enabled() {
		msg := email.BuildNoticeEmail(email.NoticeEmailData{
			Name:    contact.Name,
			Email:   contact.Email,
			Title:   n.Title,
			Body:    text,
			AppName: d.mail.AppName(),
		})
		if err := d.mail.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}
	return errors.Join(errs...)
}

func startDeliveryWorker(nc *nats.Conn, d *deliverer) {
	_, err := nc.QueueSubscribe(events.NotificationWildcard, workerQueue, func(msg *nats.Msg) {
		var evt events.NotificationEvent
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			slog.Warn("delivery_worker: bad payload", "subject", msg.Subject, "err", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := d.handle(ctx, evt); err != nil {
			slog.Warn("delivery_worker: delivery failed", "notification_id", evt.NotificationID, "err", err)
			return
		}
		slog.Debug("delivery_worker: delivered", "notification_id", evt.NotificationID)
	})
	if err != nil {
		slog.Error("delivery_worker: subscribe notification.created failed", "err", err)
		return
	}
	slog.Info("delivery_worker: started")
}

// ---------------------------------------------------------------------------
// slot_cache_worker
// ---------------------------------------------------------------------------

type keyDeleter interface {
	Delete(ctx context.Context, keys ...string) error
}

// slotInvalidator drops the cached slot list of the day an appointment
// event touches.
type slotInvalidator struct {
	cache keyDeleter
	loc   *time.Location
}

func (s *slotInvalidator) handle(ctx context.Context, evt events.AppointmentEvent) error {
	if evt.TherapistID == uuid.Nil || evt.Start.IsZero() {
		return fmt.Errorf("incomplete appointment event")
	}
	day := evt.Start.In(s.loc).Format(scheduling.DateLayout)
	return s.cache.Delete(ctx, scheduling.SlotCacheKey(evt.TherapistID, day))
}

func startSlotCacheWorker(nc *nats.Conn, s *slotInvalidator) {
	_, err := nc.QueueSubscribe(events.AppointmentWildcard, workerQueue+"-slots", func(msg *nats.Msg) {
		var evt events.AppointmentEvent
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			slog.Warn("slot_cache_worker: bad payload", "subject", msg.Subject, "err", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.handle(ctx, evt); err != nil {
			slog.Warn("slot_cache_worker: invalidate failed",
				"kind", events.SubjectKind(msg.Subject),
				"appointment_id", evt.AppointmentID,
				"err", err,
			)
		}
	})
	if err != nil {
		slog.Error("slot_cache_worker: subscribe appointment events failed", "err", err)
		return
	}
	slog.Info("slot_cache_worker: started")
}

// ---------------------------------------------------------------------------
// sweep_worker
// ---------------------------------------------------------------------------

type unlockFunc func(ctx context.Context) error

// locker acquires a cluster-wide lease or returns redispkg.ErrLockHeld.
type locker func(ctx context.Context, key string, ttl time.Duration) (unlockFunc, error)

func redisLocker(rdb *redis.Client) locker {
	return func(ctx context.Context, key string, ttl time.Duration) (unlockFunc, error) {
		l, err := redispkg.TryLock(ctx, rdb, key, ttl)
		if err != nil {
			return nil, err
		}
		return l.Release, nil
	}
}

type sweeper struct {
	run      func(ctx context.Context, now time.Time) (*appointment.MaintenanceResult, error)
	lock     locker
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
}

func newSweeper(cfg *config.Config, svc appointment.Service, rdb *redis.Client) *sweeper {
	return &sweeper{
		run:      svc.RunMaintenance,
		lock:     redisLocker(rdb),
		interval: cfg.Scheduling.SweepInterval(),
		timeout:  cfg.Scheduling.SweepTimeout(),
	}
}

// SweepOnce runs one maintenance pass under the sweep lock. ran is false when
// another replica holds the lock.
func SweepOnce(ctx context.Context, cfg *config.Config, svc appointment.Service, rdb *redis.Client) (res *appointment.MaintenanceResult, ran bool, err error) {
	sw := newSweeper(cfg, svc, rdb)
	run := sw.run
	sw.run = func(ctx context.Context, now time.Time) (*appointment.MaintenanceResult, error) {
		r, err := run(ctx, now)
		res = r
		return r, err
	}
	ran, err = sw.once(ctx)
	return res, ran, err
}

func (s *sweeper) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	interval := s.interval
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	slog.Info("sweep_worker: started", "interval", interval)
	for {
		select {
		case <-stop:
			slog.Info("sweep_worker: stopped")
			return
		case <-t.C:
			if _, err := s.once(context.Background()); err != nil {
				slog.Error("sweep_worker: pass failed", "err", err)
			}
		}
	}
}

// once runs one pass under the sweep lock. It reports false when another
// replica holds the lock.
func (s *sweeper) once(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if reqctx.TraceFromSpan(ctx) == nil {
		ctx = reqctx.WithTrace(ctx, reqctx.NewTraceInfo())
	}

	unlock, err := s.lock(ctx, sweepLockKey, s.timeout)
	if err != nil {
		if errors.Is(err, redispkg.ErrLockHeld) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		if err := unlock(context.Background()); err != nil {
			slog.WarnContext(ctx, "sweep_worker: unlock failed", "err", err)
		}
	}()

	now := time.Now
	if s.now != nil {
		now = s.now
	}
	if _, err := s.run(ctx, now().UTC()); err != nil {
		return true, err
	}
	return true, nil
}
