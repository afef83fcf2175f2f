package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/service/booking"
	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// NewScheduler registers the periodic booking jobs. A non-positive interval disables a job.
// Each job runs once on Start, then every interval; runs never overlap.
func NewScheduler(ctx context.Context, jobs booking.Jobs, cfg config.WorkerConfig, log logrus.FieldLogger) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	register := func(name string, seconds int, run func(context.Context) (int, error)) error {
		if seconds <= 0 {
			log.WithField("job", name).Info("job disabled")
			return nil
		}
		_, err := s.NewJob(
			gocron.DurationJob(time.Duration(seconds)*time.Second),
			gocron.NewTask(func() { runJob(ctx, log, name, run) }),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		return err
	}

	if err := register("ticket_resync", cfg.TicketResyncSeconds, jobs.ResyncTickets); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("register ticket_resync: %w", err)
	}
	if err := register("refund_finalize", cfg.RefundFinalizeSeconds, jobs.FinalizeRefunds); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("register refund_finalize: %w", err)
	}
	return s, nil
}

func runJob(ctx context.Context, log logrus.FieldLogger, name string, run func(context.Context) (int, error)) {
	entry := log.WithField("job", name)
	n, err := run(ctx)
	if err != nil {
		entry.WithError(err).WithField("processed", n).Error("job failed")
		return
	}
	if n > 0 {
		entry.WithField("processed", n).Info("job finished")
	}
}
