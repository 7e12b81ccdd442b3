package appointment

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// ReminderWindow is how far ahead the sweep looks for upcoming
// consultations.
const ReminderWindow = time.Hour

// StartReminderScheduler runs the reminder sweep on a fixed interval and
// returns the scheduler so the caller can stop it on shutdown.
func StartReminderScheduler(svc *Service, interval time.Duration, logger zerolog.Logger) *gocron.Scheduler {
	scheduler := gocron.NewScheduler(time.UTC)

	_, err := scheduler.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := svc.SendReminders(ctx, ReminderWindow); err != nil {
			logger.Error().Err(err).Msg("appointment reminder sweep failed")
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("could not schedule reminder sweep")
	}

	scheduler.StartAsync()
	return scheduler
}
