package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Reaper periodically discards sessions nobody has touched for a while
// (players who navigated away without a DELETE).
type Reaper struct {
	sched gocron.Scheduler
}

// StartReaper schedules Reap every interval with cutoff now-idle.
func StartReaper(st Store, idle, every time.Duration, clock clockwork.Clock) (*Reaper, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	sched, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("reaper scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			n := st.Reap(context.Background(), clock.Now().Add(-idle))
			if n > 0 {
				log.Info().Int("reaped", n).Int("live", st.Len()).Msg("idle sessions discarded")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("reaper job: %w", err)
	}
	sched.Start()
	return &Reaper{sched: sched}, nil
}

// Stop waits for a running reap to finish and stops scheduling.
func (r *Reaper) Stop() error {
	return r.sched.Shutdown()
}
