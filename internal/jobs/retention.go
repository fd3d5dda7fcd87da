package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/poker-server-go/internal/repository"
)

const retentionRunTimeout = 30 * time.Second

// RetentionJob deletes sessions, and with them their votes, once their
// voting window closed more than retention ago.
type RetentionJob struct {
	sessionRepo repository.SessionRepository
	retention   time.Duration
	interval    time.Duration
	now         func() time.Time
	done        chan struct{}
}

func NewRetentionJob(sessionRepo repository.SessionRepository, retention, interval time.Duration) *RetentionJob {
	return &RetentionJob{
		sessionRepo: sessionRepo,
		retention:   retention,
		interval:    interval,
		now:         time.Now,
		done:        make(chan struct{}),
	}
}

// Enabled is false when retention is zero, which keeps sessions forever.
func (j *RetentionJob) Enabled() bool {
	return j.retention > 0 && j.interval > 0
}

func (j *RetentionJob) Start() {
	if !j.Enabled() {
		log.Info().Msg("session retention disabled")
		return
	}
	go j.run()
	log.Info().
		Dur("interval", j.interval).
		Dur("retention", j.retention).
		Msg("retention job started")
}

func (j *RetentionJob) Stop() {
	if !j.Enabled() {
		return
	}
	close(j.done)
	log.Info().Msg("retention job stopped")
}

func (j *RetentionJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *RetentionJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), retentionRunTimeout)
	defer cancel()

	if _, err := j.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("failed to clean up poker sessions")
	}
}

// RunOnce deletes the sessions that ended before now minus retention.
func (j *RetentionJob) RunOnce(ctx context.Context) (int64, error) {
	if j.retention <= 0 {
		return 0, nil
	}

	cutoff := j.now().Add(-j.retention)
	count, err := j.sessionRepo.DeleteEndedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Info().
			Int64("count", count).
			Time("cutoff", cutoff).
			Msg("cleaned up poker sessions")
	}
	return count, nil
}
