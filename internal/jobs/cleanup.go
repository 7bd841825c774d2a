package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/habitra/import-server-go/internal/repository"
)

// CleanupJob periodically deletes import sessions that were abandoned
// mid-wizard and never cancelled.
type CleanupJob struct {
	sessionRepo repository.ImportSessionRepository
	ttl         time.Duration
	interval    time.Duration
	done        chan struct{}
}

func NewCleanupJob(sessionRepo repository.ImportSessionRepository, ttl, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		sessionRepo: sessionRepo,
		ttl:         ttl,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Dur("ttl", j.ttl).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
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

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-j.ttl)
	count, err := j.sessionRepo.DeleteStale(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup stale import sessions")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up stale import sessions")
	}
}
