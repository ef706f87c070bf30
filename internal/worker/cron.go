package worker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"trainerbook/internal/config"
	"trainerbook/internal/database"
	"trainerbook/internal/domain"
)

// Scheduler runs the periodic maintenance jobs: auto-completing past
// sessions and database backups.
type Scheduler struct {
	cron     *cron.Cron
	bookings domain.BookingService
	backups  *database.BackupService
	logger   *zerolog.Logger
}

func NewScheduler(bookings domain.BookingService, backups *database.BackupService, logger *zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		bookings: bookings,
		backups:  backups,
		logger:   logger,
	}
}

// Register wires the jobs from config. Backups are skipped when disabled or
// when the store has no file to back up.
func (s *Scheduler) Register(cfg *config.Config) error {
	if _, err := s.cron.AddFunc(cfg.Booking.AutoCompleteSchedule, s.runAutoComplete); err != nil {
		return fmt.Errorf("schedule auto-complete: %w", err)
	}

	if cfg.Backup.Enabled && s.backups != nil {
		if _, err := s.cron.AddFunc(cfg.Backup.Schedule, s.runBackup); err != nil {
			return fmt.Errorf("schedule backup: %w", err)
		}
	}

	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runAutoComplete() {
	completed, err := s.bookings.CompletePastSessions(context.Background())
	if err != nil {
		s.logger.Error().Err(err).Msg("auto-complete sweep failed")
		return
	}
	s.logger.Debug().Int64("completed", completed).Msg("auto-complete sweep finished")
}

func (s *Scheduler) runBackup() {
	if err := s.backups.PerformBackup(); err != nil {
		s.logger.Error().Err(err).Msg("backup failed")
		return
	}
	s.backups.CleanupOldBackups()
}
