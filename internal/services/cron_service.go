package services

import (
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/AnandNexkites/citypattle/internal/database"
)

// CronService runs scheduled maintenance jobs.
type CronService struct {
	cron     *cron.Cron
	bookings *database.BookingRepository
	logger   *logrus.Logger
}

// NewCronService creates a new cron service.
func NewCronService(bookings *database.BookingRepository, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:     cron.New(cron.WithSeconds()),
		bookings: bookings,
		logger:   logger,
	}
}

// Start registers the jobs and starts the scheduler. The nightly job frees
// booked slot rows no live booking references, a safety net for anything
// the sweep missed.
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc("0 30 3 * * *", s.releaseOrphanedSlots); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) releaseOrphanedSlots() {
	released, err := s.bookings.ReleaseOrphanedSlots()
	if err != nil {
		s.logger.WithError(err).Error("Orphaned slot release failed")
		return
	}
	if released > 0 {
		s.logger.WithField("released", released).Info("Released orphaned slots")
	}
}
