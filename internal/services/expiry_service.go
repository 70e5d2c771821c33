package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AnandNexkites/citypattle/internal/database"
)

// ExpiryService periodically reclaims pending bookings older than the TTL:
// slots are released, the bookings deleted and the users notified. Being a
// database sweep rather than an in-process timer, it also catches bookings
// orphaned by a restart.
type ExpiryService struct {
	bookings *database.BookingRepository
	notifier Notifier
	ttl      time.Duration
	interval time.Duration
	logger   *logrus.Logger

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewExpiryService creates a new expiry sweep service.
func NewExpiryService(bookings *database.BookingRepository, notifier Notifier, ttl, interval time.Duration, logger *logrus.Logger) *ExpiryService {
	return &ExpiryService{
		bookings: bookings,
		notifier: notifier,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the background sweep loop.
func (s *ExpiryService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.run()
	s.logger.WithFields(logrus.Fields{
		"ttl":      s.ttl,
		"interval": s.interval,
	}).Info("Booking expiry service started")
}

// Stop shuts the sweep loop down and waits for it to finish.
func (s *ExpiryService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	<-done
	s.logger.Info("Booking expiry service stopped")
}

func (s *ExpiryService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs a single sweep and returns how many bookings expired.
func (s *ExpiryService) RunOnce(ctx context.Context) int {
	cutoff := time.Now().Add(-s.ttl)
	expired, err := s.bookings.ExpirePendingBookings(cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Booking expiry sweep failed")
		return 0
	}
	if len(expired) == 0 {
		return 0
	}

	s.logger.WithField("count", len(expired)).Info("Expired pending bookings")
	for _, booking := range expired {
		if err := s.notifier.NotifyUser(ctx, booking.UserID, "Booking Cancelled",
			"Your booking was cancelled because the payment was not completed in time."); err != nil {
			s.logger.WithError(err).WithField("user_id", booking.UserID).Warn("Expiry notification failed")
		}
	}
	return len(expired)
}
