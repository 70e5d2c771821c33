package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AnandNexkites/citypattle/internal/database"
	"github.com/AnandNexkites/citypattle/internal/models"
	"github.com/AnandNexkites/citypattle/pkg/apperrors"
	"github.com/AnandNexkites/citypattle/pkg/payments"
)

// BookingService runs the reservation lifecycle: slot claims with
// supersession, gateway order creation, and payment reconciliation.
type BookingService struct {
	users    *database.UserRepository
	venues   *database.VenueRepository
	bookings *database.BookingRepository
	gateway  payments.Gateway
	notifier Notifier
	logger   *logrus.Logger
}

// NewBookingService creates a new booking service.
func NewBookingService(
	users *database.UserRepository,
	venues *database.VenueRepository,
	bookings *database.BookingRepository,
	gateway payments.Gateway,
	notifier Notifier,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		users:    users,
		venues:   venues,
		bookings: bookings,
		gateway:  gateway,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateBooking validates the request, opens a gateway order and claims the
// requested slots in one transaction. The gateway order is created first so
// a gateway outage leaves no booking state behind; an order abandoned by a
// later claim failure simply expires at the gateway.
func (s *BookingService) CreateBooking(ctx context.Context, req *models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	date, _ := time.ParseInLocation(models.DateLayout, req.Date, time.Local)

	user, err := s.users.GetUserByID(req.UserID)
	if err != nil {
		return nil, apperrors.Internal("failed to load user", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}

	venue, err := s.venues.GetVenueByID(req.VenueID)
	if err != nil {
		return nil, apperrors.Internal("failed to load venue", err)
	}
	if venue == nil {
		return nil, apperrors.NotFound("venue")
	}

	if !s.gateway.IsConfigured() {
		return nil, apperrors.Configuration("payment gateway credentials are not configured")
	}
	order, err := s.gateway.CreateOrder(ctx, req.Amount, uuid.New().String())
	if err != nil {
		// A definitive gateway rejection is the caller's problem; only
		// transport failures are reported as retryable.
		var apiErr *payments.APIError
		if errors.As(err, &apiErr) {
			return nil, apperrors.Validation("payment gateway rejected the order: " + apiErr.Description)
		}
		return nil, apperrors.GatewayUnavailable("payment gateway", err)
	}

	booking, err := s.bookings.CreateBookingWithSlots(
		req.UserID, req.VenueID, date, req.Slots, venue.Price, req.Amount, order.ID)
	if err != nil {
		if appErr, ok := apperrors.As(err); ok {
			return nil, appErr
		}
		return nil, apperrors.Internal("failed to create booking", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"user_id":    req.UserID,
		"venue_id":   req.VenueID,
		"order_id":   order.ID,
		"slots":      len(req.Slots),
	}).Info("Booking created")

	return &models.CreateBookingResponse{
		BookingID:     booking.ID,
		OrderID:       order.ID,
		Amount:        booking.Amount,
		Currency:      order.Currency,
		KeyID:         s.gateway.KeyID(),
		PaymentStatus: booking.PaymentStatus,
	}, nil
}

// ConfirmPayment reconciles a checkout result. The signature is verified
// locally, then the payment is re-checked against the gateway; only a
// captured payment settles the booking. Confirming an already paid booking
// is an idempotent no-op.
func (s *BookingService) ConfirmPayment(ctx context.Context, req *models.ConfirmPaymentRequest) (*models.ConfirmPaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	booking, err := s.bookings.GetBookingByIDAndOrder(req.BookingID, req.RazorpayOrderID)
	if err != nil {
		return nil, apperrors.Internal("failed to load booking", err)
	}
	if booking == nil {
		return nil, apperrors.NotFound("booking")
	}

	if booking.PaymentStatus == models.PaymentStatusPaid {
		transactionID := ""
		if booking.RazorpayPaymentID != nil {
			transactionID = *booking.RazorpayPaymentID
		}
		return &models.ConfirmPaymentResponse{
			BookingID:     booking.ID,
			TransactionID: transactionID,
			PaymentStatus: booking.PaymentStatus,
		}, nil
	}

	if !s.gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		s.failBooking(booking)
		return nil, apperrors.Verification("payment signature verification failed")
	}

	payment, err := s.gateway.FetchPayment(ctx, req.RazorpayPaymentID)
	if err != nil {
		var apiErr *payments.APIError
		if errors.As(err, &apiErr) {
			s.failBooking(booking)
			return nil, apperrors.PaymentNotCompleted(apiErr.Description)
		}
		// Transport failure: the gateway's verdict is unknown, leave the
		// booking pending so the client can retry.
		return nil, apperrors.GatewayUnavailable("payment gateway", err)
	}

	if payment.Status != payments.PaymentStatusCaptured {
		s.failBooking(booking)
		return nil, apperrors.PaymentNotCompleted(payment.Status)
	}

	if err := s.bookings.MarkBookingPaid(booking.ID, req.RazorpayPaymentID, req.RazorpaySignature); err != nil {
		if errors.Is(err, database.ErrBookingNotPending) {
			return nil, apperrors.NotFound("booking")
		}
		return nil, apperrors.Internal("failed to settle booking", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"payment_id": req.RazorpayPaymentID,
	}).Info("Booking paid")
	s.notifyAsync(booking.UserID, "Booking Confirmed",
		"Your booking has been confirmed. See you at the venue!")

	return &models.ConfirmPaymentResponse{
		BookingID:     booking.ID,
		TransactionID: req.RazorpayPaymentID,
		PaymentStatus: models.PaymentStatusPaid,
	}, nil
}

// failBooking marks the booking failed and frees its slots. The sweep may
// have raced us and reclaimed the booking already, which is fine.
func (s *BookingService) failBooking(booking *models.Booking) {
	if err := s.bookings.MarkBookingFailed(booking.ID); err != nil && !errors.Is(err, database.ErrBookingNotPending) {
		s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Failed to mark booking failed")
	}
}

func (s *BookingService) notifyAsync(userID uuid.UUID, title, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.notifier.NotifyUser(ctx, userID, title, body); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("Notification dispatch failed")
		}
	}()
}
