package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AnandNexkites/citypattle/internal/database"
	"github.com/AnandNexkites/citypattle/internal/models"
	"github.com/AnandNexkites/citypattle/pkg/apperrors"
)

// BookingQueryService serves the active and history listings. A booking is
// active while at least one of its slots has not ended; once every slot has
// ended it moves to history.
type BookingQueryService struct {
	bookings *database.BookingRepository
	logger   *logrus.Logger
}

// NewBookingQueryService creates a new booking query service.
func NewBookingQueryService(bookings *database.BookingRepository, logger *logrus.Logger) *BookingQueryService {
	return &BookingQueryService{bookings: bookings, logger: logger}
}

// ActiveBookings returns the user's bookings that still have upcoming
// slots, newest first. Only the upcoming slots are included.
func (s *BookingQueryService) ActiveBookings(userID uuid.UUID) ([]models.BookingView, error) {
	details, err := s.bookings.ListBookingsByUser(userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list bookings", err)
	}

	now := time.Now()
	views := []models.BookingView{}
	for _, detail := range details {
		var upcoming []models.Slot
		for _, slot := range detail.Slots {
			if slot.EndsAfter(now) {
				upcoming = append(upcoming, slot)
			}
		}
		if len(upcoming) == 0 {
			continue
		}
		views = append(views, buildView(detail, upcoming))
	}
	return views, nil
}

// BookingHistory returns the user's bookings whose slots have all ended,
// newest first.
func (s *BookingQueryService) BookingHistory(userID uuid.UUID) ([]models.BookingView, error) {
	details, err := s.bookings.ListBookingsByUser(userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list bookings", err)
	}

	now := time.Now()
	views := []models.BookingView{}
	for _, detail := range details {
		ended := true
		for _, slot := range detail.Slots {
			if slot.EndsAfter(now) {
				ended = false
				break
			}
		}
		if !ended || len(detail.Slots) == 0 {
			continue
		}
		views = append(views, buildView(detail, detail.Slots))
	}
	return views, nil
}

func buildView(detail models.BookingDetail, slots []models.Slot) models.BookingView {
	slotViews := make([]models.SlotView, len(slots))
	qrSlots := make([]string, len(slots))
	for i, slot := range slots {
		dateStr := slot.Date.Format(models.DateLayout)
		start := displayTime(slot.StartTime)
		end := displayTime(slot.EndTime)
		slotViews[i] = models.SlotView{
			ID:        slot.ID,
			Date:      dateStr,
			StartTime: start,
			EndTime:   end,
			Price:     slot.Price,
		}
		qrSlots[i] = fmt.Sprintf("%s %s - %s", dateStr, start, end)
	}

	return models.BookingView{
		BookingID:       detail.Booking.ID,
		Venue:           detail.Venue,
		Amount:          detail.Booking.Amount,
		PaymentStatus:   detail.Booking.PaymentStatus,
		RazorpayOrderID: detail.Booking.RazorpayOrderID,
		TransactionID:   detail.Booking.RazorpayPaymentID,
		CreatedAt:       detail.Booking.CreatedAt,
		Slots:           slotViews,
		QRData: models.QRData{
			BookingID:     detail.Booking.ID,
			User:          detail.UserName,
			Venue:         detail.Venue.Name,
			Amount:        detail.Booking.Amount,
			PaymentStatus: detail.Booking.PaymentStatus,
			Slots:         qrSlots,
		},
	}
}

// displayTime renders a stored "HH:MM" slot time in 12-hour form for
// listings and the QR payload. Unparseable values pass through unchanged.
func displayTime(value string) string {
	t, err := time.Parse(models.TimeLayout, value)
	if err != nil {
		return value
	}
	return t.Format(models.DisplayTimeLayout)
}
