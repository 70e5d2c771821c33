package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Payment lifecycle of a booking. Pending bookings hold their slots until
// they are paid, fail, or expire; paid and failed are terminal.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Booking groups one or more slots reserved by a user at a venue.
type Booking struct {
	ID                uuid.UUID `json:"id" db:"id"`
	UserID            uuid.UUID `json:"user_id" db:"user_id"`
	VenueID           uuid.UUID `json:"venue_id" db:"venue_id"`
	Amount            float64   `json:"amount" db:"amount"`
	PaymentStatus     string    `json:"payment_status" db:"payment_status"`
	RazorpayOrderID   string    `json:"razorpay_order_id" db:"razorpay_order_id"`
	RazorpayPaymentID *string   `json:"razorpay_payment_id" db:"razorpay_payment_id"`
	RazorpaySignature *string   `json:"-" db:"razorpay_signature"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// CreateBookingRequest reserves a set of slots at a venue.
type CreateBookingRequest struct {
	UserID  uuid.UUID   `json:"user_id" binding:"required"`
	VenueID uuid.UUID   `json:"venue_id" binding:"required"`
	Date    string      `json:"date" binding:"required"`
	Slots   []SlotRange `json:"slots" binding:"required"`
	Amount  float64     `json:"amount" binding:"required"`
}

// Validate checks every field and reports the first problem with a
// field-specific message.
func (r *CreateBookingRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if r.VenueID == uuid.Nil {
		return fmt.Errorf("venue_id is required")
	}
	if r.Date == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	if len(r.Slots) == 0 {
		return fmt.Errorf("at least one slot is required")
	}
	for i := range r.Slots {
		if err := r.Slots[i].Validate(); err != nil {
			return err
		}
	}
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	return nil
}

// CreateBookingResponse carries what the client needs to open checkout.
type CreateBookingResponse struct {
	BookingID     uuid.UUID `json:"booking_id"`
	OrderID       string    `json:"order_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	KeyID         string    `json:"key_id"`
	PaymentStatus string    `json:"payment_status"`
}

// ConfirmPaymentRequest reconciles a checkout result with the gateway.
type ConfirmPaymentRequest struct {
	BookingID         uuid.UUID `json:"booking_id" binding:"required"`
	RazorpayOrderID   string    `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string    `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string    `json:"razorpay_signature" binding:"required"`
}

// Validate checks all reconciliation fields are present.
func (r *ConfirmPaymentRequest) Validate() error {
	if r.BookingID == uuid.Nil {
		return fmt.Errorf("booking_id is required")
	}
	if r.RazorpayOrderID == "" {
		return fmt.Errorf("razorpay_order_id is required")
	}
	if r.RazorpayPaymentID == "" {
		return fmt.Errorf("razorpay_payment_id is required")
	}
	if r.RazorpaySignature == "" {
		return fmt.Errorf("razorpay_signature is required")
	}
	return nil
}

// ConfirmPaymentResponse reports the settled state of a booking.
type ConfirmPaymentResponse struct {
	BookingID     uuid.UUID `json:"booking_id"`
	TransactionID string    `json:"transaction_id"`
	PaymentStatus string    `json:"payment_status"`
}

// BookingDetail is a booking joined with its venue summary and slots.
// UserName is the booker's display name, falling back to their email when
// no name is set.
type BookingDetail struct {
	Booking  Booking
	UserName string
	Venue    VenueSummary
	Slots    []Slot
}

// SlotView is the slot projection inside booking listings.
type SlotView struct {
	ID        uuid.UUID `json:"id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Price     float64   `json:"price"`
}

// QRData is embedded in booking listings for gate-side verification. User
// is the booker's display name.
type QRData struct {
	BookingID     uuid.UUID `json:"booking_id"`
	User          string    `json:"user"`
	Venue         string    `json:"venue"`
	Amount        float64   `json:"amount"`
	PaymentStatus string    `json:"payment_status"`
	Slots         []string  `json:"slots"`
}

// BookingView is one serialized entry in the active or history listings.
type BookingView struct {
	BookingID       uuid.UUID    `json:"booking_id"`
	Venue           VenueSummary `json:"venue"`
	Amount          float64      `json:"amount"`
	PaymentStatus   string       `json:"payment_status"`
	RazorpayOrderID string       `json:"razorpay_order_id"`
	TransactionID   *string      `json:"transaction_id"`
	CreatedAt       time.Time    `json:"created_at"`
	Slots           []SlotView   `json:"slots"`
	QRData          QRData       `json:"qr_data"`
}

// ExpiredBooking identifies a pending booking reclaimed by the sweep.
type ExpiredBooking struct {
	ID     uuid.UUID `db:"id"`
	UserID uuid.UUID `db:"user_id"`
}
