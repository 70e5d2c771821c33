package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnandNexkites/citypattle/internal/database"
	"github.com/AnandNexkites/citypattle/internal/models"
	"github.com/AnandNexkites/citypattle/pkg/apperrors"
	"github.com/AnandNexkites/citypattle/pkg/payments"
)

type fakeGateway struct {
	configured  bool
	order       *payments.Order
	orderErr    error
	payment     *payments.Payment
	paymentErr  error
	signatureOK bool
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount float64, _ string) (*payments.Order, error) {
	if g.orderErr != nil {
		return nil, g.orderErr
	}
	return g.order, nil
}

func (g *fakeGateway) FetchPayment(_ context.Context, _ string) (*payments.Payment, error) {
	if g.paymentErr != nil {
		return nil, g.paymentErr
	}
	return g.payment, nil
}

func (g *fakeGateway) VerifySignature(_, _, _ string) bool { return g.signatureOK }
func (g *fakeGateway) KeyID() string                       { return "rzp_test_key" }
func (g *fakeGateway) IsConfigured() bool                  { return g.configured }

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *recordingNotifier) NotifyUser(_ context.Context, _ uuid.UUID, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.titles)
}

func (n *recordingNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.titles) == 0 {
		return ""
	}
	return n.titles[len(n.titles)-1]
}

func newBookingService(db *database.PostgresDB, gateway payments.Gateway, notifier Notifier) *BookingService {
	return NewBookingService(
		database.NewUserRepository(db),
		database.NewVenueRepository(db),
		database.NewBookingRepository(db.DB),
		gateway,
		notifier,
		testLogger(),
	)
}

var userColumns = []string{"id", "full_name", "email", "phone", "password_hash", "city", "created_at"}

func userRow(id uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).
		AddRow(id, "Asha Rao", "asha@example.com", "9876543210", "hashed", "Pune", time.Now())
}

func TestCreateBooking(t *testing.T) {
	userID := uuid.New()
	venueID := uuid.New()
	validReq := func() *models.CreateBookingRequest {
		return &models.CreateBookingRequest{
			UserID:  userID,
			VenueID: venueID,
			Date:    time.Now().AddDate(0, 0, 1).Format(models.DateLayout),
			Slots:   []models.SlotRange{{StartTime: "06:00", EndTime: "07:00"}},
			Amount:  500,
		}
	}

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		notifier := &recordingNotifier{}
		gateway := &fakeGateway{
			configured:  true,
			order:       &payments.Order{ID: "order_123", Amount: 50000, Currency: "INR", Status: "created"},
			signatureOK: true,
		}
		svc := newBookingService(db, gateway, notifier)

		mock.ExpectQuery(`SELECT (.+) FROM users`).WillReturnRows(userRow(userID))
		mock.ExpectQuery(`SELECT (.+) FROM venues`).
			WillReturnRows(venueRow(venueID, strPtr("06:00"), strPtr("14:00"), 500))
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`UPDATE slots\s+SET is_booked = TRUE`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectExec(`INSERT INTO booking_slots`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		resp, err := svc.CreateBooking(context.Background(), validReq())
		assert.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, "order_123", resp.OrderID)
		assert.Equal(t, "rzp_test_key", resp.KeyID)
		assert.Equal(t, models.PaymentStatusPending, resp.PaymentStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Validation Error", func(t *testing.T) {
		db, _ := newMockDB(t)
		svc := newBookingService(db, &fakeGateway{configured: true}, &recordingNotifier{})

		req := validReq()
		req.Slots = nil
		resp, err := svc.CreateBooking(context.Background(), req)
		assert.Nil(t, resp)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	})

	t.Run("User Not Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := newBookingService(db, &fakeGateway{configured: true}, &recordingNotifier{})

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WillReturnRows(sqlmock.NewRows(userColumns))

		resp, err := svc.CreateBooking(context.Background(), validReq())
		assert.Nil(t, resp)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Gateway Not Configured", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := newBookingService(db, &fakeGateway{configured: false}, &recordingNotifier{})

		mock.ExpectQuery(`SELECT (.+) FROM users`).WillReturnRows(userRow(userID))
		mock.ExpectQuery(`SELECT (.+) FROM venues`).
			WillReturnRows(venueRow(venueID, strPtr("06:00"), strPtr("14:00"), 500))

		resp, err := svc.CreateBooking(context.Background(), validReq())
		assert.Nil(t, resp)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeConfiguration, appErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Gateway Unavailable", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := &fakeGateway{configured: true, orderErr: errors.New("connection timed out")}
		svc := newBookingService(db, gateway, &recordingNotifier{})

		mock.ExpectQuery(`SELECT (.+) FROM users`).WillReturnRows(userRow(userID))
		mock.ExpectQuery(`SELECT (.+) FROM venues`).
			WillReturnRows(venueRow(venueID, strPtr("06:00"), strPtr("14:00"), 500))

		resp, err := svc.CreateBooking(context.Background(), validReq())
		assert.Nil(t, resp)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeGatewayUnavailable, appErr.Code)
		// No booking transaction was opened.
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Gateway Rejects Order", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := &fakeGateway{configured: true, orderErr: &payments.APIError{
			StatusCode:  400,
			Code:        "BAD_REQUEST_ERROR",
			Description: "amount exceeds maximum amount allowed",
		}}
		svc := newBookingService(db, gateway, &recordingNotifier{})

		mock.ExpectQuery(`SELECT (.+) FROM users`).WillReturnRows(userRow(userID))
		mock.ExpectQuery(`SELECT (.+) FROM venues`).
			WillReturnRows(venueRow(venueID, strPtr("06:00"), strPtr("14:00"), 500))

		resp, err := svc.CreateBooking(context.Background(), validReq())
		assert.Nil(t, resp)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		// A definitive rejection must not be reported as a retryable outage.
		assert.Equal(t, apperrors.CodeValidation, appErr.Code)
		assert.Contains(t, appErr.Message, "amount exceeds maximum amount allowed")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Slot Conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := &fakeGateway{
			configured: true,
			order:      &payments.Order{ID: "order_123", Currency: "INR"},
		}
		svc := newBookingService(db, gateway, &recordingNotifier{})

		mock.ExpectQuery(`SELECT (.+) FROM users`).WillReturnRows(userRow(userID))
		mock.ExpectQuery(`SELECT (.+) FROM venues`).
			WillReturnRows(venueRow(venueID, strPtr("06:00"), strPtr("14:00"), 500))
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`UPDATE slots\s+SET is_booked = TRUE`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`INSERT INTO slots`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		resp, err := svc.CreateBooking(context.Background(), validReq())
		assert.Nil(t, resp)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeSlotConflict, appErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

var bookingColumns = []string{
	"id", "user_id", "venue_id", "amount", "payment_status",
	"razorpay_order_id", "razorpay_payment_id", "razorpay_signature", "created_at",
}

func TestConfirmPayment(t *testing.T) {
	bookingID := uuid.New()
	userID := uuid.New()
	venueID := uuid.New()
	req := func() *models.ConfirmPaymentRequest {
		return &models.ConfirmPaymentRequest{
			BookingID:         bookingID,
			RazorpayOrderID:   "order_123",
			RazorpayPaymentID: "pay_123",
			RazorpaySignature: "sig_abc",
		}
	}
	pendingRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(bookingColumns).
			AddRow(bookingID, userID, venueID, 500.0, models.PaymentStatusPending,
				"order_123", nil, nil, time.Now())
	}

	t.Run("Captured Payment Settles Booking", func(t *testing.T) {
		db, mock := newMockDB(t)
		notifier := &recordingNotifier{}
		gateway := &fakeGateway{
			configured:  true,
			signatureOK: true,
			payment:     &payments.Payment{ID: "pay_123", OrderID: "order_123", Status: "captured"},
		}
		svc := newBookingService(db, gateway, notifier)

		mock.ExpectQuery(`SELECT (.+) FROM bookings`).WillReturnRows(pendingRow())
		mock.ExpectExec(`UPDATE bookings`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		resp, err := svc.ConfirmPayment(context.Background(), req())
		assert.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, models.PaymentStatusPaid, resp.PaymentStatus)
		assert.Equal(t, "pay_123", resp.TransactionID)
		assert.Eventually(t, func() bool { return notifier.count() == 1 }, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, "Booking Confirmed", notifier.last())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Paid Is Idempotent", func(t *testing.T) {
		db, mock := newMockDB(t)
		notifier := &recordingNotifier{}
		// Gateway would reject the signature, proving it is never consulted.
		gateway := &fakeGateway{configured: true, signatureOK: false}
		svc := newBookingService(db, gateway, notifier)

		paidRow := sqlmock.NewRows(bookingColumns).
			AddRow(bookingID, userID, venueID, 500.0, models.PaymentStatusPaid,
				"order_123", "pay_123", "sig_abc", time.Now())
		mock.ExpectQuery(`SELECT (.+) FROM bookings`).WillReturnRows(paidRow)

		resp, err := svc.ConfirmPayment(context.Background(), req())
		assert.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, models.PaymentStatusPaid, resp.PaymentStatus)
		assert.Equal(t, "pay_123", resp.TransactionID)
		assert.Equal(t, 0, notifier.count())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Booking Not Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := newBookingService(db, &fakeGateway{configured: true}, &recordingNotifier{})

		mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WillReturnRows(sqlmock.NewRows(bookingColumns))

		resp, err := svc.ConfirmPayment(context.Background(), req())
		assert.Nil(t, resp)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Tampered Signature Fails Booking", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := newBookingService(db, &fakeGateway{configured: true, signatureOK: false}, &recordingNotifier{})

		mock.ExpectQuery(`SELECT (.+) FROM bookings`).WillReturnRows(pendingRow())
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE bookings SET payment_status`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE slots SET is_booked = FALSE`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		resp, err := svc.ConfirmPayment(context.Background(), req())
		assert.Nil(t, resp)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeVerificationFailed, appErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Gateway Unreachable Leaves Booking Pending", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := &fakeGateway{
			configured:  true,
			signatureOK: true,
			paymentErr:  errors.New("dial tcp: i/o timeout"),
		}
		svc := newBookingService(db, gateway, &recordingNotifier{})

		mock.ExpectQuery(`SELECT (.+) FROM bookings`).WillReturnRows(pendingRow())

		resp, err := svc.ConfirmPayment(context.Background(), req())
		assert.Nil(t, resp)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeGatewayUnavailable, appErr.Code)
		// No status update was attempted, the client may retry.
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Uncaptured Payment Fails Booking", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := &fakeGateway{
			configured:  true,
			signatureOK: true,
			payment:     &payments.Payment{ID: "pay_123", Status: "authorized"},
		}
		svc := newBookingService(db, gateway, &recordingNotifier{})

		mock.ExpectQuery(`SELECT (.+) FROM bookings`).WillReturnRows(pendingRow())
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE bookings SET payment_status`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE slots SET is_booked = FALSE`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		resp, err := svc.ConfirmPayment(context.Background(), req())
		assert.Nil(t, resp)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodePaymentNotCompleted, appErr.Code)
		assert.Contains(t, appErr.Message, "authorized")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
