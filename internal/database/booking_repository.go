package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/AnandNexkites/citypattle/internal/models"
	"github.com/AnandNexkites/citypattle/pkg/apperrors"
)

// ErrBookingNotPending is returned when a state transition finds the
// booking no longer pending, typically because the expiry sweep reclaimed
// it first.
var ErrBookingNotPending = errors.New("booking is not pending")

// BookingRepository handles booking persistence and the transactional slot
// claims backing it. It needs the concrete sqlx handle for transactions.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreateBookingWithSlots atomically claims every requested slot range and
// inserts the pending booking. Any prior pending booking the user holds on
// the venue is superseded first: its slots are released and the booking
// deleted. A range already booked by someone else aborts the whole
// transaction with a slot conflict, so concurrent claims of one slot admit
// exactly one winner.
func (r *BookingRepository) CreateBookingWithSlots(userID, venueID uuid.UUID, date time.Time, ranges []models.SlotRange, slotPrice, amount float64, orderID string) (*models.Booking, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.supersedePendingTx(tx, userID, venueID); err != nil {
		return nil, err
	}

	dateStr := date.Format(models.DateLayout)
	slotIDs := make([]uuid.UUID, 0, len(ranges))
	for _, rng := range ranges {
		slotID, err := r.claimSlotTx(tx, venueID, dateStr, rng, slotPrice)
		if err != nil {
			return nil, err
		}
		slotIDs = append(slotIDs, slotID)
	}

	booking := &models.Booking{
		ID:              uuid.New(),
		UserID:          userID,
		VenueID:         venueID,
		Amount:          amount,
		PaymentStatus:   models.PaymentStatusPending,
		RazorpayOrderID: orderID,
	}
	err = tx.QueryRow(`
		INSERT INTO bookings (id, user_id, venue_id, amount, payment_status, razorpay_order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at`,
		booking.ID, booking.UserID, booking.VenueID, booking.Amount, booking.PaymentStatus, booking.RazorpayOrderID,
	).Scan(&booking.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert booking: %w", err)
	}

	for _, slotID := range slotIDs {
		if _, err := tx.Exec(
			`INSERT INTO booking_slots (booking_id, slot_id) VALUES ($1, $2)`,
			booking.ID, slotID,
		); err != nil {
			return nil, fmt.Errorf("failed to link slot to booking: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}
	return booking, nil
}

// claimSlotTx flips an existing free slot to booked, or lazily inserts the
// slot row when the venue has never had a booking for that range. Losing
// either race means someone else holds the slot.
func (r *BookingRepository) claimSlotTx(tx *sqlx.Tx, venueID uuid.UUID, date string, rng models.SlotRange, price float64) (uuid.UUID, error) {
	var slotID uuid.UUID
	err := tx.Get(&slotID, `
		UPDATE slots
		SET is_booked = TRUE
		WHERE venue_id = $1 AND date = $2 AND start_time = $3 AND end_time = $4 AND is_booked = FALSE
		RETURNING id`,
		venueID, date, rng.StartTime, rng.EndTime)
	if err == nil {
		return slotID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("failed to claim slot: %w", err)
	}

	err = tx.Get(&slotID, `
		INSERT INTO slots (id, venue_id, date, start_time, end_time, price, is_booked)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (venue_id, date, start_time, end_time) DO NOTHING
		RETURNING id`,
		uuid.New(), venueID, date, rng.StartTime, rng.EndTime, price)
	if err == nil {
		return slotID, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, apperrors.SlotConflict(rng.StartTime, rng.EndTime)
	}
	return uuid.Nil, fmt.Errorf("failed to insert slot: %w", err)
}

// supersedePendingTx releases and deletes any pending booking the user
// already holds on the venue.
func (r *BookingRepository) supersedePendingTx(tx *sqlx.Tx, userID, venueID uuid.UUID) error {
	var staleIDs []uuid.UUID
	err := tx.Select(&staleIDs, `
		SELECT id FROM bookings
		WHERE user_id = $1 AND venue_id = $2 AND payment_status = $3
		FOR UPDATE`,
		userID, venueID, models.PaymentStatusPending)
	if err != nil {
		return fmt.Errorf("failed to find pending bookings: %w", err)
	}
	if len(staleIDs) == 0 {
		return nil
	}
	return r.deleteBookingsTx(tx, staleIDs)
}

// deleteBookingsTx releases the slots held by the given bookings, then
// removes the bookings and their slot links.
func (r *BookingRepository) deleteBookingsTx(tx *sqlx.Tx, bookingIDs []uuid.UUID) error {
	query, args, err := sqlx.In(`
		UPDATE slots SET is_booked = FALSE
		WHERE id IN (SELECT slot_id FROM booking_slots WHERE booking_id IN (?))`, bookingIDs)
	if err != nil {
		return fmt.Errorf("failed to build slot release query: %w", err)
	}
	if _, err := tx.Exec(tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to release slots: %w", err)
	}

	query, args, err = sqlx.In(`DELETE FROM booking_slots WHERE booking_id IN (?)`, bookingIDs)
	if err != nil {
		return fmt.Errorf("failed to build slot link delete query: %w", err)
	}
	if _, err := tx.Exec(tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to delete slot links: %w", err)
	}

	query, args, err = sqlx.In(`DELETE FROM bookings WHERE id IN (?)`, bookingIDs)
	if err != nil {
		return fmt.Errorf("failed to build booking delete query: %w", err)
	}
	if _, err := tx.Exec(tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to delete bookings: %w", err)
	}
	return nil
}

// GetBookingByIDAndOrder retrieves a booking by its ID and gateway order
// ID. Returns nil when no booking matches.
func (r *BookingRepository) GetBookingByIDAndOrder(id uuid.UUID, orderID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.Get(&booking, `
		SELECT id, user_id, venue_id, amount, payment_status,
		       razorpay_order_id, razorpay_payment_id, razorpay_signature, created_at
		FROM bookings
		WHERE id = $1 AND razorpay_order_id = $2`,
		id, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// MarkBookingPaid settles a pending booking with its payment credentials.
// Returns ErrBookingNotPending if the booking was reclaimed or already
// settled in the meantime.
func (r *BookingRepository) MarkBookingPaid(id uuid.UUID, paymentID, signature string) error {
	result, err := r.db.Exec(`
		UPDATE bookings
		SET payment_status = $1, razorpay_payment_id = $2, razorpay_signature = $3
		WHERE id = $4 AND payment_status = $5`,
		models.PaymentStatusPaid, paymentID, signature, id, models.PaymentStatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark booking paid: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrBookingNotPending
	}
	return nil
}

// MarkBookingFailed moves a pending booking to failed and releases its
// slots so others can claim them again.
func (r *BookingRepository) MarkBookingFailed(id uuid.UUID) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE bookings SET payment_status = $1
		WHERE id = $2 AND payment_status = $3`,
		models.PaymentStatusFailed, id, models.PaymentStatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark booking failed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrBookingNotPending
	}

	if _, err := tx.Exec(`
		UPDATE slots SET is_booked = FALSE
		WHERE id IN (SELECT slot_id FROM booking_slots WHERE booking_id = $1)`, id); err != nil {
		return fmt.Errorf("failed to release slots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit failure: %w", err)
	}
	return nil
}

// ExpirePendingBookings reclaims pending bookings created before the
// cutoff: their slots are released and the bookings deleted. Rows locked by
// a concurrent confirmation are skipped and picked up on the next sweep.
func (r *BookingRepository) ExpirePendingBookings(cutoff time.Time) ([]models.ExpiredBooking, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var expired []models.ExpiredBooking
	err = tx.Select(&expired, `
		SELECT id, user_id FROM bookings
		WHERE payment_status = $1 AND created_at < $2
		FOR UPDATE SKIP LOCKED`,
		models.PaymentStatusPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired bookings: %w", err)
	}
	if len(expired) == 0 {
		return nil, tx.Commit()
	}

	ids := make([]uuid.UUID, len(expired))
	for i, e := range expired {
		ids[i] = e.ID
	}
	if err := r.deleteBookingsTx(tx, ids); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expiry: %w", err)
	}
	return expired, nil
}

// ReleaseOrphanedSlots frees booked slot rows that no pending or paid
// booking references. Run periodically as a safety net.
func (r *BookingRepository) ReleaseOrphanedSlots() (int64, error) {
	result, err := r.db.Exec(`
		UPDATE slots SET is_booked = FALSE
		WHERE is_booked = TRUE
		  AND NOT EXISTS (
			SELECT 1 FROM booking_slots bs
			JOIN bookings b ON b.id = bs.booking_id
			WHERE bs.slot_id = slots.id AND b.payment_status IN ($1, $2)
		  )`,
		models.PaymentStatusPending, models.PaymentStatusPaid)
	if err != nil {
		return 0, fmt.Errorf("failed to release orphaned slots: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

type bookingListRow struct {
	ID                uuid.UUID `db:"id"`
	UserID            uuid.UUID `db:"user_id"`
	VenueID           uuid.UUID `db:"venue_id"`
	Amount            float64   `db:"amount"`
	PaymentStatus     string    `db:"payment_status"`
	RazorpayOrderID   string    `db:"razorpay_order_id"`
	RazorpayPaymentID *string   `db:"razorpay_payment_id"`
	RazorpaySignature *string   `db:"razorpay_signature"`
	CreatedAt         time.Time `db:"created_at"`
	UserName          string    `db:"user_name"`
	UserEmail         string    `db:"user_email"`
	VenueName         string    `db:"venue_name"`
	VenueContact      string    `db:"venue_contact"`
	VenueClub         string    `db:"venue_club"`
	VenueAddress      string    `db:"venue_address"`
	VenuePrice        float64   `db:"venue_price"`
}

type bookingSlotRow struct {
	BookingID uuid.UUID `db:"booking_id"`
	models.Slot
}

// ListBookingsByUser returns a user's bookings newest first, each joined
// with its venue summary and slots.
func (r *BookingRepository) ListBookingsByUser(userID uuid.UUID) ([]models.BookingDetail, error) {
	var rows []bookingListRow
	err := r.db.Select(&rows, `
		SELECT b.id, b.user_id, b.venue_id, b.amount, b.payment_status,
		       b.razorpay_order_id, b.razorpay_payment_id, b.razorpay_signature, b.created_at,
		       u.full_name AS user_name, u.email AS user_email,
		       v.name AS venue_name, v.contact AS venue_contact, v.club AS venue_club,
		       v.address AS venue_address, v.price AS venue_price
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		JOIN venues v ON v.id = b.venue_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	bookingIDs := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		bookingIDs[i] = row.ID
	}

	query, args, err := sqlx.In(`
		SELECT bs.booking_id, s.id, s.venue_id, s.date, s.start_time, s.end_time, s.price, s.is_booked
		FROM booking_slots bs
		JOIN slots s ON s.id = bs.slot_id
		WHERE bs.booking_id IN (?)
		ORDER BY s.date, s.start_time`, bookingIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build slots query: %w", err)
	}

	var slotRows []bookingSlotRow
	if err := r.db.Select(&slotRows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list booking slots: %w", err)
	}

	slotsByBooking := make(map[uuid.UUID][]models.Slot, len(rows))
	for _, sr := range slotRows {
		slotsByBooking[sr.BookingID] = append(slotsByBooking[sr.BookingID], sr.Slot)
	}

	details := make([]models.BookingDetail, 0, len(rows))
	for _, row := range rows {
		userName := row.UserName
		if userName == "" {
			userName = row.UserEmail
		}
		details = append(details, models.BookingDetail{
			UserName: userName,
			Booking: models.Booking{
				ID:                row.ID,
				UserID:            row.UserID,
				VenueID:           row.VenueID,
				Amount:            row.Amount,
				PaymentStatus:     row.PaymentStatus,
				RazorpayOrderID:   row.RazorpayOrderID,
				RazorpayPaymentID: row.RazorpayPaymentID,
				RazorpaySignature: row.RazorpaySignature,
				CreatedAt:         row.CreatedAt,
			},
			Venue: models.VenueSummary{
				ID:           row.VenueID,
				Name:         row.VenueName,
				Contact:      row.VenueContact,
				Club:         row.VenueClub,
				Address:      row.VenueAddress,
				PricePerSlot: row.VenuePrice,
			},
			Slots: slotsByBooking[row.ID],
		})
	}
	return details, nil
}
