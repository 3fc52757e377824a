package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/registrar-api/internal/models"
)

// BookingRepository handles persistence of room bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// HasConfirmedOverlap reports whether a CONFIRMED booking of the room
// intersects the half-open interval [start, end).
func (r *BookingRepository) HasConfirmedOverlap(ctx context.Context, q sqlx.ExtContext, roomID string, start, end time.Time) (bool, error) {
	const query = `SELECT EXISTS(
SELECT 1 FROM bookings
WHERE room_id = $1 AND status = 'CONFIRMED' AND start_time < $3 AND end_time > $2)`
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, query, roomID, start, end); err != nil {
		return false, fmt.Errorf("check booking overlap: %w", err)
	}
	return exists, nil
}

// Create inserts a booking row.
func (r *BookingRepository) Create(ctx context.Context, q sqlx.ExtContext, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO bookings (id, room_id, requester_id, start_time, end_time, status, purpose, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := q.ExecContext(ctx, query, booking.ID, booking.RoomID, booking.RequesterID, booking.StartTime, booking.EndTime, booking.Status, booking.Purpose, booking.CreatedAt); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// ListConfirmedBetween returns CONFIRMED bookings intersecting [start, end)
// across all rooms, used to fill the availability grid for one day.
func (r *BookingRepository) ListConfirmedBetween(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	const query = `SELECT id, room_id, requester_id, start_time, end_time, status, purpose, created_at
FROM bookings
WHERE status = 'CONFIRMED' AND start_time < $2 AND end_time > $1
ORDER BY start_time ASC`
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, start, end); err != nil {
		return nil, fmt.Errorf("list confirmed bookings: %w", err)
	}
	return bookings, nil
}

// ListByRequester returns the requester's bookings joined with room info,
// most recent start first.
func (r *BookingRepository) ListByRequester(ctx context.Context, requesterID string) ([]models.BookingDetail, error) {
	const query = `SELECT
	b.id, b.room_id, b.requester_id, b.start_time, b.end_time, b.status, b.purpose, b.created_at,
	r.code AS room_code,
	r.building AS room_building
FROM bookings b
JOIN rooms r ON r.id = b.room_id
WHERE b.requester_id = $1
ORDER BY b.start_time DESC`
	var details []models.BookingDetail
	if err := r.db.SelectContext(ctx, &details, query, requesterID); err != nil {
		return nil, fmt.Errorf("list bookings by requester: %w", err)
	}
	return details, nil
}
