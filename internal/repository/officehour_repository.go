package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/registrar-api/internal/models"
)

const slotColumns = `id, staff_id, day_of_week, start_time, end_time, duration_minutes, status, booked_by, purpose, created_at`

// OfficeHourRepository handles persistence of office hour slots.
type OfficeHourRepository struct {
	db *sqlx.DB
}

// NewOfficeHourRepository constructs the repository.
func NewOfficeHourRepository(db *sqlx.DB) *OfficeHourRepository {
	return &OfficeHourRepository{db: db}
}

// HasOverlap reports whether any non-cancelled slot of the staff member
// intersects the half-open interval [start, end).
func (r *OfficeHourRepository) HasOverlap(ctx context.Context, q sqlx.ExtContext, staffID string, start, end time.Time) (bool, error) {
	const query = `SELECT EXISTS(
SELECT 1 FROM office_hour_slots
WHERE staff_id = $1 AND status <> 'CANCELLED' AND start_time < $3 AND end_time > $2)`
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, query, staffID, start, end); err != nil {
		return false, fmt.Errorf("check slot overlap: %w", err)
	}
	return exists, nil
}

// InsertBatch stores generated slots inside the caller's transaction.
func (r *OfficeHourRepository) InsertBatch(ctx context.Context, q sqlx.ExtContext, slots []models.OfficeHourSlot) error {
	const query = `INSERT INTO office_hour_slots (id, staff_id, day_of_week, start_time, end_time, duration_minutes, status, booked_by, purpose, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = time.Now().UTC()
		}
		if _, err := q.ExecContext(ctx, query, slot.ID, slot.StaffID, slot.DayOfWeek, slot.StartTime, slot.EndTime, slot.DurationMinutes, slot.Status, slot.BookedBy, slot.Purpose, slot.CreatedAt); err != nil {
			return fmt.Errorf("insert office hour slot: %w", err)
		}
	}
	return nil
}

// FindByIDForUpdate locks the slot row inside the caller's transaction.
// Concurrent claims of one slot serialize on this lock.
func (r *OfficeHourRepository) FindByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id string) (*models.OfficeHourSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM office_hour_slots WHERE id = $1 FOR UPDATE`, slotColumns)
	var slot models.OfficeHourSlot
	if err := sqlx.GetContext(ctx, q, &slot, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock office hour slot: %w", err)
	}
	return &slot, nil
}

// HasBookingWithStaffOn reports whether the student already holds a BOOKED
// slot with the staff member inside [dayStart, dayEnd).
func (r *OfficeHourRepository) HasBookingWithStaffOn(ctx context.Context, q sqlx.ExtContext, studentID, staffID string, dayStart, dayEnd time.Time) (bool, error) {
	const query = `SELECT EXISTS(
SELECT 1 FROM office_hour_slots
WHERE staff_id = $1 AND booked_by = $2 AND status = 'BOOKED' AND start_time >= $3 AND start_time < $4)`
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, query, staffID, studentID, dayStart, dayEnd); err != nil {
		return false, fmt.Errorf("check same-day booking: %w", err)
	}
	return exists, nil
}

// Claim marks the slot BOOKED by the student. The status predicate makes the
// update conditional, so a slot claimed between read and write stays claimed.
// Returns sql.ErrNoRows when the slot was no longer AVAILABLE.
func (r *OfficeHourRepository) Claim(ctx context.Context, q sqlx.ExtContext, id, studentID, purpose string) error {
	const query = `UPDATE office_hour_slots SET status = 'BOOKED', booked_by = $2, purpose = $3 WHERE id = $1 AND status = 'AVAILABLE'`
	res, err := q.ExecContext(ctx, query, id, studentID, purpose)
	if err != nil {
		return fmt.Errorf("claim office hour slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim office hour slot: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Cancel sets the slot status to CANCELLED.
func (r *OfficeHourRepository) Cancel(ctx context.Context, q sqlx.ExtContext, id string) error {
	const query = `UPDATE office_hour_slots SET status = 'CANCELLED' WHERE id = $1`
	if _, err := q.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("cancel office hour slot: %w", err)
	}
	return nil
}

// ListByStaff returns the staff member's slots with start inside [from, to),
// ordered by start.
func (r *OfficeHourRepository) ListByStaff(ctx context.Context, staffID string, from, to time.Time) ([]models.OfficeHourSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM office_hour_slots WHERE staff_id = $1 AND start_time >= $2 AND start_time < $3 ORDER BY start_time ASC`, slotColumns)
	var slots []models.OfficeHourSlot
	if err := r.db.SelectContext(ctx, &slots, query, staffID, from, to); err != nil {
		return nil, fmt.Errorf("list slots by staff: %w", err)
	}
	return slots, nil
}

// ListBookedByStudent returns the student's booked slots joined with staff
// names, ordered by start.
func (r *OfficeHourRepository) ListBookedByStudent(ctx context.Context, studentID string) ([]models.SlotDetail, error) {
	const query = `SELECT
	s.id, s.staff_id, s.day_of_week, s.start_time, s.end_time, s.duration_minutes, s.status, s.booked_by, s.purpose, s.created_at,
	u.full_name AS staff_name
FROM office_hour_slots s
JOIN users u ON u.id = s.staff_id
WHERE s.booked_by = $1 AND s.status = 'BOOKED'
ORDER BY s.start_time ASC`
	var details []models.SlotDetail
	if err := r.db.SelectContext(ctx, &details, query, studentID); err != nil {
		return nil, fmt.Errorf("list booked slots by student: %w", err)
	}
	return details, nil
}
