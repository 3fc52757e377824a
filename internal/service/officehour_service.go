package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campusops/registrar-api/internal/dto"
	"github.com/campusops/registrar-api/internal/models"
	appErrors "github.com/campusops/registrar-api/pkg/errors"
	"github.com/campusops/registrar-api/pkg/interval"
)

const defaultListWindow = 4 * 7 * 24 * time.Hour

var weekdays = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

type slotRepository interface {
	HasOverlap(ctx context.Context, q sqlx.ExtContext, staffID string, start, end time.Time) (bool, error)
	InsertBatch(ctx context.Context, q sqlx.ExtContext, slots []models.OfficeHourSlot) error
	FindByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id string) (*models.OfficeHourSlot, error)
	HasBookingWithStaffOn(ctx context.Context, q sqlx.ExtContext, studentID, staffID string, dayStart, dayEnd time.Time) (bool, error)
	Claim(ctx context.Context, q sqlx.ExtContext, id, studentID, purpose string) error
	Cancel(ctx context.Context, q sqlx.ExtContext, id string) error
	ListByStaff(ctx context.Context, staffID string, from, to time.Time) ([]models.OfficeHourSlot, error)
	ListBookedByStudent(ctx context.Context, studentID string) ([]models.SlotDetail, error)
}

type slotUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id string) (*models.User, error)
}

type cancellationNotifier interface {
	NotifyCancellation(notice CancellationNotice) error
}

// OfficeHourConfig bounds recurring slot generation.
type OfficeHourConfig struct {
	DefaultSlotMinutes int
	MaxWeeks           int
}

// OfficeHourService generates recurring office hour slots and arbitrates
// student bookings of them.
type OfficeHourService struct {
	slots     slotRepository
	users     slotUserReader
	notifier  cancellationNotifier
	tx        txProvider
	cfg       OfficeHourConfig
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewOfficeHourService wires office hour dependencies.
func NewOfficeHourService(
	slots slotRepository,
	users slotUserReader,
	notifier cancellationNotifier,
	tx txProvider,
	cfg OfficeHourConfig,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *OfficeHourService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultSlotMinutes <= 0 {
		cfg.DefaultSlotMinutes = 30
	}
	if cfg.MaxWeeks <= 0 {
		cfg.MaxWeeks = 16
	}
	return &OfficeHourService{
		slots:     slots,
		users:     users,
		notifier:  notifier,
		tx:        tx,
		cfg:       cfg,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// parseClock converts an HH:MM string into minutes from midnight.
func parseClock(raw string) (int, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// GenerateRecurringSlots creates AVAILABLE slots for N weekly occurrences of
// the pattern. A week whose block overlaps any existing slot of the staff
// member is skipped entirely. The staff user row is locked, so concurrent
// generation for one staff member serializes.
func (s *OfficeHourService) GenerateRecurringSlots(ctx context.Context, staffID string, req dto.GenerateSlotsRequest) (created []models.OfficeHourSlot, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot generation payload")
	}
	if req.NumberOfWeeks > s.cfg.MaxWeeks {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("number_of_weeks may not exceed %d", s.cfg.MaxWeeks))
	}

	startOffset, err := parseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start_time")
	}
	endOffset, err := parseClock(req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end_time")
	}
	if startOffset >= endOffset {
		return nil, appErrors.ErrInvalidInterval
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = s.cfg.DefaultSlotMinutes
	}

	staff, err := s.users.FindByID(ctx, staffID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff member")
	}
	if !staff.Role.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teaching staff can hold office hours")
	}

	// First occurrence is the next calendar day matching the target
	// weekday, today included.
	today := s.now().UTC().Truncate(24 * time.Hour)
	target := weekdays[req.DayOfWeek]
	daysAhead := (int(target) - int(today.Weekday()) + 7) % 7
	firstDay := today.AddDate(0, 0, daysAhead)

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin slot generation")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = s.users.FindByIDForUpdate(ctx, tx, staffID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock staff member")
	}

	skippedWeeks := 0
	for week := 0; week < req.NumberOfWeeks; week++ {
		day := firstDay.AddDate(0, 0, 7*week)
		blockStart := day.Add(time.Duration(startOffset) * time.Minute)
		blockEnd := day.Add(time.Duration(endOffset) * time.Minute)

		conflict, cErr := s.slots.HasOverlap(ctx, tx, staffID, blockStart, blockEnd)
		if cErr != nil {
			err = appErrors.Wrap(cErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot overlap")
			return nil, err
		}
		if conflict {
			skippedWeeks++
			continue
		}

		for pointer := blockStart; !pointer.Add(time.Duration(duration) * time.Minute).After(blockEnd); pointer = pointer.Add(time.Duration(duration) * time.Minute) {
			created = append(created, models.OfficeHourSlot{
				StaffID:         staffID,
				DayOfWeek:       req.DayOfWeek,
				StartTime:       pointer,
				EndTime:         pointer.Add(time.Duration(duration) * time.Minute),
				DurationMinutes: duration,
				Status:          models.SlotStatusAvailable,
			})
		}
	}

	if len(created) > 0 {
		if err = s.slots.InsertBatch(ctx, tx, created); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert slots")
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit slot generation")
	}

	s.logger.Info("office hour slots generated",
		zap.String("staff_id", staffID),
		zap.String("day_of_week", req.DayOfWeek),
		zap.Int("created", len(created)),
		zap.Int("skipped_weeks", skippedWeeks))
	return created, nil
}

// BookSlot claims an AVAILABLE slot for the student. The slot row is locked,
// so of two concurrent claims exactly one wins.
func (s *OfficeHourService) BookSlot(ctx context.Context, studentID, slotID string, req dto.BookSlotRequest) (slot *models.OfficeHourSlot, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student account inactive")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin slot booking")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	slot, err = s.slots.FindByIDForUpdate(ctx, tx, slotID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "office hour slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}

	if slot.Status != models.SlotStatusAvailable {
		return nil, appErrors.ErrSlotNotAvailable
	}
	if slot.StartTime.Before(s.now().UTC()) {
		return nil, appErrors.ErrPastSlot
	}

	dayStart := slot.StartTime.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)
	duplicate, err := s.slots.HasBookingWithStaffOn(ctx, tx, studentID, slot.StaffID, dayStart, dayEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check duplicate booking")
	}
	if duplicate {
		return nil, appErrors.ErrDuplicateBooking
	}

	if err = s.slots.Claim(ctx, tx, slotID, studentID, req.Purpose); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrSlotNotAvailable
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim slot")
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit slot booking")
	}

	slot.Status = models.SlotStatusBooked
	slot.BookedBy = &studentID
	slot.Purpose = &req.Purpose

	s.metrics.RecordSlotClaim()
	s.logger.Info("office hour slot booked",
		zap.String("slot_id", slotID),
		zap.String("student_id", studentID),
		zap.String("staff_id", slot.StaffID))
	return slot, nil
}

// CancelSlot marks the slot CANCELLED. Cancelling an already cancelled slot
// is a no-op. When a booked slot is cancelled the student gets a notice.
func (s *OfficeHourService) CancelSlot(ctx context.Context, slotID string) (slot *models.OfficeHourSlot, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin slot cancellation")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	slot, err = s.slots.FindByIDForUpdate(ctx, tx, slotID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "office hour slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}

	if slot.Status == models.SlotStatusCancelled {
		_ = tx.Rollback()
		return slot, nil
	}

	wasBooked := slot.Status == models.SlotStatusBooked
	bookedBy := slot.BookedBy

	if err = s.slots.Cancel(ctx, tx, slotID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel slot")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit slot cancellation")
	}

	slot.Status = models.SlotStatusCancelled

	if wasBooked && bookedBy != nil && s.notifier != nil {
		notice := CancellationNotice{
			SlotID:    slot.ID,
			StaffID:   slot.StaffID,
			StudentID: *bookedBy,
			SlotStart: slot.StartTime,
		}
		if nErr := s.notifier.NotifyCancellation(notice); nErr != nil {
			s.logger.Warn("failed to enqueue cancellation notice",
				zap.String("slot_id", slot.ID), zap.Error(nErr))
		}
	}
	return slot, nil
}

// ListSlotsForStaff returns the staff member's slots inside the window.
// The window defaults to the next four weeks.
func (s *OfficeHourService) ListSlotsForStaff(ctx context.Context, staffID string, query dto.SlotWindowQuery) ([]models.OfficeHourSlot, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot window")
	}

	from := s.now().UTC()
	if query.From != "" {
		parsed, err := time.ParseInLocation("2006-01-02", query.From, time.UTC)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid from date")
		}
		from = parsed
	}
	to := from.Add(defaultListWindow)
	if query.To != "" {
		parsed, err := time.ParseInLocation("2006-01-02", query.To, time.UTC)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid to date")
		}
		to = parsed.Add(24 * time.Hour)
	}
	if !interval.New(from, to).Valid() {
		return nil, appErrors.ErrInvalidInterval
	}

	slots, err := s.slots.ListByStaff(ctx, staffID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slots")
	}
	return slots, nil
}

// ListStudentBookings returns the student's booked slots with staff names.
func (s *OfficeHourService) ListStudentBookings(ctx context.Context, studentID string) ([]models.SlotDetail, error) {
	details, err := s.slots.ListBookedByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list booked slots")
	}
	return details, nil
}
