package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/registrar-api/internal/dto"
	"github.com/campusops/registrar-api/internal/models"
	appErrors "github.com/campusops/registrar-api/pkg/errors"
	"github.com/campusops/registrar-api/pkg/interval"
)

type slotRepoStub struct {
	slots       []models.OfficeHourSlot
	inserted    []models.OfficeHourSlot
	claimDenied bool
}

func (s *slotRepoStub) HasOverlap(ctx context.Context, q sqlx.ExtContext, staffID string, start, end time.Time) (bool, error) {
	for _, slot := range s.slots {
		if slot.StaffID == staffID && slot.Status != models.SlotStatusCancelled && interval.Overlaps(slot.StartTime, slot.EndTime, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (s *slotRepoStub) InsertBatch(ctx context.Context, q sqlx.ExtContext, slots []models.OfficeHourSlot) error {
	for i := range slots {
		if slots[i].ID == "" {
			slots[i].ID = "slot-new"
		}
	}
	s.inserted = append(s.inserted, slots...)
	s.slots = append(s.slots, slots...)
	return nil
}

func (s *slotRepoStub) FindByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id string) (*models.OfficeHourSlot, error) {
	for _, slot := range s.slots {
		if slot.ID == id {
			copied := slot
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *slotRepoStub) HasBookingWithStaffOn(ctx context.Context, q sqlx.ExtContext, studentID, staffID string, dayStart, dayEnd time.Time) (bool, error) {
	for _, slot := range s.slots {
		if slot.StaffID == staffID && slot.Status == models.SlotStatusBooked &&
			slot.BookedBy != nil && *slot.BookedBy == studentID &&
			!slot.StartTime.Before(dayStart) && slot.StartTime.Before(dayEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (s *slotRepoStub) Claim(ctx context.Context, q sqlx.ExtContext, id, studentID, purpose string) error {
	if s.claimDenied {
		return sql.ErrNoRows
	}
	for i := range s.slots {
		if s.slots[i].ID == id && s.slots[i].Status == models.SlotStatusAvailable {
			s.slots[i].Status = models.SlotStatusBooked
			s.slots[i].BookedBy = &studentID
			s.slots[i].Purpose = &purpose
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *slotRepoStub) Cancel(ctx context.Context, q sqlx.ExtContext, id string) error {
	for i := range s.slots {
		if s.slots[i].ID == id {
			s.slots[i].Status = models.SlotStatusCancelled
		}
	}
	return nil
}

func (s *slotRepoStub) ListByStaff(ctx context.Context, staffID string, from, to time.Time) ([]models.OfficeHourSlot, error) {
	var out []models.OfficeHourSlot
	for _, slot := range s.slots {
		if slot.StaffID == staffID && !slot.StartTime.Before(from) && slot.StartTime.Before(to) {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *slotRepoStub) ListBookedByStudent(ctx context.Context, studentID string) ([]models.SlotDetail, error) {
	var out []models.SlotDetail
	for _, slot := range s.slots {
		if slot.Status == models.SlotStatusBooked && slot.BookedBy != nil && *slot.BookedBy == studentID {
			out = append(out, models.SlotDetail{OfficeHourSlot: slot, StaffName: "Dr. Reyes"})
		}
	}
	return out, nil
}

type notifierStub struct {
	notices []CancellationNotice
}

func (s *notifierStub) NotifyCancellation(notice CancellationNotice) error {
	s.notices = append(s.notices, notice)
	return nil
}

type officeHourFixture struct {
	slots    *slotRepoStub
	notifier *notifierStub
	metrics  *MetricsService
	mock     sqlmock.Sqlmock
	svc      *OfficeHourService
}

// mondayMorning is a fixed clock: Monday 2024-09-02 08:00 UTC.
var mondayMorning = time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)

func newOfficeHourFixture(t *testing.T) *officeHourFixture {
	slots := &slotRepoStub{}
	notifier := &notifierStub{}
	users := &userReaderStub{users: map[string]*models.User{
		"prof-1": {ID: "prof-1", Role: models.RoleProfessor, Active: true},
		"ta-1":   {ID: "ta-1", Role: models.RoleTA, Active: true},
		"stu-1":  {ID: "stu-1", Role: models.RoleStudent, Active: true},
		"stu-2":  {ID: "stu-2", Role: models.RoleStudent, Active: true},
	}}
	tx, mock := newTxProviderMock(t)

	metrics := NewMetricsService()
	svc := NewOfficeHourService(slots, users, notifier, tx, OfficeHourConfig{}, metrics, nil, nil)
	svc.now = func() time.Time { return mondayMorning }
	return &officeHourFixture{slots: slots, notifier: notifier, metrics: metrics, mock: mock, svc: svc}
}

func TestOfficeHourServiceGenerateRecurringSlots(t *testing.T) {
	f := newOfficeHourFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	created, err := f.svc.GenerateRecurringSlots(context.Background(), "prof-1", dto.GenerateSlotsRequest{
		DayOfWeek:     "WEDNESDAY",
		StartTime:     "09:00",
		EndTime:       "10:00",
		NumberOfWeeks: 2,
	})
	require.NoError(t, err)
	require.Len(t, created, 4, "two weeks of a one hour block at 30 minutes each")

	firstWednesday := time.Date(2024, 9, 4, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, firstWednesday, created[0].StartTime)
	assert.Equal(t, firstWednesday.Add(30*time.Minute), created[0].EndTime)
	assert.Equal(t, firstWednesday.AddDate(0, 0, 7).Add(30*time.Minute), created[3].StartTime)
	for _, slot := range created {
		assert.Equal(t, models.SlotStatusAvailable, slot.Status)
		assert.Equal(t, 30, slot.DurationMinutes)
	}
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOfficeHourServiceGenerateStartsSameDayWhenWeekdayMatches(t *testing.T) {
	f := newOfficeHourFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	created, err := f.svc.GenerateRecurringSlots(context.Background(), "prof-1", dto.GenerateSlotsRequest{
		DayOfWeek:     "MONDAY",
		StartTime:     "14:00",
		EndTime:       "15:00",
		NumberOfWeeks: 1,
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, time.Date(2024, 9, 2, 14, 0, 0, 0, time.UTC), created[0].StartTime)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOfficeHourServiceGenerateSkipsConflictingWeek(t *testing.T) {
	f := newOfficeHourFixture(t)
	f.slots.slots = append(f.slots.slots, models.OfficeHourSlot{
		ID:        "slot-existing",
		StaffID:   "prof-1",
		StartTime: time.Date(2024, 9, 4, 9, 15, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 9, 4, 9, 45, 0, 0, time.UTC),
		Status:    models.SlotStatusAvailable,
	})
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	created, err := f.svc.GenerateRecurringSlots(context.Background(), "prof-1", dto.GenerateSlotsRequest{
		DayOfWeek:     "WEDNESDAY",
		StartTime:     "09:00",
		EndTime:       "10:00",
		NumberOfWeeks: 2,
	})
	require.NoError(t, err)
	require.Len(t, created, 2, "the conflicting first week is skipped entirely")
	assert.Equal(t, time.Date(2024, 9, 11, 9, 0, 0, 0, time.UTC), created[0].StartTime)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOfficeHourServiceGenerateDropsPartialTrailingSlot(t *testing.T) {
	f := newOfficeHourFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	created, err := f.svc.GenerateRecurringSlots(context.Background(), "prof-1", dto.GenerateSlotsRequest{
		DayOfWeek:     "WEDNESDAY",
		StartTime:     "09:00",
		EndTime:       "10:15",
		NumberOfWeeks: 1,
	})
	require.NoError(t, err)
	require.Len(t, created, 2, "a 75 minute block holds two full 30 minute slots")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOfficeHourServiceGenerateRejectsNonStaff(t *testing.T) {
	f := newOfficeHourFixture(t)

	_, err := f.svc.GenerateRecurringSlots(context.Background(), "stu-1", dto.GenerateSlotsRequest{
		DayOfWeek:     "WEDNESDAY",
		StartTime:     "09:00",
		EndTime:       "10:00",
		NumberOfWeeks: 1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOfficeHourServiceGenerateRejectsInvertedBlock(t *testing.T) {
	f := newOfficeHourFixture(t)

	_, err := f.svc.GenerateRecurringSlots(context.Background(), "prof-1", dto.GenerateSlotsRequest{
		DayOfWeek:     "WEDNESDAY",
		StartTime:     "10:00",
		EndTime:       "09:00",
		NumberOfWeeks: 1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidInterval.Code, appErrors.FromError(err).Code)
}

func bookableSlot(id string) models.OfficeHourSlot {
	return models.OfficeHourSlot{
		ID:              id,
		StaffID:         "prof-1",
		DayOfWeek:       "WEDNESDAY",
		StartTime:       time.Date(2024, 9, 4, 9, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2024, 9, 4, 9, 30, 0, 0, time.UTC),
		DurationMinutes: 30,
		Status:          models.SlotStatusAvailable,
	}
}

func TestOfficeHourServiceBookSlot(t *testing.T) {
	f := newOfficeHourFixture(t)
	f.slots.slots = append(f.slots.slots, bookableSlot("slot-1"))
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	slot, err := f.svc.BookSlot(context.Background(), "stu-1", "slot-1", dto.BookSlotRequest{Purpose: "Project questions"})
	require.NoError(t, err)
	assert.Equal(t, models.SlotStatusBooked, slot.Status)
	require.NotNil(t, slot.BookedBy)
	assert.Equal(t, "stu-1", *slot.BookedBy)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().SlotClaimsTotal)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOfficeHourServiceBookSlotLoses(t *testing.T) {
	f := newOfficeHourFixture(t)
	f.slots.slots = append(f.slots.slots, bookableSlot("slot-1"))
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.BookSlot(context.Background(), "stu-1", "slot-1", dto.BookSlotRequest{Purpose: "First"})
	require.NoError(t, err)

	_, err = f.svc.BookSlot(context.Background(), "stu-2", "slot-1", dto.BookSlotRequest{Purpose: "Second"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotNotAvailable.Code, appErrors.FromError(err).Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOfficeHourServiceBookSlotConditionalClaimLoses(t *testing.T) {
	f := newOfficeHourFixture(t)
	f.slots.slots = append(f.slots.slots, bookableSlot("slot-1"))
	f.slots.claimDenied = true
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.BookSlot(context.Background(), "stu-1", "slot-1", dto.BookSlotRequest{Purpose: "Raced"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotNotAvailable.Code, appErrors.FromError(err).Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOfficeHourServiceBookSlotRejectsPast(t *testing.T) {
	f := newOfficeHourFixture(t)
	past := bookableSlot("slot-1")
	past.StartTime = mondayMorning.Add(-time.Hour)
	past.EndTime = mondayMorning.Add(-30 * time.Minute)
	f.slots.slots = append(f.slots.slots, past)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.BookSlot(context.Background(), "stu-1", "slot-1", dto.BookSlotRequest{Purpose: "Too late"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPastSlot.Code, appErrors.FromError(err).Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOfficeHourServiceBookSlotRejectsSameDayDuplicate(t *testing.T) {
	f := newOfficeHourFixture(t)
	booked := bookableSlot("slot-1")
	student := "stu-1"
	booked.Status = models.SlotStatusBooked
	booked.BookedBy = &student
	second := bookableSlot("slot-2")
	second.StartTime = second.StartTime.Add(30 * time.Minute)
	second.EndTime = second.EndTime.Add(30 * time.Minute)
	f.slots.slots = append(f.slots.slots, booked, second)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.BookSlot(context.Background(), "stu-1", "slot-2", dto.BookSlotRequest{Purpose: "Again"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateBooking.Code, appErrors.FromError(err).Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOfficeHourServiceCancelBookedSlotNotifiesStudent(t *testing.T) {
	f := newOfficeHourFixture(t)
	booked := bookableSlot("slot-1")
	student := "stu-1"
	booked.Status = models.SlotStatusBooked
	booked.BookedBy = &student
	f.slots.slots = append(f.slots.slots, booked)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	slot, err := f.svc.CancelSlot(context.Background(), "slot-1")
	require.NoError(t, err)
	assert.Equal(t, models.SlotStatusCancelled, slot.Status)
	require.Len(t, f.notifier.notices, 1)
	assert.Equal(t, "stu-1", f.notifier.notices[0].StudentID)
	assert.Equal(t, "slot-1", f.notifier.notices[0].SlotID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOfficeHourServiceCancelIsIdempotent(t *testing.T) {
	f := newOfficeHourFixture(t)
	cancelled := bookableSlot("slot-1")
	cancelled.Status = models.SlotStatusCancelled
	f.slots.slots = append(f.slots.slots, cancelled)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	slot, err := f.svc.CancelSlot(context.Background(), "slot-1")
	require.NoError(t, err)
	assert.Equal(t, models.SlotStatusCancelled, slot.Status)
	assert.Empty(t, f.notifier.notices)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOfficeHourServiceListSlotsForStaffDefaultWindow(t *testing.T) {
	f := newOfficeHourFixture(t)
	inWindow := bookableSlot("slot-1")
	farFuture := bookableSlot("slot-2")
	farFuture.StartTime = mondayMorning.AddDate(0, 6, 0)
	farFuture.EndTime = farFuture.StartTime.Add(30 * time.Minute)
	f.slots.slots = append(f.slots.slots, inWindow, farFuture)

	slots, err := f.svc.ListSlotsForStaff(context.Background(), "prof-1", dto.SlotWindowQuery{})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "slot-1", slots[0].ID)
}

func TestOfficeHourServiceListStudentBookings(t *testing.T) {
	f := newOfficeHourFixture(t)
	booked := bookableSlot("slot-1")
	student := "stu-1"
	booked.Status = models.SlotStatusBooked
	booked.BookedBy = &student
	f.slots.slots = append(f.slots.slots, booked)

	details, err := f.svc.ListStudentBookings(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Dr. Reyes", details[0].StaffName)
}
