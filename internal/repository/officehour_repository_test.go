package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/campusops/registrar-api/internal/models"
)

func TestOfficeHourRepositoryHasOverlapExcludesCancelled(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOfficeHourRepository(db)

	start := time.Date(2024, 9, 4, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE staff_id = $1 AND status <> 'CANCELLED' AND start_time < $3 AND end_time > $2`)).
		WithArgs("prof-1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	conflict, err := repo.HasOverlap(context.Background(), db, "prof-1", start, end)
	require.NoError(t, err)
	require.False(t, conflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfficeHourRepositoryInsertBatch(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOfficeHourRepository(db)

	start := time.Date(2024, 9, 4, 9, 0, 0, 0, time.UTC)
	slots := []models.OfficeHourSlot{
		{StaffID: "prof-1", DayOfWeek: "WEDNESDAY", StartTime: start, EndTime: start.Add(30 * time.Minute), DurationMinutes: 30, Status: models.SlotStatusAvailable},
		{StaffID: "prof-1", DayOfWeek: "WEDNESDAY", StartTime: start.Add(30 * time.Minute), EndTime: start.Add(time.Hour), DurationMinutes: 30, Status: models.SlotStatusAvailable},
	}
	for range slots {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO office_hour_slots`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	require.NoError(t, repo.InsertBatch(context.Background(), db, slots))
	require.NotEmpty(t, slots[0].ID)
	require.NotEmpty(t, slots[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfficeHourRepositoryFindByIDForUpdate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOfficeHourRepository(db)

	start := time.Date(2024, 9, 4, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "staff_id", "day_of_week", "start_time", "end_time", "duration_minutes", "status", "booked_by", "purpose", "created_at"}).
		AddRow("slot-1", "prof-1", "WEDNESDAY", start, start.Add(30*time.Minute), 30, models.SlotStatusAvailable, nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`FROM office_hour_slots WHERE id = $1 FOR UPDATE`)).
		WithArgs("slot-1").
		WillReturnRows(rows)

	slot, err := repo.FindByIDForUpdate(context.Background(), db, "slot-1")
	require.NoError(t, err)
	require.Equal(t, models.SlotStatusAvailable, slot.Status)
	require.Nil(t, slot.BookedBy)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfficeHourRepositoryClaim(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOfficeHourRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE office_hour_slots SET status = 'BOOKED', booked_by = $2, purpose = $3 WHERE id = $1 AND status = 'AVAILABLE'`)).
		WithArgs("slot-1", "stu-1", "Project questions").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Claim(context.Background(), db, "slot-1", "stu-1", "Project questions"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfficeHourRepositoryClaimFailsWhenSlotTaken(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOfficeHourRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND status = 'AVAILABLE'`)).
		WithArgs("slot-1", "stu-1", "Project questions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Claim(context.Background(), db, "slot-1", "stu-1", "Project questions")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfficeHourRepositoryHasBookingWithStaffOn(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOfficeHourRepository(db)

	dayStart := time.Date(2024, 9, 4, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE staff_id = $1 AND booked_by = $2 AND status = 'BOOKED' AND start_time >= $3 AND start_time < $4`)).
		WithArgs("prof-1", "stu-1", dayStart, dayEnd).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	duplicate, err := repo.HasBookingWithStaffOn(context.Background(), db, "stu-1", "prof-1", dayStart, dayEnd)
	require.NoError(t, err)
	require.True(t, duplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfficeHourRepositoryCancel(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOfficeHourRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE office_hour_slots SET status = 'CANCELLED' WHERE id = $1`)).
		WithArgs("slot-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Cancel(context.Background(), db, "slot-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
