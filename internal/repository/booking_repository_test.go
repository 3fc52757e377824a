package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/campusops/registrar-api/internal/models"
)

func TestBookingRepositoryHasConfirmedOverlap(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewBookingRepository(db)

	start := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE room_id = $1 AND status = 'CONFIRMED' AND start_time < $3 AND end_time > $2`)).
		WithArgs("room-1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	conflict, err := repo.HasConfirmedOverlap(context.Background(), db, "room-1", start, end)
	require.NoError(t, err)
	require.True(t, conflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewBookingRepository(db)

	start := time.Date(2024, 9, 2, 9, 30, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bookings (id, room_id, requester_id, start_time, end_time, status, purpose, created_at)`)).
		WithArgs(sqlmock.AnyArg(), "room-1", "prof-1", start, start.Add(90*time.Minute), models.BookingStatusConfirmed, "Thesis defense", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	booking := &models.Booking{
		RoomID:      "room-1",
		RequesterID: "prof-1",
		StartTime:   start,
		EndTime:     start.Add(90 * time.Minute),
		Status:      models.BookingStatusConfirmed,
		Purpose:     "Thesis defense",
	}
	require.NoError(t, repo.Create(context.Background(), db, booking))
	require.NotEmpty(t, booking.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListByRequester(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewBookingRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "room_id", "requester_id", "start_time", "end_time", "status", "purpose", "created_at", "room_code", "room_building"}).
		AddRow("bk-1", "room-1", "prof-1", now, now.Add(time.Hour), models.BookingStatusConfirmed, "Seminar", now, "A-101", "Science Hall")
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY b.start_time DESC`)).
		WithArgs("prof-1").
		WillReturnRows(rows)

	details, err := repo.ListByRequester(context.Background(), "prof-1")
	require.NoError(t, err)
	require.Len(t, details, 1)
	require.Equal(t, "A-101", details[0].RoomCode)
	require.NoError(t, mock.ExpectationsWereMet())
}
