package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/registrar-api/internal/dto"
	"github.com/campusops/registrar-api/internal/middleware"
	"github.com/campusops/registrar-api/internal/models"
	appErrors "github.com/campusops/registrar-api/pkg/errors"
)

type roomServiceMock struct {
	rooms    []models.Room
	grid     *dto.AvailabilityGrid
	booking  *models.Booking
	bookings []models.BookingDetail
	err      error
}

func (m *roomServiceMock) ListRooms(ctx context.Context) ([]models.Room, error) {
	return m.rooms, m.err
}

func (m *roomServiceMock) GetAvailability(ctx context.Context, query dto.AvailabilityQuery) (*dto.AvailabilityGrid, bool, error) {
	return m.grid, false, m.err
}

func (m *roomServiceMock) CreateBooking(ctx context.Context, requesterID string, req dto.CreateBookingRequest) (*models.Booking, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.booking, nil
}

func (m *roomServiceMock) ListBookings(ctx context.Context, requesterID string) ([]models.BookingDetail, error) {
	return m.bookings, m.err
}

func (m *roomServiceMock) ExportBookings(ctx context.Context, requesterID, format string) ([]byte, string, string, error) {
	if m.err != nil {
		return nil, "", "", m.err
	}
	return []byte("Room,Building\n"), "bookings.csv", "text/csv", nil
}

func professorContext(w *httptest.ResponseRecorder) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "prof-1", Role: models.RoleProfessor})
	return c
}

func TestRoomHandlerAvailability(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRoomHandler(&roomServiceMock{
		grid: &dto.AvailabilityGrid{Date: "2024-09-02", Rooms: []dto.RoomAvailability{{RoomCode: "A-101"}}},
	})
	w := httptest.NewRecorder()
	c := professorContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/rooms/availability?date=2024-09-02", nil)
	c.Request = req

	handler.Availability(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "A-101")
}

func TestRoomHandlerCreateBookingConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRoomHandler(&roomServiceMock{err: appErrors.ErrRoomConflict})
	w := httptest.NewRecorder()
	c := professorContext(w)
	body, _ := json.Marshal(dto.CreateBookingRequest{
		RoomID:    "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed",
		StartTime: time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 9, 2, 11, 0, 0, 0, time.UTC),
		Purpose:   "Seminar",
	})
	req, _ := http.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.CreateBooking(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrRoomConflict.Code)
}

func TestRoomHandlerCreateBooking(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRoomHandler(&roomServiceMock{
		booking: &models.Booking{ID: "bk-1", Status: models.BookingStatusConfirmed},
	})
	w := httptest.NewRecorder()
	c := professorContext(w)
	body, _ := json.Marshal(dto.CreateBookingRequest{
		RoomID:    "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed",
		StartTime: time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 9, 2, 11, 0, 0, 0, time.UTC),
		Purpose:   "Seminar",
	})
	req, _ := http.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.CreateBooking(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestRoomHandlerExportSetsDisposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRoomHandler(&roomServiceMock{})
	w := httptest.NewRecorder()
	c := professorContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/bookings/mine/export?format=csv", nil)
	c.Request = req

	handler.ExportBookings(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="bookings.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}
