package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/registrar-api/internal/dto"
	"github.com/campusops/registrar-api/internal/middleware"
	"github.com/campusops/registrar-api/internal/models"
	appErrors "github.com/campusops/registrar-api/pkg/errors"
	"github.com/campusops/registrar-api/pkg/response"
)

type roomService interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	GetAvailability(ctx context.Context, query dto.AvailabilityQuery) (*dto.AvailabilityGrid, bool, error)
	CreateBooking(ctx context.Context, requesterID string, req dto.CreateBookingRequest) (*models.Booking, error)
	ListBookings(ctx context.Context, requesterID string) ([]models.BookingDetail, error)
	ExportBookings(ctx context.Context, requesterID, format string) ([]byte, string, string, error)
}

// RoomHandler exposes room and booking endpoints.
type RoomHandler struct {
	rooms roomService
}

// NewRoomHandler constructs RoomHandler.
func NewRoomHandler(rooms roomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// ListRooms godoc
// @Summary List active rooms
// @Tags Rooms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.rooms.ListRooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// Availability godoc
// @Summary Availability grid for one date
// @Tags Rooms
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param type query string false "Room type filter"
// @Success 200 {object} response.Envelope
// @Router /rooms/availability [get]
func (h *RoomHandler) Availability(c *gin.Context) {
	var query dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	grid, hit, err := h.rooms.GetAvailability(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, grid, nil, middleware.ExtractMeta(c))
}

// CreateBooking godoc
// @Summary Book a room
// @Tags Rooms
// @Accept json
// @Produce json
// @Param payload body dto.CreateBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Router /bookings [post]
func (h *RoomHandler) CreateBooking(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	booking, err := h.rooms.CreateBooking(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// MyBookings godoc
// @Summary List my bookings
// @Tags Rooms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bookings/mine [get]
func (h *RoomHandler) MyBookings(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	bookings, err := h.rooms.ListBookings(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}

// ExportBookings godoc
// @Summary Export my bookings as CSV or PDF
// @Tags Rooms
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /bookings/mine/export [get]
func (h *RoomHandler) ExportBookings(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	payload, filename, contentType, err := h.rooms.ExportBookings(c.Request.Context(), claims.UserID, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}
