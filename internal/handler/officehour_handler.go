package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/registrar-api/internal/dto"
	"github.com/campusops/registrar-api/internal/models"
	appErrors "github.com/campusops/registrar-api/pkg/errors"
	"github.com/campusops/registrar-api/pkg/response"
)

type officeHourService interface {
	GenerateRecurringSlots(ctx context.Context, staffID string, req dto.GenerateSlotsRequest) ([]models.OfficeHourSlot, error)
	BookSlot(ctx context.Context, studentID, slotID string, req dto.BookSlotRequest) (*models.OfficeHourSlot, error)
	CancelSlot(ctx context.Context, slotID string) (*models.OfficeHourSlot, error)
	ListSlotsForStaff(ctx context.Context, staffID string, query dto.SlotWindowQuery) ([]models.OfficeHourSlot, error)
	ListStudentBookings(ctx context.Context, studentID string) ([]models.SlotDetail, error)
}

// OfficeHourHandler exposes office hour slot endpoints.
type OfficeHourHandler struct {
	officeHours officeHourService
}

// NewOfficeHourHandler constructs OfficeHourHandler.
func NewOfficeHourHandler(officeHours officeHourService) *OfficeHourHandler {
	return &OfficeHourHandler{officeHours: officeHours}
}

// Generate godoc
// @Summary Generate recurring office hour slots
// @Tags OfficeHours
// @Accept json
// @Produce json
// @Param payload body dto.GenerateSlotsRequest true "Weekly pattern"
// @Success 201 {object} response.Envelope
// @Router /office-hours [post]
func (h *OfficeHourHandler) Generate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.GenerateSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slots, err := h.officeHours.GenerateRecurringSlots(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slots)
}

// StaffSlots godoc
// @Summary List a staff member's slots
// @Tags OfficeHours
// @Produce json
// @Param id path string true "Staff ID"
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /office-hours/staff/{id} [get]
func (h *OfficeHourHandler) StaffSlots(c *gin.Context) {
	var query dto.SlotWindowQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	slots, err := h.officeHours.ListSlotsForStaff(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// MyBookings godoc
// @Summary List my booked office hour slots
// @Tags OfficeHours
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /office-hours/mine [get]
func (h *OfficeHourHandler) MyBookings(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	bookings, err := h.officeHours.ListStudentBookings(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}

// Book godoc
// @Summary Book an office hour slot
// @Tags OfficeHours
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body dto.BookSlotRequest true "Booking purpose"
// @Success 200 {object} response.Envelope
// @Router /office-hours/slots/{id}/book [post]
func (h *OfficeHourHandler) Book(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.BookSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.officeHours.BookSlot(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Cancel godoc
// @Summary Cancel an office hour slot
// @Tags OfficeHours
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /office-hours/slots/{id} [delete]
func (h *OfficeHourHandler) Cancel(c *gin.Context) {
	slot, err := h.officeHours.CancelSlot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}
