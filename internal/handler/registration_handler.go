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

type registrationService interface {
	Register(ctx context.Context, studentID, courseID string) (*dto.RegistrationResult, error)
	Drop(ctx context.Context, studentID, courseID string) (*dto.DropResult, error)
	Status(ctx context.Context, studentID string) (*dto.RegistrationStatus, error)
	ListEnrollments(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
}

// RegistrationHandler exposes course registration endpoints.
type RegistrationHandler struct {
	registration registrationService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registration registrationService) *RegistrationHandler {
	return &RegistrationHandler{registration: registration}
}

// Register godoc
// @Summary Register for a course
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body dto.RegistrationRequest true "Course to register for"
// @Success 201 {object} response.Envelope
// @Router /registration/register [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.registration.Register(c.Request.Context(), claims.UserID, req.CourseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Drop godoc
// @Summary Drop a course
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body dto.RegistrationRequest true "Course to drop"
// @Success 200 {object} response.Envelope
// @Router /registration/drop [post]
func (h *RegistrationHandler) Drop(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.registration.Drop(c.Request.Context(), claims.UserID, req.CourseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Status godoc
// @Summary Registration status for the current term
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registration/status [get]
func (h *RegistrationHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status, err := h.registration.Status(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Enrollments godoc
// @Summary List current-term enrollments
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registration/enrollments [get]
func (h *RegistrationHandler) Enrollments(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	enrollments, err := h.registration.ListEnrollments(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}
