package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/registrar-api/internal/dto"
	"github.com/campusops/registrar-api/internal/middleware"
	"github.com/campusops/registrar-api/internal/models"
	appErrors "github.com/campusops/registrar-api/pkg/errors"
)

type registrationServiceMock struct {
	result      *dto.RegistrationResult
	dropResult  *dto.DropResult
	status      *dto.RegistrationStatus
	enrollments []models.EnrollmentDetail
	err         error
}

func (m *registrationServiceMock) Register(ctx context.Context, studentID, courseID string) (*dto.RegistrationResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *registrationServiceMock) Drop(ctx context.Context, studentID, courseID string) (*dto.DropResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.dropResult, nil
}

func (m *registrationServiceMock) Status(ctx context.Context, studentID string) (*dto.RegistrationStatus, error) {
	return m.status, m.err
}

func (m *registrationServiceMock) ListEnrollments(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	return m.enrollments, m.err
}

func studentContext(w *httptest.ResponseRecorder) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	return c
}

func TestRegistrationHandlerRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRegistrationHandler(&registrationServiceMock{
		result: &dto.RegistrationResult{EnrollmentID: "enr-1", CourseCode: "CS101", TotalCredits: 18, MaxCredits: 18},
	})
	w := httptest.NewRecorder()
	c := studentContext(w)
	body, _ := json.Marshal(dto.RegistrationRequest{CourseID: "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"})
	req, _ := http.NewRequest(http.MethodPost, "/registration/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Register(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "CS101")
}

func TestRegistrationHandlerRegisterWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRegistrationHandler(&registrationServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/registration/register", bytes.NewReader([]byte(`{}`)))
	c.Request = req

	handler.Register(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegistrationHandlerRegisterCreditLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRegistrationHandler(&registrationServiceMock{err: appErrors.ErrCreditLimit})
	w := httptest.NewRecorder()
	c := studentContext(w)
	body, _ := json.Marshal(dto.RegistrationRequest{CourseID: "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"})
	req, _ := http.NewRequest(http.MethodPost, "/registration/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Register(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrCreditLimit.Code)
}

func TestRegistrationHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRegistrationHandler(&registrationServiceMock{
		status: &dto.RegistrationStatus{EnrolledCount: 2, TotalCredits: 7, MaxCredits: 18, Term: "Fall 2024", RegistrationOpen: true},
	})
	w := httptest.NewRecorder()
	c := studentContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/registration/status", nil)
	c.Request = req

	handler.Status(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Fall 2024")
}
