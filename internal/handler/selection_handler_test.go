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

	"github.com/kurskollen/kurskollen-api/internal/middleware"
	"github.com/kurskollen/kurskollen-api/internal/models"
	"github.com/kurskollen/kurskollen-api/internal/service"
	appErrors "github.com/kurskollen/kurskollen-api/pkg/errors"
)

type selectionServiceMock struct {
	user              *models.User
	err               error
	gotUserID         string
	gotMastersID      string
	gotSpecialization *string
	mastersCalled     bool
	specCalled        bool
}

func (m *selectionServiceMock) SelectMastersDegree(ctx context.Context, userID, mastersDegreeID string, specializationID *string) (*models.User, error) {
	m.mastersCalled = true
	m.gotUserID = userID
	m.gotMastersID = mastersDegreeID
	m.gotSpecialization = specializationID
	return m.user, m.err
}

func (m *selectionServiceMock) SelectProgramSpecialization(ctx context.Context, userID, specializationID string) (*models.User, error) {
	m.specCalled = true
	m.gotUserID = userID
	return m.user, m.err
}

func selectionTestContext(t *testing.T, body string, authed bool) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPut, "/me/masters-degree", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if authed {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})
	}
	return c, w
}

func TestSelectionHandlerMastersDegree(t *testing.T) {
	mockSvc := &selectionServiceMock{user: &models.User{ID: "user-1"}}
	h := NewSelectionHandler(mockSvc, service.NewMetricsService())

	c, w := selectionTestContext(t, `{"masters_degree_id":"masters-1","specialization_id":"spec-1"}`, true)
	h.SelectMastersDegree(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.mastersCalled)
	assert.Equal(t, "user-1", mockSvc.gotUserID)
	assert.Equal(t, "masters-1", mockSvc.gotMastersID)
	require.NotNil(t, mockSvc.gotSpecialization)
	assert.Equal(t, "spec-1", *mockSvc.gotSpecialization)
}

func TestSelectionHandlerMastersDegreeConflict(t *testing.T) {
	mockSvc := &selectionServiceMock{err: appErrors.ErrSelectionAlreadyMade}
	h := NewSelectionHandler(mockSvc, service.NewMetricsService())

	c, w := selectionTestContext(t, `{"masters_degree_id":"masters-1"}`, true)
	h.SelectMastersDegree(c)

	require.Equal(t, http.StatusConflict, w.Code)
	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrSelectionAlreadyMade.Code, envelope.Error.Code)
}

func TestSelectionHandlerMastersDegreeMissingBody(t *testing.T) {
	mockSvc := &selectionServiceMock{}
	h := NewSelectionHandler(mockSvc, service.NewMetricsService())

	c, w := selectionTestContext(t, `{}`, true)
	h.SelectMastersDegree(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.mastersCalled)
}

func TestSelectionHandlerUnauthenticated(t *testing.T) {
	mockSvc := &selectionServiceMock{}
	h := NewSelectionHandler(mockSvc, service.NewMetricsService())

	c, w := selectionTestContext(t, `{"masters_degree_id":"masters-1"}`, false)
	h.SelectMastersDegree(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, mockSvc.mastersCalled)
}

func TestSelectionHandlerProgramSpecialization(t *testing.T) {
	mockSvc := &selectionServiceMock{user: &models.User{ID: "user-1"}}
	h := NewSelectionHandler(mockSvc, service.NewMetricsService())

	c, w := selectionTestContext(t, `{"specialization_id":"spec-d"}`, true)
	h.SelectProgramSpecialization(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.specCalled)
}
