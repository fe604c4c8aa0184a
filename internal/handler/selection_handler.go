package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kurskollen/kurskollen-api/internal/models"
	"github.com/kurskollen/kurskollen-api/internal/service"
	appErrors "github.com/kurskollen/kurskollen-api/pkg/errors"
	"github.com/kurskollen/kurskollen-api/pkg/response"
)

type selectionService interface {
	SelectMastersDegree(ctx context.Context, userID, mastersDegreeID string, specializationID *string) (*models.User, error)
	SelectProgramSpecialization(ctx context.Context, userID, specializationID string) (*models.User, error)
}

// SelectionHandler exposes the one-time academic-selection endpoints. Both
// responses carry the updated profile; the client must discard its tokens
// afterwards since the selection revoked them.
type SelectionHandler struct {
	service selectionService
	metrics *service.MetricsService
}

// NewSelectionHandler creates a new handler.
func NewSelectionHandler(svc selectionService, metrics *service.MetricsService) *SelectionHandler {
	return &SelectionHandler{service: svc, metrics: metrics}
}

// SelectMastersDegree godoc
// @Summary Select a master's degree
// @Description Permanently record the master's-track selection for the current user
// @Tags Selection
// @Accept json
// @Produce json
// @Param payload body object true "Selection payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /me/masters-degree [put]
func (h *SelectionHandler) SelectMastersDegree(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		MastersDegreeID  string  `json:"masters_degree_id" binding:"required"`
		SpecializationID *string `json:"specialization_id"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "masters_degree_id required"))
		return
	}

	user, err := h.service.SelectMastersDegree(c.Request.Context(), claims.UserID, payload.MastersDegreeID, payload.SpecializationID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordSelection("masters_degree")
	response.JSON(c, http.StatusOK, user, nil)
}

// SelectProgramSpecialization godoc
// @Summary Select a program specialization
// @Description Permanently record the year-3 specialization for the current user
// @Tags Selection
// @Accept json
// @Produce json
// @Param payload body object true "Selection payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /me/program-specialization [put]
func (h *SelectionHandler) SelectProgramSpecialization(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		SpecializationID string `json:"specialization_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "specialization_id required"))
		return
	}

	user, err := h.service.SelectProgramSpecialization(c.Request.Context(), claims.UserID, payload.SpecializationID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordSelection("program_specialization")
	response.JSON(c, http.StatusOK, user, nil)
}
