package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kurskollen/kurskollen-api/internal/service"
	appErrors "github.com/kurskollen/kurskollen-api/pkg/errors"
	"github.com/kurskollen/kurskollen-api/pkg/response"
)

type reviewService interface {
	CreateReview(ctx context.Context, userID string, req service.CreateReviewRequest) (*service.ReviewWithTags, error)
	UpdateReview(ctx context.Context, userID, reviewID string, req service.UpdateReviewRequest) (*service.ReviewWithTags, error)
	DeleteReview(ctx context.Context, userID, reviewID string) error
	GetReviewForEdit(ctx context.Context, userID, reviewID string) (*service.ReviewWithTags, error)
	GetUserReviewForCourse(ctx context.Context, userID, courseID string) (*service.ReviewWithTags, error)
}

// ReviewHandler wires the review write path.
type ReviewHandler struct {
	service reviewService
	metrics *service.MetricsService
}

// NewReviewHandler creates a new handler.
func NewReviewHandler(svc reviewService, metrics *service.MetricsService) *ReviewHandler {
	return &ReviewHandler{service: svc, metrics: metrics}
}

// Create godoc
// @Summary Post a review
// @Description Create the caller's review for a course; one per course
// @Tags Reviews
// @Accept json
// @Produce json
// @Param payload body service.CreateReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	out, err := h.service.CreateReview(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordReviewCreated()
	response.Created(c, out)
}

// Update godoc
// @Summary Edit an owned review
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Param payload body service.UpdateReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reviews/{id} [put]
func (h *ReviewHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	out, err := h.service.UpdateReview(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, out, nil)
}

// Delete godoc
// @Summary Delete an owned review
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.DeleteReview(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// GetForEdit godoc
// @Summary Load an owned review
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reviews/{id} [get]
func (h *ReviewHandler) GetForEdit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	out, err := h.service.GetReviewForEdit(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, out, nil)
}

// GetMineForCourse godoc
// @Summary Get own review for a course
// @Tags Reviews
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/my-review [get]
func (h *ReviewHandler) GetMineForCourse(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	out, err := h.service.GetUserReviewForCourse(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, out, nil)
}
