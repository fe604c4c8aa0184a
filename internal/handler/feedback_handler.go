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

type feedbackService interface {
	Submit(ctx context.Context, userID *string, clientIP string, req service.SubmitFeedbackRequest) (*models.Feedback, error)
}

// FeedbackHandler accepts platform feedback.
type FeedbackHandler struct {
	service feedbackService
	metrics *service.MetricsService
}

// NewFeedbackHandler creates a new handler.
func NewFeedbackHandler(svc feedbackService, metrics *service.MetricsService) *FeedbackHandler {
	return &FeedbackHandler{service: svc, metrics: metrics}
}

// Submit godoc
// @Summary Submit feedback
// @Description Store free-text feedback, rate limited per user or IP
// @Tags Feedback
// @Accept json
// @Produce json
// @Param payload body service.SubmitFeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /feedback [post]
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req service.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}

	var userID *string
	if claims := claimsFromContext(c); claims != nil {
		userID = &claims.UserID
	}

	fb, err := h.service.Submit(c.Request.Context(), userID, c.ClientIP(), req)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrRateLimited.Code {
			h.metrics.RecordRateLimitRejection()
		}
		response.Error(c, err)
		return
	}

	response.Created(c, fb)
}
