package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kurskollen/kurskollen-api/internal/models"
	"github.com/kurskollen/kurskollen-api/internal/service"
	"github.com/kurskollen/kurskollen-api/pkg/response"
)

type feedService interface {
	GetFeed(ctx context.Context, identity models.AcademicIdentity, filter models.FeedFilter) (*service.FeedPage, error)
	GetCourseReviews(ctx context.Context, courseID string) (*service.CourseReviewSummary, error)
}

// FeedHandler serves the composed review feed.
type FeedHandler struct {
	service feedService
	metrics *service.MetricsService
}

// NewFeedHandler creates a new handler.
func NewFeedHandler(svc feedService, metrics *service.MetricsService) *FeedHandler {
	return &FeedHandler{service: svc, metrics: metrics}
}

// GetFeed godoc
// @Summary Review feed
// @Description Paginated review feed scoped to the caller's visible courses
// @Tags Feed
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size"
// @Param sort query string false "Sort key" Enums(newest, top_rated, professor, material, peers)
// @Success 200 {object} response.Envelope
// @Router /feed [get]
func (h *FeedHandler) GetFeed(c *gin.Context) {
	filter := models.FeedFilter{
		SortBy: models.FeedSortKey(c.Query("sort")),
	}
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil {
		filter.PageSize = v
	}

	page, err := h.service.GetFeed(c.Request.Context(), identityFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.ObserveFeedPage(len(page.Items))
	response.JSON(c, http.StatusOK, page.Items, &page.Pagination)
}

// GetCourseReviews godoc
// @Summary Reviews for one course
// @Description Every review for the course with aggregate rating
// @Tags Feed
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/reviews [get]
func (h *FeedHandler) GetCourseReviews(c *gin.Context) {
	summary, err := h.service.GetCourseReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}
