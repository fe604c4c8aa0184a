package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kurskollen/kurskollen-api/internal/models"
	"github.com/kurskollen/kurskollen-api/pkg/response"
)

type catalogService interface {
	ListPrograms(ctx context.Context) ([]models.Program, error)
	ListMastersDegrees(ctx context.Context) ([]models.Program, error)
	ListSpecializations(ctx context.Context, programID string) ([]models.Specialization, error)
	ListVisibleCourses(ctx context.Context, identity models.AcademicIdentity) ([]models.Course, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
}

// CatalogHandler serves the read-only catalog endpoints.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListPrograms godoc
// @Summary List programs
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /programs [get]
func (h *CatalogHandler) ListPrograms(c *gin.Context) {
	programs, err := h.service.ListPrograms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, nil)
}

// ListMastersDegrees godoc
// @Summary List selectable master's degrees
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /programs/masters-degrees [get]
func (h *CatalogHandler) ListMastersDegrees(c *gin.Context) {
	degrees, err := h.service.ListMastersDegrees(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, degrees, nil)
}

// ListSpecializations godoc
// @Summary List a program's specializations
// @Tags Catalog
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id}/specializations [get]
func (h *CatalogHandler) ListSpecializations(c *gin.Context) {
	specs, err := h.service.ListSpecializations(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, specs, nil)
}

// ListCourses godoc
// @Summary List visible courses
// @Description Courses visible to the caller's academic identity; guests see all
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.service.ListVisibleCourses(c.Request.Context(), identityFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// GetCourse godoc
// @Summary Get one course
// @Tags Catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	course, err := h.service.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// ListTags godoc
// @Summary List review tags
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tags [get]
func (h *CatalogHandler) ListTags(c *gin.Context) {
	tags, err := h.service.ListTags(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tags, nil)
}
