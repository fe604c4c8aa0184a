package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/kurskollen/kurskollen-api/internal/models"
	appErrors "github.com/kurskollen/kurskollen-api/pkg/errors"
)

type catalogProgramReader interface {
	List(ctx context.Context) ([]models.Program, error)
	ListMastersDegrees(ctx context.Context) ([]models.Program, error)
	FindByID(ctx context.Context, id string) (*models.Program, error)
	ListSpecializations(ctx context.Context, programID string) ([]models.Specialization, error)
}

type catalogCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListAll(ctx context.Context) ([]models.Course, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Course, error)
}

type catalogTagReader interface {
	ListAll(ctx context.Context) ([]models.Tag, error)
}

// CatalogService serves the read-only reference data: programs, their
// specializations, the visible course list and the tag set.
type CatalogService struct {
	programs   catalogProgramReader
	courses    catalogCourseReader
	tags       catalogTagReader
	visibility visibilityResolver
	logger     *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(programs catalogProgramReader, courses catalogCourseReader, tags catalogTagReader, visibility visibilityResolver, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		programs:   programs,
		courses:    courses,
		tags:       tags,
		visibility: visibility,
		logger:     logger,
	}
}

// ListPrograms returns every program in the catalog.
func (s *CatalogService) ListPrograms(ctx context.Context) ([]models.Program, error) {
	programs, err := s.programs.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// ListMastersDegrees returns the programs selectable as a master's degree.
func (s *CatalogService) ListMastersDegrees(ctx context.Context) ([]models.Program, error) {
	degrees, err := s.programs.ListMastersDegrees(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list master's degrees")
	}
	return degrees, nil
}

// ListSpecializations returns the specializations of one program.
func (s *CatalogService) ListSpecializations(ctx context.Context, programID string) ([]models.Specialization, error) {
	if _, err := s.programs.FindByID(ctx, programID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	specs, err := s.programs.ListSpecializations(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list specializations")
	}
	return specs, nil
}

// ListVisibleCourses returns the courses the identity may see, in code
// order. The unfiltered identity sees the whole catalog; an empty filtered
// set sees nothing.
func (s *CatalogService) ListVisibleCourses(ctx context.Context, identity models.AcademicIdentity) ([]models.Course, error) {
	vis, err := s.visibility.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	if vis.Unfiltered() {
		courses, err := s.courses.ListAll(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
		}
		return courses, nil
	}
	if vis.Empty() {
		return []models.Course{}, nil
	}
	courses, err := s.courses.ListByIDs(ctx, vis.CourseIDs())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list visible courses")
	}
	return courses, nil
}

// GetCourse returns one course by ID.
func (s *CatalogService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// ListTags returns the static tag reference set.
func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.tags.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tags")
	}
	return tags, nil
}
