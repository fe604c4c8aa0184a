package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kurskollen/kurskollen-api/internal/models"
	appErrors "github.com/kurskollen/kurskollen-api/pkg/errors"
)

type curriculumRepository interface {
	ListCourseIDsByPrograms(ctx context.Context, programIDs []string) ([]string, error)
	ListCourseIDsBySpecialization(ctx context.Context, specializationID string) ([]string, error)
}

// VisibilityService resolves an academic identity to the set of courses it
// may see. Results are recomputed on every call; the catalog is small and
// correctness wins over caching.
type VisibilityService struct {
	courses curriculumRepository
	logger  *zap.Logger
}

// NewVisibilityService constructs VisibilityService.
func NewVisibilityService(courses curriculumRepository, logger *zap.Logger) *VisibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisibilityService{courses: courses, logger: logger}
}

// Resolve returns the visibility for the given identity. A blank identity
// (guest, or a user without academic selections) resolves to the unfiltered
// sentinel; any present selection resolves to the union of courses
// reachable through the program, the masters degree (acting as a
// pseudo-program for curriculum purposes) and the specialization. An
// identity mapping to zero linked courses resolves to an empty filtered
// set, which callers must treat as "show nothing", never "show everything".
func (s *VisibilityService) Resolve(ctx context.Context, identity models.AcademicIdentity) (models.CourseVisibility, error) {
	if identity.Blank() {
		return models.UnfilteredVisibility(), nil
	}

	var programIDs []string
	if identity.ProgramID != nil {
		programIDs = append(programIDs, *identity.ProgramID)
	}
	if identity.MastersDegreeID != nil {
		programIDs = append(programIDs, *identity.MastersDegreeID)
	}

	var courseIDs []string
	if len(programIDs) > 0 {
		ids, err := s.courses.ListCourseIDsByPrograms(ctx, programIDs)
		if err != nil {
			return models.CourseVisibility{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve program curriculum")
		}
		courseIDs = append(courseIDs, ids...)
	}
	if identity.SpecializationID != nil {
		ids, err := s.courses.ListCourseIDsBySpecialization(ctx, *identity.SpecializationID)
		if err != nil {
			return models.CourseVisibility{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve specialization curriculum")
		}
		courseIDs = append(courseIDs, ids...)
	}

	return models.FilteredVisibility(courseIDs), nil
}
