package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kurskollen/kurskollen-api/internal/models"
	appErrors "github.com/kurskollen/kurskollen-api/pkg/errors"
)

type fakeCatalogProgramReader struct {
	programs map[string]*models.Program
	specs    map[string][]models.Specialization
}

func (f *fakeCatalogProgramReader) List(ctx context.Context) ([]models.Program, error) {
	var out []models.Program
	for _, p := range f.programs {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeCatalogProgramReader) ListMastersDegrees(ctx context.Context) ([]models.Program, error) {
	var out []models.Program
	for _, p := range f.programs {
		if p.IsMastersDegree() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeCatalogProgramReader) FindByID(ctx context.Context, id string) (*models.Program, error) {
	p, ok := f.programs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakeCatalogProgramReader) ListSpecializations(ctx context.Context, programID string) ([]models.Specialization, error) {
	return f.specs[programID], nil
}

type fakeCatalogCourseReader struct {
	all []models.Course
}

func (f *fakeCatalogCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	for _, c := range f.all {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCatalogCourseReader) ListAll(ctx context.Context) ([]models.Course, error) {
	return f.all, nil
}

func (f *fakeCatalogCourseReader) ListByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.Course
	for _, c := range f.all {
		if wanted[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeCatalogTagReader struct {
	tags []models.Tag
}

func (f *fakeCatalogTagReader) ListAll(ctx context.Context) ([]models.Tag, error) {
	return f.tags, nil
}

func catalogFixtures() (*fakeCatalogProgramReader, *fakeCatalogCourseReader, *fakeCatalogTagReader) {
	programs := &fakeCatalogProgramReader{
		programs: map[string]*models.Program{
			"prog-d":    {ID: "prog-d", Code: "D", Credits: models.CreditsBachelor},
			"masters-1": {ID: "masters-1", Code: "MSCS", Credits: models.CreditsMastersDegree},
		},
		specs: map[string][]models.Specialization{
			"masters-1": {{ID: "spec-1", Name: "Machine Learning", ProgramID: "masters-1"}},
		},
	}
	courses := &fakeCatalogCourseReader{all: []models.Course{
		{ID: "course-1", Name: "Algorithms", Code: "DA3018"},
		{ID: "course-2", Name: "Databases", Code: "DA3019"},
	}}
	tags := &fakeCatalogTagReader{tags: []models.Tag{{ID: "tag-1", Name: "engaging lectures", Sentiment: models.TagSentimentPositive}}}
	return programs, courses, tags
}

func TestListMastersDegreesFiltersByCredits(t *testing.T) {
	programs, courses, tags := catalogFixtures()
	svc := NewCatalogService(programs, courses, tags, &fakeVisibilityResolver{}, zap.NewNop())

	degrees, err := svc.ListMastersDegrees(context.Background())
	require.NoError(t, err)
	require.Len(t, degrees, 1)
	assert.Equal(t, "masters-1", degrees[0].ID)
}

func TestListSpecializationsUnknownProgram(t *testing.T) {
	programs, courses, tags := catalogFixtures()
	svc := NewCatalogService(programs, courses, tags, &fakeVisibilityResolver{}, zap.NewNop())

	_, err := svc.ListSpecializations(context.Background(), "ghost")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestListVisibleCoursesUnfilteredSeesAll(t *testing.T) {
	programs, courses, tags := catalogFixtures()
	svc := NewCatalogService(programs, courses, tags, &fakeVisibilityResolver{vis: models.UnfilteredVisibility()}, zap.NewNop())

	out, err := svc.ListVisibleCourses(context.Background(), models.AcademicIdentity{})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestListVisibleCoursesFilteredSubset(t *testing.T) {
	programs, courses, tags := catalogFixtures()
	vis := models.FilteredVisibility([]string{"course-2"})
	svc := NewCatalogService(programs, courses, tags, &fakeVisibilityResolver{vis: vis}, zap.NewNop())

	out, err := svc.ListVisibleCourses(context.Background(), models.AcademicIdentity{ProgramID: strPtr("prog-d")})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "course-2", out[0].ID)
}

func TestListVisibleCoursesEmptySetSeesNothing(t *testing.T) {
	programs, courses, tags := catalogFixtures()
	svc := NewCatalogService(programs, courses, tags, &fakeVisibilityResolver{vis: models.FilteredVisibility(nil)}, zap.NewNop())

	out, err := svc.ListVisibleCourses(context.Background(), models.AcademicIdentity{ProgramID: strPtr("prog-d")})
	require.NoError(t, err)
	assert.Empty(t, out)
}
