package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kurskollen/kurskollen-api/internal/models"
)

type mockCurriculumRepo struct {
	byProgram        map[string][]string
	bySpecialization map[string][]string
}

func (m *mockCurriculumRepo) ListCourseIDsByPrograms(ctx context.Context, programIDs []string) ([]string, error) {
	var out []string
	for _, id := range programIDs {
		out = append(out, m.byProgram[id]...)
	}
	return out, nil
}

func (m *mockCurriculumRepo) ListCourseIDsBySpecialization(ctx context.Context, specializationID string) ([]string, error) {
	return m.bySpecialization[specializationID], nil
}

func strPtr(s string) *string { return &s }

func TestVisibilityResolveBlankIdentityIsUnfiltered(t *testing.T) {
	svc := NewVisibilityService(&mockCurriculumRepo{}, zap.NewNop())

	vis, err := svc.Resolve(context.Background(), models.AcademicIdentity{})
	require.NoError(t, err)
	assert.True(t, vis.Unfiltered())
	assert.False(t, vis.Empty())
	assert.True(t, vis.Contains("any-course"))
}

func TestVisibilityResolveZeroLinksIsEmptyNotUnfiltered(t *testing.T) {
	svc := NewVisibilityService(&mockCurriculumRepo{}, zap.NewNop())

	vis, err := svc.Resolve(context.Background(), models.AcademicIdentity{ProgramID: strPtr("prog-lonely")})
	require.NoError(t, err)
	assert.False(t, vis.Unfiltered())
	assert.True(t, vis.Empty())
	assert.False(t, vis.Contains("course-1"))
}

func TestVisibilityResolveUnionsAllPaths(t *testing.T) {
	repo := &mockCurriculumRepo{
		byProgram: map[string][]string{
			"prog-1":    {"course-a", "course-b"},
			"masters-1": {"course-b", "course-c"},
		},
		bySpecialization: map[string][]string{
			"spec-1": {"course-d"},
		},
	}
	svc := NewVisibilityService(repo, zap.NewNop())

	vis, err := svc.Resolve(context.Background(), models.AcademicIdentity{
		ProgramID:        strPtr("prog-1"),
		MastersDegreeID:  strPtr("masters-1"),
		SpecializationID: strPtr("spec-1"),
	})
	require.NoError(t, err)
	assert.False(t, vis.Unfiltered())
	assert.Equal(t, 4, vis.Len())
	for _, id := range []string{"course-a", "course-b", "course-c", "course-d"} {
		assert.True(t, vis.Contains(id), id)
	}
}

func TestVisibilityResolveSpecializationUnrelatedToProgram(t *testing.T) {
	// A course linked only via specialization is visible even when the
	// program path contributes nothing: union, not intersection.
	repo := &mockCurriculumRepo{
		bySpecialization: map[string][]string{"spec-1": {"course-x"}},
	}
	svc := NewVisibilityService(repo, zap.NewNop())

	vis, err := svc.Resolve(context.Background(), models.AcademicIdentity{
		ProgramID:        strPtr("prog-unrelated"),
		SpecializationID: strPtr("spec-1"),
	})
	require.NoError(t, err)
	assert.True(t, vis.Contains("course-x"))
}

func TestVisibilityResolveDeduplicates(t *testing.T) {
	repo := &mockCurriculumRepo{
		byProgram:        map[string][]string{"prog-1": {"course-a"}},
		bySpecialization: map[string][]string{"spec-1": {"course-a"}},
	}
	svc := NewVisibilityService(repo, zap.NewNop())

	vis, err := svc.Resolve(context.Background(), models.AcademicIdentity{
		ProgramID:        strPtr("prog-1"),
		SpecializationID: strPtr("spec-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, vis.Len())
}
