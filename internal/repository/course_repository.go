package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/kurskollen/kurskollen-api/internal/models"
)

// CourseRepository handles persistence of courses and the curriculum graph.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, name, code FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByCode returns a course by its unique code.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	const query = `SELECT id, name, code FROM courses WHERE code = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListAll returns every course ordered by code.
func (r *CourseRepository) ListAll(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, name, code FROM courses ORDER BY code`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListByIDs returns the courses for a visible-set slice, ordered by code.
func (r *CourseRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	if len(ids) == 0 {
		return []models.Course{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, name, code FROM courses WHERE id IN (%s) ORDER BY code`, strings.Join(placeholders, ","))
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses by ids: %w", err)
	}
	return courses, nil
}

// ListCourseIDsByPrograms returns course IDs linked to any of the given
// programs through the curriculum graph.
func (r *CourseRepository) ListCourseIDsByPrograms(ctx context.Context, programIDs []string) ([]string, error) {
	if len(programIDs) == 0 {
		return []string{}, nil
	}
	placeholders := make([]string, len(programIDs))
	args := make([]interface{}, len(programIDs))
	for i, id := range programIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT DISTINCT course_id FROM course_programs WHERE program_id IN (%s)`, strings.Join(placeholders, ","))
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list course ids by programs: %w", err)
	}
	return ids, nil
}

// ListCourseIDsBySpecialization returns course IDs linked to a specialization.
func (r *CourseRepository) ListCourseIDsBySpecialization(ctx context.Context, specializationID string) ([]string, error) {
	const query = `SELECT course_id FROM course_specializations WHERE specialization_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, specializationID); err != nil {
		return nil, fmt.Errorf("list course ids by specialization: %w", err)
	}
	return ids, nil
}
