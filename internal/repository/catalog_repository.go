package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kurskollen/kurskollen-api/internal/models"
)

// CatalogRepository provides the upsert surface the bulk loader composes
// into per-file transactions. Programs and courses upsert by natural key so
// a re-run corrects names without orphaning foreign keys; specializations
// and link rows are insert-if-absent.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// WithinTx runs fn inside one transaction, rolling back on any error. The
// loader uses one transaction per input file so a partial failure never
// leaves a program with half its courses linked.
func (r *CatalogRepository) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog transaction: %w", err)
	}
	return nil
}

// UpsertProgramTx inserts or updates a program by its unique code and
// returns the canonical row ID.
func (r *CatalogRepository) UpsertProgramTx(ctx context.Context, tx *sqlx.Tx, program models.Program) (string, error) {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	const query = `INSERT INTO programs (id, name, code, program_type, credits, has_integrated_masters)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
        RETURNING id`
	var id string
	if err := tx.GetContext(ctx, &id, query, program.ID, program.Name, program.Code, program.ProgramType, program.Credits, program.HasIntegratedMasters); err != nil {
		return "", fmt.Errorf("upsert program %s: %w", program.Code, err)
	}
	return id, nil
}

// EnsureSpecializationTx inserts a specialization unless (name, program_id)
// already exists, returning the canonical row ID either way.
func (r *CatalogRepository) EnsureSpecializationTx(ctx context.Context, tx *sqlx.Tx, name, programID string) (string, error) {
	const insertQuery = `INSERT INTO specializations (id, name, program_id) VALUES ($1, $2, $3)
        ON CONFLICT (name, program_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, insertQuery, uuid.NewString(), name, programID); err != nil {
		return "", fmt.Errorf("insert specialization %s: %w", name, err)
	}
	const selectQuery = `SELECT id FROM specializations WHERE name = $1 AND program_id = $2`
	var id string
	if err := tx.GetContext(ctx, &id, selectQuery, name, programID); err != nil {
		return "", fmt.Errorf("resolve specialization %s: %w", name, err)
	}
	return id, nil
}

// UpsertCourseTx inserts or updates a course by its unique code and returns
// the canonical row ID.
func (r *CatalogRepository) UpsertCourseTx(ctx context.Context, tx *sqlx.Tx, course models.Course) (string, error) {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	const query = `INSERT INTO courses (id, name, code) VALUES ($1, $2, $3)
        ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
        RETURNING id`
	var id string
	if err := tx.GetContext(ctx, &id, query, course.ID, course.Name, course.Code); err != nil {
		return "", fmt.Errorf("upsert course %s: %w", course.Code, err)
	}
	return id, nil
}

// LinkCourseProgramTx links a course into a program's curriculum.
func (r *CatalogRepository) LinkCourseProgramTx(ctx context.Context, tx *sqlx.Tx, courseID, programID string) error {
	const query = `INSERT INTO course_programs (course_id, program_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, courseID, programID); err != nil {
		return fmt.Errorf("link course program: %w", err)
	}
	return nil
}

// LinkCourseSpecializationTx links a course into a specialization's
// curriculum.
func (r *CatalogRepository) LinkCourseSpecializationTx(ctx context.Context, tx *sqlx.Tx, courseID, specializationID string) error {
	const query = `INSERT INTO course_specializations (course_id, specialization_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, courseID, specializationID); err != nil {
		return fmt.Errorf("link course specialization: %w", err)
	}
	return nil
}
