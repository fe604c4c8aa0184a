package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kurskollen/kurskollen-api/internal/models"
)

// ProgramRepository handles persistence of programs and specializations.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs the repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// List returns the full program catalog ordered by code.
func (r *ProgramRepository) List(ctx context.Context) ([]models.Program, error) {
	const query = `SELECT id, name, code, program_type, credits, has_integrated_masters FROM programs ORDER BY code`
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// ListMastersDegrees returns the 120hp programs selectable as master's degrees.
func (r *ProgramRepository) ListMastersDegrees(ctx context.Context) ([]models.Program, error) {
	const query = `SELECT id, name, code, program_type, credits, has_integrated_masters FROM programs WHERE credits = $1 ORDER BY code`
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query, models.CreditsMastersDegree); err != nil {
		return nil, fmt.Errorf("list masters degrees: %w", err)
	}
	return programs, nil
}

// FindByID returns a program by its ID.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	const query = `SELECT id, name, code, program_type, credits, has_integrated_masters FROM programs WHERE id = $1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		return nil, err
	}
	return &program, nil
}

// FindByCode returns a program by its unique code.
func (r *ProgramRepository) FindByCode(ctx context.Context, code string) (*models.Program, error) {
	const query = `SELECT id, name, code, program_type, credits, has_integrated_masters FROM programs WHERE code = $1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, code); err != nil {
		return nil, err
	}
	return &program, nil
}

// ListSpecializations returns the specializations under a program.
func (r *ProgramRepository) ListSpecializations(ctx context.Context, programID string) ([]models.Specialization, error) {
	const query = `SELECT id, name, program_id FROM specializations WHERE program_id = $1 ORDER BY name`
	var specs []models.Specialization
	if err := r.db.SelectContext(ctx, &specs, query, programID); err != nil {
		return nil, fmt.Errorf("list specializations: %w", err)
	}
	return specs, nil
}

// CountSpecializations reports how many specializations a program carries.
// A program with at least one makes specialization selection mandatory.
func (r *ProgramRepository) CountSpecializations(ctx context.Context, programID string) (int, error) {
	const query = `SELECT COUNT(*) FROM specializations WHERE program_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, programID); err != nil {
		return 0, fmt.Errorf("count specializations: %w", err)
	}
	return count, nil
}

// FindSpecializationByID returns a specialization by its ID.
func (r *ProgramRepository) FindSpecializationByID(ctx context.Context, id string) (*models.Specialization, error) {
	const query = `SELECT id, name, program_id FROM specializations WHERE id = $1`
	var spec models.Specialization
	if err := r.db.GetContext(ctx, &spec, query, id); err != nil {
		return nil, err
	}
	return &spec, nil
}
