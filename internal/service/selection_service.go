package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/kurskollen/kurskollen-api/internal/models"
	"github.com/kurskollen/kurskollen-api/internal/repository"
	appErrors "github.com/kurskollen/kurskollen-api/pkg/errors"
)

type selectionUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetMastersSelection(ctx context.Context, userID, mastersDegreeID string, specializationID *string) error
	SetProgramSpecialization(ctx context.Context, userID, specializationID string) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
}

type selectionProgramRepository interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
	CountSpecializations(ctx context.Context, programID string) (int, error)
	FindSpecializationByID(ctx context.Context, id string) (*models.Specialization, error)
}

// SelectionService enforces the one-time academic-selection workflow. Both
// selections move a field from unset to set permanently; there is no
// reverse transition. The precondition ladder gives each failure mode its
// own error, and the final write is a conditional update so concurrent
// duplicates lose cleanly.
type SelectionService struct {
	users    selectionUserRepository
	programs selectionProgramRepository
	logger   *zap.Logger
}

// NewSelectionService constructs SelectionService.
func NewSelectionService(users selectionUserRepository, programs selectionProgramRepository, logger *zap.Logger) *SelectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectionService{users: users, programs: programs, logger: logger}
}

// SelectMastersDegree permanently records a base-program student's
// master's-track choice. On success every live session for the user is
// revoked: cached academic claims in outstanding tokens are stale and the
// caller must force re-authentication.
func (s *SelectionService) SelectMastersDegree(ctx context.Context, userID, mastersDegreeID string, specializationID *string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.ProgramID == nil {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "only base-program students can select a master's degree")
	}
	program, err := s.programs.FindByID(ctx, *user.ProgramID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolled program")
	}
	if !program.IsBaseProgram() {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "enrolled program is not eligible for a master's selection")
	}
	if program.HasIntegratedMasters {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "enrolled program already includes an integrated master's")
	}

	if user.MastersDegreeID != nil {
		return nil, appErrors.Clone(appErrors.ErrSelectionAlreadyMade, "master's degree selection has already been made")
	}

	target, err := s.programs.FindByID(ctx, mastersDegreeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "master's degree not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load master's degree")
	}
	if !target.IsMastersDegree() {
		return nil, appErrors.Clone(appErrors.ErrNotAMastersDegree, "selected program is not a master's degree")
	}

	specCount, err := s.programs.CountSpecializations(ctx, target.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect specializations")
	}
	if specCount > 0 && specializationID == nil {
		return nil, appErrors.Clone(appErrors.ErrSpecializationNeeded, "")
	}
	if specializationID != nil {
		if err := s.validateSpecializationBelongs(ctx, *specializationID, target.ID); err != nil {
			return nil, err
		}
	}

	if err := s.users.SetMastersSelection(ctx, userID, mastersDegreeID, specializationID); err != nil {
		if errors.Is(err, repository.ErrSelectionTaken) {
			return nil, appErrors.Clone(appErrors.ErrSelectionAlreadyMade, "master's degree selection has already been made")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record selection")
	}

	if err := s.users.RevokeUserRefreshTokens(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions after masters selection", zap.String("user_id", userID), zap.Error(err))
	}

	updated, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload user")
	}
	s.logger.Info("masters degree selected",
		zap.String("user_id", userID),
		zap.String("masters_degree_id", mastersDegreeID))
	return updated, nil
}

// SelectProgramSpecialization permanently records a base-program student's
// year-3 specialization, validated against the enrolled program.
func (s *SelectionService) SelectProgramSpecialization(ctx context.Context, userID, specializationID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.ProgramID == nil {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "only base-program students can select a program specialization")
	}
	if user.ProgramSpecializationID != nil {
		return nil, appErrors.Clone(appErrors.ErrSelectionAlreadyMade, "program specialization has already been selected")
	}

	if err := s.validateSpecializationBelongs(ctx, specializationID, *user.ProgramID); err != nil {
		return nil, err
	}

	if err := s.users.SetProgramSpecialization(ctx, userID, specializationID); err != nil {
		if errors.Is(err, repository.ErrSelectionTaken) {
			return nil, appErrors.Clone(appErrors.ErrSelectionAlreadyMade, "program specialization has already been selected")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record selection")
	}

	if err := s.users.RevokeUserRefreshTokens(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions after specialization selection", zap.String("user_id", userID), zap.Error(err))
	}

	updated, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload user")
	}
	s.logger.Info("program specialization selected",
		zap.String("user_id", userID),
		zap.String("specialization_id", specializationID))
	return updated, nil
}

// validateSpecializationBelongs re-checks the client-supplied pairing
// server-side; an ID pairing is never trusted from input.
func (s *SelectionService) validateSpecializationBelongs(ctx context.Context, specializationID, programID string) error {
	spec, err := s.programs.FindSpecializationByID(ctx, specializationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "specialization not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load specialization")
	}
	if spec.ProgramID != programID {
		return appErrors.Clone(appErrors.ErrSpecializationInvalid, "")
	}
	return nil
}
