package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kurskollen/kurskollen-api/internal/models"
	"github.com/kurskollen/kurskollen-api/internal/repository"
	appErrors "github.com/kurskollen/kurskollen-api/pkg/errors"
)

type fakeSelectionUserRepo struct {
	user           *models.User
	setMastersErr  error
	setSpecErr     error
	revoked        bool
	mastersSet     bool
	programSpecSet bool
}

func (f *fakeSelectionUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.user == nil {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeSelectionUserRepo) SetMastersSelection(ctx context.Context, userID, mastersDegreeID string, specializationID *string) error {
	if f.setMastersErr != nil {
		return f.setMastersErr
	}
	f.mastersSet = true
	f.user.MastersDegreeID = &mastersDegreeID
	f.user.SpecializationID = specializationID
	return nil
}

func (f *fakeSelectionUserRepo) SetProgramSpecialization(ctx context.Context, userID, specializationID string) error {
	if f.setSpecErr != nil {
		return f.setSpecErr
	}
	f.programSpecSet = true
	f.user.ProgramSpecializationID = &specializationID
	return nil
}

func (f *fakeSelectionUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	f.revoked = true
	return nil
}

type fakeSelectionProgramRepo struct {
	programs  map[string]*models.Program
	specs     map[string]*models.Specialization
	specCount map[string]int
}

func (f *fakeSelectionProgramRepo) FindByID(ctx context.Context, id string) (*models.Program, error) {
	p, ok := f.programs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakeSelectionProgramRepo) CountSpecializations(ctx context.Context, programID string) (int, error) {
	return f.specCount[programID], nil
}

func (f *fakeSelectionProgramRepo) FindSpecializationByID(ctx context.Context, id string) (*models.Specialization, error) {
	s, ok := f.specs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func selectionFixtures() (*fakeSelectionUserRepo, *fakeSelectionProgramRepo) {
	users := &fakeSelectionUserRepo{
		user: &models.User{ID: "user-1", ProgramID: strPtr("prog-d")},
	}
	programs := &fakeSelectionProgramRepo{
		programs: map[string]*models.Program{
			"prog-d":    {ID: "prog-d", Code: "D", Credits: models.CreditsBachelor, ProgramType: models.ProgramTypeBachelor},
			"prog-y":    {ID: "prog-y", Code: "Y", Credits: models.CreditsIntegratedMasters, ProgramType: models.ProgramTypeBachelor},
			"prog-i":    {ID: "prog-i", Code: "I", Credits: models.CreditsIntegratedMasters, ProgramType: models.ProgramTypeBachelor, HasIntegratedMasters: true},
			"masters-1": {ID: "masters-1", Code: "MSCS", Credits: models.CreditsMastersDegree, ProgramType: models.ProgramTypeMaster},
			"masters-2": {ID: "masters-2", Code: "MSSE", Credits: models.CreditsMastersDegree, ProgramType: models.ProgramTypeMaster},
		},
		specs: map[string]*models.Specialization{
			"spec-1": {ID: "spec-1", Name: "Machine Learning", ProgramID: "masters-1"},
			"spec-d": {ID: "spec-d", Name: "Software Engineering", ProgramID: "prog-d"},
		},
		specCount: map[string]int{"masters-1": 1},
	}
	return users, programs
}

func TestSelectMastersDegreeHappyPathRevokesSessions(t *testing.T) {
	users, programs := selectionFixtures()
	svc := NewSelectionService(users, programs, zap.NewNop())

	updated, err := svc.SelectMastersDegree(context.Background(), "user-1", "masters-1", strPtr("spec-1"))
	require.NoError(t, err)
	require.NotNil(t, updated.MastersDegreeID)
	assert.Equal(t, "masters-1", *updated.MastersDegreeID)
	assert.True(t, users.mastersSet)
	assert.True(t, users.revoked, "live sessions must be revoked after a selection")
}

func TestSelectMastersDegreeWithoutRequiredSpecialization(t *testing.T) {
	users, programs := selectionFixtures()
	svc := NewSelectionService(users, programs, zap.NewNop())

	_, err := svc.SelectMastersDegree(context.Background(), "user-1", "masters-1", nil)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrSpecializationNeeded.Code, appErr.Code)
	assert.False(t, users.mastersSet)
}

func TestSelectMastersDegreeNoSpecializationsNoneRequired(t *testing.T) {
	users, programs := selectionFixtures()
	svc := NewSelectionService(users, programs, zap.NewNop())

	// masters-2 has no specializations, so none may be demanded.
	_, err := svc.SelectMastersDegree(context.Background(), "user-1", "masters-2", nil)
	require.NoError(t, err)
	assert.True(t, users.mastersSet)
}

func TestSelectMastersDegreeSpecializationFromWrongProgram(t *testing.T) {
	users, programs := selectionFixtures()
	programs.specCount["masters-2"] = 1
	svc := NewSelectionService(users, programs, zap.NewNop())

	_, err := svc.SelectMastersDegree(context.Background(), "user-1", "masters-2", strPtr("spec-1"))
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrSpecializationInvalid.Code, appErr.Code)
}

func TestSelectMastersDegreeTargetNotAMastersDegree(t *testing.T) {
	users, programs := selectionFixtures()
	svc := NewSelectionService(users, programs, zap.NewNop())

	_, err := svc.SelectMastersDegree(context.Background(), "user-1", "prog-y", nil)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotAMastersDegree.Code, appErr.Code)
}

func TestSelectMastersDegreeIntegratedMastersNotEligible(t *testing.T) {
	// A 300hp program with an integrated master's already covers the
	// master's level; its students pick a program specialization instead.
	users, programs := selectionFixtures()
	users.user.ProgramID = strPtr("prog-i")
	svc := NewSelectionService(users, programs, zap.NewNop())

	_, err := svc.SelectMastersDegree(context.Background(), "user-1", "masters-2", nil)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErr.Code)
	assert.False(t, users.mastersSet)
}

func TestSelectMastersDegreeDirectMastersUserNotEligible(t *testing.T) {
	users, programs := selectionFixtures()
	users.user.ProgramID = nil
	users.user.MastersDegreeID = strPtr("masters-1")
	svc := NewSelectionService(users, programs, zap.NewNop())

	_, err := svc.SelectMastersDegree(context.Background(), "user-1", "masters-2", nil)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErr.Code)
}

func TestSelectMastersDegreeAlreadyMade(t *testing.T) {
	users, programs := selectionFixtures()
	users.user.MastersDegreeID = strPtr("masters-2")
	svc := NewSelectionService(users, programs, zap.NewNop())

	_, err := svc.SelectMastersDegree(context.Background(), "user-1", "masters-1", strPtr("spec-1"))
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrSelectionAlreadyMade.Code, appErr.Code)
}

func TestSelectMastersDegreeLostRace(t *testing.T) {
	// The read sees no selection but the conditional write finds one: the
	// database decides, and the caller gets the same conflict as the
	// pre-check would have produced.
	users, programs := selectionFixtures()
	users.setMastersErr = repository.ErrSelectionTaken
	svc := NewSelectionService(users, programs, zap.NewNop())

	_, err := svc.SelectMastersDegree(context.Background(), "user-1", "masters-2", nil)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrSelectionAlreadyMade.Code, appErr.Code)
	assert.False(t, users.revoked)
}

func TestSelectProgramSpecializationHappyPath(t *testing.T) {
	users, programs := selectionFixtures()
	svc := NewSelectionService(users, programs, zap.NewNop())

	updated, err := svc.SelectProgramSpecialization(context.Background(), "user-1", "spec-d")
	require.NoError(t, err)
	require.NotNil(t, updated.ProgramSpecializationID)
	assert.Equal(t, "spec-d", *updated.ProgramSpecializationID)
	assert.True(t, users.revoked)
}

func TestSelectProgramSpecializationWrongProgram(t *testing.T) {
	users, programs := selectionFixtures()
	svc := NewSelectionService(users, programs, zap.NewNop())

	_, err := svc.SelectProgramSpecialization(context.Background(), "user-1", "spec-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrSpecializationInvalid.Code, appErr.Code)
}

func TestSelectProgramSpecializationAlreadySet(t *testing.T) {
	users, programs := selectionFixtures()
	users.user.ProgramSpecializationID = strPtr("spec-d")
	svc := NewSelectionService(users, programs, zap.NewNop())

	_, err := svc.SelectProgramSpecialization(context.Background(), "user-1", "spec-d")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrSelectionAlreadyMade.Code, appErr.Code)
}

func TestSelectMastersDegreeUnknownUser(t *testing.T) {
	_, programs := selectionFixtures()
	svc := NewSelectionService(&fakeSelectionUserRepo{}, programs, zap.NewNop())

	_, err := svc.SelectMastersDegree(context.Background(), "ghost", "masters-1", nil)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.False(t, errors.Is(err, repository.ErrSelectionTaken))
}
