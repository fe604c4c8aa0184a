package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kurskollen/kurskollen-api/internal/models"
	"github.com/kurskollen/kurskollen-api/internal/repository"
	appErrors "github.com/kurskollen/kurskollen-api/pkg/errors"
)

type reviewStore interface {
	ExistsForUserAndCourse(ctx context.Context, userID, courseID string) (bool, error)
	Create(ctx context.Context, review *models.Review, tagIDs []string) error
	UpdateOwned(ctx context.Context, review *models.Review, tagIDs []string) error
	DeleteOwned(ctx context.Context, reviewID, userID string) error
	FindOwned(ctx context.Context, reviewID, userID string) (*models.Review, error)
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Review, error)
	TagsForReviews(ctx context.Context, reviewIDs []string) (map[string][]models.Tag, error)
}

type reviewCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type reviewTagReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Tag, error)
}

// CreateReviewRequest is the payload for posting a review.
type CreateReviewRequest struct {
	CourseID        string   `json:"course_id" validate:"required"`
	YearTaken       int      `json:"year_taken" validate:"required"`
	RatingProfessor int      `json:"rating_professor" validate:"required,min=1,max=5"`
	RatingMaterial  int      `json:"rating_material" validate:"required,min=1,max=5"`
	RatingPeers     int      `json:"rating_peers" validate:"required,min=1,max=5"`
	RatingWorkload  string   `json:"rating_workload" validate:"required,oneof=light medium heavy"`
	Content         *string  `json:"content" validate:"omitempty,max=5000"`
	TagIDs          []string `json:"tag_ids" validate:"omitempty,max=10,dive,required"`
}

// UpdateReviewRequest is the payload for editing an owned review. The tag
// set always replaces the stored one in full; an empty slice clears it.
type UpdateReviewRequest struct {
	YearTaken       int      `json:"year_taken" validate:"required"`
	RatingProfessor int      `json:"rating_professor" validate:"required,min=1,max=5"`
	RatingMaterial  int      `json:"rating_material" validate:"required,min=1,max=5"`
	RatingPeers     int      `json:"rating_peers" validate:"required,min=1,max=5"`
	RatingWorkload  string   `json:"rating_workload" validate:"required,oneof=light medium heavy"`
	Content         *string  `json:"content" validate:"omitempty,max=5000"`
	TagIDs          []string `json:"tag_ids" validate:"omitempty,max=10,dive,required"`
}

// ReviewWithTags pairs a review with its resolved tags for responses.
type ReviewWithTags struct {
	Review models.Review `json:"review"`
	Tags   []models.Tag  `json:"tags"`
}

// ReviewService owns the write path for reviews: one review per user per
// course, full-replace tag edits, owner-scoped updates and deletes.
type ReviewService struct {
	reviews   reviewStore
	courses   reviewCourseReader
	tags      reviewTagReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReviewService constructs ReviewService.
func NewReviewService(reviews reviewStore, courses reviewCourseReader, tags reviewTagReader, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		reviews:   reviews,
		courses:   courses,
		tags:      tags,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateReview posts a review for a course. The pre-check gives a friendly
// duplicate error; the unique constraint on (user_id, course_id) is the
// guard that actually holds under concurrency, so its violation maps to
// the same error.
func (s *ReviewService) CreateReview(ctx context.Context, userID string, req CreateReviewRequest) (*ReviewWithTags, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if err := s.validateYearTaken(req.YearTaken); err != nil {
		return nil, err
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	exists, err := s.reviews.ExistsForUserAndCourse(ctx, userID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing review")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateReview, "")
	}

	tags, err := s.resolveTags(ctx, req.TagIDs)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		UserID:          userID,
		CourseID:        req.CourseID,
		DatePosted:      s.now().UTC(),
		YearTaken:       req.YearTaken,
		RatingProfessor: req.RatingProfessor,
		RatingMaterial:  req.RatingMaterial,
		RatingPeers:     req.RatingPeers,
		RatingWorkload:  models.Workload(req.RatingWorkload),
		Content:         req.Content,
	}
	if err := s.reviews.Create(ctx, review, req.TagIDs); err != nil {
		if repository.IsUniqueViolation(err, "reviews_user_id_course_id_key") {
			return nil, appErrors.Clone(appErrors.ErrDuplicateReview, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create review")
	}

	s.logger.Info("review created",
		zap.String("review_id", review.ID),
		zap.String("course_id", review.CourseID))
	return &ReviewWithTags{Review: *review, Tags: tags}, nil
}

// UpdateReview edits a review the user owns. A miss and a foreign review
// both surface as not found.
func (s *ReviewService) UpdateReview(ctx context.Context, userID, reviewID string, req UpdateReviewRequest) (*ReviewWithTags, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if err := s.validateYearTaken(req.YearTaken); err != nil {
		return nil, err
	}

	tags, err := s.resolveTags(ctx, req.TagIDs)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		ID:              reviewID,
		UserID:          userID,
		YearTaken:       req.YearTaken,
		RatingProfessor: req.RatingProfessor,
		RatingMaterial:  req.RatingMaterial,
		RatingPeers:     req.RatingPeers,
		RatingWorkload:  models.Workload(req.RatingWorkload),
		Content:         req.Content,
	}
	if err := s.reviews.UpdateOwned(ctx, review, req.TagIDs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update review")
	}

	stored, err := s.reviews.FindOwned(ctx, reviewID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload review")
	}
	return &ReviewWithTags{Review: *stored, Tags: tags}, nil
}

// DeleteReview removes a review the user owns.
func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID string) error {
	if err := s.reviews.DeleteOwned(ctx, reviewID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete review")
	}
	s.logger.Info("review deleted", zap.String("review_id", reviewID))
	return nil
}

// GetReviewForEdit loads an owned review with tags for pre-filling the
// edit form.
func (s *ReviewService) GetReviewForEdit(ctx context.Context, userID, reviewID string) (*ReviewWithTags, error) {
	review, err := s.reviews.FindOwned(ctx, reviewID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review")
	}
	return s.withTags(ctx, review)
}

// GetUserReviewForCourse returns the user's review for a course, or a not
// found error when they have not reviewed it.
func (s *ReviewService) GetUserReviewForCourse(ctx context.Context, userID, courseID string) (*ReviewWithTags, error) {
	review, err := s.reviews.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review")
	}
	return s.withTags(ctx, review)
}

func (s *ReviewService) withTags(ctx context.Context, review *models.Review) (*ReviewWithTags, error) {
	tagsByReview, err := s.reviews.TagsForReviews(ctx, []string{review.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review tags")
	}
	tags := tagsByReview[review.ID]
	if tags == nil {
		tags = []models.Tag{}
	}
	return &ReviewWithTags{Review: *review, Tags: tags}, nil
}

// resolveTags validates that every requested tag ID exists, rejecting the
// whole request on any unknown ID.
func (s *ReviewService) resolveTags(ctx context.Context, tagIDs []string) ([]models.Tag, error) {
	tags, err := s.tags.ListByIDs(ctx, tagIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve tags")
	}
	if len(tags) != len(tagIDs) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "one or more tags do not exist")
	}
	return tags, nil
}

func (s *ReviewService) validateYearTaken(year int) error {
	current := s.now().Year()
	if year < 1960 || year > current {
		return appErrors.Clone(appErrors.ErrValidation, "year_taken must not be in the future")
	}
	return nil
}
