package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kurskollen/kurskollen-api/internal/models"
	appErrors "github.com/kurskollen/kurskollen-api/pkg/errors"
	"github.com/kurskollen/kurskollen-api/pkg/ratelimit"
)

type feedbackWriter interface {
	Create(ctx context.Context, fb *models.Feedback) error
}

// SubmitFeedbackRequest carries a feedback submission.
type SubmitFeedbackRequest struct {
	Content string `json:"content" validate:"required,min=3,max=2000"`
}

// FeedbackService accepts free-text platform feedback, rate limited per
// user when authenticated and per client IP otherwise.
type FeedbackService struct {
	feedback  feedbackWriter
	limiter   ratelimit.Limiter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeedbackService constructs FeedbackService.
func NewFeedbackService(feedback feedbackWriter, limiter ratelimit.Limiter, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{feedback: feedback, limiter: limiter, validator: validate, logger: logger}
}

// Submit stores a feedback entry. userID may be nil for anonymous
// submissions, in which case the client IP keys the rate limit.
func (s *FeedbackService) Submit(ctx context.Context, userID *string, clientIP string, req SubmitFeedbackRequest) (*models.Feedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	key := "feedback:ip:" + clientIP
	if userID != nil {
		key = "feedback:user:" + *userID
	}
	res, err := s.limiter.Check(ctx, key)
	if err != nil {
		// Limiter backend trouble must not take feedback down with it.
		s.logger.Warn("rate limiter check failed, allowing request", zap.Error(err))
	} else if !res.Allowed {
		msg := fmt.Sprintf("too many submissions, try again in %d seconds", res.RetryAfterSeconds())
		return nil, appErrors.Clone(appErrors.ErrRateLimited, msg)
	}

	fb := &models.Feedback{UserID: userID, Content: req.Content}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store feedback")
	}
	s.logger.Info("feedback submitted", zap.String("feedback_id", fb.ID))
	return fb, nil
}
