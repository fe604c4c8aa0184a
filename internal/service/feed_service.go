package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kurskollen/kurskollen-api/internal/models"
	"github.com/kurskollen/kurskollen-api/pkg/config"
	appErrors "github.com/kurskollen/kurskollen-api/pkg/errors"
)

type visibilityResolver interface {
	Resolve(ctx context.Context, identity models.AcademicIdentity) (models.CourseVisibility, error)
}

type feedReviewReader interface {
	ListFeed(ctx context.Context, courseIDs []string, sortBy models.FeedSortKey, limit, offset int) ([]models.ReviewDetail, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.ReviewDetail, error)
	TagsForReviews(ctx context.Context, reviewIDs []string) (map[string][]models.Tag, error)
}

// FeedItem is one composed feed entry: the joined review row, its tags and
// the derived overall rating.
type FeedItem struct {
	models.ReviewDetail
	OverallRating float64 `json:"overall_rating"`
}

// FeedPage is a page of feed items with pagination metadata.
type FeedPage struct {
	Items      []FeedItem        `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

// CourseReviewSummary aggregates a course's reviews for the course page.
type CourseReviewSummary struct {
	CourseID      string     `json:"course_id"`
	ReviewCount   int        `json:"review_count"`
	AverageRating float64    `json:"average_rating"`
	Items         []FeedItem `json:"items"`
}

// FeedService composes the review feed: visibility scoping, whitelisted
// sorting, offset pagination with an extra-row hasMore probe, and batched
// tag attachment.
type FeedService struct {
	visibility visibilityResolver
	reviews    feedReviewReader
	cfg        config.FeedConfig
	logger     *zap.Logger
}

// NewFeedService constructs FeedService.
func NewFeedService(visibility visibilityResolver, reviews feedReviewReader, cfg config.FeedConfig, logger *zap.Logger) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{visibility: visibility, reviews: reviews, cfg: cfg, logger: logger}
}

// GetFeed returns the review feed for the given identity. An identity whose
// visible set is empty gets an empty page without touching the database:
// empty means nothing, never everything.
func (s *FeedService) GetFeed(ctx context.Context, identity models.AcademicIdentity, filter models.FeedFilter) (*FeedPage, error) {
	filter = s.normalize(filter)

	vis, err := s.visibility.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	var courseIDs []string
	if !vis.Unfiltered() {
		if vis.Empty() {
			return &FeedPage{
				Items:      []FeedItem{},
				Pagination: models.Pagination{Page: filter.Page, PageSize: filter.PageSize, HasMore: false},
			}, nil
		}
		courseIDs = vis.CourseIDs()
	}

	offset := (filter.Page - 1) * filter.PageSize
	rows, err := s.reviews.ListFeed(ctx, courseIDs, filter.SortBy, filter.PageSize+1, offset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feed")
	}

	hasMore := len(rows) > filter.PageSize
	if hasMore {
		rows = rows[:filter.PageSize]
	}

	items, err := s.compose(ctx, rows)
	if err != nil {
		return nil, err
	}

	return &FeedPage{
		Items:      items,
		Pagination: models.Pagination{Page: filter.Page, PageSize: filter.PageSize, HasMore: hasMore},
	}, nil
}

// GetCourseReviews returns every review for one course together with the
// aggregate count and average overall rating.
func (s *FeedService) GetCourseReviews(ctx context.Context, courseID string) (*CourseReviewSummary, error) {
	rows, err := s.reviews.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course reviews")
	}

	items, err := s.compose(ctx, rows)
	if err != nil {
		return nil, err
	}

	summary := &CourseReviewSummary{CourseID: courseID, ReviewCount: len(items), Items: items}
	if len(items) > 0 {
		var sum float64
		for _, item := range items {
			sum += item.OverallRating
		}
		summary.AverageRating = sum / float64(len(items))
	}
	return summary, nil
}

// compose attaches tags (one query for the whole page) and the derived
// overall rating to each row.
func (s *FeedService) compose(ctx context.Context, rows []models.ReviewDetail) ([]FeedItem, error) {
	items := make([]FeedItem, 0, len(rows))
	if len(rows) == 0 {
		return items, nil
	}

	reviewIDs := make([]string, len(rows))
	for i, row := range rows {
		reviewIDs[i] = row.ID
	}
	tagsByReview, err := s.reviews.TagsForReviews(ctx, reviewIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feed tags")
	}

	for _, row := range rows {
		row.Tags = tagsByReview[row.ID]
		if row.Tags == nil {
			row.Tags = []models.Tag{}
		}
		items = append(items, FeedItem{ReviewDetail: row, OverallRating: row.OverallRating()})
	}
	return items, nil
}

// normalize applies defaults and bounds: page floors at 1, page size falls
// back to the default and is clamped to the configured maximum.
func (s *FeedService) normalize(filter models.FeedFilter) models.FeedFilter {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.cfg.DefaultPageSize
	}
	if filter.PageSize > s.cfg.MaxPageSize {
		filter.PageSize = s.cfg.MaxPageSize
	}
	if filter.SortBy == "" {
		filter.SortBy = models.FeedSortNewest
	}
	return filter
}
