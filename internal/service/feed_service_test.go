package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kurskollen/kurskollen-api/internal/models"
	"github.com/kurskollen/kurskollen-api/pkg/config"
)

type fakeVisibilityResolver struct {
	vis models.CourseVisibility
}

func (f *fakeVisibilityResolver) Resolve(ctx context.Context, identity models.AcademicIdentity) (models.CourseVisibility, error) {
	return f.vis, nil
}

type fakeFeedReviewReader struct {
	rows          []models.ReviewDetail
	tags          map[string][]models.Tag
	gotCourseIDs  []string
	gotSort       models.FeedSortKey
	gotLimit      int
	gotOffset     int
	listFeedCalls int
}

func (f *fakeFeedReviewReader) ListFeed(ctx context.Context, courseIDs []string, sortBy models.FeedSortKey, limit, offset int) ([]models.ReviewDetail, error) {
	f.listFeedCalls++
	f.gotCourseIDs = courseIDs
	f.gotSort = sortBy
	f.gotLimit = limit
	f.gotOffset = offset
	if len(f.rows) > limit {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func (f *fakeFeedReviewReader) ListByCourse(ctx context.Context, courseID string) ([]models.ReviewDetail, error) {
	return f.rows, nil
}

func (f *fakeFeedReviewReader) TagsForReviews(ctx context.Context, reviewIDs []string) (map[string][]models.Tag, error) {
	out := map[string][]models.Tag{}
	for _, id := range reviewIDs {
		if tags, ok := f.tags[id]; ok {
			out[id] = tags
		}
	}
	return out, nil
}

func feedRow(id string, p, m, pe int) models.ReviewDetail {
	return models.ReviewDetail{
		Review: models.Review{
			ID:              id,
			UserID:          "user-1",
			CourseID:        "course-1",
			DatePosted:      time.Now(),
			YearTaken:       2025,
			RatingProfessor: p,
			RatingMaterial:  m,
			RatingPeers:     pe,
			RatingWorkload:  models.WorkloadMedium,
		},
		CourseName: "Algorithms",
		CourseCode: "DA3018",
		Username:   "d21_ab12cd34",
	}
}

func feedTestConfig() config.FeedConfig {
	return config.FeedConfig{DefaultPageSize: 20, MaxPageSize: 50}
}

func TestGetFeedEmptyVisibleSetShortCircuits(t *testing.T) {
	reviews := &fakeFeedReviewReader{}
	svc := NewFeedService(&fakeVisibilityResolver{vis: models.FilteredVisibility(nil)}, reviews, feedTestConfig(), zap.NewNop())

	page, err := svc.GetFeed(context.Background(), models.AcademicIdentity{ProgramID: strPtr("prog-1")}, models.FeedFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.Pagination.HasMore)
	assert.Zero(t, reviews.listFeedCalls, "empty filtered set must never hit the database")
}

func TestGetFeedUnfilteredPassesNilCourseFilter(t *testing.T) {
	reviews := &fakeFeedReviewReader{rows: []models.ReviewDetail{feedRow("review-1", 4, 3, 5)}}
	svc := NewFeedService(&fakeVisibilityResolver{vis: models.UnfilteredVisibility()}, reviews, feedTestConfig(), zap.NewNop())

	page, err := svc.GetFeed(context.Background(), models.AcademicIdentity{}, models.FeedFilter{})
	require.NoError(t, err)
	assert.Nil(t, reviews.gotCourseIDs)
	require.Len(t, page.Items, 1)
	assert.InDelta(t, 4.0, page.Items[0].OverallRating, 0.001)
}

func TestGetFeedFilteredPassesVisibleCourses(t *testing.T) {
	vis := models.FilteredVisibility([]string{"course-1", "course-2"})
	reviews := &fakeFeedReviewReader{}
	svc := NewFeedService(&fakeVisibilityResolver{vis: vis}, reviews, feedTestConfig(), zap.NewNop())

	_, err := svc.GetFeed(context.Background(), models.AcademicIdentity{ProgramID: strPtr("prog-1")}, models.FeedFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"course-1", "course-2"}, reviews.gotCourseIDs)
}

func TestGetFeedHasMoreProbe(t *testing.T) {
	var rows []models.ReviewDetail
	for i := 0; i < 4; i++ {
		rows = append(rows, feedRow(string(rune('a'+i)), 3, 3, 3))
	}
	reviews := &fakeFeedReviewReader{rows: rows}
	svc := NewFeedService(&fakeVisibilityResolver{vis: models.UnfilteredVisibility()}, reviews, feedTestConfig(), zap.NewNop())

	page, err := svc.GetFeed(context.Background(), models.AcademicIdentity{}, models.FeedFilter{Page: 1, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, reviews.gotLimit, "must fetch one extra row")
	assert.Len(t, page.Items, 3, "probe row must be trimmed")
	assert.True(t, page.Pagination.HasMore)

	// Exactly a full page left: no extra row comes back, hasMore is false.
	reviews.rows = rows[:3]
	page, err = svc.GetFeed(context.Background(), models.AcademicIdentity{}, models.FeedFilter{Page: 1, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.False(t, page.Pagination.HasMore)
}

func TestGetFeedNormalizesPagination(t *testing.T) {
	reviews := &fakeFeedReviewReader{}
	svc := NewFeedService(&fakeVisibilityResolver{vis: models.UnfilteredVisibility()}, reviews, feedTestConfig(), zap.NewNop())

	page, err := svc.GetFeed(context.Background(), models.AcademicIdentity{}, models.FeedFilter{Page: -3, PageSize: 999, SortBy: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, 50, page.Pagination.PageSize)
	assert.Equal(t, 0, reviews.gotOffset)

	_, err = svc.GetFeed(context.Background(), models.AcademicIdentity{}, models.FeedFilter{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 20, reviews.gotOffset)
}

func TestGetFeedAttachesTagsInBatch(t *testing.T) {
	reviews := &fakeFeedReviewReader{
		rows: []models.ReviewDetail{feedRow("review-1", 5, 5, 4), feedRow("review-2", 2, 2, 2)},
		tags: map[string][]models.Tag{
			"review-1": {{ID: "tag-1", Name: "engaging lectures", Sentiment: models.TagSentimentPositive}},
		},
	}
	svc := NewFeedService(&fakeVisibilityResolver{vis: models.UnfilteredVisibility()}, reviews, feedTestConfig(), zap.NewNop())

	page, err := svc.GetFeed(context.Background(), models.AcademicIdentity{}, models.FeedFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Len(t, page.Items[0].Tags, 1)
	assert.NotNil(t, page.Items[1].Tags)
	assert.Empty(t, page.Items[1].Tags)
	assert.InDelta(t, 4.7, page.Items[0].OverallRating, 0.001)
}

func TestGetCourseReviewsAggregates(t *testing.T) {
	reviews := &fakeFeedReviewReader{
		rows: []models.ReviewDetail{feedRow("review-1", 4, 3, 5), feedRow("review-2", 5, 5, 4)},
	}
	svc := NewFeedService(&fakeVisibilityResolver{vis: models.UnfilteredVisibility()}, reviews, feedTestConfig(), zap.NewNop())

	summary, err := svc.GetCourseReviews(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ReviewCount)
	assert.InDelta(t, (4.0+4.7)/2, summary.AverageRating, 0.001)
}
