package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurskollen/kurskollen-api/internal/middleware"
	"github.com/kurskollen/kurskollen-api/internal/models"
	"github.com/kurskollen/kurskollen-api/internal/service"
)

type feedServiceMock struct {
	page        *service.FeedPage
	gotIdentity models.AcademicIdentity
	gotFilter   models.FeedFilter
}

func (m *feedServiceMock) GetFeed(ctx context.Context, identity models.AcademicIdentity, filter models.FeedFilter) (*service.FeedPage, error) {
	m.gotIdentity = identity
	m.gotFilter = filter
	return m.page, nil
}

func (m *feedServiceMock) GetCourseReviews(ctx context.Context, courseID string) (*service.CourseReviewSummary, error) {
	return &service.CourseReviewSummary{CourseID: courseID, Items: []service.FeedItem{}}, nil
}

func TestFeedHandlerParsesQueryAndIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &feedServiceMock{page: &service.FeedPage{
		Items:      []service.FeedItem{},
		Pagination: models.Pagination{Page: 2, PageSize: 10},
	}}
	h := NewFeedHandler(mockSvc, service.NewMetricsService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/feed?page=2&page_size=10&sort=top_rated", nil)
	require.NoError(t, err)
	c.Request = req
	programID := "prog-1"
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", ProgramID: &programID})

	h.GetFeed(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, mockSvc.gotFilter.Page)
	assert.Equal(t, 10, mockSvc.gotFilter.PageSize)
	assert.Equal(t, models.FeedSortTopRated, mockSvc.gotFilter.SortBy)
	require.NotNil(t, mockSvc.gotIdentity.ProgramID)
	assert.Equal(t, "prog-1", *mockSvc.gotIdentity.ProgramID)
}

func TestFeedHandlerGuestGetsBlankIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &feedServiceMock{page: &service.FeedPage{Items: []service.FeedItem{}}}
	h := NewFeedHandler(mockSvc, service.NewMetricsService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/feed", nil)
	require.NoError(t, err)
	c.Request = req

	h.GetFeed(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.gotIdentity.Blank())
}
