package models

import (
	"math"
	"time"
)

// Workload is the closed three-value workload rating.
type Workload string

const (
	WorkloadLight  Workload = "light"
	WorkloadMedium Workload = "medium"
	WorkloadHeavy  Workload = "heavy"
)

// Valid reports whether w is one of the three allowed values.
func (w Workload) Valid() bool {
	switch w {
	case WorkloadLight, WorkloadMedium, WorkloadHeavy:
		return true
	}
	return false
}

// Review is one student's structured review of a course. (user_id,
// course_id) is unique: at most one review per user per course.
type Review struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	CourseID        string    `db:"course_id" json:"course_id"`
	DatePosted      time.Time `db:"date_posted" json:"date_posted"`
	YearTaken       int       `db:"year_taken" json:"year_taken"`
	RatingProfessor int       `db:"rating_professor" json:"rating_professor"`
	RatingMaterial  int       `db:"rating_material" json:"rating_material"`
	RatingPeers     int       `db:"rating_peers" json:"rating_peers"`
	RatingWorkload  Workload  `db:"rating_workload" json:"rating_workload"`
	Content         *string   `db:"content" json:"content,omitempty"`
}

// OverallRating derives the headline rating from the three numeric
// dimensions, rounded half away from zero to one decimal. Never persisted.
func (r Review) OverallRating() float64 {
	return ComputeOverallRating(r.RatingProfessor, r.RatingMaterial, r.RatingPeers)
}

// ComputeOverallRating averages professor/material/peers and rounds to one
// decimal place.
func ComputeOverallRating(professor, material, peers int) float64 {
	avg := float64(professor+material+peers) / 3
	return math.Round(avg*10) / 10
}

// ReviewDetail is a review joined with its display context.
type ReviewDetail struct {
	Review
	CourseName string `db:"course_name" json:"course_name"`
	CourseCode string `db:"course_code" json:"course_code"`
	Username   string `db:"username" json:"username"`
	Tags       []Tag  `db:"-" json:"tags"`
}

// Tag is a named sentiment label attached to reviews. The tag set is
// static reference data loaded once.
type Tag struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Sentiment TagSentiment `db:"sentiment" json:"sentiment"`
}

// TagSentiment classifies a tag as positive or negative.
type TagSentiment string

const (
	TagSentimentPositive TagSentiment = "positive"
	TagSentimentNegative TagSentiment = "negative"
)

// FeedSortKey selects the feed ordering.
type FeedSortKey string

const (
	FeedSortNewest    FeedSortKey = "newest"
	FeedSortTopRated  FeedSortKey = "top_rated"
	FeedSortProfessor FeedSortKey = "professor"
	FeedSortMaterial  FeedSortKey = "material"
	FeedSortPeers     FeedSortKey = "peers"
)

// FeedFilter captures feed query parameters after normalisation.
type FeedFilter struct {
	Page     int
	PageSize int
	SortBy   FeedSortKey
}
