package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kurskollen/kurskollen-api/internal/models"
)

// ReviewRepository handles persistence of reviews and their tag links.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, user_id, course_id, date_posted, year_taken, rating_professor, rating_material, rating_peers, rating_workload, content`

// ExistsForUserAndCourse reports whether the user already reviewed the course.
func (r *ReviewRepository) ExistsForUserAndCourse(ctx context.Context, userID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM reviews WHERE user_id = $1 AND course_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check review existence: %w", err)
	}
	return true, nil
}

// Create inserts a review and its tag links in one transaction so a review
// with partially inserted tags is never observable. The unique constraint
// on (user_id, course_id) is the authoritative guard against a concurrent
// duplicate.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review, tagIDs []string) (err error) {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.DatePosted.IsZero() {
		review.DatePosted = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertQuery = `INSERT INTO reviews (id, user_id, course_id, date_posted, year_taken, rating_professor, rating_material, rating_peers, rating_workload, content)
        VALUES (:id, :user_id, :course_id, :date_posted, :year_taken, :rating_professor, :rating_material, :rating_peers, :rating_workload, :content)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, review); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	if err = insertTagLinks(ctx, tx, review.ID, tagIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit review: %w", err)
	}
	return nil
}

// UpdateOwned patches a review owned by userID. Tag sync is a full replace:
// all existing links are deleted and the new set inserted, inside the same
// transaction as the review update. Returns sql.ErrNoRows when no review
// with that id belongs to the user, deliberately not distinguishing absence
// from foreign ownership.
func (r *ReviewRepository) UpdateOwned(ctx context.Context, review *models.Review, tagIDs []string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review update transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateQuery = `UPDATE reviews
        SET year_taken = :year_taken, rating_professor = :rating_professor, rating_material = :rating_material,
            rating_peers = :rating_peers, rating_workload = :rating_workload, content = :content
        WHERE id = :id AND user_id = :user_id`
	res, err := tx.NamedExecContext(ctx, updateQuery, review)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update review rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM review_tags WHERE review_id = $1`, review.ID); err != nil {
		return fmt.Errorf("clear review tags: %w", err)
	}
	if err = insertTagLinks(ctx, tx, review.ID, tagIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit review update: %w", err)
	}
	return nil
}

// DeleteOwned removes a review owned by userID; tag links cascade. Returns
// sql.ErrNoRows when nothing matched.
func (r *ReviewRepository) DeleteOwned(ctx context.Context, reviewID, userID string) error {
	const query = `DELETE FROM reviews WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, reviewID, userID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete review rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindOwned returns a review only when it belongs to userID.
func (r *ReviewRepository) FindOwned(ctx context.Context, reviewID, userID string) (*models.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1 AND user_id = $2`, reviewColumns)
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, reviewID, userID); err != nil {
		return nil, err
	}
	return &review, nil
}

// FindByUserAndCourse returns the user's review for a course if present.
func (r *ReviewRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE user_id = $1 AND course_id = $2`, reviewColumns)
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, userID, courseID); err != nil {
		return nil, err
	}
	return &review, nil
}

// feedSortColumns whitelists sort keys to ORDER BY expressions. top_rated
// orders on the derived three-dimension average; ties fall back to storage
// order, which is acceptable per the feed contract.
var feedSortColumns = map[models.FeedSortKey]string{
	models.FeedSortNewest:    "r.date_posted DESC",
	models.FeedSortTopRated:  "(r.rating_professor + r.rating_material + r.rating_peers) DESC",
	models.FeedSortProfessor: "r.rating_professor DESC",
	models.FeedSortMaterial:  "r.rating_material DESC",
	models.FeedSortPeers:     "r.rating_peers DESC",
}

// ListFeed returns up to limit+1 reviews matching the visible course set,
// offset-paginated and sorted by the whitelisted key. The extra row lets
// the caller derive hasMore without a COUNT query. A nil courseIDs slice
// means no course filter; callers must short-circuit the empty filtered set
// before reaching this method.
func (r *ReviewRepository) ListFeed(ctx context.Context, courseIDs []string, sortBy models.FeedSortKey, limit, offset int) ([]models.ReviewDetail, error) {
	orderBy, ok := feedSortColumns[sortBy]
	if !ok {
		orderBy = feedSortColumns[models.FeedSortNewest]
	}

	var args []interface{}
	filter := ""
	if courseIDs != nil {
		placeholders := make([]string, len(courseIDs))
		for i, id := range courseIDs {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args = append(args, id)
		}
		filter = fmt.Sprintf(" WHERE r.course_id IN (%s)", strings.Join(placeholders, ","))
	}

	query := fmt.Sprintf(`SELECT r.id, r.user_id, r.course_id, r.date_posted, r.year_taken,
        r.rating_professor, r.rating_material, r.rating_peers, r.rating_workload, r.content,
        c.name AS course_name, c.code AS course_code, u.username AS username
        FROM reviews r
        JOIN courses c ON c.id = r.course_id
        JOIN users u ON u.id = r.user_id%s
        ORDER BY %s LIMIT %d OFFSET %d`, filter, orderBy, limit, offset)

	var reviews []models.ReviewDetail
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	return reviews, nil
}

// ListByCourse returns every review for a course, newest first.
func (r *ReviewRepository) ListByCourse(ctx context.Context, courseID string) ([]models.ReviewDetail, error) {
	const query = `SELECT r.id, r.user_id, r.course_id, r.date_posted, r.year_taken,
        r.rating_professor, r.rating_material, r.rating_peers, r.rating_workload, r.content,
        c.name AS course_name, c.code AS course_code, u.username AS username
        FROM reviews r
        JOIN courses c ON c.id = r.course_id
        JOIN users u ON u.id = r.user_id
        WHERE r.course_id = $1
        ORDER BY r.date_posted DESC`
	var reviews []models.ReviewDetail
	if err := r.db.SelectContext(ctx, &reviews, query, courseID); err != nil {
		return nil, fmt.Errorf("list course reviews: %w", err)
	}
	return reviews, nil
}

// reviewTagRow joins a tag to its owning review for batched attachment.
type reviewTagRow struct {
	ReviewID  string              `db:"review_id"`
	ID        string              `db:"id"`
	Name      string              `db:"name"`
	Sentiment models.TagSentiment `db:"sentiment"`
}

// TagsForReviews fetches tags for a page of reviews in a single query and
// groups them by review ID. One query per page, never one per review.
func (r *ReviewRepository) TagsForReviews(ctx context.Context, reviewIDs []string) (map[string][]models.Tag, error) {
	result := make(map[string][]models.Tag, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(reviewIDs))
	args := make([]interface{}, len(reviewIDs))
	for i, id := range reviewIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT rt.review_id, t.id, t.name, t.sentiment
        FROM review_tags rt
        JOIN tags t ON t.id = rt.tag_id
        WHERE rt.review_id IN (%s)
        ORDER BY t.name`, strings.Join(placeholders, ","))

	var rows []reviewTagRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("batch review tags: %w", err)
	}
	for _, row := range rows {
		result[row.ReviewID] = append(result[row.ReviewID], models.Tag{ID: row.ID, Name: row.Name, Sentiment: row.Sentiment})
	}
	return result, nil
}

// ImportSnapshot inserts a historical review keyed on (user_id, course_id),
// preserving the original posted timestamp. Existing pairs are left
// untouched so re-imports are idempotent. Reports whether a row was
// inserted.
func (r *ReviewRepository) ImportSnapshot(ctx context.Context, review *models.Review, tagIDs []string) (inserted bool, err error) {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertQuery = `INSERT INTO reviews (id, user_id, course_id, date_posted, year_taken, rating_professor, rating_material, rating_peers, rating_workload, content)
        VALUES (:id, :user_id, :course_id, :date_posted, :year_taken, :rating_professor, :rating_material, :rating_peers, :rating_workload, :content)
        ON CONFLICT (user_id, course_id) DO NOTHING`
	res, err := tx.NamedExecContext(ctx, insertQuery, review)
	if err != nil {
		return false, fmt.Errorf("insert review snapshot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert review snapshot rows: %w", err)
	}
	if affected == 0 {
		err = tx.Commit()
		return false, err
	}

	if err = insertTagLinks(ctx, tx, review.ID, tagIDs); err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit review snapshot: %w", err)
	}
	return true, nil
}

func insertTagLinks(ctx context.Context, tx *sqlx.Tx, reviewID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO review_tags (review_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, reviewID, tagID); err != nil {
			return fmt.Errorf("insert review tag: %w", err)
		}
	}
	return nil
}
