package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kurskollen/kurskollen-api/internal/models"
)

// TagRepository handles the static tag reference set.
type TagRepository struct {
	db *sqlx.DB
}

// NewTagRepository constructs the repository.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

// ListAll returns every tag ordered by name.
func (r *TagRepository) ListAll(ctx context.Context) ([]models.Tag, error) {
	const query = `SELECT id, name, sentiment FROM tags ORDER BY name`
	var tags []models.Tag
	if err := r.db.SelectContext(ctx, &tags, query); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// ListByNames resolves tag names to rows. Unknown names are simply absent
// from the result; the caller decides whether that is an error.
func (r *TagRepository) ListByNames(ctx context.Context, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return []models.Tag{}, nil
	}
	placeholders := make([]string, len(names))
	args := make([]interface{}, len(names))
	for i, name := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = name
	}
	query := fmt.Sprintf(`SELECT id, name, sentiment FROM tags WHERE name IN (%s)`, strings.Join(placeholders, ","))
	var tags []models.Tag
	if err := r.db.SelectContext(ctx, &tags, query, args...); err != nil {
		return nil, fmt.Errorf("list tags by names: %w", err)
	}
	return tags, nil
}

// ListByIDs resolves tag IDs to rows for validating client-supplied sets.
func (r *TagRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, name, sentiment FROM tags WHERE id IN (%s)`, strings.Join(placeholders, ","))
	var tags []models.Tag
	if err := r.db.SelectContext(ctx, &tags, query, args...); err != nil {
		return nil, fmt.Errorf("list tags by ids: %w", err)
	}
	return tags, nil
}

// InsertIfAbsent adds a tag unless the name already exists. Tags are an
// append-only reference set with no corrective-update use case.
func (r *TagRepository) InsertIfAbsent(ctx context.Context, tag *models.Tag) error {
	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}
	const query = `INSERT INTO tags (id, name, sentiment) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, tag.ID, tag.Name, tag.Sentiment); err != nil {
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}
