package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/pantry-engine/pkg/database"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
)

// TagRepository defines the interface for tag data access.
type TagRepository interface {
	List(ctx context.Context) ([]*models.Tag, error)
	// Upsert keys on external id when present, otherwise on name, and fills in the id.
	Upsert(ctx context.Context, tag *models.Tag) error
}

// tagRepository implements TagRepository using PostgreSQL.
type tagRepository struct{}

// NewTagRepository creates a new tag repository.
func NewTagRepository() TagRepository {
	return &tagRepository{}
}

// List returns all tags ordered by name.
func (r *tagRepository) List(ctx context.Context) ([]*models.Tag, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT id, external_id, name, slug, taxonomy
		FROM tag
		ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := make([]*models.Tag, 0)
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.ExternalID, &tag.Name, &tag.Slug, &tag.Taxonomy); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, &tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return tags, nil
}

// Upsert inserts or updates a tag.
func (r *tagRepository) Upsert(ctx context.Context, tag *models.Tag) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if tag.ExternalID != nil {
		err := scope.Conn.QueryRow(ctx, `
			INSERT INTO tag (external_id, name, slug, taxonomy)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (external_id) DO UPDATE
			SET name = EXCLUDED.name, slug = EXCLUDED.slug, taxonomy = EXCLUDED.taxonomy
			RETURNING id`,
			tag.ExternalID, tag.Name, tag.Slug, tag.Taxonomy,
		).Scan(&tag.ID)
		if err != nil {
			return fmt.Errorf("failed to upsert tag: %w", err)
		}
		return nil
	}

	err := scope.Conn.QueryRow(ctx,
		`SELECT id FROM tag WHERE name = $1 ORDER BY id LIMIT 1`, tag.Name,
	).Scan(&tag.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to look up tag: %w", err)
	}

	err = scope.Conn.QueryRow(ctx, `
		INSERT INTO tag (name, slug, taxonomy)
		VALUES ($1, $2, $3)
		RETURNING id`,
		tag.Name, tag.Slug, tag.Taxonomy,
	).Scan(&tag.ID)
	if err != nil {
		return fmt.Errorf("failed to insert tag: %w", err)
	}

	return nil
}

// Ensure tagRepository implements TagRepository at compile time.
var _ TagRepository = (*tagRepository)(nil)
