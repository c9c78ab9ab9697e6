// internal/repository/postgres/category_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sooq-service/internal/domain/taxonomy"
	xerrors "sooq-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoryRepository struct {
	db *pgxpool.Pool
}

func NewCategoryRepository(db *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, external_id, name, slug, description, parent_id, "order", metadata, created_at, updated_at`

// UpsertWithTx creates or updates a category keyed by external_id and fills
// in the generated id and timestamps.
func (r *CategoryRepository) UpsertWithTx(ctx context.Context, tx pgx.Tx, category *taxonomy.Category) error {
	query := `
		INSERT INTO categories (external_id, name, slug, description, parent_id, "order", metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			description = EXCLUDED.description,
			parent_id = EXCLUDED.parent_id,
			"order" = EXCLUDED."order",
			metadata = EXCLUDED.metadata,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	metadataJSON, err := marshalMetadata(category.Metadata)
	if err != nil {
		return err
	}

	err = tx.QueryRow(
		ctx, query,
		category.ExternalID, category.Name, category.Slug, category.Description,
		category.ParentID, category.Order, metadataJSON,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}

	return nil
}

// FindByExternalIDWithTx looks a category up inside the sync transaction so
// parent linkage sees categories written earlier in the same pass.
func (r *CategoryRepository) FindByExternalIDWithTx(ctx context.Context, tx pgx.Tx, externalID string) (*taxonomy.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE external_id = $1`, categoryColumns)
	return scanCategory(tx.QueryRow(ctx, query, externalID))
}

// FindByID retrieves a category by its local id.
func (r *CategoryRepository) FindByID(ctx context.Context, id int64) (*taxonomy.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE id = $1`, categoryColumns)
	return scanCategory(r.db.QueryRow(ctx, query, id))
}

// FindByExternalID retrieves a category by its upstream id.
func (r *CategoryRepository) FindByExternalID(ctx context.Context, externalID string) (*taxonomy.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE external_id = $1`, categoryColumns)
	return scanCategory(r.db.QueryRow(ctx, query, externalID))
}

// List retrieves all categories ordered for tree rendering.
func (r *CategoryRepository) List(ctx context.Context) ([]taxonomy.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories ORDER BY parent_id NULLS FIRST, "order", name`, categoryColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []taxonomy.Category{}
	for rows.Next() {
		category, err := scanCategoryRow(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *category)
	}

	return categories, rows.Err()
}

func scanCategory(row pgx.Row) (*taxonomy.Category, error) {
	var category taxonomy.Category
	var metadataJSON []byte

	err := row.Scan(
		&category.ID, &category.ExternalID, &category.Name, &category.Slug,
		&category.Description, &category.ParentID, &category.Order,
		&metadataJSON, &category.CreatedAt, &category.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	if err := unmarshalMetadata(metadataJSON, &category.Metadata); err != nil {
		return nil, err
	}

	return &category, nil
}

func scanCategoryRow(rows pgx.Rows) (*taxonomy.Category, error) {
	var category taxonomy.Category
	var metadataJSON []byte

	err := rows.Scan(
		&category.ID, &category.ExternalID, &category.Name, &category.Slug,
		&category.Description, &category.ParentID, &category.Order,
		&metadataJSON, &category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}

	if err := unmarshalMetadata(metadataJSON, &category.Metadata); err != nil {
		return nil, err
	}

	return &category, nil
}

func marshalMetadata(metadata map[string]interface{}) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return data, nil
}

func unmarshalMetadata(data []byte, target *map[string]interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return nil
}
