// internal/repository/postgres/category_field_option_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"sooq-service/internal/domain/taxonomy"
	xerrors "sooq-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoryFieldOptionRepository struct {
	db *pgxpool.Pool
}

func NewCategoryFieldOptionRepository(db *pgxpool.Pool) *CategoryFieldOptionRepository {
	return &CategoryFieldOptionRepository{db: db}
}

const optionColumns = `id, category_field_id, external_id, value, label, "order", is_default, metadata, created_at, updated_at`

// UpsertWithTx creates or updates an option keyed by (category_field_id,
// external_id). Existing options keep their local id so references from ad
// field values survive a re-sync.
func (r *CategoryFieldOptionRepository) UpsertWithTx(ctx context.Context, tx pgx.Tx, option *taxonomy.CategoryFieldOption) error {
	metadataJSON, err := marshalMetadata(option.Metadata)
	if err != nil {
		return err
	}

	updateQuery := `
		UPDATE category_field_options SET
			value = $3, label = $4, "order" = $5, is_default = $6, metadata = $7, updated_at = NOW()
		WHERE category_field_id = $1 AND external_id = $2
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(
		ctx, updateQuery,
		option.CategoryFieldID, option.ExternalID, option.Value, option.Label,
		option.Order, option.IsDefault, metadataJSON,
	).Scan(&option.ID, &option.CreatedAt, &option.UpdatedAt)

	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to update field option: %w", err)
	}

	insertQuery := `
		INSERT INTO category_field_options (category_field_id, external_id, value, label, "order", is_default, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(
		ctx, insertQuery,
		option.CategoryFieldID, option.ExternalID, option.Value, option.Label,
		option.Order, option.IsDefault, metadataJSON,
	).Scan(&option.ID, &option.CreatedAt, &option.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert field option: %w", err)
	}

	return nil
}

// PruneWithTx deletes every option of a field whose external id is absent
// from keepExternalIDs. This is the one destructive sync operation: stale
// choices are removed, unlike fields and categories.
func (r *CategoryFieldOptionRepository) PruneWithTx(ctx context.Context, tx pgx.Tx, fieldID int64, keepExternalIDs []string) (int64, error) {
	if len(keepExternalIDs) == 0 {
		return 0, nil
	}

	query := `
		DELETE FROM category_field_options
		WHERE category_field_id = $1 AND NOT (external_id = ANY($2))
	`

	result, err := tx.Exec(ctx, query, fieldID, keepExternalIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to prune field options: %w", err)
	}

	return result.RowsAffected(), nil
}

// FindByID retrieves a single option.
func (r *CategoryFieldOptionRepository) FindByID(ctx context.Context, id int64) (*taxonomy.CategoryFieldOption, error) {
	query := fmt.Sprintf(`SELECT %s FROM category_field_options WHERE id = $1`, optionColumns)

	var option taxonomy.CategoryFieldOption
	var metadataJSON []byte

	err := r.db.QueryRow(ctx, query, id).Scan(
		&option.ID, &option.CategoryFieldID, &option.ExternalID, &option.Value,
		&option.Label, &option.Order, &option.IsDefault, &metadataJSON,
		&option.CreatedAt, &option.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find field option: %w", err)
	}

	if err := unmarshalMetadata(metadataJSON, &option.Metadata); err != nil {
		return nil, err
	}

	return &option, nil
}

// ListByField retrieves a field's options in display order.
func (r *CategoryFieldOptionRepository) ListByField(ctx context.Context, fieldID int64) ([]taxonomy.CategoryFieldOption, error) {
	query := fmt.Sprintf(`SELECT %s FROM category_field_options WHERE category_field_id = $1 ORDER BY "order", id`, optionColumns)

	rows, err := r.db.Query(ctx, query, fieldID)
	if err != nil {
		return nil, fmt.Errorf("failed to list field options: %w", err)
	}
	defer rows.Close()

	options := []taxonomy.CategoryFieldOption{}
	for rows.Next() {
		option, err := scanOptionRows(rows)
		if err != nil {
			return nil, err
		}
		options = append(options, *option)
	}

	return options, rows.Err()
}

func scanOptionRows(rows pgx.Rows) (*taxonomy.CategoryFieldOption, error) {
	var option taxonomy.CategoryFieldOption
	var metadataJSON []byte

	err := rows.Scan(
		&option.ID, &option.CategoryFieldID, &option.ExternalID, &option.Value,
		&option.Label, &option.Order, &option.IsDefault, &metadataJSON,
		&option.CreatedAt, &option.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan field option: %w", err)
	}

	if err := unmarshalMetadata(metadataJSON, &option.Metadata); err != nil {
		return nil, err
	}

	return &option, nil
}
