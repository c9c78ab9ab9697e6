// internal/repository/postgres/category_field_repo.go
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

type CategoryFieldRepository struct {
	db *pgxpool.Pool
}

func NewCategoryFieldRepository(db *pgxpool.Pool) *CategoryFieldRepository {
	return &CategoryFieldRepository{db: db}
}

const categoryFieldColumns = `id, category_id, external_id, name, label, field_type, is_required,
		is_searchable, "order", validation_rules, placeholder, help_text, metadata, created_at, updated_at`

// UpsertWithTx creates or updates a field keyed by (category_id,
// external_id). The pair is unique by convention, not by constraint, so the
// upsert is an explicit update-then-insert inside the sync transaction.
func (r *CategoryFieldRepository) UpsertWithTx(ctx context.Context, tx pgx.Tx, field *taxonomy.CategoryField) error {
	metadataJSON, err := marshalMetadata(field.Metadata)
	if err != nil {
		return err
	}

	updateQuery := `
		UPDATE category_fields SET
			name = $3, label = $4, field_type = $5, is_required = $6, is_searchable = $7,
			"order" = $8, validation_rules = $9, placeholder = $10, help_text = $11,
			metadata = $12, updated_at = NOW()
		WHERE category_id = $1 AND external_id = $2
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(
		ctx, updateQuery,
		field.CategoryID, field.ExternalID, field.Name, field.Label, field.FieldType,
		field.IsRequired, field.IsSearchable, field.Order, field.ValidationRules,
		field.Placeholder, field.HelpText, metadataJSON,
	).Scan(&field.ID, &field.CreatedAt, &field.UpdatedAt)

	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to update category field: %w", err)
	}

	insertQuery := `
		INSERT INTO category_fields (
			category_id, external_id, name, label, field_type, is_required,
			is_searchable, "order", validation_rules, placeholder, help_text, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(
		ctx, insertQuery,
		field.CategoryID, field.ExternalID, field.Name, field.Label, field.FieldType,
		field.IsRequired, field.IsSearchable, field.Order, field.ValidationRules,
		field.Placeholder, field.HelpText, metadataJSON,
	).Scan(&field.ID, &field.CreatedAt, &field.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert category field: %w", err)
	}

	return nil
}

// FindByID retrieves a single field definition.
func (r *CategoryFieldRepository) FindByID(ctx context.Context, id int64) (*taxonomy.CategoryField, error) {
	query := fmt.Sprintf(`SELECT %s FROM category_fields WHERE id = $1`, categoryFieldColumns)

	field, err := scanCategoryField(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return field, nil
}

// ListByCategory retrieves the full field schema for a category, options
// included, ordered for display.
func (r *CategoryFieldRepository) ListByCategory(ctx context.Context, categoryID int64) ([]taxonomy.CategoryField, error) {
	query := fmt.Sprintf(`SELECT %s FROM category_fields WHERE category_id = $1 ORDER BY "order", id`, categoryFieldColumns)

	rows, err := r.db.Query(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list category fields: %w", err)
	}
	defer rows.Close()

	fields := []taxonomy.CategoryField{}
	for rows.Next() {
		field, err := scanCategoryFieldRows(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, *field)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		return fields, nil
	}

	// attach options in one pass
	fieldIDs := make([]int64, len(fields))
	byID := make(map[int64]*taxonomy.CategoryField, len(fields))
	for i := range fields {
		fieldIDs[i] = fields[i].ID
		byID[fields[i].ID] = &fields[i]
	}

	optionQuery := `
		SELECT id, category_field_id, external_id, value, label, "order", is_default, metadata, created_at, updated_at
		FROM category_field_options
		WHERE category_field_id = ANY($1)
		ORDER BY "order", id
	`

	optionRows, err := r.db.Query(ctx, optionQuery, fieldIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list field options: %w", err)
	}
	defer optionRows.Close()

	for optionRows.Next() {
		option, err := scanOptionRows(optionRows)
		if err != nil {
			return nil, err
		}
		if field, ok := byID[option.CategoryFieldID]; ok {
			field.Options = append(field.Options, *option)
		}
	}

	return fields, optionRows.Err()
}

func scanCategoryField(row pgx.Row) (*taxonomy.CategoryField, error) {
	var field taxonomy.CategoryField
	var metadataJSON []byte

	err := row.Scan(
		&field.ID, &field.CategoryID, &field.ExternalID, &field.Name, &field.Label,
		&field.FieldType, &field.IsRequired, &field.IsSearchable, &field.Order,
		&field.ValidationRules, &field.Placeholder, &field.HelpText,
		&metadataJSON, &field.CreatedAt, &field.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category field: %w", err)
	}

	if err := unmarshalMetadata(metadataJSON, &field.Metadata); err != nil {
		return nil, err
	}

	return &field, nil
}

func scanCategoryFieldRows(rows pgx.Rows) (*taxonomy.CategoryField, error) {
	var field taxonomy.CategoryField
	var metadataJSON []byte

	err := rows.Scan(
		&field.ID, &field.CategoryID, &field.ExternalID, &field.Name, &field.Label,
		&field.FieldType, &field.IsRequired, &field.IsSearchable, &field.Order,
		&field.ValidationRules, &field.Placeholder, &field.HelpText,
		&metadataJSON, &field.CreatedAt, &field.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan category field: %w", err)
	}

	if err := unmarshalMetadata(metadataJSON, &field.Metadata); err != nil {
		return nil, err
	}

	return &field, nil
}
