// internal/repository/postgres/ad_field_value_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"sooq-service/internal/domain/ad"
	"sooq-service/internal/domain/taxonomy"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdFieldValueRepository struct {
	db *pgxpool.Pool
}

func NewAdFieldValueRepository(db *pgxpool.Pool) *AdFieldValueRepository {
	return &AdFieldValueRepository{db: db}
}

// UpsertWithTx writes one typed value row, keyed by the (ad_id,
// category_field_id) uniqueness constraint. Every typed column is written
// on conflict so the previously-populated slot is cleared when the field
// type steers the value elsewhere.
func (r *AdFieldValueRepository) UpsertWithTx(ctx context.Context, tx pgx.Tx, fv *ad.AdFieldValue) error {
	var valueJSON []byte
	var err error
	if fv.ValueJSON != nil {
		valueJSON, err = json.Marshal(fv.ValueJSON)
		if err != nil {
			return fmt.Errorf("failed to marshal value_json: %w", err)
		}
	}

	query := `
		INSERT INTO ad_field_values (
			ad_id, category_field_id, value_text, value_integer, value_decimal,
			value_date, value_boolean, value_json, category_field_option_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ad_id, category_field_id) DO UPDATE SET
			value_text = EXCLUDED.value_text,
			value_integer = EXCLUDED.value_integer,
			value_decimal = EXCLUDED.value_decimal,
			value_date = EXCLUDED.value_date,
			value_boolean = EXCLUDED.value_boolean,
			value_json = EXCLUDED.value_json,
			category_field_option_id = EXCLUDED.category_field_option_id,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(
		ctx, query,
		fv.AdID, fv.CategoryFieldID, fv.ValueText, fv.ValueInteger, fv.ValueDecimal,
		fv.ValueDate, fv.ValueBoolean, valueJSON, fv.CategoryFieldOptionID,
	).Scan(&fv.ID, &fv.CreatedAt, &fv.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert ad field value: %w", err)
	}

	return nil
}

// DeleteWithTx removes the value row for one (ad, field) pair. Used for
// explicit-clear semantics when a client sends null for an optional field.
func (r *AdFieldValueRepository) DeleteWithTx(ctx context.Context, tx pgx.Tx, adID, fieldID int64) error {
	_, err := tx.Exec(ctx, `DELETE FROM ad_field_values WHERE ad_id = $1 AND category_field_id = $2`, adID, fieldID)
	if err != nil {
		return fmt.Errorf("failed to delete ad field value: %w", err)
	}
	return nil
}

// ExistsForField reports whether the ad already holds a value for the
// field. Drives the required-on-create / not-required-on-edit distinction.
func (r *AdFieldValueRepository) ExistsForField(ctx context.Context, adID, fieldID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM ad_field_values WHERE ad_id = $1 AND category_field_id = $2)`
	var exists bool
	err := r.db.QueryRow(ctx, query, adID, fieldID).Scan(&exists)
	return exists, err
}

// ListByAd retrieves all value rows of an ad with their field definitions
// and, for select/radio values, the selected option.
func (r *AdFieldValueRepository) ListByAd(ctx context.Context, adID int64) ([]ad.AdFieldValue, error) {
	query := `
		SELECT
			v.id, v.ad_id, v.category_field_id, v.value_text, v.value_integer,
			v.value_decimal, v.value_date, v.value_boolean, v.value_json,
			v.category_field_option_id, v.created_at, v.updated_at,
			f.id, f.category_id, f.external_id, f.name, f.label, f.field_type,
			f.is_required, f.is_searchable, f."order", f.validation_rules,
			f.placeholder, f.help_text, f.created_at, f.updated_at,
			o.id, o.category_field_id, o.external_id, o.value, o.label, o."order", o.is_default
		FROM ad_field_values v
		JOIN category_fields f ON f.id = v.category_field_id
		LEFT JOIN category_field_options o ON o.id = v.category_field_option_id
		WHERE v.ad_id = $1
		ORDER BY f."order", f.id
	`

	rows, err := r.db.Query(ctx, query, adID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ad field values: %w", err)
	}
	defer rows.Close()

	values := []ad.AdFieldValue{}
	for rows.Next() {
		var fv ad.AdFieldValue
		var field taxonomy.CategoryField
		var valueJSON []byte
		var optID, optFieldID *int64
		var optExternalID, optValue, optLabel *string
		var optOrder *int
		var optDefault *bool

		err := rows.Scan(
			&fv.ID, &fv.AdID, &fv.CategoryFieldID, &fv.ValueText, &fv.ValueInteger,
			&fv.ValueDecimal, &fv.ValueDate, &fv.ValueBoolean, &valueJSON,
			&fv.CategoryFieldOptionID, &fv.CreatedAt, &fv.UpdatedAt,
			&field.ID, &field.CategoryID, &field.ExternalID, &field.Name, &field.Label,
			&field.FieldType, &field.IsRequired, &field.IsSearchable, &field.Order,
			&field.ValidationRules, &field.Placeholder, &field.HelpText,
			&field.CreatedAt, &field.UpdatedAt,
			&optID, &optFieldID, &optExternalID, &optValue, &optLabel, &optOrder, &optDefault,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ad field value: %w", err)
		}

		if valueJSON != nil {
			if err := json.Unmarshal(valueJSON, &fv.ValueJSON); err != nil {
				return nil, fmt.Errorf("failed to unmarshal value_json: %w", err)
			}
		}

		fv.Field = &field
		if optID != nil {
			fv.SelectedOption = &taxonomy.CategoryFieldOption{
				ID:              *optID,
				CategoryFieldID: *optFieldID,
				ExternalID:      derefString(optExternalID),
				Value:           derefString(optValue),
				Label:           derefString(optLabel),
				Order:           derefInt(optOrder),
				IsDefault:       optDefault != nil && *optDefault,
			}
		}

		values = append(values, fv)
	}

	return values, rows.Err()
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
