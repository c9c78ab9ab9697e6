package ad

import (
	"database/sql"
	"time"

	"sooq-service/internal/domain/taxonomy"
)

type AdStatus string

const (
	StatusDraft   AdStatus = "draft"
	StatusActive  AdStatus = "active"
	StatusSold    AdStatus = "sold"
	StatusExpired AdStatus = "expired"
)

func (s AdStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusSold, StatusExpired:
		return true
	}
	return false
}

// Ad is a listing posted by a user under a category. Its typed extra fields
// live in FieldValues, one row per category field.
type Ad struct {
	ID          int64           `json:"id"`
	PublicID    string          `json:"public_id"`
	UserID      int64           `json:"user_id"`
	CategoryID  int64           `json:"category_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       sql.NullFloat64 `json:"price"`
	Status      AdStatus        `json:"status"`
	PublishedAt sql.NullTime    `json:"published_at"`
	ExpiresAt   sql.NullTime    `json:"expires_at"`
	ViewsCount  int64           `json:"views_count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Category    *taxonomy.Category `json:"category,omitempty"`
	FieldValues []AdFieldValue     `json:"field_values,omitempty"`
}

// AdFieldValue is one typed value for one (ad, category field) pair. At most
// one of the typed columns is populated per row; which one is determined by
// the owning field's declared type.
type AdFieldValue struct {
	ID                    int64           `json:"id"`
	AdID                  int64           `json:"ad_id"`
	CategoryFieldID       int64           `json:"category_field_id"`
	ValueText             sql.NullString  `json:"value_text"`
	ValueInteger          sql.NullInt64   `json:"value_integer"`
	ValueDecimal          sql.NullFloat64 `json:"value_decimal"`
	ValueDate             sql.NullTime    `json:"value_date"`
	ValueBoolean          sql.NullBool    `json:"value_boolean"`
	ValueJSON             []int64         `json:"value_json"`
	CategoryFieldOptionID sql.NullInt64   `json:"category_field_option_id"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`

	Field          *taxonomy.CategoryField       `json:"field,omitempty"`
	SelectedOption *taxonomy.CategoryFieldOption `json:"selected_option,omitempty"`
}
