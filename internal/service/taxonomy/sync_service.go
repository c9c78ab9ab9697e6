// internal/service/taxonomy/sync_service.go
package taxonomy

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"sooq-service/internal/domain/taxonomy"
	"sooq-service/internal/olx"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Client is the upstream taxonomy source consumed by the sync engine.
type Client interface {
	FetchCategories(ctx context.Context, forceRefresh bool) []olx.RawCategory
	FetchCategoryFields(ctx context.Context, externalIDs []string, forceRefresh bool) (map[string]olx.RawFieldGroup, error)
}

// TxBeginner opens the transaction the whole sync pass runs in.
type TxBeginner interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

type CategoryStore interface {
	UpsertWithTx(ctx context.Context, tx pgx.Tx, category *taxonomy.Category) error
	FindByExternalIDWithTx(ctx context.Context, tx pgx.Tx, externalID string) (*taxonomy.Category, error)
}

type FieldStore interface {
	UpsertWithTx(ctx context.Context, tx pgx.Tx, field *taxonomy.CategoryField) error
}

type OptionStore interface {
	UpsertWithTx(ctx context.Context, tx pgx.Tx, option *taxonomy.CategoryFieldOption) error
	PruneWithTx(ctx context.Context, tx pgx.Tx, fieldID int64, keepExternalIDs []string) (int64, error)
}

// SyncService reconciles upstream category, field and option data into the
// local schema tables. A pass is all-or-nothing: any error rolls back every
// write performed during the call.
type SyncService struct {
	client     Client
	db         TxBeginner
	categories CategoryStore
	fields     FieldStore
	options    OptionStore
	logger     *zap.Logger
}

func NewSyncService(client Client, db TxBeginner, categories CategoryStore, fields FieldStore, options OptionStore, logger *zap.Logger) *SyncService {
	return &SyncService{
		client:     client,
		db:         db,
		categories: categories,
		fields:     fields,
		options:    options,
		logger:     logger,
	}
}

// SyncAll fetches and reconciles the full taxonomy. An empty upstream
// category list is a no-op, not an error.
func (s *SyncService) SyncAll(ctx context.Context, forceRefresh bool) (*taxonomy.SyncStats, error) {
	logger := s.logger.With(zap.String("sync_run_id", uuid.NewString()))
	stats := &taxonomy.SyncStats{}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin sync transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	categoriesData := s.client.FetchCategories(ctx, forceRefresh)

	// byUpstreamKey resolves whatever key the fields response uses: the
	// category's external id, or the source's own internal id retained
	// from the raw payload.
	byUpstreamKey := make(map[string]*taxonomy.Category)
	externalIDs := []string{}
	seen := make(map[string]bool)

	for _, raw := range categoriesData {
		category, internalHint, err := s.syncCategory(ctx, tx, raw, logger)
		if err != nil {
			return nil, err
		}
		if category == nil {
			continue
		}

		stats.Categories++
		byUpstreamKey[category.ExternalID] = category
		if internalHint != "" {
			byUpstreamKey[internalHint] = category
		}
		if !seen[category.ExternalID] {
			seen[category.ExternalID] = true
			externalIDs = append(externalIDs, category.ExternalID)
		}
	}

	if len(externalIDs) > 0 {
		groups, err := s.client.FetchCategoryFields(ctx, externalIDs, forceRefresh)
		if err != nil {
			return nil, err
		}

		if err := s.syncFieldGroups(ctx, tx, groups, byUpstreamKey, stats, logger); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sync transaction: %w", err)
	}

	logger.Info("taxonomy sync completed",
		zap.Int("categories", stats.Categories),
		zap.Int("fields", stats.Fields),
		zap.Int("options", stats.Options),
	)

	return stats, nil
}

// syncCategory upserts one category. Returns nil without error when the
// payload has no usable identifier. The second return is the source's
// internal-id hint when the payload distinguishes it from the external id.
func (s *SyncService) syncCategory(ctx context.Context, tx pgx.Tx, raw olx.RawCategory, logger *zap.Logger) (*taxonomy.Category, string, error) {
	externalID := olx.GetString(raw, "externalID", "id")
	if externalID == "" {
		logger.Warn("skipping category without usable identifier")
		return nil, "", nil
	}

	internalHint := ""
	if olx.GetString(raw, "externalID") != "" {
		// payload carries both spellings; "id" is the source's own id
		if id := olx.GetString(raw, "id"); id != "" && id != externalID {
			internalHint = id
		}
	}

	name := olx.GetString(raw, "name")
	if name == "" {
		name = "Unknown"
	}

	slug := olx.GetString(raw, "slug")
	if slug == "" {
		slug = Slugify(name)
	}

	category := &taxonomy.Category{
		ExternalID:  externalID,
		Name:        name,
		Slug:        slug,
		Description: nullString(olx.GetString(raw, "description")),
		ParentID:    s.resolveParent(ctx, tx, raw, logger),
		Order:       olx.GetInt(raw, 0, "order"),
		Metadata: map[string]interface{}{
			"icon":         raw["icon"],
			"level":        raw["level"],
			"has_children": olx.GetBool(raw, false, "has_children"),
			"raw_data":     map[string]interface{}(raw),
		},
	}

	if err := s.categories.UpsertWithTx(ctx, tx, category); err != nil {
		return nil, "", err
	}

	logger.Debug("synced category",
		zap.String("name", category.Name),
		zap.String("external_id", category.ExternalID),
	)

	return category, internalHint, nil
}

// resolveParent links a category to its parent when the parent has already
// been synced. A parent that arrives later in the feed leaves the linkage
// null for this pass; it resolves on the next run.
func (s *SyncService) resolveParent(ctx context.Context, tx pgx.Tx, raw olx.RawCategory, logger *zap.Logger) sql.NullInt64 {
	parentExternalID := olx.GetString(raw, "parent_id", "parentID")
	if parentExternalID == "" {
		return sql.NullInt64{}
	}

	parent, err := s.categories.FindByExternalIDWithTx(ctx, tx, parentExternalID)
	if err != nil || parent == nil {
		logger.Warn("parent category not yet known, leaving linkage unset",
			zap.String("parent_external_id", parentExternalID),
		)
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: parent.ID, Valid: true}
}

// syncFieldGroups walks the per-category field groups. The top-level key is
// not guaranteed to be an external id, so each key goes through the
// internal-id hint map first and falls back to a direct external-id lookup.
func (s *SyncService) syncFieldGroups(ctx context.Context, tx pgx.Tx, groups map[string]olx.RawFieldGroup, byUpstreamKey map[string]*taxonomy.Category, stats *taxonomy.SyncStats, logger *zap.Logger) error {
	for key, group := range groups {
		if key == "common_category_fields" {
			continue
		}

		category := byUpstreamKey[key]
		if category == nil {
			if found, err := s.categories.FindByExternalIDWithTx(ctx, tx, key); err == nil {
				category = found
			}
		}
		if category == nil {
			logger.Warn("category not found for fields group key", zap.String("key", key))
			continue
		}

		for _, rawField := range group.FlatFields {
			field, err := s.syncField(ctx, tx, category, rawField)
			if err != nil {
				return err
			}
			stats.Fields++

			if choices := rawField.Choices(); len(choices) > 0 {
				count, err := s.syncOptions(ctx, tx, field, choices, logger)
				if err != nil {
					return err
				}
				stats.Options += count
			}
		}
	}

	return nil
}

func (s *SyncService) syncField(ctx context.Context, tx pgx.Tx, category *taxonomy.Category, raw olx.RawField) (*taxonomy.CategoryField, error) {
	attribute := olx.GetString(raw, "attribute", "name")
	if attribute == "" {
		attribute = "unknown_field"
	}

	externalID := olx.GetString(raw, "id")
	if externalID == "" {
		externalID = attribute
	}

	label := olx.GetString(raw, "name")
	if label == "" {
		label = attribute
	}

	field := &taxonomy.CategoryField{
		CategoryID:      category.ID,
		ExternalID:      externalID,
		Name:            attribute,
		Label:           label,
		FieldType:       olx.MapFieldType(olx.GetString(raw, "filterType", "type")),
		IsRequired:      olx.GetBool(raw, false, "isMandatory", "required"),
		IsSearchable:    olx.GetBool(raw, false, "searchable"),
		Order:           olx.GetInt(raw, 0, "displayPriority", "order"),
		ValidationRules: nullString(BuildValidationRules(raw)),
		Placeholder:     nullString(olx.GetString(raw, "placeholder")),
		HelpText:        nullString(olx.GetString(raw, "help_text", "hint")),
		Metadata: map[string]interface{}{
			"unit":     raw["unit"],
			"suffix":   raw["suffix"],
			"prefix":   raw["prefix"],
			"raw_data": map[string]interface{}(raw),
		},
	}

	if err := s.fields.UpsertWithTx(ctx, tx, field); err != nil {
		return nil, err
	}

	return field, nil
}

// syncOptions prunes options missing from the current choices list, then
// upserts each choice by its external id (falling back to the value).
func (s *SyncService) syncOptions(ctx context.Context, tx pgx.Tx, field *taxonomy.CategoryField, choices []olx.RawChoice, logger *zap.Logger) (int, error) {
	keep := make([]string, 0, len(choices))
	for _, choice := range choices {
		if id := optionExternalID(choice); id != "" {
			keep = append(keep, id)
		}
	}

	pruned, err := s.options.PruneWithTx(ctx, tx, field.ID, keep)
	if err != nil {
		return 0, err
	}
	if pruned > 0 {
		logger.Debug("pruned stale field options",
			zap.Int64("field_id", field.ID),
			zap.Int64("pruned", pruned),
		)
	}

	count := 0
	for i, choice := range choices {
		option := &taxonomy.CategoryFieldOption{
			CategoryFieldID: field.ID,
			ExternalID:      optionExternalID(choice),
			Value:           olx.GetString(choice, "value", "label"),
			Label:           olx.GetString(choice, "label", "value"),
			Order:           olx.GetInt(choice, i, "order"),
			IsDefault:       olx.GetBool(choice, false, "default"),
			Metadata: map[string]interface{}{
				"icon":     choice["icon"],
				"color":    choice["color"],
				"raw_data": map[string]interface{}(choice),
			},
		}

		if err := s.options.UpsertWithTx(ctx, tx, option); err != nil {
			return 0, err
		}
		count++
	}

	return count, nil
}

func optionExternalID(choice olx.RawChoice) string {
	if id := olx.GetString(choice, "id"); id != "" {
		return id
	}
	return olx.GetString(choice, "value")
}

// BuildValidationRules folds upstream bounds into the pipe-delimited token
// string stored on the field (min:N|max:N).
func BuildValidationRules(raw olx.RawField) string {
	rules := []string{}

	if min, ok := olx.GetFloat(raw, "min"); ok {
		rules = append(rules, fmt.Sprintf("min:%s", formatBound(min)))
	}
	if max, ok := olx.GetFloat(raw, "max"); ok {
		rules = append(rules, fmt.Sprintf("max:%s", formatBound(max)))
	}
	if minLen, ok := olx.GetFloat(raw, "min_length"); ok {
		rules = append(rules, fmt.Sprintf("min:%s", formatBound(minLen)))
	}
	if maxLen, ok := olx.GetFloat(raw, "max_length"); ok {
		rules = append(rules, fmt.Sprintf("max:%s", formatBound(maxLen)))
	}

	return strings.Join(rules, "|")
}

func formatBound(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// Slugify lowercases a name and squeezes anything non-alphanumeric into
// single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
