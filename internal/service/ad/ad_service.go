// internal/service/ad/ad_service.go
package ad

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "sooq-service/internal/domain/ad"
	"sooq-service/internal/domain/taxonomy"
	xerrors "sooq-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// AdStore persists the ad rows themselves.
type AdStore interface {
	CreateWithTx(ctx context.Context, tx pgx.Tx, a *domain.Ad) error
	UpdateWithTx(ctx context.Context, tx pgx.Tx, a *domain.Ad) error
	FindByID(ctx context.Context, id int64) (*domain.Ad, error)
	List(ctx context.Context, filters *domain.ListFilters) ([]domain.Ad, int64, error)
	IncrementViews(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// ValueStore persists the typed field values of an ad.
type ValueStore interface {
	UpsertWithTx(ctx context.Context, tx pgx.Tx, fv *domain.AdFieldValue) error
	DeleteWithTx(ctx context.Context, tx pgx.Tx, adID, fieldID int64) error
	ExistsForField(ctx context.Context, adID, fieldID int64) (bool, error)
	ListByAd(ctx context.Context, adID int64) ([]domain.AdFieldValue, error)
}

// CategoryFinder resolves the category an ad is posted under.
type CategoryFinder interface {
	FindByID(ctx context.Context, id int64) (*taxonomy.Category, error)
}

// TxBeginner opens the transaction an ad write runs in.
type TxBeginner interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// AdService owns the listing lifecycle: validation against the category's
// dynamic schema, then persistence of the ad and its typed field values.
// Value saving is all-or-nothing: one bad field aborts the whole write.
type AdService struct {
	adRepo       AdStore
	valueRepo    ValueStore
	fieldRepo    FieldLister
	categoryRepo CategoryFinder
	deriver      *RuleDeriver
	db           TxBeginner
	logger       *zap.Logger
}

func NewAdService(
	adRepo AdStore,
	valueRepo ValueStore,
	fieldRepo FieldLister,
	categoryRepo CategoryFinder,
	db TxBeginner,
	logger *zap.Logger,
) *AdService {
	return &AdService{
		adRepo:       adRepo,
		valueRepo:    valueRepo,
		fieldRepo:    fieldRepo,
		categoryRepo: categoryRepo,
		deriver:      NewRuleDeriver(fieldRepo, valueRepo),
		db:           db,
		logger:       logger,
	}
}

// CreateAd validates the submission against the category's derived rules
// and persists the ad with its field values in one transaction.
func (s *AdService) CreateAd(ctx context.Context, userID int64, req *domain.CreateAdRequest) (*domain.AdResponse, error) {
	ve := xerrors.NewValidationError()

	category := s.validateCategory(ctx, req.CategoryID, ve)
	validateTitle(req.Title, true, ve)
	validateDescription(req.Description, true, ve)
	validatePrice(req.Price, ve)

	var schema []taxonomy.CategoryField
	if category != nil {
		rules, err := s.deriver.DeriveRules(ctx, category.ID, nil)
		if err != nil {
			return nil, err
		}
		ValidateFields(req.Fields, rules, ve)
		schema = collectSchema(rules)
	}

	if ve.HasErrors() {
		return nil, ve
	}

	a := &domain.Ad{
		PublicID:    ulid.Make().String(),
		UserID:      userID,
		CategoryID:  category.ID,
		Title:       req.Title,
		Description: req.Description,
		Price:       nullFloat(req.Price),
		Status:      domain.StatusActive,
		PublishedAt: sql.NullTime{Time: time.Now(), Valid: true},
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.adRepo.CreateWithTx(ctx, tx, a); err != nil {
		return nil, err
	}

	if err := s.saveFieldValues(ctx, tx, a.ID, schema, req.Fields, false); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit ad creation: %w", err)
	}

	s.logger.Info("ad created",
		zap.Int64("ad_id", a.ID),
		zap.Int64("user_id", userID),
		zap.Int64("category_id", category.ID),
	)

	return s.buildResponse(ctx, a)
}

// UpdateAd applies partial updates. Required fields the ad already holds a
// value for are not required again; an explicit null clears a stored value.
func (s *AdService) UpdateAd(ctx context.Context, adID, userID int64, req *domain.UpdateAdRequest) (*domain.AdResponse, error) {
	a, err := s.adRepo.FindByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, xerrors.ErrForbidden
	}

	ve := xerrors.NewValidationError()

	if req.Title != nil {
		validateTitle(*req.Title, true, ve)
	}
	if req.Description != nil {
		validateDescription(*req.Description, true, ve)
	}
	validatePrice(req.Price, ve)
	if req.Status != nil && !req.Status.IsValid() {
		ve.Add("status", "Invalid status value.")
	}

	var schema []taxonomy.CategoryField
	if req.FieldsProvided {
		rules, err := s.deriver.DeriveRules(ctx, a.CategoryID, &a.ID)
		if err != nil {
			return nil, err
		}
		ValidateFields(req.Fields, rules, ve)
		schema = collectSchema(rules)
	}

	if ve.HasErrors() {
		return nil, ve
	}

	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.Price != nil {
		a.Price = nullFloat(req.Price)
	}
	if req.Status != nil {
		a.Status = *req.Status
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.adRepo.UpdateWithTx(ctx, tx, a); err != nil {
		return nil, err
	}

	if req.FieldsProvided {
		if err := s.saveFieldValues(ctx, tx, a.ID, schema, req.Fields, true); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit ad update: %w", err)
	}

	s.logger.Info("ad updated", zap.Int64("ad_id", a.ID))

	return s.buildResponse(ctx, a)
}

// GetAd loads an ad with resolved field values and bumps its view counter.
func (s *AdService) GetAd(ctx context.Context, adID int64) (*domain.AdResponse, error) {
	a, err := s.adRepo.FindByID(ctx, adID)
	if err != nil {
		return nil, err
	}

	if err := s.adRepo.IncrementViews(ctx, adID); err != nil {
		s.logger.Warn("failed to increment views", zap.Int64("ad_id", adID), zap.Error(err))
	}

	return s.buildResponse(ctx, a)
}

// ListAds retrieves a filtered page of ads with their field values.
func (s *AdService) ListAds(ctx context.Context, filters *domain.ListFilters) (*domain.ListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}

	ads, total, err := s.adRepo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.AdResponse, 0, len(ads))
	for i := range ads {
		resp, err := s.buildResponse(ctx, &ads[i])
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &domain.ListResponse{
		Ads:        responses,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}

// DeleteAd removes an ad and (via cascade) all its field values.
func (s *AdService) DeleteAd(ctx context.Context, adID, userID int64) error {
	a, err := s.adRepo.FindByID(ctx, adID)
	if err != nil {
		return err
	}
	if a.UserID != userID {
		return xerrors.ErrForbidden
	}

	if err := s.adRepo.Delete(ctx, adID); err != nil {
		return err
	}

	s.logger.Info("ad deleted", zap.Int64("ad_id", adID))
	return nil
}

// saveFieldValues persists each supplied field value against the schema.
// Omitted keys are no-ops; explicit null during an update deletes the row.
// Any failure aborts the caller's transaction.
func (s *AdService) saveFieldValues(ctx context.Context, tx pgx.Tx, adID int64, schema []taxonomy.CategoryField, payload map[string]interface{}, isUpdate bool) error {
	known := make(map[string]bool, len(schema))

	for i := range schema {
		field := &schema[i]
		key := field.CanonicalKey()
		known[key] = true

		raw, present := payload[key]
		if !present {
			continue
		}
		raw = normalizeEmpty(raw)

		if raw == nil {
			if isUpdate {
				if err := s.valueRepo.DeleteWithTx(ctx, tx, adID, field.ID); err != nil {
					return err
				}
			}
			continue
		}

		fv := &domain.AdFieldValue{
			AdID:            adID,
			CategoryFieldID: field.ID,
			Field:           field,
		}
		if err := fv.SetValue(raw); err != nil {
			return fmt.Errorf("failed to set value for field %s: %w", key, err)
		}

		if err := s.valueRepo.UpsertWithTx(ctx, tx, fv); err != nil {
			return err
		}
	}

	for key := range payload {
		if !known[key] {
			s.logger.Debug("ignoring unknown field key",
				zap.Int64("ad_id", adID),
				zap.String("key", key),
			)
		}
	}

	return nil
}

func (s *AdService) buildResponse(ctx context.Context, a *domain.Ad) (*domain.AdResponse, error) {
	values, err := s.valueRepo.ListByAd(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{}, len(values))
	for i := range values {
		fv := &values[i]
		value, err := fv.Value()
		if err != nil {
			return nil, err
		}
		fields[fv.Field.CanonicalKey()] = value
	}

	resp := &domain.AdResponse{
		ID:          a.ID,
		PublicID:    a.PublicID,
		UserID:      a.UserID,
		CategoryID:  a.CategoryID,
		Title:       a.Title,
		Description: a.Description,
		Status:      a.Status,
		ViewsCount:  a.ViewsCount,
		Fields:      fields,
	}
	if a.Price.Valid {
		price := a.Price.Float64
		resp.Price = &price
	}

	return resp, nil
}

// validateCategory resolves the referenced category, recording a
// validation error rather than failing when it does not exist.
func (s *AdService) validateCategory(ctx context.Context, categoryID int64, ve *xerrors.ValidationError) *taxonomy.Category {
	if categoryID == 0 {
		ve.Add("category_id", "Please select a category for your ad.")
		return nil
	}

	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		ve.Add("category_id", "The selected category is invalid.")
		return nil
	}
	return category
}

func validateTitle(title string, required bool, ve *xerrors.ValidationError) {
	if title == "" {
		if required {
			ve.Add("title", "Your ad needs a title.")
		}
		return
	}
	if len([]rune(title)) < 5 {
		ve.Add("title", "The title must be at least 5 characters.")
	}
	if len([]rune(title)) > 100 {
		ve.Add("title", "The title cannot exceed 100 characters.")
	}
}

func validateDescription(description string, required bool, ve *xerrors.ValidationError) {
	if description == "" {
		if required {
			ve.Add("description", "Please provide a description for your ad.")
		}
		return
	}
	if len([]rune(description)) < 20 {
		ve.Add("description", "The description must be at least 20 characters.")
	}
	if len([]rune(description)) > 5000 {
		ve.Add("description", "The description cannot exceed 5000 characters.")
	}
}

func validatePrice(price *float64, ve *xerrors.ValidationError) {
	if price == nil {
		return
	}
	if *price < 0 {
		ve.Add("price", "The price cannot be negative.")
	}
	if *price > 999999999.99 {
		ve.Add("price", "The price is too large.")
	}
}

func collectSchema(rules map[string]*RuleSet) []taxonomy.CategoryField {
	schema := make([]taxonomy.CategoryField, 0, len(rules))
	for _, rs := range rules {
		schema = append(schema, *rs.Field)
	}
	return schema
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
