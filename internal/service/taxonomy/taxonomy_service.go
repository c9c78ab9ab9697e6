// internal/service/taxonomy/taxonomy_service.go
package taxonomy

import (
	"context"

	"sooq-service/internal/domain/taxonomy"
	"sooq-service/internal/repository/postgres"

	"go.uber.org/zap"
)

// TaxonomyService is the read side of the synced taxonomy: the category
// tree and per-category field schemas consumed by clients building
// submission forms.
type TaxonomyService struct {
	categoryRepo *postgres.CategoryRepository
	fieldRepo    *postgres.CategoryFieldRepository
	logger       *zap.Logger
}

func NewTaxonomyService(categoryRepo *postgres.CategoryRepository, fieldRepo *postgres.CategoryFieldRepository, logger *zap.Logger) *TaxonomyService {
	return &TaxonomyService{
		categoryRepo: categoryRepo,
		fieldRepo:    fieldRepo,
		logger:       logger,
	}
}

// ListCategories returns all synced categories in tree order.
func (s *TaxonomyService) ListCategories(ctx context.Context) ([]taxonomy.Category, error) {
	return s.categoryRepo.List(ctx)
}

// GetCategorySchema returns a category with its full field schema, options
// included.
func (s *TaxonomyService) GetCategorySchema(ctx context.Context, categoryID int64) (*taxonomy.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	fields, err := s.fieldRepo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	category.Fields = fields

	return category, nil
}
