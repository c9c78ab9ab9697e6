// internal/handlers/taxonomy/taxonomy_handler.go
package taxonomy

import (
	"net/http"
	"strconv"

	"sooq-service/internal/domain/taxonomy"
	xerrors "sooq-service/internal/pkg/errors"
	"sooq-service/internal/pkg/response"
	taxservice "sooq-service/internal/service/taxonomy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TaxonomyHandler struct {
	taxonomyService *taxservice.TaxonomyService
	syncService     *taxservice.SyncService
	logger          *zap.Logger
}

func NewTaxonomyHandler(taxonomyService *taxservice.TaxonomyService, syncService *taxservice.SyncService, logger *zap.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{
		taxonomyService: taxonomyService,
		syncService:     syncService,
		logger:          logger,
	}
}

// ListCategories handles GET /api/v1/categories
func (h *TaxonomyHandler) ListCategories(c *gin.Context) {
	categories, err := h.taxonomyService.ListCategories(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list categories", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to list categories", nil)
		return
	}

	response.Success(c, http.StatusOK, "categories retrieved", categories)
}

// GetCategoryFields handles GET /api/v1/categories/:id/fields
func (h *TaxonomyHandler) GetCategoryFields(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid category id", err)
		return
	}

	category, err := h.taxonomyService.GetCategorySchema(c.Request.Context(), categoryID)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "category not found")
			return
		}
		h.logger.Error("failed to get category schema", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to get category schema", nil)
		return
	}

	response.Success(c, http.StatusOK, "category retrieved", category)
}

// Sync handles POST /api/v1/taxonomy/sync
func (h *TaxonomyHandler) Sync(c *gin.Context) {
	force := c.Query("force") == "true" || c.Query("force") == "1"

	var req taxonomy.SyncRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.Force {
		force = true
	}

	stats, err := h.syncService.SyncAll(c.Request.Context(), force)
	if err != nil {
		h.logger.Error("taxonomy sync failed", zap.Error(err))
		response.Error(c, http.StatusBadGateway, "taxonomy sync failed", err)
		return
	}

	response.Success(c, http.StatusOK, "taxonomy synchronized", stats)
}
