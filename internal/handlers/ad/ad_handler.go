// internal/handlers/ad/ad_handler.go
package ad

import (
	"net/http"
	"strconv"

	domain "sooq-service/internal/domain/ad"
	"sooq-service/internal/middleware"
	xerrors "sooq-service/internal/pkg/errors"
	"sooq-service/internal/pkg/response"
	adservice "sooq-service/internal/service/ad"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdHandler struct {
	adService *adservice.AdService
	logger    *zap.Logger
}

func NewAdHandler(adService *adservice.AdService, logger *zap.Logger) *AdHandler {
	return &AdHandler{adService: adService, logger: logger}
}

// Create handles POST /api/v1/ads
func (h *AdHandler) Create(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req domain.CreateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	ad, err := h.adService.CreateAd(c.Request.Context(), userID, &req)
	if err != nil {
		h.respondError(c, err, "failed to create ad")
		return
	}

	response.Success(c, http.StatusCreated, "ad created", ad)
}

// Update handles PUT /api/v1/ads/:id
func (h *AdHandler) Update(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	adID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid ad id", err)
		return
	}

	var req domain.UpdateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	ad, err := h.adService.UpdateAd(c.Request.Context(), adID, userID, &req)
	if err != nil {
		h.respondError(c, err, "failed to update ad")
		return
	}

	response.Success(c, http.StatusOK, "ad updated", ad)
}

// Get handles GET /api/v1/ads/:id
func (h *AdHandler) Get(c *gin.Context) {
	adID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid ad id", err)
		return
	}

	ad, err := h.adService.GetAd(c.Request.Context(), adID)
	if err != nil {
		h.respondError(c, err, "failed to get ad")
		return
	}

	response.Success(c, http.StatusOK, "ad retrieved", ad)
}

// List handles GET /api/v1/ads
func (h *AdHandler) List(c *gin.Context) {
	filters := &domain.ListFilters{
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "per_page", 20),
	}

	if raw := c.Query("category_id"); raw != "" {
		if categoryID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filters.CategoryID = &categoryID
		}
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.AdStatus(raw)
		if status.IsValid() {
			filters.Status = &status
		}
	}

	list, err := h.adService.ListAds(c.Request.Context(), filters)
	if err != nil {
		h.respondError(c, err, "failed to list ads")
		return
	}

	response.Success(c, http.StatusOK, "ads retrieved", list)
}

// MyAds handles GET /api/v1/my-ads
func (h *AdHandler) MyAds(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	filters := &domain.ListFilters{
		UserID:   &userID,
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "per_page", 15),
	}

	list, err := h.adService.ListAds(c.Request.Context(), filters)
	if err != nil {
		h.respondError(c, err, "failed to list ads")
		return
	}

	response.Success(c, http.StatusOK, "ads retrieved", list)
}

// Delete handles DELETE /api/v1/ads/:id
func (h *AdHandler) Delete(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	adID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid ad id", err)
		return
	}

	if err := h.adService.DeleteAd(c.Request.Context(), adID, userID); err != nil {
		h.respondError(c, err, "failed to delete ad")
		return
	}

	response.Success(c, http.StatusOK, "ad deleted", nil)
}

func (h *AdHandler) respondError(c *gin.Context, err error, message string) {
	if ve, ok := xerrors.AsValidation(err); ok {
		response.ValidationFailed(c, ve.Fields)
		return
	}

	switch {
	case xerrors.Is(err, xerrors.ErrNotFound):
		response.NotFound(c, "ad not found")
	case xerrors.Is(err, xerrors.ErrForbidden):
		response.Forbidden(c, "you are not allowed to modify this ad")
	default:
		h.logger.Error(message, zap.Error(err))
		response.Error(c, http.StatusInternalServerError, message, nil)
	}
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
