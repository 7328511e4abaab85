package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/vendor-location-sync/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
	"github.com/Temutjin2k/vendor-location-sync/pkg/validator"
)

type PreferencesService interface {
	Favorites(ctx context.Context) ([]int64, error)
	AddFavorite(ctx context.Context, id int64) error
	RemoveFavorite(ctx context.Context, id int64) error
	NotificationSettings(ctx context.Context) (models.NotificationSettings, error)
	SetNotificationSettings(ctx context.Context, settings models.NotificationSettings) error
}

// SettingsRefresher re-reads notification settings after they change.
type SettingsRefresher interface {
	Refresh(ctx context.Context) error
}

type Preferences struct {
	service PreferencesService
	watcher SettingsRefresher
	l       logger.Logger
}

// NewPreferences builds the favorites and settings handler. watcher may be
// nil; then new settings only apply on the next start.
func NewPreferences(service PreferencesService, watcher SettingsRefresher, l logger.Logger) *Preferences {
	return &Preferences{service: service, watcher: watcher, l: l}
}

// ListFavorites godoc
// @Summary      Favorite vendors
// @Tags         Favorites
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /favorites [get]
func (h *Preferences) ListFavorites(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_favorites")

	ids, err := h.service.Favorites(ctx)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read favorites", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	h.writeFavorites(ctx, w, http.StatusOK, ids)
}

// AddFavorite godoc
// @Summary      Add a favorite vendor
// @Description  Proximity alerts are limited to favorites once the list is not empty
// @Tags         Favorites
// @Produce      json
// @Param        vendor_id  path  int  true  "vendor id"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Router       /favorites/{vendor_id} [post]
func (h *Preferences) AddFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "add_favorite")

	id, err := vendorIDParam(r)
	if err != nil {
		h.l.Warn(ctx, "invalid vendor id", "vendor_id", r.PathValue("vendor_id"))
		badRequestResponse(w, err.Error())
		return
	}
	ctx = wrap.WithVendorID(ctx, id)

	if err := h.service.AddFavorite(ctx, id); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to add favorite", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	h.listAfterChange(ctx, w)
	h.l.Info(ctx, "favorite added")
}

// RemoveFavorite godoc
// @Summary      Remove a favorite vendor
// @Tags         Favorites
// @Produce      json
// @Param        vendor_id  path  int  true  "vendor id"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Router       /favorites/{vendor_id} [delete]
func (h *Preferences) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "remove_favorite")

	id, err := vendorIDParam(r)
	if err != nil {
		h.l.Warn(ctx, "invalid vendor id", "vendor_id", r.PathValue("vendor_id"))
		badRequestResponse(w, err.Error())
		return
	}
	ctx = wrap.WithVendorID(ctx, id)

	if err := h.service.RemoveFavorite(ctx, id); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to remove favorite", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	h.listAfterChange(ctx, w)
	h.l.Info(ctx, "favorite removed")
}

func (h *Preferences) listAfterChange(ctx context.Context, w http.ResponseWriter) {
	ids, err := h.service.Favorites(ctx)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read favorites", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}
	h.writeFavorites(ctx, w, http.StatusOK, ids)
}

func (h *Preferences) writeFavorites(ctx context.Context, w http.ResponseWriter, status int, ids []int64) {
	if err := writeJSON(w, status, envelope{"favorites": ids}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// GetSettings godoc
// @Summary      Notification settings
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  models.NotificationSettings
// @Router       /settings/notifications [get]
func (h *Preferences) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_notification_settings")

	settings, err := h.service.NotificationSettings(ctx)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read notification settings", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"settings": settings}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// UpdateSettings godoc
// @Summary      Update notification settings
// @Description  Partial update. The proximity watcher restarts or stops to follow the new settings.
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        request  body  dto.UpdateSettingsRequest  true  "new settings"
// @Success      200  {object}  models.NotificationSettings
// @Failure      422  {object}  map[string]any
// @Router       /settings/notifications [put]
func (h *Preferences) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_notification_settings")

	var req dto.UpdateSettingsRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err.Error())
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	cur, err := h.service.NotificationSettings(ctx)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read notification settings", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	next := req.Apply(cur)
	if err := h.service.SetNotificationSettings(ctx, next); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to save notification settings", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if h.watcher != nil {
		if err := h.watcher.Refresh(ctx); err != nil {
			// settings are saved; the watcher retries on the next refresh
			h.l.Warn(ctx, "failed to refresh proximity watcher", "error", err.Error())
		}
	}

	if err := writeJSON(w, http.StatusOK, envelope{"settings": next}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "notification settings updated", "enabled", next.Enabled, "radius", next.Radius)
}
