package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/vendor-location-sync/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
	"github.com/Temutjin2k/vendor-location-sync/pkg/validator"
)

type SharingService interface {
	StartSharing(ctx context.Context, vendorID int64) error
	StopSharing(ctx context.Context) error
	IsSharing(ctx context.Context) (bool, error)
	Session() models.LocationSharingSession
}

type Sharing struct {
	service SharingService
	l       logger.Logger
}

func NewSharing(service SharingService, l logger.Logger) *Sharing {
	return &Sharing{service: service, l: l}
}

// Status godoc
// @Summary      Sharing status
// @Description  Current state of the location sharing session and the persisted sharing flag
// @Tags         Sharing
// @Produce      json
// @Success      200  {object}  dto.SessionResponse
// @Router       /sharing [get]
func (h *Sharing) Status(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "sharing_status")
	h.respond(ctx, w, http.StatusOK)
}

// Start godoc
// @Summary      Start sharing
// @Description  Starts broadcasting this device's position for the vendor. Starting an active session is a no-op.
// @Tags         Sharing
// @Accept       json
// @Produce      json
// @Param        request  body  dto.StartSharingRequest  true  "vendor to share as"
// @Success      200  {object}  dto.SessionResponse
// @Failure      403  {object}  map[string]any
// @Failure      422  {object}  map[string]any
// @Router       /sharing/start [post]
func (h *Sharing) Start(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionStartSharing)

	var req dto.StartSharingRequest
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

	if err := h.service.StartSharing(ctx, req.VendorID); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to start sharing", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	h.respond(ctx, w, http.StatusOK)
}

// Stop godoc
// @Summary      Stop sharing
// @Description  Ends the sharing session. Stopping an idle session only clears the persisted flag.
// @Tags         Sharing
// @Produce      json
// @Success      200  {object}  dto.SessionResponse
// @Router       /sharing/stop [post]
func (h *Sharing) Stop(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionStopSharing)

	if err := h.service.StopSharing(ctx); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to stop sharing", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	h.respond(ctx, w, http.StatusOK)
}

func (h *Sharing) respond(ctx context.Context, w http.ResponseWriter, status int) {
	persisted, err := h.service.IsSharing(ctx)
	if err != nil {
		h.l.Warn(ctx, "failed to read sharing flag", "error", err.Error())
	}

	resp := dto.NewSessionResponse(h.service.Session(), persisted)
	if err := writeJSON(w, status, envelope{"sharing": resp}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}
