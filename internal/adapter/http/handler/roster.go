package handler

import (
	"net/http"
	"slices"

	"github.com/Temutjin2k/vendor-location-sync/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/internal/service/geo"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
	"github.com/Temutjin2k/vendor-location-sync/pkg/validator"
)

type RosterReader interface {
	Snapshot() []models.VendorPosition
	Get(vendorID int64) (models.VendorPosition, bool)
}

// ProximityReader reports whether a vendor is currently inside the
// viewer's notification radius.
type ProximityReader interface {
	Inside(vendorID int64) bool
}

type Roster struct {
	roster    RosterReader
	proximity ProximityReader
	l         logger.Logger
}

// NewRoster builds the roster handler. proximity may be nil, then vendor
// responses carry no nearby flag.
func NewRoster(roster RosterReader, proximity ProximityReader, l logger.Logger) *Roster {
	return &Roster{roster: roster, proximity: proximity, l: l}
}

// List godoc
// @Summary      Live vendor roster
// @Description  Returns the last known position of every active vendor. With lat and lng the list is sorted by distance and limited to radius meters.
// @Tags         Roster
// @Produce      json
// @Param        lat     query  number  false  "origin latitude"
// @Param        lng     query  number  false  "origin longitude"
// @Param        radius  query  number  false  "max distance in meters"
// @Success      200  {object}  map[string]any
// @Failure      422  {object}  map[string]any
// @Router       /roster [get]
func (h *Roster) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_roster")

	v := validator.New()
	near := dto.ParseNearQuery(r.URL.Query(), v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid roster query")
		failedValidationResponse(w, v.Errors)
		return
	}

	snapshot := h.roster.Snapshot()
	vendors := make([]dto.VendorResponse, 0, len(snapshot))
	for _, p := range snapshot {
		resp := dto.NewVendorResponse(p)
		if near.Set {
			d := geo.DistanceMeters(near.Origin.Latitude, near.Origin.Longitude, p.Lat, p.Lng)
			if d > near.Radius {
				continue
			}
			resp.Distance = &d
		}
		vendors = append(vendors, resp)
	}

	if near.Set {
		slices.SortFunc(vendors, func(a, b dto.VendorResponse) int {
			switch {
			case *a.Distance < *b.Distance:
				return -1
			case *a.Distance > *b.Distance:
				return 1
			default:
				return 0
			}
		})
	}

	response := envelope{
		"count":   len(vendors),
		"vendors": vendors,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

// Get godoc
// @Summary      Single vendor position
// @Description  Returns the last known position of one vendor and whether it is inside the notification radius.
// @Tags         Roster
// @Produce      json
// @Param        vendor_id  path  int  true  "vendor id"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /roster/{vendor_id} [get]
func (h *Roster) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_roster_vendor")

	id, err := vendorIDParam(r)
	if err != nil {
		h.l.Warn(ctx, "invalid vendor id", "vendor_id", r.PathValue("vendor_id"))
		badRequestResponse(w, err.Error())
		return
	}
	ctx = wrap.WithVendorID(ctx, id)

	p, ok := h.roster.Get(id)
	if !ok {
		h.l.Debug(ctx, "vendor not in roster")
		errorResponse(w, GetCode(types.ErrVendorNotInRoster), types.ErrVendorNotInRoster.Error())
		return
	}

	resp := dto.NewVendorResponse(p)
	if h.proximity != nil {
		nearby := h.proximity.Inside(id)
		resp.Nearby = &nearby
	}

	if err := writeJSON(w, http.StatusOK, envelope{"vendor": resp}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}
