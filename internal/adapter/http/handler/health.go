package handler

import (
	"net/http"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
)

// BusStater reports the live connection state of the location bus.
type BusStater interface {
	State() types.BusState
	SubscriberCount() int
}

type Health struct {
	serviceName string
	mode        types.ServiceMode
	bus         BusStater
	log         logger.Logger
}

// NewHealth builds the health handler. bus may be nil when this process
// does not run the viewer role.
func NewHealth(serviceName string, mode types.ServiceMode, bus BusStater, log logger.Logger) *Health {
	return &Health{
		serviceName: serviceName,
		mode:        mode,
		bus:         bus,
		log:         log,
	}
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Returns the health status of the service
// @Tags         Health
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /health [get]
func (a *Health) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "health_check")

	info := map[string]any{
		"service-name": a.serviceName,
		"mode":         string(a.mode),
	}
	if a.bus != nil {
		info["location-bus"] = string(a.bus.State())
		info["bus-subscribers"] = a.bus.SubscriberCount()
	}

	response := envelope{
		"status":      "available",
		"system_info": info,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		a.log.Error(ctx, "healthcheck", err)
		return
	}
}
