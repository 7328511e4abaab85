package types

type ServiceMode string

// Vendor - broadcasts this device's position while the vendor shares it
// Viewer - keeps the live roster and raises proximity alerts
// Both - runs both roles in one process
const (
	VendorMode ServiceMode = "vendor"
	ViewerMode ServiceMode = "viewer"
	BothMode   ServiceMode = "both"
)

func (m ServiceMode) RunsVendor() bool {
	return m == VendorMode || m == BothMode
}

func (m ServiceMode) RunsViewer() bool {
	return m == ViewerMode || m == BothMode
}

// SessionStatus of the location sharing state machine
type SessionStatus string

func (s SessionStatus) String() string {
	return string(s)
}

const (
	StatusIdle     SessionStatus = "IDLE"
	StatusStarting SessionStatus = "STARTING"
	StatusSharing  SessionStatus = "SHARING"
	StatusStopping SessionStatus = "STOPPING"
)

// Active reports whether the session holds the device (Starting or Sharing).
func (s SessionStatus) Active() bool {
	return s == StatusStarting || s == StatusSharing
}

// BusState of the location bus connection
type BusState string

const (
	BusDisconnected BusState = "DISCONNECTED"
	BusConnecting   BusState = "CONNECTING"
	BusConnected    BusState = "CONNECTED"
)

// Backend route endpoints, used as metric/log labels
const (
	EndpointRouteStart = "route_start"
	EndpointRouteStop  = "route_stop"
	EndpointLocation   = "location"
	EndpointVendors    = "vendors"
)
