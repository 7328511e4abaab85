package types

const (
	ActionBusConnecting   = "bus_connecting"
	ActionBusConnected    = "bus_connected"
	ActionBusDisconnected = "bus_disconnected"
	ActionBusReconnect    = "bus_reconnect_scheduled"
	ActionBusMessage      = "bus_message"
	ActionBusDispatch     = "bus_dispatch"

	ActionRosterSeed = "roster_seed"

	ActionStartSharing = "start_sharing"
	ActionStopSharing  = "stop_sharing"
	ActionLocationPush = "location_push"
	ActionRouteCall    = "route_call"

	ActionProximityWatch  = "proximity_watch"
	ActionProximityNotify = "proximity_notify"

	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitConnectionClosed  = "rabbitmq_connection_closed"
	ActionRabbitConnectionClosing = "rabbitmq_connection_closing"
	ActionRabbitReconnected       = "rabbitmq_reconnection_success"

	ActionDatabaseTransactionFailed = "database_transaction_failed"
	ActionExternalServiceFailed     = "external_service_failed"
)
