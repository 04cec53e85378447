package wlsystem

const (
	// Base URL
	DefaultBaseURL = "https://wl-system.liftingsocial.lk"

	// API Endpoints
	EventsEndpoint            = "/api/events"
	SyncStatusEndpoint        = "/api/wl-system/sync/status/%s"
	ScoreboardEndpoint        = "/api/wl-system/scoreboard/%s"
	SyncRegistrationsEndpoint = "/api/wl-system/sync/registrations"
	RegistrationsEndpoint     = "/api/admin/events/%s/registrations"

	// Headers
	AuthorizationHeader = "Authorization"
)
