package types

type TrialStatus string

const (
	TrialStatusActive  TrialStatus = "active"
	TrialStatusExpired TrialStatus = "expired"
	TrialStatusBanned  TrialStatus = "banned"
)

type AuthProvider string

const (
	AuthProviderGoogle    AuthProvider = "google"
	AuthProviderMicrosoft AuthProvider = "microsoft"
	AuthProviderApple     AuthProvider = "apple"
	AuthProviderUnknown   AuthProvider = "unknown"
)

// ParseAuthProvider maps free-form client input to a known provider.
func ParseAuthProvider(s string) AuthProvider {
	switch AuthProvider(s) {
	case AuthProviderGoogle, AuthProviderMicrosoft, AuthProviderApple:
		return AuthProvider(s)
	default:
		return AuthProviderUnknown
	}
}

type EventType string

const (
	EventTypeLaunch            EventType = "launch"
	EventTypeOfflineCheck      EventType = "offline_check"
	EventTypeServerPing        EventType = "server_ping"
	EventTypeRegistration      EventType = "registration"
	EventTypeTrialCheck        EventType = "trial_check"
	EventTypeOAuthLogin        EventType = "oauth_login"
	EventTypeEmailUpdated      EventType = "email_updated"
	EventTypeAnonymousDownload EventType = "anonymous_download"
	// EventTypeAdminAction audits admin device actions. The legacy service
	// logged these as server_ping; they get their own type here.
	EventTypeAdminAction EventType = "admin_action"
)

// ParseClientEventType maps a heartbeat-supplied event type to a known
// value. Clients may report launch or offline_check; anything else is
// recorded as a plain server_ping.
func ParseClientEventType(s string) EventType {
	switch EventType(s) {
	case EventTypeLaunch, EventTypeOfflineCheck:
		return EventType(s)
	default:
		return EventTypeServerPing
	}
}

type AlertType string

const (
	AlertTypeMultipleDevicesSameIP AlertType = "multiple_devices_same_ip"
	AlertTypeSuspiciousBehavior    AlertType = "suspicious_behavior"
)

type AlertSeverity string

const (
	AlertSeverityLow    AlertSeverity = "low"
	AlertSeverityMedium AlertSeverity = "medium"
	AlertSeverityHigh   AlertSeverity = "high"
)

type SubscriberStatus string

const (
	SubscriberStatusActive       SubscriberStatus = "active"
	SubscriberStatusUnsubscribed SubscriberStatus = "unsubscribed"
)
