package models

// HealthStatus is the reachability classification of a deployment.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthUnknown   HealthStatus = "unknown"   // not probed yet, or probe in flight
	HealthNoTarget  HealthStatus = "no_target" // deployment has no URL
)

// Label returns the human readable form of the status.
func (s HealthStatus) Label() string {
	switch s {
	case HealthHealthy:
		return "Healthy"
	case HealthUnhealthy:
		return "Unhealthy"
	case HealthNoTarget:
		return "No URL available"
	default:
		return "Unknown"
	}
}

// Glyph returns a one-character marker for tables and terminals.
func (s HealthStatus) Glyph() string {
	switch s {
	case HealthHealthy:
		return "✓"
	case HealthUnhealthy:
		return "✗"
	case HealthNoTarget:
		return "-"
	default:
		return "?"
	}
}

// Final reports whether s is a terminal status for a load cycle.
func (s HealthStatus) Final() bool {
	return s == HealthHealthy || s == HealthUnhealthy || s == HealthNoTarget
}
