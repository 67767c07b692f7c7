package models

import "time"

// HealthCheckJobStatus is the state of an asynchronous health check.
type HealthCheckJobStatus string

const (
	HealthCheckPending   HealthCheckJobStatus = "pending"
	HealthCheckCompleted HealthCheckJobStatus = "completed"
	HealthCheckCancelled HealthCheckJobStatus = "cancelled"
)

// HealthCheckJob reports an asynchronous health check of one application.
// Detail carries the pending view until the pass resolves, then the resolved
// view. A cancelled job carries no detail.
type HealthCheckJob struct {
	ID            string               `json:"id"`
	ApplicationID string               `json:"applicationId"`
	Status        HealthCheckJobStatus `json:"status"`
	CreatedAt     time.Time            `json:"createdAt"`
	FinishedAt    *time.Time           `json:"finishedAt,omitempty"`
	Error         string               `json:"error,omitempty"`
	Detail        *ApplicationDetail   `json:"detail,omitempty"`
}
