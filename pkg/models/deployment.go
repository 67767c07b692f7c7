package models

// Deployment is one running instance of an application, projected from an
// ApplicationDeploymentRecord.
type Deployment struct {
	ID            string  `json:"id"`
	ApplicationID string  `json:"applicationId"`
	Name          *string `json:"name,omitempty"`
	URL           *string `json:"url,omitempty"` // reachability target; nil means never probed
	BondID        *string `json:"bondId,omitempty"`
	CreateTime    *string `json:"createTime,omitempty"`
	ExpiryTime    *string `json:"expiryTime,omitempty"`
}

// HasTarget reports whether the deployment carries a non-empty URL.
func (d *Deployment) HasTarget() bool {
	return d != nil && d.URL != nil && *d.URL != ""
}

// DeploymentHealth pairs a deployment with its status for one load cycle.
type DeploymentHealth struct {
	Deployment
	Status HealthStatus `json:"status"`
}

// ProbeResult carries the diagnostics of a single probe.
type ProbeResult struct {
	URL        string       `json:"url"`
	Status     HealthStatus `json:"status"`
	StatusCode int          `json:"statusCode,omitempty"`
	LatencyMS  int64        `json:"latencyMs"`
	Error      string       `json:"error,omitempty"`
}

// DeploymentList is the deployments endpoint response body.
type DeploymentList struct {
	Deployments []Deployment `json:"deployments"`
	Count       int          `json:"count"`
}
