package models

// NotAvailable is shown in place of any absent field.
const NotAvailable = "N/A"

// Application is the typed view of an ApplicationRecord. Optional fields are
// nil when the record does not carry a string value for them.
type Application struct {
	ID            string   `json:"id"`
	Names         []string `json:"names,omitempty"`
	Owners        []string `json:"owners,omitempty"`
	Name          *string  `json:"name,omitempty"`
	AppType       *string  `json:"appType,omitempty"`
	Version       *string  `json:"version,omitempty"`
	AppVersion    *string  `json:"appVersion,omitempty"`
	Repository    *string  `json:"repository,omitempty"`
	RepositoryRef *string  `json:"repositoryRef,omitempty"`
	BondID        *string  `json:"bondId,omitempty"`
	CreateTime    *string  `json:"createTime,omitempty"`
	ExpiryTime    *string  `json:"expiryTime,omitempty"`

	// Attributes holds every string-typed attribute, first value per key.
	Attributes map[string]string `json:"attributes,omitempty"`

	// Values holds every string-typed attribute value in record order,
	// repeated keys included.
	Values []string `json:"-"`
}

// ApplicationDetail is the detail view of one application. While Resolved is
// false every deployment reports HealthUnknown.
type ApplicationDetail struct {
	Application Application        `json:"application"`
	Deployments []DeploymentHealth `json:"deployments"`
	Probes      []ProbeResult      `json:"probes,omitempty"`
	Resolved    bool               `json:"resolved"`
}

// OrNA dereferences s, substituting NotAvailable when s is nil or empty.
func OrNA(s *string) string {
	if s == nil || *s == "" {
		return NotAvailable
	}
	return *s
}

// ApplicationList is the list endpoint response body.
type ApplicationList struct {
	Applications []Application `json:"applications"`
	Count        int           `json:"count"`
}
