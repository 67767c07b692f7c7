package service

import (
	"github.com/appstore-dev/appstore/internal/registry/records"
	"github.com/appstore-dev/appstore/pkg/models"
)

func field(r *records.Record, key string) *string {
	if v, ok := records.ProjectField(r, key); ok {
		return &v
	}
	return nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ProjectApplication converts an ApplicationRecord into its typed view.
func ProjectApplication(r *records.Record) *models.Application {
	app := &models.Application{
		ID:            r.ID,
		Names:         r.Names,
		Owners:        r.Owners,
		Name:          field(r, records.KeyName),
		AppType:       field(r, records.KeyAppType),
		Version:       field(r, records.KeyVersion),
		AppVersion:    field(r, records.KeyAppVersion),
		Repository:    field(r, records.KeyRepository),
		RepositoryRef: field(r, records.KeyRepositoryRef),
		BondID:        nonEmpty(r.BondID),
		CreateTime:    nonEmpty(r.CreateTime),
		ExpiryTime:    nonEmpty(r.ExpiryTime),
		Attributes:    map[string]string{},
		Values:        records.StringValues(r),
	}
	for _, attr := range r.Attributes {
		if _, seen := app.Attributes[attr.Key]; seen {
			continue
		}
		if v, ok := attr.Value.AsString(); ok {
			app.Attributes[attr.Key] = v
		}
	}
	return app
}

// ProjectDeployment converts an ApplicationDeploymentRecord into its typed view.
func ProjectDeployment(r *records.Record, applicationID string) *models.Deployment {
	d := &models.Deployment{
		ID:            r.ID,
		ApplicationID: applicationID,
		Name:          field(r, records.KeyName),
		URL:           field(r, records.KeyURL),
		BondID:        nonEmpty(r.BondID),
		CreateTime:    nonEmpty(r.CreateTime),
		ExpiryTime:    nonEmpty(r.ExpiryTime),
	}
	if d.Name == nil && len(r.Names) > 0 {
		name := r.Names[0]
		d.Name = &name
	}
	return d
}
