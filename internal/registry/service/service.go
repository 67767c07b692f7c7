package service

import (
	"context"
	"errors"

	"github.com/appstore-dev/appstore/pkg/models"
)

// ErrApplicationNotFound is returned when no ApplicationRecord has the requested ID.
var ErrApplicationNotFound = errors.New("application not found")

// RegistryService defines the read operations over the application registry.
// Every call queries the record store; nothing is cached.
type RegistryService interface {
	// ListApplications retrieves every ApplicationRecord
	ListApplications(ctx context.Context) ([]*models.Application, error)
	// GetApplication retrieves one application by record ID
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	// FetchDeployments retrieves the ApplicationDeploymentRecords of an application
	FetchDeployments(ctx context.Context, applicationID string) ([]*models.Deployment, error)
}
