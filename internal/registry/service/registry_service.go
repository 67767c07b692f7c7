package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/appstore-dev/appstore/internal/registry/logging"
	"github.com/appstore-dev/appstore/internal/registry/recordstore"
	"github.com/appstore-dev/appstore/internal/registry/records"
	"github.com/appstore-dev/appstore/pkg/models"
)

// registryServiceImpl implements RegistryService on top of a record store.
type registryServiceImpl struct {
	store  recordstore.Store
	logger *zap.Logger
}

// NewRegistryService creates a registry service reading from store.
func NewRegistryService(store recordstore.Store) RegistryService {
	return &registryServiceImpl{
		store:  store,
		logger: logging.NewLogger("service"),
	}
}

// ListApplications queries every ApplicationRecord.
func (s *registryServiceImpl) ListApplications(ctx context.Context) ([]*models.Application, error) {
	recs, err := s.store.QueryRecords(ctx, []records.Predicate{records.TypeIs(records.TypeApplication)})
	if err != nil {
		return nil, err
	}
	apps := make([]*models.Application, 0, len(recs))
	for _, r := range recs {
		apps = append(apps, ProjectApplication(r))
	}
	return apps, nil
}

// GetApplication looks an application up by record ID.
func (s *registryServiceImpl) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	recs, err := s.store.GetRecordsByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		if r.ID != id {
			continue
		}
		if t, ok := records.ProjectField(r, records.KeyType); !ok || t != records.TypeApplication {
			return nil, fmt.Errorf("record %s is not an %s: %w", id, records.TypeApplication, ErrApplicationNotFound)
		}
		return ProjectApplication(r), nil
	}
	return nil, fmt.Errorf("record %s: %w", id, ErrApplicationNotFound)
}

// FetchDeployments issues exactly one query filtered by record type and the
// owning application. Failures are returned as *recordstore.QueryError.
func (s *registryServiceImpl) FetchDeployments(ctx context.Context, applicationID string) ([]*models.Deployment, error) {
	start := time.Now()
	recs, err := s.store.QueryRecords(ctx, []records.Predicate{
		records.TypeIs(records.TypeApplicationDeployment),
		{Key: records.KeyApplication, Value: applicationID},
	})
	if err != nil {
		return nil, err
	}

	deployments := make([]*models.Deployment, 0, len(recs))
	for _, r := range recs {
		deployments = append(deployments, ProjectDeployment(r, applicationID))
	}
	logging.WithRequestID(ctx, s.logger).Debug("fetched deployments",
		zap.String("application_id", applicationID),
		zap.Int("count", len(deployments)),
		zap.Duration("duration", time.Since(start)))
	return deployments, nil
}
