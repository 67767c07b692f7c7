// Package testing provides test utilities for the registry service.
package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/appstore-dev/appstore/internal/registry/service"
	"github.com/appstore-dev/appstore/pkg/models"
)

// FakeRegistry is a configurable fake implementation of service.RegistryService for testing.
// It supports both data-driven setup via struct fields and function hooks for custom behavior.
type FakeRegistry struct {
	mu sync.Mutex

	// Data fields for simple data-driven tests
	Applications []*models.Application
	// Deployments keyed by application ID
	Deployments map[string][]*models.Deployment

	// Call counters for verification
	FetchDeploymentsCalls int

	// Function hooks for custom behavior (take precedence over data fields when set)
	ListApplicationsFn func(ctx context.Context) ([]*models.Application, error)
	GetApplicationFn   func(ctx context.Context, id string) (*models.Application, error)
	FetchDeploymentsFn func(ctx context.Context, applicationID string) ([]*models.Deployment, error)
}

// NewFakeRegistry creates a new FakeRegistry with initialized maps.
func NewFakeRegistry() *FakeRegistry {
	return &FakeRegistry{
		Deployments: make(map[string][]*models.Deployment),
	}
}

var _ service.RegistryService = (*FakeRegistry)(nil)

func (f *FakeRegistry) ListApplications(ctx context.Context) ([]*models.Application, error) {
	if f.ListApplicationsFn != nil {
		return f.ListApplicationsFn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Applications, nil
}

func (f *FakeRegistry) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	if f.GetApplicationFn != nil {
		return f.GetApplicationFn(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, app := range f.Applications {
		if app.ID == id {
			return app, nil
		}
	}
	return nil, fmt.Errorf("record %s: %w", id, service.ErrApplicationNotFound)
}

func (f *FakeRegistry) FetchDeployments(ctx context.Context, applicationID string) ([]*models.Deployment, error) {
	f.mu.Lock()
	f.FetchDeploymentsCalls++
	f.mu.Unlock()
	if f.FetchDeploymentsFn != nil {
		return f.FetchDeploymentsFn(ctx, applicationID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Deployments[applicationID], nil
}

// Str returns a pointer to s, for building optional model fields.
func Str(s string) *string { return &s }
