package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/appstore-dev/appstore/internal/registry/catalog"
	"github.com/appstore-dev/appstore/internal/registry/detail"
	"github.com/appstore-dev/appstore/internal/registry/service"
	"github.com/appstore-dev/appstore/pkg/models"
)

// Snapshot is the exported view of the registry.
type Snapshot struct {
	GeneratedAt  time.Time                  `json:"generatedAt"`
	Applications []models.ApplicationDetail `json:"applications"`
}

// Service exports applications with their deployments into snapshot files.
type Service struct {
	registryService service.RegistryService
	loader          *detail.Loader
}

// NewService creates a new exporter service. When loader is nil deployments
// are exported without probing and every row reports unknown.
func NewService(registryService service.RegistryService, loader *detail.Loader) *Service {
	return &Service{
		registryService: registryService,
		loader:          loader,
	}
}

// Collect builds a snapshot of every application, ordered by name.
func (s *Service) Collect(ctx context.Context) (*Snapshot, error) {
	if s.registryService == nil {
		return nil, fmt.Errorf("registry service is not initialized")
	}

	apps, err := s.registryService.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	apps = catalog.Sort(apps, catalog.SortByName, catalog.Ascending)

	snap := &Snapshot{
		GeneratedAt:  time.Now().UTC(),
		Applications: make([]models.ApplicationDetail, 0, len(apps)),
	}
	for _, app := range apps {
		view, err := s.collectApplication(ctx, app)
		if err != nil {
			return nil, fmt.Errorf("failed to export application %s: %w", app.ID, err)
		}
		snap.Applications = append(snap.Applications, *view)
	}
	return snap, nil
}

func (s *Service) collectApplication(ctx context.Context, app *models.Application) (*models.ApplicationDetail, error) {
	if s.loader != nil {
		cycle, err := s.loader.Load(ctx, app)
		if err != nil {
			return nil, err
		}
		defer cycle.Cancel()
		return cycle.Wait(ctx)
	}

	deployments, err := s.registryService.FetchDeployments(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	rows := make([]models.DeploymentHealth, 0, len(deployments))
	for _, d := range deployments {
		rows = append(rows, models.DeploymentHealth{Deployment: *d, Status: models.HealthUnknown})
	}
	return &models.ApplicationDetail{Application: *app, Deployments: rows}, nil
}

// ExportToPath writes a snapshot to outputPath and returns the number of
// applications exported. Files ending in .yaml or .yml are written as YAML,
// everything else as JSON.
func (s *Service) ExportToPath(ctx context.Context, outputPath string) (int, error) {
	snap, err := s.Collect(ctx)
	if err != nil {
		return 0, err
	}

	data, err := Marshal(snap, formatFor(outputPath))
	if err != nil {
		return 0, err
	}

	if err := ensureDir(outputPath); err != nil {
		return 0, err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write export file %s: %w", outputPath, err)
	}
	return len(snap.Applications), nil
}

// Marshal encodes snap as "json" or "yaml".
func Marshal(snap *Snapshot, format string) ([]byte, error) {
	switch format {
	case "yaml":
		data, err := yaml.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot as YAML: %w", err)
		}
		return data, nil
	case "json", "":
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot as JSON: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func formatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

func ensureDir(outputPath string) error {
	dir := filepath.Dir(outputPath)
	if dir == "" || dir == "." {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory %s: %w", dir, err)
	}

	return nil
}
