package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/appstore-dev/appstore/internal/registry/detail"
	"github.com/appstore-dev/appstore/internal/registry/health"
	"github.com/appstore-dev/appstore/internal/registry/recordstore"
	servicetesting "github.com/appstore-dev/appstore/internal/registry/service/testing"
	"github.com/appstore-dev/appstore/pkg/models"
)

func stubRegistry() *servicetesting.FakeRegistry {
	reg := servicetesting.NewFakeRegistry()
	reg.Applications = []*models.Application{
		{ID: "app-2", Name: servicetesting.Str("zeta")},
		{ID: "app-1", Name: servicetesting.Str("alpha")},
	}
	reg.Deployments["app-1"] = []*models.Deployment{
		{ID: "d1", ApplicationID: "app-1", URL: servicetesting.Str("https://alpha.test")},
		{ID: "d2", ApplicationID: "app-1"},
	}
	return reg
}

func TestExportToPath_WritesJSONSnapshot(t *testing.T) {
	reg := stubRegistry()
	engine := health.NewEngine(health.CheckerFunc(func(context.Context, string) health.Result {
		return health.Result{Status: models.HealthHealthy, StatusCode: 200}
	}), health.WithLogger(zap.NewNop()))
	service := NewService(reg, detail.NewLoader(reg, engine))

	outputPath := filepath.Join(t.TempDir(), "nested", "snapshot.json")
	count, err := service.ExportToPath(context.Background(), outputPath)
	if err != nil {
		t.Fatalf("ExportToPath returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 applications to be exported, got %d", count)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read export file: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("failed to unmarshal export file: %v", err)
	}

	if snap.Applications[0].Application.ID != "app-1" || snap.Applications[1].Application.ID != "app-2" {
		t.Fatalf("applications not ordered by name: %+v", snap.Applications)
	}
	rows := snap.Applications[0].Deployments
	if len(rows) != 2 || rows[0].Status != models.HealthHealthy || rows[1].Status != models.HealthNoTarget {
		t.Fatalf("unexpected deployment rows: %+v", rows)
	}
	if !snap.Applications[0].Resolved {
		t.Fatal("expected probed applications to be resolved")
	}
}

func TestExportToPath_YAMLWithoutProbing(t *testing.T) {
	service := NewService(stubRegistry(), nil)

	outputPath := filepath.Join(t.TempDir(), "snapshot.yaml")
	if _, err := service.ExportToPath(context.Background(), outputPath); err != nil {
		t.Fatalf("ExportToPath returned error: %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read export file: %v", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		t.Fatalf("failed to unmarshal YAML export: %v", err)
	}
	rows := snap.Applications[0].Deployments
	for _, row := range rows {
		if row.Status != models.HealthUnknown {
			t.Fatalf("expected unknown status without probing, got %s", row.Status)
		}
	}
	if snap.Applications[0].Resolved {
		t.Fatal("unprobed applications must not be marked resolved")
	}
}

func TestExportToPath_PropagatesQueryError(t *testing.T) {
	reg := stubRegistry()
	reg.FetchDeploymentsFn = func(context.Context, string) ([]*models.Deployment, error) {
		return nil, &recordstore.QueryError{Op: "queryRecords", Err: errors.New("boom")}
	}
	service := NewService(reg, nil)

	_, err := service.ExportToPath(context.Background(), filepath.Join(t.TempDir(), "out.json"))
	if !errors.Is(err, recordstore.ErrQuery) {
		t.Fatalf("expected a query error, got %v", err)
	}
}

func TestMarshal_UnsupportedFormat(t *testing.T) {
	if _, err := Marshal(&Snapshot{}, "toml"); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}
