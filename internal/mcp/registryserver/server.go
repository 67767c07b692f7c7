package registryserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/appstore-dev/appstore/internal/registry/catalog"
	"github.com/appstore-dev/appstore/internal/registry/detail"
	"github.com/appstore-dev/appstore/internal/registry/service"
	"github.com/appstore-dev/appstore/internal/version"
	"github.com/appstore-dev/appstore/pkg/models"
)

const (
	defaultPageLimit = 30
	maxPageLimit     = 100
)

// NewServer constructs an MCP server exposing read-only App Store tools backed
// by the registry service. check_application_health runs a health-check pass
// through loader.
func NewServer(registry service.RegistryService, loader *detail.Loader) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "appstore-mcp",
		Version: version.Version,
	}, &mcp.ServerOptions{
		HasTools: true,
	})

	addApplicationTools(server, registry)
	addHealthTools(server, loader)
	addMetaTools(server)

	return server
}

type listApplicationsArgs struct {
	Search string `json:"search,omitempty" jsonschema:"case-insensitive substring matched against attribute values"`
	Sort   string `json:"sort,omitempty" jsonschema:"name, app_type, createTime or expiryTime"`
	Order  string `json:"order,omitempty" jsonschema:"asc or desc"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of applications to return"`
}

type applicationArgs struct {
	ID string `json:"id" jsonschema:"application record ID"`
}

func addApplicationTools(server *mcp.Server, registry service.RegistryService) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_applications",
		Description: "List applications published to the registry with optional search and sorting",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args listApplicationsArgs) (*mcp.CallToolResult, models.ApplicationList, error) {
		key, err := catalog.ParseSortKey(args.Sort)
		if err != nil {
			return nil, models.ApplicationList{}, err
		}
		order, err := catalog.ParseOrder(args.Order)
		if err != nil {
			return nil, models.ApplicationList{}, err
		}

		apps, err := registry.ListApplications(ctx)
		if err != nil {
			return nil, models.ApplicationList{}, err
		}
		apps = catalog.Query{Search: args.Search, Key: key, Order: order}.Apply(apps)
		if limit := clampLimit(args.Limit); len(apps) > limit {
			apps = apps[:limit]
		}

		out := models.ApplicationList{Applications: make([]models.Application, len(apps)), Count: len(apps)}
		for i, a := range apps {
			out.Applications[i] = *a
		}
		return nil, out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_application",
		Description: "Fetch one application record by ID",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args applicationArgs) (*mcp.CallToolResult, models.Application, error) {
		if args.ID == "" {
			return nil, models.Application{}, fmt.Errorf("id is required")
		}
		app, err := registry.GetApplication(ctx, args.ID)
		if err != nil {
			return nil, models.Application{}, err
		}
		return nil, *app, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_deployments",
		Description: "List the deployments of one application without checking their health",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args applicationArgs) (*mcp.CallToolResult, models.DeploymentList, error) {
		if args.ID == "" {
			return nil, models.DeploymentList{}, fmt.Errorf("id is required")
		}
		deployments, err := registry.FetchDeployments(ctx, args.ID)
		if err != nil {
			return nil, models.DeploymentList{}, err
		}
		out := models.DeploymentList{Deployments: make([]models.Deployment, len(deployments)), Count: len(deployments)}
		for i, d := range deployments {
			out.Deployments[i] = *d
		}
		return nil, out, nil
	})
}

func addHealthTools(server *mcp.Server, loader *detail.Loader) {
	if loader == nil {
		return
	}
	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_application_health",
		Description: "Probe every deployment URL of an application once and report each deployment's reachability",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args applicationArgs) (*mcp.CallToolResult, models.ApplicationDetail, error) {
		if args.ID == "" {
			return nil, models.ApplicationDetail{}, fmt.Errorf("id is required")
		}
		cycle, err := loader.LoadByID(ctx, args.ID)
		if err != nil {
			return nil, models.ApplicationDetail{}, err
		}
		defer cycle.Cancel()

		view, err := cycle.Wait(ctx)
		if err != nil {
			return nil, models.ApplicationDetail{}, err
		}
		return nil, *view, nil
	})
}

func addMetaTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "appstore_version",
		Description: "Return App Store build metadata",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, map[string]string, error) {
		return nil, map[string]string{
			"version":    version.Version,
			"gitCommit":  version.GitCommit,
			"buildDate":  version.BuildDate,
			"serverName": "appstore-mcp",
		}, nil
	})
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}
