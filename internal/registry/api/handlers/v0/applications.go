package v0

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/appstore-dev/appstore/internal/registry/catalog"
	"github.com/appstore-dev/appstore/internal/registry/detail"
	"github.com/appstore-dev/appstore/internal/registry/recordstore"
	"github.com/appstore-dev/appstore/internal/registry/service"
	"github.com/appstore-dev/appstore/pkg/models"
	"github.com/appstore-dev/appstore/pkg/types"
)

// ApplicationListInput represents query parameters for listing applications
type ApplicationListInput struct {
	Sort   string `query:"sort" json:"sort,omitempty" doc:"Sort column: name, app_type, createTime or expiryTime" example:"name"`
	Order  string `query:"order" json:"order,omitempty" doc:"Sort direction: asc or desc" example:"asc"`
	Search string `query:"search" json:"search,omitempty" doc:"Case-insensitive substring filter over attribute values" example:"webapp"`
}

// ApplicationByIDInput represents the application path parameter
type ApplicationByIDInput struct {
	ID string `path:"id" json:"id" doc:"Application record ID" example:"bafyreihqgzxy3lsm5dbyfk7ekhzxdv3o6scmy3qvgnkqpdw2ivqxbpkd3u"`
}

// registryError maps service and record store failures to API errors.
func registryError(err error, action string) error {
	switch {
	case errors.Is(err, service.ErrApplicationNotFound):
		return huma.Error404NotFound("Application not found")
	case errors.Is(err, recordstore.ErrQuery):
		return huma.Error502BadGateway("Failed to query the registry", err)
	case errors.Is(err, detail.ErrCancelled), errors.Is(err, context.DeadlineExceeded):
		return huma.Error504GatewayTimeout("Health check did not complete", err)
	default:
		return huma.Error500InternalServerError("Failed to "+action, err)
	}
}

// RegisterApplicationsEndpoints registers the application list and detail endpoints
func RegisterApplicationsEndpoints(api huma.API, pathPrefix string, registry service.RegistryService, loader *detail.Loader) {
	huma.Register(api, huma.Operation{
		OperationID: "list-applications" + operationSuffix(pathPrefix),
		Method:      http.MethodGet,
		Path:        pathPrefix + "/applications",
		Summary:     "List applications",
		Description: "Lists every ApplicationRecord in the registry with optional search and sorting",
		Tags:        []string{"applications"},
	}, func(ctx context.Context, input *ApplicationListInput) (*types.Response[models.ApplicationList], error) {
		key, err := catalog.ParseSortKey(input.Sort)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		order, err := catalog.ParseOrder(input.Order)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		apps, err := registry.ListApplications(ctx)
		if err != nil {
			return nil, registryError(err, "list applications")
		}
		apps = catalog.Query{Search: input.Search, Key: key, Order: order}.Apply(apps)

		body := models.ApplicationList{Applications: make([]models.Application, 0, len(apps)), Count: len(apps)}
		for _, a := range apps {
			body.Applications = append(body.Applications, *a)
		}
		return &types.Response[models.ApplicationList]{Body: body}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-application" + operationSuffix(pathPrefix),
		Method:      http.MethodGet,
		Path:        pathPrefix + "/applications/{id}",
		Summary:     "Get application detail",
		Description: "Returns the application with every deployment and its reachability. The response is sent once the whole health-check pass has resolved.",
		Tags:        []string{"applications"},
	}, func(ctx context.Context, input *ApplicationByIDInput) (*types.Response[models.ApplicationDetail], error) {
		cycle, err := loader.LoadByID(ctx, input.ID)
		if err != nil {
			return nil, registryError(err, "load application")
		}
		defer cycle.Cancel()

		view, err := cycle.Wait(ctx)
		if err != nil {
			return nil, registryError(err, "check deployments")
		}
		return &types.Response[models.ApplicationDetail]{Body: *view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-application-deployments" + operationSuffix(pathPrefix),
		Method:      http.MethodGet,
		Path:        pathPrefix + "/applications/{id}/deployments",
		Summary:     "List application deployments",
		Description: "Lists the ApplicationDeploymentRecords of one application without probing them",
		Tags:        []string{"applications"},
	}, func(ctx context.Context, input *ApplicationByIDInput) (*types.Response[models.DeploymentList], error) {
		deployments, err := registry.FetchDeployments(ctx, input.ID)
		if err != nil {
			return nil, registryError(err, "list deployments")
		}
		body := models.DeploymentList{Deployments: make([]models.Deployment, 0, len(deployments)), Count: len(deployments)}
		for _, d := range deployments {
			body.Deployments = append(body.Deployments, *d)
		}
		return &types.Response[models.DeploymentList]{Body: body}, nil
	})
}
