package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appstore-dev/appstore/internal/registry/recordstore"
	"github.com/appstore-dev/appstore/internal/registry/records"
)

type fakeStore struct {
	mu         sync.Mutex
	records    []*records.Record
	err        error
	queries    [][]records.Predicate
	idRequests [][]string
}

func (f *fakeStore) QueryRecords(_ context.Context, predicates []records.Predicate) ([]*records.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, predicates)
	if f.err != nil {
		return nil, &recordstore.QueryError{Op: "queryRecords", Err: f.err}
	}
	var out []*records.Record
	for _, r := range f.records {
		if records.MatchesAll(r, predicates) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetRecordsByIDs(_ context.Context, ids []string) ([]*records.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idRequests = append(f.idRequests, ids)
	if f.err != nil {
		return nil, &recordstore.QueryError{Op: "getRecordsByIds", Err: f.err}
	}
	var out []*records.Record
	for _, id := range ids {
		for _, r := range f.records {
			if r.ID == id {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func str(key, value string) records.Attribute {
	return records.Attribute{Key: key, Value: records.StringValue(value)}
}

func sampleRecords() []*records.Record {
	return []*records.Record{
		{
			ID:         "bafyapp",
			BondID:     "bond-1",
			CreateTime: "2024-03-01T10:15:00Z",
			Attributes: []records.Attribute{
				str(records.KeyType, records.TypeApplication),
				str(records.KeyName, "webapp"),
				str(records.KeyAppType, "webapp/next"),
				{Key: records.KeyVersion, Value: records.IntValue(2)},
				str(records.KeyRepository, "https://git.test/webapp"),
			},
		},
		{
			ID: "bafydep1",
			Attributes: []records.Attribute{
				str(records.KeyType, records.TypeApplicationDeployment),
				str(records.KeyApplication, "bafyapp"),
				str(records.KeyURL, "https://a.test"),
			},
		},
		{
			ID:    "bafydep2",
			Names: []string{"crn://laconic/deployments/two"},
			Attributes: []records.Attribute{
				str(records.KeyType, records.TypeApplicationDeployment),
				str(records.KeyApplication, "bafyapp"),
			},
		},
		{
			ID: "bafydep3",
			Attributes: []records.Attribute{
				str(records.KeyType, records.TypeApplicationDeployment),
				str(records.KeyApplication, "another"),
				str(records.KeyURL, "https://b.test"),
			},
		},
	}
}

func TestFetchDeployments_SingleFilteredQuery(t *testing.T) {
	store := &fakeStore{records: sampleRecords()}
	svc := NewRegistryService(store)

	deployments, err := svc.FetchDeployments(context.Background(), "bafyapp")
	require.NoError(t, err)
	require.Len(t, deployments, 2)

	require.Len(t, store.queries, 1)
	assert.Equal(t, []records.Predicate{
		{Key: "type", Value: "ApplicationDeploymentRecord"},
		{Key: "application", Value: "bafyapp"},
	}, store.queries[0])

	assert.Equal(t, "bafydep1", deployments[0].ID)
	require.NotNil(t, deployments[0].URL)
	assert.Equal(t, "https://a.test", *deployments[0].URL)
	assert.True(t, deployments[0].HasTarget())

	assert.Nil(t, deployments[1].URL)
	assert.False(t, deployments[1].HasTarget())
	require.NotNil(t, deployments[1].Name)
	assert.Equal(t, "crn://laconic/deployments/two", *deployments[1].Name)
}

func TestFetchDeployments_NoCaching(t *testing.T) {
	store := &fakeStore{records: sampleRecords()}
	svc := NewRegistryService(store)

	_, err := svc.FetchDeployments(context.Background(), "bafyapp")
	require.NoError(t, err)
	_, err = svc.FetchDeployments(context.Background(), "bafyapp")
	require.NoError(t, err)
	assert.Len(t, store.queries, 2)
}

func TestFetchDeployments_QueryError(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	svc := NewRegistryService(store)

	_, err := svc.FetchDeployments(context.Background(), "bafyapp")
	require.Error(t, err)
	assert.ErrorIs(t, err, recordstore.ErrQuery)
	var qe *recordstore.QueryError
	assert.True(t, errors.As(err, &qe))
	assert.Len(t, store.queries, 1, "a failed load must not be retried")
}

func TestListApplications_Projection(t *testing.T) {
	svc := NewRegistryService(&fakeStore{records: sampleRecords()})

	apps, err := svc.ListApplications(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 1)

	app := apps[0]
	assert.Equal(t, "bafyapp", app.ID)
	require.NotNil(t, app.Name)
	assert.Equal(t, "webapp", *app.Name)
	assert.Nil(t, app.Version, "int-typed version is absent, not an error")
	assert.Nil(t, app.AppVersion)
	assert.Nil(t, app.ExpiryTime)
	require.NotNil(t, app.BondID)
	assert.Equal(t, "bond-1", *app.BondID)
	assert.Equal(t, "https://git.test/webapp", app.Attributes[records.KeyRepository])
	_, hasVersion := app.Attributes[records.KeyVersion]
	assert.False(t, hasVersion)
	assert.Equal(t, records.StringValues(sampleRecords()[0]), app.Values)
}

func TestGetApplication(t *testing.T) {
	svc := NewRegistryService(&fakeStore{records: sampleRecords()})

	app, err := svc.GetApplication(context.Background(), "bafyapp")
	require.NoError(t, err)
	assert.Equal(t, "bafyapp", app.ID)

	_, err = svc.GetApplication(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrApplicationNotFound)

	_, err = svc.GetApplication(context.Background(), "bafydep1")
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}
