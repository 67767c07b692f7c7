package recordstore

import (
	"context"
	"net/http"
	"time"

	"github.com/shurcooL/graphql"
	"go.uber.org/zap"

	"github.com/appstore-dev/appstore/internal/registry/logging"
	"github.com/appstore-dev/appstore/internal/registry/records"
)

// KeyValueInput is the registry's attribute predicate input type. The Go type
// name is sent as the GraphQL variable type, so it must not be renamed.
type KeyValueInput struct {
	Key   string     `json:"key"`
	Value ValueInput `json:"value"`
}

// ValueInput carries the string variant of a predicate value.
type ValueInput struct {
	String string `json:"string"`
}

type gqlValue struct {
	BooleanValue struct {
		Bool *bool `graphql:"bool: value"`
	} `graphql:"... on BooleanValue"`
	IntValue struct {
		Int *int64 `graphql:"int: value"`
	} `graphql:"... on IntValue"`
	FloatValue struct {
		Float *float64 `graphql:"float: value"`
	} `graphql:"... on FloatValue"`
	StringValue struct {
		String *string `graphql:"string: value"`
	} `graphql:"... on StringValue"`
	BytesValue struct {
		Bytes *string `graphql:"bytes: value"`
	} `graphql:"... on BytesValue"`
	LinkValue struct {
		Link *string `graphql:"link: value"`
	} `graphql:"... on LinkValue"`
}

type gqlRecord struct {
	ID         string
	Names      []string
	Owners     []string
	BondID     string `graphql:"bondId"`
	CreateTime string
	ExpiryTime string
	Attributes []struct {
		Key   string
		Value gqlValue
	}
}

// GraphQLStore queries a Laconic registry GraphQL endpoint.
type GraphQLStore struct {
	client   *graphql.Client
	endpoint string
	logger   *zap.Logger
}

// GraphQLOption configures a GraphQLStore.
type GraphQLOption func(*graphQLOptions)

type graphQLOptions struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// WithHTTPClient overrides the HTTP client used for queries.
func WithHTTPClient(c *http.Client) GraphQLOption {
	return func(o *graphQLOptions) { o.httpClient = c }
}

// WithLogger overrides the store logger.
func WithLogger(l *zap.Logger) GraphQLOption {
	return func(o *graphQLOptions) { o.logger = l }
}

// NewGraphQLStore creates a store backed by the GraphQL endpoint at endpoint.
func NewGraphQLStore(endpoint string, timeout time.Duration, opts ...GraphQLOption) *GraphQLStore {
	o := &graphQLOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: timeout}
	}
	if o.logger == nil {
		o.logger = logging.NewLogger("recordstore")
	}
	return &GraphQLStore{
		client:   graphql.NewClient(endpoint, o.httpClient),
		endpoint: endpoint,
		logger:   o.logger,
	}
}

// Endpoint returns the GraphQL endpoint URL.
func (s *GraphQLStore) Endpoint() string { return s.endpoint }

// QueryRecords runs queryRecords with one KeyValueInput per predicate.
func (s *GraphQLStore) QueryRecords(ctx context.Context, predicates []records.Predicate) ([]*records.Record, error) {
	var q struct {
		Records []gqlRecord `graphql:"records: queryRecords(attributes: $attributes)"`
	}
	attrs := make([]KeyValueInput, 0, len(predicates))
	for _, p := range predicates {
		attrs = append(attrs, KeyValueInput{Key: p.Key, Value: ValueInput{String: p.Value}})
	}
	vars := map[string]interface{}{
		"attributes": attrs,
	}

	start := time.Now()
	if err := s.client.Query(ctx, &q, vars); err != nil {
		logging.WithRequestID(ctx, s.logger).Warn("queryRecords failed",
			zap.String("endpoint", s.endpoint),
			zap.Int("predicates", len(predicates)),
			zap.Error(err))
		return nil, queryError("queryRecords", err)
	}
	logging.WithRequestID(ctx, s.logger).Debug("queryRecords",
		zap.Int("records", len(q.Records)),
		zap.Duration("duration", time.Since(start)))

	return convertRecords(q.Records), nil
}

// GetRecordsByIDs runs getRecordsByIds.
func (s *GraphQLStore) GetRecordsByIDs(ctx context.Context, ids []string) ([]*records.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var q struct {
		Records []gqlRecord `graphql:"records: getRecordsByIds(ids: $ids)"`
	}
	gids := make([]graphql.String, 0, len(ids))
	for _, id := range ids {
		gids = append(gids, graphql.String(id))
	}
	if err := s.client.Query(ctx, &q, map[string]interface{}{"ids": gids}); err != nil {
		logging.WithRequestID(ctx, s.logger).Warn("getRecordsByIds failed",
			zap.String("endpoint", s.endpoint),
			zap.Strings("ids", ids),
			zap.Error(err))
		return nil, queryError("getRecordsByIds", err)
	}

	found := make([]gqlRecord, 0, len(q.Records))
	for _, r := range q.Records {
		if r.ID != "" {
			found = append(found, r)
		}
	}
	return convertRecords(found), nil
}

// Ping runs getStatus and reports whether the endpoint answered.
func (s *GraphQLStore) Ping(ctx context.Context) error {
	var q struct {
		Status struct {
			Version string
		} `graphql:"status: getStatus"`
	}
	if err := s.client.Query(ctx, &q, nil); err != nil {
		return queryError("getStatus", err)
	}
	return nil
}

func convertRecords(in []gqlRecord) []*records.Record {
	out := make([]*records.Record, 0, len(in))
	for _, r := range in {
		rec := &records.Record{
			ID:         r.ID,
			Names:      r.Names,
			Owners:     r.Owners,
			BondID:     r.BondID,
			CreateTime: r.CreateTime,
			ExpiryTime: r.ExpiryTime,
			Attributes: make([]records.Attribute, 0, len(r.Attributes)),
		}
		for _, a := range r.Attributes {
			rec.Attributes = append(rec.Attributes, records.Attribute{
				Key: a.Key,
				Value: records.TypedValue{
					Bool:   a.Value.BooleanValue.Bool,
					Int:    a.Value.IntValue.Int,
					Float:  a.Value.FloatValue.Float,
					String: a.Value.StringValue.String,
					Bytes:  a.Value.BytesValue.Bytes,
					Link:   a.Value.LinkValue.Link,
				},
			})
		}
		out = append(out, rec)
	}
	return out
}
