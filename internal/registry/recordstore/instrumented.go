package recordstore

import (
	"context"

	"github.com/appstore-dev/appstore/internal/registry/records"
	"github.com/appstore-dev/appstore/internal/registry/telemetry"
)

type instrumentedStore struct {
	next    Store
	metrics *telemetry.Metrics
}

// Instrument wraps next so every query is counted on metrics.
func Instrument(next Store, metrics *telemetry.Metrics) Store {
	if metrics == nil {
		return next
	}
	return &instrumentedStore{next: next, metrics: metrics}
}

func (s *instrumentedStore) QueryRecords(ctx context.Context, predicates []records.Predicate) ([]*records.Record, error) {
	out, err := s.next.QueryRecords(ctx, predicates)
	s.metrics.RecordQuery(ctx, "queryRecords", err)
	return out, err
}

func (s *instrumentedStore) GetRecordsByIDs(ctx context.Context, ids []string) ([]*records.Record, error) {
	out, err := s.next.GetRecordsByIDs(ctx, ids)
	s.metrics.RecordQuery(ctx, "getRecordsByIds", err)
	return out, err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	p, ok := s.next.(Pinger)
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}
