// Package recordstore provides read access to the registry's record store.
package recordstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/appstore-dev/appstore/internal/registry/records"
)

// ErrQuery matches every QueryError via errors.Is.
var ErrQuery = errors.New("record store query failed")

// QueryError reports that the record store was unreachable or rejected a query.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, ErrQuery)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrQuery, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func (e *QueryError) Is(target error) bool { return target == ErrQuery }

// Store queries records. Implementations never cache and never retry.
type Store interface {
	// QueryRecords returns every record matching all predicates.
	QueryRecords(ctx context.Context, predicates []records.Predicate) ([]*records.Record, error)
	// GetRecordsByIDs returns the records with the given IDs. Unknown IDs
	// are omitted from the result.
	GetRecordsByIDs(ctx context.Context, ids []string) ([]*records.Record, error)
}

// Pinger is implemented by stores that can report their reachability without
// running a record query.
type Pinger interface {
	Ping(ctx context.Context) error
}

func queryError(op string, err error) error {
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}
	return &QueryError{Op: op, Err: err}
}
