// Package catalog sorts and searches the application list.
package catalog

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/stoewer/go-strcase"
	"golang.org/x/text/cases"

	"github.com/appstore-dev/appstore/internal/registry/records"
	"github.com/appstore-dev/appstore/pkg/models"
)

// SortKey names a sortable column of the application list.
type SortKey string

const (
	SortByName       SortKey = "name"
	SortByAppType    SortKey = "app_type"
	SortByCreateTime SortKey = "createTime"
	SortByExpiryTime SortKey = "expiryTime"
)

// Order is the sort direction.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// SortKeys lists the accepted sort keys.
var SortKeys = []SortKey{SortByName, SortByAppType, SortByCreateTime, SortByExpiryTime}

// ParseSortKey accepts any snake, kebab or camel case spelling of a sort key.
// An empty string selects SortByName.
func ParseSortKey(s string) (SortKey, error) {
	if strings.TrimSpace(s) == "" {
		return SortByName, nil
	}
	normalized := strcase.SnakeCase(strings.TrimSpace(s))
	for _, k := range SortKeys {
		if strcase.SnakeCase(string(k)) == normalized {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q (expected one of name, app_type, createTime, expiryTime)", s)
}

// ParseOrder parses asc or desc. An empty string selects Ascending.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return "", fmt.Errorf("unknown sort order %q (expected asc or desc)", s)
	}
}

// Toggle returns the sort state after selecting key: selecting the current
// key flips the order, selecting another key sorts it ascending.
func Toggle(current SortKey, order Order, key SortKey) (SortKey, Order) {
	if current == key {
		if order == Ascending {
			return key, Descending
		}
		return key, Ascending
	}
	return key, Ascending
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timestamp(s *string) time.Time {
	t, _ := records.ParseTimestamp(deref(s))
	return t
}

func compare(a, b *models.Application, key SortKey) int {
	switch key {
	case SortByAppType:
		return strings.Compare(fold(deref(a.AppType)), fold(deref(b.AppType)))
	case SortByCreateTime:
		return timestamp(a.CreateTime).Compare(timestamp(b.CreateTime))
	case SortByExpiryTime:
		return timestamp(a.ExpiryTime).Compare(timestamp(b.ExpiryTime))
	default:
		return strings.Compare(fold(deref(a.Name)), fold(deref(b.Name)))
	}
}

// Sort returns a sorted copy of apps. The sort is stable and applications
// missing the key sort first in ascending order.
func Sort(apps []*models.Application, key SortKey, order Order) []*models.Application {
	out := slices.Clone(apps)
	slices.SortStableFunc(out, func(a, b *models.Application) int {
		c := compare(a, b, key)
		if order == Descending {
			return -c
		}
		return c
	})
	return out
}

// Search keeps the applications with a string attribute value containing
// term, compared under Unicode case folding. A blank term keeps everything.
func Search(apps []*models.Application, term string) []*models.Application {
	term = strings.TrimSpace(term)
	if term == "" {
		return slices.Clone(apps)
	}
	needle := fold(term)
	var out []*models.Application
	for _, app := range apps {
		if matches(app, needle) {
			out = append(out, app)
		}
	}
	return out
}

func matches(app *models.Application, needle string) bool {
	for _, v := range app.Values {
		if strings.Contains(fold(v), needle) {
			return true
		}
	}
	for _, v := range app.Attributes {
		if strings.Contains(fold(v), needle) {
			return true
		}
	}
	return false
}

// Query applies search and then sort.
type Query struct {
	Search string
	Key    SortKey
	Order  Order
}

// Apply runs q over apps.
func (q Query) Apply(apps []*models.Application) []*models.Application {
	key := q.Key
	if key == "" {
		key = SortByName
	}
	order := q.Order
	if order == "" {
		order = Ascending
	}
	return Sort(Search(apps, q.Search), key, order)
}
