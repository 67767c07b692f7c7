// Package records models entries of the Laconic attribute-based record store
// and projects their loosely typed attribute lists into named fields.
package records

import (
	"strconv"
	"strings"
	"time"
)

// Record types stored in the registry.
const (
	TypeApplication           = "ApplicationRecord"
	TypeApplicationDeployment = "ApplicationDeploymentRecord"
)

// Attribute keys read from application and deployment records.
const (
	KeyType          = "type"
	KeyName          = "name"
	KeyAppType       = "app_type"
	KeyVersion       = "version"
	KeyAppVersion    = "app_version"
	KeyRepository    = "repository"
	KeyRepositoryRef = "repository_ref"
	KeyApplication   = "application"
	KeyURL           = "url"
)

// Record is an entity returned by the record store.
type Record struct {
	ID         string      `json:"id" yaml:"id"`
	Names      []string    `json:"names,omitempty" yaml:"names,omitempty"`
	Owners     []string    `json:"owners,omitempty" yaml:"owners,omitempty"`
	BondID     string      `json:"bondId,omitempty" yaml:"bondId,omitempty"`
	CreateTime string      `json:"createTime,omitempty" yaml:"createTime,omitempty"`
	ExpiryTime string      `json:"expiryTime,omitempty" yaml:"expiryTime,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Attribute is a single key/value pair attached to a record. Keys are not
// unique within a record.
type Attribute struct {
	Key   string     `json:"key" yaml:"key"`
	Value TypedValue `json:"value" yaml:"value"`
}

// Kind identifies the populated variant of a TypedValue.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindLink
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindLink:
		return "link"
	default:
		return "null"
	}
}

// TypedValue holds exactly one populated variant. The zero value is null.
type TypedValue struct {
	Bool   *bool    `json:"bool,omitempty" yaml:"bool,omitempty"`
	Int    *int64   `json:"int,omitempty" yaml:"int,omitempty"`
	Float  *float64 `json:"float,omitempty" yaml:"float,omitempty"`
	String *string  `json:"string,omitempty" yaml:"string,omitempty"`
	Bytes  *string  `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Link   *string  `json:"link,omitempty" yaml:"link,omitempty"`
}

// StringValue returns a TypedValue carrying the string variant.
func StringValue(s string) TypedValue { return TypedValue{String: &s} }

// BoolValue returns a TypedValue carrying the bool variant.
func BoolValue(b bool) TypedValue { return TypedValue{Bool: &b} }

// IntValue returns a TypedValue carrying the int variant.
func IntValue(i int64) TypedValue { return TypedValue{Int: &i} }

// FloatValue returns a TypedValue carrying the float variant.
func FloatValue(f float64) TypedValue { return TypedValue{Float: &f} }

// LinkValue returns a TypedValue referencing another record by ID.
func LinkValue(id string) TypedValue { return TypedValue{Link: &id} }

// Kind reports the populated variant. When a malformed value carries several
// variants, the first in declaration order wins.
func (v TypedValue) Kind() Kind {
	switch {
	case v.Bool != nil:
		return KindBool
	case v.Int != nil:
		return KindInt
	case v.Float != nil:
		return KindFloat
	case v.String != nil:
		return KindString
	case v.Bytes != nil:
		return KindBytes
	case v.Link != nil:
		return KindLink
	default:
		return KindNull
	}
}

// AsString returns the string variant, if that is the populated one.
func (v TypedValue) AsString() (string, bool) {
	if v.Kind() != KindString {
		return "", false
	}
	return *v.String, true
}

// ProjectField returns the value of the first attribute whose key equals key
// and whose value carries the string variant. ok is false when no such
// attribute exists; an empty string with ok true is a legitimate value.
func ProjectField(r *Record, key string) (value string, ok bool) {
	if r == nil {
		return "", false
	}
	for _, attr := range r.Attributes {
		if attr.Key != key {
			continue
		}
		if s, isString := attr.Value.AsString(); isString {
			return s, true
		}
	}
	return "", false
}

// StringValues returns every string-typed attribute value in record order.
func StringValues(r *Record) []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, attr := range r.Attributes {
		if s, ok := attr.Value.AsString(); ok {
			out = append(out, s)
		}
	}
	return out
}

// Predicate is an exact-match attribute filter.
type Predicate struct {
	Key   string
	Value string
}

// TypeIs is shorthand for the record type predicate.
func TypeIs(recordType string) Predicate {
	return Predicate{Key: KeyType, Value: recordType}
}

// MatchesAll reports whether every predicate is satisfied by a string
// attribute of r. An empty predicate list matches every record.
func MatchesAll(r *Record, predicates []Predicate) bool {
	for _, p := range predicates {
		if !matches(r, p) {
			return false
		}
	}
	return true
}

func matches(r *Record, p Predicate) bool {
	if r == nil {
		return false
	}
	for _, attr := range r.Attributes {
		if attr.Key != p.Key {
			continue
		}
		if s, ok := attr.Value.AsString(); ok && s == p.Value {
			return true
		}
	}
	return false
}

// ParseTimestamp accepts RFC 3339 timestamps and epoch milliseconds.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), true
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}
