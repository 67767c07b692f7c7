package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectField(t *testing.T) {
	rec := &Record{
		ID: "bafyrec1",
		Attributes: []Attribute{
			{Key: KeyName, Value: IntValue(7)},
			{Key: KeyName, Value: StringValue("first")},
			{Key: KeyName, Value: StringValue("second")},
			{Key: KeyVersion, Value: StringValue("")},
			{Key: KeyURL, Value: LinkValue("bafyother")},
		},
	}

	tests := []struct {
		name   string
		key    string
		want   string
		wantOK bool
	}{
		{name: "skips non-string variants and takes first string", key: KeyName, want: "first", wantOK: true},
		{name: "empty string is present", key: KeyVersion, want: "", wantOK: true},
		{name: "link variant is absent", key: KeyURL, wantOK: false},
		{name: "missing key is absent", key: KeyRepository, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ProjectField(rec, tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)

			again, okAgain := ProjectField(rec, tt.key)
			assert.Equal(t, got, again)
			assert.Equal(t, ok, okAgain)
		})
	}
}

func TestProjectField_NilRecord(t *testing.T) {
	_, ok := ProjectField(nil, KeyName)
	assert.False(t, ok)
}

func TestTypedValueKind(t *testing.T) {
	assert.Equal(t, KindNull, TypedValue{}.Kind())
	assert.Equal(t, KindBool, BoolValue(true).Kind())
	assert.Equal(t, KindFloat, FloatValue(1.5).Kind())
	assert.Equal(t, KindString, StringValue("x").Kind())
	assert.Equal(t, KindLink, LinkValue("id").Kind())
	assert.Equal(t, "link", KindLink.String())
}

func TestMatchesAll(t *testing.T) {
	rec := &Record{Attributes: []Attribute{
		{Key: KeyType, Value: StringValue(TypeApplicationDeployment)},
		{Key: KeyApplication, Value: StringValue("app-1")},
	}}

	assert.True(t, MatchesAll(rec, nil))
	assert.True(t, MatchesAll(rec, []Predicate{TypeIs(TypeApplicationDeployment), {Key: KeyApplication, Value: "app-1"}}))
	assert.False(t, MatchesAll(rec, []Predicate{TypeIs(TypeApplication)}))
	assert.False(t, MatchesAll(rec, []Predicate{{Key: KeyApplication, Value: "app-2"}}))
}

func TestStringValues(t *testing.T) {
	rec := &Record{Attributes: []Attribute{
		{Key: KeyName, Value: StringValue("a")},
		{Key: "replicas", Value: IntValue(3)},
		{Key: KeyAppType, Value: StringValue("webapp")},
	}}
	assert.Equal(t, []string{"a", "webapp"}, StringValues(rec))
}

func TestParseTimestamp(t *testing.T) {
	ts, ok := ParseTimestamp("2024-03-01T10:15:00.000Z")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC), ts)

	ts, ok = ParseTimestamp("1709288100000")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC), ts)

	_, ok = ParseTimestamp("")
	assert.False(t, ok)
	_, ok = ParseTimestamp("yesterday")
	assert.False(t, ok)
}
