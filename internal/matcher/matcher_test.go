package matcher

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/logsift/internal/classifier"
)

var accessLog = []string{
	`192.168.1.1 - - [01/Jan/2021:10:00:00 +0000] "GET /index.html HTTP/1.1" 200 1043`,
	`192.168.1.2 - - [01/Jan/2021:10:00:05 +0000] "POST /login HTTP/1.1" 302 0`,
	`8.8.8.8 - - [01/Jan/2021:10:01:00 +0000] "GET /missing HTTP/1.1" 404 209`,
	`192.168.1.1 - - [02/Jan/2021:11:00:00 +0000] "DELETE /item/3 HTTP/1.1" 500 51`,
	`8.8.8.8 - - [02/Jan/2021:11:05:00 +0000] "PUT /item/4 HTTP/1.1" 200 12`,
	``,
}

func TestFilterExactStatus(t *testing.T) {
	got, err := Filter([]string{"status 200 ok", "status 2001 ok"}, []string{"200"})
	require.NoError(t, err)
	assert.Equal(t, []string{"status 200 ok"}, got)
}

func TestFilterAndAcrossOrWithin(t *testing.T) {
	lines := []string{"1.1.1.1 GET 200", "1.1.1.1 POST 404", "2.2.2.2 GET 200"}

	got, err := Filter(lines, []string{"1.1.1.1", "GET", "POST"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1.1.1 GET 200", "1.1.1.1 POST 404"}, got)
}

func TestFilterInvalidTokenAborts(t *testing.T) {
	got, err := Filter([]string{"status 200 ok"}, []string{"200", "notacategory"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFilterToken))
	assert.Empty(t, got)

	var invalid *InvalidTokenError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "notacategory", invalid.Token)
	assert.Equal(t, 1, invalid.Index)
}

func TestFilterEmptyTokenIsInvalid(t *testing.T) {
	_, err := Filter(accessLog, SplitTokens(""))
	assert.ErrorIs(t, err, ErrInvalidFilterToken)
}

func TestFilterNoTokensAllow(t *testing.T) {
	got, err := Filter(accessLog, nil)
	require.NoError(t, err)
	assert.Equal(t, accessLog, got)
}

func TestFilterNoTokensReject(t *testing.T) {
	m := New(Options{EmptyPolicy: RejectEmpty})
	got, err := m.Filter(accessLog, []string{})
	assert.ErrorIs(t, err, ErrNoFilters)
	assert.Nil(t, got)
}

func TestFilterNoMatchIsNotAnError(t *testing.T) {
	got, err := Filter(accessLog, []string{"999"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestFilterEmptyCategoryShortCircuits(t *testing.T) {
	got, err := Filter(accessLog, []string{"10.0.0.1", "GET"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilterSubstringDoesNotMatch(t *testing.T) {
	// The line contains "8.8.8.8" inside a longer quad, so the extracted IP differs.
	got, err := Filter([]string{"18.8.8.80 GET"}, []string{"8.8.8.8"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Filter([]string{"code 1234 here"}, []string{"123"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilterAccessLog(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   []int
	}{
		{"single status", []string{"200"}, []int{0, 4}},
		{"status or status", []string{"200", "404"}, []int{0, 2, 4}},
		{"ip and method", []string{"8.8.8.8", "PUT"}, []int{4}},
		{"date", []string{"02/Jan/2021"}, []int{3, 4}},
		{"date and status", []string{"01/Jan/2021", "302"}, []int{1}},
		{"all four", []string{"192.168.1.1", "01/Jan/2021", "200", "GET"}, []int{0}},
		{"duplicate token", []string{"GET", "GET"}, []int{0, 2}},
		{"token in method line", []string{"DELETE"}, []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := make([]string, 0, len(tt.want))
			for _, i := range tt.want {
				want = append(want, accessLog[i])
			}
			got, err := Filter(accessLog, tt.tokens)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestFilterOrderIndependent(t *testing.T) {
	a, err := Filter(accessLog, []string{"192.168.1.1", "GET", "DELETE", "200", "500"})
	require.NoError(t, err)
	b, err := Filter(accessLog, []string{"500", "DELETE", "200", "GET", "192.168.1.1"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, []string{accessLog[0], accessLog[3]}, a)
}

func TestFilterParallelMatchesSequential(t *testing.T) {
	lines := make([]string, 0, 2000)
	methods := []string{"GET", "POST", "PUT", "DELETE"}
	codes := []string{"200", "301", "404", "500"}
	for i := 0; i < 2000; i++ {
		lines = append(lines, fmt.Sprintf("10.0.0.%d - - [0%d/Mar/2024:00:00:00 +0000] \"%s /p/%d HTTP/1.1\" %s 10",
			i%7, 1+i%5, methods[i%4], i, codes[i%3]))
	}
	tokens := []string{"10.0.0.3", "GET", "PUT", "200", "404"}

	seq, err := New(Options{}).Filter(lines, tokens)
	require.NoError(t, err)
	par, err := New(Options{ParallelThreshold: 100}).Filter(lines, tokens)
	require.NoError(t, err)

	assert.NotEmpty(t, seq)
	assert.Equal(t, seq, par)
}

func TestFilterDoesNotAliasInput(t *testing.T) {
	lines := []string{"a", "b"}
	got, err := Filter(lines, nil)
	require.NoError(t, err)
	got[0] = "changed"
	assert.Equal(t, "a", lines[0])
}

func TestNewGrouping(t *testing.T) {
	g, err := NewGrouping([]string{"GET", "8.8.8.8", "POST", "GET", "404"})
	require.NoError(t, err)

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []classifier.Category{classifier.HTTPMethod, classifier.IP, classifier.StatusCode}, g.Categories())

	methods, ok := g.Group(classifier.HTTPMethod)
	require.True(t, ok)
	assert.Equal(t, []string{"GET", "POST"}, methods.Tokens())

	_, ok = g.Group(classifier.Date)
	assert.False(t, ok)

	assert.Equal(t, map[string][]string{
		"method": {"GET", "POST"},
		"ip":     {"8.8.8.8"},
		"status": {"404"},
	}, g.Summary())
}

func TestGroupingMatch(t *testing.T) {
	g, err := NewGrouping([]string{"GET", "200"})
	require.NoError(t, err)
	assert.True(t, g.Match(accessLog[0]))
	assert.False(t, g.Match(accessLog[1]))

	empty, err := NewGrouping(nil)
	require.NoError(t, err)
	assert.True(t, empty.Match("anything"))
}

func TestSplitTokens(t *testing.T) {
	assert.Equal(t, []string{"200", "GET"}, SplitTokens("200,GET"))
	assert.Equal(t, []string{"200", " GET"}, SplitTokens("200, GET"))
	assert.Equal(t, []string{"8.8.8.8"}, SplitTokens("8.8.8.8"))
	assert.Equal(t, []string{""}, SplitTokens(""))
}

func TestSplitTokensUntrimmedStillClassifies(t *testing.T) {
	// " GET" is still a method token but never equals an extracted "GET".
	got, err := Filter(accessLog, SplitTokens("200, GET"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseEmptyPolicy(t *testing.T) {
	p, err := ParseEmptyPolicy("reject")
	require.NoError(t, err)
	assert.Equal(t, RejectEmpty, p)

	p, err = ParseEmptyPolicy("")
	require.NoError(t, err)
	assert.Equal(t, AllowEmpty, p)

	_, err = ParseEmptyPolicy("sometimes")
	assert.Error(t, err)
}
