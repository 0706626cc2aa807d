package overpassfetch

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/jamesrr39/ownroute-app/routing"
	"github.com/paulmach/osm"
	"github.com/serjvanilla/go-overpass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockQuerier struct {
	QueryFunc func(query string) (overpass.Result, error)
}

func (m *mockQuerier) Query(query string) (overpass.Result, error) {
	return m.QueryFunc(query)
}

func testResult() overpass.Result {
	n1 := &overpass.Node{Meta: overpass.Meta{ID: 30}, Lat: 0, Lon: 0.002}
	n2 := &overpass.Node{Meta: overpass.Meta{ID: 10}, Lat: 0, Lon: 0}
	n3 := &overpass.Node{Meta: overpass.Meta{ID: 20, Tags: map[string]string{"highway": "traffic_signals"}}, Lat: 0, Lon: 0.001}

	return overpass.Result{
		Nodes: map[int64]*overpass.Node{30: n1, 10: n2, 20: n3},
		Ways: map[int64]*overpass.Way{
			200: {Meta: overpass.Meta{ID: 200, Tags: map[string]string{"highway": "primary", "oneway": "yes"}}, Nodes: []*overpass.Node{n3, n1}},
			100: {Meta: overpass.Meta{ID: 100, Tags: map[string]string{"highway": "residential"}}, Nodes: []*overpass.Node{n2, n3}},
		},
		Relations: map[int64]*overpass.Relation{
			900: {Meta: overpass.Meta{ID: 900}},
		},
	}
}

func newTestLogger() *logpkg.Logger {
	return logpkg.NewLogger(bytes.NewBuffer(nil), logpkg.LogLevelDebug)
}

func TestBuildRoadsQuery(t *testing.T) {
	query := BuildRoadsQuery(osm.Bounds{MinLat: -23.1, MaxLat: -22.6, MinLon: -47.2, MaxLon: -46.8})
	assert.Equal(t, `[out:json][timeout:25]; ( way["highway"](-23.1,-47.2,-22.6,-46.8); ); out body; >; out skel qt;`, query)
}

func TestResultToMapDocument(t *testing.T) {
	doc := ResultToMapDocument(testResult())

	var ids []string
	for _, element := range doc.Elements {
		ids = append(ids, element.String())
	}
	assert.Equal(t, []string{"node/10", "node/20", "node/30", "way/100", "way/200"}, ids)
	assert.Equal(t, []int64{20, 30}, doc.Elements[4].Nodes)
	assert.Equal(t, ownroute.TagMap{"highway": "traffic_signals"}, doc.Elements[1].Tags)
	assert.Nil(t, doc.Elements[0].Tags)

	graph, _, stats := routing.BuildGraph(doc)
	assert.Equal(t, 0, stats.SkippedElements)
	assert.Len(t, graph[20], 2)
	assert.Len(t, graph[30], 0)
}

func TestFetcher_FetchRoads(t *testing.T) {
	var gotQuery string
	querier := &mockQuerier{
		QueryFunc: func(query string) (overpass.Result, error) {
			gotQuery = query
			return testResult(), nil
		},
	}

	bounds := osm.Bounds{MinLat: 1, MaxLat: 2, MinLon: 3, MaxLon: 4}
	doc, err := NewFetcher(newTestLogger(), querier).FetchRoads(context.Background(), bounds)
	require.Nil(t, err)
	assert.Len(t, doc.Elements, 5)
	assert.Equal(t, BuildRoadsQuery(bounds), gotQuery)
}

func TestFetcher_FetchRoads_errors(t *testing.T) {
	errRateLimited := errors.New("429 too many requests")

	t.Run("query error", func(t *testing.T) {
		querier := &mockQuerier{
			QueryFunc: func(query string) (overpass.Result, error) {
				return overpass.Result{}, errRateLimited
			},
		}
		_, err := NewFetcher(newTestLogger(), querier).FetchRoads(context.Background(), osm.Bounds{})
		require.NotNil(t, err)
		assert.Equal(t, errRateLimited, errorsx.Cause(err))
	})

	t.Run("context cancelled", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		querier := &mockQuerier{
			QueryFunc: func(query string) (overpass.Result, error) {
				<-release
				return overpass.Result{}, nil
			},
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := NewFetcher(newTestLogger(), querier).FetchRoads(ctx, osm.Bounds{})
		require.NotNil(t, err)
		assert.Equal(t, context.DeadlineExceeded, errorsx.Cause(err))
	})
}
