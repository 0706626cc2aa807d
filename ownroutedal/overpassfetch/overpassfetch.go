package overpassfetch

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/paulmach/osm"
	"github.com/serjvanilla/go-overpass"
)

// Querier is implemented by *overpass.Client
type Querier interface {
	Query(query string) (overpass.Result, error)
}

type Fetcher struct {
	logger  *logpkg.Logger
	querier Querier
}

func NewFetcher(logger *logpkg.Logger, querier Querier) *Fetcher {
	return &Fetcher{logger, querier}
}

func NewOverpassClient(endpoint string, maxParallel int, timeout time.Duration) *overpass.Client {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, maxParallel, httpClient)
	return &client
}

// BuildRoadsQuery returns the query for every highway-tagged way in bounds, plus the nodes they reference
func BuildRoadsQuery(bounds osm.Bounds) string {
	return fmt.Sprintf(
		`[out:json][timeout:25]; ( way["highway"](%s); ); out body; >; out skel qt;`,
		ownroute.FormatBounds(bounds),
	)
}

func (f *Fetcher) FetchRoads(ctx context.Context, bounds osm.Bounds) (*ownroute.MapDocument, errorsx.Error) {
	query := BuildRoadsQuery(bounds)

	type queryResult struct {
		result overpass.Result
		err    error
	}

	// the overpass client has no context support, so the query is abandoned (not cancelled) when ctx is done
	resultChan := make(chan queryResult, 1)
	startTime := time.Now()
	go func() {
		result, err := f.querier.Query(query)
		resultChan <- queryResult{result, err}
	}()

	select {
	case <-ctx.Done():
		return nil, errorsx.Wrap(ctx.Err(), "bounds", ownroute.FormatBounds(bounds))
	case res := <-resultChan:
		if res.err != nil {
			return nil, errorsx.Wrap(res.err, "bounds", ownroute.FormatBounds(bounds))
		}

		doc := ResultToMapDocument(res.result)
		summary := doc.Summary()
		f.logger.Info("fetched %d nodes and %d ways for bounds %s in %s", summary.NodeCount, summary.WayCount, ownroute.FormatBounds(bounds), time.Since(startTime))

		return doc, nil
	}
}

// ResultToMapDocument converts an overpass result to a map document: nodes sorted by id, followed by ways sorted by id.
// Relations are dropped.
func ResultToMapDocument(result overpass.Result) *ownroute.MapDocument {
	doc := &ownroute.MapDocument{
		Elements: make([]*ownroute.Element, 0, len(result.Nodes)+len(result.Ways)),
	}

	nodeIDs := make([]int64, 0, len(result.Nodes))
	for id := range result.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sortInt64s(nodeIDs)

	for _, id := range nodeIDs {
		node := result.Nodes[id]
		doc.Elements = append(doc.Elements, ownroute.NewNode(node.ID, node.Lat, node.Lon, copyTags(node.Tags)))
	}

	wayIDs := make([]int64, 0, len(result.Ways))
	for id := range result.Ways {
		wayIDs = append(wayIDs, id)
	}
	sortInt64s(wayIDs)

	for _, id := range wayIDs {
		way := result.Ways[id]
		refs := make([]int64, 0, len(way.Nodes))
		for _, node := range way.Nodes {
			refs = append(refs, node.ID)
		}
		doc.Elements = append(doc.Elements, ownroute.NewWay(way.ID, refs, copyTags(way.Tags)))
	}

	return doc
}

func sortInt64s(ids []int64) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
}

func copyTags(tags map[string]string) ownroute.TagMap {
	if len(tags) == 0 {
		return nil
	}

	tagMap := make(ownroute.TagMap, len(tags))
	for k, v := range tags {
		tagMap[k] = v
	}
	return tagMap
}
