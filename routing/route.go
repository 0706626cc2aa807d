package routing

import (
	"errors"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownroute-app/ownroute"
)

var (
	ErrRouteNotFound = errors.New("route not found")
)

// PathEdge is one step of a path. Weight is nil when the graph has no edge between the two nodes.
type PathEdge struct {
	From   int64    `json:"from"`
	To     int64    `json:"to"`
	Weight *float64 `json:"weight"`
}

// EdgesForPath returns an edge for each consecutive pair in the path.
// With parallel edges, the first matching edge in the graph's edge list is used.
func EdgesForPath(graph Graph, path []int64) []PathEdge {
	edges := []PathEdge{}
	for i := 0; i+1 < len(path); i++ {
		from, to := path[i], path[i+1]
		pathEdge := PathEdge{From: from, To: to}
		for _, edge := range graph[from] {
			if edge.To == to {
				weight := edge.Weight
				pathEdge.Weight = &weight
				break
			}
		}
		edges = append(edges, pathEdge)
	}
	return edges
}

type RouteResult struct {
	Path           []int64             `json:"path"`
	DistanceMeters float64             `json:"distanceMeters"`
	Edges          []PathEdge          `json:"edges"`
	Locations      []ownroute.Location `json:"-"`
	Stats          BuildStats          `json:"-"`
}

// Execute computes the shortest route between two coordinates over the roads in doc.
// Each coordinate is snapped to its nearest node first. doc is not modified.
func Execute(origin, destination ownroute.Coordinate, doc *ownroute.MapDocument) (*RouteResult, errorsx.Error) {
	graph, nodeTable, stats := BuildGraph(doc)

	originNode, err := NearestNodeToCoordinate(nodeTable, origin)
	if err != nil {
		return nil, errorsx.Wrap(err, "endpoint", "origin")
	}

	destinationNode, err := NearestNodeToCoordinate(nodeTable, destination)
	if err != nil {
		return nil, errorsx.Wrap(err, "endpoint", "destination")
	}

	path, distance := ShortestPath(graph, originNode, destinationNode)
	if len(path) == 0 {
		return nil, errorsx.Wrap(ErrRouteNotFound, "originNode", originNode, "destinationNode", destinationNode)
	}

	locations := make([]ownroute.Location, 0, len(path))
	for _, id := range path {
		location, _ := nodeTable.Get(id)
		locations = append(locations, location)
	}

	return &RouteResult{
		Path:           path,
		DistanceMeters: distance,
		Edges:          EdgesForPath(graph, path),
		Locations:      locations,
		Stats:          stats,
	}, nil
}
