package routing

import (
	"github.com/jamesrr39/ownroute-app/ownroute"
)

// Edge is a directed connection to a neighbouring node. Weight is in meters.
type Edge struct {
	To     int64
	Weight float64
}

// Graph maps a node id to its outgoing edges, in the order they were added.
// Nodes without outgoing edges may be absent.
type Graph map[int64][]Edge

// NodeTable holds node locations, keeping the order the nodes were first seen in.
type NodeTable struct {
	ids       []int64
	locations map[int64]ownroute.Location
}

func NewNodeTable() *NodeTable {
	return &NodeTable{locations: make(map[int64]ownroute.Location)}
}

// Add adds a node. A node that has been added before keeps its position and gets the new location.
func (t *NodeTable) Add(id int64, location ownroute.Location) {
	if _, ok := t.locations[id]; !ok {
		t.ids = append(t.ids, id)
	}
	t.locations[id] = location
}

func (t *NodeTable) Get(id int64) (ownroute.Location, bool) {
	location, ok := t.locations[id]
	return location, ok
}

func (t *NodeTable) Len() int {
	return len(t.ids)
}

// IDs returns the node ids in insertion order
func (t *NodeTable) IDs() []int64 {
	return t.ids
}

var onewayValues = map[string]bool{
	"yes":  true,
	"true": true,
	"1":    true,
}

func isOneway(tags ownroute.TagMap) bool {
	return onewayValues[tags["oneway"]]
}

type BuildStats struct {
	Nodes           int
	Ways            int
	Edges           int
	SkippedElements int
	SelfLoops       int
	DanglingRefs    int
}

// BuildGraph creates the road graph for a document.
// The first pass collects node locations, the second walks each way's consecutive node pairs.
// Pairs referencing a node that is not in the document are left out, as are pairs where both ends are the same node.
// Malformed elements are skipped and counted in the returned stats.
func BuildGraph(doc *ownroute.MapDocument) (Graph, *NodeTable, BuildStats) {
	var stats BuildStats
	graph := make(Graph)
	nodeTable := NewNodeTable()

	var ways []*ownroute.Element
	for _, element := range doc.Elements {
		if element == nil {
			stats.SkippedElements++
			continue
		}

		if element.Type != ownroute.ObjectTypeNode && element.Type != ownroute.ObjectTypeWay {
			continue
		}

		err := element.Validate()
		if err != nil {
			stats.SkippedElements++
			continue
		}

		switch element.Type {
		case ownroute.ObjectTypeNode:
			location, _ := element.Location()
			nodeTable.Add(element.ID, location)
		case ownroute.ObjectTypeWay:
			ways = append(ways, element)
		}
	}

	stats.Nodes = nodeTable.Len()
	stats.Ways = len(ways)

	for _, way := range ways {
		oneway := isOneway(way.Tags)
		for i := 0; i+1 < len(way.Nodes); i++ {
			fromID, toID := way.Nodes[i], way.Nodes[i+1]

			from, fromOK := nodeTable.Get(fromID)
			to, toOK := nodeTable.Get(toID)
			if !fromOK || !toOK {
				stats.DanglingRefs++
				continue
			}

			if fromID == toID {
				stats.SelfLoops++
				continue
			}

			weight := ownroute.DistanceMeters(from, to)
			graph[fromID] = append(graph[fromID], Edge{To: toID, Weight: weight})
			stats.Edges++
			if !oneway {
				graph[toID] = append(graph[toID], Edge{To: fromID, Weight: weight})
				stats.Edges++
			}
		}
	}

	return graph, nodeTable, stats
}
