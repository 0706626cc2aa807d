package ownroutedal

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
)

const (
	PBFFileSuffix = ".pbf"
	XMLFileSuffix = ".osm"
)

// ObjectScanner is implemented by the osmpbf and osmxml scanners
type ObjectScanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
	Close() error
}

type ImportOptions struct {
	// RequiredTagKeys lists the tag keys a way needs (at least one of) to be imported. Empty imports every way.
	RequiredTagKeys []string
	// Bounds, if set, drops ways that have no node inside it
	Bounds *osm.Bounds
}

func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		RequiredTagKeys: []string{"highway"},
	}
}

func (opts ImportOptions) wayIsWanted(way *osm.Way) bool {
	if len(opts.RequiredTagKeys) == 0 {
		return true
	}

	for _, tagKey := range opts.RequiredTagKeys {
		if way.Tags.Find(tagKey) != "" {
			return true
		}
	}
	return false
}

// NewScannerForFile picks the scanner from the file name: .pbf files are read as protobuf, everything else as OSM XML
func NewScannerForFile(ctx context.Context, file gofs.File, fileName string) ObjectScanner {
	if strings.HasSuffix(strings.ToLower(fileName), PBFFileSuffix) {
		return osmpbf.New(ctx, file, runtime.NumCPU())
	}

	return osmxml.New(ctx, file)
}

// ImportOSMFile reads an OpenStreetMap extract into a map document
func ImportOSMFile(ctx context.Context, logger *logpkg.Logger, fs gofs.Fs, filePath string, opts ImportOptions) (*ownroute.MapDocument, errorsx.Error) {
	file, err := fs.Open(filePath)
	if err != nil {
		return nil, errorsx.Wrap(err, "filePath", filePath)
	}
	defer file.Close()

	scanner := NewScannerForFile(ctx, file, filepath.Base(filePath))
	defer scanner.Close()

	startTime := time.Now()
	doc, importErr := ImportFromScanner(scanner, opts)
	if importErr != nil {
		return nil, errorsx.Wrap(importErr, "filePath", filePath)
	}

	summary := doc.Summary()
	logger.Info("imported %d nodes and %d ways from %q in %s", summary.NodeCount, summary.WayCount, filePath, time.Since(startTime))

	return doc, nil
}

// ImportFromScanner builds a map document from the ways wanted by opts and the nodes those ways reference.
// Nodes come first, in the order scanned, followed by the ways.
func ImportFromScanner(scanner ObjectScanner, opts ImportOptions) (*ownroute.MapDocument, errorsx.Error) {
	var nodes []*osm.Node
	nodesByID := make(map[osm.NodeID]*osm.Node)
	var ways []*osm.Way

	for scanner.Scan() {
		switch obj := scanner.Object().(type) {
		case *osm.Node:
			nodes = append(nodes, obj)
			nodesByID[obj.ID] = obj
		case *osm.Way:
			if !opts.wayIsWanted(obj) {
				continue
			}
			ways = append(ways, obj)
		}
	}

	if scanner.Err() != nil {
		return nil, errorsx.Wrap(scanner.Err())
	}

	referencedNodeIDs := make(map[osm.NodeID]bool)
	doc := &ownroute.MapDocument{Elements: []*ownroute.Element{}}
	var wayElements []*ownroute.Element
	for _, way := range ways {
		var points []ownroute.Location
		nodeIDs := make([]int64, 0, len(way.Nodes))
		for _, wayNode := range way.Nodes {
			nodeIDs = append(nodeIDs, int64(wayNode.ID))
			node, ok := nodesByID[wayNode.ID]
			if ok {
				points = append(points, ownroute.Location{Lat: node.Lat, Lon: node.Lon})
			}
		}

		if opts.Bounds != nil && !atLeastOneNodeInBounds(points, *opts.Bounds) {
			continue
		}

		for _, wayNode := range way.Nodes {
			referencedNodeIDs[wayNode.ID] = true
		}

		wayElements = append(wayElements, ownroute.NewWay(int64(way.ID), nodeIDs, tagMapFromOSMTags(way.Tags)))
	}

	for _, node := range nodes {
		if !referencedNodeIDs[node.ID] {
			continue
		}
		doc.Elements = append(doc.Elements, ownroute.NewNode(int64(node.ID), node.Lat, node.Lon, tagMapFromOSMTags(node.Tags)))
	}

	doc.Elements = append(doc.Elements, wayElements...)

	return doc, nil
}

func tagMapFromOSMTags(tags osm.Tags) ownroute.TagMap {
	if len(tags) == 0 {
		return nil
	}

	tagMap := make(ownroute.TagMap, len(tags))
	for _, tag := range tags {
		tagMap[tag.Key] = tag.Value
	}
	return tagMap
}

func calcBoundsForWay(points []ownroute.Location) osm.Bounds {
	objBounds := osm.Bounds{
		MaxLat: -90,
		MinLat: 90,
		MaxLon: -180,
		MinLon: 180,
	}
	for _, point := range points {
		if point.Lat < objBounds.MinLat {
			objBounds.MinLat = point.Lat
		}
		if point.Lat > objBounds.MaxLat {
			objBounds.MaxLat = point.Lat
		}
		if point.Lon < objBounds.MinLon {
			objBounds.MinLon = point.Lon
		}
		if point.Lon > objBounds.MaxLon {
			objBounds.MaxLon = point.Lon
		}
	}
	return objBounds
}

func atLeastOneNodeInBounds(points []ownroute.Location, bounds osm.Bounds) bool {
	if len(points) == 0 {
		return false
	}

	// cheap check on the way's bounding box first
	if !ownroute.Overlaps(calcBoundsForWay(points), bounds) {
		return false
	}

	for _, point := range points {
		if ownroute.IsInBounds(bounds, point) {
			return true
		}
	}

	return false
}
