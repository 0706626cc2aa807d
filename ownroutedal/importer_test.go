package ownroutedal

import (
	"context"
	"errors"
	"testing"

	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/jamesrr39/ownroute-app/ownroutedal/testmocks"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOSMObjects() []osm.Object {
	return []osm.Object{
		&osm.Node{ID: 1, Lat: 0, Lon: 0},
		&osm.Node{ID: 2, Lat: 0, Lon: 0.001, Tags: osm.Tags{{Key: "highway", Value: "crossing"}}},
		&osm.Node{ID: 3, Lat: 0, Lon: 0.002},
		// not on any way
		&osm.Node{ID: 4, Lat: 5, Lon: 5},
		&osm.Node{ID: 5, Lat: 10, Lon: 10},
		&osm.Node{ID: 6, Lat: 10, Lon: 10.001},
		&osm.Way{ID: 100, Nodes: osm.WayNodes{{ID: 1}, {ID: 2}, {ID: 3}}, Tags: osm.Tags{{Key: "highway", Value: "primary"}, {Key: "oneway", Value: "yes"}}},
		&osm.Way{ID: 101, Nodes: osm.WayNodes{{ID: 4}, {ID: 1}}, Tags: osm.Tags{{Key: "building", Value: "yes"}}},
		&osm.Way{ID: 102, Nodes: osm.WayNodes{{ID: 5}, {ID: 6}}, Tags: osm.Tags{{Key: "highway", Value: "residential"}}},
		&osm.Relation{ID: 200},
	}
}

func TestImportFromScanner(t *testing.T) {
	scanner := testmocks.NewMockObjectScannerFromObjects(testOSMObjects()...)

	doc, err := ImportFromScanner(scanner, DefaultImportOptions())
	require.Nil(t, err)

	var ids []string
	for _, element := range doc.Elements {
		ids = append(ids, element.String())
	}
	assert.Equal(t, []string{"node/1", "node/2", "node/3", "node/5", "node/6", "way/100", "way/102"}, ids)

	way := doc.Elements[5]
	assert.Equal(t, []int64{1, 2, 3}, way.Nodes)
	assert.Equal(t, ownroute.TagMap{"highway": "primary", "oneway": "yes"}, way.Tags)
	assert.Equal(t, ownroute.TagMap{"highway": "crossing"}, doc.Elements[1].Tags)
	assert.Nil(t, doc.Elements[0].Tags)
}

func TestImportFromScanner_bounds(t *testing.T) {
	scanner := testmocks.NewMockObjectScannerFromObjects(testOSMObjects()...)

	doc, err := ImportFromScanner(scanner, ImportOptions{
		Bounds: &osm.Bounds{MinLat: 9, MaxLat: 11, MinLon: 9, MaxLon: 11},
	})
	require.Nil(t, err)

	summary := doc.Summary()
	assert.Equal(t, 2, summary.NodeCount)
	assert.Equal(t, 1, summary.WayCount)
}

func TestImportFromScanner_noTagFilter(t *testing.T) {
	scanner := testmocks.NewMockObjectScannerFromObjects(testOSMObjects()...)

	doc, err := ImportFromScanner(scanner, ImportOptions{})
	require.Nil(t, err)
	assert.Equal(t, 3, doc.Summary().WayCount)
	assert.Equal(t, 6, doc.Summary().NodeCount)
}

func TestImportFromScanner_scanError(t *testing.T) {
	errScan := errors.New("truncated file")
	scanner := testmocks.NewMockObjectScannerFromObjects()
	scanner.ErrFunc = func() error {
		return errScan
	}

	_, err := ImportFromScanner(scanner, DefaultImportOptions())
	require.NotNil(t, err)
}

const testOSMXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6">
	<node id="1" lat="0" lon="0"></node>
	<node id="2" lat="0" lon="0.001"></node>
	<way id="100">
		<nd ref="1"></nd>
		<nd ref="2"></nd>
		<tag k="highway" v="residential"></tag>
	</way>
</osm>`

func TestImportOSMFile_xml(t *testing.T) {
	fs := mockfs.NewMockFs()
	err := fs.WriteFile("/data/extract.osm", []byte(testOSMXML), 0644)
	require.NoError(t, err)

	doc, importErr := ImportOSMFile(context.Background(), newTestLogger(), fs, "/data/extract.osm", DefaultImportOptions())
	require.Nil(t, importErr)

	summary := doc.Summary()
	assert.Equal(t, 2, summary.NodeCount)
	assert.Equal(t, 1, summary.WayCount)
}
