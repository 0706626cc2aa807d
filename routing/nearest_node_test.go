package routing

import (
	"math"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestNode(t *testing.T) {
	nodeTable := NewNodeTable()
	nodeTable.Add(1, ownroute.Location{Lat: 0, Lon: 0})
	nodeTable.Add(2, ownroute.Location{Lat: 0, Lon: 0.001})
	nodeTable.Add(3, ownroute.Location{Lat: 0, Lon: 0.002})

	tests := []struct {
		name  string
		point ownroute.Location
		want  int64
	}{
		{"close to the middle node", ownroute.Location{Lat: 0.0001, Lon: 0.0011}, 2},
		{"exactly on a node", ownroute.Location{Lat: 0, Lon: 0.002}, 3},
		{"far away", ownroute.Location{Lat: 50, Lon: -50}, 1},
		{"tie between the first two nodes goes to the first added", ownroute.Location{Lat: 0, Lon: 0.0005}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NearestNode(nodeTable, tt.point)
			require.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNearestNode_tieFollowsInsertionOrder(t *testing.T) {
	nodeTable := NewNodeTable()
	nodeTable.Add(20, ownroute.Location{Lat: 1, Lon: 0})
	nodeTable.Add(10, ownroute.Location{Lat: -1, Lon: 0})

	got, err := NearestNode(nodeTable, ownroute.Location{Lat: 0, Lon: 0})
	require.Nil(t, err)
	assert.Equal(t, int64(20), got)
}

func TestNearestNode_nearlyEquidistant(t *testing.T) {
	nodeTable := NewNodeTable()
	nodeTable.Add(100, ownroute.Location{Lat: 10.0, Lon: 20.0})
	nodeTable.Add(200, ownroute.Location{Lat: 10.001, Lon: 20.001})

	got, err := NearestNode(nodeTable, ownroute.Location{Lat: 10.0005, Lon: 20.0005})
	require.Nil(t, err)
	assert.Equal(t, int64(100), got)
}

func TestNearestNode_errors(t *testing.T) {
	_, err := NearestNode(NewNodeTable(), ownroute.Location{})
	require.NotNil(t, err)
	assert.Equal(t, ErrNoNodesAvailable, errorsx.Cause(err))

	nodeTable := NewNodeTable()
	nodeTable.Add(1, ownroute.Location{})

	_, err = NearestNode(nodeTable, ownroute.Location{Lat: math.NaN()})
	require.NotNil(t, err)
	assert.Equal(t, ownroute.ErrInvalidCoordinateFormat, errorsx.Cause(err))

	_, err = NearestNodeToCoordinate(nodeTable, ownroute.CoordinateFromString("0;0"))
	require.NotNil(t, err)
	assert.Equal(t, ownroute.ErrInvalidCoordinateFormat, errorsx.Cause(err))

	got, err := NearestNodeToCoordinate(nodeTable, ownroute.CoordinateFromString("0.1,0.1"))
	require.Nil(t, err)
	assert.Equal(t, int64(1), got)
}
