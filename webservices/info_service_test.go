package webservices

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type infoResponseForTest struct {
	Caches  []string `json:"caches"`
	Sources []struct {
		Key          string `json:"key"`
		ElementCount int    `json:"elementCount"`
		NodeCount    int    `json:"nodeCount"`
		WayCount     int    `json:"wayCount"`
		Bounds       *struct {
			MinLat float64 `json:"minlat"`
		} `json:"bounds"`
	} `json:"sources"`
}

func TestInfoService(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/info/", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp infoResponseForTest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, []string{"memory"}, resp.Caches)
	require.Len(t, resp.Sources, 3)
	assert.Equal(t, "empty", resp.Sources[0].Key)
	assert.Nil(t, resp.Sources[0].Bounds)
	assert.Equal(t, "equator", resp.Sources[1].Key)
	assert.Equal(t, 4, resp.Sources[1].ElementCount)
	assert.Equal(t, 3, resp.Sources[1].NodeCount)
	assert.Equal(t, 1, resp.Sources[1].WayCount)
	assert.Equal(t, "islands", resp.Sources[2].Key)
	require.NotNil(t, resp.Sources[2].Bounds)
	assert.Equal(t, float64(10), resp.Sources[2].Bounds.MinLat)
}

func TestInfoService_bounds(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name         string
		bounds       string
		expectedKeys []string
	}{
		{"around the islands", "(9,9,12,12)", []string{"islands"}},
		{"overlapping the equator road", "-1,0.0015,1,5", []string{"equator"}},
		{"covering both", "(-20,-20,20,20)", []string{"equator", "islands"}},
		{"open ocean", "(-50,-50,-40,-40)", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodGet, "/api/info/?bounds="+tt.bounds, "")
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

			var resp infoResponseForTest
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

			keys := []string{}
			for _, source := range resp.Sources {
				keys = append(keys, source.Key)
			}
			assert.Equal(t, tt.expectedKeys, keys)
		})
	}

	t.Run("bad bounds", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/api/info/?bounds=(1,2,3)", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
