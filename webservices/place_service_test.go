package webservices

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceWebService_load(t *testing.T) {
	env := newTestEnv(t)

	var resp placeResponseType
	rr := env.do(http.MethodPost, "/api/places/", `{"place":"Testville"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, "testville", resp.Key)
	assert.Equal(t, 4, resp.ElementCount)
	assert.False(t, resp.FromCache)
	require.NotNil(t, resp.Bounds)
	assert.Equal(t, 0.002, resp.Bounds.MaxLon)

	rr = env.do(http.MethodPost, "/api/places/", `{"place":"Testville"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.FromCache)

	assert.Equal(t, int32(1), env.fetches())
}

func TestPlaceWebService_cityAndState(t *testing.T) {
	env := newTestEnv(t)

	var resp placeResponseType
	rr := env.do(http.MethodPost, "/api/places/", `{"city":"Belo Horizonte","state":"Minas Gerais"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, "belo_horizonte_minas_gerais", resp.Key)
}

func TestPlaceWebService_errors(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"no place", `{}`, http.StatusBadRequest},
		{"state without city", `{"state":"Minas Gerais"}`, http.StatusBadRequest},
		{"place not found", `{"place":"Nowhere"}`, http.StatusNotFound},
		{"invalid key", `{"place":".."}`, http.StatusBadRequest},
		{"not json", `place=Testville`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			rr := env.do(http.MethodPost, "/api/places/", tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
			assert.Equal(t, int32(0), env.fetches())
		})
	}
}

func TestPlaceWebService_queue(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/places/queue", `{"place":"Queueville"}`)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	env.fetchQueue.Wait()

	rr = env.do(http.MethodGet, "/api/places/queue", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var items []struct {
		Place        string `json:"place"`
		Key          string `json:"key"`
		Status       string `json:"status"`
		ElementCount int    `json:"elementCount"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Queueville", items[0].Place)
	assert.Equal(t, "queueville", items[0].Key)
	assert.Equal(t, "Done", items[0].Status)
	assert.Equal(t, 4, items[0].ElementCount)

	t.Run("invalid place", func(t *testing.T) {
		rr := env.do(http.MethodPost, "/api/places/queue", `{"city":""}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPlaceWebService_route(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/places/route", `{"place":"Testville","origin":"Rua A, Testville","destination":"Rua B, Testville"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp routeResponseForTest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []int64{1, 2, 3}, resp.Path)
	assert.NotEmpty(t, resp.Polyline)

	t.Run("unknown address", func(t *testing.T) {
		rr := env.do(http.MethodPost, "/api/places/route", `{"place":"Testville","origin":"Rua A, Testville","destination":"Rua Z, Testville"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("missing address", func(t *testing.T) {
		rr := env.do(http.MethodPost, "/api/places/route", `{"place":"Testville","origin":"Rua A, Testville"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
