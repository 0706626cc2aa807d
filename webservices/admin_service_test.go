package webservices

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOSMXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6">
	<node id="1" lat="5" lon="5"></node>
	<node id="2" lat="5" lon="5.001"></node>
	<node id="3" lat="6" lon="6"></node>
	<way id="100">
		<nd ref="1"></nd>
		<nd ref="2"></nd>
		<tag k="highway" v="residential"></tag>
	</way>
	<way id="101">
		<nd ref="2"></nd>
		<nd ref="3"></nd>
		<tag k="waterway" v="river"></tag>
	</way>
</osm>`

func TestAdminService_get(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.fetchQueue.AddPlaceToQueue("Queueville")
	require.Nil(t, err)
	env.fetchQueue.Wait()

	rr := env.do(http.MethodGet, "/admin/", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := rr.Body.String()
	assert.Contains(t, body, "equator")
	assert.Contains(t, body, "islands")
	assert.Contains(t, body, "Queueville (queueville)")
	assert.Contains(t, body, "/data/raw")
}

func TestAdminService_postRawDataFile(t *testing.T) {
	env := newTestEnv(t)

	bb := bytes.NewBuffer(nil)
	writer := multipart.NewWriter(bb)
	part, err := writer.CreateFormFile("rawDataFile", "Test Town.osm")
	require.NoError(t, err)
	_, err = part.Write([]byte(testOSMXML))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/rawDataFile", bb)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp importResponseType
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "test_town", resp.Key)
	// the river is not a road, and node 3 is only on the river
	assert.Equal(t, 3, resp.ElementCount)

	doc, getErr := env.cacheSet.Get(context.Background(), "test_town")
	require.Nil(t, getErr)
	assert.Equal(t, 1, doc.Summary().WayCount)

	rawData, err := env.fs.ReadFile("/data/raw/Test Town.osm")
	require.NoError(t, err)
	assert.Equal(t, testOSMXML, string(rawData))

	t.Run("no file", func(t *testing.T) {
		rr := env.do(http.MethodPost, "/admin/rawDataFile", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
