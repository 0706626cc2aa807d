package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/paulmach/osm"
)

var ErrPlaceNotFound = errors.New("place not found")

// searchResult is one entry of a Nominatim /search?format=json response.
// Coordinates come back as strings; boundingbox is [south, north, west, east].
type searchResult struct {
	DisplayName string   `json:"display_name"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"`
}

type Client struct {
	doer      httpextra.Doer
	baseURL   string
	userAgent string
}

func NewClient(doer httpextra.Doer, baseURL, userAgent string) *Client {
	return &Client{doer, strings.TrimSuffix(baseURL, "/"), userAgent}
}

func (c *Client) GeocodeBounds(ctx context.Context, place string) (osm.Bounds, errorsx.Error) {
	result, err := c.search(ctx, place)
	if err != nil {
		return osm.Bounds{}, err
	}

	bounds, err := parseBoundingBox(result.BoundingBox)
	if err != nil {
		return osm.Bounds{}, errorsx.Wrap(err, "place", place)
	}

	return bounds, nil
}

func (c *Client) GeocodePoint(ctx context.Context, place string) (ownroute.Location, errorsx.Error) {
	result, err := c.search(ctx, place)
	if err != nil {
		return ownroute.Location{}, err
	}

	location, parseErr := ownroute.ParseLatLonString(result.Lat + "," + result.Lon)
	if parseErr != nil {
		return ownroute.Location{}, errorsx.Wrap(parseErr, "place", place, "lat", result.Lat, "lon", result.Lon)
	}

	return location, nil
}

func (c *Client) search(ctx context.Context, place string) (*searchResult, errorsx.Error) {
	query := url.Values{}
	query.Set("q", place)
	query.Set("format", "json")
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/search?%s", c.baseURL, query.Encode()), nil)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	// the public Nominatim instance rejects requests without an identifying user agent
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, errorsx.Wrap(err, "place", place)
	}
	defer resp.Body.Close()

	err = httpextra.CheckResponseCode(http.StatusOK, resp.StatusCode)
	if err != nil {
		return nil, errorsx.Wrap(err, "place", place, "body", httpextra.GetBodyOrErrorMsg(resp))
	}

	var results []searchResult
	err = json.NewDecoder(resp.Body).Decode(&results)
	if err != nil {
		return nil, errorsx.Wrap(err, "place", place)
	}

	if len(results) == 0 {
		return nil, errorsx.Wrap(ErrPlaceNotFound, "place", place)
	}

	return &results[0], nil
}

func parseBoundingBox(bbox []string) (osm.Bounds, errorsx.Error) {
	if len(bbox) != 4 {
		return osm.Bounds{}, errorsx.Errorf("expected 4 values in bounding box, got %d", len(bbox))
	}

	var values [4]float64
	for i, value := range bbox {
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return osm.Bounds{}, errorsx.Wrap(err, "value", value)
		}
		values[i] = f
	}

	return osm.Bounds{
		MinLat: values[0],
		MaxLat: values[1],
		MinLon: values[2],
		MaxLon: values[3],
	}, nil
}
