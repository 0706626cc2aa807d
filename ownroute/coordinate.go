package ownroute

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
)

var (
	ErrInvalidCoordinateFormat = errors.New("invalid coordinate format")
)

type coordinateKind int

const (
	coordinateKindPair coordinateKind = iota + 1
	coordinateKindRaw
)

// Coordinate is a query point, either a lat/lon pair or a raw "lat,lon" string which still has to be parsed.
// The zero value is not a valid coordinate.
type Coordinate struct {
	kind     coordinateKind
	location Location
	raw      string
}

func CoordinateFromPair(lat, lon float64) Coordinate {
	return Coordinate{kind: coordinateKindPair, location: Location{Lat: lat, Lon: lon}}
}

func CoordinateFromString(raw string) Coordinate {
	return Coordinate{kind: coordinateKindRaw, raw: raw}
}

// Resolve returns the location the coordinate points at
func (c Coordinate) Resolve() (Location, errorsx.Error) {
	switch c.kind {
	case coordinateKindPair:
		return c.location, nil
	case coordinateKindRaw:
		return ParseLatLonString(c.raw)
	default:
		return Location{}, errorsx.Wrap(ErrInvalidCoordinateFormat, "reason", "empty coordinate")
	}
}

func (c Coordinate) String() string {
	switch c.kind {
	case coordinateKindPair:
		return fmt.Sprintf("%v,%v", c.location.Lat, c.location.Lon)
	case coordinateKindRaw:
		return c.raw
	default:
		return ""
	}
}

// ParseLatLonString parses "lat,lon", for example "-23.55,-46.63"
func ParseLatLonString(raw string) (Location, errorsx.Error) {
	fragments := strings.Split(raw, ",")
	if len(fragments) != 2 {
		return Location{}, errorsx.Wrap(ErrInvalidCoordinateFormat, "input", raw)
	}

	var values [2]float64
	for i, fragment := range fragments {
		value, err := strconv.ParseFloat(strings.TrimSpace(fragment), 64)
		if err != nil {
			return Location{}, errorsx.Wrap(ErrInvalidCoordinateFormat, "input", raw, "parseError", err.Error())
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return Location{}, errorsx.Wrap(ErrInvalidCoordinateFormat, "input", raw)
		}
		values[i] = value
	}

	return Location{Lat: values[0], Lon: values[1]}, nil
}

type coordinateObjectType struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
	Lon *float64 `json:"lon"`
}

// UnmarshalJSON accepts {"lat":..,"lng":..} (or "lon"), [lat, lon], or "lat,lon"
func (c *Coordinate) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" || trimmed == "null" {
		return errorsx.Wrap(ErrInvalidCoordinateFormat, "input", trimmed)
	}

	switch trimmed[0] {
	case '"':
		var raw string
		err := json.Unmarshal(b, &raw)
		if err != nil {
			return errorsx.Wrap(ErrInvalidCoordinateFormat, "input", trimmed)
		}
		*c = CoordinateFromString(raw)
		return nil
	case '[':
		var pair []float64
		err := json.Unmarshal(b, &pair)
		if err != nil || len(pair) != 2 {
			return errorsx.Wrap(ErrInvalidCoordinateFormat, "input", trimmed)
		}
		*c = CoordinateFromPair(pair[0], pair[1])
		return nil
	case '{':
		var obj coordinateObjectType
		err := json.Unmarshal(b, &obj)
		if err != nil {
			return errorsx.Wrap(ErrInvalidCoordinateFormat, "input", trimmed)
		}
		lon := obj.Lng
		if lon == nil {
			lon = obj.Lon
		}
		if obj.Lat == nil || lon == nil {
			return errorsx.Wrap(ErrInvalidCoordinateFormat, "input", trimmed)
		}
		*c = CoordinateFromPair(*obj.Lat, *lon)
		return nil
	default:
		return errorsx.Wrap(ErrInvalidCoordinateFormat, "input", trimmed)
	}
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	if c.kind == coordinateKindRaw {
		return json.Marshal(c.raw)
	}

	return json.Marshal(map[string]float64{
		"lat": c.location.Lat,
		"lng": c.location.Lon,
	})
}
