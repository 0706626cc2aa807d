package ownroute

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jamesrr39/goutil/errorsx"
)

var (
	ErrMalformedDocument = errors.New("malformed document")
)

type ObjectType string

const (
	ObjectTypeNode     ObjectType = "node"
	ObjectTypeWay      ObjectType = "way"
	ObjectTypeRelation ObjectType = "relation"
)

type TagMap map[string]string

// Element is one entry of a MapDocument. Nodes carry Lat/Lon, ways carry Nodes.
// Element types other than node and way are kept as-is, but not otherwise understood.
type Element struct {
	Type  ObjectType `json:"type"`
	ID    int64      `json:"id"`
	Lat   *float64   `json:"lat,omitempty"`
	Lon   *float64   `json:"lon,omitempty"`
	Nodes []int64    `json:"nodes,omitempty"`
	Tags  TagMap     `json:"tags,omitempty"`

	// idMissing is set when a decoded element had no "id" field. 0 is a valid id.
	idMissing bool
}

type elementJSONType struct {
	Type  ObjectType `json:"type"`
	ID    *int64     `json:"id"`
	Lat   *float64   `json:"lat"`
	Lon   *float64   `json:"lon"`
	Nodes []int64    `json:"nodes"`
	Tags  TagMap     `json:"tags"`
}

func (e *Element) UnmarshalJSON(b []byte) error {
	var decoded elementJSONType
	err := json.Unmarshal(b, &decoded)
	if err != nil {
		return err
	}

	*e = Element{
		Type:      decoded.Type,
		Lat:       decoded.Lat,
		Lon:       decoded.Lon,
		Nodes:     decoded.Nodes,
		Tags:      decoded.Tags,
		idMissing: decoded.ID == nil,
	}
	if decoded.ID != nil {
		e.ID = *decoded.ID
	}

	return nil
}

func NewNode(id int64, lat, lon float64, tags TagMap) *Element {
	return &Element{
		Type: ObjectTypeNode,
		ID:   id,
		Lat:  &lat,
		Lon:  &lon,
		Tags: tags,
	}
}

func NewWay(id int64, nodeIDs []int64, tags TagMap) *Element {
	return &Element{
		Type:  ObjectTypeWay,
		ID:    id,
		Nodes: nodeIDs,
		Tags:  tags,
	}
}

// Validate checks the fields an element of its type needs to take part in a graph
func (e *Element) Validate() errorsx.Error {
	if e.idMissing {
		return errorsx.Wrap(ErrMalformedDocument, "reason", "missing id", "type", string(e.Type))
	}

	switch e.Type {
	case ObjectTypeNode:
		if e.Lat == nil || e.Lon == nil {
			return errorsx.Wrap(ErrMalformedDocument, "reason", "node missing lat/lon", "id", e.ID)
		}
	case ObjectTypeWay:
		if len(e.Nodes) == 0 {
			return errorsx.Wrap(ErrMalformedDocument, "reason", "way has no node references", "id", e.ID)
		}
	}

	return nil
}

// Location returns the location of a node element. The second return value is false for elements without a position.
func (e *Element) Location() (Location, bool) {
	if e.Lat == nil || e.Lon == nil {
		return Location{}, false
	}

	return Location{Lat: *e.Lat, Lon: *e.Lon}, true
}

func (e *Element) String() string {
	return fmt.Sprintf("%s/%d", e.Type, e.ID)
}

// MapDocument is an ordered list of elements, in the shape returned by the Overpass API ([out:json]).
type MapDocument struct {
	Elements []*Element `json:"elements"`
}

type DocumentSummary struct {
	ElementCount int `json:"elementCount"`
	NodeCount    int `json:"nodeCount"`
	WayCount     int `json:"wayCount"`
}

func (doc *MapDocument) Summary() DocumentSummary {
	var summary DocumentSummary
	for _, element := range doc.Elements {
		if element == nil {
			continue
		}
		summary.ElementCount++
		switch element.Type {
		case ObjectTypeNode:
			summary.NodeCount++
		case ObjectTypeWay:
			summary.WayCount++
		}
	}
	return summary
}

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
