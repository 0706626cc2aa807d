package routing

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownroute-app/ownroute"
)

var ErrNoMapSource = errors.New("no map source given")

// DocumentLoader fetches a stored map document by its cache key
type DocumentLoader interface {
	GetMapDocument(ctx context.Context, key string) (*ownroute.MapDocument, errorsx.Error)
}

// MapSource names the map data to route over: either the key of a stored document, or a document given inline.
// In JSON it is either a string (the key) or a document object.
type MapSource struct {
	Key      string
	Document *ownroute.MapDocument
}

func (s *MapSource) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "null" {
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		return json.Unmarshal(b, &s.Key)
	}

	s.Document = new(ownroute.MapDocument)
	return json.Unmarshal(b, s.Document)
}

func (s MapSource) MarshalJSON() ([]byte, error) {
	if s.Document != nil {
		return json.Marshal(s.Document)
	}
	return json.Marshal(s.Key)
}

func (s MapSource) IsEmpty() bool {
	return s.Key == "" && s.Document == nil
}

type RouteQuery struct {
	Origin      ownroute.Coordinate `json:"origin"`
	Destination ownroute.Coordinate `json:"destination"`
	MapSource   MapSource           `json:"mapSource"`
}

type FilterQuery struct {
	MapSource MapSource `json:"mapSource"`
	KeepIDs   []int64   `json:"keepIds"`
}

type RouteService struct {
	logger *logpkg.Logger
	loader DocumentLoader
}

func NewRouteService(logger *logpkg.Logger, loader DocumentLoader) *RouteService {
	return &RouteService{logger, loader}
}

func (s *RouteService) resolveMapSource(ctx context.Context, source MapSource) (*ownroute.MapDocument, errorsx.Error) {
	if source.Document != nil {
		return source.Document, nil
	}

	if source.Key == "" {
		return nil, errorsx.Wrap(ErrNoMapSource)
	}

	doc, err := s.loader.GetMapDocument(ctx, source.Key)
	if err != nil {
		return nil, errorsx.Wrap(err, "mapSource", source.Key)
	}

	return doc, nil
}

func (s *RouteService) Route(ctx context.Context, query RouteQuery) (*RouteResult, errorsx.Error) {
	doc, err := s.resolveMapSource(ctx, query.MapSource)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	startTime := time.Now()
	result, err := Execute(query.Origin, query.Destination, doc)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	s.logger.Debug(
		"graph built with %d nodes, %d ways, %d edges (skipped %d malformed elements, %d self loops, %d dangling references)",
		result.Stats.Nodes, result.Stats.Ways, result.Stats.Edges, result.Stats.SkippedElements, result.Stats.SelfLoops, result.Stats.DanglingRefs,
	)
	s.logger.Info("route from %s to %s: %d nodes, %.1fm, computed in %s", query.Origin, query.Destination, len(result.Path), result.DistanceMeters, time.Since(startTime))

	return result, nil
}

func (s *RouteService) Filter(ctx context.Context, query FilterQuery) (*ownroute.MapDocument, errorsx.Error) {
	doc, err := s.resolveMapSource(ctx, query.MapSource)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return ownroute.FilterDocument(doc, ownroute.NewIDSet(query.KeepIDs...)), nil
}
