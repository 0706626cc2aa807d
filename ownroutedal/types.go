package ownroutedal

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/jamesrr39/goutil/dirtraversal"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownroute-app/ownroute"
)

var (
	ErrCacheMiss         = errors.New("cache miss")
	ErrMapSourceNotFound = errors.New("map source not found")
	ErrInvalidCacheKey   = errors.New("invalid cache key")
)

// MapDocumentCache stores map documents by key. Get returns ErrCacheMiss (wrapped) for an unknown key.
type MapDocumentCache interface {
	Name() string
	Get(ctx context.Context, key string) (*ownroute.MapDocument, errorsx.Error)
	Put(ctx context.Context, key string, doc *ownroute.MapDocument) errorsx.Error
	Keys(ctx context.Context) ([]string, errorsx.Error)
}

// CacheKeyFromPlaceName turns a place name into a cache key:
// lower case, spaces replaced with underscores and commas removed.
// "Belo Horizonte, Minas Gerais" becomes "belo_horizonte_minas_gerais".
func CacheKeyFromPlaceName(place string) string {
	key := strings.ToLower(strings.TrimSpace(place))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, ",", "")
	key = strings.ReplaceAll(key, "/", "")
	key = strings.ReplaceAll(key, string(filepath.Separator), "")
	return key
}

func ValidateCacheKey(key string) errorsx.Error {
	if key == "" {
		return errorsx.Wrap(ErrInvalidCacheKey, "reason", "empty key")
	}

	if dirtraversal.IsTryingToTraverseUp(key) || strings.ContainsAny(key, `/\`) {
		return errorsx.Wrap(ErrInvalidCacheKey, "key", key)
	}

	return nil
}

type CacheBackendType string

const (
	CacheBackendTypeFile       CacheBackendType = "file"
	CacheBackendTypePostgresql CacheBackendType = "postgresql"
	CacheBackendTypeMemory     CacheBackendType = "memory"
)

type CacheConnectionURL struct {
	Type           CacheBackendType
	ConnectionPath string
}

const ConnectionPathSeparator = "://"

// ParseCacheConnString parses strings like "file://path/to/cache/dir" or "postgresql://user@host/db"
func ParseCacheConnString(str string) (CacheConnectionURL, errorsx.Error) {
	idx := strings.Index(str, ConnectionPathSeparator)
	if idx < 0 {
		return CacheConnectionURL{}, errorsx.Errorf("couldn't find connection path separator %q in cache connection string", ConnectionPathSeparator)
	}

	connURL := CacheConnectionURL{
		Type:           CacheBackendType(str[:idx]),
		ConnectionPath: str[idx+len(ConnectionPathSeparator):],
	}

	switch connURL.Type {
	case CacheBackendTypeFile, CacheBackendTypePostgresql, CacheBackendTypeMemory:
		return connURL, nil
	default:
		return CacheConnectionURL{}, errorsx.Errorf("unknown cache backend type: %q", connURL.Type)
	}
}
