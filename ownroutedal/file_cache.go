package ownroutedal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/ownroute-app/ownroute"
)

const fileCacheSuffix = "_osm.json"

var _ MapDocumentCache = &FileCache{}

// FileCache stores each document as JSON in <dirPath>/<key>_osm.json
type FileCache struct {
	fs      gofs.Fs
	dirPath string
}

func NewFileCache(fs gofs.Fs, dirPath string) (*FileCache, errorsx.Error) {
	err := fs.MkdirAll(dirPath, 0755)
	if err != nil {
		return nil, errorsx.Wrap(err, "dirPath", dirPath)
	}

	return &FileCache{fs, dirPath}, nil
}

func (c *FileCache) Name() string {
	return "file:" + c.dirPath
}

func (c *FileCache) filePath(key string) string {
	return filepath.Join(c.dirPath, key+fileCacheSuffix)
}

func (c *FileCache) Get(ctx context.Context, key string) (*ownroute.MapDocument, errorsx.Error) {
	err := ValidateCacheKey(key)
	if err != nil {
		return nil, err
	}

	b, readErr := c.fs.ReadFile(c.filePath(key))
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return nil, errorsx.Wrap(ErrCacheMiss, "key", key, "cache", c.Name())
		}
		return nil, errorsx.Wrap(readErr, "key", key)
	}

	doc := new(ownroute.MapDocument)
	unmarshalErr := json.Unmarshal(b, doc)
	if unmarshalErr != nil {
		return nil, errorsx.Wrap(unmarshalErr, "key", key)
	}

	return doc, nil
}

// Put writes to a temporary file first, so readers never see a half-written document
func (c *FileCache) Put(ctx context.Context, key string, doc *ownroute.MapDocument) errorsx.Error {
	err := ValidateCacheKey(key)
	if err != nil {
		return err
	}

	b, marshalErr := json.Marshal(doc)
	if marshalErr != nil {
		return errorsx.Wrap(marshalErr, "key", key)
	}

	filePath := c.filePath(key)
	tempFilePath := filePath + ".tmp"

	writeErr := c.fs.WriteFile(tempFilePath, b, 0644)
	if writeErr != nil {
		return errorsx.Wrap(writeErr, "key", key)
	}

	renameErr := c.fs.Rename(tempFilePath, filePath)
	if renameErr != nil {
		return errorsx.Wrap(renameErr, "key", key)
	}

	return nil
}

func (c *FileCache) Keys(ctx context.Context) ([]string, errorsx.Error) {
	fileInfos, err := c.fs.ReadDir(c.dirPath)
	if err != nil {
		return nil, errorsx.Wrap(err, "dirPath", c.dirPath)
	}

	keys := []string{}
	for _, fileInfo := range fileInfos {
		if fileInfo.IsDir() || !strings.HasSuffix(fileInfo.Name(), fileCacheSuffix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(fileInfo.Name(), fileCacheSuffix))
	}
	sort.Strings(keys)

	return keys, nil
}
