package ownroutedal

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
)

type PathsConfig struct {
	CacheDir        string
	RawDataFilesDir string
	TempDir         string
	TraceDir        string
}

func (pc *PathsConfig) EnsurePaths(fs gofs.Fs) errorsx.Error {
	for _, dirPath := range []string{pc.CacheDir, pc.RawDataFilesDir, pc.TempDir, pc.TraceDir} {
		if dirPath == "" {
			continue
		}

		err := fs.MkdirAll(dirPath, 0755)
		if err != nil {
			return errorsx.Wrap(err, "dirPath", dirPath)
		}
	}

	return nil
}
