package energydal

import (
	"os"
	"path/filepath"

	"github.com/jamesrr39/goutil/errorsx"
)

type PathsConfig struct {
	DataDir  string
	TraceDir string
}

func (pc *PathsConfig) EnsurePaths() errorsx.Error {
	for _, dirPath := range []string{pc.DataDir, pc.TraceDir} {
		err := os.MkdirAll(dirPath, 0755)
		if err != nil {
			return errorsx.Wrap(err)
		}
	}

	return nil
}

func (pc *PathsConfig) StationsFilePath() string {
	return filepath.Join(pc.DataDir, StationsFileName)
}

func (pc *PathsConfig) OblastsFilePath() string {
	return filepath.Join(pc.DataDir, OblastsFileName)
}
