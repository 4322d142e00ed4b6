package engine

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Clean removes every part file and resume state directly inside dir and
// returns the removed paths. Files that cannot be removed are skipped.
func Clean(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, entry := range entries {
		if entry.IsDir() || !isChunkArtifact(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Warn().Str("op", "engine/clean").Err(err).Msgf("Could not remove %s", path)
			continue
		}
		removed = append(removed, path)
	}
	return removed, nil
}
