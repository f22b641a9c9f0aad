package dataset

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"olist-dashboard/internal/models"
)

const cacheVersion = "v2"

// snapshotKey identifies what a snapshot was parsed from. Table is empty for
// CSV sources.
type snapshotKey struct {
	Source        string
	Table         string
	SkipMalformed bool
}

func keyFor(path string, opts Options) snapshotKey {
	key := snapshotKey{Source: path, SkipMalformed: opts.SkipMalformed}
	if isSQLite(path) {
		key.Table = tableName(opts)
	}
	return key
}

// snapshot is the on-disk form of a parsed dataset.
type snapshot struct {
	Key       snapshotKey
	CreatedAt time.Time
	Records   models.RecordSet
}

func snapshotFilename(cacheDir string, key snapshotKey) string {
	name := key.Source
	if key.Table != "" {
		name += "#" + key.Table
	}
	name = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "#", "_").Replace(name)
	return filepath.Join(cacheDir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func saveSnapshot(cacheDir string, key snapshotKey, records models.RecordSet) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}

	filename := snapshotFilename(cacheDir, key)
	tmp := filename + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	encoder := gob.NewEncoder(file)
	err = encoder.Encode(snapshot{
		Key:       key,
		CreatedAt: time.Now(),
		Records:   records,
	})
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, filename)
}

// loadSnapshot returns the cached records for key when the snapshot was
// written after the source was last modified.
func loadSnapshot(cacheDir string, key snapshotKey, sourceModTime time.Time) (models.RecordSet, error) {
	file, err := os.Open(snapshotFilename(cacheDir, key))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, err
	}

	if snap.Key != key {
		return nil, fmt.Errorf("snapshot does not match %s", key.Source)
	}
	if !sourceModTime.Before(snap.CreatedAt) {
		return nil, fmt.Errorf("snapshot is stale")
	}

	return snap.Records, nil
}
