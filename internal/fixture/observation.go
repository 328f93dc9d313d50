package fixture

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Mohi32/signal-emulator/internal/observation"
	cache "github.com/Mohi32/signal-emulator/internal/store"
)

// ObservationFileDoc is the on-disk shape of one site's M37 averages.
type ObservationFileDoc struct {
	Observations []observationDoc `yaml:"observations"`
}

type observationDoc struct {
	Site           string `yaml:"site"`
	StageID        string `yaml:"stage_id"`
	TotalTime      int    `yaml:"total_time"`
	GreenTime      int    `yaml:"green_time"`
	InterstageTime int    `yaml:"interstage_time"`
	CycleTime      int    `yaml:"cycle_time"`
}

// DecodeObservationFile merges one file's observations into store.
func DecodeObservationFile(data []byte, store *observation.Store) error {
	var doc ObservationFileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("fixture: decode observation file: %w", err)
	}
	return mergeObservationDoc(doc, store)
}

// mergeObservationDoc merges an already-decoded ObservationFileDoc into
// store, split out from DecodeObservationFile so LoadObservationDirCached
// can skip straight here on a cache hit instead of re-running
// yaml.Unmarshal.
func mergeObservationDoc(doc ObservationFileDoc, store *observation.Store) error {
	for _, o := range doc.Observations {
		store.Add(observation.StageObservation{
			Site:           o.Site,
			StageID:        o.StageID,
			TotalTime:      o.TotalTime,
			GreenTime:      o.GreenTime,
			InterstageTime: o.InterstageTime,
			CycleTime:      o.CycleTime,
		})
	}
	return nil
}

// LoadObservationDir decodes every *.yaml/*.yml file directly under dir
// into one shared observation.Store.
func LoadObservationDir(dir string) (*observation.Store, error) {
	return LoadObservationDirCached(context.Background(), dir, nil)
}

// LoadObservationDirCached is LoadObservationDir with an optional
// read-through cache.Store; see LoadControllerDirCached for the caching
// behavior.
func LoadObservationDirCached(ctx context.Context, dir string, c *cache.Store) (*observation.Store, error) {
	paths, err := yamlFilesIn(dir)
	if err != nil {
		return nil, err
	}

	store := observation.NewStore()
	for _, path := range paths {
		var doc ObservationFileDoc
		if err := readCachedDoc(ctx, c, cache.KindObservation, path, &doc, yaml.Unmarshal); err != nil {
			return nil, fmt.Errorf("fixture: %s: %w", path, err)
		}
		if err := mergeObservationDoc(doc, store); err != nil {
			return nil, fmt.Errorf("fixture: %s: %w", path, err)
		}
	}
	return store, nil
}
