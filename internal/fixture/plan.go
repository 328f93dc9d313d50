package fixture

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/plan"
	cache "github.com/Mohi32/signal-emulator/internal/store"
)

// PlanFileDoc is the on-disk shape of one controller's plans and PJA
// timetable entries.
type PlanFileDoc struct {
	Controller string          `yaml:"controller"`
	Streams    []streamPlanDoc `yaml:"streams"`
	Timetable  []timetableDoc  `yaml:"timetable"`
}

type streamPlanDoc struct {
	Stream int       `yaml:"stream"`
	Plans  []planDoc `yaml:"plans"`
}

type planDoc struct {
	Number    int       `yaml:"number"`
	Name      string    `yaml:"name"`
	CycleTime int       `yaml:"cycle_time"`
	Timeout   int       `yaml:"timeout"`
	Items     []itemDoc `yaml:"items"`
}

type itemDoc struct {
	Index      int      `yaml:"index"`
	PulseTime  int      `yaml:"pulse_time"`
	FBits      []string `yaml:"f_bits"`
	DBits      []string `yaml:"d_bits"`
	PBits      []string `yaml:"p_bits"`
	NTO        bool     `yaml:"nto"`
	ScootStage int      `yaml:"scoot_stage"`
}

type timetableDoc struct {
	Stream     int    `yaml:"stream"`
	Period     string `yaml:"period"`
	PlanNumber int    `yaml:"plan_number"`
}

// DecodePlanFile merges one controller's plans and timetable entries into
// store and timetable.
func DecodePlanFile(data []byte, store *plan.Store, timetable *plan.Timetable) error {
	var doc PlanFileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("fixture: decode plan file: %w", err)
	}
	return mergePlanDoc(doc, store, timetable)
}

// mergePlanDoc merges an already-decoded PlanFileDoc into store and
// timetable, split out from DecodePlanFile so LoadPlanDirCached can skip
// straight here on a cache hit instead of re-running yaml.Unmarshal.
func mergePlanDoc(doc PlanFileDoc, store *plan.Store, timetable *plan.Timetable) error {
	ctrl, err := controller.ParseKey(doc.Controller)
	if err != nil {
		return fmt.Errorf("fixture: plan file controller: %w", err)
	}

	for _, sp := range doc.Streams {
		for _, p := range sp.Plans {
			store.AddPlan(plan.Plan{
				Controller: ctrl,
				Stream:     sp.Stream,
				Number:     p.Number,
				Name:       p.Name,
				CycleTime:  p.CycleTime,
				Timeout:    p.Timeout,
			})
			for _, item := range p.Items {
				store.AddSequenceItem(plan.PlanSequenceItem{
					Controller: ctrl,
					Stream:     sp.Stream,
					PlanNumber: p.Number,
					Index:      item.Index,
					PulseTime:  item.PulseTime,
					FBits:      item.FBits,
					DBits:      item.DBits,
					PBits:      item.PBits,
					NTO:        item.NTO,
					ScootStage: item.ScootStage,
				})
			}
		}
	}

	for _, t := range doc.Timetable {
		timetable.Set(controller.StreamKey{Controller: ctrl, StreamNum: t.Stream}, t.Period, t.PlanNumber)
	}
	return nil
}

// LoadPlanDir decodes every *.yaml/*.yml file directly under dir into one
// shared plan.Store and plan.Timetable.
func LoadPlanDir(dir string) (*plan.Store, *plan.Timetable, error) {
	return LoadPlanDirCached(context.Background(), dir, nil)
}

// LoadPlanDirCached is LoadPlanDir with an optional read-through
// cache.Store; see LoadControllerDirCached for the caching behavior.
func LoadPlanDirCached(ctx context.Context, dir string, c *cache.Store) (*plan.Store, *plan.Timetable, error) {
	paths, err := yamlFilesIn(dir)
	if err != nil {
		return nil, nil, err
	}

	store := plan.NewStore()
	timetable := plan.NewTimetable()
	for _, path := range paths {
		var doc PlanFileDoc
		if err := readCachedDoc(ctx, c, cache.KindPlan, path, &doc, yaml.Unmarshal); err != nil {
			return nil, nil, fmt.Errorf("fixture: %s: %w", path, err)
		}
		if err := mergePlanDoc(doc, store, timetable); err != nil {
			return nil, nil, fmt.Errorf("fixture: %s: %w", path, err)
		}
	}
	return store, timetable, nil
}
