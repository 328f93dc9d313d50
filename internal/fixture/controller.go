// Package fixture decodes the YAML-on-disk representation of a
// controller/plan/observation directory tree into this engine's domain
// types, standing in for the (out-of-scope, per spec §1's Non-goals) real
// timing-sheet parsers the original tool reads: shapefiles, CSVs, and a
// proprietary binary plan format. Every CLI run and test fixture in this
// module is expressed in this YAML schema, decoded with
// gopkg.in/yaml.v3's plain Unmarshal; unlike internal/config's AppConfig
// decode, unknown keys are ignored rather than rejected.
package fixture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Mohi32/signal-emulator/internal/controller"
	cache "github.com/Mohi32/signal-emulator/internal/store"
)

// ControllerDoc is the on-disk shape of one controller's full model.
type ControllerDoc struct {
	Key            string             `yaml:"key"`
	ControllerType string             `yaml:"controller_type"`
	XCoord         float64            `yaml:"x_coord"`
	YCoord         float64            `yaml:"y_coord"`
	Address        string             `yaml:"address"`
	SpecIssueNo    string             `yaml:"spec_issue_no"`
	IsPedestrian   bool               `yaml:"is_pedestrian"`
	Phases         []phaseDoc         `yaml:"phases"`
	Stages         []stageDoc         `yaml:"stages"`
	Streams        []streamDoc        `yaml:"streams"`
	Intergreens    []intergreenDoc    `yaml:"intergreens"`
	PhaseDelays    []phaseDelayDoc    `yaml:"phase_delays"`
	Prohibited     []prohibitedDoc    `yaml:"prohibited_moves"`
}

type phaseDoc struct {
	Ref             string `yaml:"ref"`
	Kind            string `yaml:"kind"`
	Term            int    `yaml:"term"`
	MinTime         int    `yaml:"min_time"`
	Text            string `yaml:"text"`
	AssociatedPhase string `yaml:"associated_phase"`
}

type stageDoc struct {
	StageNum       int      `yaml:"stage_num"`
	Name           string   `yaml:"name"`
	StreamNum      int      `yaml:"stream_num"`
	StreamStageNum int      `yaml:"stream_stage_num"`
	Phases         []string `yaml:"phases"`
}

type streamDoc struct {
	StreamNum  int  `yaml:"stream_num"`
	IsPVPXMode bool `yaml:"is_pv_px_mode"`
}

type intergreenDoc struct {
	EndPhase   string `yaml:"end_phase"`
	StartPhase string `yaml:"start_phase"`
	Time       int    `yaml:"time"`
}

type phaseDelayDoc struct {
	EndStage   int    `yaml:"end_stage"`
	StartStage int    `yaml:"start_stage"`
	Phase      string `yaml:"phase"`
	DelayTime  int    `yaml:"delay_time"`
}

type prohibitedDoc struct {
	EndStage   int `yaml:"end_stage"`
	StartStage int `yaml:"start_stage"`
}

// DecodeController builds a *controller.Model from its YAML document.
func DecodeController(data []byte) (*controller.Model, error) {
	var doc ControllerDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("fixture: decode controller: %w", err)
	}
	return modelFromControllerDoc(doc)
}

// modelFromControllerDoc builds a *controller.Model from an already-decoded
// ControllerDoc, split out from DecodeController so LoadControllerDirCached
// can skip straight here on a cache hit instead of re-running yaml.Unmarshal.
func modelFromControllerDoc(doc ControllerDoc) (*controller.Model, error) {
	key, err := controller.ParseKey(doc.Key)
	if err != nil {
		return nil, fmt.Errorf("fixture: controller key: %w", err)
	}

	m := controller.NewModel(controller.Info{
		Key:            key,
		ControllerType: doc.ControllerType,
		XCoord:         doc.XCoord,
		YCoord:         doc.YCoord,
		Address:        doc.Address,
		SpecIssueNo:    doc.SpecIssueNo,
		IsPedestrian:   doc.IsPedestrian,
	})

	for _, p := range doc.Phases {
		kind, err := controller.ParsePhaseKind(p.Kind)
		if err != nil {
			return nil, fmt.Errorf("fixture: controller %s phase %s: %w", key, p.Ref, err)
		}
		term, err := controller.ParseTermination(p.Term)
		if err != nil {
			return nil, fmt.Errorf("fixture: controller %s phase %s: %w", key, p.Ref, err)
		}
		m.AddPhase(controller.Phase{
			Controller:      key,
			Ref:             controller.PhaseRef(p.Ref),
			Kind:            kind,
			Term:            term,
			MinTime:         p.MinTime,
			Text:            p.Text,
			AssociatedPhase: controller.PhaseRef(p.AssociatedPhase),
		})
	}

	for _, s := range doc.Streams {
		m.AddStream(controller.Stream{Controller: key, StreamNum: s.StreamNum, IsPVPXMode: s.IsPVPXMode})
	}

	for _, s := range doc.Stages {
		refs := make([]controller.PhaseRef, 0, len(s.Phases))
		for _, p := range s.Phases {
			refs = append(refs, controller.PhaseRef(p))
		}
		m.AddStage(controller.Stage{
			Controller:     key,
			StageNum:       s.StageNum,
			Name:           s.Name,
			StreamNum:      s.StreamNum,
			StreamStageNum: s.StreamStageNum,
			Phases:         refs,
		})
	}

	for _, ig := range doc.Intergreens {
		m.AddIntergreen(controller.Intergreen{
			Controller: key,
			EndPhase:   controller.PhaseRef(ig.EndPhase),
			StartPhase: controller.PhaseRef(ig.StartPhase),
			Time:       ig.Time,
		})
	}

	for _, pd := range doc.PhaseDelays {
		m.AddPhaseDelay(controller.PhaseDelay{
			Controller: key,
			EndStage:   pd.EndStage,
			StartStage: pd.StartStage,
			Phase:      controller.PhaseRef(pd.Phase),
			DelayTime:  pd.DelayTime,
		})
	}

	for _, pm := range doc.Prohibited {
		m.AddProhibitedMove(controller.ProhibitedStageMove{Controller: key, EndStage: pm.EndStage, StartStage: pm.StartStage})
	}

	if err := m.SetIndicativeArrowPhases(); err != nil {
		return nil, fmt.Errorf("fixture: controller %s: %w", key, err)
	}
	return m, nil
}

// LoadControllerDir decodes every *.yaml/*.yml file directly under dir as
// one controller each, returning a map keyed by the decoded controller.Key.
func LoadControllerDir(dir string) (map[controller.Key]*controller.Model, error) {
	return LoadControllerDirCached(context.Background(), dir, nil)
}

// LoadControllerDirCached is LoadControllerDir with an optional read-through
// cache.Store: a file whose mtime matches its last cached entry is rebuilt
// from the cached, already-parsed ControllerDoc instead of being re-decoded
// from YAML. Pass a nil store to always parse (the plain LoadControllerDir
// behavior).
func LoadControllerDirCached(ctx context.Context, dir string, c *cache.Store) (map[controller.Key]*controller.Model, error) {
	paths, err := yamlFilesIn(dir)
	if err != nil {
		return nil, err
	}

	out := make(map[controller.Key]*controller.Model, len(paths))
	for _, path := range paths {
		var doc ControllerDoc
		if err := readCachedDoc(ctx, c, cache.KindController, path, &doc, yaml.Unmarshal); err != nil {
			return nil, fmt.Errorf("fixture: %s: %w", path, err)
		}
		model, err := modelFromControllerDoc(doc)
		if err != nil {
			return nil, fmt.Errorf("fixture: %s: %w", path, err)
		}
		if err := model.Validate(); err != nil {
			return nil, fmt.Errorf("fixture: %s: %w", path, err)
		}
		out[model.Info.Key] = model
	}
	return out, nil
}

// yamlFilesIn lists every *.yaml/*.yml file directly under dir, sorted for
// deterministic load order.
func yamlFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("fixture: read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
