// Package config loads and defaults the tuning surface described by spec
// §6.4, one struct per subsystem, each mirroring that subsystem's own
// Config/DefaultConfig pair so config.Load just seeds real constructors.
package config

import (
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"sweepcore/actionqueue"
	"sweepcore/csp"
	"sweepcore/density"
	"sweepcore/executor"
	"sweepcore/gridstore"
	"sweepcore/hintbus"
	"sweepcore/pathplan"
)

// GridConfig pre-sizes the store, spec §6.4's "Grid" group.
type GridConfig struct {
	InitialBounds *gridstore.Region `mapstructure:"initial_bounds"`
}

// RecognizerConfig tunes tier-acceptance thresholds, spec §6.4's
// "Recognizer" group. AdaptiveThresholds toggles whether ApplyFeedback is
// ever called by agent.Core; when false the seeded thresholds are fixed.
type RecognizerConfig struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	AdaptiveThresholds  bool    `mapstructure:"adaptive_thresholds"`
	ColorThreshold      float64 `mapstructure:"color_threshold"`
	TemplateThreshold   float64 `mapstructure:"template_threshold"`
}

// FrontierConfig tunes priority-formula weights, spec §6.4's "Frontier"
// group. frontier.Extract currently hardcodes its weights as package
// constants (spec's formula is fixed at w_n=0.4/w_d=0.3/w_c=0.3, not a
// per-session tunable in the teacher's own RL hyperparameter style); these
// fields are carried for forward compatibility. Load neither passes them
// to frontier.Extract nor checks them against the package constants.
type FrontierConfig struct {
	NeighborWeight        float64 `mapstructure:"neighbor_weight"`
	DistanceWeight        float64 `mapstructure:"distance_weight"`
	ConfidenceWeight      float64 `mapstructure:"confidence_weight"`
	HighPriorityThreshold float64 `mapstructure:"high_priority_threshold"`
}

// CSPConfig tunes solver behavior, spec §6.4's "CSP" group.
type CSPConfig struct {
	Segment csp.SegmentConfig `mapstructure:"segment"`
	Solve   csp.SolveConfig   `mapstructure:"solve"`
}

// Config is the full tuning surface, one field per §6.4 group.
type Config struct {
	Grid        GridConfig         `mapstructure:"grid"`
	Hints       hintbus.Config     `mapstructure:"hints"`
	Recognizer  RecognizerConfig   `mapstructure:"recognizer"`
	Frontier    FrontierConfig     `mapstructure:"frontier"`
	CSP         CSPConfig          `mapstructure:"csp"`
	Queue       actionqueue.Config `mapstructure:"queue"`
	Executor    executor.Config    `mapstructure:"executor"`
	Density     density.Config     `mapstructure:"density"`
	Pathfinding PathfindingConfig  `mapstructure:"pathfinding"`
}

// PathfindingConfig selects the movement strategy and its bounds, spec
// §6.4's "Pathfinding" group.
type PathfindingConfig struct {
	Strategy             string  `mapstructure:"strategy"`
	MaxStepSize          int     `mapstructure:"max_step_size"`
	MinMovementThreshold float64 `mapstructure:"min_movement_threshold"`
}

// Default returns documented defaults for every group, requiring no file
// on disk to run the core.
func Default() *Config {
	return &Config{
		Grid: GridConfig{},
		Hints: hintbus.DefaultConfig(),
		Recognizer: RecognizerConfig{
			ConfidenceThreshold: 0.7,
			AdaptiveThresholds:  true,
			ColorThreshold:      0.8,
			TemplateThreshold:   0.7,
		},
		Frontier: FrontierConfig{
			NeighborWeight:        0.4,
			DistanceWeight:        0.3,
			ConfidenceWeight:      0.3,
			HighPriorityThreshold: 0.8,
		},
		CSP: CSPConfig{
			Segment: csp.DefaultSegmentConfig(),
			Solve:   csp.DefaultSolveConfig(),
		},
		Queue:    actionqueue.DefaultConfig(),
		Executor: executor.DefaultConfig(),
		Density:  density.DefaultConfig(),
		Pathfinding: PathfindingConfig{
			Strategy:             pathplan.Adaptive.String(),
			MaxStepSize:          50,
			MinMovementThreshold: 1,
		},
	}
}

// outerConfig mirrors reinforcement.OuterConfig's two-hop shape (a viper
// pass to locate/parse the file, a second yaml pass into the typed
// struct), letting the config file nest everything under a top-level key
// without viper's own struct tags leaking into Config's mapstructure tags.
type outerConfig struct {
	Def map[string]any `mapstructure:"sweepcore"`
}

// Load reads path via viper, unmarshals into the typed Config the same
// two-hop way reinforcement.FromYaml does, then fills any field the file
// omitted with Default()'s value.
func Load(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(filepath.Base(path))
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, err
	}

	var outer outerConfig
	if err := vp.Unmarshal(&outer); err != nil {
		return nil, err
	}

	cfg := Default()
	if outer.Def == nil {
		return cfg, nil
	}

	spec, err := yaml.Marshal(outer.Def)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(spec, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
