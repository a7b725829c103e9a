// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/solidforge/mechfizix/math/lin"
)

// settings.go holds the tunable constants that drive the simulation.
// Values default to whatever the teacher repo's solverInfo used
// (physics/solver.go, pre-rewrite) but are exposed as plain,
// dependency-injected data instead of package globals so that a world
// can be constructed with its own tuning without touching shared state.

// Settings are the world-wide tunables. They are loaded once at world
// construction and never mutated mid-step.
type Settings struct {
	Gravity lin.V3 `yaml:"gravity"`

	LinearDamping  float64 `yaml:"linear_damping"`
	AngularDamping float64 `yaml:"angular_damping"`

	SleepEpsilon       float64 `yaml:"sleep_epsilon"`
	MaxMotion          float64 `yaml:"max_motion"`
	MinRestitutionVel  float64 `yaml:"min_restitution_velocity"`
	MinimalDisplacement float64 `yaml:"minimal_displacement"`

	CacheRetentionFrames uint `yaml:"cache_retention_frames"`

	VelocityIterations int `yaml:"velocity_iterations"`
	PositionIterations int `yaml:"position_iterations"`

	BaumgarteFactor float64 `yaml:"baumgarte_factor"`
	LinearSlop      float64 `yaml:"linear_slop"`

	// CCDThreshold is the ratio |Δposition|²/radius at or above which a
	// body runs continuous instead of discrete collision detection.
	CCDThreshold float64 `yaml:"ccd_threshold"`

	OctreeDepth int     `yaml:"octree_depth"`
	OctreeBound float64 `yaml:"octree_bound"` // half-width of the world cube.

	// Debug turns programmer-error assertions into panics. False by
	// default: a release build returns NaN/empty/separated sentinels
	// instead of terminating.
	Debug bool `yaml:"debug"`
}

// DefaultSettings returns the engine's out-of-the-box tuning, grounded
// on the teacher's solverInfo defaults (physics/solver.go pre-rewrite:
// erp 0.2, linearSlop 0; its warmstartingFactor 0.85 is replaced by a
// full reapply, see solver.go's warmStartFactor) plus this engine's own named
// thresholds (1.35 CCD ratio, 4-contact cap).
func DefaultSettings() Settings {
	return Settings{
		Gravity:             lin.V3{X: 0, Y: -9.81, Z: 0},
		LinearDamping:       0.0,
		AngularDamping:      0.0,
		SleepEpsilon:        0.01,
		MaxMotion:           0.5,
		MinRestitutionVel:   1.0,
		MinimalDisplacement: 0.01,
		CacheRetentionFrames: 3,
		VelocityIterations:  8,
		PositionIterations:  3,
		BaumgarteFactor:     0.2,
		LinearSlop:          0.005,
		CCDThreshold:        1.35,
		OctreeDepth:         5,
		OctreeBound:         1000,
		Debug:               false,
	}
}

// LoadSettings reads a YAML settings document, overlaying it on top of
// DefaultSettings so a partial file only needs to name the fields it
// overrides. Mirrors the teacher's load/shd.go yaml.Unmarshal pattern.
func LoadSettings(r io.Reader) (Settings, error) {
	s := DefaultSettings()
	data, err := io.ReadAll(r)
	if err != nil {
		return s, fmt.Errorf("LoadSettings: read %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("LoadSettings: yaml %w", err)
	}
	return s, nil
}
