package pano

import (
	"encoding/json"
	"fmt"
)

// Config configures an Engine.
type Config struct {
	// Interpolation is the filter used when resampling the panorama.
	Interpolation Interpolation `json:"interpolation"`

	// Parallel controls how rows are split across goroutines.
	Parallel ParallelConfig `json:"parallel"`
}

// DefaultConfig returns bilinear filtering on all CPUs.
func DefaultConfig() Config {
	return Config{
		Interpolation: Bilinear,
		Parallel:      DefaultParallelConfig(),
	}
}

// configDocument is the JSON form accepted by ParseConfig. Fields left out
// keep their defaults, so partial documents are safe.
type configDocument struct {
	Interpolation *Interpolation    `json:"interpolation,omitempty"`
	Parallel      *parallelDocument `json:"parallel,omitempty"`
	View          *View             `json:"view,omitempty"`
}

// parallelDocument mirrors ParallelConfig with optional fields.
type parallelDocument struct {
	Workers   *int `json:"workers,omitempty"`
	GrainSize *int `json:"grain_size,omitempty"`
}

// ParseConfig decodes a JSON engine configuration held in memory:
//
//	{"interpolation": "bicubic",
//	 "parallel": {"workers": 4, "grain_size": 8},
//	 "view": {"fov": 90, "yaw": 30, "width": 640, "height": 480}}
//
// The interpolation and parallel fields have the same shape as the JSON
// encoding of Config.
//
// It returns the configuration and the initial view, which is nil when the
// document has no "view" object. The view is normalized and validated.
func ParseConfig(data []byte) (Config, *View, error) {
	cfg := DefaultConfig()

	var doc configDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return cfg, nil, fmt.Errorf("%w: config: %v", ErrInvalidParameter, err)
	}

	if doc.Interpolation != nil {
		cfg.Interpolation = *doc.Interpolation
	}
	if p := doc.Parallel; p != nil {
		if p.Workers != nil {
			if *p.Workers < 0 {
				return cfg, nil, paramError("parallel.workers", *p.Workers, "must not be negative")
			}
			cfg.Parallel.NumWorkers = *p.Workers
		}
		if p.GrainSize != nil {
			if *p.GrainSize < 0 {
				return cfg, nil, paramError("parallel.grain_size", *p.GrainSize, "must not be negative")
			}
			cfg.Parallel.GrainSize = *p.GrainSize
		}
	}

	if doc.View == nil {
		return cfg, nil, nil
	}
	view := doc.View.Normalize()
	if err := view.Validate(); err != nil {
		return cfg, nil, err
	}
	return cfg, &view, nil
}
