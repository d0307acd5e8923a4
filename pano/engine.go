package pano

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// CacheState reports whether an Engine holds a usable coordinate map.
type CacheState int

const (
	// CacheStale means no coordinate map has been built since creation or Reset.
	CacheStale CacheState = iota
	// CacheValid means a coordinate map exists for the last converted view.
	CacheValid
)

// String returns the name of the cache state.
func (s CacheState) String() string {
	switch s {
	case CacheStale:
		return "stale"
	case CacheValid:
		return "valid"
	default:
		return "unknown"
	}
}

// Stats counts the work done by an Engine.
type Stats struct {
	RayBuilds      uint64 // ray fields computed
	RotationBuilds uint64 // rotation matrices composed
	MapBuilds      uint64 // coordinate maps computed
	Hits           uint64 // conversions that reused the coordinate map
	Frames         uint64 // images produced
}

// Engine converts equirectangular panoramas into perspective views.
//
// An Engine memoizes the ray field, the rotation matrix and the coordinate
// map. Each is rebuilt only when the parameters it depends on change, so
// repeated conversions with an unchanged view only run the resampler.
//
// Engine methods are safe for concurrent use; calls are serialized so the
// coordinate map is never replaced while it is being read. Independent
// engines share no state.
type Engine struct {
	mu         sync.Mutex
	cfg        Config
	view       View
	configured bool

	rays   *RayField
	rayKey rayKey

	rot    Mat3
	rotKey rotationKey
	hasRot bool

	cmap   *CoordMap
	mapKey mapKey

	stats Stats
}

// NewEngine creates an engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Configure sets the view used by subsequent conversions. The view is
// normalized first; an invalid view is rejected and the previous view kept.
// Configure never touches image data.
func (e *Engine) Configure(v View) error {
	v = v.Normalize()
	if err := v.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view = v
	e.configured = true
	return nil
}

// View returns the current (normalized) view.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// SetInterpolation changes the resampling filter. The cached coordinate
// map stays valid.
func (e *Engine) SetInterpolation(mode Interpolation) error {
	if mode < Nearest || mode > Bicubic {
		return paramError("interpolation", int(mode), "unknown mode")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Interpolation = mode
	return nil
}

// State reports whether a coordinate map is cached.
func (e *Engine) State() CacheState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cmap == nil {
		return CacheStale
	}
	return CacheValid
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// CoordMap returns the cached coordinate map, or nil when the cache is
// stale. The map is shared with the engine and must not be modified; it is
// replaced, never mutated, when the view changes.
func (e *Engine) CoordMap() *CoordMap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cmap
}

// Reset discards every cached artifact. The view is kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rays = nil
	e.hasRot = false
	e.cmap = nil
}

// Convert renders the configured view of an equirectangular panorama.
func (e *Engine) Convert(p *Image) (*Image, error) {
	return e.ConvertContext(context.Background(), p)
}

// ConvertContext is like Convert but returns early if ctx is done before
// the frame starts. A frame that has started always runs to completion.
func (e *Engine) ConvertContext(ctx context.Context, p *Image) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePanorama(p); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.prepare(p.Width, p.Height)
	if err != nil {
		return nil, err
	}
	dst := NewImage(m.Width, m.Height)
	if err := remapInto(e.cfg.Parallel, p, m, e.cfg.Interpolation, dst); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	e.stats.Frames++
	return dst, nil
}

// ConvertAll renders the configured view of several panoramas that share
// one size, such as consecutive video frames. The coordinate map is built
// once and the frames are resampled concurrently. ctx is checked before
// each frame; frames already started run to completion. An empty batch
// still reports a done ctx or a missing view.
func (e *Engine) ConvertAll(ctx context.Context, panos []*Image) ([]*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.configured {
		return nil, ErrNoView
	}
	if len(panos) == 0 {
		return nil, nil
	}
	for i, p := range panos {
		if err := validatePanorama(p); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if !SameSize(p, panos[0]) {
			return nil, paramError("frame size", [2]int{p.Width, p.Height}, "all frames must share one size")
		}
	}

	m, err := e.prepare(panos[0].Width, panos[0].Height)
	if err != nil {
		return nil, err
	}

	// Frames run in parallel; the rows of one frame stay on one goroutine.
	frameCfg := e.cfg.Parallel
	frameCfg.NumWorkers = 1
	mode := e.cfg.Interpolation

	out := make([]*Image, len(panos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(effectiveWorkers(e.cfg.Parallel))
	for i, p := range panos {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dst := NewImage(m.Width, m.Height)
			if err := remapInto(frameCfg, p, m, mode, dst); err != nil {
				return fmt.Errorf("convert frame %d: %w", i, err)
			}
			out[i] = dst
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.stats.Frames += uint64(len(panos))
	return out, nil
}

// prepare returns a coordinate map for the current view and source size,
// rebuilding only the artifacts whose inputs changed. e.mu must be held.
func (e *Engine) prepare(srcWidth, srcHeight int) (*CoordMap, error) {
	if !e.configured {
		return nil, ErrNoView
	}

	key := mapKey{view: e.view, srcWidth: srcWidth, srcHeight: srcHeight}
	if e.cmap != nil && e.mapKey == key {
		e.stats.Hits++
		Tracef("coordinate map hit for %+v", e.view)
		return e.cmap, nil
	}

	start := time.Now()
	e.cmap = nil

	rk := e.view.rayKey()
	if e.rays == nil || e.rayKey != rk {
		rays, err := NewRayField(rk.width, rk.height, rk.fov, rk.fovVertical)
		if err != nil {
			e.rays = nil
			return nil, err
		}
		e.rays = rays
		e.rayKey = rk
		e.stats.RayBuilds++
	}

	ok := e.view.rotationKey()
	if !e.hasRot || e.rotKey != ok {
		e.rot = RotationMatrix(ok.yaw, ok.pitch, ok.roll)
		e.rotKey = ok
		e.hasRot = true
		e.stats.RotationBuilds++
	}

	e.cmap = buildCoordMap(e.cfg.Parallel, e.rays, e.rot, srcWidth, srcHeight)
	e.mapKey = key
	e.stats.MapBuilds++
	Diagf("built %dx%d coordinate map for %dx%d source (yaw=%g pitch=%g roll=%g fov=%g) in %v",
		e.cmap.Width, e.cmap.Height, srcWidth, srcHeight,
		e.view.Yaw, e.view.Pitch, e.view.Roll, e.view.FOV, time.Since(start))
	return e.cmap, nil
}
