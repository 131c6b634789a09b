package engine

import (
	"time"

	"github.com/Carmen-Shannon/cull-go/engine/cull"
	"github.com/Carmen-Shannon/cull-go/engine/scene"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables stage timing output from the default
// culling pipeline. Has no effect when a custom pipeline is supplied via
// WithPipeline.
//
// Parameters:
//   - enabled: if true, enables profiling output
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithPipeline sets a pre-configured culling pipeline for the engine to use
// rather than allowing the engine to create one internally.
//
// Parameters:
//   - p: a pre-configured Pipeline instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPipeline(p cull.Pipeline) EngineBuilderOption {
	return func(e *engine) {
		e.pipeline = p
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// The tick callback will be called at this rate for game logic updates.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithScene registers a scene at the given ordering key during engine
// construction. Scenes are culled in ascending key order.
//
// Parameters:
//   - key: the ordering key (lower dispatches first)
//   - s: the Scene to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}

// WithFrameLimit sets an optional cull frame rate cap in frames per second.
// Pass 0 to uncap the cull loop (default).
//
// Parameters:
//   - fps: maximum cull frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.frameLimit = 0
			return
		}
		e.frameLimit = time.Second / time.Duration(fps)
	}
}
