package engine

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/cull-go/engine/cull"
	"github.com/Carmen-Shannon/cull-go/engine/profiler"
	"github.com/Carmen-Shannon/cull-go/engine/scene"
)

// engine implements the Engine interface.
// Coordinates the tick and cull goroutines.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	pipeline         cull.Pipeline
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	frameCallback  func(deltaTime float32)

	scenes  map[int]scene.Scene
	buffers map[int]*cull.FrameBuffers
	mu      sync.RWMutex // guards scenes and buffers

	frameLimit time.Duration // minimum cull frame duration; 0 = uncapped
}

// Engine drives registered scenes through the culling pipeline. It runs two
// loops: a fixed-rate tick loop for game logic, and a cull loop that updates
// each active scene and dispatches the visibility pipeline against its
// frame buffers.
type Engine interface {
	// Pipeline returns the culling pipeline used by the cull loop.
	//
	// Returns:
	//   - cull.Pipeline: the pipeline instance
	Pipeline() cull.Pipeline

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for game logic, input processing, and transform changes.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetFrameCallback registers the function called after each cull frame,
	// once every active scene has been dispatched. Use this to consume the
	// frame's draw commands and compacted instances.
	//
	// Parameters:
	//   - callback: function to call each cull frame, receiving the delta time in seconds
	SetFrameCallback(callback func(deltaTime float32))

	// SetFrameLimit sets an optional cull frame rate cap in frames per second.
	// Pass 0 to uncap the cull loop (default).
	//
	// Parameters:
	//   - fps: maximum cull frames per second (0 = uncapped)
	SetFrameLimit(fps float64)

	// AddScene registers a scene at the given key.
	// Scenes are culled in ascending key order during the cull loop.
	//
	// Parameters:
	//   - key: the ordering key (lower dispatches first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given key along with its
	// frame buffers.
	//
	// Parameters:
	//   - key: the key of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the key of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by ordering key.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// FrameBuffers returns the frame buffers holding the latest culling
	// results for the scene at the given key, or nil if the scene has not
	// been dispatched yet. The buffers are rewritten every cull frame;
	// consume them from the frame callback.
	//
	// Parameters:
	//   - key: the scene's ordering key
	//
	// Returns:
	//   - *cull.FrameBuffers: the scene's frame buffers or nil
	FrameBuffers(key int) *cull.FrameBuffers

	// Run starts the tick and cull loops and blocks until Quit is called.
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// A default culling pipeline is created unless one is supplied; when
// profiling is enabled the default pipeline logs stage timings.
//
// Parameters:
//   - options: functional options for engine configuration (pipeline, profiling, tick rate)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		scenes:          make(map[int]scene.Scene),
		buffers:         make(map[int]*cull.FrameBuffers),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.pipeline == nil {
		var pipelineOpts []cull.PipelineBuilderOption
		if e.profilingEnabled {
			pipelineOpts = append(pipelineOpts, cull.WithProfiler(profiler.NewProfiler()))
		}
		e.pipeline = cull.NewPipeline(pipelineOpts...)
	}

	return e
}

func (e *engine) Pipeline() cull.Pipeline {
	return e.pipeline
}

func (e *engine) Run() {
	e.running = true
	e.wg.Add(2)
	go e.handleTick()
	go e.handleCull()
	e.wg.Wait()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handleTick runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic
// rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleTick() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleCull runs the uncapped (or frame-limited) cull loop in its own
// goroutine. Iterates active scenes in ascending key order, updating each
// scene's transforms and dispatching the culling pipeline into its frame
// buffers. Recovers from panics to avoid crashing the process and signals
// quit on recovery.
func (e *engine) handleCull() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("cull goroutine recovered from panic: %v", r)
			e.Quit()
		}
	}()

	lastFrame := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastFrame).Seconds())
			lastFrame = now

			e.cullFrame(dt)

			if e.frameCallback != nil {
				e.frameCallback(dt)
			}

			// Frame rate limiting
			if e.frameLimit > 0 {
				elapsed := time.Since(lastFrame)
				if remaining := e.frameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// cullFrame updates and dispatches every active scene in ascending key order.
func (e *engine) cullFrame(dt float32) {
	e.mu.RLock()
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	e.mu.RUnlock()
	sort.Ints(keys)

	for _, k := range keys {
		e.mu.RLock()
		s := e.scenes[k]
		e.mu.RUnlock()
		if s == nil || !s.Active() {
			continue
		}

		cam := s.Camera()
		if cam == nil {
			continue
		}

		s.Update(dt)
		meshes := s.Meshes()
		drawables := s.Drawables()

		fb := e.frameBuffersFor(k, len(meshes), len(drawables))
		frustum := cam.Frustum()
		e.pipeline.Dispatch(&frustum, meshes, drawables, fb)
	}
}

// frameBuffersFor returns the scene's frame buffers, growing them when the
// mesh catalog or instance count has outgrown the current allocation.
func (e *engine) frameBuffersFor(key, meshCount, instanceCount int) *cull.FrameBuffers {
	meshCount = max(meshCount, 1)
	instanceCount = max(instanceCount, 1)

	e.mu.Lock()
	defer e.mu.Unlock()

	fb := e.buffers[key]
	if fb == nil || fb.MeshTypeCount() < meshCount || fb.InstanceCapacity() < instanceCount {
		fb = cull.NewFrameBuffers(meshCount, instanceCount)
		e.buffers[key] = fb
	}
	return fb
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running {
		// Non-blocking send - if the channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetFrameCallback registers the function called after each cull frame.
func (e *engine) SetFrameCallback(callback func(deltaTime float32)) {
	e.frameCallback = callback
}

// SetFrameLimit sets an optional cull frame rate cap.
// Pass 0 to uncap the cull loop.
func (e *engine) SetFrameLimit(fps float64) {
	if fps <= 0 {
		e.frameLimit = 0
		return
	}
	e.frameLimit = time.Second / time.Duration(fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
	delete(e.buffers, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}

func (e *engine) FrameBuffers(key int) *cull.FrameBuffers {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buffers[key]
}
