package scene

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/cull-go/common"
	"github.com/Carmen-Shannon/cull-go/engine/camera"
	"github.com/Carmen-Shannon/cull-go/engine/cull"
	"github.com/Carmen-Shannon/cull-go/engine/game_object"
	"github.com/Carmen-Shannon/cull-go/engine/mesh"
)

// Scene manages a registry of GameObjects instancing meshes from a baked
// catalog, with a Camera supplying the culling frustum. Each Update advances
// object transforms on the worker pool and snapshots the enabled objects into
// a flat GPU instance array ready for the culling pipeline.
// Scenes can be hot-swapped via the Active flag to switch between different views or levels.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for culling.
	Active() bool

	// SetActive sets whether this scene is active for culling.
	SetActive(active bool)

	// Camera returns the scene's camera, or nil if none is set.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Catalog returns the baked mesh catalog backing this scene, or nil.
	Catalog() *mesh.Baked

	// Count returns the number of GameObjects in the scene's registry.
	//
	// Returns:
	//   - int: count of registered objects
	Count() int

	// Add registers a GameObject in the scene and assigns it an ID if it has
	// none. Panics if the scene has a catalog and the object's mesh index is
	// outside it.
	//
	// Parameters:
	//   - obj: the GameObject to add
	//
	// Returns:
	//   - uint64: the assigned object ID
	Add(obj game_object.GameObject) uint64

	// Get retrieves a GameObject by its ID.
	// Returns nil if not found.
	//
	// Parameters:
	//   - id: the object's unique ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove removes a GameObject from the registry by ID.
	//
	// Parameters:
	//   - id: the object's unique ID
	Remove(id uint64)

	// Clear removes all objects from the scene.
	Clear()

	// Update advances every enabled object's rotation by its rotation speed
	// and rebuilds the instance snapshot. Transform and matrix work fans out
	// across the scene's worker pool.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last update in seconds
	Update(deltaTime float32)

	// Drawables returns the instance snapshot produced by the last Update.
	// The slice is reused between updates; callers must not retain it across
	// frames.
	//
	// Returns:
	//   - []cull.GPUDrawable: one record per enabled object
	Drawables() []cull.GPUDrawable

	// Meshes returns the scene catalog's mesh records, or nil if the scene
	// has no catalog.
	//
	// Returns:
	//   - []cull.GPUMeshInfo: the mesh catalog
	Meshes() []cull.GPUMeshInfo
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	cam   camera.Camera
	baked *mesh.Baked

	registry map[uint64]game_object.GameObject
	order    []uint64
	nextID   uint64

	updateWorkers int
	pool          worker.DynamicWorkerPool

	// Reused between updates to avoid per-frame allocation.
	frameObjects []game_object.GameObject
	drawables    []cull.GPUDrawable
}

var _ Scene = &scene{}

// NewScene creates a new Scene configured with the given options.
// Scenes default to active with a worker pool sized to NumCPU-1.
//
// Parameters:
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:       &sync.RWMutex{},
		active:   true,
		registry: make(map[uint64]game_object.GameObject),
		nextID:   1,
	}
	for _, option := range options {
		option(s)
	}
	s.name = common.Coalesce(s.name, "scene")
	s.updateWorkers = common.Coalesce(s.updateWorkers, max(runtime.NumCPU()-1, 1))
	s.pool = worker.NewDynamicWorkerPool(s.updateWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Catalog() *mesh.Baked {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baked
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(obj)
}

// add requires s.mu to be held.
func (s *scene) add(obj game_object.GameObject) uint64 {
	if s.baked != nil && int(obj.MeshIndex()) >= len(s.baked.Meshes) {
		panic("scene: object mesh index outside the baked catalog")
	}
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
		s.nextID++
	} else if obj.ID() >= s.nextID {
		s.nextID = obj.ID() + 1
	}
	s.registry[obj.ID()] = obj
	s.order = append(s.order, obj.ID())
	return obj.ID()
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registry[id]; !ok {
		return
	}
	delete(s.registry, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = make(map[uint64]game_object.GameObject)
	s.order = s.order[:0]
	s.frameObjects = s.frameObjects[:0]
	s.drawables = s.drawables[:0]
}

func (s *scene) Update(deltaTime float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frameObjects = s.frameObjects[:0]
	for _, id := range s.order {
		obj := s.registry[id]
		if obj != nil && obj.Enabled() {
			s.frameObjects = append(s.frameObjects, obj)
		}
	}

	n := len(s.frameObjects)
	if cap(s.drawables) < n {
		s.drawables = make([]cull.GPUDrawable, n)
	}
	s.drawables = s.drawables[:n]
	if n == 0 {
		return
	}

	// Contiguous spans per pool task. A WaitGroup provides the per-update
	// barrier since pool.Wait() blocks until workers idle-exit.
	tasks := min(n, s.updateWorkers)
	perTask := (n + tasks - 1) / tasks

	var wg sync.WaitGroup
	for t := range tasks {
		start := t * perTask
		end := min(start+perTask, n)
		if start >= end {
			break
		}

		wg.Add(1)
		sCap, eCap := start, end // capture for closure
		s.pool.SubmitTask(worker.Task{
			ID: t,
			Do: func() (any, error) {
				defer wg.Done()
				var model [16]float32
				for i := sCap; i < eCap; i++ {
					obj := s.frameObjects[i]
					obj.Advance(deltaTime)
					obj.WriteModelMatrix(model[:])
					s.drawables[i] = cull.NewGPUDrawable(model[:], obj.MeshIndex(), obj.MaterialID())
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (s *scene) Drawables() []cull.GPUDrawable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drawables
}

func (s *scene) Meshes() []cull.GPUMeshInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.baked == nil {
		return nil
	}
	return s.baked.Meshes
}
