package scene

import (
	"github.com/Carmen-Shannon/cull-go/engine/camera"
	"github.com/Carmen-Shannon/cull-go/engine/game_object"
	"github.com/Carmen-Shannon/cull-go/engine/mesh"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene's identifier.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithActive sets whether the scene is active for culling.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithCamera sets the scene's camera.
//
// Parameters:
//   - cam: the camera supplying the culling frustum
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.cam = cam
	}
}

// WithCatalog sets the baked mesh catalog backing the scene. Objects added
// afterwards must reference mesh indices inside the catalog.
//
// Parameters:
//   - baked: the baked catalog
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCatalog(baked *mesh.Baked) SceneBuilderOption {
	return func(s *scene) {
		s.baked = baked
	}
}

// WithObjects adds initial objects to the scene.
// Objects without IDs will be assigned new IDs.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			s.add(obj)
		}
	}
}

// WithUpdateWorkers sets the number of worker goroutines used during the
// parallel transform phase of Update. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of update workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithUpdateWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.updateWorkers = n
	}
}
