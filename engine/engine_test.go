package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/cull-go/engine/camera"
	"github.com/Carmen-Shannon/cull-go/engine/cull"
	"github.com/Carmen-Shannon/cull-go/engine/game_object"
	"github.com/Carmen-Shannon/cull-go/engine/mesh"
	"github.com/Carmen-Shannon/cull-go/engine/scene"
)

func benchScene() scene.Scene {
	baked := &mesh.Baked{
		Meshes: []cull.GPUMeshInfo{
			{IndexCount: 36, AABBMin: [4]float32{-0.5, -0.5, -0.5, 0}, AABBMax: [4]float32{0.5, 0.5, 0.5, 0}},
		},
	}

	cam := camera.NewCamera(
		camera.WithEye(0, 0, 10),
		camera.WithTarget(0, 0, 0),
	)

	return scene.NewScene(
		scene.WithCamera(cam),
		scene.WithCatalog(baked),
		scene.WithUpdateWorkers(2),
		scene.WithObjects(
			game_object.NewGameObject(game_object.WithPosition(0, 0, 0)),
			game_object.NewGameObject(game_object.WithPosition(1, 0, 0)),
			game_object.NewGameObject(game_object.WithPosition(0, 0, 500)),
		),
	)
}

func TestEngineSceneRegistry(t *testing.T) {
	s := benchScene()
	e := NewEngine(WithScene(3, s))

	if e.Scene(3) != s {
		t.Fatal("builder-registered scene not retrievable")
	}
	if e.Scene(0) != nil {
		t.Fatal("unregistered key returned a scene")
	}

	other := benchScene()
	e.AddScene(1, other)
	if len(e.Scenes()) != 2 {
		t.Fatalf("scene count got %d want 2", len(e.Scenes()))
	}

	e.RemoveScene(3)
	if e.Scene(3) != nil {
		t.Fatal("scene still present after RemoveScene")
	}
}

func TestEngineDefaultPipeline(t *testing.T) {
	e := NewEngine()
	if e.Pipeline() == nil {
		t.Fatal("engine did not create a default pipeline")
	}

	p := cull.NewPipeline(cull.WithWorkers(2))
	e = NewEngine(WithPipeline(p))
	if e.Pipeline() != p {
		t.Fatal("custom pipeline not used")
	}
}

func TestEngineRunDispatchesScene(t *testing.T) {
	e := NewEngine(
		WithScene(0, benchScene()),
		WithTickRate(120),
		WithFrameLimit(240),
	)

	var frames atomic.Int32
	e.SetFrameCallback(func(dt float32) {
		if frames.Add(1) >= 3 {
			e.Quit()
		}
	})

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		e.Quit()
		t.Fatal("engine did not quit after the frame callback")
	}

	fb := e.FrameBuffers(0)
	if fb == nil {
		t.Fatal("no frame buffers produced for the scene")
	}
	// Two of the three objects sit inside the frustum; the third is far
	// behind the far plane.
	if fb.VisibleCounts[0] != 2 {
		t.Fatalf("visible count got %d want 2", fb.VisibleCounts[0])
	}
	if fb.CommandCount != 1 {
		t.Fatalf("command count got %d want 1", fb.CommandCount)
	}
	if fb.Commands[0].InstanceCount != 2 || fb.Commands[0].IndexCount != 36 {
		t.Fatalf("command got %+v", fb.Commands[0])
	}
}

func TestEngineInactiveSceneSkipped(t *testing.T) {
	s := benchScene()
	s.SetActive(false)

	e := NewEngine(WithScene(0, s), WithFrameLimit(240))

	var frames atomic.Int32
	e.SetFrameCallback(func(dt float32) {
		if frames.Add(1) >= 2 {
			e.Quit()
		}
	})

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		e.Quit()
		t.Fatal("engine did not quit")
	}

	if e.FrameBuffers(0) != nil {
		t.Fatal("inactive scene was dispatched")
	}
}

func TestEngineQuitIdempotent(t *testing.T) {
	e := NewEngine()
	e.Quit()
	e.Quit() // must not panic
}
