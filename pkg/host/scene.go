package host

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/GormazAR/overlay/pkg/core"
)

// ErrUnknownHandle is returned for operations on objects that are not in the scene.
var ErrUnknownHandle = errors.New("unknown handle")

// Object is a visual object living in a Scene.
type Object struct {
	Handle    Handle
	Prototype string
	Transform core.Transform
}

// SceneCounters counts calls made into a Scene.
type SceneCounters struct {
	Instantiate   int
	Destroy       int
	SetTransform  int
	BoundingWidth int
}

// Scene is an in-memory Renderer and CameraRig. Bounding width is the
// prototype's base width multiplied by the object's X scale.
type Scene struct {
	mu         sync.Mutex
	nextHandle Handle
	objects    map[Handle]*Object
	baseWidths map[string]float64
	camera     core.Camera
	counters   SceneCounters

	// Fail* inject host failures for a prototype.
	FailInstantiate  map[string]error
	FailDestroy      map[string]error
	FailSetTransform map[string]error
}

// NewScene creates an empty scene with the given camera.
func NewScene(camera core.Camera) *Scene {
	return &Scene{
		objects:          make(map[Handle]*Object),
		baseWidths:       make(map[string]float64),
		camera:           camera,
		FailInstantiate:  make(map[string]error),
		FailDestroy:      make(map[string]error),
		FailSetTransform: make(map[string]error),
	}
}

// SetBaseWidth sets the unscaled bounds width of a prototype. Unknown prototypes have width 1.
func (s *Scene) SetBaseWidth(prototype string, width float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseWidths[prototype] = width
}

// SetCamera replaces the camera snapshot.
func (s *Scene) SetCamera(c core.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera = c
}

// Camera implements CameraRig.
func (s *Scene) Camera() core.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

// Instantiate implements Renderer.
func (s *Scene) Instantiate(prototype string, position r3.Vec, rotation r3.Rotation) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.Instantiate++
	if err := s.FailInstantiate[prototype]; err != nil {
		return 0, err
	}
	s.nextHandle++
	s.objects[s.nextHandle] = &Object{
		Handle:    s.nextHandle,
		Prototype: prototype,
		Transform: core.Transform{Position: position, Rotation: rotation, Scale: core.UnitScale},
	}
	return s.nextHandle, nil
}

// Destroy implements Renderer.
func (s *Scene) Destroy(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.Destroy++
	obj, ok := s.objects[h]
	if !ok {
		return fmt.Errorf("destroy %d: %w", h, ErrUnknownHandle)
	}
	if err := s.FailDestroy[obj.Prototype]; err != nil {
		return err
	}
	delete(s.objects, h)
	return nil
}

// SetTransform implements Renderer.
func (s *Scene) SetTransform(h Handle, t core.Transform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.SetTransform++
	obj, ok := s.objects[h]
	if !ok {
		return fmt.Errorf("set transform %d: %w", h, ErrUnknownHandle)
	}
	if err := s.FailSetTransform[obj.Prototype]; err != nil {
		return err
	}
	obj.Transform = t
	return nil
}

// BoundingWidth implements Renderer.
func (s *Scene) BoundingWidth(h Handle) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.BoundingWidth++
	obj, ok := s.objects[h]
	if !ok {
		return 0, fmt.Errorf("bounding width %d: %w", h, ErrUnknownHandle)
	}
	base, ok := s.baseWidths[obj.Prototype]
	if !ok {
		base = 1
	}
	return base * obj.Transform.Scale.X, nil
}

// Object returns a copy of the object with handle h.
func (s *Scene) Object(h Handle) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[h]
	if !ok {
		return Object{}, false
	}
	return *obj, true
}

// Objects returns copies of all live objects ordered by handle.
func (s *Scene) Objects() []Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Object, 0, len(s.objects))
	for _, obj := range s.objects {
		out = append(out, *obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

// CountByPrototype returns the number of live objects instantiated from prototype.
func (s *Scene) CountByPrototype(prototype string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, obj := range s.objects {
		if obj.Prototype == prototype {
			n++
		}
	}
	return n
}

// Counters returns the call counters.
func (s *Scene) Counters() SceneCounters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// ResetCounters zeroes the call counters.
func (s *Scene) ResetCounters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = SceneCounters{}
}
