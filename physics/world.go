// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"fmt"
	"log/slog"

	"github.com/solidforge/mechfizix/math/lin"
)

// assertInvariant implements this engine's programmer-error contract:
// a debug build panics on a broken invariant, a release build logs it
// at Warn and lets the caller fall back to its own sentinel behavior
// (NaN/empty/separated). cond is the thing that must hold; callers
// pass !cond as the failure test mirrors the teacher's own assert(...)
// call sites, just without a package-global debug flag (Settings.Debug
// is plain data instead of global mutable state).
func assertInvariant(debug bool, cond bool, msg string, args ...any) bool {
	if cond {
		return true
	}
	if debug {
		panic(fmt.Sprintf(msg, args...))
	}
	slog.Warn(msg, args...)
	return false
}

// world.go is the engine's external interface: the handle an embedder
// holds to build a scene (initialise_octree, initialise_height_field,
// add_sphere/capsule/convex_hull/triangle_mesh/compound) and drive it
// (update(Δt)). Grounded on the teacher's physics.go/physics_util.go
// Simulate orchestration (integrate → broad phase → solve → cache
// age), generalized from its fixed box/sphere pair onto every shape
// kind and the full constraint taxonomy.
//
// motionState is folded into the mass parameter per the teacher's own
// body.setMaterial convention: mass 0 means static/kinematic, any
// positive mass means dynamic. A separate tri-state enum would only
// ever gate the same branch rigidbody.go's NewRigidBody already takes
// on lin.AeqZ(mass).

// World is one physics scene: every collider and rigid body, the
// broad-phase octree, the constraint solver, and the tunables that
// drive a step.
type World struct {
	Settings Settings

	colliders   *slab[*Collider]
	constraints []*Constraint

	broad    *BroadPhase
	solver   *Solver
	impulses *ImpulseCache
}

// NewWorld builds an empty world from settings; call InitialiseOctree
// before adding any collider.
func NewWorld(settings Settings) *World {
	w := &World{
		Settings:  settings,
		colliders: newSlab[*Collider](),
		impulses:  NewImpulseCache(settings.CacheRetentionFrames),
	}
	w.broad = NewBroadPhase(settings)
	w.solver = NewSolver(w.impulses)
	return w
}

// InitialiseOctree (re)sizes the broad-phase octree to a new bound and
// depth, discarding any previous residency. Existing colliders are
// re-inserted on the next Update.
func (w *World) InitialiseOctree(bound float64, depth int) {
	w.Settings.OctreeBound, w.Settings.OctreeDepth = bound, depth
	w.broad = NewBroadPhase(w.Settings)
}

// InitialiseHeightField registers a static height-field collider
// spanning the world. A height field is always motionless: mass 0.
func (w *World) InitialiseHeightField(hf *HeightField, mat PhysicsMaterial, at lin.T) int {
	id := w.colliders.peekNextIndex()
	body := NewRigidBody(id, 0, lin.V3{}, mat)
	body.Transform.SetVQ(at.Loc, at.Rot)
	body.PrevTransform = body.Transform
	c := &Collider{ID: id, Kind: KindHeightField, Field: hf, Body: body}
	return w.register(c)
}

// AddSphere adds a dynamic (mass > 0) or static (mass == 0) sphere
// collider at transform at, returning its collider ID.
func (w *World) AddSphere(s Sphere, mass float64, mat PhysicsMaterial, at lin.T) int {
	return w.addConvex(s, mass, mat, at)
}

// AddCapsule mirrors AddSphere for capsule colliders.
func (w *World) AddCapsule(c Capsule, mass float64, mat PhysicsMaterial, at lin.T) int {
	return w.addConvex(c, mass, mat, at)
}

// AddConvexHull mirrors AddSphere for convex-hull colliders.
func (w *World) AddConvexHull(h *ConvexHull, mass float64, mat PhysicsMaterial, at lin.T) int {
	return w.addConvex(h, mass, mat, at)
}

func (w *World) addConvex(shape ConvexShape, mass float64, mat PhysicsMaterial, at lin.T) int {
	id := w.colliders.peekNextIndex()
	inertia := lin.V3{}
	if !lin.AeqZ(mass) {
		inertia = shape.Inertia(mass)
	}
	body := NewRigidBody(id, mass, inertia, mat)
	body.Transform.SetVQ(at.Loc, at.Rot)
	body.PrevTransform = body.Transform
	c := &Collider{ID: id, Kind: shape.Kind(), Convex: shape, Body: body}
	return w.register(c)
}

// AddTriangleMesh adds a static triangle-mesh collider; it must be
// motionless.
func (w *World) AddTriangleMesh(mesh *TriangleMesh, mat PhysicsMaterial, at lin.T) int {
	id := w.colliders.peekNextIndex()
	body := NewRigidBody(id, 0, lin.V3{}, mat)
	body.Transform.SetVQ(at.Loc, at.Rot)
	body.PrevTransform = body.Transform
	c := &Collider{ID: id, Kind: KindTriangleMesh, Mesh: mesh, Body: body}
	return w.register(c)
}

// AddCompound adds a multi-child collider sharing one rigid body.
func (w *World) AddCompound(children []CompoundChild, mass float64, mat PhysicsMaterial, at lin.T) int {
	id := w.colliders.peekNextIndex()
	comp := &Compound{Children: children}
	inertia := lin.V3{}
	if !lin.AeqZ(mass) {
		inertia = comp.Inertia(mass)
	}
	body := NewRigidBody(id, mass, inertia, mat)
	body.Transform.SetVQ(at.Loc, at.Rot)
	body.PrevTransform = body.Transform
	c := &Collider{ID: id, Kind: KindCompound, Compound: comp, Body: body}
	return w.register(c)
}

// register inserts c into the collider slab — a removed collider's
// slot is handed back out by a later Add call instead of IDs growing
// unboundedly — and returns its ID.
func (w *World) register(c *Collider) int {
	c.radius = computeRadius(c)
	id := w.colliders.insert(c)
	if id != c.ID {
		// only possible if a caller's peekNextIndex() became stale by
		// another insert running first; World is not used concurrently.
		c.ID = id
		c.Body.ColliderID = id
	}
	return id
}

// RemoveCollider erases a collider and its body: the "collider leaves
// the world" case, also called directly by an embedder that wants to
// delete an object outright.
func (w *World) RemoveCollider(id int) {
	w.broad.Octree.Remove(id)
	w.colliders.erase(id)
}

// AddConstraint registers a non-contact joint (AnchorPoint,
// AngularRotation, HingeAxis, Cone, Hinge, Motor variants).
func (w *World) AddConstraint(c *Constraint) { w.constraints = append(w.constraints, c) }

// Collider returns the collider for id, or nil.
func (w *World) Collider(id int) *Collider {
	if p := w.colliders.get(id); p != nil {
		return *p
	}
	return nil
}

// Update advances the world by one step: integrate velocities, broad
// phase (which CCD-substeps and runs narrow phase), build islands,
// solve, integrate positions, age the caches.
func (w *World) Update(dt float64) {
	bodies := make(map[int]*RigidBody, w.colliders.len())
	colliders := make(map[int]*Collider, w.colliders.len())
	w.colliders.each(func(id int, c **Collider) {
		bodies[id] = (*c).Body
		colliders[id] = *c
	})

	for _, b := range bodies {
		b.integrateVelocities(w.Settings, dt)
	}

	manifolds, contactPairs := w.broad.Step(w.Settings, colliders)

	var constraintPairs [][2]int
	for _, c := range w.constraints {
		constraintPairs = append(constraintPairs, [2]int{c.BodyA.ColliderID, c.BodyB.ColliderID})
	}
	bodyIDs := make([]int, 0, len(bodies))
	for id := range bodies {
		bodyIDs = append(bodyIDs, id)
	}
	islands := buildIslands(bodyIDs, contactPairs, constraintPairs)

	w.solver.Solve(w.Settings, manifolds, w.constraints, bodies, dt)

	for _, b := range bodies {
		b.Step(w.Settings, dt)
	}

	// keep islands synchronized: a member whose own motion decayed below
	// SleepEpsilon still gets woken back up if any of its island mates
	// is still moving — island wake-up is the inverse of this: a whole
	// island sleeps, or none of it does.
	for _, isl := range islands {
		if !isl.allAsleep(bodies) {
			isl.wake(bodies)
		}
	}

	w.removeDepartedColliders()
	w.impulses.Age()
}

// removeDepartedColliders erases any collider that has drifted outside
// the octree's bound entirely.
func (w *World) removeDepartedColliders() {
	var departed []int
	w.colliders.each(func(id int, cp **Collider) {
		c := *cp
		if !c.Body.Awake() {
			return
		}
		box := c.Aabb(collisionMargin)
		if box.Max.X-box.Min.X <= 0 {
			return
		}
		bound := w.Settings.OctreeBound
		if box.Min.X > bound || box.Max.X < -bound || box.Min.Y > bound || box.Max.Y < -bound || box.Min.Z > bound || box.Max.Z < -bound {
			departed = append(departed, id)
		}
	})
	for _, id := range departed {
		w.RemoveCollider(id)
	}
}
