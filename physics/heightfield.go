// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/solidforge/mechfizix/math/lin"
)

// heightfield.go adds the regular-grid height-field collider, grounded
// on original_source/mech3D/heightField.h: a row-major grid of sample
// heights with fixed X/Z cell spacing, queried by converting a world
// (x,z) into a grid cell and testing against the two triangles that
// tile it.

// HeightField is a static regular grid of height samples spanning
// [0,(Width-1)*CellSize] x [0,(Depth-1)*CellSize] in its local XZ
// plane.
type HeightField struct {
	Width, Depth int
	CellSize     float64
	Heights      []float64 // row-major, Width*Depth samples
	flat         bool
	flatHeight   float64
}

// NewHeightField builds a height field from a row-major sample grid.
// If every sample is equal it is marked flat so queries can take the
// O(1) plane fast path instead of walking the grid (original_source's
// heightField.h special-cases this for terrain patches that are
// locally flat, e.g. water or paved ground).
func NewHeightField(width, depth int, cellSize float64, heights []float64) *HeightField {
	hf := &HeightField{Width: width, Depth: depth, CellSize: cellSize, Heights: heights}
	if len(heights) > 0 {
		hf.flat = true
		hf.flatHeight = heights[0]
		for _, h := range heights {
			if math.Abs(h-hf.flatHeight) > lin.Epsilon {
				hf.flat = false
				break
			}
		}
	}
	return hf
}

func (hf *HeightField) sample(ix, iz int) float64 {
	ix = clampInt(ix, 0, hf.Width-1)
	iz = clampInt(iz, 0, hf.Depth-1)
	return hf.Heights[iz*hf.Width+ix]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// HeightAt returns the interpolated surface height at local (x,z).
func (hf *HeightField) HeightAt(x, z float64) float64 {
	if hf.flat {
		return hf.flatHeight
	}
	fx := x / hf.CellSize
	fz := z / hf.CellSize
	ix, iz := int(math.Floor(fx)), int(math.Floor(fz))
	tx, tz := fx-float64(ix), fz-float64(iz)

	h00 := hf.sample(ix, iz)
	h10 := hf.sample(ix+1, iz)
	h01 := hf.sample(ix, iz+1)
	h11 := hf.sample(ix+1, iz+1)

	// linear within whichever of the cell's two triangles holds (x,z),
	// split along the same diagonal used by CellTriangles so HeightAt
	// and the narrow-phase mesh agree.
	if tx+tz <= 1 {
		return h00 + (h10-h00)*tx + (h01-h00)*tz
	}
	return h11 + (h10-h11)*(1-tz) + (h01-h11)*(1-tx)
}

// CellTriangles returns the two local-space triangles tiling the cell
// containing (x,z), for narrow phase to test against a shape's AABB
// footprint (the flat-plane fast path below skips this entirely and
// treats the whole field as a single plane).
func (hf *HeightField) CellTriangles(x, z float64) (t1, t2 Triangle, ok bool) {
	ix, iz := int(math.Floor(x/hf.CellSize)), int(math.Floor(z/hf.CellSize))
	if ix < 0 || iz < 0 || ix >= hf.Width-1 || iz >= hf.Depth-1 {
		return t1, t2, false
	}
	cs := hf.CellSize
	x0, z0 := float64(ix)*cs, float64(iz)*cs
	p00 := lin.V3{X: x0, Y: hf.sample(ix, iz), Z: z0}
	p10 := lin.V3{X: x0 + cs, Y: hf.sample(ix+1, iz), Z: z0}
	p01 := lin.V3{X: x0, Y: hf.sample(ix, iz+1), Z: z0 + cs}
	p11 := lin.V3{X: x0 + cs, Y: hf.sample(ix+1, iz+1), Z: z0 + cs}
	t1 = Triangle{A: p00, B: p10, C: p01}
	t2 = Triangle{A: p10, B: p11, C: p01}
	return t1, t2, true
}

// QueryAabb returns every grid cell (as two triangles) whose XZ
// footprint overlaps the given local-space box, or, when hf.flat is
// set, a single flat-plane triangle pair covering the box's footprint
// clamped to the field.
func (hf *HeightField) QueryAabb(box Abox) []Triangle {
	if hf.flat {
		// the whole field is one plane: two triangles spanning the
		// query box's own XZ footprint (clamped to the field's extent)
		// cover it regardless of where in the grid box falls, unlike
		// CellTriangles which only ever spans one cell.
		y := hf.flatHeight
		x0 := math.Max(box.Min.X, 0)
		z0 := math.Max(box.Min.Z, 0)
		x1 := math.Min(box.Max.X, float64(hf.Width-1)*hf.CellSize)
		z1 := math.Min(box.Max.Z, float64(hf.Depth-1)*hf.CellSize)
		if x1 <= x0 || z1 <= z0 {
			return nil
		}
		p00 := lin.V3{X: x0, Y: y, Z: z0}
		p10 := lin.V3{X: x1, Y: y, Z: z0}
		p01 := lin.V3{X: x0, Y: y, Z: z1}
		p11 := lin.V3{X: x1, Y: y, Z: z1}
		return []Triangle{{A: p00, B: p10, C: p01}, {A: p10, B: p11, C: p01}}
	}
	var out []Triangle
	ix0 := clampInt(int(math.Floor(box.Min.X/hf.CellSize)), 0, hf.Width-2)
	ix1 := clampInt(int(math.Floor(box.Max.X/hf.CellSize)), 0, hf.Width-2)
	iz0 := clampInt(int(math.Floor(box.Min.Z/hf.CellSize)), 0, hf.Depth-2)
	iz1 := clampInt(int(math.Floor(box.Max.Z/hf.CellSize)), 0, hf.Depth-2)
	for iz := iz0; iz <= iz1; iz++ {
		for ix := ix0; ix <= ix1; ix++ {
			t1, t2, ok := hf.CellTriangles(float64(ix)*hf.CellSize, float64(iz)*hf.CellSize)
			if ok {
				out = append(out, t1, t2)
			}
		}
	}
	return out
}
