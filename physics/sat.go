// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/solidforge/mechfizix/math/lin"
)

// sat.go implements the separating-axis face/edge tests and the
// Sutherland-Hodgman clipping needed when both shapes are (or reduce
// to) convex hulls, grounded on original_source/mech3D/narrowPhase.h's
// face-query + edge-query + clip-to-reference-face structure. The
// teacher repo never implements SAT (it always goes through GJK/EPA,
// including for box-box), so this is built fresh in the idiom of its
// neighboring clipping.go (Sutherland-Hodgman over a winged-edge face
// loop).

// satFaceQuery returns the face of hull (in its own local space,
// transformed to world by t) with the largest separation against
// other's support point, and that separation. A positive separation
// means a separating axis was found (no overlap along this axis).
func satFaceQuery(hull *ConvexHull, t *lin.T, other ConvexShape, tOther *lin.T) (bestFace int, bestSep float64) {
	bestSep = -math.MaxFloat64
	for fi, f := range hull.faces {
		worldN := appR3(t, f.normal)
		worldP := *t.App(&lin.V3{X: hull.verts[f.verts[0]].X, Y: hull.verts[f.verts[0]].Y, Z: hull.verts[f.verts[0]].Z})

		localDir := invRotate(tOther.Rot, lin.V3{X: -worldN.X, Y: -worldN.Y, Z: -worldN.Z})
		s := other.Support(localDir)
		worldS := *tOther.App(&s)

		d := lin.V3{X: worldS.X - worldP.X, Y: worldS.Y - worldP.Y, Z: worldS.Z - worldP.Z}
		sep := worldN.Dot(&d)
		if sep > bestSep {
			bestSep = sep
			bestFace = fi
		}
	}
	return bestFace, bestSep
}

// appR3 rotates (but does not translate) v by transform t's rotation,
// returning a fresh vector — the face-normal transform SAT needs
// (normals transform by rotation only, never translation).
func appR3(t *lin.T, v lin.V3) lin.V3 {
	var out lin.V3
	out.MultvQ(&v, t.Rot)
	return out
}

// clipFaceAgainstFace runs Sutherland-Hodgman clipping of the incident
// face's polygon against the reference face's side planes, then drops
// any remaining point above the reference plane, producing the final
// manifold point set (mirrors the teacher's clipping.go shape, scaled
// to operate on ConvexHull face loops instead of box faces).
func clipFaceAgainstFace(ref *ConvexHull, refTform *lin.T, refFace int, inc *ConvexHull, incTform *lin.T, incFace int, refIsA bool) []ContactPoint {
	refN := appR3(refTform, ref.faces[refFace].normal)
	refPts := worldFaceLoop(ref, refTform, refFace)
	refPlaneD := refN.Dot(&refPts[0])

	poly := worldFaceLoop(inc, incTform, incFace)

	for i := range refPts {
		a := refPts[i]
		b := refPts[(i+1)%len(refPts)]
		edge := lin.V3{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}
		var sideN lin.V3
		sideN.Cross(&edge, &refN)
		d := sideN.Dot(&a)
		poly = clipPolygon(poly, sideN, d)
		if len(poly) == 0 {
			return nil
		}
	}

	var out []ContactPoint
	for i, p := range poly {
		sep := refN.Dot(&p) - refPlaneD
		if sep > 0.02 {
			continue // above the reference face: not an actual contact.
		}
		proj := lin.V3{X: p.X - refN.X*sep, Y: p.Y - refN.Y*sep, Z: p.Z - refN.Z*sep}
		cp := ContactPoint{Separation: sep, FeatureID: uint32(refFace)<<16 | uint32(incFace)<<8 | uint32(i)}
		if refIsA {
			cp.PositionA, cp.PositionB = proj, p
		} else {
			cp.PositionA, cp.PositionB = p, proj
		}
		out = append(out, cp)
	}
	return out
}

func worldFaceLoop(h *ConvexHull, t *lin.T, face int) []lin.V3 {
	loop := h.faces[face].verts
	out := make([]lin.V3, len(loop))
	for i, vi := range loop {
		out[i] = *t.App(&lin.V3{X: h.verts[vi].X, Y: h.verts[vi].Y, Z: h.verts[vi].Z})
	}
	return out
}

// clipPolygon keeps only the portion of poly on the inside (n·p <= d)
// of the half-space, inserting new vertices on edges that cross it —
// one Sutherland-Hodgman pass.
func clipPolygon(poly []lin.V3, n lin.V3, d float64) []lin.V3 {
	if len(poly) == 0 {
		return poly
	}
	var out []lin.V3
	for i := range poly {
		cur := poly[i]
		prev := poly[(i-1+len(poly))%len(poly)]
		curIn := n.Dot(&cur) <= d
		prevIn := n.Dot(&prev) <= d
		if curIn {
			if !prevIn {
				out = append(out, segPlaneIntersect(prev, cur, n, d))
			}
			out = append(out, cur)
		} else if prevIn {
			out = append(out, segPlaneIntersect(prev, cur, n, d))
		}
	}
	return out
}

func segPlaneIntersect(a, b lin.V3, n lin.V3, d float64) lin.V3 {
	ab := lin.V3{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}
	denom := n.Dot(&ab)
	t := 0.0
	if math.Abs(denom) > lin.Epsilon {
		t = (d - n.Dot(&a)) / denom
	}
	t = lin.Clamp(t, 0, 1)
	return lin.V3{X: a.X + ab.X*t, Y: a.Y + ab.Y*t, Z: a.Z + ab.Z*t}
}

// HullVsHull produces the contact manifold between two convex hulls
// using full SAT: face queries on both hulls, plus the closest
// Minkowski-face edge-pair test, picking whichever of the three axes
// (face A, face B, edge pair) has the least penetration. If any of the
// three reports a positive separation the hulls are apart and there is
// no manifold; an edge-pair axis that beats both face axes produces a
// single edge-edge contact instead of clipped face points, grounded on
// original_source/mech3D/narrowPhase.h's face-query + edge-query
// structure (the teacher repo never implements SAT, box-box included,
// so this is built fresh in the idiom of its neighboring clipping.go).
func HullVsHull(a *ConvexHull, ta *lin.T, b *ConvexHull, tb *lin.T) *Manifold {
	faceA, sepA := satFaceQuery(a, ta, b, tb)
	if sepA > 0 {
		return nil
	}
	faceB, sepB := satFaceQuery(b, tb, a, ta)
	if sepB > 0 {
		return nil
	}
	edgeSep, edgeAxis, edgePA, edgePB, ok := satEdgeQuery(a, ta, b, tb)
	if ok && edgeSep > 0 {
		return nil
	}

	const faceBias = 1e-4 // prefer a face contact over a marginally deeper edge contact.
	if ok && edgeSep > sepA+faceBias && edgeSep > sepB+faceBias {
		return edgeContactManifold(edgeAxis, edgePA, edgePB, edgeSep)
	}

	var ref, inc *ConvexHull
	var refT, incT *lin.T
	var refFace, incFace int
	var normal lin.V3
	flip := false
	if sepB > sepA+1e-4 {
		ref, refT, refFace = b, tb, faceB
		inc, incT = a, ta
		normal = appR3(tb, b.faces[faceB].normal)
		flip = true
	} else {
		ref, refT, refFace = a, ta, faceA
		inc, incT = b, tb
		normal = appR3(ta, a.faces[faceA].normal)
	}

	incFace = bestIncidentFace(inc, incT, normal)

	pts := clipFaceAgainstFace(ref, refT, refFace, inc, incT, incFace, !flip)
	if len(pts) == 0 {
		return nil
	}
	pts = enforce4Contacts(pts)

	if flip {
		normal = lin.V3{X: -normal.X, Y: -normal.Y, Z: -normal.Z}
	}
	t1, t2 := basisFromNormal(normal)
	return &Manifold{Normal: normal, Tangent1: t1, Tangent2: t2, Points: pts}
}

// edgeContactManifold builds the single-point manifold for a winning
// edge-edge axis: the closest points between the two witness edges,
// pulled onto each hull's surface along the separating axis.
func edgeContactManifold(axis, pa, pb lin.V3, sep float64) *Manifold {
	t1, t2 := basisFromNormal(axis)
	return &Manifold{
		Normal: axis, Tangent1: t1, Tangent2: t2,
		Points: []ContactPoint{{PositionA: pa, PositionB: pb, Separation: sep, FeatureID: 0}},
	}
}

// bestIncidentFace finds the face of inc whose normal is most
// anti-parallel to the reference normal (the face that will be
// clipped against the reference's side planes).
func bestIncidentFace(inc *ConvexHull, incT *lin.T, refNormalWorld lin.V3) int {
	best, bestDot := 0, math.MaxFloat64
	for fi, f := range inc.faces {
		wn := appR3(incT, f.normal)
		d := wn.Dot(&refNormalWorld)
		if d < bestDot {
			bestDot = d
			best = fi
		}
	}
	return best
}

// satEdgeQuery finds the pair of edges (one from a, one from b) whose
// Minkowski-face axis has the greatest separation, restricted to edge
// pairs that actually build a face of the Minkowski difference (the
// Gauss-map arc test in isMinkowskiFace): an edge pair that doesn't
// build a face can never be the true separating axis, so skipping
// those keeps this an O(edgesA * edgesB) test instead of needing full
// Minkowski-difference construction.
func satEdgeQuery(a *ConvexHull, ta *lin.T, b *ConvexHull, tb *lin.T) (sep float64, axis, onA, onB lin.V3, ok bool) {
	bestSep := -math.MaxFloat64
	var bestAxis, bestOnA, bestOnB lin.V3
	found := false
	centerA := *ta.App(&lin.V3{})

	for _, ea := range a.Edges() {
		nA1 := appR3(ta, a.faces[ea.faceA].normal)
		nA2 := appR3(ta, a.faces[ea.faceB].normal)
		pa0 := *ta.App(&lin.V3{X: a.verts[ea.a].X, Y: a.verts[ea.a].Y, Z: a.verts[ea.a].Z})
		pa1 := *ta.App(&lin.V3{X: a.verts[ea.b].X, Y: a.verts[ea.b].Y, Z: a.verts[ea.b].Z})
		edgeDirA := lin.V3{X: pa1.X - pa0.X, Y: pa1.Y - pa0.Y, Z: pa1.Z - pa0.Z}

		for _, eb := range b.Edges() {
			nB1 := appR3(tb, b.faces[eb.faceA].normal)
			nB2 := appR3(tb, b.faces[eb.faceB].normal)
			if !isMinkowskiFace(nA1, nA2, nB1, nB2) {
				continue
			}
			pb0 := *tb.App(&lin.V3{X: b.verts[eb.a].X, Y: b.verts[eb.a].Y, Z: b.verts[eb.a].Z})
			pb1 := *tb.App(&lin.V3{X: b.verts[eb.b].X, Y: b.verts[eb.b].Y, Z: b.verts[eb.b].Z})
			edgeDirB := lin.V3{X: pb1.X - pb0.X, Y: pb1.Y - pb0.Y, Z: pb1.Z - pb0.Z}

			var ax lin.V3
			ax.Cross(&edgeDirA, &edgeDirB)
			if ax.AeqZ() {
				continue // parallel edges: no valid separating axis here.
			}
			ax.Unit()

			toEdge := lin.V3{X: pa0.X - centerA.X, Y: pa0.Y - centerA.Y, Z: pa0.Z - centerA.Z}
			if ax.Dot(&toEdge) < 0 {
				ax = lin.V3{X: -ax.X, Y: -ax.Y, Z: -ax.Z}
			}

			diff := lin.V3{X: pb0.X - pa0.X, Y: pb0.Y - pa0.Y, Z: pb0.Z - pa0.Z}
			s := ax.Dot(&diff)
			if s > bestSep {
				bestSep = s
				bestAxis = ax
				bestOnA, bestOnB, _, _ = closestPtSegmentSegment(pa0, pa1, pb0, pb1)
				found = true
			}
		}
	}
	return bestSep, bestAxis, bestOnA, bestOnB, found
}

// isMinkowskiFace tests whether the edge bordered by face normals
// (a1,a2) on one hull and (b1,b2) on the other builds a face of the
// Minkowski difference: the two edges' arcs on the Gauss map (the
// great-circle arcs between their bordering face normals) must cross.
// This is Dirk Gregorius's GDC test, reused here against hullEdge's
// normal pairs instead of a half-edge mesh's twin pointers.
func isMinkowskiFace(a1, a2, b1, b2 lin.V3) bool {
	var bxa, dxc lin.V3
	bxa.Cross(&a2, &a1)
	dxc.Cross(&b2, &b1)
	cba := b1.Dot(&bxa)
	dba := b2.Dot(&bxa)
	adc := a1.Dot(&dxc)
	bdc := a2.Dot(&dxc)
	return cba*dba < 0 && adc*bdc < 0 && cba*bdc > 0
}
