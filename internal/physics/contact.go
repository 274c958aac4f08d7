package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

// contact describes a sphere penetrating a shape. Normal points from the
// shape towards the sphere centre.
type contact struct {
	normal mgl64.Vec3
	depth  float64
}

// sphereVsBody tests a sphere against the collider of body b in world space.
func sphereVsBody(center mgl64.Vec3, radius float64, b *Body) (contact, bool) {
	s := b.collider.Shape
	if s.Kind == Ball || b.kind == Dynamic {
		return sphereVsSphere(center, radius, b.translation, b.contactRadius())
	}

	inv := b.rotation.Conjugate()
	local := inv.Rotate(center.Sub(b.translation))

	var (
		c  contact
		ok bool
	)
	switch s.Kind {
	case Cuboid:
		c, ok = sphereVsBox(local, radius, s.HalfExtents)
	case Cylinder:
		c, ok = sphereVsCylinder(local, radius, s.Radius, s.HalfHeight)
	case Trimesh:
		c, ok = sphereVsTrimesh(local, radius, s.Vertices, s.Indices)
	}
	if !ok {
		return contact{}, false
	}
	c.normal = b.rotation.Rotate(c.normal)
	return c, true
}

func sphereVsSphere(center mgl64.Vec3, radius float64, other mgl64.Vec3, otherRadius float64) (contact, bool) {
	d := center.Sub(other)
	dist := d.Len()
	sum := radius + otherRadius
	if dist >= sum {
		return contact{}, false
	}
	if dist < epsilon {
		return contact{normal: mgl64.Vec3{0, 1, 0}, depth: sum}, true
	}
	return contact{normal: d.Mul(1 / dist), depth: sum - dist}, true
}

func sphereVsBox(p mgl64.Vec3, radius float64, h mgl64.Vec3) (contact, bool) {
	closest := mgl64.Vec3{
		mgl64.Clamp(p[0], -h[0], h[0]),
		mgl64.Clamp(p[1], -h[1], h[1]),
		mgl64.Clamp(p[2], -h[2], h[2]),
	}
	if closest != p {
		d := p.Sub(closest)
		dist := d.Len()
		if dist >= radius {
			return contact{}, false
		}
		return contact{normal: d.Mul(1 / dist), depth: radius - dist}, true
	}

	// centre inside the box: push out through the nearest face
	axis, best := 0, math.Inf(1)
	for i := 0; i < 3; i++ {
		if gap := h[i] - math.Abs(p[i]); gap < best {
			axis, best = i, gap
		}
	}
	var n mgl64.Vec3
	n[axis] = math.Copysign(1, p[axis])
	return contact{normal: n, depth: radius + best}, true
}

func sphereVsCylinder(p mgl64.Vec3, radius, r, hh float64) (contact, bool) {
	radial := mgl64.Vec3{p[0], 0, p[2]}
	rl := radial.Len()
	closest := mgl64.Vec3{p[0], mgl64.Clamp(p[1], -hh, hh), p[2]}
	if rl > r {
		scaled := radial.Mul(r / rl)
		closest[0], closest[2] = scaled[0], scaled[2]
	}
	if closest != p {
		d := p.Sub(closest)
		dist := d.Len()
		if dist >= radius {
			return contact{}, false
		}
		return contact{normal: d.Mul(1 / dist), depth: radius - dist}, true
	}

	capGap := hh - math.Abs(p[1])
	sideGap := r - rl
	if capGap <= sideGap || rl < epsilon {
		return contact{normal: mgl64.Vec3{0, math.Copysign(1, p[1]), 0}, depth: radius + capGap}, true
	}
	return contact{normal: radial.Mul(1 / rl), depth: radius + sideGap}, true
}

func sphereVsTrimesh(p mgl64.Vec3, radius float64, verts []mgl64.Vec3, indices []uint32) (contact, bool) {
	var (
		best  contact
		found bool
	)
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := verts[indices[i]], verts[indices[i+1]], verts[indices[i+2]]
		q := closestOnTriangle(p, a, b, c)
		d := p.Sub(q)
		dist := d.Len()
		if dist >= radius {
			continue
		}
		var n mgl64.Vec3
		if dist < epsilon {
			n = b.Sub(a).Cross(c.Sub(a))
			if n.Len() < epsilon {
				continue
			}
			n = n.Normalize()
		} else {
			n = d.Mul(1 / dist)
		}
		if depth := radius - dist; !found || depth > best.depth {
			best = contact{normal: n, depth: depth}
			found = true
		}
	}
	return best, found
}

// closestOnTriangle returns the point of triangle abc nearest to p
// (Ericson, Real-Time Collision Detection, 5.1.5).
func closestOnTriangle(p, a, b, c mgl64.Vec3) mgl64.Vec3 {
	ab, ac, ap := b.Sub(a), c.Sub(a), p.Sub(a)
	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v))
	}

	cp := p.Sub(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w))
	}

	denom := 1 / (va + vb + vc)
	v, w := vb*denom, vc*denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}
