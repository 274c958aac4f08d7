package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/render"
)

const near = 0.05

// Camera orbits Target at Distance. At zero yaw and pitch it looks down -Z,
// so screen right is world +X and screen up is world +Y.
type Camera struct {
	Target     mgl64.Vec3
	Yaw, Pitch float64
	Distance   float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Target: mgl64.Vec3{0, 0.6, 0}, Pitch: 0.25, Distance: 4, Zoom: 1}
}

func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw += dyaw
	c.Pitch = mgl64.Clamp(c.Pitch+dpitch, -1.4, 1.4)
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Eye is the camera position in world space.
func (c *Camera) Eye() mgl64.Vec3 {
	cp := math.Cos(c.Pitch)
	return c.Target.Add(mgl64.Vec3{
		math.Sin(c.Yaw) * cp,
		math.Sin(c.Pitch),
		math.Cos(c.Yaw) * cp,
	}.Mul(c.Distance))
}

func (c *Camera) view() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye(), c.Target, mgl64.Vec3{0, 1, 0})
}

// Project maps a world point to canvas sub-pixels of a w x h canvas. depth is
// the distance in front of the camera; ok is false behind the near plane or
// off canvas.
func (c *Camera) Project(p mgl64.Vec3, w, h int) (x, y int, depth float64, ok bool) {
	return c.project(c.view(), p, w, h)
}

func (c *Camera) project(view mgl64.Mat4, p mgl64.Vec3, w, h int) (x, y int, depth float64, ok bool) {
	v := view.Mul4x1(p.Vec4(1))
	depth = -v.Z()
	if depth <= near {
		return 0, 0, depth, false
	}
	f := float64(min(w, h)) * c.Zoom / depth
	x = int(math.Round(v.X()*f)) + w/2
	y = int(math.Round(-v.Y()*f)) + h/2
	return x, y, depth, x >= 0 && x < w && y >= 0 && y < h
}

type segment struct {
	x0, y0, x1, y1 int
	depth          float64
}

type marker struct {
	x, y  int
	depth float64
	glyph rune
}

// Draw renders every visible node of s as a wireframe of its mesh edges,
// far to near, with the material glyph at the node centre.
func Draw(cv *Canvas, s *render.Scene, cam *Camera) {
	if cv == nil || s == nil || cam == nil {
		return
	}
	w, h := cv.Size()
	view := cam.view()

	var segs []segment
	var marks []marker
	s.ForEach(func(n *render.Node) {
		if !n.Visible || n.Mesh == nil {
			return
		}
		data := n.Mesh.Data()
		for _, e := range n.Mesh.Edges() {
			x0, y0, d0, ok0 := cam.project(view, n.Local(data.Vertex(int(e[0]))), w, h)
			x1, y1, d1, ok1 := cam.project(view, n.Local(data.Vertex(int(e[1]))), w, h)
			if d0 <= near || d1 <= near || !(ok0 || ok1) {
				continue
			}
			segs = append(segs, segment{x0, y0, x1, y1, (d0 + d1) / 2})
		}
		if n.Material != nil && n.Material.Glyph != 0 {
			if x, y, d, ok := cam.project(view, n.Position(), w, h); ok {
				marks = append(marks, marker{x, y, d, n.Material.Glyph})
			}
		}
	})

	sort.Slice(segs, func(i, j int) bool { return segs[i].depth > segs[j].depth })
	for _, sg := range segs {
		cv.Line(sg.x0, sg.y0, sg.x1, sg.y1)
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].depth > marks[j].depth })
	for _, m := range marks {
		cv.Mark(m.x, m.y, m.glyph)
	}
}

// Pick returns the accepted visible node whose projected centre is nearest
// to the sub-pixel (x, y), within radius sub-pixels. Nearer nodes win ties.
// A nil accept takes every node.
func Pick(s *render.Scene, cam *Camera, w, h, x, y int, radius float64, accept func(*render.Node) bool) (render.NodeHandle, bool) {
	view := cam.view()
	var best render.NodeHandle
	bestDist, bestDepth := math.Inf(1), math.Inf(1)
	s.ForEach(func(n *render.Node) {
		if !n.Visible || (accept != nil && !accept(n)) {
			return
		}
		px, py, d, ok := cam.project(view, n.Position(), w, h)
		if !ok {
			return
		}
		dist := math.Hypot(float64(px-x), float64(py-y))
		if dist > radius {
			return
		}
		if dist < bestDist || (dist == bestDist && d < bestDepth) {
			best, bestDist, bestDepth = n.Handle(), dist, d
		}
	})
	return best, !math.IsInf(bestDist, 1)
}
