// Package export writes scene snapshots and recorded traces in formats other
// tools can open: SVG for pictures, CSV for frame series.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/trace"
	"github.com/san-kum/physync/internal/viz"
)

type Point struct{ X, Y float64 }

// CanvasToSVG draws every lit Braille dot as a circle and every mark as a
// text glyph. scale is the size of one sub-pixel.
func CanvasToSVG(cv *viz.Canvas, scale float64) string {
	if cv == nil {
		return ""
	}
	w, h := cv.Size()
	width, height := float64(w)*scale, float64(h)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	r := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if cv.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}
	sb.WriteString("</g>\n")

	sb.WriteString(`<g fill="#ffcc00" font-family="monospace" text-anchor="middle">` + "\n")
	for row := 0; row < cv.Height; row++ {
		for col := 0; col < cv.Width; col++ {
			g := cv.MarkAt(col, row)
			if g == 0 {
				continue
			}
			fmt.Fprintf(&sb, "<text x=\"%.1f\" y=\"%.1f\" font-size=\"%.1f\">%s</text>\n",
				(float64(col)*2+1)*scale, (float64(row)*4+3)*scale, 4*scale, escape(string(g)))
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

// BodyPath collects the positions of one binding from the frame records of a
// trace recorded with bodies. plane picks the two world axes: "xy", "xz" or
// "zy".
func BodyPath(records []trace.Record, h binding.Handle, plane string) ([]Point, error) {
	a, b, err := axes(plane)
	if err != nil {
		return nil, err
	}
	var out []Point
	for _, rec := range records {
		if rec.Frame == nil {
			continue
		}
		for _, st := range rec.Frame.Bodies {
			if st.Binding == h {
				out = append(out, Point{X: st.Position[a], Y: st.Position[b]})
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("binding %d not in trace (record with bodies)", h)
	}
	return out, nil
}

func axes(plane string) (int, int, error) {
	idx := map[byte]int{'x': 0, 'y': 1, 'z': 2}
	if len(plane) != 2 {
		return 0, 0, fmt.Errorf("invalid plane %q", plane)
	}
	a, okA := idx[plane[0]]
	b, okB := idx[plane[1]]
	if !okA || !okB || a == b {
		return 0, 0, fmt.Errorf("invalid plane %q", plane)
	}
	return a, b, nil
}

// TrajectoryToSVG draws points as one polyline fitted to the image with 10%
// padding. Y grows upward.
func TrajectoryToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
