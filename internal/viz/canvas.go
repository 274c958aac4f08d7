package viz

import (
	"strings"
)

const blank = 0x2800

// Braille dot bits for a 2x4 cell:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of Braille cells addressed in sub-pixels: Width*2 by
// Height*4. Marks overlay whole cells with a glyph.
type Canvas struct {
	Width, Height int
	dots          [][]rune
	marks         [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, dots: make([][]rune, h), marks: make([][]rune, h)}
	for i := range c.dots {
		c.dots[i] = make([]rune, w)
		c.marks[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Size is the canvas size in sub-pixels.
func (c *Canvas) Size() (int, int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) cell(x, y int) (col, row int, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, false
	}
	col, row = x/2, y/4
	return col, row, col < c.Width && row < c.Height
}

func (c *Canvas) Set(x, y int) {
	if col, row, ok := c.cell(x, y); ok {
		c.dots[row][col] |= pixelMap[y%4][x%2]
	}
}

func (c *Canvas) Unset(x, y int) {
	if col, row, ok := c.cell(x, y); ok {
		c.dots[row][col] &^= pixelMap[y%4][x%2]
	}
}

// IsSet reports whether the sub-pixel is lit.
func (c *Canvas) IsSet(x, y int) bool {
	col, row, ok := c.cell(x, y)
	return ok && c.dots[row][col]&pixelMap[y%4][x%2] != 0
}

// Mark puts glyph over the cell containing sub-pixel (x, y).
func (c *Canvas) Mark(x, y int, glyph rune) {
	if col, row, ok := c.cell(x, y); ok {
		c.marks[row][col] = glyph
	}
}

// MarkAt returns the glyph over a cell, or 0.
func (c *Canvas) MarkAt(col, row int) rune {
	if col < 0 || row < 0 || col >= c.Width || row >= c.Height {
		return 0
	}
	return c.marks[row][col]
}

func (c *Canvas) Clear() {
	for i := range c.dots {
		for j := range c.dots[i] {
			c.dots[i][j] = blank
			c.marks[i][j] = 0
		}
	}
}

// Line draws with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.dots {
		for j, r := range row {
			if m := c.marks[i][j]; m != 0 {
				r = m
			}
			b.WriteRune(r)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
