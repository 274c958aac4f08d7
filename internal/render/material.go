package render

// Material describes how a node is drawn. Only the parameters the terminal
// and remote views use are kept.
type Material struct {
	Name      string
	Color     string // lipgloss colour, e.g. "#ff8800" or "212"
	Glyph     rune
	Roughness float64
	Metalness float64
}

func NewMaterial(name, color string) *Material {
	return &Material{Name: name, Color: color, Glyph: '•', Roughness: 0.5}
}

// Clone returns an independent copy. Per-instance variations are applied to
// clones so the template is never mutated.
func (m *Material) Clone() *Material {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}
