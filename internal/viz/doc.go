// Package viz draws a live scene in the terminal and turns mouse drags into
// interaction events.
//
// The view is a Bubble Tea program. Nodes are projected through a [Camera]
// onto a Braille [Canvas] as mesh wireframes, with each node's material glyph
// at its centre. A side panel shows frame timing, active drag sessions and an
// energy chart.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	R       - Rebuild the scene
//	W       - Wake the ball shell
//	Arrows  - Orbit the camera
//	+/-     - Zoom
//	Tab     - Cycle the charted metric
//	T       - Cycle color themes
//	?       - Help overlay
//
// Dragging a lever or coin with the left mouse button starts a gesture;
// releasing the button ends it.
package viz
