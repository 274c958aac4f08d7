package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/san-kum/physync/internal/trace"
	"github.com/san-kum/physync/internal/viz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanvasToSVG(t *testing.T) {
	assert.Empty(t, CanvasToSVG(nil, 2))

	cv := viz.NewCanvas(4, 2)
	cv.Set(0, 0)
	cv.Set(7, 7)
	cv.Mark(4, 4, '<')

	svg := CanvasToSVG(cv, 2)
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Contains(t, svg, `width="16" height="16"`)
	assert.Equal(t, 2, strings.Count(svg, "<circle"))
	assert.Contains(t, svg, `<circle cx="1.0" cy="1.0" r="0.8"/>`)
	assert.Contains(t, svg, ">&lt;</text>")
}

func bodyRecords() []trace.Record {
	frame := func(n uint64, x, y float64) trace.Record {
		return trace.Record{Type: trace.TypeFrame, Frame: &trace.FrameRecord{
			Frame:   n,
			Metrics: map[string]float64{"energy": float64(n)},
			Bodies: []trace.BodyState{
				{Binding: 1, Role: "ground"},
				{Binding: 2, Role: "coin", Position: [3]float64{x, y, -x}},
			},
		}}
	}
	return []trace.Record{
		{Type: trace.TypeMeta, Meta: &trace.Meta{Version: trace.Version}},
		frame(1, 0, 1),
		{Type: trace.TypeEvent, Event: &trace.EventRecord{Frame: 2, Kind: "dragstart"}},
		frame(2, 0.5, 0.8),
		frame(3, 1, 0.2),
	}
}

func TestBodyPath(t *testing.T) {
	recs := bodyRecords()

	pts, err := BodyPath(recs, 2, "xy")
	require.NoError(t, err)
	assert.Equal(t, []Point{{0, 1}, {0.5, 0.8}, {1, 0.2}}, pts)

	pts, err = BodyPath(recs, 2, "zy")
	require.NoError(t, err)
	assert.Equal(t, -1.0, pts[2].X)

	_, err = BodyPath(recs, 9, "xy")
	assert.ErrorContains(t, err, "binding 9")

	for _, plane := range []string{"", "xx", "xyz", "ab"} {
		_, err = BodyPath(recs, 2, plane)
		assert.Error(t, err, plane)
	}
}

func TestTrajectoryToSVG(t *testing.T) {
	assert.Empty(t, TrajectoryToSVG([]Point{{1, 1}}, 100, 100, "#fff"))

	svg := TrajectoryToSVG([]Point{{0, 0}, {1, 1}}, 120, 120, "#ff00ff")
	assert.Contains(t, svg, `stroke="#ff00ff"`)
	// 10% padding on each side of a unit range.
	assert.Contains(t, svg, "M10.0,110.0 L110.0,10.0")
}

func TestWriteCSV(t *testing.T) {
	recs := bodyRecords()
	recs[1].Frame.Metrics["awake"] = 3

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, recs))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"frame", "delta", "applied", "elapsed", "synced", "skipped", "awake", "energy"}, rows[0])
	assert.Equal(t, "3", rows[1][6])
	assert.Equal(t, "", rows[2][6])
	assert.Equal(t, "2", rows[2][7])
}
