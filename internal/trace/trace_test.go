package trace

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/interact"
	"github.com/san-kum/physync/internal/physics"
	"github.com/san-kum/physync/internal/render"
	"github.com/san-kum/physync/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	require.NoError(t, w.Write(Record{Type: TypeMeta, Meta: &Meta{Version: Version, Scene: "balls", Seed: 7}}))
	require.NoError(t, w.Write(Record{Type: TypeFrame, Frame: &FrameRecord{Frame: 1, Delta: 0.5, Applied: 0.1, Elapsed: 0.1}}))
	assert.Equal(t, 2, w.Count())
	require.NoError(t, w.Close())
	assert.NotZero(t, buf.Len())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	defer r.Close()

	meta, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, meta.Meta)
	assert.Equal(t, "balls", meta.Meta.Scene)
	assert.Equal(t, int64(7), meta.Meta.Seed)

	frame, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, frame.Frame)
	assert.Equal(t, 0.5, frame.Frame.Delta)
	assert.Equal(t, 0.1, frame.Frame.Applied)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderRejectsBadLine(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.Write(Record{Type: TypeFrame, Frame: &FrameRecord{Frame: 1}}))
	_, err = w.w.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorContains(t, err, "trace line 2")
}

func TestSeries(t *testing.T) {
	recs := []Record{
		{Type: TypeMeta, Meta: &Meta{}},
		{Type: TypeFrame, Frame: &FrameRecord{Frame: 1, Elapsed: 0.1, Synced: 3, Metrics: map[string]float64{"energy": 2}}},
		{Type: TypeEvent, Event: &EventRecord{Kind: "drag"}},
		{Type: TypeFrame, Frame: &FrameRecord{Frame: 2, Elapsed: 0.2, Synced: 2, Metrics: map[string]float64{"energy": 1}}},
	}

	el, err := Series(recs, "elapsed")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, el)

	synced, err := Series(recs, "synced")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 2}, synced)

	energy, err := Series(recs, "energy")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1}, energy)

	_, err = Series(recs, "missing")
	assert.Error(t, err)
}

type constMetric struct {
	name string
	v    float64
}

func (m constMetric) Name() string          { return m.name }
func (m constMetric) Observe(sim.FrameInfo) {}
func (m constMetric) Value() float64        { return m.v }
func (m constMetric) Reset()                {}

type memWriter struct {
	recs []Record
	err  error
}

func (m *memWriter) Write(r Record) error {
	if m.err != nil {
		return m.err
	}
	m.recs = append(m.recs, r)
	return nil
}

func newTable(t *testing.T) (*binding.Table, binding.Handle) {
	t.Helper()
	w, err := physics.NewWorld(physics.DefaultConfig())
	require.NoError(t, err)
	body := w.CreateBody(physics.Dynamic, mgl64.Vec3{1, 2, 3})
	require.NoError(t, w.AttachShape(body, physics.ShapeDescriptor{Shape: physics.NewBall(0.1), Mass: 1}))
	body.Sleep()

	table := binding.NewTable()
	h, err := table.Create(render.NewScene().Add(render.Sphere(0.1, 6, 4), nil), body, binding.RoleCoin)
	require.NoError(t, err)
	return table, h
}

func TestRecorderFramesAndEvents(t *testing.T) {
	table, h := newTable(t)
	out := &memWriter{}
	rec := NewRecorder(out, table, WithBodies(), WithMetrics(constMetric{"energy", 4.5}), Every(2))

	rec.OnFrame(sim.FrameInfo{Frame: 1})
	rec.OnApplied(interact.Applied{
		Event:   interact.Event{Kind: interact.Drag, Node: 0, Pointer: interact.Pointer{DX: 3, DY: -1}},
		Binding: h,
		Gesture: interact.LaunchProjectile,
	})
	rec.OnFrame(sim.FrameInfo{Frame: 2, Elapsed: 0.2, Synced: 1})

	require.NoError(t, rec.Err())
	require.Len(t, out.recs, 2)

	ev := out.recs[0]
	assert.Equal(t, TypeEvent, ev.Type)
	require.NotNil(t, ev.Event)
	assert.Equal(t, uint64(2), ev.Event.Frame)
	assert.Equal(t, "drag", ev.Event.Kind)
	assert.Equal(t, "launch", ev.Event.Gesture)
	assert.Equal(t, 3.0, ev.Event.DX)
	assert.Empty(t, ev.Event.Err)

	fr := out.recs[1]
	require.NotNil(t, fr.Frame)
	assert.Equal(t, uint64(2), fr.Frame.Frame)
	assert.Equal(t, 4.5, fr.Frame.Metrics["energy"])
	require.Len(t, fr.Frame.Bodies, 1)
	body := fr.Frame.Bodies[0]
	assert.Equal(t, h, body.Binding)
	assert.Equal(t, "coin", body.Role)
	assert.Equal(t, [3]float64{1, 2, 3}, body.Position)
	assert.Equal(t, [4]float64{1, 0, 0, 0}, body.Orientation)
	assert.True(t, body.Asleep)
}

func TestRecorderKeepsFirstError(t *testing.T) {
	out := &memWriter{err: errors.New("disk full")}
	rec := NewRecorder(out, nil)

	rec.OnFrame(sim.FrameInfo{Frame: 1})
	rec.OnApplied(interact.Applied{Err: interact.ErrNoActiveSession})
	assert.EqualError(t, rec.Err(), "disk full")
}

func TestStoreRunLifecycle(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "runs"))
	require.NoError(t, st.Init())
	tick := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	st.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	run, err := st.Create("coin", "toss", 42)
	require.NoError(t, err)
	require.NoError(t, run.Write(Record{Type: TypeFrame, Frame: &FrameRecord{Frame: 1, Elapsed: 0.1}}))
	require.NoError(t, run.Finish(1, 0.1, map[string]float64{"energy": 1.5}))

	other, err := st.Create("balls", "", 1)
	require.NoError(t, err)
	require.NoError(t, other.Close())

	runs, err := st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, run.ID(), runs[0].ID)
	assert.True(t, runs[0].Finished)
	assert.Equal(t, 2, runs[0].Records)
	assert.Equal(t, 1.5, runs[0].Metrics["energy"])
	assert.False(t, runs[1].Finished)

	recs, err := st.LoadRecords(run.ID())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, TypeMeta, recs[0].Type)
	assert.Equal(t, "toss", recs[0].Meta.Preset)
	assert.Equal(t, TypeFrame, recs[1].Type)
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := NewStore(filepath.Join(t.TempDir(), "nope")).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}
