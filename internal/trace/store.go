package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	metaFile  = "metadata.json"
	traceFile = "trace.jsonl.zst"
)

// Store keeps one directory per recorded run under baseDir.
type Store struct {
	baseDir string
	now     func() time.Time
}

func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0o755)
}

type RunMetadata struct {
	ID       string             `json:"id"`
	Scene    string             `json:"scene"`
	Preset   string             `json:"preset,omitempty"`
	Created  time.Time          `json:"created"`
	Seed     int64              `json:"seed"`
	Frames   uint64             `json:"frames"`
	Elapsed  float64            `json:"elapsed"`
	Records  int                `json:"records"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
	Finished bool               `json:"finished"`
}

// Run is an open run directory. Its trace writer stays open until Finish.
type Run struct {
	store *Store
	meta  RunMetadata
	*Writer
}

// Create opens a new run directory and writes the meta record.
func (s *Store) Create(scene, preset string, seed int64) (*Run, error) {
	created := s.now()
	id := fmt.Sprintf("%s_%d", scene, created.UnixNano())
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	w, err := Create(filepath.Join(dir, traceFile))
	if err != nil {
		return nil, err
	}
	run := &Run{
		store:  s,
		Writer: w,
		meta: RunMetadata{
			ID:      id,
			Scene:   scene,
			Preset:  preset,
			Created: created,
			Seed:    seed,
		},
	}
	err = w.Write(Record{Type: TypeMeta, Meta: &Meta{
		Version: Version,
		ID:      id,
		Scene:   scene,
		Preset:  preset,
		Seed:    seed,
		Created: created,
	}})
	if err == nil {
		err = s.saveMeta(run.meta)
	}
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	return run, nil
}

func (r *Run) ID() string { return r.meta.ID }

// Finish closes the trace and records the run summary.
func (r *Run) Finish(frames uint64, elapsed float64, metrics map[string]float64) error {
	r.meta.Records = r.Count()
	if err := r.Close(); err != nil {
		return err
	}
	r.meta.Frames = frames
	r.meta.Elapsed = elapsed
	r.meta.Metrics = metrics
	r.meta.Finished = true
	return r.store.saveMeta(r.meta)
}

func (s *Store) saveMeta(meta RunMetadata) error {
	f, err := os.Create(filepath.Join(s.baseDir, meta.ID, metaFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Created.Before(runs[j].Created) })
	return runs, nil
}

func (s *Store) Load(id string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metaFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// TracePath is where a run's records live.
func (s *Store) TracePath(id string) string {
	return filepath.Join(s.baseDir, id, traceFile)
}

func (s *Store) LoadRecords(id string) ([]Record, error) {
	return ReadFile(s.TracePath(id))
}
