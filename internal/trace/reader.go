package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Reader decodes records written by Writer.
type Reader struct {
	dec  *zstd.Decoder
	sc   *bufio.Scanner
	c    io.Closer
	line int
}

func NewReader(src io.Reader) (*Reader, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{dec: dec, sc: sc}, nil
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.c = f
	return r, nil
}

// Next returns the next record or io.EOF.
func (r *Reader) Next() (Record, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return Record{}, err
		}
		return Record{}, io.EOF
	}
	r.line++
	var rec Record
	if err := json.Unmarshal(r.sc.Bytes(), &rec); err != nil {
		return Record{}, fmt.Errorf("trace line %d: %w", r.line, err)
	}
	return rec, nil
}

func (r *Reader) Close() error {
	r.dec.Close()
	if r.c != nil {
		return r.c.Close()
	}
	return nil
}

// ReadFile loads every record of a trace file.
func ReadFile(path string) ([]Record, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// Series extracts one value per frame record. name is a frame field
// (elapsed, applied, delta, synced, skipped) or a metric name.
func Series(records []Record, name string) ([]float64, error) {
	var out []float64
	for _, rec := range records {
		f := rec.Frame
		if f == nil {
			continue
		}
		switch name {
		case "elapsed":
			out = append(out, f.Elapsed)
		case "applied":
			out = append(out, f.Applied)
		case "delta":
			out = append(out, f.Delta)
		case "synced":
			out = append(out, float64(f.Synced))
		case "skipped":
			out = append(out, float64(f.Skipped))
		default:
			v, ok := f.Metrics[name]
			if !ok {
				return nil, fmt.Errorf("frame %d has no metric %q", f.Frame, name)
			}
			out = append(out, v)
		}
	}
	return out, nil
}
