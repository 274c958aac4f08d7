package export

import (
	"encoding/csv"
	"io"
	"slices"
	"strconv"

	"github.com/san-kum/physync/internal/trace"
)

var frameColumns = []string{"frame", "delta", "applied", "elapsed", "synced", "skipped"}

// WriteCSV writes one row per frame record. Metric columns follow the frame
// fields in name order; a metric missing from a frame is left empty.
func WriteCSV(w io.Writer, records []trace.Record) error {
	var names []string
	for _, rec := range records {
		if rec.Frame == nil {
			continue
		}
		for name := range rec.Frame.Metrics {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)

	cw := csv.NewWriter(w)
	if err := cw.Write(append(slices.Clone(frameColumns), names...)); err != nil {
		return err
	}
	row := make([]string, 0, len(frameColumns)+len(names))
	for _, rec := range records {
		f := rec.Frame
		if f == nil {
			continue
		}
		row = append(row[:0],
			strconv.FormatUint(f.Frame, 10),
			formatFloat(f.Delta),
			formatFloat(f.Applied),
			formatFloat(f.Elapsed),
			strconv.Itoa(f.Synced),
			strconv.Itoa(f.Skipped),
		)
		for _, name := range names {
			v, ok := f.Metrics[name]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
