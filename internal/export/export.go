package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/walksim/internal/experiment"
)

type Data struct {
	Signal     string             `json:"signal"`
	Variant    string             `json:"variant"`
	IntervalMs int64              `json:"interval_ms"`
	Min        float64            `json:"min"`
	Max        float64            `json:"max"`
	Step       float64            `json:"step"`
	Ticks      int                `json:"ticks"`
	ElapsedMs  int64              `json:"elapsed_ms"`
	Final      float64            `json:"final"`
	Samples    []float64          `json:"samples"`
	Metrics    map[string]float64 `json:"metrics"`
}

func FromResult(r *experiment.Result) Data {
	return Data{
		Signal:     r.Signal,
		Variant:    r.Variant,
		IntervalMs: r.Settings.Interval.Milliseconds(),
		Min:        r.Settings.Min,
		Max:        r.Settings.Max,
		Step:       r.Settings.Step,
		Ticks:      r.Ticks,
		ElapsedMs:  r.Elapsed.Milliseconds(),
		Final:      r.Final,
		Samples:    r.Samples,
		Metrics:    r.Metrics,
	}
}

func JSON(w io.Writer, r *experiment.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(FromResult(r))
}

// CSV writes one row per retained sample, numbered by tick. The window keeps
// the newest samples, so numbering starts at the first retained tick.
func CSV(w io.Writer, r *experiment.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"tick", "signal", "value"}); err != nil {
		return err
	}
	first := r.Ticks - len(r.Samples) + 1
	for i, v := range r.Samples {
		row := []string{
			strconv.Itoa(first + i),
			r.Signal,
			strconv.FormatFloat(v, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write dispatches on format ("json" or "csv").
func Write(w io.Writer, format string, r *experiment.Result) error {
	switch format {
	case "json":
		return JSON(w, r)
	case "csv":
		return CSV(w, r)
	}
	return fmt.Errorf("unknown export format: %s", format)
}
