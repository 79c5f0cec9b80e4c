package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/san-kum/walksim/internal/experiment"
	"github.com/san-kum/walksim/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult() *experiment.Result {
	return &experiment.Result{
		Signal:   "bench",
		Variant:  "voltage",
		Settings: sim.Settings{Interval: 250 * time.Millisecond, Min: 0, Max: 10, Step: 0.1},
		Samples:  []float64{0.1, 0.2, 0.1},
		Metrics:  map[string]float64{"mean": 0.4 / 3},
		Ticks:    5,
		Final:    0.1,
		Elapsed:  1250 * time.Millisecond,
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, testResult()))

	var got Data
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "bench", got.Signal)
	assert.Equal(t, int64(250), got.IntervalMs)
	assert.Equal(t, int64(1250), got.ElapsedMs)
	assert.Equal(t, []float64{0.1, 0.2, 0.1}, got.Samples)
	assert.Contains(t, got.Metrics, "mean")
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, testResult()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"tick", "signal", "value"}, rows[0])
	assert.Equal(t, []string{"3", "bench", "0.1"}, rows[1])
	assert.Equal(t, []string{"5", "bench", "0.1"}, rows[3])
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, "xml", testResult()))
	assert.NoError(t, Write(&buf, "csv", testResult()))
}
