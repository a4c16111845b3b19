package trace

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_AssignsSequenceAndTimestamp(t *testing.T) {
	c := NewCollector()
	c.Log(Event{EventType: "agent_call", Component: "runtime", Action: "invoke"})
	c.Log(Event{EventType: "section_drafted", Component: "generator", Action: "draft", Status: "partial"})

	events := c.Events()
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Seq)
	assert.Equal(t, 2, events[1].Seq)
	assert.NotEmpty(t, events[0].Timestamp)
	assert.Equal(t, "ok", events[0].Status)
	assert.Equal(t, "partial", events[1].Status)
}

func TestWriteJSON_RoundTrips(t *testing.T) {
	c := NewCollector()
	c.Log(Event{EventType: "agent_call", Component: "runtime", Action: "invoke", SectionID: "exec_summary", Attempt: 2})

	path := filepath.Join(t.TempDir(), "trace.json")
	require.NoError(t, c.WriteJSON(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var events []Event
	require.NoError(t, json.Unmarshal(raw, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "exec_summary", events[0].SectionID)
	assert.Equal(t, 2, events[0].Attempt)
}

func TestWriteCSV_FixedColumns(t *testing.T) {
	c := NewCollector()
	c.Log(Event{EventType: "agent_call", Component: "runtime", Action: "invoke", PayloadFormat: "raw-string", DurationMS: 120})

	path := filepath.Join(t.TempDir(), "trace.csv")
	require.NoError(t, c.WriteCSV(path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvColumns, rows[0])
	assert.Equal(t, "raw-string", rows[1][8])
	assert.Equal(t, "120", rows[1][9])
}

func TestSetLiveSink_PanicsAreIsolated(t *testing.T) {
	c := NewCollector()
	var seen []Event
	c.SetLiveSink(func(e Event) {
		seen = append(seen, e)
		panic("sink exploded")
	})

	assert.NotPanics(t, func() {
		c.Log(Event{EventType: "agent_call", Component: "runtime", Action: "invoke"})
	})
	require.Len(t, seen, 1)
	assert.Len(t, c.Events(), 1)
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() { c.Log(Event{}) })
	assert.Nil(t, c.Events())
	assert.NoError(t, c.WriteJSON(filepath.Join(t.TempDir(), "trace.json")))
}

func TestDetailsJSON(t *testing.T) {
	assert.Empty(t, DetailsJSON(nil))
	assert.JSONEq(t, `{"missing_items": 2}`, DetailsJSON(map[string]any{"missing_items": 2}))
}
