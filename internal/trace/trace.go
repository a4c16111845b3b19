// Package trace collects structured runtime events for a single run and
// persists them as JSON or CSV.
package trace

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Event is one structured trace record.
type Event struct {
	Seq           int    `json:"seq"`
	Timestamp     string `json:"timestamp"`
	EventType     string `json:"event_type"`
	Component     string `json:"component"`
	Action        string `json:"action"`
	Status        string `json:"status"`
	SectionID     string `json:"section_id,omitempty"`
	Attempt       int    `json:"attempt,omitempty"`
	PayloadFormat string `json:"payload_format,omitempty"`
	DurationMS    int64  `json:"duration_ms,omitempty"`
	Details       string `json:"details,omitempty"`
}

var csvColumns = []string{
	"seq", "timestamp", "event_type", "component", "action", "status",
	"section_id", "attempt", "payload_format", "duration_ms", "details",
}

// Collector accumulates events in order. Safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	events  []Event
	nextSeq int
	sink    func(Event)
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{nextSeq: 1}
}

// SetLiveSink sets an optional callback that streams events as they are
// recorded. Sink failures never disturb the run.
func (c *Collector) SetLiveSink(sink func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

// Log records an event, assigning its sequence number and timestamp.
func (c *Collector) Log(event Event) {
	if c == nil {
		return
	}
	if event.Status == "" {
		event.Status = "ok"
	}
	c.mu.Lock()
	event.Seq = c.nextSeq
	event.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	c.nextSeq++
	c.events = append(c.events, event)
	sink := c.sink
	c.mu.Unlock()

	if sink != nil {
		func() {
			defer func() { _ = recover() }()
			sink(event)
		}()
	}
}

// Events returns a copy of the collected events.
func (c *Collector) Events() []Event {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// WriteJSON writes the events as an indented JSON array.
func (c *Collector) WriteJSON(path string) error {
	if c == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	events := c.Events()
	if events == nil {
		events = []Event{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// WriteCSV writes the events as CSV rows with a fixed column set.
func (c *Collector) WriteCSV(path string) error {
	if c == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvColumns); err != nil {
		return err
	}
	for _, e := range c.Events() {
		row := []string{
			strconv.Itoa(e.Seq),
			e.Timestamp,
			e.EventType,
			e.Component,
			e.Action,
			e.Status,
			e.SectionID,
			formatOptionalInt(int64(e.Attempt)),
			e.PayloadFormat,
			formatOptionalInt(e.DurationMS),
			e.Details,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// DetailsJSON renders a details map as a deterministic JSON string.
func DetailsJSON(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Sprintf("%v", details)
	}
	return string(data)
}

func formatOptionalInt(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}
