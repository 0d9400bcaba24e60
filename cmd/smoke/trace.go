package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/thomasrohde/smoke/pkg/evaluator"
)

// TraceSummary aggregates the events of one trace file.
type TraceSummary struct {
	RunID         string         `json:"runId"`
	TotalEvents   int            `json:"totalEvents"`
	Calls         int            `json:"calls"`
	CallsByName   map[string]int `json:"callsByName"`
	ScopePushes   int            `json:"scopePushes"`
	ScopePops     int            `json:"scopePops"`
	MaxScopeDepth int            `json:"maxScopeDepth"`
	Unbalanced    bool           `json:"unbalanced"`
	StartTime     string         `json:"startTime,omitempty"`
	EndTime       string         `json:"endTime,omitempty"`
	DurationMs    float64        `json:"durationMs"`
}

// traceEvent is the subset of evaluator.TraceEvent the summary reads.
type traceEvent struct {
	Event evaluator.TraceEventType `json:"event"`
	RunID string                   `json:"runId"`
	TS    string                   `json:"ts"`
	Data  map[string]string        `json:"data,omitempty"`
}

func computeTraceSummary(r io.Reader) *TraceSummary {
	summary := &TraceSummary{
		CallsByName: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event traceEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue // skip invalid lines
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}
		if summary.StartTime == "" {
			summary.StartTime = event.TS
		}
		summary.EndTime = event.TS

		switch event.Event {
		case evaluator.TraceCallStart:
			summary.Calls++
			if name, ok := event.Data["fn"]; ok {
				summary.CallsByName[name]++
			}
		case evaluator.TraceScopePush:
			summary.ScopePushes++
			if depth, err := strconv.Atoi(event.Data["depth"]); err == nil && depth > summary.MaxScopeDepth {
				summary.MaxScopeDepth = depth
			}
		case evaluator.TraceScopePop:
			summary.ScopePops++
		}
	}
	summary.Unbalanced = summary.ScopePushes != summary.ScopePops

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := parseTime(summary.StartTime)
		end, err2 := parseTime(summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Microseconds()) / 1000
		}
	}

	return summary
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Calls: %d\n", s.Calls)
	names := make([]string, 0, len(s.CallsByName))
	for name := range s.CallsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, s.CallsByName[name])
	}
	fmt.Fprintf(w, "Scopes: %d pushed, %d popped, max depth %d\n", s.ScopePushes, s.ScopePops, s.MaxScopeDepth)
	if s.Unbalanced {
		fmt.Fprintln(w, "warning: scope pushes and pops do not match")
	}
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.3fms\n", s.DurationMs)
	}
}

func parseTime(s string) (time.Time, error) {
	// Try RFC3339Nano first, then other common formats
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, errors.Errorf("cannot parse time: %s", s)
}
