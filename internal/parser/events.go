package parser

import (
	"bufio"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"vcheck/internal/domain"
)

// EventParser reads event lines printed by a function-under-test.
//
// Two shapes are understood, one event per line:
//
//	{"event":"Verdict","args":[1],"invocation":"<id>"}
//	Verdict(1) @<id>
//
// The invocation suffix is optional in both. Anything else is log noise.
type EventParser struct{}

// NewEventParser creates a new EventParser
func NewEventParser() *EventParser {
	return &EventParser{}
}

var textEvent = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\(\s*(-?\d+)\s*\)(?:\s+@(\S+))?$`)

type jsonEvent struct {
	Event      string        `json:"event"`
	Args       []json.Number `json:"args"`
	Invocation string        `json:"invocation"`
}

// ParseEvents returns every event found in output, in order
func (p *EventParser) ParseEvents(output string) []domain.Event {
	var events []domain.Event

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if ev, ok := p.parseLine(line); ok {
			events = append(events, ev)
		}
	}

	return events
}

func (p *EventParser) parseLine(line string) (domain.Event, bool) {
	if strings.HasPrefix(line, "{") {
		var raw jsonEvent
		if err := json.Unmarshal([]byte(line), &raw); err != nil || raw.Event == "" || len(raw.Args) != 1 {
			return domain.Event{}, false
		}
		v, err := raw.Args[0].Int64()
		if err != nil {
			return domain.Event{}, false
		}
		return domain.Event{Name: raw.Event, Value: domain.Verdict(v), InvocationID: raw.Invocation}, true
	}

	m := textEvent.FindStringSubmatch(line)
	if m == nil {
		return domain.Event{}, false
	}
	v, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return domain.Event{}, false
	}
	return domain.Event{Name: m[1], Value: domain.Verdict(v), InvocationID: m[3]}, true
}

// Correlate keeps the events named name that belong to invocation id.
// Events without an invocation id are attributed to the current invocation.
func Correlate(events []domain.Event, name, id string) []domain.Event {
	var correlated []domain.Event
	for _, ev := range events {
		if ev.Name != name {
			continue
		}
		if ev.InvocationID != "" && id != "" && ev.InvocationID != id {
			continue
		}
		correlated = append(correlated, ev)
	}
	return correlated
}
