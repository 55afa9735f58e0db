package events

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestMemoryPublisherCopies(t *testing.T) {
	p := NewMemory()
	p.Publish(Event{Name: "a", Subject: "artistic"})
	p.Publish(Event{Name: "b", Fields: map[string]any{"pid": 1}})
	evs := p.Events()
	if len(evs) != 2 || evs[0].Name != "a" || evs[1].Fields["pid"] != 1 {
		t.Fatalf("events=%+v", evs)
	}
	evs[0].Name = "z"
	if p.Names()[0] != "a" {
		t.Fatalf("internal events mutated via returned slice")
	}
}

func TestOrNoopAndLog(t *testing.T) {
	OrNoop(nil).Publish(Event{Name: "dropped"})
	var buf bytes.Buffer
	Log{L: zerolog.New(&buf).Level(zerolog.DebugLevel)}.Publish(Event{Name: "spawn_ready", Subject: "video", Fields: map[string]any{"port": 31000}})
	out := buf.String()
	if !strings.Contains(out, `"event":"spawn_ready"`) || !strings.Contains(out, `"port":31000`) {
		t.Fatalf("log output=%s", out)
	}
}
