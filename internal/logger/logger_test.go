package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestFromContext_AddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := Build(Config{Level: "debug", Service: "cityjsond"}, &buf)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithSession(ctx, "scene-a")
	ctx = WithDocument(ctx, "delft.json")
	ctx = WithComponent(ctx, "")

	FromContext(ctx, &base).Info().Msg("imported")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	for k, want := range map[string]string{
		"request_id": "req-1",
		"session":    "scene-a",
		"document":   "delft.json",
		"service":    "cityjsond",
		"msg":        "imported",
	} {
		if got, _ := line[k].(string); got != want {
			t.Fatalf("%s=%q want %q (line %s)", k, got, want, buf.String())
		}
	}
	if _, ok := line["component"]; ok {
		t.Fatalf("empty component must not be logged")
	}
}

func TestWithRequestID_GeneratesWhenEmpty(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if id := RequestID(ctx); len(id) != 16 {
		t.Fatalf("generated id=%q want 16 hex chars", id)
	}
}

func TestNewSlog_WritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	base := Build(Config{Level: "info"}, &buf)
	sl := NewSlog(&base).With("component", "codec")

	ctx := WithCityObject(context.Background(), "Building_1")
	sl.WarnContext(ctx, "geometry skipped", slog.Int("index", 2))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	if line["level"] != "warn" || line["cityobject"] != "Building_1" || line["index"] != float64(2) {
		t.Fatalf("unexpected line: %s", buf.String())
	}
}

func TestNewSlog_GroupsBecomeDottedKeys(t *testing.T) {
	var buf bytes.Buffer
	base := Build(Config{Level: "info"}, &buf)
	sl := NewSlog(&base).WithGroup("report")

	sl.Info("decoded",
		slog.Int("objects", 3),
		slog.Group("skipped", slog.Int("geometries", 1)),
		slog.Any("err", errors.New("bad ring")),
	)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	if line["report.objects"] != float64(3) || line["report.skipped.geometries"] != float64(1) {
		t.Fatalf("unexpected keys: %s", buf.String())
	}
	if line["report.err"] != "bad ring" {
		t.Fatalf("error attr: %s", buf.String())
	}
}

func TestNewSlog_HonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	base := Build(Config{Level: "warn"}, &buf)
	sl := NewSlog(&base)

	if sl.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info enabled at warn level")
	}
	sl.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %s", buf.String())
	}
	sl.Error("shown")
	if !bytes.Contains(buf.Bytes(), []byte(`"msg":"shown"`)) {
		t.Fatalf("error missing: %s", buf.String())
	}
	Build(Config{Level: "info"}, io.Discard)
}
