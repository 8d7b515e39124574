package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if rec.Name() == "" {
		t.Fatal("expected generated expvar name")
	}

	rec.Observe(context.Background(), "create_report", true, 20*time.Millisecond)
	rec.Observe(context.Background(), "create_report", true, 30*time.Millisecond)
	rec.Observe(context.Background(), "create_report", false, 5*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Second)

	snap := rec.Snapshot()
	if got := snap.DurationsMS["create_report"]; got != 55 {
		t.Fatalf("expected 55ms total, got %v", got)
	}
	if snap.Results["create_report"]["success"] != 2 || snap.Results["create_report"]["error"] != 1 {
		t.Fatalf("unexpected result counters %+v", snap.Results)
	}
	if len(snap.DurationsMS) != 1 {
		t.Fatalf("empty operation names must be ignored, got %+v", snap.DurationsMS)
	}
}

func TestJSONTracerEmitsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)

	_, span := tracer.Start(context.Background(), "create_link")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "create_link")
	span.End(errors.New("boom"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Status != "success" || entries[1].Status != "error" {
		t.Fatalf("unexpected span statuses %+v", entries)
	}
	if entries[1].Error != "boom" {
		t.Fatalf("expected error detail, got %q", entries[1].Error)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSON lines, got %d", len(lines))
	}
	var decoded JSONTraceEntry
	if err := json.Unmarshal([]byte(lines[1]), &decoded); err != nil {
		t.Fatalf("decode span line: %v", err)
	}
	if decoded.Operation != "create_link" || decoded.Status != "error" {
		t.Fatalf("unexpected decoded span %+v", decoded)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("NewPrometheusMetricsRecorder: %v", err)
	}

	rec.Observe(context.Background(), "create_audit", true, 10*time.Millisecond)
	rec.Observe(context.Background(), "create_audit", false, 10*time.Millisecond)

	success := testutil.ToFloat64(rec.results.WithLabelValues("create_audit", "success"))
	failure := testutil.ToFloat64(rec.results.WithLabelValues("create_audit", "error"))
	if success != 1 || failure != 1 {
		t.Fatalf("unexpected counter values success=%v error=%v", success, failure)
	}
	if got := testutil.CollectAndCount(rec.durations, "assurecore_service_operation_duration_seconds"); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}
}

func TestPrometheusRecorderRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusMetricsRecorder(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}
