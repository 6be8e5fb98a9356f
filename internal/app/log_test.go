package app

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLectorHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		opID    string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			opID:    "read",
			level:   slog.LevelInfo,
			message: "chapter archived",
			want:    "2024-06-15T14:30:45Z\tINFO\tread\tchapter archived\n",
		},
		{
			name:    "debug level",
			opID:    "search",
			level:   slog.LevelDebug,
			message: "querying catalog",
			want:    "2024-06-15T14:30:45Z\tDEBUG\tsearch\tquerying catalog\n",
		},
		{
			name:    "with record attrs",
			opID:    "read",
			level:   slog.LevelInfo,
			message: "page stored",
			attrs:   []slog.Attr{slog.String("chapter", "ch-1"), slog.Int("ordinal", 3)},
			want:    "2024-06-15T14:30:45Z\tINFO\tread\tpage stored\tchapter=ch-1\tordinal=3\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &lectorHandler{w: &buf, opID: tt.opID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestLectorHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &lectorHandler{w: &buf, opID: "read"}

	// Add pre-set attrs
	h2 := h.WithAttrs([]slog.Attr{slog.String("work", "w-1")}).(*lectorHandler)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "archive", 0)
	r.AddAttrs(slog.String("chapter", "ch-9"))

	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "work=w-1") {
		t.Errorf("expected pre-set attr work=w-1, got: %q", got)
	}
	if !strings.Contains(got, "chapter=ch-9") {
		t.Errorf("expected record attr chapter=ch-9, got: %q", got)
	}
}

func TestLectorHandler_WithAttrs_doesNotMutateOriginal(t *testing.T) {
	var buf bytes.Buffer
	h := &lectorHandler{w: &buf, opID: "read", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("b", "2")}).(*lectorHandler)

	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}
	if len(h2.attrs) != 2 {
		t.Errorf("new handler attrs: got %d, want 2", len(h2.attrs))
	}
}

func TestLectorHandler_Enabled(t *testing.T) {
	h := &lectorHandler{}
	// All levels should be enabled
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if !h.Enabled(context.Background(), level) {
			t.Errorf("Enabled(%v) = false, want true", level)
		}
	}
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()

	logger, f, err := newLogger(dir, "test-op")
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	if logger == nil {
		t.Fatal("newLogger() returned nil logger")
	}
	if f == nil {
		t.Fatal("newLogger() returned nil file")
	}
}
