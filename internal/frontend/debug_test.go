package frontend

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/banshee-data/slamfront/internal/measurement"
	"github.com/banshee-data/slamfront/internal/testutil"
)

func TestNewLogger_NilWriter(t *testing.T) {
	if logger := newLogger("[test] ", nil); logger != nil {
		t.Error("expected nil logger for nil writer")
	}
}

func TestProcess_LogsCommit(t *testing.T) {
	var diag, trace bytes.Buffer
	SetLogWriters(nil, &diag, &trace)
	defer SetLogWriters(nil, nil, nil)

	f := newFrontend()
	if _, err := f.Process(context.Background(), measurement.NewBatch(testutil.Pose(1))); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(diag.String(), "[frontend] ") || !strings.Contains(diag.String(), "committed ") {
		t.Errorf("expected commit line in diag stream, got %q", diag.String())
	}
	if !strings.Contains(trace.String(), "connected=true") {
		t.Errorf("expected candidate trace, got %q", trace.String())
	}
}

func TestProcess_LogsEmptyBatch(t *testing.T) {
	var diag bytes.Buffer
	SetLogWriters(nil, &diag, nil)
	defer SetLogWriters(nil, nil, nil)

	f := newFrontend()
	if _, err := f.Process(context.Background(), measurement.NewBatch(testutil.Imu(1))); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(diag.String(), "carrying 1 measurements") {
		t.Errorf("expected carry line, got %q", diag.String())
	}
}
