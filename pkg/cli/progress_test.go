package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func fixedProgress(buf *bytes.Buffer) (*SimpleProgress, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewProgressReporter(buf)
	p.now = func() time.Time { return now }
	return p, &now
}

func TestSimpleProgressBasic(t *testing.T) {
	buf := &bytes.Buffer{}
	progress, now := fixedProgress(buf)

	progress.Start(100)
	*now = now.Add(2 * time.Second)
	progress.Update(50)
	progress.Finish()

	output := buf.String()
	if !strings.Contains(output, "Jobs:") {
		t.Error("Expected progress output to contain 'Jobs:'")
	}
	if !strings.Contains(output, "50.0% (50/100) 25.0 jobs/s") {
		t.Errorf("Expected half-way line with rate, got %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("Expected Finish to end the line")
	}
}

func TestSimpleProgressZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress, _ := fixedProgress(buf)

	progress.Start(0)
	progress.Update(0)
	progress.Finish()

	if strings.TrimSpace(buf.String()) != "" {
		t.Errorf("Expected no bar for zero total, got %q", buf.String())
	}
}

func TestSimpleProgressOvershoot(t *testing.T) {
	buf := &bytes.Buffer{}
	progress, now := fixedProgress(buf)

	progress.Start(10)
	*now = now.Add(time.Second)
	progress.Update(15)

	if !strings.Contains(buf.String(), "100.0% (15/10)") {
		t.Errorf("Expected bar clamped at 100%%, got %q", buf.String())
	}
}

func TestNewProgressReporterDefaultWriter(t *testing.T) {
	if NewProgressReporter(nil).writer == nil {
		t.Error("Expected default writer")
	}
}
