package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

// fakeClock advances by step on every call.
func fakeClock(step time.Duration) func() time.Time {
	current := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(step)
		return current
	}
}

func newTestCollector(step time.Duration) *TimingCollector {
	c := NewTimingCollector()
	c.now = fakeClock(step)
	return c
}

func TestNoOpCollector(t *testing.T) {
	collector := noOpCollector{}

	timer := collector.Start("test")
	timer.Child("child").End()
	timer.End()
	collector.Count("things", 3)

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Equal(t, 0, buf.Len())
}

func TestFromContextReturnsNoOpWhenMissing(t *testing.T) {
	collector := FromContext(context.Background())

	_, ok := collector.(noOpCollector)
	assert.True(t, ok)

	// Package level helpers must be safe without a collector.
	StartTimer(context.Background(), "x").End()
	Count(context.Background(), "x", 1)
}

func TestWithCollector(t *testing.T) {
	collector := NewTimingCollector()
	ctx := WithCollector(context.Background(), collector)

	retrieved, ok := FromContext(ctx).(*TimingCollector)
	assert.True(t, ok)
	assert.True(t, retrieved == collector)
}

func TestTimingCollectorHierarchical(t *testing.T) {
	collector := newTestCollector(5 * time.Millisecond)

	root := collector.Start("Total")
	child := root.Child("Load")
	child.End()
	child2 := root.Child("Process")
	child2.End()
	root.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 3, len(lines))
	assert.Equal(t, "Total: 25ms", lines[0])
	assert.Equal(t, "├─ Load: 5ms", lines[1])
	assert.Equal(t, "└─ Process: 5ms", lines[2])
}

func TestStartNestsUnderRunningTimer(t *testing.T) {
	collector := newTestCollector(time.Millisecond)

	outer := collector.Start("outer")
	inner := collector.Start("inner")
	inner.End()
	outer.End()
	collector.Start("second").End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)

	output := buf.String()
	assert.Contains(t, output, "└─ inner")
	assert.Contains(t, output, "second: 1ms")
}

func TestStartTimerUsesRootTimer(t *testing.T) {
	collector := newTestCollector(time.Millisecond)
	ctx := WithCollector(context.Background(), collector)

	root := collector.Start("realize")
	ctx = WithRootTimer(ctx, root)

	StartTimer(ctx, "ledger.process").End()
	root.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Contains(t, buf.String(), "└─ ledger.process: 1ms")
}

func TestEndTwiceKeepsFirstEnd(t *testing.T) {
	collector := newTestCollector(time.Millisecond)

	timer := collector.Start("once")
	timer.End()
	timer.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Equal(t, "once: 1ms\n", buf.String())
}

func TestCounters(t *testing.T) {
	collector := NewTimingCollector()
	ctx := WithCollector(context.Background(), collector)

	Count(ctx, "ledger.realizations", 2)
	Count(ctx, "parser.skipped", 1)
	Count(ctx, "ledger.realizations", 3)

	assert.Equal(t, 5, collector.Counter("ledger.realizations"))
	assert.Equal(t, 0, collector.Counter("missing"))

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Equal(t, "ledger.realizations = 5\nparser.skipped = 1\n", buf.String())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{1 * time.Millisecond, "1ms"},
		{999 * time.Millisecond, "999ms"},
		{1 * time.Second, "1.00s"},
		{1500 * time.Millisecond, "1.50s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.duration))
	}
}

func TestTimingCollectorEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	NewTimingCollector().Report(&buf, nil)
	assert.Equal(t, 0, buf.Len())
}
