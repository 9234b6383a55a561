package reembed

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressTracker_ReportsAcrossIntervals(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "segments", 10, 4)

	tracker.Increment(2)
	assert.Empty(t, buf.String(), "nothing is reported before Start")

	tracker.Start()
	tracker.Increment(3)
	assert.Empty(t, buf.String(), "below the interval")

	tracker.Increment(1)
	assert.Contains(t, buf.String(), "Progress: 4/10 (40.0%)")
	assert.Contains(t, buf.String(), "segments/s")

	tracker.Update(9)
	assert.Contains(t, buf.String(), "Progress: 9/10 (90.0%)")

	tracker.Finish()
	assert.Equal(t, 3, strings.Count(buf.String(), "\rProgress:"))
	last := buf.String()[strings.LastIndex(buf.String(), "\rProgress:"):]
	assert.True(t, strings.HasPrefix(last, "\rProgress: 10/10 (100.0%)"))
	assert.True(t, strings.HasSuffix(last, "\n"), "Finish ends the progress line")
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "documents", 5, 1)
	tracker.Start()

	tracker.Increment(8)
	assert.Contains(t, buf.String(), "Progress: 5/5 (100.0%)")
	assert.NotContains(t, buf.String(), "8/5")
	assert.Contains(t, buf.String(), "documents/s")
}

func TestProgressTracker_Elapsed(t *testing.T) {
	tracker := NewProgressTracker(&bytes.Buffer{}, "segments", 1, 1)
	assert.Zero(t, tracker.Elapsed())

	tracker.Start()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, tracker.Elapsed(), 5*time.Millisecond)
}

func TestReembedder_ProgressOverDataset(t *testing.T) {
	repo := setupTestDB(t)
	addTestSegments(t, repo, testDataset, 10)

	cfg := &Config{BatchSize: 2, ReportInterval: 4, MaxRetries: 1, RetryDelay: time.Millisecond}
	var buf bytes.Buffer
	require.NoError(t, NewReembedder(repo, unnormalizedEmbedder(), cfg, &buf).Run(context.Background(), testDataset))

	output := buf.String()
	assert.Contains(t, output, "Progress: 4/10")
	assert.Contains(t, output, "Progress: 8/10")
	assert.Contains(t, output, "Progress: 10/10 (100.0%)")
	assert.NotContains(t, output, "Progress: 2/10", "batches between intervals are not reported")
	assert.Equal(t, 3, strings.Count(output, "\rProgress:"))
}
