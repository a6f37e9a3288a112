package services

import (
	"testing"
	"time"

	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
)

func TestComputeWatchPercentage(t *testing.T) {
	cases := []struct {
		name      string
		watchTime float64
		duration  float64
		want      float64
	}{
		{"half watched", 300, 600, 50},
		{"fully watched", 600, 600, 100},
		{"over-reported clamps to 100", 900, 600, 100},
		{"zero duration", 100, 0, 0},
		{"negative duration", 100, -5, 0},
		{"negative watch time clamps to 0", -10, 600, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeWatchPercentage(tc.watchTime, tc.duration)
			if got != tc.want {
				t.Errorf("ComputeWatchPercentage(%v, %v) = %v, want %v", tc.watchTime, tc.duration, got, tc.want)
			}
		})
	}
}

func TestApplyProgressMarksCompletedAtThreshold(t *testing.T) {
	progress := &model.SectionProgress{}
	now := time.Now()

	ApplyProgress(progress, ProgressUpdate{
		WatchTimeSeconds:     540,
		VideoDurationSeconds: 600,
	}, now)

	if !progress.IsCompleted {
		t.Errorf("expected completion at %v%%, got %v%%", CompletionThreshold, progress.WatchPercentage)
	}
}

func TestApplyProgressEndedCompletesRegardlessOfPercentage(t *testing.T) {
	progress := &model.SectionProgress{}

	ApplyProgress(progress, ProgressUpdate{
		WatchTimeSeconds:     30,
		VideoDurationSeconds: 600,
		Ended:                true,
	}, time.Now())

	if !progress.IsCompleted {
		t.Error("an ended event must complete the section")
	}
}

func TestApplyProgressCompletionIsMonotonic(t *testing.T) {
	progress := &model.SectionProgress{}
	now := time.Now()

	ApplyProgress(progress, ProgressUpdate{
		WatchTimeSeconds:     600,
		VideoDurationSeconds: 600,
	}, now)
	if !progress.IsCompleted {
		t.Fatal("setup: expected section completed")
	}

	// A later rewatch report with low watch time must not clear the flag
	ApplyProgress(progress, ProgressUpdate{
		WatchTimeSeconds:     10,
		VideoDurationSeconds: 600,
	}, now.Add(time.Hour))

	if !progress.IsCompleted {
		t.Error("completion must survive later low-percentage reports")
	}
	if progress.WatchPercentage >= CompletionThreshold {
		t.Error("the percentage itself should reflect the latest report")
	}
}

func TestApplyProgressKeepsKnownDuration(t *testing.T) {
	progress := &model.SectionProgress{VideoDurationSeconds: 600}

	// Reports without a duration reuse the stored one
	ApplyProgress(progress, ProgressUpdate{WatchTimeSeconds: 300}, time.Now())

	if progress.VideoDurationSeconds != 600 {
		t.Errorf("duration overwritten: got %v", progress.VideoDurationSeconds)
	}
	if progress.WatchPercentage != 50 {
		t.Errorf("expected 50%%, got %v%%", progress.WatchPercentage)
	}
}

func TestApplyProgressUpdatesTelemetryFields(t *testing.T) {
	progress := &model.SectionProgress{}
	now := time.Now()

	ApplyProgress(progress, ProgressUpdate{
		WatchTimeSeconds:     120,
		VideoDurationSeconds: 600,
		Position:             118,
	}, now)

	if progress.WatchTimeSeconds != 120 {
		t.Errorf("watch time = %v, want 120", progress.WatchTimeSeconds)
	}
	if progress.LastWatchedPosition != 118 {
		t.Errorf("position = %v, want 118", progress.LastWatchedPosition)
	}
	if progress.LastWatchedAt == nil || !progress.LastWatchedAt.Equal(now) {
		t.Error("LastWatchedAt not recorded")
	}
	if progress.IsCompleted {
		t.Error("20% watched must not complete the section")
	}
}
