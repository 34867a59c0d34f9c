package providers

import (
	"errors"
	"testing"
	"time"
)

func TestHealthTrackerOpensAtThreshold(t *testing.T) {
	tr := NewHealthTracker(3)
	if !tr.Healthy() {
		t.Fatal("new tracker should start healthy")
	}

	failure := errors.New("connect refused")
	tr.RecordFailure(failure)
	tr.RecordFailure(failure)
	if !tr.Healthy() {
		t.Error("tracker opened below the failure threshold")
	}
	tr.RecordFailure(failure)
	if tr.Healthy() {
		t.Error("tracker still closed after reaching the failure threshold")
	}

	snap := tr.Snapshot()
	if snap.ConsecutiveFailures != 3 {
		t.Errorf("ConsecutiveFailures = %d, want 3", snap.ConsecutiveFailures)
	}
	if snap.LastError == nil {
		t.Error("LastError = nil, want the recorded failure")
	}
}

func TestHealthTrackerSuccessResets(t *testing.T) {
	tr := NewHealthTracker(2)
	tr.RecordFailure(errors.New("timeout"))
	tr.RecordFailure(errors.New("timeout"))
	if tr.Healthy() {
		t.Fatal("tracker should be open")
	}

	tr.RecordSuccess()
	if !tr.Healthy() {
		t.Error("tracker should close after a success")
	}
	if snap := tr.Snapshot(); snap.ConsecutiveFailures != 0 || snap.LastError != nil {
		t.Errorf("Snapshot() = %+v, want failure state cleared", snap)
	}
}

func TestCheckBackoff(t *testing.T) {
	base := 30 * time.Second
	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, base},
		{1, 2 * base},
		{2, 4 * base},
		{3, 8 * base},
		{4, 5 * time.Minute},  // 10x cap then 5m ceiling
		{10, 5 * time.Minute}, // multiplier capped
	}
	for _, tt := range tests {
		if got := checkBackoff(tt.failures, base); got != tt.want {
			t.Errorf("checkBackoff(%d, %s) = %s, want %s", tt.failures, base, got, tt.want)
		}
	}
}
