package upload

import (
	"testing"

	"github.com/clauselens/clauselens/pkg/errors"
)

func TestLifecycle_HappyPath(t *testing.T) {
	s := NewState("contract.pdf")

	snap := s.Snapshot()
	if snap.Status != StatusUploading || snap.Progress != 0 {
		t.Fatalf("fresh state: %+v", snap)
	}
	if snap.ID == "" {
		t.Fatal("missing id")
	}

	if err := s.MarkProcessing(); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := s.MarkCompleted("analysis-123"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	snap = s.Snapshot()
	if snap.Status != StatusCompleted || snap.Progress != 100 || snap.ResultRef != "analysis-123" {
		t.Errorf("completed state: %+v", snap)
	}
}

func TestLifecycle_ErrorPath(t *testing.T) {
	s := NewState("scan.pdf")
	if err := s.MarkError("upload interrupted"); err != nil {
		t.Fatalf("uploading may fail directly: %v", err)
	}
	if snap := s.Snapshot(); snap.Status != StatusError || snap.Error == "" {
		t.Errorf("error state: %+v", snap)
	}
}

func TestLifecycle_TerminalIsFinal(t *testing.T) {
	s := NewState("a.txt")
	_ = s.MarkProcessing()
	_ = s.MarkCompleted("ref")

	if err := s.MarkError("late failure"); err == nil {
		t.Error("completed state must reject further transitions")
	} else if !errors.IsCode(err, errors.ErrCodeConflict) {
		t.Errorf("expected conflict code, got %v", err)
	}

	// Progress updates on terminal states are silently ignored.
	s.SetProgress(10)
	if s.Snapshot().Progress != 100 {
		t.Error("progress on terminal state must not change")
	}
}

func TestLifecycle_IllegalSkip(t *testing.T) {
	s := NewState("a.txt")
	if err := s.MarkCompleted("ref"); err == nil {
		t.Error("uploading to completed must be rejected")
	}
}

func TestSetProgress_Clamps(t *testing.T) {
	s := NewState("a.txt")
	s.SetProgress(-5)
	if s.Snapshot().Progress != 0 {
		t.Error("negative progress not clamped")
	}
	s.SetProgress(150)
	if s.Snapshot().Progress != 100 {
		t.Error("overflow progress not clamped")
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	s := NewState("a.txt")
	tr.Add(s)

	got, err := tr.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("Get: %v %v", got, err)
	}

	if _, err := tr.Get("missing"); !errors.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}

	tr.Evict(s.ID())
	if _, err := tr.Get(s.ID()); !errors.IsNotFound(err) {
		t.Error("evicted state still present")
	}
}
