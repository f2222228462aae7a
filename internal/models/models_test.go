package models

import (
	"testing"
	"time"
)

func TestCycleIsActive(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	cycle := Cycle{Name: "H1", StartDate: start, EndDate: end}

	tests := []struct {
		name     string
		now      time.Time
		expected bool
	}{
		{"before window", start.Add(-time.Hour), false},
		{"at start", start, true},
		{"inside window", start.AddDate(0, 1, 0), true},
		{"at end", end, true},
		{"after window", end.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cycle.IsActive(tt.now); got != tt.expected {
				t.Errorf("IsActive(%v) = %v, want %v", tt.now, got, tt.expected)
			}
		})
	}
}

func TestFormTypeValid(t *testing.T) {
	for _, formType := range []FormType{FormTypeTL, FormTypePM, FormTypeGeneral} {
		if !formType.Valid() {
			t.Errorf("FormType %q should be valid", formType)
		}
	}
	if FormType("HR").Valid() {
		t.Error("FormType \"HR\" should not be valid")
	}
	if FormType("").Valid() {
		t.Error("Empty form type should not be valid")
	}
}

func TestNoteTypeValid(t *testing.T) {
	for _, noteType := range []NoteType{NoteTypeGoal, NoteTypeMeeting, NoteTypeProposal, NoteTypePersonal} {
		if !noteType.Valid() {
			t.Errorf("NoteType %q should be valid", noteType)
		}
	}
	if NoteType("diary").Valid() {
		t.Error("NoteType \"diary\" should not be valid")
	}
}
