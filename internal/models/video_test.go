package models

import "testing"

func TestParseOrientation(t *testing.T) {
	tests := []struct {
		in   string
		want Orientation
		ok   bool
	}{
		{"vertical", OrientationVertical, true},
		{" Horizontal ", OrientationHorizontal, true},
		{"square", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseOrientation(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseOrientation(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDimensions(t *testing.T) {
	if w, h := OrientationVertical.Dimensions(); w != 1080 || h != 1920 {
		t.Errorf("vertical: got %dx%d", w, h)
	}
	if w, h := OrientationHorizontal.Dimensions(); w != 1920 || h != 1080 {
		t.Errorf("horizontal: got %dx%d", w, h)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to VideoStatus
		want     bool
	}{
		{StatusAIProcessing, StatusDraftReady, true},
		{StatusAIProcessing, StatusFailed, true},
		{StatusDraftReady, StatusInReview, true},
		{StatusInReview, StatusPublished, true},
		{StatusInReview, StatusFinalApproved, true},
		{StatusInReview, StatusDraftReady, true},
		{StatusFailed, StatusAIProcessing, true},
		{StatusFinalApproved, StatusAIProcessing, true},
		{StatusFailed, StatusPublished, false},
		{StatusAIProcessing, StatusAIProcessing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusPublished.Valid() {
		t.Error("expected PUBLISHED to be valid")
	}
	if VideoStatus("DONE").Valid() {
		t.Error("expected DONE to be invalid")
	}
}
