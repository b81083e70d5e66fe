package curation

import "testing"

func TestStatusLabels(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusUncurated, "Uncurated"},
		{StatusMetadataIncomplete, "Metadata Incomplete"},
		{StatusMetadataComplete, "Metadata Complete"},
		{StatusPendingFinalVetting, "Pending Final Vetting"},
		{StatusRequiresDiscussion, "Requires Discussion"},
		{StatusReadyForRelease, "Ready for Release"},
	}

	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			if got := tc.status.Label(); got != tc.want {
				t.Errorf("Label() = %q, want %q", got, tc.want)
			}
			if !tc.status.Valid() {
				t.Errorf("Valid() = false for vocabulary member %q", tc.status)
			}
		})
	}
}

func TestStatusLabelUnknown(t *testing.T) {
	s := Status("made-up")
	if s.Valid() {
		t.Error("Valid() = true for non-member")
	}
	if got := s.Label(); got != "made-up" {
		t.Errorf("Label() = %q, want raw identifier", got)
	}
}

func TestStatusesOrderedAndComplete(t *testing.T) {
	all := Statuses()
	if len(all) != len(statusLabels) {
		t.Fatalf("Statuses() returned %d members, labels map has %d", len(all), len(statusLabels))
	}
	if all[0] != StatusUncurated {
		t.Errorf("first status = %q, want %q", all[0], StatusUncurated)
	}
	// Reserved members stay in the vocabulary even without a producer.
	found := map[Status]bool{}
	for _, s := range all {
		found[s] = true
	}
	if !found[StatusRequiresDiscussion] || !found[StatusReadyForRelease] {
		t.Error("reserved statuses missing from Statuses()")
	}
}
