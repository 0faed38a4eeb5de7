package domain

import "testing"

func TestStateOf(t *testing.T) {
	cases := map[JobStatus]PollState{
		JobStatusQueued:   PollPending,
		JobStatusRunning:  PollPending,
		JobStatusFinished: PollFinished,
		JobStatusFailed:   PollFailed,
		"deferred":        PollPending,
		"":                PollPending,
	}
	for status, want := range cases {
		if got := StateOf(status); got != want {
			t.Fatalf("StateOf(%q) = %q, want %q", status, got, want)
		}
		if status.Terminal() != (want != PollPending) {
			t.Fatalf("%q.Terminal() = %v", status, status.Terminal())
		}
	}
}
