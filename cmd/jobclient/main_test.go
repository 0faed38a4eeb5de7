package main

import (
	"context"
	"errors"
	"flag"
	"testing"

	"github.com/james-jasvin/Emotion-Recognizer/internal/domain"
	"github.com/james-jasvin/Emotion-Recognizer/internal/jobclient"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name  string
		state domain.PollState
		err   error
		want  int
	}{
		{"finished", domain.PollFinished, nil, exitOK},
		{"failed job", domain.PollFailed, nil, exitFailure},
		{"rejected", "", &jobclient.ValidationError{Code: "101"}, exitValidation},
		{"transport", domain.PollPending, &jobclient.TransportError{Op: "status", Err: errors.New("eof")}, exitFailure},
		{"timeout", domain.PollPending, domain.ErrPollTimeout, exitFailure},
		{"canceled", domain.PollPending, context.Canceled, exitFailure},
	}
	for _, tt := range tests {
		if got := exitCode(tt.state, tt.err); got != tt.want {
			t.Fatalf("%s: exitCode = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestFileListFlag(t *testing.T) {
	var files fileList
	fs := flag.NewFlagSet("jobclient", flag.ContinueOnError)
	fs.Var(&files, "upload", "")
	if err := fs.Parse([]string{"-upload", "a.jpg", "-upload", "b.mp4"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if files.String() != "a.jpg,b.mp4" {
		t.Fatalf("files = %q", files.String())
	}
}
