package jobclient

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/james-jasvin/Emotion-Recognizer/internal/domain"
)

const testInterval = 25 * time.Millisecond

type recordingNavigator struct {
	log *eventLog
	err error
}

func (n *recordingNavigator) Home(_ context.Context, code string) error {
	n.log.add("home:" + code)
	return n.err
}

func (n *recordingNavigator) Results(context.Context) error {
	n.log.add("results")
	return n.err
}

func newTestController(t *testing.T, srv *fakeJobServer) (*Controller, *recordingNavigator) {
	t.Helper()
	client, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	nav := &recordingNavigator{log: srv.log}
	poller := NewPoller(client, PollPolicy{Interval: testInterval}, nil)
	return NewController(client, poller, nav, nil), nav
}

func TestRunAcceptedJobPollsUntilFinished(t *testing.T) {
	srv := newFakeJobServer(t)
	srv.submitBody = map[string]any{"status": "ok", "job_id": "J1"}
	srv.statuses = []string{"queued", "running", "finished"}
	ctrl, _ := newTestController(t, srv)

	out, err := ctrl.Run(context.Background(), strings.NewReader("Start Redis job"), "")
	require.NoError(t, err)

	assert.Equal(t, "J1", out.JobID)
	assert.Equal(t, domain.PollFinished, out.State)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, []string{"poll:J1", "poll:J1", "poll:J1", "results"}, srv.log.snapshot())

	polls := srv.polls()
	require.Len(t, polls, 3)
	for i := 1; i < len(polls); i++ {
		assert.GreaterOrEqual(t, polls[i].Sub(polls[i-1]), testInterval)
	}
}

func TestRunAcceptedJobDoesNotNavigateImmediately(t *testing.T) {
	srv := newFakeJobServer(t)
	srv.submitBody = map[string]any{"status": "ok", "job_id": "J1"}
	srv.statuses = []string{"queued"}
	ctrl, _ := newTestController(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 3*testInterval)
	defer cancel()
	_, err := ctrl.Run(ctx, strings.NewReader("Start Redis job"), "")

	require.Error(t, err)
	events := srv.log.snapshot()
	require.NotEmpty(t, events)
	assert.Equal(t, "poll:J1", events[0])
	assert.NotContains(t, events, "results")
}

func TestRunRejectedSubmissionGoesHome(t *testing.T) {
	srv := newFakeJobServer(t)
	srv.submitStatus = 200
	srv.submitBody = map[string]any{"status": "fail", "error_code": "102"}
	ctrl, _ := newTestController(t, srv)

	out, err := ctrl.Run(context.Background(), strings.NewReader("Start Redis job"), "")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "102", verr.Code)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "102", out.ErrorCode)
	assert.Equal(t, []string{"home:102"}, srv.log.snapshot(), "no poll after a rejection")
}

func TestRunFailedJobStaysOnPage(t *testing.T) {
	srv := newFakeJobServer(t)
	srv.submitBody = map[string]any{"status": "ok", "job_id": "J1"}
	srv.statuses = []string{"failed", "finished"}
	ctrl, _ := newTestController(t, srv)

	out, err := ctrl.Run(context.Background(), strings.NewReader("Start Redis job"), "")
	require.NoError(t, err)
	assert.Equal(t, domain.PollFailed, out.State)
	assert.Equal(t, []string{"poll:J1"}, srv.log.snapshot())
}

func TestRunPollTransportErrorStopsSilently(t *testing.T) {
	srv := newFakeJobServer(t)
	srv.submitBody = map[string]any{"status": "ok", "job_id": "J1"}
	srv.statuses = []string{"queued", statusTransportError, "finished"}
	ctrl, _ := newTestController(t, srv)

	_, err := ctrl.Run(context.Background(), strings.NewReader("Start Redis job"), "")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Equal(t, []string{"poll:J1", "poll:J1"}, srv.log.snapshot())
}

func TestRunSubmissionTransportErrorDoesNothing(t *testing.T) {
	srv := newFakeJobServer(t)
	srv.submitStatus = 502
	srv.submitBody = nil
	ctrl, _ := newTestController(t, srv)

	_, err := ctrl.Run(context.Background(), strings.NewReader("Start Redis job"), "")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Empty(t, srv.log.snapshot())
}

func TestRunUsesEchoedJobID(t *testing.T) {
	srv := newFakeJobServer(t)
	srv.submitBody = map[string]any{"status": "ok", "job_id": "J1"}
	srv.statuses = []string{"queued", "finished"}
	srv.echoID = "J1-canonical"
	ctrl, _ := newTestController(t, srv)

	out, err := ctrl.Run(context.Background(), strings.NewReader("Start Redis job"), "")
	require.NoError(t, err)
	assert.Equal(t, "J1-canonical", out.JobID)
	assert.Equal(t, []string{"poll:J1", "poll:J1-canonical", "results"}, srv.log.snapshot())
}

func TestStartInvokesOnTerminal(t *testing.T) {
	srv := newFakeJobServer(t)
	srv.statuses = []string{"running", "finished"}
	ctrl, _ := newTestController(t, srv)

	var got domain.JobStatus
	w := ctrl.Start(context.Background(), "J7", func(s domain.JobStatus) {
		got = s
		srv.log.add("terminal:" + string(s))
	})

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	require.NoError(t, w.Err())
	assert.Equal(t, domain.JobStatusFinished, got)
	assert.Equal(t, domain.PollFinished, w.Result().State)
	assert.Equal(t, []string{"poll:J7", "poll:J7", "terminal:finished", "results"}, srv.log.snapshot())
}

func TestStartReportsNavigationFailure(t *testing.T) {
	srv := newFakeJobServer(t)
	srv.statuses = []string{"finished"}
	ctrl, nav := newTestController(t, srv)
	nav.err = errors.New("window closed")

	w := ctrl.Start(context.Background(), "J1", nil)
	<-w.Done()
	assert.EqualError(t, w.Err(), "window closed")
}
