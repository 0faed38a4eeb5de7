package domain

// JobStatus is the status string reported by the job status endpoint.
type JobStatus string

const (
	JobStatusQueued   JobStatus = "queued"
	JobStatusRunning  JobStatus = "running"
	JobStatusFinished JobStatus = "finished"
	JobStatusFailed   JobStatus = "failed"
)

// Terminal reports whether no further polling should happen after this status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusFinished || s == JobStatusFailed
}

// PollState is the client-side view of a polled job.
type PollState string

const (
	PollPending  PollState = "pending"
	PollFinished PollState = "finished"
	PollFailed   PollState = "failed"
)

// StateOf maps a reported status onto the poll state machine. Anything that
// is not terminal keeps the job pending, including values the server may add later.
func StateOf(status JobStatus) PollState {
	switch status {
	case JobStatusFinished:
		return PollFinished
	case JobStatusFailed:
		return PollFailed
	default:
		return PollPending
	}
}

// SubmissionStatus is the in-band outcome of a job submission.
type SubmissionStatus string

const (
	SubmissionOK   SubmissionStatus = "ok"
	SubmissionFail SubmissionStatus = "fail"
)

// SubmissionResult is returned by a job submission. ErrorCode is only set
// when Status is SubmissionFail and JobID only when it is SubmissionOK.
type SubmissionResult struct {
	Status    SubmissionStatus
	JobID     string
	ErrorCode string
}

// StatusResponse is a single poll answer.
type StatusResponse struct {
	JobID     string
	JobStatus JobStatus
}
