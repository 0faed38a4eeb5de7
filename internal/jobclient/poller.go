package jobclient

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/james-jasvin/Emotion-Recognizer/internal/domain"
	"github.com/james-jasvin/Emotion-Recognizer/internal/infra"
	"github.com/james-jasvin/Emotion-Recognizer/internal/metrics"
)

// DefaultPollInterval is the delay between two status requests.
const DefaultPollInterval = 2 * time.Second

// PollPolicy bounds a polling loop. The zero value polls every
// DefaultPollInterval until a terminal status, with no overall timeout.
type PollPolicy struct {
	// Interval is the delay before the second poll.
	Interval time.Duration
	// Multiplier grows the delay after every pending answer. Values <= 1
	// keep the interval fixed.
	Multiplier float64
	// MaxInterval caps the grown delay. Zero means the same as Interval,
	// so backoff only applies when a larger cap is set.
	MaxInterval time.Duration
	// Timeout stops polling with domain.ErrPollTimeout. Zero means none.
	Timeout time.Duration
}

// DefaultPollPolicy returns the fixed two second policy.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{Interval: DefaultPollInterval, Multiplier: 1}
}

func (p PollPolicy) normalized() PollPolicy {
	if p.Interval <= 0 {
		p.Interval = DefaultPollInterval
	}
	if p.Multiplier < 1 || math.IsNaN(p.Multiplier) {
		p.Multiplier = 1
	}
	if p.MaxInterval < p.Interval {
		p.MaxInterval = p.Interval
	}
	return p
}

// next grows current by the multiplier. The product is capped in float64
// so that a huge multiplier can never wrap into a negative duration.
func (p PollPolicy) next(current time.Duration) time.Duration {
	if p.Multiplier <= 1 {
		return current
	}
	ceiling := p.MaxInterval
	if ceiling < p.Interval {
		ceiling = p.Interval
	}
	grown := float64(current) * p.Multiplier
	if math.IsNaN(grown) || grown <= 0 || grown > float64(ceiling) {
		return ceiling
	}
	return time.Duration(grown)
}

// StatusFetcher performs a single status request.
type StatusFetcher interface {
	Status(ctx context.Context, jobID string) (*domain.StatusResponse, error)
}

// PollResult describes where a polling loop stopped.
type PollResult struct {
	JobID    string
	State    domain.PollState
	Status   domain.JobStatus
	Attempts int
}

// Poller drives the status state machine for one job at a time. The next
// request is only scheduled after the previous answer was handled, so there
// is never more than one request in flight per job.
type Poller struct {
	fetcher StatusFetcher
	policy  PollPolicy
	logger  *infra.Logger
	after   func(time.Duration) <-chan time.Time
}

// NewPoller returns a Poller that asks fetcher for status updates under
// policy. Missing policy fields take their defaults and a nil logger
// discards output.
func NewPoller(fetcher StatusFetcher, policy PollPolicy, logger *infra.Logger) *Poller {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Poller{
		fetcher: fetcher,
		policy:  policy.normalized(),
		logger:  logger,
		after:   time.After,
	}
}

// Policy returns the effective policy after defaults were applied.
func (p *Poller) Policy() PollPolicy {
	return p.policy
}

// Poll requests the status of jobID until it is finished or failed.
//
// A transport error stops the loop and is returned as is; there is no retry.
// The loop also stops when ctx is done (returning its cause) or when the
// policy timeout elapses (returning domain.ErrPollTimeout). After each
// pending answer the loop continues with the job id echoed by the server.
func (p *Poller) Poll(ctx context.Context, jobID string) (PollResult, error) {
	if p.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, p.policy.Timeout, domain.ErrPollTimeout)
		defer cancel()
	}

	result := PollResult{JobID: jobID, State: domain.PollPending}
	delay := p.policy.Interval
	for {
		result.Attempts++
		resp, err := p.fetcher.Status(ctx, result.JobID)
		if err != nil {
			if ctx.Err() != nil {
				return result, p.stopped(result, context.Cause(ctx))
			}
			metrics.IncPollTerminal("error")
			p.logger.Error().
				Err(err).
				Str("job_id", result.JobID).
				Int("attempt", result.Attempts).
				Msg("poller: status request failed, polling stopped")
			return result, err
		}

		result.Status = resp.JobStatus
		result.State = domain.StateOf(resp.JobStatus)
		metrics.IncPoll(pollLabel(resp.JobStatus))

		if result.State != domain.PollPending {
			metrics.IncPollTerminal(string(result.State))
			p.logger.Info().
				Str("job_id", result.JobID).
				Str("status", string(resp.JobStatus)).
				Int("attempt", result.Attempts).
				Msg("poller: job reached terminal status")
			return result, nil
		}

		if echoed := resp.JobID; echoed != "" && echoed != result.JobID {
			p.logger.Warn().
				Str("job_id", result.JobID).
				Str("echoed_job_id", echoed).
				Msg("poller: server echoed a different job id, following it")
			result.JobID = echoed
		}

		p.logger.Debug().
			Str("job_id", result.JobID).
			Str("status", string(resp.JobStatus)).
			Int("attempt", result.Attempts).
			Dur("next_in", delay).
			Msg("poller: job pending")

		select {
		case <-ctx.Done():
			return result, p.stopped(result, context.Cause(ctx))
		case <-p.after(delay):
		}
		delay = p.policy.next(delay)
	}
}

func (p *Poller) stopped(result PollResult, cause error) error {
	if errors.Is(cause, domain.ErrPollTimeout) {
		metrics.IncPollTerminal("timeout")
		p.logger.Warn().Str("job_id", result.JobID).Int("attempt", result.Attempts).Msg("poller: timed out")
		return cause
	}
	metrics.IncPollTerminal("canceled")
	p.logger.Info().Str("job_id", result.JobID).Int("attempt", result.Attempts).Msg("poller: canceled")
	return cause
}

// pollLabel keeps the status label set closed; the value comes from the server.
func pollLabel(status domain.JobStatus) string {
	switch status {
	case domain.JobStatusQueued, domain.JobStatusRunning, domain.JobStatusFinished, domain.JobStatusFailed:
		return string(status)
	}
	return "other"
}
