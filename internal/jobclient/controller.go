package jobclient

import (
	"context"
	"io"

	"github.com/james-jasvin/Emotion-Recognizer/internal/domain"
	"github.com/james-jasvin/Emotion-Recognizer/internal/infra"
)

// Submitter sends a job payload to the server.
type Submitter interface {
	Submit(ctx context.Context, payload io.Reader, contentType string) (*domain.SubmissionResult, error)
}

// Outcome summarizes one submit-and-poll run.
type Outcome struct {
	JobID     string
	State     domain.PollState
	Status    domain.JobStatus
	ErrorCode string
	Attempts  int
}

// Controller ties submission, polling and navigation together the way the
// upload page does: a rejection goes home with its error code, a finished job
// goes to the results view, and anything else stays where it is.
type Controller struct {
	submitter Submitter
	poller    *Poller
	navigator Navigator
	logger    *infra.Logger
}

// NewController wires a submitter, a poller and a navigator. A nil logger
// discards output.
func NewController(submitter Submitter, poller *Poller, navigator Navigator, logger *infra.Logger) *Controller {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Controller{
		submitter: submitter,
		poller:    poller,
		navigator: navigator,
		logger:    logger,
	}
}

// Run submits payload and, when the server accepts it, polls the job until
// it stops. Transport errors are logged and returned without any navigation.
// A rejection returns a *ValidationError after navigating home.
func (c *Controller) Run(ctx context.Context, payload io.Reader, contentType string) (Outcome, error) {
	res, err := c.submitter.Submit(ctx, payload, contentType)
	if err != nil {
		c.logger.Error().Err(err).Msg("jobclient: job submission failed")
		return Outcome{}, err
	}

	if res.Status == domain.SubmissionFail {
		c.logger.Info().Str("error_code", res.ErrorCode).Msg("jobclient: submission rejected, returning home")
		out := Outcome{ErrorCode: res.ErrorCode}
		if err := c.navigator.Home(ctx, res.ErrorCode); err != nil {
			return out, err
		}
		return out, &ValidationError{Code: res.ErrorCode}
	}

	c.logger.Info().Str("job_id", res.JobID).Msg("jobclient: job accepted, polling status")
	w := c.Start(ctx, res.JobID, nil)
	<-w.Done()
	r := w.Result()
	return Outcome{JobID: r.JobID, State: r.State, Status: r.Status, Attempts: r.Attempts}, w.Err()
}

// Watch is a polling loop running in the background.
type Watch struct {
	done   chan struct{}
	result PollResult
	err    error
}

// Done is closed once the loop stopped.
func (w *Watch) Done() <-chan struct{} { return w.done }

// Result is valid after Done is closed.
func (w *Watch) Result() PollResult { return w.result }

// Err is valid after Done is closed.
func (w *Watch) Err() error { return w.err }

// Start polls jobID in the background and returns immediately. onTerminal,
// when set, is called with the terminal status before any navigation; it is
// not called when polling stops on an error, a timeout or cancellation.
// Only a finished job navigates, to the results view.
func (c *Controller) Start(ctx context.Context, jobID string, onTerminal func(domain.JobStatus)) *Watch {
	w := &Watch{done: make(chan struct{})}
	go func() {
		defer close(w.done)
		w.result, w.err = c.poller.Poll(ctx, jobID)
		if w.err != nil {
			return
		}
		if onTerminal != nil {
			onTerminal(w.result.Status)
		}
		if w.result.State != domain.PollFinished {
			return
		}
		if err := c.navigator.Results(ctx); err != nil {
			c.logger.Error().Err(err).Str("job_id", w.result.JobID).Msg("jobclient: navigation to results failed")
			w.err = err
		}
	}()
	return w
}
