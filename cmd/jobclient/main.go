package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/james-jasvin/Emotion-Recognizer/internal/domain"
	"github.com/james-jasvin/Emotion-Recognizer/internal/http/httpapi"
	"github.com/james-jasvin/Emotion-Recognizer/internal/infra"
	"github.com/james-jasvin/Emotion-Recognizer/internal/jobclient"
	"github.com/james-jasvin/Emotion-Recognizer/internal/messages"
	"github.com/james-jasvin/Emotion-Recognizer/internal/metrics"
)

const (
	defaultPayload = "Start Redis job"

	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
)

type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }

func (f *fileList) Set(v string) error {
	*f = append(*f, v)
	return nil
}

type flowOptions struct {
	payload string
	uploads []string
	jobID   string
}

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	var uploads fileList
	payload := flag.String("payload", defaultPayload, "raw body sent to POST /jobs")
	jobID := flag.String("job", "", "poll an existing job instead of submitting one")
	flag.Var(&uploads, "upload", "image or video to upload before submitting (repeatable)")
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitFailure
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()

	client, err := jobclient.NewClient(jobclient.Options{
		BaseURL:        cfg.BaseURL,
		HomePath:       cfg.HomePath,
		Logger:         &logger,
		RequestTimeout: cfg.HTTPTimeout,
	})
	if err != nil {
		logger.Error().Err(err).Msg("jobclient: failed to configure client")
		return exitFailure
	}
	urlNav, err := jobclient.NewURLNavigator(cfg.BaseURL, cfg.HomePath, cfg.ResultsPath, openURL(logger))
	if err != nil {
		logger.Error().Err(err).Msg("jobclient: failed to configure navigator")
		return exitFailure
	}
	nav := &consoleNavigator{URLNavigator: urlNav, locale: cfg.Locale}
	poller := jobclient.NewPoller(client, pollPolicy(cfg), &logger)
	ctrl := jobclient.NewController(client, poller, nav, &logger)

	srv := infra.NewHTTPServer(cfg, httpapi.NewRouter(logger))

	g, gctx := errgroup.WithContext(ctx)
	code := exitOK
	if srv.Enabled() {
		g.Go(func() error {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("jobclient: metrics listening")
			return srv.Start()
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		defer stop()
		code = runFlow(gctx, client, ctrl, logger, flowOptions{payload: *payload, uploads: uploads, jobID: *jobID})
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("jobclient: metrics server failed")
		if code == exitOK {
			code = exitFailure
		}
	}
	return code
}

func pollPolicy(cfg *infra.Config) jobclient.PollPolicy {
	return jobclient.PollPolicy{
		Interval:    cfg.PollInterval,
		Multiplier:  cfg.PollBackoff,
		MaxInterval: cfg.PollMaxInterval,
		Timeout:     cfg.PollTimeout,
	}
}

func runFlow(ctx context.Context, client *jobclient.Client, ctrl *jobclient.Controller, logger infra.Logger, opts flowOptions) int {
	if opts.jobID != "" {
		w := ctrl.Start(ctx, opts.jobID, func(s domain.JobStatus) {
			logger.Info().Str("job_id", opts.jobID).Str("status", string(s)).Msg("jobclient: job stopped")
		})
		<-w.Done()
		return exitCode(w.Result().State, w.Err())
	}

	if err := client.OpenSession(ctx); err != nil {
		logger.Error().Err(err).Str("url", client.BaseURL()).Msg("jobclient: could not open session")
		return exitFailure
	}
	if len(opts.uploads) > 0 {
		if err := client.UploadFiles(ctx, opts.uploads); err != nil {
			logger.Error().Err(err).Msg("jobclient: upload failed")
			return exitFailure
		}
	}

	out, err := ctrl.Run(ctx, strings.NewReader(opts.payload), "")
	if err == nil && out.State == domain.PollFailed {
		logger.Warn().Str("job_id", out.JobID).Msg("jobclient: job failed on the server")
	} else if err == nil {
		logger.Info().
			Str("job_id", out.JobID).
			Str("state", string(out.State)).
			Int("attempts", out.Attempts).
			Msg("jobclient: done")
	}
	return exitCode(out.State, err)
}

// exitCode is 0 for a finished job, 2 for a rejected submission and 1 for
// everything else: transport errors, timeouts, cancellation and failed jobs.
func exitCode(state domain.PollState, err error) int {
	switch {
	case err == nil && state != domain.PollFailed:
		return exitOK
	case errors.Is(err, domain.ErrValidation):
		return exitValidation
	default:
		return exitFailure
	}
}

// consoleNavigator prints the error message the home view would show before
// handing over the home URL.
type consoleNavigator struct {
	*jobclient.URLNavigator
	locale string
}

func (n *consoleNavigator) Home(ctx context.Context, errorCode string) error {
	fmt.Fprintln(os.Stderr, messages.Banner(n.locale, errorCode))
	return n.URLNavigator.Home(ctx, errorCode)
}

func openURL(logger infra.Logger) jobclient.OpenFunc {
	return func(_ context.Context, target string) error {
		logger.Info().Str("url", target).Msg("jobclient: navigate")
		_, err := fmt.Fprintln(os.Stdout, target)
		return err
	}
}
