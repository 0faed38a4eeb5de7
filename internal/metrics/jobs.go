package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(submissionsTotal, pollsTotal, pollTerminalTotal, uploadsTotal, requestDuration)
}

var submissionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobclient_submissions_total",
		Help: "Job submissions by result.",
	},
	[]string{"result"}, // ok, fail, transport_error
)

var pollsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobclient_polls_total",
		Help: "Status polls by reported job status.",
	},
	[]string{"status"},
)

var pollTerminalTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobclient_poll_terminal_total",
		Help: "Polling loops that stopped, by reason.",
	},
	[]string{"state"}, // finished, failed, error, timeout, canceled
)

var uploadsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobclient_uploads_total",
		Help: "File uploads by result.",
	},
	[]string{"result"},
)

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "jobclient_request_duration_seconds",
		Help:    "Latency of requests to the job server.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"op"},
)

// IncSubmission counts a submission by result.
func IncSubmission(result string) {
	submissionsTotal.WithLabelValues(norm(result)).Inc()
}

// IncPoll counts one status answer.
func IncPoll(status string) {
	pollsTotal.WithLabelValues(norm(status)).Inc()
}

// IncPollTerminal counts a polling loop that stopped.
func IncPollTerminal(state string) {
	pollTerminalTotal.WithLabelValues(norm(state)).Inc()
}

// IncUpload counts an upload attempt by result.
func IncUpload(result string) {
	uploadsTotal.WithLabelValues(norm(result)).Inc()
}

// ObserveRequest records the latency of one request to the job server.
func ObserveRequest(op string, d time.Duration) {
	requestDuration.WithLabelValues(norm(op)).Observe(d.Seconds())
}
