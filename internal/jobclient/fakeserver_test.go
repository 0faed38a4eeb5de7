package jobclient

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

const sessionCookie = "session"

// statusTransportError makes the fake server answer a poll with a bare 500.
const statusTransportError = "!500"

// eventLog records poll requests and navigations in order.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// fakeJobServer speaks the job endpoints of the web application.
type fakeJobServer struct {
	*httptest.Server

	log *eventLog

	mu              sync.Mutex
	requireSession  bool
	submitStatus    int
	submitBody      any
	statuses        []string
	echoID          string
	pollTimes       []time.Time
	submittedBodies [][]byte
	submittedTypes  []string
	uploadedFiles   []string
}

func newFakeJobServer(t *testing.T) *fakeJobServer {
	t.Helper()
	s := &fakeJobServer{log: &eventLog{}, submitStatus: http.StatusAccepted}

	r := chi.NewRouter()
	r.Get("/home", s.home)
	r.Post("/jobs", s.submit)
	r.Get("/jobs/{id}", s.status)
	r.Post("/uploads", s.upload)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func (s *fakeJobServer) home(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "user-uuid", Path: "/"})
	w.Header().Set("Content-Type", "text/html")
	_, _ = io.WriteString(w, "<html><body class=\"homePage\"></body></html>")
}

func (s *fakeJobServer) submit(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.submittedBodies = append(s.submittedBodies, body)
	s.submittedTypes = append(s.submittedTypes, r.Header.Get("Content-Type"))
	requireSession := s.requireSession
	status, payload := s.submitStatus, s.submitBody
	s.mu.Unlock()

	if requireSession {
		if _, err := r.Cookie(sessionCookie); err != nil {
			writeJSON(w, http.StatusFound, map[string]any{"status": "fail", "error_code": "102"})
			return
		}
	}
	writeJSON(w, status, payload)
}

func (s *fakeJobServer) status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.log.add("poll:" + id)

	s.mu.Lock()
	s.pollTimes = append(s.pollTimes, time.Now())
	idx := len(s.pollTimes) - 1
	var status string
	if idx < len(s.statuses) {
		status = s.statuses[idx]
	}
	echo := s.echoID
	s.mu.Unlock()

	if status == "" || status == statusTransportError {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if echo == "" {
		echo = id
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"job_id": echo, "job_status": status},
	})
}

func (s *fakeJobServer) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer file.Close()
	if KindOf(header.Filename) == MediaUnsupported {
		http.Error(w, "Unsupported File Format", http.StatusUnsupportedMediaType)
		return
	}
	s.mu.Lock()
	s.uploadedFiles = append(s.uploadedFiles, header.Filename)
	s.mu.Unlock()
	_, _ = io.WriteString(w, "UPLOADING")
}

func (s *fakeJobServer) polls() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.pollTimes...)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
