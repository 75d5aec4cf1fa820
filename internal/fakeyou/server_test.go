package fakeyou

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const (
	testCategories = `{"success":true,"categories":[
		{"category_token":"CAT:anime","name":"Anime","model_type":"tts"},
		{"category_token":"CAT:games","name":"Games","model_type":"tts"}]}`
	testVoices = `{"success":true,"models":[
		{"model_token":"TM:goku","title":"Goku","category_tokens":["CAT:anime"]},
		{"model_token":"TM:mario","title":"Mario","category_tokens":["CAT:games"]},
		{"model_token":"TM:link","title":"Link","category_tokens":["CAT:games","CAT:anime"]}]}`
)

// fakeService emulates the FakeYou API closely enough to drive a Client.
type fakeService struct {
	t *testing.T

	mu             sync.Mutex
	loginStatus    int
	loginBody      string
	categoriesBody string
	voicesBody     string
	listStatus     int
	submitStatus   int
	submitBody     string
	statuses       []string
	audioPath      string
	audio          []byte
	sessionCookie  bool

	polls        int
	submissions  []jobRequest
	loginRequest map[string]any
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	f := &fakeService{
		t:              t,
		loginStatus:    http.StatusOK,
		loginBody:      loginSuccessBody,
		categoriesBody: testCategories,
		voicesBody:     testVoices,
		listStatus:     http.StatusOK,
		submitStatus:   http.StatusOK,
		submitBody:     `{"success":true,"inference_job_token":"JTINF:123","inference_job_token_type":"inference"}`,
		statuses:       []string{StatusStarted, StatusPending, StatusCompleteSuccess},
		audioPath:      "/weights/x.wav",
		audio:          []byte("RIFF-fake-wav"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", f.handleLogin)
	mux.HandleFunc("GET /category/list/tts", f.handleList(func() string { return f.categoriesBody }))
	mux.HandleFunc("GET /tts/list", f.handleList(func() string { return f.voicesBody }))
	mux.HandleFunc("POST /tts/inference", f.handleSubmit)
	mux.HandleFunc("GET /tts/job/{token}", f.handleJob)
	mux.HandleFunc("GET /storage/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(f.audio)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeService) handleLogin(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(body, &f.loginRequest)

	http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
	w.WriteHeader(f.loginStatus)
	_, _ = io.WriteString(w, f.loginBody)
}

func (f *fakeService) handleList(body func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if _, err := r.Cookie("session"); err == nil {
			f.sessionCookie = true
		}
		w.WriteHeader(f.listStatus)
		_, _ = io.WriteString(w, body())
	}
}

func (f *fakeService) handleSubmit(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.t.Errorf("decode job request: %v", err)
	}
	f.submissions = append(f.submissions, req)

	w.WriteHeader(f.submitStatus)
	_, _ = io.WriteString(w, f.submitBody)
}

func (f *fakeService) handleJob(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.polls
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	f.polls++

	status := f.statuses[idx]
	if status == "429" {
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}

	state := map[string]any{"status": status}
	if status == StatusCompleteSuccess {
		state["maybe_public_bucket_wav_audio_path"] = f.audioPath
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"state":   state,
	})
}

func (f *fakeService) set(fn func(f *fakeService)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeService) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func testOptions(srv *httptest.Server, extra ...Option) []Option {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	opts := []Option{
		WithBaseURL(srv.URL),
		WithStorageURL(srv.URL + "/storage"),
		WithPollInterval(time.Millisecond),
		WithLogger(logrus.NewEntry(logger)),
	}
	return append(opts, extra...)
}

func newTestClient(t *testing.T, srv *httptest.Server, extra ...Option) *Client {
	t.Helper()
	c, err := Authenticate(context.Background(), "user", "pass", testOptions(srv, extra...)...)
	require.NoError(t, err)
	return c
}

func httptestServer(t *testing.T, h http.Handler) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}
