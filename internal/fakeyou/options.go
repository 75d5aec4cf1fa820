package fakeyou

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL      = "https://api.fakeyou.com"
	DefaultStorageURL   = "https://storage.googleapis.com/vocodes-public"
	DefaultPollInterval = 2 * time.Second
	DefaultTimeout      = 30 * time.Second
)

// Options tune a Client. The zero value of MaxPollAttempts polls until the
// job reaches a terminal state.
type Options struct {
	BaseURL         string
	StorageURL      string
	PollInterval    time.Duration
	MaxPollAttempts int
	Timeout         time.Duration
	Logger          *logrus.Entry
}

// Option customises a Client at construction time.
type Option func(*Options)

// WithBaseURL points the client at another API host.
func WithBaseURL(url string) Option {
	return func(o *Options) { o.BaseURL = strings.TrimRight(url, "/") }
}

// WithStorageURL sets the prefix joined to finished audio paths.
func WithStorageURL(url string) Option {
	return func(o *Options) { o.StorageURL = strings.TrimRight(url, "/") }
}

// WithPollInterval sets the delay between job status requests.
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) { o.PollInterval = d }
}

// WithMaxPollAttempts bounds the number of status requests per job.
func WithMaxPollAttempts(n int) Option {
	return func(o *Options) { o.MaxPollAttempts = n }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithLogger replaces the default logrus entry.
func WithLogger(l *logrus.Entry) Option {
	return func(o *Options) { o.Logger = l }
}

func newOptions(opts []Option) Options {
	o := Options{
		BaseURL:      DefaultBaseURL,
		StorageURL:   DefaultStorageURL,
		PollInterval: DefaultPollInterval,
		Timeout:      DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if o.PollInterval < 0 {
		o.PollInterval = 0
	}
	return o
}
