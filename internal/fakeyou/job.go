package fakeyou

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Job states reported by the status endpoint.
const (
	StatusStarted         = "started"
	StatusPending         = "pending"
	StatusAttemptFailed   = "attempt_failed"
	StatusDead            = "dead"
	StatusCompleteSuccess = "complete_success"
)

type jobRequest struct {
	IdempotencyToken string `json:"uuid_idempotency_token"`
	ModelToken       string `json:"tts_model_token"`
	InferenceText    string `json:"inference_text"`
}

type jobResponse struct {
	Success   bool   `json:"success"`
	JobToken  string `json:"inference_job_token"`
	TokenType string `json:"inference_job_token_type"`
}

type jobResult struct {
	AudioURL string
}

// Generation is the outcome of one finished job.
type Generation struct {
	JobToken   string
	ModelToken string
	AudioURL   string
	Audio      []byte
}

// GenerateBytes synthesizes text with the voice and returns the wav payload.
func (c *Client) GenerateBytes(ctx context.Context, text string, voice Voice) ([]byte, error) {
	return c.GenerateBytesFromToken(ctx, text, voice.ModelToken)
}

// GenerateBytesFromToken synthesizes text with a known model token.
func (c *Client) GenerateBytesFromToken(ctx context.Context, text, modelToken string) ([]byte, error) {
	gen, err := c.Generate(ctx, text, modelToken)
	if err != nil {
		return nil, err
	}
	return gen.Audio, nil
}

// GenerateFile synthesizes text with the voice and writes the wav to path,
// replacing any existing file.
func (c *Client) GenerateFile(ctx context.Context, text string, voice Voice, path string) error {
	return c.GenerateFileFromToken(ctx, text, voice.ModelToken, path)
}

// GenerateFileFromToken is GenerateFile for a known model token.
func (c *Client) GenerateFileFromToken(ctx context.Context, text, modelToken, path string) error {
	data, err := c.GenerateBytesFromToken(ctx, text, modelToken)
	if err != nil {
		return err
	}
	return WriteAudio(path, data)
}

// WriteAudio writes an audio payload to path.
func WriteAudio(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// Generate runs the full job lifecycle: submit, poll until terminal, download.
func (c *Client) Generate(ctx context.Context, text, modelToken string) (*Generation, error) {
	job, err := c.submitJob(ctx, jobRequest{
		IdempotencyToken: uuid.NewString(),
		ModelToken:       modelToken,
		InferenceText:    text,
	})
	if err != nil {
		return nil, err
	}

	result, err := c.pollJob(ctx, job)
	if err != nil {
		return nil, err
	}

	audio, err := c.getBytes(ctx, result.AudioURL)
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"job":   job.JobToken,
		"bytes": len(audio),
	}).Info("downloaded job audio")

	return &Generation{
		JobToken:   job.JobToken,
		ModelToken: modelToken,
		AudioURL:   result.AudioURL,
		Audio:      audio,
	}, nil
}

func (c *Client) submitJob(ctx context.Context, req jobRequest) (*jobResponse, error) {
	resp, err := c.post(ctx, c.opts.BaseURL+"/tts/inference", req)
	if err != nil {
		return nil, err
	}

	var job jobResponse
	if err := json.Unmarshal(resp.Body(), &job); err != nil {
		return nil, serializationError(err)
	}

	c.log.WithFields(logrus.Fields{
		"job":         job.JobToken,
		"model":       req.ModelToken,
		"idempotency": req.IdempotencyToken,
		"success":     job.Success,
	}).Info("submitted tts job")
	return &job, nil
}

func (c *Client) pollJob(ctx context.Context, job *jobResponse) (*jobResult, error) {
	url := c.opts.BaseURL + "/tts/job/" + job.JobToken
	log := c.log.WithField("job", job.JobToken)

	for attempt := 1; ; attempt++ {
		body, err := c.getJSON(ctx, url)
		if err != nil {
			return nil, err
		}

		state, err := objectField(body, "state")
		if err != nil {
			return nil, err
		}
		status, err := stringField(state, "status")
		if err != nil {
			return nil, err
		}

		switch status {
		case StatusStarted, StatusPending:
			log.WithFields(logrus.Fields{
				"status":  status,
				"attempt": attempt,
			}).Debug("job still running")
		case StatusAttemptFailed, StatusDead:
			log.WithField("status", status).Warn("job failed")
			return nil, ErrJobFailed
		case StatusCompleteSuccess:
			path, err := stringField(state, "maybe_public_bucket_wav_audio_path")
			if err != nil {
				return nil, err
			}
			return &jobResult{AudioURL: c.opts.StorageURL + path}, nil
		default:
			return nil, improper("unknown job status %q", status)
		}

		if c.opts.MaxPollAttempts > 0 && attempt >= c.opts.MaxPollAttempts {
			return nil, ErrPollLimit
		}
		if err := sleep(ctx, c.opts.PollInterval); err != nil {
			return nil, requestError(err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
