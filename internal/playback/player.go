// Package playback plays synthesized wav audio through the system speaker.
package playback

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Decode parses a wav payload held in memory.
func Decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	streamer, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to decode wav: %w", err)
	}
	return streamer, format, nil
}

// Duration reports how long the wav payload plays for.
func Duration(data []byte) (time.Duration, error) {
	streamer, format, err := Decode(data)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}

// Play blocks until the audio has finished or ctx is cancelled.
func Play(ctx context.Context, data []byte) error {
	streamer, format, err := Decode(data)
	if err != nil {
		return err
	}
	defer streamer.Close()

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("failed to init speaker: %w", err)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
