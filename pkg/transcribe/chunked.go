package transcribe

import (
	"context"
	"errors"
	"strings"

	"github.com/otherjamesbrown/recap-cli/pkg/logging"
)

// ChunkedTranscriber transcribes a sequence of audio chunks in order,
// degrading chunks the service cannot understand to the inaudible sentinel
// so a single bad chunk never loses the whole meeting.
type ChunkedTranscriber struct {
	transcriber Transcriber
	logger      logging.Logger
}

// NewChunkedTranscriber creates a ChunkedTranscriber.
func NewChunkedTranscriber(transcriber Transcriber, logger logging.Logger) *ChunkedTranscriber {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ChunkedTranscriber{
		transcriber: transcriber,
		logger:      logger,
	}
}

// TranscribeChunks recognizes each chunk in playback order and joins the
// results into one transcript. Chunks the service rejects as unrecognizable
// become InaudibleSentinel; transient failures, auth failures, and
// cancellation abort the whole run so the caller can retry it.
func (c *ChunkedTranscriber) TranscribeChunks(ctx context.Context, chunkPaths []string) (*Transcript, error) {
	pieces := make([]string, 0, len(chunkPaths))
	inaudible := 0

	for i, path := range chunkPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := c.transcriber.Transcribe(ctx, path)
		if err != nil {
			var perm *PermanentError
			if !errors.As(err, &perm) {
				return nil, err
			}
			c.logger.Warn("chunk recognition failed, marking inaudible",
				logging.F("chunk", i),
				logging.Err(err))
			text = InaudibleSentinel
			inaudible++
		}

		if text = strings.TrimSpace(text); text != "" {
			pieces = append(pieces, text)
		}
	}

	return &Transcript{
		FullText:        strings.Join(pieces, " "),
		Format:          "audio",
		InaudibleChunks: inaudible,
	}, nil
}
