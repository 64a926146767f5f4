package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/otherjamesbrown/recap-cli/pkg/logging"
)

// Extractor converts video inputs into audio files the transcriber can
// consume, and splits long audio into fixed-duration chunks. It shells out
// to ffmpeg, which must be on PATH.
type Extractor struct {
	// FFmpegPath overrides the ffmpeg binary location (default "ffmpeg").
	FFmpegPath string

	logger logging.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(logger logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Extractor{
		FFmpegPath: "ffmpeg",
		logger:     logger,
	}
}

// Workspace is a scoped temporary directory for intermediate media files.
// Callers must Close it when the pipeline run finishes.
type Workspace struct {
	Dir string
}

// Close removes the workspace directory and everything in it.
func (w *Workspace) Close() error {
	if w.Dir == "" {
		return nil
	}
	return os.RemoveAll(w.Dir)
}

// NewWorkspace creates a temporary directory for one pipeline run.
func NewWorkspace() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "recap-media-*")
	if err != nil {
		return nil, fmt.Errorf("creating media workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// ExtractAudio extracts the audio track from a video file into the
// workspace as 16kHz mono WAV, the format speech recognizers expect.
func (e *Extractor) ExtractAudio(ctx context.Context, ws *Workspace, videoPath string) (string, error) {
	outPath := filepath.Join(ws.Dir, "audio.wav")

	args := []string{
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outPath,
	}

	e.logger.Debug("extracting audio track",
		logging.F("input", videoPath),
		logging.F("output", outPath))

	cmd := exec.CommandContext(ctx, e.FFmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg audio extraction: %w: %s", err, tail(out))
	}

	return outPath, nil
}

// SplitAudio splits an audio file into consecutive chunks of chunkSeconds
// each, returning the chunk paths in playback order. The final chunk may be
// shorter.
func (e *Extractor) SplitAudio(ctx context.Context, ws *Workspace, audioPath string, chunkSeconds int) ([]string, error) {
	if chunkSeconds <= 0 {
		return nil, fmt.Errorf("chunk seconds must be positive, got %d", chunkSeconds)
	}

	chunkDir := filepath.Join(ws.Dir, "chunks")
	if err := os.MkdirAll(chunkDir, 0700); err != nil {
		return nil, fmt.Errorf("creating chunk directory: %w", err)
	}

	pattern := filepath.Join(chunkDir, "chunk-%04d.wav")
	args := []string{
		"-y",
		"-i", audioPath,
		"-f", "segment",
		"-segment_time", strconv.Itoa(chunkSeconds),
		"-c", "copy",
		pattern,
	}

	e.logger.Debug("splitting audio",
		logging.F("input", audioPath),
		logging.F("chunk_seconds", chunkSeconds))

	cmd := exec.CommandContext(ctx, e.FFmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg audio split: %w: %s", err, tail(out))
	}

	chunks, err := filepath.Glob(filepath.Join(chunkDir, "chunk-*.wav"))
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no chunks for %s", audioPath)
	}

	// Glob returns lexical order, which matches the %04d numbering.
	return chunks, nil
}

// tail returns the last part of command output for error messages.
func tail(out []byte) string {
	const max = 512
	s := string(out)
	if len(s) > max {
		return "..." + s[len(s)-max:]
	}
	return s
}
